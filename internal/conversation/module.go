// Package conversation is the bounded context for the WhatsApp lead
// qualification bot: conversation lifecycle, scoring, proof delivery,
// follow-ups and human handover.
package conversation

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"leadflow_backend/internal/conversation/handler"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/conversation/service"
	"leadflow_backend/internal/conversation/session"
	"leadflow_backend/internal/events"
	apphttp "leadflow_backend/internal/http"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

// ModuleConfig combines the config surfaces the conversation module needs.
type ModuleConfig interface {
	config.WhatsAppConfig
	config.SessionConfig
	config.BotConfig
}

// Module is the conversation bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the conversation module with all its
// dependencies. The redis client is optional: without it the module runs
// with no session cache and no inbound throttle.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, channel service.ChannelSender, cfg ModuleConfig, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	var sessions service.SessionStore
	var limiter service.RateLimiter
	if rdb != nil {
		sessions = session.NewStore(rdb, cfg.GetSessionTTL())
		limiter = session.NewRateLimiter(rdb, cfg.GetInboundRatePerMinute(), time.Minute)
	}

	svc := service.New(service.Options{
		Store:          repo,
		Channel:        channel,
		Sessions:       sessions,
		Limiter:        limiter,
		Bus:            eventBus,
		Logger:         log,
		MaxReplyLength: cfg.GetMaxReplyLength(),
	})

	return &Module{
		handler: handler.NewHandler(svc, val, cfg, log),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversation"
}

// Service exposes the conversation service for out-of-process callers
// (the follow-up worker shares it).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the persistence layer for adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts conversation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public channel webhook (verify-token handshake, throttled per IP)
	webhook := ctx.V1.Group("/webhook")
	webhook.Use(ctx.WebhookRateLimiter.RateLimit())
	webhook.GET("/whatsapp", m.handler.HandleVerifyWebhook)
	webhook.POST("/whatsapp", m.handler.HandleInboundWebhook)

	// Agent console (JWT auth)
	conversations := ctx.Protected.Group("/conversations")
	conversations.GET("/:conversationId/context", m.handler.HandleGetContext)
	conversations.POST("/:conversationId/takeover", m.handler.HandleTakeover)
	conversations.POST("/:conversationId/release", m.handler.HandleRelease)
	conversations.POST("/:conversationId/escalate", m.handler.HandleEscalate)
	ctx.Protected.POST("/followups/:followUpId/next", m.handler.HandleScheduleNextFollowUp)

	// Admin surface (JWT auth + admin role)
	assets := ctx.Admin.Group("/assets")
	assets.POST("", m.handler.HandleCreateAsset)
	assets.GET("", m.handler.HandleListAssets)
	assets.PATCH("/:assetId/active", m.handler.HandleSetAssetActive)

	blacklist := ctx.Admin.Group("/blacklist")
	blacklist.GET("", m.handler.HandleListBlacklist)
	blacklist.POST("", m.handler.HandleAddBlacklistPhrase)
	blacklist.DELETE("", m.handler.HandleRemoveBlacklistPhrase)

	ctx.Admin.GET("/followups/due", m.handler.HandleListDueFollowUps)

	// Data access and erasure (admin role, own prefix)
	gdpr := ctx.V1.Group("/gdpr", ctx.AuthMiddleware, httpkit.RequireRole("admin"))
	gdpr.GET("/leads/:phone/export", m.handler.HandleExportLead)
	gdpr.DELETE("/leads/:phone", m.handler.HandleEraseLead)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
