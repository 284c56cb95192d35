// Package session caches hot conversation context in Redis so the
// orchestrator avoids re-reading the durable store on every message.
// The cache is strictly cache-aside: Postgres stays the source of truth
// and a miss is never an error.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadflow_backend/internal/conversation/domain"
)

const keyPrefix = "session:"

// Session is the cached per-phone conversation context.
type Session struct {
	LeadID         uuid.UUID    `json:"lead_id"`
	ConversationID uuid.UUID    `json:"conversation_id"`
	CurrentState   domain.State `json:"current_state"`
	ProjectType    string       `json:"project_type,omitempty"`
	Budget         string       `json:"budget,omitempty"`
	Timeline       string       `json:"timeline,omitempty"`
	BusinessType   string       `json:"business_type,omitempty"`
}

// Store reads and writes sessions keyed by phone number with a bounded
// TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Get returns the cached session for a phone number, or false on a
// miss. Corrupt cache entries are dropped and treated as a miss.
func (s *Store) Get(ctx context.Context, phone string) (Session, bool, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+phone).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		_ = s.rdb.Del(ctx, keyPrefix+phone).Err()
		return Session{}, false, nil
	}
	return sess, true, nil
}

// Set stores the session, refreshing the TTL.
func (s *Store) Set(ctx context.Context, phone string, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+phone, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Delete removes the session, typically on conversation exit or a GDPR
// erasure request.
func (s *Store) Delete(ctx context.Context, phone string) error {
	if err := s.rdb.Del(ctx, keyPrefix+phone).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
