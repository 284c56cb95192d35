package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/platform/apperr"
)

// CreateProofAsset adds a catalog asset available for injection.
func (s *Service) CreateProofAsset(ctx context.Context, assetType domain.ProofAssetType, projectType, title string, description, contentURL, contentText *string) (repository.ProofAsset, error) {
	if !validAssetType(assetType) {
		return repository.ProofAsset{}, apperr.Validation("unknown asset type")
	}
	if projectType == "" || title == "" {
		return repository.ProofAsset{}, apperr.Validation("project type and title are required")
	}

	return s.store.CreateAsset(ctx, repository.CreateAssetParams{
		AssetType:   assetType,
		ProjectType: projectType,
		Title:       title,
		Description: description,
		ContentURL:  contentURL,
		ContentText: contentText,
	})
}

// ListProofAssets returns catalog assets, optionally only active ones.
func (s *Service) ListProofAssets(ctx context.Context, activeOnly bool) ([]repository.ProofAsset, error) {
	return s.store.ListAssets(ctx, activeOnly)
}

// SetProofAssetActive activates or retires a catalog asset.
func (s *Service) SetProofAssetActive(ctx context.Context, id uuid.UUID, active bool) (repository.ProofAsset, error) {
	asset, err := s.store.SetAssetActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.ProofAsset{}, apperr.NotFound("asset not found")
	}
	return asset, err
}

func validAssetType(t domain.ProofAssetType) bool {
	switch t {
	case domain.AssetPortfolio, domain.AssetCaseStudy, domain.AssetTestimonial:
		return true
	}
	return false
}
