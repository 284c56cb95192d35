package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/platform/apperr"
)

func TestCreateProofAssetValidation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	if _, err := svc.CreateProofAsset(ctx, "BROCHURE", "website", "Our work", nil, nil, nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown type: err = %v, want validation", err)
	}
	if _, err := svc.CreateProofAsset(ctx, domain.AssetPortfolio, "", "Our work", nil, nil, nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("missing project type: err = %v, want validation", err)
	}

	asset, err := svc.CreateProofAsset(ctx, domain.AssetPortfolio, "website", "Our work", ptr("Selected projects"), ptr("https://example.com/work"), nil)
	if err != nil {
		t.Fatalf("CreateProofAsset: %v", err)
	}
	if !asset.IsActive {
		t.Fatalf("new asset not active")
	}
}

func TestSetProofAssetActive(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	asset, err := svc.CreateProofAsset(ctx, domain.AssetTestimonial, "mobile-app", "Client quote", nil, nil, ptr("Best team we worked with."))
	if err != nil {
		t.Fatalf("CreateProofAsset: %v", err)
	}

	retired, err := svc.SetProofAssetActive(ctx, asset.ID, false)
	if err != nil {
		t.Fatalf("SetProofAssetActive: %v", err)
	}
	if retired.IsActive {
		t.Fatalf("asset still active after retirement")
	}

	active, err := svc.ListProofAssets(ctx, true)
	if err != nil {
		t.Fatalf("ListProofAssets: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("retired asset listed as active")
	}

	all, err := svc.ListProofAssets(ctx, false)
	if err != nil {
		t.Fatalf("ListProofAssets: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("assets = %d, want 1", len(all))
	}

	if _, err := svc.SetProofAssetActive(ctx, uuid.New(), false); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing asset: err = %v, want not found", err)
	}
}
