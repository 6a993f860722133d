package service

import (
	"errors"
	"testing"

	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/repository"
)

func TestResourceServiceGetPublicBySlug(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	author := createSettlementTestUser(t, fx.db, "author@example.com")
	published := createSettlementTestResource(t, fx.db, author.ID, "mcp-search", 1000, 80)
	hidden := createSettlementTestResource(t, fx.db, author.ID, "draft-rule", 500, 70)
	if err := fx.db.Model(hidden).Update("status", constants.ResourceStatusPending).Error; err != nil {
		t.Fatalf("update status failed: %v", err)
	}

	svc := NewResourceService(repository.NewResourceRepository(fx.db))

	got, err := svc.GetPublicBySlug(" mcp-search ")
	if err != nil {
		t.Fatalf("GetPublicBySlug failed: %v", err)
	}
	if got.ID != published.ID || got.Author.ID != author.ID {
		t.Fatalf("unexpected resource: %+v", got)
	}

	if _, err := svc.GetPublicBySlug("draft-rule"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pending resource should be hidden, got: %v", err)
	}
	if _, err := svc.GetPublicBySlug("missing"); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got: %v", err)
	}

	list, total, err := svc.ListPublic(0, "", 1, 20)
	if err != nil {
		t.Fatalf("ListPublic failed: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != published.ID {
		t.Fatalf("unexpected public list: total=%d %+v", total, list)
	}
}
