package service

import (
	"context"
	"errors"
	"testing"

	"github.com/toolshelf/internal/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSalesServiceListAndEarnings(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	admin := createSettlementTestUser(t, fx.db, "admin-sales@example.com")
	creator := createSettlementTestUser(t, fx.db, "creator-sales@example.com")
	buyer := createSettlementTestUser(t, fx.db, "buyer-sales@example.com")
	resource := createSettlementTestResource(t, fx.db, creator.ID, "sales-prompt", 10000, 80)

	var lastID uint
	for i := 0; i < 3; i++ {
		purchase, err := fx.purchaseSvc.RecordPurchase(RecordPurchaseInput{ResourceID: resource.ID, BuyerID: buyer.ID, AmountTotal: 10000})
		if err != nil {
			t.Fatalf("record purchase failed: %v", err)
		}
		lastID = purchase.ID
	}
	if _, err := fx.purchaseSvc.ReversePurchase(AdminActor(admin.ID), lastID, "duplicate charge"); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	req, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 3000})
	if err != nil {
		t.Fatalf("submit payout failed: %v", err)
	}
	if _, err := fx.payoutSvc.ReviewPayoutRequest(AdminActor(admin.ID), req.ID, ReviewPayoutInput{Decision: "APPROVE"}); err != nil {
		t.Fatalf("approve payout failed: %v", err)
	}
	if _, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 1000}); err != nil {
		t.Fatalf("submit pending payout failed: %v", err)
	}

	rows, total, err := fx.salesSvc.ListCreatorSales(creator.ID, 1, 2)
	if err != nil {
		t.Fatalf("list sales failed: %v", err)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("unexpected sales page total=%d len=%d", total, len(rows))
	}
	if rows[0].PurchaseID != lastID || !rows[0].Reversed {
		t.Fatalf("latest sale should come first and be flagged reversed: %+v", rows[0])
	}

	summary, err := fx.salesSvc.GetCreatorEarnings(context.Background(), creator.ID)
	if err != nil {
		t.Fatalf("earnings summary failed: %v", err)
	}
	if summary.SalesCount != 2 || len(summary.Balances) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	usd := summary.Balances[0]
	if usd.Currency != "USD" || usd.TotalEarnings != 16000 || usd.Approved != 3000 || usd.Pending != 1000 || usd.Available != 13000 {
		t.Fatalf("unexpected usd balance: %+v", usd)
	}

	available, err := fx.payoutSvc.AvailableBalance(creator.ID, "USD")
	if err != nil {
		t.Fatalf("available balance failed: %v", err)
	}
	if available != usd.Available {
		t.Fatalf("summary available %d should match payout balance %d", usd.Available, available)
	}
}

func TestSalesServiceEarningsRequiresCreator(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	if _, err := fx.salesSvc.GetCreatorEarnings(context.Background(), 0); err != ErrCreatorNotFound {
		t.Fatalf("zero creator want ErrCreatorNotFound got %v", err)
	}
}

func TestCacheInvalidateFailureIsLogged(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	creator := createSettlementTestUser(t, fx.db, "creator-invalidate@example.com")
	buyer := createSettlementTestUser(t, fx.db, "buyer-invalidate@example.com")
	resource := createSettlementTestResource(t, fx.db, creator.ID, "invalidate-prompt", 5000, 80)

	core, logs := observer.New(zapcore.WarnLevel)
	prevLogger := logger.L
	logger.L = zap.New(core)
	var invalidated []uint
	prevInvalidate := invalidateEarningsCache
	invalidateEarningsCache = func(_ context.Context, creatorID uint) error {
		invalidated = append(invalidated, creatorID)
		return errors.New("redis unavailable")
	}
	t.Cleanup(func() {
		logger.L = prevLogger
		invalidateEarningsCache = prevInvalidate
	})

	if _, err := fx.purchaseSvc.RecordPurchase(RecordPurchaseInput{ResourceID: resource.ID, BuyerID: buyer.ID, AmountTotal: 5000}); err != nil {
		t.Fatalf("record purchase should succeed when cache invalidation fails: %v", err)
	}
	if len(invalidated) != 1 || invalidated[0] != creator.ID {
		t.Fatalf("expected invalidation for creator %d, got %v", creator.ID, invalidated)
	}
	entries := logs.FilterMessage("creator_earnings_cache_invalidate_failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one invalidate warning, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["creator_id"] != uint64(creator.ID) || fields["error"] != "redis unavailable" {
		t.Fatalf("unexpected warning fields: %+v", fields)
	}
}
