package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/repository"
)

// seedCreatorEarnings 为创作者写入一笔成交，返回创作者收益
func seedCreatorEarnings(t *testing.T, fx *settlementFixture, creator *models.User, slug string, amount int64, percent int) int64 {
	t.Helper()
	buyer := createSettlementTestUser(t, fx.db, "buyer-"+slug+"@example.com")
	resource := createSettlementTestResource(t, fx.db, creator.ID, slug, amount, percent)
	purchase, err := fx.purchaseSvc.RecordPurchase(RecordPurchaseInput{
		ResourceID:  resource.ID,
		BuyerID:     buyer.ID,
		AmountTotal: amount,
	})
	if err != nil {
		t.Fatalf("seed purchase failed: %v", err)
	}
	return purchase.CreatorEarnings
}

func TestSubmitPayoutRequestInsufficientBalance(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	creator := createSettlementTestUser(t, fx.db, "creator-insufficient@example.com")
	if earned := seedCreatorEarnings(t, fx, creator, "insufficient", 10000, 80); earned != 8000 {
		t.Fatalf("seed earnings want 8000 got %d", earned)
	}

	if _, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 9000}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance got %v", err)
	}
	if _, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 0}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount got %v", err)
	}
	if _, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID+100, SubmitPayoutInput{Amount: 10}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown creator want ErrNotFound got %v", err)
	}

	req, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 8000, Currency: "usd"})
	if err != nil {
		t.Fatalf("submit full balance failed: %v", err)
	}
	if req.Status != constants.PayoutStatusPending || req.Currency != "USD" {
		t.Fatalf("unexpected payout request: %+v", req)
	}
	fx.notifier.waitForEvent(t, constants.NotifyEventPayoutSubmitted)
}

func TestPayoutLifecycleApproveThenPaid(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	admin := createSettlementTestUser(t, fx.db, "admin-lifecycle@example.com")
	creator := createSettlementTestUser(t, fx.db, "creator-lifecycle@example.com")
	seedCreatorEarnings(t, fx, creator, "lifecycle", 10000, 80)

	req, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 5000})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := fx.payoutSvc.MarkPaid(AdminActor(admin.ID), req.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("mark paid on pending want ErrInvalidStateTransition got %v", err)
	}

	approved, err := fx.payoutSvc.ReviewPayoutRequest(AdminActor(admin.ID), req.ID, ReviewPayoutInput{Decision: "approve"})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.PayoutStatusApproved || approved.AdminID == nil || *approved.AdminID != admin.ID || approved.ReviewedAt == nil {
		t.Fatalf("unexpected approved request: %+v", approved)
	}
	balance, err := fx.payoutSvc.AvailableBalance(creator.ID, "USD")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 3000 {
		t.Fatalf("balance after approval want 3000 got %d", balance)
	}

	// 已批准的申请不能再次审核
	if _, err := fx.payoutSvc.ReviewPayoutRequest(AdminActor(admin.ID), req.ID, ReviewPayoutInput{Decision: "APPROVE"}); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("review approved request want ErrInvalidStateTransition got %v", err)
	}

	paid, err := fx.payoutSvc.MarkPaid(AdminActor(admin.ID), req.ID)
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if paid.Status != constants.PayoutStatusPaid || paid.PaidAt == nil {
		t.Fatalf("unexpected paid request: %+v", paid)
	}
	fx.notifier.waitForEvent(t, constants.NotifyEventPayoutPaid)

	_, err = fx.payoutSvc.MarkPaid(AdminActor(admin.ID), req.ID)
	if !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("second mark paid want ErrInvalidStateTransition got %v", err)
	}
	unchanged, err := fx.payoutSvc.GetPayoutRequest(req.ID)
	if err != nil {
		t.Fatalf("reload request failed: %v", err)
	}
	if unchanged.Status != constants.PayoutStatusPaid || !unchanged.PaidAt.Equal(*paid.PaidAt) {
		t.Fatalf("second mark paid must leave state unchanged: %+v", unchanged)
	}
}

func TestReviewPayoutRequestReject(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	admin := createSettlementTestUser(t, fx.db, "admin-reject@example.com")
	creator := createSettlementTestUser(t, fx.db, "creator-reject@example.com")
	seedCreatorEarnings(t, fx, creator, "reject", 10000, 80)

	req, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 4000})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// 驳回必须填写原因
	if _, err := fx.payoutSvc.ReviewPayoutRequest(AdminActor(admin.ID), req.ID, ReviewPayoutInput{Decision: "REJECT"}); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("reject without reason want ErrReasonRequired got %v", err)
	}
	if _, err := fx.payoutSvc.ReviewPayoutRequest(AdminActor(admin.ID), req.ID, ReviewPayoutInput{Decision: "maybe"}); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("unknown decision want ErrInvalidDecision got %v", err)
	}

	rejected, err := fx.payoutSvc.ReviewPayoutRequest(AdminActor(admin.ID), req.ID, ReviewPayoutInput{Decision: "REJECT", Reason: " missing tax form "})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.PayoutStatusRejected || rejected.RejectionReason != "missing tax form" {
		t.Fatalf("unexpected rejected request: %+v", rejected)
	}
	if rejected.AdminID == nil || *rejected.AdminID != admin.ID {
		t.Fatalf("rejected request should record admin id: %+v", rejected.AdminID)
	}
	event := fx.notifier.waitForEvent(t, constants.NotifyEventPayoutRejected)
	if event.Payload["reason"] != "missing tax form" {
		t.Fatalf("reject event payload mismatch: %+v", event.Payload)
	}

	if _, err := fx.payoutSvc.MarkPaid(AdminActor(admin.ID), req.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("mark paid on rejected want ErrInvalidStateTransition got %v", err)
	}
	balance, err := fx.payoutSvc.AvailableBalance(creator.ID, "")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 8000 {
		t.Fatalf("rejected request should not reserve balance, got %d", balance)
	}
}

func TestReviewPayoutRequestRequiresAdmin(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	creator := createSettlementTestUser(t, fx.db, "creator-authz@example.com")
	seedCreatorEarnings(t, fx, creator, "authz", 10000, 80)
	req, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 1000})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := fx.payoutSvc.ReviewPayoutRequest(UserActor(creator.ID), req.ID, ReviewPayoutInput{Decision: "APPROVE"}); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("non-admin review want ErrAuthorization got %v", err)
	}
	if _, err := fx.payoutSvc.MarkPaid(Actor{}, req.ID); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("anonymous mark paid want ErrAuthorization got %v", err)
	}
	if _, _, err := fx.payoutSvc.ListPayouts(UserActor(creator.ID), repository.PayoutListFilter{}); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("non-admin list want ErrAuthorization got %v", err)
	}
	if _, err := fx.payoutSvc.ReviewPayoutRequest(AdminActor(creator.ID+50), req.ID+50, ReviewPayoutInput{Decision: "APPROVE"}); !errors.Is(err, ErrPayoutNotFound) {
		t.Fatalf("missing request want ErrPayoutNotFound got %v", err)
	}
}

func TestApproveRechecksBalanceAfterSubmission(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	admin := createSettlementTestUser(t, fx.db, "admin-recheck@example.com")
	creator := createSettlementTestUser(t, fx.db, "creator-recheck@example.com")
	seedCreatorEarnings(t, fx, creator, "recheck", 10000, 80)

	first, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 6000})
	if err != nil {
		t.Fatalf("submit first failed: %v", err)
	}
	second, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 6000})
	if err != nil {
		t.Fatalf("submit second failed: %v", err)
	}

	if _, err := fx.payoutSvc.ReviewPayoutRequest(AdminActor(admin.ID), first.ID, ReviewPayoutInput{Decision: "APPROVE"}); err != nil {
		t.Fatalf("approve first failed: %v", err)
	}
	if _, err := fx.payoutSvc.ReviewPayoutRequest(AdminActor(admin.ID), second.ID, ReviewPayoutInput{Decision: "APPROVE"}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("approve second want ErrInsufficientBalance got %v", err)
	}
	still, err := fx.payoutSvc.GetPayoutRequest(second.ID)
	if err != nil {
		t.Fatalf("reload second failed: %v", err)
	}
	if still.Status != constants.PayoutStatusPending || still.AdminID != nil {
		t.Fatalf("failed approval must leave request pending: %+v", still)
	}
}

func TestConcurrentApprovalsOnlyOneSucceeds(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	admin := createSettlementTestUser(t, fx.db, "admin-race@example.com")
	creator := createSettlementTestUser(t, fx.db, "creator-payout-race@example.com")
	seedCreatorEarnings(t, fx, creator, "payout-race", 10000, 80)

	first, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 5000})
	if err != nil {
		t.Fatalf("submit first failed: %v", err)
	}
	second, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: 5000})
	if err != nil {
		t.Fatalf("submit second failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uint{first.ID, second.ID} {
		wg.Add(1)
		go func(idx int, requestID uint) {
			defer wg.Done()
			_, errs[idx] = fx.payoutSvc.ReviewPayoutRequest(AdminActor(admin.ID), requestID, ReviewPayoutInput{Decision: "APPROVE"})
		}(i, id)
	}
	wg.Wait()

	approved, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			approved++
		case errors.Is(err, ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected approval error: %v", err)
		}
	}
	if approved != 1 || insufficient != 1 {
		t.Fatalf("want exactly one approval and one insufficient balance, got %d/%d", approved, insufficient)
	}
}

func TestListCreatorPayouts(t *testing.T) {
	fx := setupSettlementServiceTest(t)
	admin := createSettlementTestUser(t, fx.db, "admin-list@example.com")
	creator := createSettlementTestUser(t, fx.db, "creator-list@example.com")
	seedCreatorEarnings(t, fx, creator, "list", 10000, 80)
	for _, amount := range []int64{1000, 2000} {
		if _, err := fx.payoutSvc.SubmitPayoutRequest(creator.ID, SubmitPayoutInput{Amount: amount}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	rows, total, err := fx.payoutSvc.ListCreatorPayouts(creator.ID, repository.PayoutListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list creator payouts failed: %v", err)
	}
	if total != 2 || len(rows) != 2 || rows[0].Amount != 2000 {
		t.Fatalf("unexpected creator payouts total=%d rows=%+v", total, rows)
	}

	adminRows, adminTotal, err := fx.payoutSvc.ListPayouts(AdminActor(admin.ID), repository.PayoutListFilter{Status: constants.PayoutStatusPending})
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if adminTotal != 2 || len(adminRows) != 2 {
		t.Fatalf("admin list want 2 got total=%d len=%d", adminTotal, len(adminRows))
	}
}
