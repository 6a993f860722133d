package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type recordedEvent struct {
	Type    string
	Payload map[string]interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (n *recordingNotifier) Notify(eventType string, payload map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Type: eventType, Payload: payload})
	return n.err
}

func (n *recordingNotifier) snapshot() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]recordedEvent, len(n.events))
	copy(out, n.events)
	return out
}

// waitForEvent 通知为异步投递，轮询等待指定事件出现
func (n *recordingNotifier) waitForEvent(t *testing.T, eventType string) recordedEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, event := range n.snapshot() {
			if event.Type == eventType {
				return event
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("event %s not delivered, got %+v", eventType, n.snapshot())
	return recordedEvent{}
}

type settlementFixture struct {
	db          *gorm.DB
	notifier    *recordingNotifier
	purchaseSvc *PurchaseService
	payoutSvc   *PayoutService
	salesSvc    *SalesService
}

func setupSettlementServiceTest(t *testing.T) *settlementFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:settlement_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// sqlite 内存库只能单连接，并发与行锁行为由 PostgreSQL 集成测试覆盖
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return newSettlementFixture(db)
}

func newSettlementFixture(db *gorm.DB) *settlementFixture {
	purchaseRepo := repository.NewPurchaseRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	userRepo := repository.NewUserRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	notifier := &recordingNotifier{}

	return &settlementFixture{
		db:          db,
		notifier:    notifier,
		purchaseSvc: NewPurchaseService(purchaseRepo, resourceRepo, userRepo, notifier),
		payoutSvc:   NewPayoutService(payoutRepo, purchaseRepo, userRepo, notifier, "USD"),
		salesSvc:    NewSalesService(purchaseRepo, payoutRepo),
	}
}

func createSettlementTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		DisplayName:  email,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createSettlementTestResource(t *testing.T, db *gorm.DB, authorID uint, slug string, price int64, percent int) *models.Resource {
	t.Helper()
	category := &models.Category{Slug: "category-" + slug, Name: "Category"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	resource := &models.Resource{
		AuthorID:          authorID,
		CategoryID:        category.ID,
		Slug:              slug,
		Title:             "Resource " + slug,
		Type:              constants.ResourceTypeMCPServer,
		Price:             price,
		Currency:          "USD",
		CommissionPercent: percent,
		Status:            constants.ResourceStatusPublished,
	}
	if err := db.Create(resource).Error; err != nil {
		t.Fatalf("create resource failed: %v", err)
	}
	return resource
}

func reloadResource(t *testing.T, db *gorm.DB, id uint) *models.Resource {
	t.Helper()
	var resource models.Resource
	if err := db.First(&resource, id).Error; err != nil {
		t.Fatalf("reload resource failed: %v", err)
	}
	return &resource
}

func intPtr(v int) *int {
	return &v
}
