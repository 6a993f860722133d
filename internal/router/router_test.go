package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/toolshelf/internal/config"
	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/provider"
	"github.com/toolshelf/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type routerFixture struct {
	engine   *gin.Engine
	db       *gorm.DB
	admin    *models.User
	creator  *models.User
	buyer    *models.User
	resource *models.Resource
}

func setupRouterTest(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.L = zap.NewNop()

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{
		Server:     config.ServerConfig{Mode: "release"},
		JWT:        config.JWTConfig{SecretKey: "router-test-secret", Issuer: "toolshelf", ExpireHours: 1},
		Settlement: config.SettlementConfig{DefaultCurrency: "USD", DefaultCreatorPercent: 80},
	}
	container, err := provider.Build(cfg, db)
	if err != nil {
		t.Fatalf("build container failed: %v", err)
	}

	fx := &routerFixture{engine: SetupRouter(cfg, container), db: db}
	fx.admin = createRouterTestUser(t, db, "admin@example.com")
	fx.creator = createRouterTestUser(t, db, "creator@example.com")
	fx.buyer = createRouterTestUser(t, db, "buyer@example.com")
	if err := container.AuthzService.BootstrapAdmin(fx.admin.ID); err != nil {
		t.Fatalf("bootstrap admin failed: %v", err)
	}

	category := &models.Category{Slug: "mcp", Name: "MCP Servers"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	fx.resource = &models.Resource{
		AuthorID:          fx.creator.ID,
		CategoryID:        category.ID,
		Slug:              "github-mcp",
		Title:             "GitHub MCP",
		Type:              constants.ResourceTypeMCPServer,
		Price:             1000,
		Currency:          "USD",
		CommissionPercent: 80,
		Status:            constants.ResourceStatusPublished,
	}
	if err := db.Create(fx.resource).Error; err != nil {
		t.Fatalf("create resource failed: %v", err)
	}
	return fx
}

func createRouterTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := service.HashPassword("secret-pass")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  email,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func (fx *routerFixture) do(t *testing.T, method, path, token string, body interface{}) apiResponse {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	fx.engine.ServeHTTP(w, req)

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode response failed: %v body=%s", method, path, err, w.Body.String())
	}
	return resp
}

func (fx *routerFixture) login(t *testing.T, email string) string {
	t.Helper()
	resp := fx.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "secret-pass"})
	if resp.StatusCode != 0 {
		t.Fatalf("login %s failed: %+v", email, resp)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login token missing: %s", string(resp.Data))
	}
	return data.Token
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	fx := setupRouterTest(t)
	resp := fx.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "buyer@example.com", "password": "nope"})
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestPublicResourceBySlug(t *testing.T) {
	fx := setupRouterTest(t)

	resp := fx.do(t, http.MethodGet, "/api/v1/public/resources/github-mcp", "", nil)
	if resp.StatusCode != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	var view struct {
		Slug  string `json:"slug"`
		Price struct {
			Minor   int64  `json:"minor"`
			Display string `json:"display"`
		} `json:"price"`
	}
	if err := json.Unmarshal(resp.Data, &view); err != nil {
		t.Fatalf("decode resource failed: %v", err)
	}
	if view.Slug != "github-mcp" || view.Price.Minor != 1000 || view.Price.Display != "10.00" {
		t.Fatalf("unexpected resource view: %+v", view)
	}

	if resp := fx.do(t, http.MethodGet, "/api/v1/public/resources/missing", "", nil); resp.StatusCode != 404 {
		t.Fatalf("missing resource want 404, got %+v", resp)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	fx := setupRouterTest(t)
	buyerToken := fx.login(t, "buyer@example.com")

	if resp := fx.do(t, http.MethodGet, "/api/v1/admin/payouts", "", nil); resp.StatusCode != 401 {
		t.Fatalf("anonymous admin request want 401, got %+v", resp)
	}
	if resp := fx.do(t, http.MethodGet, "/api/v1/admin/payouts", buyerToken, nil); resp.StatusCode != 403 {
		t.Fatalf("non-admin request want 403, got %+v", resp)
	}
}

func TestSettlementFlowOverHTTP(t *testing.T) {
	fx := setupRouterTest(t)
	adminToken := fx.login(t, "admin@example.com")
	creatorToken := fx.login(t, "creator@example.com")

	manual := gin.H{
		"resource_id":  fx.resource.ID,
		"buyer_id":     fx.buyer.ID,
		"amount_total": 1000,
		"currency":     "usd",
		"payment_ref":  "invoice-1",
	}
	resp := fx.do(t, http.MethodPost, "/api/v1/admin/purchases", adminToken, manual)
	if resp.StatusCode != 0 {
		t.Fatalf("manual purchase failed: %+v", resp)
	}
	var purchase struct {
		ID              uint `json:"id"`
		CreatorEarnings struct {
			Minor int64 `json:"minor"`
		} `json:"creator_earnings"`
	}
	if err := json.Unmarshal(resp.Data, &purchase); err != nil {
		t.Fatalf("decode purchase failed: %v", err)
	}
	if purchase.CreatorEarnings.Minor != 800 {
		t.Fatalf("creator earnings want 800, got %d", purchase.CreatorEarnings.Minor)
	}

	// 相同 payment_ref 重复提交返回原成交
	resp = fx.do(t, http.MethodPost, "/api/v1/admin/purchases", adminToken, manual)
	var again struct {
		ID uint `json:"id"`
	}
	_ = json.Unmarshal(resp.Data, &again)
	if resp.StatusCode != 0 || again.ID != purchase.ID {
		t.Fatalf("duplicate manual purchase should be idempotent: %+v", resp)
	}

	if resp := fx.do(t, http.MethodPost, "/api/v1/creator/payouts", creatorToken, gin.H{"amount": 900}); resp.StatusCode != 422 {
		t.Fatalf("payout over balance want 422, got %+v", resp)
	}
	if resp := fx.do(t, http.MethodPost, "/api/v1/creator/payouts", creatorToken, gin.H{"amount": 500, "currency": "US"}); resp.StatusCode != 400 {
		t.Fatalf("invalid currency want 400, got %+v", resp)
	}
	resp = fx.do(t, http.MethodPost, "/api/v1/creator/payouts", creatorToken, gin.H{"amount": 500})
	if resp.StatusCode != 0 {
		t.Fatalf("submit payout failed: %+v", resp)
	}
	var payout struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Data, &payout); err != nil || payout.Status != constants.PayoutStatusPending {
		t.Fatalf("unexpected payout: %s", string(resp.Data))
	}

	if resp := fx.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/payouts/%d/paid", payout.ID), adminToken, nil); resp.StatusCode != 409 {
		t.Fatalf("paying a pending payout want 409, got %+v", resp)
	}
	if resp := fx.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/payouts/%d/review", payout.ID), adminToken, gin.H{"decision": "REJECT"}); resp.StatusCode != 400 {
		t.Fatalf("reject without reason want 400, got %+v", resp)
	}
	if resp := fx.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/payouts/%d/review", payout.ID), adminToken, gin.H{"decision": "APPROVE"}); resp.StatusCode != 0 {
		t.Fatalf("approve payout failed: %+v", resp)
	}
	if resp := fx.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/payouts/%d/paid", payout.ID), adminToken, nil); resp.StatusCode != 0 {
		t.Fatalf("mark paid failed: %+v", resp)
	}

	resp = fx.do(t, http.MethodGet, "/api/v1/creator/earnings", creatorToken, nil)
	if resp.StatusCode != 0 {
		t.Fatalf("earnings failed: %+v", resp)
	}
	var earnings service.CreatorEarnings
	if err := json.Unmarshal(resp.Data, &earnings); err != nil {
		t.Fatalf("decode earnings failed: %v", err)
	}
	if earnings.SalesCount != 1 || len(earnings.Balances) != 1 {
		t.Fatalf("unexpected earnings: %+v", earnings)
	}
	if got := earnings.Balances[0]; got.Paid != 500 || got.Available != 300 {
		t.Fatalf("unexpected balance: %+v", got)
	}

	resp = fx.do(t, http.MethodGet, "/api/v1/creator/sales", creatorToken, nil)
	var sales []struct {
		PurchaseID    uint   `json:"purchase_id"`
		AmountDisplay string `json:"amount_display"`
	}
	if err := json.Unmarshal(resp.Data, &sales); err != nil || len(sales) != 1 || sales[0].AmountDisplay != "10.00" {
		t.Fatalf("unexpected sales: %s", string(resp.Data))
	}

	if resp := fx.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/purchases/%d/reverse", purchase.ID), adminToken, gin.H{"reason": "chargeback"}); resp.StatusCode != 0 {
		t.Fatalf("reverse purchase failed: %+v", resp)
	}
	if resp := fx.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/purchases/%d/reverse", purchase.ID), adminToken, gin.H{"reason": "again"}); resp.StatusCode != 409 {
		t.Fatalf("second reversal want 409, got %+v", resp)
	}
}

func TestCheckoutRejectsDisabledProvider(t *testing.T) {
	fx := setupRouterTest(t)
	buyerToken := fx.login(t, "buyer@example.com")

	resp := fx.do(t, http.MethodPost, "/api/v1/checkout/orders", buyerToken, gin.H{"resource_id": fx.resource.ID, "provider": "paypal"})
	if resp.StatusCode != 400 {
		t.Fatalf("provider without credentials want 400, got %+v", resp)
	}
}

func TestAdminPermissionCatalog(t *testing.T) {
	fx := setupRouterTest(t)
	adminToken := fx.login(t, "admin@example.com")

	resp := fx.do(t, http.MethodGet, "/api/v1/admin/authz/permissions/catalog", adminToken, nil)
	if resp.StatusCode != 0 {
		t.Fatalf("catalog failed: %+v", resp)
	}
	var items []adminPermissionCatalogItem
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		t.Fatalf("decode catalog failed: %v", err)
	}
	found := false
	for _, item := range items {
		if item.Permission == "POST:/admin/payouts/:id/review" && item.Module == "payouts" {
			found = true
		}
	}
	if !found {
		t.Fatalf("review permission missing from catalog: %+v", items)
	}
}
