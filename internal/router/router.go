package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toolshelf/internal/authz"
	"github.com/toolshelf/internal/cache"
	"github.com/toolshelf/internal/config"
	adminhandlers "github.com/toolshelf/internal/http/handlers/admin"
	publichandlers "github.com/toolshelf/internal/http/handlers/public"
	"github.com/toolshelf/internal/http/handlers/shared"
	"github.com/toolshelf/internal/http/response"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions("api"))
	}
	shared.RegisterValidators()
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisClient := cache.Client()
	ratePrefix := fmt.Sprintf("%s:rate", cache.Prefix())
	loginRule := buildRateLimitRule(ratePrefix, "login", cfg.RateLimit.Login)
	checkoutRule := buildRateLimitRule(ratePrefix, "checkout", cfg.RateLimit.Checkout)
	payoutRule := buildRateLimitRule(ratePrefix, "payout", cfg.RateLimit.Payout)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	userAuth := UserJWTAuthMiddleware(c.AuthService, c.UserRepo)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/categories", publicHandler.GetCategories)
			public.GET("/resources", publicHandler.GetResources)
			public.GET("/resources/:slug", publicHandler.GetResourceBySlug)
		}

		// 登录
		apiV1.POST("/auth/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(userAuth)
		{
			user.GET("/me", publicHandler.GetCurrentUser)

			checkout := user.Group("/checkout")
			{
				checkout.POST("/orders", RateLimitMiddleware(redisClient, checkoutRule, KeyByUser), publicHandler.CreateCheckoutOrder)
				checkout.GET("/orders/:order_no", publicHandler.GetCheckoutOrder)
				checkout.POST("/orders/:order_no/paypal/capture", publicHandler.CapturePaypalOrder)
				checkout.POST("/orders/:order_no/razorpay/confirm", publicHandler.ConfirmRazorpayOrder)
			}

			creator := user.Group("/creator")
			{
				creator.GET("/sales", publicHandler.GetCreatorSales)
				creator.GET("/earnings", publicHandler.GetCreatorEarnings)
				creator.POST("/payouts", RateLimitMiddleware(redisClient, payoutRule, KeyByUser), publicHandler.SubmitPayout)
				creator.GET("/payouts", publicHandler.GetCreatorPayouts)
			}
		}

		// 管理端接口（需鉴权 + RBAC）
		admin := apiV1.Group("/admin")
		admin.Use(userAuth, AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/payouts", adminHandler.GetPayouts)
			admin.POST("/payouts/:id/review", adminHandler.ReviewPayout)
			admin.POST("/payouts/:id/paid", adminHandler.MarkPayoutPaid)

			admin.POST("/purchases", adminHandler.CreateManualPurchase)
			admin.POST("/purchases/:id/reverse", adminHandler.ReversePurchase)

			admin.POST("/categories", adminHandler.CreateCategory)

			admin.GET("/users/:id/roles", adminHandler.GetUserRoles)
			admin.PUT("/users/:id/roles", adminHandler.SetUserRoles)

			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func buildRateLimitRule(prefix, name string, cfg config.RateLimitRuleConfig) RateLimitRule {
	return RateLimitRule{
		Prefix:        fmt.Sprintf("%s:%s", prefix, name),
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxRequests,
	}
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog 从已注册路由生成管理端权限清单
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))
	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module != items[j].Module {
			return items[i].Module < items[j].Module
		}
		if items[i].Object != items[j].Object {
			return items[i].Object < items[j].Object
		}
		return items[i].Method < items[j].Method
	})
	return items
}

// derivePermissionModule /admin/payouts/:id/review -> payouts
func derivePermissionModule(object string) string {
	segments := strings.Split(strings.Trim(strings.TrimSpace(object), "/"), "/")
	if len(segments) < 2 || segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
