package provider

import (
	"github.com/toolshelf/internal/authz"
	"github.com/toolshelf/internal/cache"
	"github.com/toolshelf/internal/config"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/models"
	"github.com/toolshelf/internal/payment/paypal"
	"github.com/toolshelf/internal/payment/razorpay"
	"github.com/toolshelf/internal/queue"
	"github.com/toolshelf/internal/repository"
	"github.com/toolshelf/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Notifier    service.Notifier

	// Repositories
	UserRepo         repository.UserRepository
	CategoryRepo     repository.CategoryRepository
	ResourceRepo     repository.ResourceRepository
	PurchaseRepo     repository.PurchaseRepository
	PayoutRepo       repository.PayoutRepository
	PaymentOrderRepo repository.PaymentOrderRepository

	// Services
	AuthzService    *authz.Service
	AuthService     *service.AuthService
	CategoryService *service.CategoryService
	ResourceService *service.ResourceService
	PurchaseService *service.PurchaseService
	PayoutService   *service.PayoutService
	SalesService    *service.SalesService
	PaymentService  *service.PaymentService
}

// NewContainer 初始化容器，使用全局数据库连接
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	c, err := Build(cfg, models.DB)
	if err != nil {
		logger.Errorw("provider_init_failed", "error", err)
		panic(err)
	}
	return c
}

// Build 基于指定数据库构建容器，不触碰 Redis
func Build(cfg *config.Config, db *gorm.DB) (*Container, error) {
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Notifier:    buildNotifier(queueClient),
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	if err := c.initServices(db); err != nil {
		return nil, err
	}
	return c, nil
}

func buildNotifier(queueClient *queue.Client) service.Notifier {
	if queueClient.Enabled() {
		return queueClient
	}
	logger.Infow("provider_notifier_log_only")
	return service.LogNotifier{}
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ResourceRepo = repository.NewResourceRepository(db)
	c.PurchaseRepo = repository.NewPurchaseRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
	c.PaymentOrderRepo = repository.NewPaymentOrderRepository(db)
}

func (c *Container) initServices(db *gorm.DB) error {
	authzService, err := authz.NewService(db)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}

	c.AuthService = service.NewAuthService(c.Config.JWT, c.UserRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.ResourceService = service.NewResourceService(c.ResourceRepo)
	c.PurchaseService = service.NewPurchaseService(c.PurchaseRepo, c.ResourceRepo, c.UserRepo, c.Notifier)
	c.PayoutService = service.NewPayoutService(c.PayoutRepo, c.PurchaseRepo, c.UserRepo, c.Notifier, c.Config.Settlement.DefaultCurrency)
	c.SalesService = service.NewSalesService(c.PurchaseRepo, c.PayoutRepo)
	c.PaymentService = service.NewPaymentService(c.PaymentOrderRepo, c.ResourceRepo, c.PurchaseService, buildPaymentProviders(c.Config.Payment)...)
	return nil
}

// buildPaymentProviders 凭证齐全的渠道才会注册
func buildPaymentProviders(cfg config.PaymentConfig) []service.PaymentProvider {
	providers := make([]service.PaymentProvider, 0, 2)

	paypalCfg := paypal.Config{
		ClientID:     cfg.Paypal.ClientID,
		ClientSecret: cfg.Paypal.ClientSecret,
		BaseURL:      cfg.Paypal.BaseURL,
		ReturnURL:    cfg.Paypal.ReturnURL,
		CancelURL:    cfg.Paypal.CancelURL,
		BrandName:    cfg.Paypal.BrandName,
	}
	if paypalCfg.Enabled() {
		if err := paypal.ValidateConfig(&paypalCfg); err != nil {
			logger.Warnw("provider_paypal_config_invalid", "error", err)
		} else {
			providers = append(providers, service.NewPaypalProvider(paypalCfg))
		}
	}

	razorpayCfg := razorpay.Config{
		KeyID:      cfg.Razorpay.KeyID,
		KeySecret:  cfg.Razorpay.KeySecret,
		APIBaseURL: cfg.Razorpay.APIBaseURL,
	}
	if razorpayCfg.Enabled() {
		if err := razorpay.ValidateConfig(&razorpayCfg); err != nil {
			logger.Warnw("provider_razorpay_config_invalid", "error", err)
		} else {
			providers = append(providers, service.NewRazorpayProvider(razorpayCfg))
		}
	}

	for _, p := range providers {
		logger.Infow("provider_payment_enabled", "provider", p.Name())
	}
	return providers
}
