package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/toolshelf/internal/app"
	"github.com/toolshelf/internal/authz"
	"github.com/toolshelf/internal/config"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiCyan  = "\033[36m"
	ansiDim   = "\033[2m"
)

func main() {
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	printStartupBanner(mode)

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions("toolshelf-"+mode))
	stdLog := logger.StdLogger()

	if isWeakSecret(cfg.JWT.SecretKey) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		logger.Warnw("jwt_secret_weak", "mode", cfg.Server.Mode)
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug"); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	if mode != app.ModeWorker {
		bootstrapAdmin(cfg)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

// bootstrapAdmin 创建初始管理员并授予 admin 角色，失败只告警不阻断启动
func bootstrapAdmin(cfg *config.Config) {
	if cfg.Server.Mode == "release" && strings.TrimSpace(cfg.Bootstrap.AdminPassword) == "" {
		logger.Warnw("bootstrap_admin_skipped", "reason", "bootstrap.admin_password not set")
		return
	}
	admin, err := models.InitDefaultAdmin(cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
	if err != nil {
		logger.Warnw("bootstrap_admin_failed", "error", err)
		return
	}
	authzSvc, err := authz.NewService(models.DB)
	if err != nil {
		logger.Warnw("bootstrap_admin_authz_failed", "error", err)
		return
	}
	if err := authzSvc.BootstrapAdmin(admin.ID); err != nil {
		logger.Warnw("bootstrap_admin_role_failed", "user_id", admin.ID, "error", err)
	}
}

func printStartupBanner(mode string) {
	fmt.Println(ansiCyan + ansiBold + "toolshelf settlement service" + ansiReset)
	fmt.Println(ansiDim + "mode: " + mode + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}
