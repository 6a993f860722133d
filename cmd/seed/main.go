package main

import (
	"errors"
	"flag"

	"github.com/toolshelf/internal/config"
	"github.com/toolshelf/internal/constants"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedResource struct {
	Slug     string
	Title    string
	Type     string
	Category string
	Price    string
	Currency string
	Percent  int
}

var seedCategories = []models.Category{
	{Slug: "prompts", Name: "Prompts", SortOrder: 30},
	{Slug: "mcp-servers", Name: "MCP Servers", SortOrder: 20},
	{Slug: "rules", Name: "Rules", SortOrder: 10},
}

var seedResources = []seedResource{
	{Slug: "code-review-prompt", Title: "Code Review Prompt Pack", Type: constants.ResourceTypePrompt, Category: "prompts", Price: "9.99", Currency: "USD", Percent: 80},
	{Slug: "sql-tutor-prompt", Title: "SQL Tutor Prompt", Type: constants.ResourceTypePrompt, Category: "prompts", Price: "4.50", Currency: "USD", Percent: 70},
	{Slug: "github-mcp", Title: "GitHub MCP Server", Type: constants.ResourceTypeMCPServer, Category: "mcp-servers", Price: "19.00", Currency: "USD", Percent: 85},
	{Slug: "go-style-rules", Title: "Go Style Rules", Type: constants.ResourceTypeRule, Category: "rules", Price: "499", Currency: "INR", Percent: 80},
}

func main() {
	var password string
	flag.StringVar(&password, "password", "toolshelf123", "演示账号密码")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions("toolshelf-seed"))
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		return seed(tx, password)
	}); err != nil {
		stdLog.Fatalf("Seed failed: %v", err)
	}
	logger.Infow("seed_completed", "categories", len(seedCategories), "resources", len(seedResources))
}

func seed(tx *gorm.DB, password string) error {
	categoryIDs := make(map[string]uint, len(seedCategories))
	for _, item := range seedCategories {
		category := item
		if err := tx.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
			return err
		}
		categoryIDs[category.Slug] = category.ID
	}

	creator, err := ensureUser(tx, "creator@toolshelf.local", "Demo Creator", password)
	if err != nil {
		return err
	}
	if _, err := ensureUser(tx, "buyer@toolshelf.local", "Demo Buyer", password); err != nil {
		return err
	}

	for _, item := range seedResources {
		price, err := models.ParseMinor(item.Price, item.Currency)
		if err != nil {
			return err
		}
		resource := models.Resource{
			AuthorID:          creator.ID,
			CategoryID:        categoryIDs[item.Category],
			Slug:              item.Slug,
			Title:             item.Title,
			Type:              item.Type,
			Price:             price,
			Currency:          models.NormalizeCurrency(item.Currency),
			CommissionPercent: item.Percent,
			Status:            constants.ResourceStatusPublished,
		}
		if err := tx.Where("slug = ?", resource.Slug).FirstOrCreate(&resource).Error; err != nil {
			return err
		}
		logger.Infow("seed_resource_ready", "slug", resource.Slug, "id", resource.ID)
	}
	return nil
}

func ensureUser(tx *gorm.DB, email, name, password string) (*models.User, error) {
	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user = models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  name,
		Status:       constants.UserStatusActive,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
