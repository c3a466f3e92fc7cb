package main

import (
	"context"
	"log"

	"secando/internal/config"
	"secando/internal/handlers"
	"secando/internal/models"
	"secando/internal/services"
	"secando/internal/storage"
	"secando/pkg/email"
	"secando/pkg/supabase"
	"secando/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dsn := "host=" + cfg.DBHost + " user=" + cfg.DBUser + " password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName + " port=" + cfg.DBPort + " sslmode=disable"
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Payment{}, &models.UserProfile{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	var replayCache services.ReplayTracker
	if cfg.RedisURL != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
		})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("Warning: failed to connect to Redis, replay cache disabled: %v", err)
		} else {
			replayCache = services.NewReplayCache(rdb)
		}
	}

	authService := supabase.NewAuthService(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	store := storage.NewStore(db)

	var mailer services.WelcomeMailer
	if cfg.SMTPHost != "" {
		mailer = email.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}

	var notifier services.SaleNotifier
	if cfg.TelegramToken != "" {
		telegramService, err := telegram.NewTelegramService(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Warning: failed to initialize Telegram service: %v", err)
		} else {
			notifier = telegramService
		}
	}

	provisioner := services.NewProvisioningService(authService, store, replayCache, mailer, notifier)
	webhookHandler := handlers.NewWebhookHandler(provisioner, cfg.WebhookSecret)

	r := gin.Default()

	r.POST("/webhook/payment", webhookHandler.HandlePaymentWebhook)
	if cfg.EnableTestWebhook {
		r.POST("/webhook/test", webhookHandler.HandleTestWebhook)
	}
	r.GET("/health", webhookHandler.HandleHealth)

	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
