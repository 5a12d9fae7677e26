package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carwash/internal/config"
	"carwash/internal/database"
	"carwash/internal/middleware"
	"carwash/internal/modules/availability"
	"carwash/internal/modules/booking"
	"carwash/internal/modules/reminder"
	"carwash/internal/modules/verification"
	"carwash/internal/pkg/logger"
	"carwash/internal/pkg/push"
	"carwash/internal/pkg/response"
	"carwash/internal/pkg/sms"
	"carwash/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog := logger.New(cfg.Production())
	defer zlog.Sync()

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		zlog.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("database migrate failed", zap.Error(err))
	}

	// Repositories.
	reservationRepo := repository.NewReservationRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	stationRepo := repository.NewStationRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	smsLogRepo := repository.NewSMSLogRepository(db)

	// Collaborators.
	var sender sms.Sender
	if cfg.SMSGatewayURL != "" {
		sender = sms.NewGatewaySender(cfg.SMSGatewayURL, cfg.SMSGatewayToken)
	} else {
		sender = sms.NewSimulatedSender(zlog)
	}
	sender = sms.WithTimeout(sender, cfg.SMSTimeout)
	pusher := push.NewLogNotifier(zlog)

	// Services.
	availabilitySvc := availability.NewService(serviceRepo, stationRepo, blockRepo, settingsRepo)
	bookingSvc := booking.NewService(
		reservationRepo, serviceRepo, customerRepo,
		notificationRepo, smsLogRepo, sender, pusher, zlog,
	)
	verificationSvc := verification.NewService(
		verificationRepo, customerRepo, bookingSvc,
		sender, smsLogRepo, cfg.VerificationCodePepper, zlog,
	)
	reminderSvc := reminder.NewService(
		reservationRepo, settingsRepo, sender,
		smsLogRepo, notificationRepo, pusher, zlog,
	)

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RequestLogger(zlog))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Widget surface: anonymous, rate-limited upstream.
	widget := router.Group("/api/v1/widget")
	availability.NewHandler(availabilitySvc).RegisterRoutes(widget)
	verification.NewHandler(verificationSvc, settingsRepo).RegisterRoutes(widget)

	// Internal surface: back office and operations tooling.
	internal := router.Group("/api/v1/internal", middleware.InternalTokenAuth(cfg.InternalToken))
	booking.NewHandler(bookingSvc, settingsRepo).RegisterRoutes(internal)
	availability.NewBlockHandler(blockRepo).RegisterRoutes(internal)
	reminder.NewHandler(reminderSvc).RegisterRoutes(internal)

	zlog.Info("api listening", zap.String("addr", cfg.ListenAddr))
	if err := router.Run(cfg.ListenAddr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
