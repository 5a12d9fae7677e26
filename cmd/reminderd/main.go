package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"carwash/internal/config"
	"carwash/internal/database"
	"carwash/internal/modules/reminder"
	"carwash/internal/pkg/logger"
	"carwash/internal/pkg/push"
	"carwash/internal/pkg/sms"
	"carwash/internal/repository"
)

// reminderd runs the reminder sweep and the expired-verification cleanup on
// timers. It shares the database with the api process and nothing else.
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

	reservationRepo := repository.NewReservationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	smsLogRepo := repository.NewSMSLogRepository(db)

	var sender sms.Sender
	if cfg.SMSGatewayURL != "" {
		sender = sms.NewGatewaySender(cfg.SMSGatewayURL, cfg.SMSGatewayToken)
	} else {
		sender = sms.NewSimulatedSender(zlog)
	}
	sender = sms.WithTimeout(sender, cfg.SMSTimeout)

	sweeper := reminder.NewService(
		reservationRepo, settingsRepo, sender,
		smsLogRepo, notificationRepo, push.NewLogNotifier(zlog), zlog,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweepTicker := time.NewTicker(cfg.SweepInterval)
	defer sweepTicker.Stop()
	cleanupTicker := time.NewTicker(cfg.CleanupInterval)
	defer cleanupTicker.Stop()

	zlog.Info("reminderd started",
		zap.Duration("sweep_interval", cfg.SweepInterval),
		zap.Duration("cleanup_interval", cfg.CleanupInterval),
	)

	runSweep(ctx, sweeper, zlog)
	for {
		select {
		case <-ctx.Done():
			zlog.Info("reminderd stopping")
			return
		case <-sweepTicker.C:
			runSweep(ctx, sweeper, zlog)
		case <-cleanupTicker.C:
			n, err := verificationRepo.DeleteExpired(ctx, time.Now())
			if err != nil {
				zlog.Error("verification cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				zlog.Info("expired verification codes removed", zap.Int64("count", n))
			}
		}
	}
}

func runSweep(ctx context.Context, sweeper *reminder.Service, zlog *zap.Logger) {
	stats, err := sweeper.Sweep(ctx, time.Now())
	if err != nil {
		zlog.Error("reminder sweep failed", zap.Error(err))
		return
	}
	if stats.Sent > 0 || stats.Failed > 0 {
		zlog.Info("reminder sweep",
			zap.Int("sent", stats.Sent),
			zap.Int("failed", stats.Failed),
			zap.Int("permanently_failed", stats.PermanentlyFailed),
		)
	}
}
