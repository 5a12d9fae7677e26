// Package push is the fire-and-forget staff notification collaborator.
// Failures are logged and never propagate into the commit path.
package push

import (
	"context"

	"go.uber.org/zap"
)

type Notifier interface {
	Notify(ctx context.Context, instanceID int64, title, body, url, dedupeTag string) error
}

// LogNotifier stands in for a real push provider.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, instanceID int64, title, body, url, dedupeTag string) error {
	n.logger.Info("push notification",
		zap.Int64("instance_id", instanceID),
		zap.String("title", title),
		zap.String("body", body),
		zap.String("url", url),
		zap.String("dedupe_tag", dedupeTag),
	)
	return nil
}
