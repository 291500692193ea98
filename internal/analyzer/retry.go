package analyzer

import (
	"context"
	"log/slog"

	"github.com/iyulab/forensic-mapper/internal/logging"
)

// retryProvider re-issues failed generation calls. The pipeline stages never
// retry on their own; callers opt in by wrapping their Provider.
type retryProvider struct {
	next    Provider
	retries int
	log     *slog.Logger
}

// WithRetry wraps p so each failed call is retried up to retries more times.
// Context cancellation stops retrying. retries <= 0 returns p unchanged.
func WithRetry(p Provider, retries int) Provider {
	if retries <= 0 {
		return p
	}
	return &retryProvider{next: p, retries: retries, log: logging.New("retry")}
}

func (r *retryProvider) Generate(ctx context.Context, req Request) (string, error) {
	raw, err := r.next.Generate(ctx, req)
	for attempt := 1; err != nil && attempt <= r.retries; attempt++ {
		if ctx.Err() != nil {
			return "", err
		}
		r.log.Warn("generation failed, retrying", "attempt", attempt, "error", truncate(err.Error(), 200))
		raw, err = r.next.Generate(ctx, req)
	}
	return raw, err
}

// truncate shortens s to maxLen bytes for log lines.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
