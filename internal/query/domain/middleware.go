package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/surefi/surefi-gateway/internal/apperr"
	"github.com/surefi/surefi-gateway/internal/observability/metrics"
)

// loggingService is the interface required for logging middleware.
type loggingService interface {
	Owner(ctx context.Context) (*OwnerResult, error)
	Verified(ctx context.Context, address string) (*VerifiedResult, error)
}

// LoggingMiddleware returns a service middleware that logs every query and
// records contract call metrics.
func LoggingMiddleware(logger *slog.Logger) func(loggingService) *loggingMiddleware {
	return func(next loggingService) *loggingMiddleware {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   loggingService
	logger *slog.Logger
}

func (m *loggingMiddleware) Owner(ctx context.Context) (*OwnerResult, error) {
	start := time.Now()
	result, err := m.next.Owner(ctx)
	elapsed := time.Since(start)

	metrics.ContractQuery("owner", outcome(err), elapsed)
	m.log(ctx, err, "Owner",
		"duration", elapsed,
		"error", err,
	)
	return result, err
}

func (m *loggingMiddleware) Verified(ctx context.Context, address string) (*VerifiedResult, error) {
	start := time.Now()
	result, err := m.next.Verified(ctx, address)
	elapsed := time.Since(start)

	metrics.ContractQuery("verified", outcome(err), elapsed)
	attrs := []any{
		"address", address,
		"duration", elapsed,
		"error", err,
	}
	if result != nil {
		attrs = append(attrs, "verified", result.Verified)
	}
	m.log(ctx, err, "Verified", attrs...)
	return result, err
}

// log writes remote failures at warn level and everything else at info.
func (m *loggingMiddleware) log(ctx context.Context, err error, msg string, attrs ...any) {
	level := slog.LevelInfo
	if err != nil {
		attrs = append(attrs, "kind", apperr.KindOf(err).String(), "op", apperr.OpOf(err))
		if apperr.KindOf(err) != apperr.KindValidation {
			level = slog.LevelWarn
		}
	}
	m.logger.Log(ctx, level, msg, attrs...)
}

// outcome is the metrics label for a query result.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.KindOf(err).String()
}
