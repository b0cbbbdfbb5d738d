package reliability

import (
	"context"

	"livecast/internal/core/domain"
	"livecast/internal/core/ports"
	"livecast/pkg/circuitbreaker"
	"livecast/pkg/retry"
	"livecast/pkg/tracing"

	"go.uber.org/zap"
)

// SessionArchiveWrapper wraps a SessionArchive with retry logic and a
// circuit breaker, so transient Redis trouble is retried and a dead
// Redis stops being hammered on every mutation. Each operation gets an
// archive span covering the full retry envelope.
type SessionArchiveWrapper struct {
	archive ports.SessionArchive
	logger  *zap.SugaredLogger

	retryConfig    retry.Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

func NewSessionArchiveWrapper(
	archive ports.SessionArchive,
	retryConfig retry.Config,
	cbConfig circuitbreaker.Config,
	logger *zap.SugaredLogger,
) ports.SessionArchive {
	wrapper := &SessionArchiveWrapper{
		archive:        archive,
		logger:         logger,
		retryConfig:    retryConfig,
		circuitBreaker: circuitbreaker.New(cbConfig),
	}

	wrapper.circuitBreaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Infow("session archive circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})

	return wrapper
}

func (w *SessionArchiveWrapper) execute(ctx context.Context, operation string, livestreamID domain.LivestreamID, fn func() error) error {
	ctx, span := tracing.TraceArchiveOperation(ctx, operation, string(livestreamID))
	defer span.End()

	var err error
	if !w.retryConfig.Enabled {
		err = w.circuitBreaker.Execute(ctx, fn)
	} else {
		err = retry.Retry(ctx, w.retryConfig, func() error {
			return w.circuitBreaker.Execute(ctx, fn)
		})
	}

	if err != nil {
		tracing.RecordError(ctx, err)
	}
	return err
}

func (w *SessionArchiveWrapper) SaveLivestream(ctx context.Context, stream *domain.Livestream) error {
	return w.execute(ctx, "save_livestream", stream.ID, func() error {
		return w.archive.SaveLivestream(ctx, stream)
	})
}

func (w *SessionArchiveWrapper) LoadLivestream(ctx context.Context, id domain.LivestreamID) (*domain.Livestream, error) {
	var stream *domain.Livestream
	err := w.execute(ctx, "load_livestream", id, func() error {
		var loadErr error
		stream, loadErr = w.archive.LoadLivestream(ctx, id)
		return loadErr
	})
	return stream, err
}

func (w *SessionArchiveWrapper) SaveComment(ctx context.Context, comment *domain.Comment) error {
	return w.execute(ctx, "save_comment", comment.LivestreamID, func() error {
		return w.archive.SaveComment(ctx, comment)
	})
}

func (w *SessionArchiveWrapper) SaveBan(ctx context.Context, entry *domain.BanEntry) error {
	return w.execute(ctx, "save_ban", entry.LivestreamID, func() error {
		return w.archive.SaveBan(ctx, entry)
	})
}

func (w *SessionArchiveWrapper) DeleteBan(ctx context.Context, livestreamID domain.LivestreamID, identity domain.Identity) error {
	return w.execute(ctx, "delete_ban", livestreamID, func() error {
		return w.archive.DeleteBan(ctx, livestreamID, identity)
	})
}
