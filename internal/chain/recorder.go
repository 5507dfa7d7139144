package chain

import (
	"context"
	"log/slog"
	"time"

	"spectra/internal/mark"
	"spectra/internal/platform/metrics"
)

// Recorder wraps a Writer with bounded retry. It runs after a successful
// graph commit in the onchain namespace; exhausting the retries never rolls
// that commit back, it only logs and counts the failure.
type Recorder struct {
	writer   Writer
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewRecorder(writer Writer, attempts int, backoff time.Duration, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	if attempts <= 0 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Recorder{writer: writer, attempts: attempts, backoff: backoff, logger: logger, metrics: m}
}

// Record mirrors the committed mark to the ledger, retrying with a linear
// backoff until the attempts are spent or the context is cancelled.
func (r *Recorder) Record(ctx context.Context, req mark.Request) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		receipt, err := r.writer.StoreMark(ctx, req.FromParticipantID, req.ToParticipantID, req.Value, req.Type.String())
		if err == nil {
			r.logger.InfoContext(ctx, "mark stored onchain",
				"tx_hash", receipt.TxHash,
				"from", req.FromParticipantID,
				"to", req.ToParticipantID,
			)
			return
		}
		lastErr = err
		if attempt == r.attempts {
			break
		}

		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = r.attempts
		case <-time.After(time.Duration(attempt) * r.backoff):
		}
	}

	r.metrics.ChainWriteFailures.Inc()
	r.logger.ErrorContext(ctx, "onchain write-through failed",
		"error", lastErr,
		"from", req.FromParticipantID,
		"to", req.ToParticipantID,
		"attempts", r.attempts,
	)
}
