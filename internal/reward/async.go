package reward

import (
	"context"
	"sync"
	"time"

	"go-match/internal/scoring"

	"github.com/sirupsen/logrus"
)

// Async delivers results to a slow handler (network sinks) in the background
// so the caller never waits on it.
type Async struct {
	next    Handler
	timeout time.Duration
	log     logrus.FieldLogger
	wg      sync.WaitGroup
}

// NewAsync wraps next. Each delivery gets its own timeout.
func NewAsync(next Handler, timeout time.Duration, log logrus.FieldLogger) *Async {
	if log == nil {
		log = discardLogger()
	}
	return &Async{next: next, timeout: timeout, log: log}
}

// HandleResult schedules delivery and returns immediately.
func (a *Async) HandleResult(_ context.Context, r scoring.Result) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx := context.Background()
		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}
		if err := a.next.HandleResult(ctx, r); err != nil {
			a.log.WithField("round", r.RoundID).WithError(err).Warn("background result delivery failed")
		}
	}()
	return nil
}

// Wait blocks until every scheduled delivery has finished.
func (a *Async) Wait() {
	a.wg.Wait()
}
