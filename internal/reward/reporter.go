package reward

import (
	"context"
	"errors"
	"io"
	"sync"

	"go-match/internal/scoring"

	"github.com/sirupsen/logrus"
)

// Handler receives a finished round. It owns delivery, retries and persistence.
type Handler interface {
	HandleResult(ctx context.Context, r scoring.Result) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, r scoring.Result) error

func (f HandlerFunc) HandleResult(ctx context.Context, r scoring.Result) error {
	return f(ctx, r)
}

// Reporter hands one result to its handler, at most once.
type Reporter struct {
	once    sync.Once
	handler Handler
	log     logrus.FieldLogger
}

// NewReporter returns a Reporter for a single round. A nil handler drops the result.
func NewReporter(h Handler, log logrus.FieldLogger) *Reporter {
	if log == nil {
		log = discardLogger()
	}
	return &Reporter{handler: h, log: log}
}

// Report delivers r if nothing was delivered before. It returns true on the
// call that delivered. Handler errors are logged and not retried.
func (rp *Reporter) Report(ctx context.Context, r scoring.Result) bool {
	delivered := false
	rp.once.Do(func() {
		delivered = true
		if rp.handler == nil {
			return
		}
		fields := logrus.Fields{
			"round": r.RoundID,
			"score": r.Score,
			"moves": r.Moves,
		}
		if err := rp.handler.HandleResult(ctx, r); err != nil {
			rp.log.WithFields(fields).WithError(err).Warn("result handler failed")
			return
		}
		rp.log.WithFields(fields).Debug("result reported")
	})
	return delivered
}

// Multi fans a result out to every handler, collecting errors.
type Multi []Handler

func (m Multi) HandleResult(ctx context.Context, r scoring.Result) error {
	var errs []error
	for _, h := range m {
		if h == nil {
			continue
		}
		if err := h.HandleResult(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}
