package invoke

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a locally started invocation.
const DefaultTimeout = 5 * time.Minute

// Local runs invocations on a goroutine of the current process. The
// invocation outlives the triggering request but not Timeout.
type Local struct {
	Runner  *Runner
	Timeout time.Duration
	wg      sync.WaitGroup
}

func (l *Local) Invoke(ctx context.Context, invocation Invocation) (string, error) {
	if invocation.ActivationID == "" {
		invocation.ActivationID = uuid.New().String()
	}
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := zerolog.Ctx(ctx).With().Str("activation", invocation.ActivationID).Str("command", invocation.Command).Logger()
	runCtx, cancel := context.WithTimeout(logger.WithContext(context.WithoutCancel(ctx)), timeout)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Msg("invocation.panicked")
			}
		}()
		if err := l.Runner.Run(runCtx, invocation); err != nil {
			logger.Error().Err(err).Msg("invocation.failed")
			return
		}
		logger.Debug().Msg("invocation.completed")
	}()
	return invocation.ActivationID, nil
}

// Wait blocks until started invocations finish.
func (l *Local) Wait() {
	l.wg.Wait()
}

func NewLocal(runner *Runner, timeout time.Duration) *Local {
	return &Local{Runner: runner, Timeout: timeout}
}
