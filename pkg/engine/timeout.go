package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/solarform/pkg/element"
)

// DefaultTimeout bounds one scene script run.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine timeout.
	ErrTimeout = errors.New("scene evaluation timed out")
	// ErrSuperseded is returned to a caller whose script finished after a
	// newer script was submitted.
	ErrSuperseded = errors.New("scene evaluation superseded by a newer script")
)

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout replaces DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// evalResult carries one sandbox run back to the waiting caller.
type evalResult struct {
	elems  []element.Element
	errors []EvalError
	err    error
}

// begin starts a new generation and returns its number.
func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

// current reports whether gen is still the latest generation.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// await blocks until the sandbox run for gen reports or the timeout
// elapses. A run that was overtaken by a later script is dropped, so the
// editor never loads a stale scene. The sandbox goroutine is not stopped
// on timeout; its result lands in the buffered channel and is discarded.
func (e *Engine) await(ch <-chan evalResult, gen uint64) ([]element.Element, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.elems, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
