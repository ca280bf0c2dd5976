// Package engine evaluates scene scripts. It wraps zygomys in a sandboxed
// environment and produces the element list described by user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/solarform/pkg/element"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line      int        `json:"line"`
	Col       int        `json:"col"`
	Message   string     `json:"message"`
	ElementID element.ID `json:"elementId,omitempty"`
}

// EvalResult bundles the full output of an evaluation for use by UI bindings.
type EvalResult struct {
	Elements []element.Element `json:"elements"`
	Errors   []EvalError       `json:"errors"`
	Warnings []EvalWarning     `json:"warnings"`
}

// Engine wraps the zygomys interpreter for scene evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate takes scene script source and produces the elements it creates,
// in creation order. Each call creates a fresh zygomys sandbox for
// deterministic evaluation.
//
// Return semantics:
//   - On success: returns elements + nil errors + nil error
//   - On parse/eval failure: returns nil elements + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) ([]element.Element, []EvalError, error) {
	gen := e.begin()
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		elems, evalErrs, err := e.evaluate(source)
		ch <- evalResult{elems: elems, errors: evalErrs, err: err}
	}()

	return e.await(ch, gen)
}

// Result evaluates source and bundles the elements, errors and warnings.
// Fatal failures are returned as the error, as with Evaluate.
func (e *Engine) Result(source string) (EvalResult, error) {
	elems, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{}, err
	}
	return EvalResult{Elements: elems, Errors: evalErrs, Warnings: Warnings(elems)}, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) ([]element.Element, []EvalError, error) {
	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) == "" {
		return []element.Element{}, nil, nil
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder()
	registerBuiltins(env, b)

	// Load and compile the source string into bytecode.
	err := env.LoadString(preprocessSource(source))
	if err != nil {
		evalErrs := parseZygomysError(err)
		return nil, evalErrs, nil
	}

	// Execute the compiled bytecode.
	_, err = env.Run()
	if err != nil {
		evalErrs := parseZygomysError(err)
		return nil, evalErrs, nil
	}

	return b.Elements(), nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// Try to extract line numbers from the error message.
	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	// Fallback: no line info available.
	return []EvalError{{
		Line:    0,
		Col:     0,
		Message: strings.TrimSpace(msg),
	}}
}

// Warnings reports panels whose scripted tilt or azimuth will be ignored
// because a sun tracker drives them.
func Warnings(elems []element.Element) []EvalWarning {
	var out []EvalWarning
	for i := range elems {
		e := &elems[i]
		d, ok := e.SolarPanel()
		if !ok {
			continue
		}
		if d.TrackerType != element.NoTracker && (d.TiltAngle != 0 || d.RelativeAzimuth != 0) {
			out = append(out, EvalWarning{
				Message:   fmt.Sprintf("%s tracker overrides tilt and azimuth", d.TrackerType),
				ElementID: e.ID,
			})
		}
	}
	return out
}
