// Package patch interprets parsed patch directives over an in-memory byte
// buffer.
package patch

import (
	"errors"
	"fmt"

	"hexpatch/patchscript"
)

// DefaultMaxReplacements bounds the replacements of a single run.
const DefaultMaxReplacements = 1 << 20

var (
	// ErrNoActiveFind is returned when R: appears before any F:.
	ErrNoActiveFind = errors.New("F: not defined")

	// ErrAmbiguousAnchor is returned when an SB: key is missing from the buffer or occurs more than once.
	ErrAmbiguousAnchor = errors.New("base address anchor is missing or ambiguous")

	// ErrEmptyPattern is returned for an F: without any bytes.
	ErrEmptyPattern = errors.New("empty find pattern")

	// ErrReplacementLimit is returned when a run exceeds Options.MaxReplacements.
	ErrReplacementLimit = errors.New("replacement limit exceeded")
)

// Replacement is the diagnostic emitted for every splice.
type Replacement struct {
	Line    int   // script line of the R: directive
	Offset  int   // match position in the buffer at the time of the splice
	Length  int   // bytes inserted at Offset
	Address int64 // Offset plus the base address in force
}

func (r Replacement) String() string {
	return fmt.Sprintf("(%d)Replacement at %08X", r.Line, uint64(r.Address))
}

// Observer receives replacements in match order together with the buffer
// right after the splice. buf is owned by the engine and only valid for the
// duration of the call.
type Observer func(r Replacement, buf []byte)

// Options tunes an Engine.
type Options struct {
	// MaxReplacements caps the replacements of a run, 0 selects DefaultMaxReplacements.
	MaxReplacements int
}

// DirectiveError ties an engine failure to the directive that caused it.
type DirectiveError struct {
	Line int
	Kind patchscript.Kind
	Err  error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("line %d (%s:): %v", e.Line, e.Kind, e.Err)
}

func (e *DirectiveError) Unwrap() error {
	return e.Err
}

// Engine holds the interpreter state of one patch run. It is not safe for
// concurrent use.
type Engine struct {
	buf          []byte
	find         []byte
	findSet      bool
	base         int64
	replacements int
	maxRepl      int
	observer     Observer
}

// NewEngine copies input into a new engine. observer may be nil.
func NewEngine(input []byte, observer Observer, opts Options) *Engine {
	buf := make([]byte, len(input))
	copy(buf, input)

	maxRepl := opts.MaxReplacements
	if maxRepl <= 0 {
		maxRepl = DefaultMaxReplacements
	}

	return &Engine{
		buf:      buf,
		maxRepl:  maxRepl,
		observer: observer,
	}
}

// Bytes returns the current buffer. The slice is owned by the engine.
func (e *Engine) Bytes() []byte {
	return e.buf
}

// BaseAddress returns the base address in force.
func (e *Engine) BaseAddress() int64 {
	return e.base
}

// FindPattern returns the active find pattern and whether one is set.
func (e *Engine) FindPattern() ([]byte, bool) {
	return e.find, e.findSet
}

// Replacements returns how many splices the engine has made.
func (e *Engine) Replacements() int {
	return e.replacements
}

// ApplyFind makes pattern the active find pattern.
func (e *Engine) ApplyFind(pattern []byte) error {
	if len(pattern) == 0 {
		return ErrEmptyPattern
	}

	e.find = append([]byte(nil), pattern...)
	e.findSet = true
	return nil
}

// ApplyReplace replaces occurrences of the active find pattern with repl.
//
// After each splice the scan resumes one byte past the start of the match,
// not past the inserted bytes, so inserted bytes are scanned again. With
// F:AA-AA R:FF the buffer AA-AA-AA becomes FF-AA after one replacement;
// F:AA R:AA-AA never terminates on its own and is stopped by
// Options.MaxReplacements.
func (e *Engine) ApplyReplace(line int, repl []byte) error {
	if !e.findSet {
		return ErrNoActiveFind
	}

	for pos := Index(e.buf, e.find, 0); pos >= 0; pos = Index(e.buf, e.find, pos+1) {
		if e.replacements >= e.maxRepl {
			return fmt.Errorf("%w: %d", ErrReplacementLimit, e.maxRepl)
		}

		e.buf = splice(e.buf, pos, len(e.find), repl)
		e.replacements++

		if e.observer != nil {
			e.observer(Replacement{Line: line, Offset: pos, Length: len(repl), Address: e.base + int64(pos)}, e.buf)
		}
	}

	return nil
}

// ApplySetBase declares that the single occurrence of key is at address.
func (e *Engine) ApplySetBase(address int64, key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: empty key", ErrAmbiguousAnchor)
	}

	switch Count(e.buf, key, 2) {
	case 0:
		return fmt.Errorf("%w: key not found", ErrAmbiguousAnchor)
	case 2:
		return fmt.Errorf("%w: multiple base address candidates", ErrAmbiguousAnchor)
	}

	first := Index(e.buf, key, 0)

	e.base = address - int64(first)
	return nil
}

// Apply executes a single directive.
func (e *Engine) Apply(d patchscript.Directive) error {
	var err error

	switch d.Kind {
	case patchscript.SetFind:
		err = e.ApplyFind(d.Pattern)
	case patchscript.Replace:
		err = e.ApplyReplace(d.Line, d.Pattern)
	case patchscript.SetBase:
		err = e.ApplySetBase(d.Address, d.Pattern)
	default:
		err = fmt.Errorf("unknown directive kind %v", d.Kind)
	}

	if err != nil {
		return &DirectiveError{Line: d.Line, Kind: d.Kind, Err: err}
	}
	return nil
}
