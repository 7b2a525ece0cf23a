package patch

import (
	"hexpatch/patchscript"
)

// Result is the outcome of a successful run.
type Result struct {
	Data         []byte
	Replacements []Replacement
	BaseAddress  int64
	Directives   int
}

// Run applies directives to a copy of input in order. Any failure aborts the
// run and no partial result is returned. observer, when not nil, sees every
// replacement as it happens; the same replacements are collected in
// Result.Replacements.
func Run(input []byte, directives []patchscript.Directive, observer Observer, opts Options) (*Result, error) {
	result := &Result{}

	engine := NewEngine(input, func(r Replacement, buf []byte) {
		result.Replacements = append(result.Replacements, r)
		if observer != nil {
			observer(r, buf)
		}
	}, opts)

	for _, d := range directives {
		if err := engine.Apply(d); err != nil {
			return nil, err
		}
		result.Directives++
	}

	result.Data = engine.Bytes()
	result.BaseAddress = engine.BaseAddress()
	return result, nil
}

// Apply computes the patched buffer and the replacement diagnostics without
// side effects.
func Apply(input []byte, directives []patchscript.Directive) ([]byte, []Replacement, error) {
	result, err := Run(input, directives, nil, Options{})
	if err != nil {
		return nil, nil, err
	}
	return result.Data, result.Replacements, nil
}
