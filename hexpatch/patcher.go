// Package hexpatch runs patch scripts against files and live processes.
package hexpatch

import (
	"fmt"
	"io"
	"os"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/google/uuid"
	"github.com/pingcap/errors"

	"hexpatch/hexdump"
	"hexpatch/patch"
	"hexpatch/patchscript"
)

// Options controls a Patcher.
type Options struct {
	// Test computes and reports the replacements without committing them
	Test bool

	// MaxReplacements caps the replacements of a run, 0 for the default
	MaxReplacements int

	// DumpContext prints a hex dump with this many bytes around every
	// replacement, 0 disables it
	DumpContext int

	// MetricsFile receives the run metrics in text format when set
	MetricsFile string

	Verbose bool
	Color   bool
}

// Locator is implemented by targets whose loaded bytes map to addresses
// other than their offsets.
type Locator interface {
	Locate(offset int) (uint64, bool)
}

// Report describes a successful run.
type Report struct {
	RunID        string
	Target       string
	Directives   int
	Replacements []patch.Replacement
	BytesIn      int
	BytesOut     int
	BaseAddress  int64
	Committed    bool
}

// Patcher applies patch scripts to targets.
type Patcher struct {
	opts    Options
	runID   string
	out     io.Writer
	log     *logger.Logger
	metrics *Metrics
}

func NewPatcher(opts Options) *Patcher {
	runID := uuid.NewString()

	return &Patcher{
		opts:    opts,
		runID:   runID,
		out:     os.Stdout,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "hexpatch-"+runID[:8])),
		metrics: NewMetrics(),
	}
}

// SetOutput redirects the replacement report, stdout by default.
func (p *Patcher) SetOutput(w io.Writer) {
	p.out = w
}

func (p *Patcher) RunID() string {
	return p.runID
}

func (p *Patcher) Metrics() *Metrics {
	return p.metrics
}

// Run applies the script at scriptPath to target.
func (p *Patcher) Run(target Target, scriptPath string) (*Report, error) {
	f, err := os.Open(scriptPath)
	if err != nil {
		return p.finish(nil, errors.Annotatef(err, "open patch %s", scriptPath))
	}
	defer f.Close()

	return p.RunScript(target, f)
}

// RunScript parses script and applies it to target. Each replacement is
// printed as "(line)Replacement at ADDRESS". Nothing is committed when a
// directive fails or when Options.Test is set.
func (p *Patcher) RunScript(target Target, script io.Reader) (*Report, error) {
	directives, err := patchscript.Parse(script)
	if err != nil {
		return p.finish(nil, errors.Annotatef(err, "parse patch"))
	}

	input, err := target.Load()
	if err != nil {
		return p.finish(nil, errors.Trace(err))
	}
	p.log.Infoln("Loaded", len(input), "bytes from", target.Name())

	report := &Report{
		RunID:   p.runID,
		Target:  target.Name(),
		BytesIn: len(input),
	}

	locator, _ := target.(Locator)

	if p.opts.Verbose {
		for _, d := range directives {
			p.log.Debugln("Directive", d.String())
		}
	}

	result, err := patch.Run(input, directives, func(r patch.Replacement, buf []byte) {
		fmt.Fprintln(p.out, r.String())

		if locator != nil && p.opts.Verbose {
			if addr, ok := locator.Locate(r.Offset); ok {
				p.log.Debugln("Line", r.Line, "offset", r.Offset, "is mapped at", fmt.Sprintf("%X", addr))
			}
		}

		if p.opts.DumpContext > 0 {
			base := uint64(r.Address - int64(r.Offset))
			fmt.Fprint(p.out, hexdump.DumpWindow(buf, r.Offset, r.Length, p.opts.DumpContext, base, p.opts.Color))
		}
	}, patch.Options{MaxReplacements: p.opts.MaxReplacements})
	if err != nil {
		return p.finish(nil, errors.Annotatef(err, "patch %s", target.Name()))
	}

	output := result.Data
	report.Directives = result.Directives
	report.Replacements = result.Replacements
	report.BytesOut = len(output)
	report.BaseAddress = result.BaseAddress

	if p.opts.Test {
		p.log.Infoln("Test mode,", len(report.Replacements), "replacements not written")
		return p.finish(report, nil)
	}

	if err := target.Commit(output); err != nil {
		return p.finish(nil, errors.Trace(err))
	}
	report.Committed = true
	p.log.Infoln("Committed", len(report.Replacements), "replacements,", report.BytesOut, "bytes to", target.Name())

	return p.finish(report, nil)
}

func (p *Patcher) finish(report *Report, err error) (*Report, error) {
	p.metrics.ObserveRun(report, err)

	if report != nil && p.opts.Verbose {
		if werr := report.WriteSummary(p.out, p.opts.Color); werr != nil {
			p.log.Warn("Summary not written: ", werr)
		}
	}

	if p.opts.MetricsFile != "" {
		if werr := p.metrics.WriteTextfile(p.opts.MetricsFile); werr != nil {
			p.log.Warn("Metrics not written: ", werr)
		}
	}

	if err != nil {
		return nil, err
	}
	return report, nil
}
