package main

import (
	"fmt"
	"os"

	"github.com/pingcap/errors"
	"github.com/urfave/cli/v2"

	"hexpatch/hexpatch"
)

var (
	errNoTarget   = errors.New("either --in and --output, or --pid/--process with --module, are required")
	errInvalidPID = errors.New("--pid must be a positive process id")
)

func main() {
	app := cli.NewApp()
	app.Name = "hexpatch"
	app.Usage = "apply F:/R:/SB: hex patch scripts to files or running processes"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "in",
			Aliases: []string{"i"},
			Usage:   "input file",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output file",
		},
		&cli.StringFlag{
			Name:     "patch",
			Aliases:  []string{"p"},
			Usage:    "patch script",
			Required: true,
		},
		&cli.BoolFlag{
			Name:    "test",
			Aliases: []string{"t"},
			Usage:   "report replacements without writing anything",
		},
		&cli.IntFlag{
			Name:  "pid",
			Usage: "patch the memory of this process",
		},
		&cli.StringFlag{
			Name:  "process",
			Usage: "patch the memory of the process with this name",
		},
		&cli.StringFlag{
			Name:  "module",
			Usage: "mapped file of the process to patch",
		},
		&cli.IntFlag{
			Name:  "dump",
			Usage: "hex dump this many bytes around every replacement",
		},
		&cli.IntFlag{
			Name:  "max-replacements",
			Usage: "abort when a run makes more replacements",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "write run metrics in Prometheus text format",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "file with HEXPATCH_* defaults",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "log every directive",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := hexpatch.LoadConfig(ctx.String("env-file"))
	if err != nil {
		return err
	}

	if ctx.IsSet("dump") {
		cfg.DumpContext = ctx.Int("dump")
	}
	if ctx.IsSet("max-replacements") {
		cfg.MaxReplacements = ctx.Int("max-replacements")
	}
	if ctx.IsSet("metrics-file") {
		cfg.MetricsFile = ctx.String("metrics-file")
	}
	if ctx.IsSet("verbose") {
		cfg.Verbose = ctx.Bool("verbose")
	}
	if err := hexpatch.ValidateConfig(cfg); err != nil {
		return err
	}

	target, closeTarget, err := openTarget(targetFlagsFrom(ctx))
	if err != nil {
		return err
	}
	defer closeTarget()

	patcher := hexpatch.NewPatcher(cfg.Options(ctx.Bool("test")))
	_, err = patcher.Run(target, ctx.String("patch"))
	return err
}

// targetFlags are the command line flags that select what gets patched.
type targetFlags struct {
	In      string
	Output  string
	PID     int
	PIDSet  bool
	Process string
	Module  string
	Test    bool
}

func targetFlagsFrom(ctx *cli.Context) targetFlags {
	return targetFlags{
		In:      ctx.String("in"),
		Output:  ctx.String("output"),
		PID:     ctx.Int("pid"),
		PIDSet:  ctx.IsSet("pid"),
		Process: ctx.String("process"),
		Module:  ctx.String("module"),
		Test:    ctx.Bool("test"),
	}
}

// isProcess reports whether the flags select a live process.
func (f targetFlags) isProcess() bool {
	return f.PIDSet || f.Process != ""
}

// validate checks that the flags name exactly one usable target.
func (f targetFlags) validate() error {
	if f.isProcess() {
		if f.Module == "" {
			return errors.Annotatef(errNoTarget, "--module is required with --pid or --process")
		}
		if f.Process == "" && f.PID <= 0 {
			return errors.Annotatef(errInvalidPID, "got %d", f.PID)
		}
		return nil
	}

	if f.In == "" {
		return errors.Annotatef(errNoTarget, "--in is required")
	}
	if f.Output == "" && !f.Test {
		return errors.Annotatef(errNoTarget, "--output is required unless --test is set")
	}
	return nil
}

func openTarget(f targetFlags) (hexpatch.Target, func(), error) {
	if err := f.validate(); err != nil {
		return nil, nil, err
	}

	if !f.isProcess() {
		return &hexpatch.FileTarget{Input: f.In, Output: f.Output}, func() {}, nil
	}

	pid := f.PID
	if f.Process != "" {
		found, err := findProcess(f.Process)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		pid = found
	}

	proc, err := getProcess(pid)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "attach to process %d", pid)
	}
	return hexpatch.NewProcessTarget(proc, f.Module), func() { proc.Close() }, nil
}
