package hexpatch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/pingcap/errors"

	"hexpatch/process"
	"hexpatch/process/memory_map"
	"hexpatch/process_blob"
)

var (
	ErrTargetNotLoaded = errors.New("target not loaded")
	ErrNoOutput        = errors.New("output path not set")
)

// Target is the memory a patch script runs against.
type Target interface {
	// Name identifies the target in logs and errors
	Name() string

	// Load returns the bytes to patch
	Load() ([]byte, error)

	// Commit stores the patched bytes
	Commit(data []byte) error
}

// FileTarget reads Input whole and writes the result to Output.
type FileTarget struct {
	Input  string
	Output string
}

func (t *FileTarget) Name() string {
	return t.Input
}

func (t *FileTarget) Load() ([]byte, error) {
	data, err := os.ReadFile(t.Input)
	if err != nil {
		return nil, errors.Annotatef(err, "read input %s", t.Input)
	}
	return data, nil
}

// Commit writes data to a temporary file next to Output and renames it into
// place, so Output is either the old file or the complete new one. The mode
// of Input is kept.
func (t *FileTarget) Commit(data []byte) (err error) {
	if t.Output == "" {
		return errors.Trace(ErrNoOutput)
	}

	mode := os.FileMode(0o644)
	if fi, statErr := os.Stat(t.Input); statErr == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(t.Output), "."+filepath.Base(t.Output)+".*")
	if err != nil {
		return errors.Annotatef(err, "create output %s", t.Output)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Annotatef(err, "write output %s", t.Output)
	}
	if err = tmp.Chmod(mode); err != nil {
		return errors.Annotatef(err, "chmod output %s", t.Output)
	}
	if err = tmp.Close(); err != nil {
		return errors.Annotatef(err, "close output %s", t.Output)
	}
	if err = os.Rename(tmp.Name(), t.Output); err != nil {
		return errors.Annotatef(err, "rename output %s", t.Output)
	}
	return nil
}

// ProcessTarget patches the mapped regions of Module in a running process.
// The regions are read as one image in address order; only bytes that
// changed are written back, and the image must keep its length.
type ProcessTarget struct {
	Process process.Process
	Module  string

	image *process_blob.Image
	log   *logger.Logger
}

func NewProcessTarget(p process.Process, module string) *ProcessTarget {
	return &ProcessTarget{
		Process: p,
		Module:  module,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("target-%d", p.GetPID()))),
	}
}

func (t *ProcessTarget) Name() string {
	return fmt.Sprintf("pid %d (%s)", t.Process.GetPID(), t.Module)
}

// BaseAddress is the address of the first loaded byte.
func (t *ProcessTarget) BaseAddress() (process.ProcessMemoryAddress, error) {
	if t.image == nil {
		return 0, errors.Trace(ErrTargetNotLoaded)
	}
	return t.image.BaseAddress(), nil
}

func (t *ProcessTarget) Load() ([]byte, error) {
	if err := t.Process.UpdateMemoryMap(); err != nil {
		return nil, errors.Annotatef(err, "update memory map of %s", t.Name())
	}

	mm, err := t.Process.GetMemoryMap()
	if err != nil {
		return nil, errors.Annotatef(err, "memory map of %s", t.Name())
	}

	regions := memory_map.ModuleRegions(t.Module, mm)
	if len(regions) == 0 {
		return nil, errors.Annotatef(process.ErrModuleNotFound, "%s", t.Name())
	}

	image, err := process_blob.ReadImage(t.Process, regions)
	if err != nil {
		return nil, errors.Annotatef(err, "read %s", t.Name())
	}

	t.image = image
	if t.log != nil {
		t.log.Infoln("Loaded", len(regions), "regions,", image.Len(), "bytes from", t.Name())
	}
	return image.Bytes(), nil
}

// Locate returns the process address of a loaded byte.
func (t *ProcessTarget) Locate(offset int) (uint64, bool) {
	if t.image == nil {
		return 0, false
	}
	addr, ok := t.image.Address(offset)
	return uint64(addr), ok
}

// Commit writes the changed runs of data back to the process. Every run is
// checked against the current memory map first, so a run that cannot be
// written fails the commit before any memory is touched.
func (t *ProcessTarget) Commit(data []byte) error {
	if t.image == nil {
		return errors.Trace(ErrTargetNotLoaded)
	}

	changes, err := t.image.Changes(data)
	if err != nil {
		return errors.Trace(err)
	}

	if err := t.checkWritable(changes); err != nil {
		return err
	}

	for _, change := range changes {
		if err := t.Process.WriteMemory(change.Address, change.Data); err != nil {
			return errors.Annotatef(err, "write %d bytes at %s", len(change.Data), change.Address)
		}
	}

	if t.log != nil {
		t.log.Infoln("Wrote", len(changes), "changed runs to", t.Name())
	}
	return nil
}

func (t *ProcessTarget) checkWritable(changes []process_blob.Change) error {
	if len(changes) == 0 {
		return nil
	}

	mm, err := t.Process.GetMemoryMap()
	if err != nil {
		return errors.Annotatef(err, "memory map of %s", t.Name())
	}

	for _, change := range changes {
		region := memory_map.FindRegion(uint64(change.Address), mm)
		if region == nil || uint64(change.Address)+uint64(len(change.Data)) > region.End() {
			return errors.Annotatef(process.ErrAddressNotMapped, "%d bytes at %s", len(change.Data), change.Address)
		}
		if !region.IsWritable() {
			return errors.Annotatef(process.ErrRegionNotWritable, "%d bytes at %s (%s %s)", len(change.Data), change.Address, region.Perms, region.Pathname)
		}
	}
	return nil
}
