// Package process describes a running process whose memory can be patched
// in place.
package process

import (
	"errors"
	"fmt"
)

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrRegionNotWritable is returned when a write targets a region without write permission.
	ErrRegionNotWritable = errors.New("memory region not writable")

	// ErrModuleNotFound is returned when no mapping matches the requested module.
	ErrModuleNotFound = errors.New("module not mapped")
)

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) String() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) String() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}
