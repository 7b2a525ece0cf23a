// Package process_blob holds copies of process memory: single regions,
// images stitched from several regions, and an in-memory process.
package process_blob

import (
	"errors"
	"fmt"

	"hexpatch/process"
)

// ErrOutOfBounds is returned for accesses outside a blob.
var ErrOutOfBounds = errors.New("address out of bounds")

// ProcessBlob is a copy of the memory starting at baseaddress.
type ProcessBlob struct {
	baseaddress process.ProcessMemoryAddress
	data        []byte
}

func NewProcessBlob(baseAddress process.ProcessMemoryAddress, data []byte) *ProcessBlob {
	return &ProcessBlob{
		baseaddress: baseAddress,
		data:        data,
	}
}

func (p *ProcessBlob) Data() []byte {
	return p.data
}

func (p *ProcessBlob) BaseAddress() process.ProcessMemoryAddress {
	return p.baseaddress
}

func (p *ProcessBlob) Size() process.ProcessMemorySize {
	return process.ProcessMemorySize(len(p.data))
}

// Contains reports whether [addr, addr+size) lies inside the blob.
func (p *ProcessBlob) Contains(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
	if addr < p.baseaddress {
		return false
	}
	return uint64(addr-p.baseaddress)+uint64(size) <= uint64(len(p.data))
}

// ReadMemory returns a copy of size bytes at addr.
func (p *ProcessBlob) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if !p.Contains(addr, size) {
		return nil, fmt.Errorf("%w: %s+%d", ErrOutOfBounds, addr, size)
	}
	offset := uint64(addr - p.baseaddress)
	result := make([]byte, size)
	copy(result, p.data[offset:offset+uint64(size)])
	return result, nil
}

// WriteMemory overwrites the blob at addr.
func (p *ProcessBlob) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if !p.Contains(addr, process.ProcessMemorySize(len(data))) {
		return fmt.Errorf("%w: %s+%d", ErrOutOfBounds, addr, len(data))
	}
	copy(p.data[addr-p.baseaddress:], data)
	return nil
}
