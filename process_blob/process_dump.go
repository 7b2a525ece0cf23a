package process_blob

import (
	"fmt"
	"sort"

	"hexpatch/process"
	"hexpatch/process/memory_map"
)

// ProcessDump implements process.Process over memory held in blobs. Writes
// honour the region permissions of the memory map.
type ProcessDump struct {
	PID       process.ProcessID
	MemoryMap []memory_map.MemoryMapItem
	Blobs     map[uint64]*ProcessBlob // region address -> contents
}

var _ process.Process = (*ProcessDump)(nil)

// NewProcessDump creates a dump with one zero filled blob per region.
func NewProcessDump(pid process.ProcessID, memoryMap []memory_map.MemoryMapItem) *ProcessDump {
	p := &ProcessDump{
		PID:       pid,
		MemoryMap: append([]memory_map.MemoryMapItem(nil), memoryMap...),
		Blobs:     make(map[uint64]*ProcessBlob),
	}

	sort.Slice(p.MemoryMap, func(i, j int) bool {
		return p.MemoryMap[i].Address < p.MemoryMap[j].Address
	})
	for _, region := range p.MemoryMap {
		p.Blobs[region.Address] = NewProcessBlob(process.ProcessMemoryAddress(region.Address), make([]byte, region.Size))
	}
	return p
}

func (p *ProcessDump) Open(pid process.ProcessID) error {
	if pid != p.PID {
		return fmt.Errorf("dump holds process %d, not %d", p.PID, pid)
	}
	return nil
}

func (p *ProcessDump) Close() error {
	return nil
}

func (p *ProcessDump) GetPID() process.ProcessID {
	return p.PID
}

func (p *ProcessDump) UpdateMemoryMap() error {
	return nil // Memory map is static in a dump
}

func (p *ProcessDump) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	result := make([]memory_map.MemoryMapItem, len(p.MemoryMap))
	copy(result, p.MemoryMap)
	return result, nil
}

func (p *ProcessDump) blobFor(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) (*memory_map.MemoryMapItem, *ProcessBlob, error) {
	region := memory_map.FindRegion(uint64(addr), p.MemoryMap)
	if region == nil {
		return nil, nil, process.ErrAddressNotMapped
	}

	blob, ok := p.Blobs[region.Address]
	if !ok || !blob.Contains(addr, size) {
		return nil, nil, fmt.Errorf("%w: %s+%d", process.ErrAddressNotMapped, addr, size)
	}
	return region, blob, nil
}

func (p *ProcessDump) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	_, blob, err := p.blobFor(addr, size)
	if err != nil {
		return nil, err
	}
	return blob.ReadMemory(addr, size)
}

func (p *ProcessDump) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	region, blob, err := p.blobFor(addr, process.ProcessMemorySize(len(data)))
	if err != nil {
		return err
	}
	if !region.IsWritable() {
		return fmt.Errorf("%w: %x", process.ErrRegionNotWritable, region.Address)
	}
	return blob.WriteMemory(addr, data)
}
