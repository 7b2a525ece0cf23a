package memory_map

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address  uint64 // The starting address of the memory region
	Size     uint   // The size of the memory region in bytes
	Perms    string // Permissions (e.g., "r-xp" for read, execute, private)
	Offset   uint64 // Offset into the mapped file
	Pathname string // Mapped file, pseudo name like "[heap]", or empty
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Pathname)
}

// End returns the first address past the region
func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

func (mmItem MemoryMapItem) IsExecutable() bool {
	return len(mmItem.Perms) > 2 && mmItem.Perms[2] == 'x'
}

// MemoryMap defines the interface for operations related to a process's memory map
type MemoryMap interface {
	// ReadMemoryMap reads and parses the memory map for a process
	ReadMemoryMap(pid int) ([]MemoryMapItem, error)
}

// ParseMaps parses the /proc/[pid]/maps format:
//
//	00400000-0040b000 r-xp 00000000 08:01 1234   /usr/bin/cat
//
// Malformed lines are skipped. The result is sorted by address.
func ParseMaps(r io.Reader) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}

		startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil || endAddr < startAddr {
			continue
		}

		item := MemoryMapItem{
			Address: startAddr,
			Size:    uint(endAddr - startAddr),
			Perms:   fields[1],
		}

		if len(fields) > 2 {
			if offset, err := strconv.ParseUint(fields[2], 16, 64); err == nil {
				item.Offset = offset
			}
		}

		// pathnames may contain spaces
		if len(fields) > 5 {
			item.Pathname = strings.Join(fields[5:], " ")
		}

		memoryMap = append(memoryMap, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})

	return memoryMap, nil
}

// FindRegion returns the region containing addr. memoryMap must be sorted
// by address.
func FindRegion(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// ModuleRegions returns the readable regions whose pathname is module, or
// whose base name is module, in address order.
func ModuleRegions(module string, memoryMap []MemoryMapItem) []MemoryMapItem {
	var regions []MemoryMapItem

	for _, item := range memoryMap {
		if item.Pathname == "" || !item.IsReadable() {
			continue
		}
		if item.Pathname == module || filepath.Base(item.Pathname) == module {
			regions = append(regions, item)
		}
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Address < regions[j].Address
	})
	return regions
}
