package process_blob

import (
	"errors"
	"fmt"

	"hexpatch/process"
	"hexpatch/process/memory_map"
)

// ErrImageResized is returned when a patched image no longer has the length
// of the memory it was read from.
var ErrImageResized = errors.New("patched image changed length")

// Image is a sequence of blobs read as one contiguous byte slice. Offsets
// into the image map back to process addresses blob by blob, so the regions
// need not be adjacent in the process.
type Image struct {
	blobs []*ProcessBlob
	data  []byte
}

// Change is a run of modified bytes at a process address.
type Change struct {
	Address process.ProcessMemoryAddress
	Data    []byte
}

// NewImage stitches blobs together in the given order.
func NewImage(blobs ...*ProcessBlob) *Image {
	img := &Image{blobs: blobs}
	for _, b := range blobs {
		img.data = append(img.data, b.data...)
	}
	return img
}

// ReadImage reads regions from p and returns them as one image.
func ReadImage(p process.Process, regions []memory_map.MemoryMapItem) (*Image, error) {
	blobs := make([]*ProcessBlob, 0, len(regions))
	for _, region := range regions {
		addr := process.ProcessMemoryAddress(region.Address)
		data, err := p.ReadMemory(addr, process.ProcessMemorySize(region.Size))
		if err != nil {
			return nil, fmt.Errorf("failed to read region %s: %w", addr, err)
		}
		blobs = append(blobs, NewProcessBlob(addr, data))
	}
	return NewImage(blobs...), nil
}

// Bytes returns a copy of the image contents.
func (img *Image) Bytes() []byte {
	return append([]byte(nil), img.data...)
}

func (img *Image) Len() int {
	return len(img.data)
}

// BaseAddress is the address of the first image byte, 0 for an empty image.
func (img *Image) BaseAddress() process.ProcessMemoryAddress {
	if len(img.blobs) == 0 {
		return 0
	}
	return img.blobs[0].baseaddress
}

// Address maps an image offset to its process address.
func (img *Image) Address(offset int) (process.ProcessMemoryAddress, bool) {
	if offset < 0 {
		return 0, false
	}
	for _, b := range img.blobs {
		if offset < len(b.data) {
			return b.baseaddress + process.ProcessMemoryAddress(offset), true
		}
		offset -= len(b.data)
	}
	return 0, false
}

// Changes compares patched against the image and returns the modified runs.
// A run never crosses a blob boundary.
func (img *Image) Changes(patched []byte) ([]Change, error) {
	if len(patched) != len(img.data) {
		return nil, fmt.Errorf("%w: %d bytes read, %d bytes patched", ErrImageResized, len(img.data), len(patched))
	}

	var changes []Change
	start := 0
	for _, b := range img.blobs {
		end := start + len(b.data)
		for i := start; i < end; {
			if patched[i] == img.data[i] {
				i++
				continue
			}
			j := i
			for j < end && patched[j] != img.data[j] {
				j++
			}
			changes = append(changes, Change{
				Address: b.baseaddress + process.ProcessMemoryAddress(i-start),
				Data:    append([]byte(nil), patched[i:j]...),
			})
			i = j
		}
		start = end
	}
	return changes, nil
}
