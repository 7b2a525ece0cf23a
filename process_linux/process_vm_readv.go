//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"hexpatch/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv uses the process_vm_readv syscall to read memory from another process
func process_vm_readv(
	pid process.ProcessID,
	remoteAddr process.ProcessMemoryAddress,
	bytesToRead process.ProcessMemorySize,
) ([]byte, error) {
	localBuf := make([]byte, bytesToRead)
	if bytesToRead == 0 {
		return localBuf, nil
	}

	localIov := unix.Iovec{
		Base: &localBuf[0],
		Len:  uint64(bytesToRead),
	}

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  int(bytesToRead),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return nil, fmt.Errorf("process_vm_readv failed: %s (errno: %d)", errno.Error(), errno)
	}

	if int(n) != int(bytesToRead) {
		return localBuf[:n], fmt.Errorf("partial read: %d of %d bytes", n, bytesToRead)
	}

	return localBuf, nil
}

// ReadMemory reads memory from the process at the specified address
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	pid := p.pid
	if pid == 0 {
		p.mu.Unlock()
		return nil, process.ErrProcessNotOpen
	}
	region, err := p.regionFor(addr, size)
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !region.IsReadable() {
		return nil, fmt.Errorf("memory region at %x is not readable", region.Address)
	}

	// no lock held across the system call
	data, err := process_vm_readv(pid, addr, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read process memory at %s: %w", addr, err)
	}

	return data, nil
}
