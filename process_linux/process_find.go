//go:build linux

package process_linux

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"hexpatch/process"
)

// LinuxProcessFinder implements the process.ProcessFinder interface
type LinuxProcessFinder struct {
	// Root is the proc filesystem, /proc when empty
	Root string
}

// NewProcessFinder creates a new LinuxProcessFinder
func NewProcessFinder() process.ProcessFinder {
	return &LinuxProcessFinder{}
}

// FindProcess finds a process by name and returns its PID
func FindProcess(name string) (process.ProcessID, error) {
	return (&LinuxProcessFinder{}).FindOne(name)
}

// FindOne returns the PID of the only process called name. Several matches
// are an error listing every candidate.
func (f *LinuxProcessFinder) FindOne(name string) (process.ProcessID, error) {
	processes, err := f.FindProcessByName(name)
	if err != nil {
		return 0, err
	}

	if len(processes) == 0 {
		return 0, fmt.Errorf("no process found with name '%s'", name)
	}
	if len(processes) > 1 {
		candidates := make([]string, len(processes))
		for i, p := range processes {
			candidates[i] = fmt.Sprintf("%d (%s)", p.PID, p.Exe)
		}
		return 0, fmt.Errorf("%d processes named '%s', pick one by PID: %s", len(processes), name, strings.Join(candidates, ", "))
	}

	return processes[0].PID, nil
}

// FindProcessByName returns all processes whose comm or exe basename equals
// name (case-sensitive, like pidof). The calling process is never included.
func (f *LinuxProcessFinder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, fmt.Errorf("empty process name")
	}

	root := f.Root
	if root == "" {
		root = "/proc"
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	selfPID := os.Getpid()
	var results []process.ProcessInfo

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 || pid == selfPID {
			continue
		}

		procPath := filepath.Join(root, entry.Name())

		// Process may have terminated while we were reading
		comm, err := os.ReadFile(filepath.Join(procPath, "comm"))
		if err != nil {
			continue
		}
		comm = bytes.TrimRight(comm, "\n")

		// Some processes don't have an exe (e.g., kernel threads)
		exe, _ := os.Readlink(filepath.Join(procPath, "exe"))

		if string(comm) == name || (exe != "" && filepath.Base(exe) == name) {
			results = append(results, process.ProcessInfo{
				PID:  process.ProcessID(pid),
				Name: string(comm),
				Exe:  exe,
			})
		}
	}

	return results, nil
}
