//go:build linux

package main

import (
	"hexpatch/process"
	"hexpatch/process_linux"
)

func getProcess(pid int) (process.Process, error) {
	return process_linux.NewWithPID(process.ProcessID(pid))
}

func findProcess(name string) (int, error) {
	pid, err := process_linux.FindProcess(name)
	return int(pid), err
}
