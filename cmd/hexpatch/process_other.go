//go:build !linux

package main

import (
	"github.com/pingcap/errors"

	"hexpatch/process"
)

var errUnsupported = errors.New("process targets are only supported on linux")

func getProcess(pid int) (process.Process, error) {
	return nil, errors.Trace(errUnsupported)
}

func findProcess(name string) (int, error) {
	return 0, errors.Trace(errUnsupported)
}
