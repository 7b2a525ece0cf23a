package main

import (
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hexpatch/hexpatch"
)

func TestTargetFlagsValidate(t *testing.T) {
	tests := []struct {
		name    string
		flags   targetFlags
		process bool
		err     error
	}{
		{"file", targetFlags{In: "a.bin", Output: "b.bin"}, false, nil},
		{"file test mode without output", targetFlags{In: "a.bin", Test: true}, false, nil},
		{"file without output", targetFlags{In: "a.bin"}, false, errNoTarget},
		{"nothing", targetFlags{}, false, errNoTarget},
		{"output without input", targetFlags{Output: "b.bin", Test: true}, false, errNoTarget},
		{"pid", targetFlags{PID: 42, PIDSet: true, Module: "game"}, true, nil},
		{"pid without module", targetFlags{PID: 42, PIDSet: true}, true, errNoTarget},
		{"pid zero", targetFlags{PID: 0, PIDSet: true, Module: "game"}, true, errInvalidPID},
		{"pid zero not set falls back to files", targetFlags{PID: 0, In: "a.bin", Output: "b.bin"}, false, nil},
		{"process name", targetFlags{Process: "game", Module: "game"}, true, nil},
		{"process name without module", targetFlags{Process: "game", In: "a.bin", Output: "b.bin"}, true, errNoTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.process, tt.flags.isProcess())

			err := tt.flags.validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, errors.Cause(err), tt.err)
		})
	}
}

func TestOpenFileTarget(t *testing.T) {
	target, closeTarget, err := openTarget(targetFlags{In: "a.bin", Test: true})
	require.NoError(t, err)
	defer closeTarget()

	assert.Equal(t, &hexpatch.FileTarget{Input: "a.bin"}, target)

	_, _, err = openTarget(targetFlags{PIDSet: true, Module: "game"})
	assert.ErrorIs(t, errors.Cause(err), errInvalidPID)
}
