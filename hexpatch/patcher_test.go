package hexpatch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hexpatch/patch"
	"hexpatch/patchscript"
)

func writeFile(t *testing.T, dir, name string, data []byte, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, mode))
	return path
}

func newTestPatcher(opts Options) (*Patcher, *bytes.Buffer) {
	p := NewPatcher(opts)
	var out bytes.Buffer
	p.SetOutput(&out)
	return p, &out
}

func TestRunFileTarget(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.bin", []byte{0xAA, 0xBB, 0xCC, 0xBB, 0xDD}, 0o755)
	out := filepath.Join(dir, "out.bin")
	script := writeFile(t, dir, "fix.patch", []byte("F:BB\nR:EE\n"), 0o644)

	p, report := newTestPatcher(Options{})
	result, err := p.Run(&FileTarget{Input: in, Output: out}, script)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xEE, 0xCC, 0xEE, 0xDD}, data)

	fi, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), fi.Mode().Perm())

	assert.True(t, result.Committed)
	assert.Equal(t, 2, result.Directives)
	assert.Len(t, result.Replacements, 2)
	assert.Equal(t, 5, result.BytesIn)
	assert.Equal(t, 5, result.BytesOut)
	assert.Equal(t, p.RunID(), result.RunID)
	assert.Equal(t, "(2)Replacement at 00000001\n(2)Replacement at 00000003\n", report.String())
}

func TestRunAddressesFollowBase(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.bin", []byte{0x10, 0x20, 0x30, 0x40}, 0o644)

	p, report := newTestPatcher(Options{Test: true})
	_, err := p.RunScript(&FileTarget{Input: in}, strings.NewReader("SB:401000=10-20\nF:30\nR:31\n"))
	require.NoError(t, err)
	assert.Equal(t, "(3)Replacement at 00401002\n", report.String())
}

func TestRunTestModeWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.bin", []byte{0xAA}, 0o644)
	out := filepath.Join(dir, "out.bin")

	p, report := newTestPatcher(Options{Test: true})
	result, err := p.RunScript(&FileTarget{Input: in, Output: out}, strings.NewReader("F:AA\nR:BB\n"))
	require.NoError(t, err)

	assert.False(t, result.Committed)
	assert.Len(t, result.Replacements, 1)
	assert.Equal(t, "(2)Replacement at 00000000\n", report.String())
	assert.NoFileExists(t, out)
}

func TestRunFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.bin", []byte{0xAA, 0xBB}, 0o644)
	out := filepath.Join(dir, "out.bin")

	tests := []struct {
		name   string
		script string
		target error
	}{
		{"replace without find", "R:BB\n", patch.ErrNoActiveFind},
		{"missing anchor", "F:AA\nR:CC\nSB:10=EE\n", patch.ErrAmbiguousAnchor},
		{"malformed line", "F:AA\nR:C\n", patchscript.ErrMalformedLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPatcher(Options{})
			result, err := p.RunScript(&FileTarget{Input: in, Output: out}, strings.NewReader(tt.script))
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, errors.Cause(err), tt.target)
			assert.NoFileExists(t, out)
		})
	}
}

func TestRunReplacementLimit(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.bin", []byte{0xAA}, 0o644)

	p, _ := newTestPatcher(Options{MaxReplacements: 8})
	_, err := p.RunScript(&FileTarget{Input: in, Output: filepath.Join(dir, "out.bin")}, strings.NewReader("F:AA\nR:AA-AA\n"))
	assert.ErrorIs(t, errors.Cause(err), patch.ErrReplacementLimit)
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()

	p, _ := newTestPatcher(Options{})
	_, err := p.RunScript(&FileTarget{Input: filepath.Join(dir, "missing"), Output: filepath.Join(dir, "out")}, strings.NewReader("F:AA\n"))
	assert.ErrorIs(t, errors.Cause(err), os.ErrNotExist)

	_, err = p.Run(&FileTarget{Input: filepath.Join(dir, "missing")}, filepath.Join(dir, "missing.patch"))
	assert.ErrorIs(t, errors.Cause(err), os.ErrNotExist)
}

func TestRunDumpContext(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.bin", []byte("0123456789abcdefXYZ"), 0o644)

	p, report := newTestPatcher(Options{Test: true, DumpContext: 2})
	_, err := p.RunScript(&FileTarget{Input: in}, strings.NewReader("F:58\nR:21-21\n"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(report.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "(2)Replacement at 00000010", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "00000000  30 31"))
	assert.True(t, strings.HasPrefix(lines[2], "00000010  21 21 59 5a"))
	assert.True(t, strings.HasSuffix(lines[2], "!!YZ"))
}

func TestRunWritesMetrics(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.bin", []byte{0xAA, 0xAA}, 0o644)
	metricsFile := filepath.Join(dir, "hexpatch.prom")

	p, _ := newTestPatcher(Options{Test: true, MetricsFile: metricsFile})
	_, err := p.RunScript(&FileTarget{Input: in}, strings.NewReader("F:AA\nR:BB\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "hexpatch_replacements_total 2")
	assert.Contains(t, text, "hexpatch_directives_applied_total 2")
	assert.Contains(t, text, `hexpatch_runs_total{result="test"} 1`)
	assert.Contains(t, text, "hexpatch_input_bytes 2")

	_, err = p.RunScript(&FileTarget{Input: in}, strings.NewReader("R:BB\n"))
	require.Error(t, err)

	data, err = os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hexpatch_runs_total{result="failed"} 1`)
}

func TestRunVerboseSummary(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.bin", []byte{0xAA, 0xBB, 0xAA}, 0o644)

	p, report := newTestPatcher(Options{Test: true, Verbose: true})
	_, err := p.RunScript(&FileTarget{Input: in}, strings.NewReader("SB:1000=BB\nF:AA\nR:CC\n"))
	require.NoError(t, err)

	assert.Equal(t,
		"(3)Replacement at 00000FFF\n"+
			"(3)Replacement at 00001001\n"+
			in+": 3 directives, 2 replacements, 3 -> 3 bytes, base 00000FFF (test, not written)\n"+
			"Line Offset Address\n"+
			"---- ------ --------\n"+
			"   3      0 00000FFF\n"+
			"   3      2 00001001\n",
		report.String())
}
