package clirun_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/corvid/internal/clirun"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"
)

func stdio(stdin string) (mainer.Stdio, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &out,
		Stderr: &errOut,
	}, &out, &errOut
}

func TestMainUsageOnTooManyArgs(t *testing.T) {
	var c clirun.Cmd
	io, _, errOut := stdio("")
	code := c.Main([]string{"corvid", "a.crv", "b.crv"}, io)
	require.Equal(t, clirun.ExitUsage, code)
	require.Contains(t, errOut.String(), "Usage: corvid [path]")
}

func TestMainRunsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.crv")
	require.NoError(t, os.WriteFile(path, []byte("print 1 + 2;"), 0o644))

	var c clirun.Cmd
	io, out, _ := stdio("")
	code := c.Main([]string{"corvid", path}, io)
	require.Equal(t, clirun.ExitOk, code)
	require.Equal(t, "3\n", out.String())
}

func TestMainFileCompileErrorExitCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.crv")
	require.NoError(t, os.WriteFile(path, []byte("var;"), 0o644))

	var c clirun.Cmd
	io, _, errOut := stdio("")
	code := c.Main([]string{"corvid", path}, io)
	require.Equal(t, clirun.ExitCompileError, code)
	require.NotEmpty(t, errOut.String())
}

func TestMainFileRuntimeErrorExitCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.crv")
	require.NoError(t, os.WriteFile(path, []byte(`print "a" + 1;`), 0o644))

	var c clirun.Cmd
	io, _, errOut := stdio("")
	code := c.Main([]string{"corvid", path}, io)
	require.Equal(t, clirun.ExitRuntimeError, code)
	require.Contains(t, errOut.String(), "[line 1] in script")
}

func TestMainMissingFileIsRuntimeError(t *testing.T) {
	var c clirun.Cmd
	io, _, _ := stdio("")
	code := c.Main([]string{"corvid", filepath.Join(t.TempDir(), "nope.crv")}, io)
	require.Equal(t, clirun.ExitRuntimeError, code)
}

func TestMainREPLEvaluatesUntilEOF(t *testing.T) {
	var c clirun.Cmd
	io, out, _ := stdio("var x = 1;\nprint x + 1;\n")
	code := c.Main([]string{"corvid"}, io)
	require.Equal(t, clirun.ExitOk, code)
	require.Equal(t, "2\n", out.String())
}

func TestMainREPLGlobalsPersistAcrossLines(t *testing.T) {
	var c clirun.Cmd
	io, out, _ := stdio("fun f() { return 41; }\nprint f() + 1;\n")
	code := c.Main([]string{"corvid"}, io)
	require.Equal(t, clirun.ExitOk, code)
	require.Equal(t, "42\n", out.String())
}

func TestMainREPLKeepsGoingAfterLineError(t *testing.T) {
	var c clirun.Cmd
	io, out, errOut := stdio("print nope;\nprint 99;\n")
	code := c.Main([]string{"corvid"}, io)
	require.Equal(t, clirun.ExitOk, code)
	require.Contains(t, errOut.String(), "Undefined variable 'nope'.")
	require.Equal(t, "99\n", out.String())
}
