package process

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufcstats-scraper/fightertools/internal/config"
)

func TestExecRunnerArgv(t *testing.T) {
	r, err := NewExecRunner([]string{"python3", "src/main.py"}, "--delay")
	require.NoError(t, err)

	assert.Equal(t, "python3", r.Command)
	assert.Equal(t, []string{"src/main.py", "a"}, r.Argv("a", ""))
	assert.Equal(t, []string{"src/main.py", "--delay", "2.5", "a"}, r.Argv("a", "2.5"))
}

func TestExecRunnerArgvPositionalDelay(t *testing.T) {
	cfg := config.DefaultConfig()
	r, err := NewExecRunner(cfg.ScraperArgv(), cfg.DelayFlag)
	require.NoError(t, err)

	// src/main.py reads the letters from argv[1] and the delay from argv[2].
	assert.Equal(t, []string{"src/main.py", "a", "10"}, r.Argv("a", "10"))
	assert.Equal(t, []string{"src/main.py", "a"}, r.Argv("a", ""))
}

func TestNewExecRunnerRejectsEmptyCommand(t *testing.T) {
	_, err := NewExecRunner(nil, "--delay")
	assert.Error(t, err)
}

func TestExecRunnerPassesArguments(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	var out bytes.Buffer
	r := &ExecRunner{
		Command:   "sh",
		Args:      []string{"-c", `echo "$@"`, "scraper"},
		DelayFlag: "--delay",
		Stdout:    &out,
	}

	require.NoError(t, r.Run(context.Background(), "q", "10"))
	require.NoError(t, r.Run(context.Background(), "r", ""))

	assert.Equal(t, "--delay 10 q\nr\n", out.String())
}

func TestExecRunnerReportsExitStatus(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	r := &ExecRunner{
		Command: "sh",
		Args:    []string{"-c", "exit 3", "scraper"},
		Stderr:  &bytes.Buffer{},
	}

	err := r.Run(context.Background(), "a", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 3")

	var exitErr *exec.ExitError
	assert.ErrorAs(t, err, &exitErr)
}
