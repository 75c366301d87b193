package process

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	key   string
	delay string
}

// recordingRunner records every invocation and fails the keys in failOn.
type recordingRunner struct {
	calls  []call
	failOn map[string]bool
}

func (r *recordingRunner) Run(_ context.Context, key, delay string) error {
	r.calls = append(r.calls, call{key: key, delay: delay})
	if r.failOn[key] {
		return errors.New("scraper exited with status 1")
	}
	return nil
}

func (r *recordingRunner) keys() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.key)
	}
	return out
}

func TestParseKeys(t *testing.T) {
	assert.Equal(t, []string{"x", "a", "x"}, ParseKeys("xax"))

	all := ParseKeys("")
	require.Len(t, all, 26)
	assert.Equal(t, "a", all[0])
	assert.Equal(t, "z", all[25])

	// Callers may not mutate the shared defaults through the result.
	all[0] = "!"
	assert.Equal(t, "a", DefaultKeys[0])
}

func TestParseDelay(t *testing.T) {
	for _, ok := range []string{"", "0", "10", "2.5", "1e1"} {
		got, err := ParseDelay(ok)
		require.NoError(t, err, ok)
		assert.Equal(t, ok, got)
	}

	for _, bad := range []string{"abc", "-1", "NaN", "Inf", "10s"} {
		_, err := ParseDelay(bad)
		assert.Error(t, err, bad)
	}
}

func TestInvokerRunsEveryKeyInOrder(t *testing.T) {
	runner := &recordingRunner{}
	inv, err := NewInvoker(runner)
	require.NoError(t, err)

	require.NoError(t, inv.Run(context.Background(), ParseKeys("cab"), "15"))

	assert.Equal(t, []call{{"c", "15"}, {"a", "15"}, {"b", "15"}}, runner.calls)
}

func TestInvokerDefaultsToAlphabet(t *testing.T) {
	runner := &recordingRunner{}
	inv, err := NewInvoker(runner)
	require.NoError(t, err)

	require.NoError(t, inv.Run(context.Background(), ParseKeys(""), ""))

	assert.Equal(t, DefaultKeys, runner.keys())
	for _, c := range runner.calls {
		assert.Empty(t, c.delay)
	}
}

func TestInvokerContinuesAfterFailure(t *testing.T) {
	runner := &recordingRunner{failOn: map[string]bool{"a": true, "c": true}}
	inv, err := NewInvoker(runner)
	require.NoError(t, err)

	require.NoError(t, inv.Run(context.Background(), ParseKeys("abcd"), ""))

	assert.Equal(t, []string{"a", "b", "c", "d"}, runner.keys())
}

func TestInvokerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []string
	inv, err := NewInvoker(RunnerFunc(func(ctx context.Context, key, _ string) error {
		seen = append(seen, key)
		if key == "b" {
			cancel()
			return ctx.Err()
		}
		return nil
	}))
	require.NoError(t, err)

	err = inv.Run(ctx, ParseKeys("abcd"), "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestNewInvokerRequiresRunner(t *testing.T) {
	_, err := NewInvoker(nil)
	assert.Error(t, err)
}
