package shell

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mavshell/msh/core/history"
)

func init() {
	// Keep assertions on reported errors free of escape codes.
	color.NoColor = true
}

// fakeLauncher records launches and hands out increasing pids.
type fakeLauncher struct {
	calls   [][]string
	nextPID int
	err     error
}

func (f *fakeLauncher) Launch(argv []string) (int, error) {
	f.calls = append(f.calls, append([]string(nil), argv...))
	if f.err != nil {
		return history.NoPID, f.err
	}
	f.nextPID++
	return 1000 + f.nextPID, nil
}

func newTestDispatcher(capacity int) (*Dispatcher, *fakeLauncher, *bytes.Buffer, *bytes.Buffer) {
	launcher := &fakeLauncher{}
	dispatcher := NewDispatcher(history.New(capacity), launcher, zap.NewNop())

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	dispatcher.Out = out
	dispatcher.ErrOut = errOut

	return dispatcher, launcher, out, errOut
}

func TestDispatchExternal(t *testing.T) {
	dispatcher, launcher, _, errOut := newTestDispatcher(15)

	require.NoError(t, dispatcher.Dispatch("echo hello world"))

	require.Len(t, launcher.calls, 1)
	assert.Equal(t, []string{"echo", "hello", "world"}, launcher.calls[0])
	assert.Empty(t, errOut.String())

	rec, err := dispatcher.History.At(0)
	require.NoError(t, err)
	assert.Equal(t, "echo hello world", rec.Text)
	assert.Equal(t, 1001, rec.PID)
}

func TestDispatchRoundTrip(t *testing.T) {
	dispatcher, launcher, _, errOut := newTestDispatcher(15)

	for _, line := range []string{"echo a", "echo b", "echo c"} {
		require.NoError(t, dispatcher.Dispatch(line))
	}

	assert.Equal(t,
		[]string{"[ 0] echo a", "[ 1] echo b", "[ 2] echo c"},
		dispatcher.History.Render(false))

	// !1 re-runs echo b and appends it as a new, distinct record.
	require.NoError(t, dispatcher.Dispatch("!1"))
	assert.Empty(t, errOut.String())

	require.Len(t, launcher.calls, 4)
	assert.Equal(t, []string{"echo", "b"}, launcher.calls[3])

	require.Equal(t, 4, dispatcher.History.Len())
	text, err := dispatcher.History.TextAt(3)
	require.NoError(t, err)
	assert.Equal(t, "echo b", text)

	// The original record is untouched, not mutated in place.
	first, err := dispatcher.History.At(1)
	require.NoError(t, err)
	replayed, err := dispatcher.History.At(3)
	require.NoError(t, err)
	assert.Equal(t, first.Text, replayed.Text)
	assert.NotEqual(t, first.PID, replayed.PID)
}

func TestDispatchBangLatest(t *testing.T) {
	dispatcher, launcher, _, _ := newTestDispatcher(15)

	require.NoError(t, dispatcher.Dispatch("echo x"))
	require.NoError(t, dispatcher.Dispatch("!!"))

	require.Len(t, launcher.calls, 2)
	assert.Equal(t, launcher.calls[0], launcher.calls[1])
	assert.Equal(t, 2, dispatcher.History.Len())
}

func TestDispatchBangNeverPersists(t *testing.T) {
	dispatcher, _, _, _ := newTestDispatcher(15)

	require.NoError(t, dispatcher.Dispatch("echo a"))
	require.NoError(t, dispatcher.Dispatch("echo b"))
	require.NoError(t, dispatcher.Dispatch("!1"))
	require.NoError(t, dispatcher.Dispatch("!!"))

	for i := 0; i < dispatcher.History.Len(); i++ {
		text, err := dispatcher.History.TextAt(i)
		require.NoError(t, err)
		assert.NotContains(t, text, "!", "literal bang line persisted at %d", i)
	}
}

func TestDispatchBangErrors(t *testing.T) {
	cases := []struct {
		name     string
		seed     []string
		ref      string
		expected string
	}{
		{"latest with empty history", nil, "!!", "!!: command not in history"},
		{"index with empty history", nil, "!0", "!0: command not in history"},
		{"beyond visible window", []string{"echo a"}, "!5", "!5: command not in history"},
		{"beyond capacity", nil, "!99", "!99: invalid history reference"},
		{"trailing junk", []string{"echo a"}, "!1x", "!1x: invalid history reference"},
		{"bare bang", []string{"echo a"}, "!", "!: invalid history reference"},
		{"negative", []string{"echo a"}, "!-1", "!-1: invalid history reference"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dispatcher, launcher, _, errOut := newTestDispatcher(15)
			for _, line := range tc.seed {
				require.NoError(t, dispatcher.Dispatch(line))
			}
			launches := len(launcher.calls)
			visible := dispatcher.History.Len()

			require.NoError(t, dispatcher.Dispatch(tc.ref))

			assert.Contains(t, errOut.String(), tc.expected)
			assert.Len(t, launcher.calls, launches, "failed reference must not execute")
			assert.Equal(t, visible, dispatcher.History.Len(), "failed reference must not append")
		})
	}
}

func TestDispatchBangResolvesBeforeAppend(t *testing.T) {
	// C=2: appending a, b, c leaves [b, c]; !0 resolves to b.
	dispatcher, launcher, _, _ := newTestDispatcher(2)

	for _, line := range []string{"echo a", "echo b", "echo c"} {
		require.NoError(t, dispatcher.Dispatch(line))
	}

	require.NoError(t, dispatcher.Dispatch("!0"))
	require.Len(t, launcher.calls, 4)
	assert.Equal(t, []string{"echo", "b"}, launcher.calls[3])
}

func TestDispatchInjectedBangLine(t *testing.T) {
	// Bang lines never reach the log through Dispatch, but a log seeded with
	// one directly must still behave: the resolved text is resolved again.
	dispatcher, launcher, _, _ := newTestDispatcher(15)

	dispatcher.History.Append("echo ok")
	dispatcher.History.Append("!0")

	require.NoError(t, dispatcher.Dispatch("!1"))

	require.Len(t, launcher.calls, 1)
	assert.Equal(t, []string{"echo", "ok"}, launcher.calls[0])

	// Only the final resolution was appended.
	require.Equal(t, 3, dispatcher.History.Len())
	text, err := dispatcher.History.TextAt(2)
	require.NoError(t, err)
	assert.Equal(t, "echo ok", text)
}

func TestDispatchHistoryBuiltin(t *testing.T) {
	dispatcher, launcher, out, errOut := newTestDispatcher(15)

	require.NoError(t, dispatcher.Dispatch("echo a"))
	require.NoError(t, dispatcher.Dispatch("history"))

	assert.Empty(t, errOut.String())
	assert.Equal(t, "[ 0] echo a\n[ 1] history\n", out.String())

	// The builtin appended itself but never launched anything.
	require.Len(t, launcher.calls, 1)
	rec, err := dispatcher.History.At(1)
	require.NoError(t, err)
	assert.Equal(t, history.NoPID, rec.PID)
}

func TestDispatchHistoryBuiltinShowPIDs(t *testing.T) {
	dispatcher, _, out, errOut := newTestDispatcher(15)

	require.NoError(t, dispatcher.Dispatch("echo a"))
	require.NoError(t, dispatcher.Dispatch("history -p"))

	assert.Empty(t, errOut.String())
	assert.Equal(t, "[ 0] 1001 echo a\n[ 1] -1 history -p\n", out.String())
}

func TestDispatchHistoryBuiltinBadArgs(t *testing.T) {
	dispatcher, _, out, errOut := newTestDispatcher(15)

	require.NoError(t, dispatcher.Dispatch("history extra"))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "history: too many arguments")
}

func TestDispatchCdTooManyArgs(t *testing.T) {
	dispatcher, _, _, errOut := newTestDispatcher(15)

	wd, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, dispatcher.Dispatch("cd /nonexistent /extra"))

	assert.Contains(t, errOut.String(), "cd: too many arguments")

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, after, "working directory must be unchanged")

	rec, err := dispatcher.History.At(0)
	require.NoError(t, err)
	assert.Equal(t, history.NoPID, rec.PID)
}

func TestDispatchCdNoHome(t *testing.T) {
	dispatcher, _, _, errOut := newTestDispatcher(15)
	t.Setenv(EnvHome, "")

	wd, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, dispatcher.Dispatch("cd"))

	assert.Contains(t, errOut.String(), "cd: HOME not set")

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, after)
}

func TestDispatchCdBadPath(t *testing.T) {
	dispatcher, _, _, errOut := newTestDispatcher(15)

	wd, err := os.Getwd()
	require.NoError(t, err)

	require.NoError(t, dispatcher.Dispatch("cd /nonexistent-path-for-sure"))

	assert.Contains(t, errOut.String(), "cd: ")

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, after)
}

func TestDispatchCommandNotFound(t *testing.T) {
	dispatcher, launcher, _, errOut := newTestDispatcher(15)
	launcher.err = fmt.Errorf("nosuchprogram: %w", ErrCommandNotFound)

	require.NoError(t, dispatcher.Dispatch("nosuchprogram"))

	assert.Contains(t, errOut.String(), "nosuchprogram: command not found")

	// The line is still recorded, without a pid.
	rec, err := dispatcher.History.At(0)
	require.NoError(t, err)
	assert.Equal(t, history.NoPID, rec.PID)
}

func TestDispatchLaunchOSError(t *testing.T) {
	dispatcher, launcher, _, errOut := newTestDispatcher(15)
	launcher.err = errors.New("permission denied")

	require.NoError(t, dispatcher.Dispatch("restricted"))

	assert.Contains(t, errOut.String(), "restricted: permission denied")
}

func TestDispatchFatalSpawnError(t *testing.T) {
	dispatcher, launcher, _, _ := newTestDispatcher(15)
	launcher.err = &FatalSpawnError{Err: errors.New("resource temporarily unavailable")}

	err := dispatcher.Dispatch("anything")

	var fatal *FatalSpawnError
	require.ErrorAs(t, err, &fatal)
}

func TestDispatchBlankLine(t *testing.T) {
	dispatcher, launcher, _, _ := newTestDispatcher(15)

	require.NoError(t, dispatcher.Dispatch("   \t  "))

	assert.Empty(t, launcher.calls)
	assert.Equal(t, 0, dispatcher.History.Len())
}
