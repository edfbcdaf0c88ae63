package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
	"go.uber.org/zap"

	"github.com/mavshell/msh/core/history"
)

// EnvHome names the variable consulted by a bare cd.
const EnvHome = "HOME"

var errorColor = color.New(color.FgRed, color.Bold)

// Dispatcher decides whether a line is a history reference, a built-in or an
// external invocation, and drives the replay of history references. It is
// the only writer of the history log.
type Dispatcher struct {
	History   *history.Log
	Launcher  Launcher
	MaxTokens int
	Out       io.Writer
	ErrOut    io.Writer
	Log       *zap.Logger
}

// NewDispatcher wires a dispatcher around the given log and launcher,
// filling in defaults for the rest.
func NewDispatcher(log *history.Log, launcher Launcher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		History:   log,
		Launcher:  launcher,
		MaxTokens: DefaultMaxTokens,
		Out:       os.Stdout,
		ErrOut:    os.Stderr,
		Log:       logger,
	}
}

// Dispatch fully processes one input line: history references resolve and
// replay, everything else is appended to the log and then interpreted as a
// built-in or an external command. The returned error is nil for every
// recoverable condition; only a fatal spawn failure propagates.
func (d *Dispatcher) Dispatch(line string) error {
	tokens := Tokenize(line, d.MaxTokens)
	if len(tokens) == 0 {
		return nil
	}

	if strings.HasPrefix(tokens[0], "!") {
		return d.replay(tokens[0])
	}

	// Every non-reference line is logged before interpretation.
	handle := d.History.Append(line)
	d.Log.Info("append", zap.String("command", line))

	switch tokens[0] {
	case "history":
		d.builtinHistory(tokens)
		return nil
	case "cd":
		d.builtinCd(tokens)
		return nil
	default:
		return d.runExternal(tokens, handle)
	}
}

// replay resolves a bang reference against the current log and dispatches
// the resolved text as a brand-new command. The reference line itself is
// never appended, so resolved text cannot be a bang line and the recursion
// bottoms out after one step.
func (d *Dispatcher) replay(ref string) error {
	var (
		text string
		err  error
	)

	if ref == "!!" {
		text, err = d.History.MostRecent()
	} else {
		n, perr := strconv.ParseUint(ref[1:], 10, 32)
		if perr != nil || int(n) >= d.History.Capacity() {
			d.reportf("%s: invalid history reference\n", ref)
			return nil
		}
		text, err = d.History.TextAt(int(n))
	}

	if err != nil {
		d.reportf("%s: command not in history\n", ref)
		return nil
	}

	d.Log.Info("replay", zap.String("reference", ref), zap.String("command", text))
	return d.Dispatch(text)
}

func (d *Dispatcher) builtinHistory(argv []string) {
	opts := getopt.New()
	showPIDs := opts.Bool('p', "include process ids")

	if err := opts.Getopt(argv, nil); err != nil {
		d.reportf("%s: %v\n", argv[0], err)
		return
	}
	if len(opts.Args()) > 0 {
		d.reportf("%s: too many arguments\n", argv[0])
		return
	}

	for _, line := range d.History.Render(*showPIDs) {
		fmt.Fprintln(d.Out, line)
	}
}

func (d *Dispatcher) builtinCd(argv []string) {
	switch len(argv) {
	case 1:
		home := os.Getenv(EnvHome)
		if home == "" {
			d.reportf("%s: %s not set\n", argv[0], EnvHome)
			return
		}
		argv = append(argv, home)
		fallthrough
	case 2:
		if err := os.Chdir(argv[1]); err != nil {
			d.reportf("%s: %v\n", argv[0], err)
		}
	default:
		d.reportf("%s: too many arguments\n", argv[0])
	}
}

func (d *Dispatcher) runExternal(argv []string, handle history.Handle) error {
	pid, err := d.Launcher.Launch(argv)

	switch {
	case err == nil:
		d.History.AttachPID(handle, pid)
		d.Log.Info("launch", zap.String("command", argv[0]), zap.Int("pid", pid))
		return nil

	case errors.Is(err, ErrCommandNotFound):
		d.Log.Warn("command not found", zap.String("command", argv[0]))
		d.reportf("%s: command not found\n", argv[0])
		return nil

	default:
		var fatal *FatalSpawnError
		if errors.As(err, &fatal) {
			d.Log.Error("spawn failed", zap.Error(fatal))
			return fatal
		}

		d.Log.Warn("launch failed", zap.String("command", argv[0]), zap.Error(err))
		d.reportf("%s: %v\n", argv[0], err)
		return nil
	}
}

func (d *Dispatcher) reportf(format string, args ...interface{}) {
	fmt.Fprint(d.ErrOut, errorColor.Sprintf(format, args...))
}
