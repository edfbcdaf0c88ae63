package shell

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"

	"go.uber.org/zap"

	"github.com/mavshell/msh/core/history"
)

// ErrCommandNotFound reports that the program named by argv[0] isn't on the
// executable search path.
var ErrCommandNotFound = errors.New("command not found")

// FatalSpawnError wraps an OS-level failure to create a new process at all,
// e.g. resource exhaustion. It is the only launch failure that terminates
// the interpreter.
type FatalSpawnError struct {
	Err error
}

func (e *FatalSpawnError) Error() string {
	return fmt.Sprintf("cannot spawn process: %v", e.Err)
}

func (e *FatalSpawnError) Unwrap() error {
	return e.Err
}

// Launcher spawns one external program and waits for it to finish.
type Launcher interface {
	// Launch runs argv[0] with the remaining words as arguments, blocks
	// until it exits, and returns the spawned process id.
	Launch(argv []string) (pid int, err error)
}

// ExecLauncher runs programs on the real OS via os/exec.
type ExecLauncher struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Log    *zap.Logger
}

var _ Launcher = (*ExecLauncher)(nil)

func (l *ExecLauncher) logger() *zap.Logger {
	if l.Log == nil {
		return zap.NewNop()
	}
	return l.Log
}

// Launch resolves argv[0] on PATH, spawns it and waits synchronously.
// A missing program is reported as ErrCommandNotFound; a failure of the
// spawn primitive itself comes back as *FatalSpawnError.
func (l *ExecLauncher) Launch(argv []string) (int, error) {
	if len(argv) == 0 {
		return history.NoPID, errors.New("empty argument vector")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return history.NoPID, fmt.Errorf("%s: %w", argv[0], ErrCommandNotFound)
		}
		// e.g. found on PATH but not executable; surface the OS error.
		return history.NoPID, err
	}

	cmd := &exec.Cmd{
		Path:   path,
		Args:   argv,
		Stdin:  l.Stdin,
		Stdout: l.Stdout,
		Stderr: l.Stderr,
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) {
			return history.NoPID, &FatalSpawnError{Err: err}
		}
		return history.NoPID, err
	}

	pid := cmd.Process.Pid

	exitCode := 0
	if err := cmd.Wait(); err != nil {
		// A non-zero exit status belongs to the child, not to us.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			l.logger().Warn("wait failed", zap.Int("pid", pid), zap.Error(err))
			return pid, nil
		}
		exitCode = exitErr.ExitCode()
	}

	l.logger().Info("process exited",
		zap.String("command", argv[0]),
		zap.Int("pid", pid),
		zap.Int("exit_code", exitCode))

	return pid, nil
}
