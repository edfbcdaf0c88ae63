// Package shell implements the interactive read-eval loop: tokenizing
// input, dispatching built-ins and history references, and launching
// external programs.
package shell

import (
	"io"
	"os"

	"github.com/abiosoft/readline"
	"go.uber.org/zap"

	"github.com/mavshell/msh/core/config"
	"github.com/mavshell/msh/core/history"
)

// Shell owns the terminal loop around a Dispatcher.
type Shell struct {
	Dispatcher *Dispatcher
	Readline   *readline.Instance

	maxLine int
	log     *zap.Logger
}

// New builds an interactive shell on the process's terminal.
func New(configuration *config.Configuration, logger *zap.Logger) (*Shell, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rl, err := readline.New(configuration.Prompt)
	if err != nil {
		return nil, err
	}

	launcher := &ExecLauncher{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    logger,
	}

	dispatcher := NewDispatcher(history.New(configuration.HistorySize), launcher, logger)
	dispatcher.MaxTokens = configuration.MaxArgs
	dispatcher.Out = rl
	dispatcher.ErrOut = os.Stderr

	return &Shell{
		Dispatcher: dispatcher,
		Readline:   rl,
		maxLine:    configuration.MaxLineLength,
		log:        logger,
	}, nil
}

// Run prompts and dispatches until a quit command arrives. It returns nil on
// a clean quit and an error only on a fatal spawn failure.
func (s *Shell) Run() error {
	for {
		line, err := s.Readline.Readline()

		switch {
		case err == io.EOF:
			// No input is retried, not treated as a quit.
			continue

		case err == readline.ErrInterrupt:
			continue

		case err != nil:
			s.log.Warn("readline", zap.Error(err))
			continue
		}

		if len(line) > s.maxLine {
			line = line[:s.maxLine]
		}

		tokens := Tokenize(line, 1)
		if len(tokens) == 0 {
			continue // blank line, no history effect
		}

		if tokens[0] == "quit" || tokens[0] == "exit" {
			s.log.Info("quit", zap.String("command", tokens[0]))
			return nil
		}

		if err := s.Dispatcher.Dispatch(line); err != nil {
			s.log.Error("dispatch", zap.Error(err))
			return err
		}
	}
}

// Close releases the terminal.
func (s *Shell) Close() error {
	return s.Readline.Close()
}
