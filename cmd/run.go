package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mavshell/msh/core/logger"
	"github.com/mavshell/msh/core/shell"
)

// runCmd starts the interactive loop, same as running msh bare.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive interpreter.",
	Args:  cobra.ExactArgs(0),
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	configuration, err := loadConfig()
	if err != nil {
		return err
	}

	logFd, err := configuration.OpenAppLog()
	if err != nil {
		return err
	}
	defer logFd.Close()

	auditLog := logger.New(logFd)
	defer auditLog.Sync()

	sh, err := shell.New(configuration, auditLog)
	if err != nil {
		return err
	}
	defer sh.Close()

	return sh.Run()
}

func init() {
	rootCmd.AddCommand(runCmd)
}
