package main

import (
	"os"

	"github.com/spf13/cobra"

	"gitlab.com/mips-autograder.net/internal/global/logger"
)

const serviceName = "mipsgrader"

var rootCmd = &cobra.Command{
	Use:           serviceName,
	Short:         "MIPS lab autograder",
	Long:          `Grades MIPS assembly submissions against per-lab test cases using an isolated emulator process.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, gradeCmd, testCasesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		_ = logger.Logger.Sync()
		os.Exit(1)
	}
}
