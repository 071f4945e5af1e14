package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gitlab.com/mips-autograder.net/internal/adapter/emulator"
	"gitlab.com/mips-autograder.net/internal/adapter/logging"
	"gitlab.com/mips-autograder.net/internal/adapter/static"
	"gitlab.com/mips-autograder.net/internal/config"
	"gitlab.com/mips-autograder.net/internal/core/ports/secondary"
	"gitlab.com/mips-autograder.net/internal/core/services/grading"
	"gitlab.com/mips-autograder.net/internal/domain"
)

var (
	gradeLab     string
	gradeFile    string
	gradeEnv     string
	listLab      string
	listDetails  bool
	fixturePath  string
	gradeVerbose bool
)

var gradeCmd = &cobra.Command{
	Use:   "grade --lab <id> --file <source.s>",
	Short: "Grade a local assembly file against the built-in test cases",
	Long:  `Runs the emulator once per test case of the lab and prints the grade report as JSON. No database is needed.`,
	Args:  cobra.NoArgs,
	RunE:  runGrade,
}

var testCasesCmd = &cobra.Command{
	Use:   "testcases --lab <id>",
	Short: "Print the test cases of a built-in lab",
	Args:  cobra.NoArgs,
	RunE:  runTestCases,
}

func init() {
	gradeCmd.Flags().StringVar(&gradeLab, "lab", "", "lab id, e.g. lab-12-2")
	gradeCmd.Flags().StringVar(&gradeFile, "file", "", "path to the assembly source, - for stdin")
	gradeCmd.Flags().StringVar(&gradeEnv, "env", "", "optional <env>.env file with EMULATOR_* settings")
	gradeCmd.Flags().BoolVarP(&gradeVerbose, "verbose", "v", false, "debug logging on stderr")
	_ = gradeCmd.MarkFlagRequired("lab")
	_ = gradeCmd.MarkFlagRequired("file")

	testCasesCmd.Flags().StringVar(&listLab, "lab", "", "lab id, e.g. lab-12-2")
	testCasesCmd.Flags().BoolVar(&listDetails, "details", false, "include inputs and expectations")
	_ = testCasesCmd.MarkFlagRequired("lab")

	for _, c := range []*cobra.Command{gradeCmd, testCasesCmd} {
		c.Flags().StringVar(&fixturePath, "fixture", "", "YAML test case table replacing the built-in one")
	}
}

func loadTable() (*static.Table, error) {
	if fixturePath == "" {
		return static.Builtin()
	}
	data, err := os.ReadFile(fixturePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return static.Parse(data)
}

func offlineService(executor secondary.CodeExecutor, logger *logging.ZapLogger, cfg *config.EmulatorConfig) (*grading.GradingService, error) {
	table, err := loadTable()
	if err != nil {
		return nil, err
	}
	engine := grading.NewEngine(executor, logger, cfg.Timeout)
	return grading.NewGradingService(static.NewResolver(table), nil, nil, engine, logger), nil
}

func runGrade(cmd *cobra.Command, _ []string) error {
	if gradeEnv != "" {
		if err := godotenv.Load(gradeEnv + ".env"); err != nil {
			return fmt.Errorf("failed to load %s.env: %w", gradeEnv, err)
		}
	}
	cfg := config.NewEmulatorConfig()

	var source []byte
	var err error
	if gradeFile == "-" {
		source, err = io.ReadAll(cmd.InOrStdin())
	} else {
		source, err = os.ReadFile(gradeFile)
	}
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	logger := logging.NewNopLogger()
	if gradeVerbose {
		logger = logging.NewZapLogger(true)
	}
	svc, err := offlineService(emulator.NewSubprocessExecutor(cfg, logger), logger, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := svc.Submit(ctx, "", gradeLab, string(source))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func runTestCases(cmd *cobra.Command, _ []string) error {
	cfg := config.NewEmulatorConfig()
	logger := logging.NewNopLogger()
	svc, err := offlineService(emulator.NewSubprocessExecutor(cfg, logger), logger, cfg)
	if err != nil {
		return err
	}

	viewer := domain.Viewer{Role: domain.RoleStudent}
	if listDetails {
		viewer.Role = domain.RoleInstructor
	}
	listing, err := svc.TestCases(cmd.Context(), listLab, viewer)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), listing)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
