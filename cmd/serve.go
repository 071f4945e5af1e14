package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gitlab.com/mips-autograder.net/internal/adapter/crypto"
	"gitlab.com/mips-autograder.net/internal/adapter/emulator"
	"gitlab.com/mips-autograder.net/internal/adapter/logging"
	"gitlab.com/mips-autograder.net/internal/adapter/postgres"
	"gitlab.com/mips-autograder.net/internal/adapter/postgres/labrepository"
	"gitlab.com/mips-autograder.net/internal/adapter/postgres/submissionrepository"
	"gitlab.com/mips-autograder.net/internal/adapter/postgres/testcaserepository"
	"gitlab.com/mips-autograder.net/internal/adapter/postgres/userrepository"
	"gitlab.com/mips-autograder.net/internal/adapter/redis/testcasecache"
	"gitlab.com/mips-autograder.net/internal/adapter/static"
	"gitlab.com/mips-autograder.net/internal/config"
	"gitlab.com/mips-autograder.net/internal/core/services/auth"
	"gitlab.com/mips-autograder.net/internal/core/services/grading"
	"gitlab.com/mips-autograder.net/internal/core/services/lab"
	"gitlab.com/mips-autograder.net/internal/core/services/testcase"
	"gitlab.com/mips-autograder.net/internal/global/logger"
	http2 "gitlab.com/mips-autograder.net/internal/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve <env>",
	Short: "Run the HTTP API",
	Long:  `Loads <env>.env, connects to PostgreSQL and Redis and serves the grading API until SIGINT or SIGTERM.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

type tableInitializer interface {
	EnsureTableExists(ctx context.Context) error
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(args[0] + ".env"); err != nil {
		return fmt.Errorf("failed to load %s.env: %w", args[0], err)
	}
	sysCfg := config.NewSystemConfig()

	zl := logging.NewZapLogger(sysCfg.DebugMode)
	logger.Use(zl)
	defer func() { _ = zl.Sync() }()
	zl.Info("Starting autograder service", "env", args[0], "debug", sysCfg.DebugMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, sysCfg.PostgresConfig)
	if err != nil {
		return err
	}
	defer db.Close()

	// SECONDARY PORTS
	schema := sysCfg.PostgresConfig.Schema
	labRepo := labrepository.NewLabRepository(db, zl, schema)
	testCaseRepo := testcaserepository.NewTestCaseRepository(db, zl, schema)
	submissionRepo := submissionrepository.NewSubmissionRepository(db, zl, schema)
	userRepo := userrepository.New(db, zl, schema)

	// labs before lab_test_cases, which references it
	for _, tbl := range []tableInitializer{labRepo, testCaseRepo, submissionRepo, userRepo} {
		if err := tbl.EnsureTableExists(ctx); err != nil {
			return err
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password,
		DB:       sysCfg.RedisConfig.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zl.Warn("Redis unreachable, test cases will be read from the database", "addr", sysCfg.RedisConfig.Url, "error", err)
	}

	table, err := static.Builtin()
	if err != nil {
		return err
	}
	resolver := testcase.
		NewChainResolver(zl, testCaseRepo, static.NewResolver(table)).
		WithCache(testcasecache.NewTestCaseCache(redisClient, zl), sysCfg.RedisConfig.TestCaseTTL)
	zl.Info("Test case resolution order", "chain", resolver.Name())

	// services
	executor := emulator.NewPool(
		emulator.NewSubprocessExecutor(sysCfg.EmulatorConfig, zl),
		sysCfg.EmulatorConfig.MaxConcurrent,
		zl,
	)
	engine := grading.NewEngine(executor, zl, sysCfg.EmulatorConfig.Timeout)
	gradingSvc := grading.NewGradingService(resolver, labRepo, submissionRepo, engine, zl)
	labSvc := lab.NewLabService(labRepo, testCaseRepo, resolver, zl)
	jwtProvider := crypto.NewJWTService(sysCfg.JwtConfig)
	authSvc := auth.NewLocalAuthService(userRepo, jwtProvider, sysCfg.AuthConfig, zl)
	serviceProvider := http2.NewServiceProvider(gradingSvc, labSvc, authSvc, jwtProvider)

	// server
	httpServer := http2.NewServer(sysCfg.HttpConfig.Port, serviceName, *serviceProvider, zl)
	if err := httpServer.Init(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// in-flight gradings finish during shutdown instead of being cancelled
		return httpServer.Start(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), sysCfg.HttpConfig.ShutdownTimeout)
		defer cancel()
		return httpServer.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zl.Info("successfully shutdown server")
	return nil
}
