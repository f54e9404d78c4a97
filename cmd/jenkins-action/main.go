package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"jenkinsaction/internal/config"
	"jenkinsaction/internal/engine/jenkins"
	"jenkinsaction/internal/logger"
	"jenkinsaction/internal/report"
	"jenkinsaction/internal/runner"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "jenkins-action",
	Short: "Trigger a Jenkins job from a GitHub Actions workflow",
	Long: `Triggers a Jenkins job, waits for the build to start and publishes its
URL as the build_url step output. With INPUT_WAIT set it also waits for the
build to finish and fails unless the build succeeds.

Inputs are read from the INPUT_* environment variables set by the runner.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to an optional YAML configuration file")
	rootCmd.Flags().StringVar(&envFile, "env-file", "", "Path to a dotenv file loaded before reading inputs")
}

func run(ctx context.Context) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	// Initialize logger
	logLevel := config.GetLogLevel()
	logger.Init(logLevel)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.LogLevel != logLevel {
		logger.Init(cfg.LogLevel)
	}
	logger.Debug("Configuration loaded",
		"url", cfg.Jenkins.URL,
		"job", cfg.Jenkins.JobName,
		"wait", cfg.Wait,
		"timeout", cfg.Poll.Timeout,
		"start_timeout", cfg.Poll.StartTimeout,
		"interval", cfg.Poll.Interval,
	)

	client, err := jenkins.NewClient(cfg.Jenkins)
	if err != nil {
		return err
	}

	r, err := runner.New(cfg, client, report.NewReporter(cfg.OutputPath, os.Stdout))
	if err != nil {
		return err
	}

	return r.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		report.NewReporter("", os.Stdout).Failure(err)
		logger.Error("Action failed", "error", err)
		os.Exit(1)
	}
}
