package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sansquer77/BF1Homol-sub000/internal/app"
	"github.com/sansquer77/BF1Homol-sub000/internal/auth"
	"github.com/sansquer77/BF1Homol-sub000/internal/config"
	"github.com/sansquer77/BF1Homol-sub000/internal/logger"
)

var version = "dev"

// flags holds command line overrides applied on top of the loaded config
type flags struct {
	envFile  string
	port     int
	dbPath   string
	adminPw  string
	logLevel string
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:          "bolao",
		Short:        "F1 prediction pool server",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&f.envFile, "env", ".env", "Path to the .env file")
	rootCmd.PersistentFlags().StringVar(&f.dbPath, "db", "", "SQLite database path (overrides BOLAO_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "loglevel", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		serveCommand(f),
		recomputeCommand(f),
		substitutesCommand(f),
		versionCommand(),
	)
	return rootCmd
}

// load merges the config file, environment and flags
func (f *flags) load(cmd *cobra.Command) (*config.Config, *logger.SlogLogger, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return nil, nil, err
	}

	if cmd.Flags().Changed("db") {
		cfg.DBPath = f.dbPath
	}
	if cmd.Flags().Changed("loglevel") {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = f.port
	}
	if cmd.Flags().Changed("adminpw") {
		cfg.AdminPassword = f.adminPw
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel)), nil
}

func serveCommand(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and deadline watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLog, err := f.load(cmd)
			if err != nil {
				return err
			}

			password := cfg.AdminPassword
			if password == "" {
				password = auth.GeneratePassword()
				appLog.Info("Admin password", "password", password)
			}

			a, err := app.New(appLog, cfg, auth.New(password))
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&f.port, "port", 8081, "HTTP server port (overrides BOLAO_PORT)")
	cmd.Flags().StringVar(&f.adminPw, "adminpw", "", "Admin password (auto-generated if not set)")
	return cmd
}

func recomputeCommand(f *flags) *cobra.Command {
	var season string

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute and store the standings of a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLog, err := f.load(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(appLog, cfg, auth.New(auth.GeneratePassword()))
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Recompute(cmd.Context(), season)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&season, "season", "", "Season to recompute")
	_ = cmd.MarkFlagRequired("season")
	return cmd
}

func substitutesCommand(f *flags) *cobra.Command {
	var raceID int

	cmd := &cobra.Command{
		Use:   "substitutes",
		Short: "Generate substitute predictions for a closed race",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLog, err := f.load(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(appLog, cfg, auth.New(auth.GeneratePassword()))
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.GenerateSubstitutes(cmd.Context(), raceID)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}

	cmd.Flags().IntVar(&raceID, "race", 0, "Race id")
	_ = cmd.MarkFlagRequired("race")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bolao %s\n", version)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
