package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"refpool/observability/logging"
	"refpool/observability/tracing"
	"refpool/runtime"
	"refpool/runtime/scenario"
	"refpool/storage"
)

func simulateCmd() *cobra.Command {
	var (
		memory  bool
		dataDir string
	)
	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run a YAML scenario against a local bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			engineCfg, err := cfg.Referral()
			if err != nil {
				return err
			}
			logger := logging.SetupWithOptions(cfg.Logging("refpoolctl"))
			shutdown, err := tracing.Init(cmd.Context(), cfg.Tracing("refpoolctl"))
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn("trace shutdown failed", "error", err)
				}
			}()

			logger.Info("starting simulation",
				"scenario", sc.Name,
				"network", cfg.NetworkName,
				"program", engineCfg.ProgramID.String(),
				logging.MaskField("keystore", cfg.KeystorePath),
				logging.MaskField("otlpHeaders", cfg.Telemetry.Headers))

			var db storage.Database
			if memory {
				db = storage.NewMemDB()
			} else {
				dir := cfg.DataDir
				if dataDir != "" {
					dir = dataDir
				}
				ldb, err := storage.NewLevelDB(dir)
				if err != nil {
					return fmt.Errorf("open data dir %s: %w", dir, err)
				}
				db = ldb
			}
			defer db.Close()

			dep, err := runtime.New(db, cfg.Bank(), engineCfg, logger)
			if err != nil {
				return err
			}
			result, runErr := scenario.Run(cmd.Context(), dep, sc)
			if result != nil {
				if err := printYAML(cmd, result); err != nil {
					return err
				}
			}
			if runErr != nil {
				logger.Error("scenario failed", "scenario", sc.Name, "error", runErr)
				return runErr
			}
			logger.Info("scenario complete", "scenario", sc.Name, "stateRoot", result.StateRoot)
			return nil
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "Use an in-memory store instead of LevelDB")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Override the configured data directory")
	return cmd
}
