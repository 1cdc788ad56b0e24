package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/salvage/internal/control"
	"github.com/vietddude/salvage/internal/core/domain"
	"github.com/vietddude/salvage/internal/recovery"
)

var (
	recoverSession     string
	recoverUser        string
	recoverPartial     bool
	recoverManual      bool
	recoverProgressive bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover <batch-id>",
	Short: "Run a one-shot recovery for a batch and print the result",
	Args:  cobra.ExactArgs(1),
	Run:   runRecover,
}

func init() {
	recoverCmd.Flags().StringVar(&recoverSession, "session", "", "session ID for server recovery")
	recoverCmd.Flags().StringVar(&recoverUser, "user", "", "user ID for server recovery")
	recoverCmd.Flags().BoolVar(&recoverPartial, "partial", false, "accept a degraded state as a partial result")
	recoverCmd.Flags().BoolVar(&recoverManual, "manual-conflicts", false, "surface conflicts instead of auto-resolving")
	recoverCmd.Flags().BoolVar(&recoverProgressive, "progressive", false, "recover components individually")
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	app, err := control.New(control.Config{
		Port:     cfg.Server.Port,
		Recovery: cfg.Recovery.Runtime(),
		Redis:    cfg.Redis,
		Database: cfg.Database,
		Remote:   cfg.Remote.Runtime(),
	})
	if err != nil {
		slog.Error("Failed to initialize salvage", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	}()

	opts := recovery.Options{
		SessionID:    recoverSession,
		UserID:       recoverUser,
		AllowPartial: recoverPartial,
	}
	if recoverManual {
		opts.ConflictResolution = recovery.ConflictManual
	}

	ctx := context.Background()
	batchID := args[0]

	var out any
	if recoverProgressive {
		out = app.Coordinator().ProgressiveRecover(ctx, batchID, domain.DefaultComponents, opts)
	} else {
		out = app.Coordinator().Recover(ctx, batchID, opts)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
