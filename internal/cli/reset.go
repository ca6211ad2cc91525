package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/duchph/approvebot/internal/control"
	"github.com/duchph/approvebot/internal/core/config"
	"github.com/duchph/approvebot/internal/core/domain"
)

var resetAll bool

var resetCmd = &cobra.Command{
	Use:   "reset [ou_id] [account_name]",
	Short: "Forget progress for one record, or the whole run with --all",
	Args:  cobra.RangeArgs(0, 2),
	Run:   runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "discard the entire checkpoint state")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) {
	if !resetAll && len(args) != 2 {
		fmt.Println("Provide an ou_id and account_name, or use --all")
		os.Exit(1)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := control.NewStore(cfg.Checkpoint)
	if err != nil {
		slog.Error("Failed to open checkpoint store", "error", err)
		os.Exit(1)
	}

	if resetAll {
		if err := store.Save(ctx, domain.NewProgress()); err != nil {
			slog.Error("Failed to reset progress", "error", err)
			os.Exit(1)
		}
		fmt.Println("Progress cleared")
		return
	}

	key := domain.NormalizeKey(args[0], args[1])

	p, err := store.Load(ctx)
	if err != nil {
		slog.Error("Failed to load progress", "error", err)
		os.Exit(1)
	}

	kept := p.CompletedKeys[:0]
	removed := false
	for _, k := range p.CompletedKeys {
		if k == key {
			removed = true
			continue
		}
		kept = append(kept, k)
	}
	p.CompletedKeys = kept
	sort.Strings(p.CompletedKeys)
	if _, ok := p.InProgress[key]; ok {
		delete(p.InProgress, key)
		removed = true
	}

	if !removed {
		fmt.Printf("No progress recorded for %q\n", key)
		return
	}

	if err := store.Save(ctx, p); err != nil {
		slog.Error("Failed to save progress", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Forgot progress for %q\n", key)
}
