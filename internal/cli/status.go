package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/duchph/approvebot/internal/control"
	"github.com/duchph/approvebot/internal/core/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the checkpointed progress of the current batch",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
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

	p, err := store.Load(ctx)
	if err != nil {
		slog.Error("Failed to load progress", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "COMPLETED\tIN PROGRESS\tLAST ERROR")

	inProgress := "-"
	if len(p.InProgress) > 0 {
		inProgress = fmt.Sprintf("%d record(s)", len(p.InProgress))
	}
	lastError := "-"
	if p.LastError != nil {
		lastError = fmt.Sprintf("row %d (%s): %s", p.LastError.ExcelRow, p.LastError.OUID, p.LastError.Error)
	}
	_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", len(p.CompletedKeys), inProgress, lastError)
	_ = w.Flush()

	if len(p.InProgress) > 0 {
		fmt.Println()
		pw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
		_, _ = fmt.Fprintln(pw, "KEY\tROW\tLINK\tAPPROVER\tUPDATED")
		for key, pos := range p.InProgress {
			_, _ = fmt.Fprintf(pw, "%s\t%d\t%d\t%d\t%s\n",
				key, pos.ExcelRow, pos.LinkIndex, pos.ApproverIndex, pos.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		_ = pw.Flush()
	}
}
