package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc-go/internal/logging"
)

// NewHistoryCmd constructs the `askdoc history` command, which prints the
// most recent processed queries from the local history database.
func NewHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent queries and their answers",
		Long: `Show the most recent queries processed by askdoc, newest first.

History is recorded in a local SQLite database (~/.askdoc/history.db by
default, override with ASKDOC_HISTORY_DB).

Examples:
  askdoc history
  askdoc history -n 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()

			hist, closeHistory := openHistory(log)
			defer closeHistory()
			if hist == nil {
				return fmt.Errorf("history: store unavailable")
			}

			recs, err := hist.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no queries recorded yet")
				return nil
			}

			for _, r := range recs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s]\nQ: %s\nA: %s\n\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.Category, r.Query, r.Answer)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show")

	return cmd
}
