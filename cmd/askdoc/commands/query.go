package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc-go/internal/logging"
	"github.com/askdoc/askdoc-go/internal/store"
)

// NewQueryCmd constructs the `askdoc query` command, which indexes a source
// document and answers a single question about it.
func NewQueryCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Index a document and answer a question about it",
		Long: `Index a source document into the vector store and answer a question
about it in one shot.

The document is read from --file, or from stdin when --file is omitted.

Examples:
  askdoc query --file notes.txt "When is the midterm exam?"
  cat handbook.md | askdoc query "What is the refund policy?"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			var source []byte
			var err error
			if file != "" {
				source, err = os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("query: read source: %w", err)
				}
			} else {
				source, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("query: read stdin: %w", err)
				}
			}

			p, _, closePipeline, err := buildPipeline(ctx, log)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			defer closePipeline()

			hist, closeHistory := openHistory(log)
			defer closeHistory()

			res, err := p.ProcessQuery(ctx, string(source), args[0])
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			if hist != nil {
				rec := store.Record{Query: args[0], Category: res.Category, Answer: res.Answer}
				if err := hist.Append(ctx, rec); err != nil {
					log.Warn("history append failed", slog.Any("error", err))
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n%s\n", res.Category, res.Answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the source document (default: stdin)")

	return cmd
}
