// Package commands defines all Cobra CLI commands for the askdoc binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc-go/internal/audit"
	"github.com/askdoc/askdoc-go/internal/config"
	"github.com/askdoc/askdoc-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "askdoc",
		Short: "askdoc — answer questions about your documents with RAG",
		Long: `askdoc indexes a source document into a vector store and answers
questions about it using retrieval-augmented generation.

Each query chunks and embeds the document, classifies the question into a
topic, retrieves the most similar chunks, and generates a grounded answer.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.askdoc/config.yaml).
See 'askdoc --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.askdoc/config.yaml)")

	root.AddCommand(
		NewQueryCmd(),
		NewServeCmd(),
		NewHistoryCmd(),
		NewVersionCmd(),
	)

	return root
}
