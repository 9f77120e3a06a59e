package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cpunion/dilemma-lab/pkg/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

type globalFlags struct {
	logLevel string
	logJSON  bool
	config   string
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "dilemma",
		Short: "Repeated prisoner's dilemma between two LLM-driven personalities",
		Long: `dilemma plays a repeated cooperate/defect game between two agents whose
moves come from a language model prompted with an evolving psychological
profile, then derives analytics from the round history.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			logger, err := logging.New(g.logLevel, g.logJSON)
			if err != nil {
				return err
			}
			g.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.logger != nil {
				_ = g.logger.Sync()
			}
		},
	}
	root.Version = version
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "Emit JSON logs")
	root.PersistentFlags().StringVarP(&g.config, "config", "c", "", "YAML run configuration")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newArchetypesCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
