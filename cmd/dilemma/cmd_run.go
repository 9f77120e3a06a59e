package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cpunion/dilemma-lab/pkg/analytics"
	"github.com/cpunion/dilemma-lab/pkg/events"
	"github.com/cpunion/dilemma-lab/pkg/llm"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
	"github.com/cpunion/dilemma-lab/pkg/site"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

type runOptions struct {
	cfg        configFlags
	journal    string
	exportRoot string
	natsURL    string
	natsPrefix string
	quiet      bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one run in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, g, o)
		},
	}
	o.cfg.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&o.journal, "journal", "", "JSONL journal path (a summary is written next to it)")
	fs.StringVar(&o.exportRoot, "export", "", "Export the finished run as static JSON under this directory")
	fs.StringVar(&o.natsURL, "nats", "", "Publish round events to this NATS server")
	fs.StringVar(&o.natsPrefix, "nats-prefix", events.DefaultPrefix, "NATS subject prefix")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "Only print the final summary")
	return cmd
}

// progressPrinter prints one line per round.
type progressPrinter struct {
	w io.Writer
}

func (p progressPrinter) RoundCompleted(ev simulation.RoundEvent) {
	fmt.Fprintf(p.w, "Round %3d  left %s  right %s  score %d-%d  trust %d/%d\n",
		ev.Round,
		ev.Record.Left.Message.Move, ev.Record.Right.Message.Move,
		ev.Scores.Left, ev.Scores.Right,
		ev.Record.Left.Trust, ev.Record.Right.Trust)
}

func (p progressPrinter) RunFinished(simulation.Summary) {}

func runRun(cmd *cobra.Command, g *globalFlags, o *runOptions) error {
	cfg, err := o.cfg.load(cmd, g.config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("journal") {
		cfg.Journal = o.journal
	}
	logger := g.logger
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	provider, err := llm.New(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}

	var observers []simulation.Observer
	if !o.quiet {
		observers = append(observers, progressPrinter{w: out})
	}
	var journal *simulation.Journal
	if cfg.Journal != "" {
		journal, err = simulation.OpenJournal(cfg.Journal, logger)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()
		observers = append(observers, journal)
	}
	if o.natsURL != "" {
		pub, err := events.Connect(o.natsURL, o.natsPrefix, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		observers = append(observers, pub)
	}

	orch, err := simulation.New(cfg, simulation.Options{
		Generator: provider,
		Logger:    logger,
		Observers: observers,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "=== Prisoner's Dilemma ===")
	fmt.Fprintf(out, "Run: %s\n", orch.ID())
	fmt.Fprintf(out, "Left: %s  Right: %s\n", cfg.Left, cfg.Right)
	fmt.Fprintf(out, "Backend: %s (%s)\n", cfg.LLM.Backend, provider.Model())
	fmt.Fprintf(out, "Rounds: %d\n\n", cfg.Rounds)

	start := time.Now()
	summary, runErr := orch.Run(ctx)

	fmt.Fprintln(out, "\n=== Run Complete ===")
	fmt.Fprintf(out, "Duration: %v\n", time.Since(start).Round(time.Millisecond))
	printRunSummary(out, summary)

	if cfg.Journal != "" {
		path := simulation.SummaryPath(cfg.Journal)
		if err := simulation.SaveSummary(path, summary); err != nil {
			logger.Warn("failed to save summary", zap.Error(err))
		} else {
			fmt.Fprintln(out, "Summary saved to:", path)
		}
	}
	if o.exportRoot != "" {
		if err := export(o.exportRoot, summary, orch.Records()); err != nil {
			logger.Warn("export failed", zap.Error(err))
		} else {
			fmt.Fprintln(out, "Exported to:", filepath.Join(o.exportRoot, summary.RunID))
		}
	}

	if runErr != nil {
		return runErr
	}
	printReport(out, analytics.Analyze(orch.Records(), cfg.Rounds))
	return nil
}

func export(root string, summary simulation.Summary, records []types.RoundRecord) error {
	if _, err := site.Export(filepath.Join(root, summary.RunID), summary, records); err != nil {
		return err
	}
	_, err := site.WriteRunsIndex(root)
	return err
}
