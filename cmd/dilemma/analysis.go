package main

import (
	"fmt"
	"io"

	"github.com/cpunion/dilemma-lab/pkg/analytics"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
)

// maxTransitions bounds the transition table printed to the terminal.
const maxTransitions = 10

func printRunSummary(w io.Writer, s simulation.Summary) {
	fmt.Fprintf(w, "Status: %s\n", s.Status)
	fmt.Fprintf(w, "Rounds: %d/%d\n", s.RoundsPlayed, s.RoundsPlanned)
	fmt.Fprintf(w, "Scores: %s %d, %s %d\n", s.Left, s.Scores.Left, s.Right, s.Scores.Right)
	if s.Winner != "" {
		fmt.Fprintf(w, "Winner: %s\n", s.Winner)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", s.Error)
	}
	if ep := s.Epilogue; ep != nil {
		fmt.Fprintln(w, "\nLeft narrative:")
		fmt.Fprintln(w, orError(ep.Left.Narrative, ep.Left.NarrativeError))
		fmt.Fprintln(w, "\nLeft meta-reflection:")
		fmt.Fprintln(w, orError(ep.Left.MetaReflection, ep.Left.MetaReflectionError))
		fmt.Fprintln(w, "\nRight narrative:")
		fmt.Fprintln(w, orError(ep.Right.Narrative, ep.Right.NarrativeError))
		fmt.Fprintln(w, "\nRight meta-reflection:")
		fmt.Fprintln(w, orError(ep.Right.MetaReflection, ep.Right.MetaReflectionError))
	}
}

func orError(text, errText string) string {
	if errText != "" {
		return "  (failed: " + errText + ")"
	}
	return text
}

func printReport(w io.Writer, r analytics.Report) {
	fmt.Fprintln(w, "\n=== Analytics ===")
	fmt.Fprintf(w, "Rounds analysed: %d\n", r.Rounds)

	fmt.Fprintln(w, "\nDominant emotion transitions:")
	if len(r.Transitions) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, t := range r.Transitions {
		if i == maxTransitions {
			fmt.Fprintf(w, "  ... %d more\n", len(r.Transitions)-maxTransitions)
			break
		}
		fmt.Fprintf(w, "  %s: %d (%.1f%%)\n", t.Label, t.Count, 100*t.Probability)
	}

	fmt.Fprintln(w, "\nCorrelation with cooperation rate:")
	for _, c := range r.Correlations {
		fmt.Fprintf(w, "  %s: r=%.3f p≈%.3f (n=%d)\n", c.Metric, c.R, c.Significance, c.Samples)
	}

	p := r.Prediction
	fmt.Fprintln(w, "\nPrediction for this pairing:")
	fmt.Fprintf(w, "  cooperation rate: %.1f%%\n", 100*p.CooperationRate)
	fmt.Fprintf(w, "  trust: %.2f\n", p.Trust)
	fmt.Fprintf(w, "  emotional stability: %.2f\n", p.EmotionalStability)
	fmt.Fprintf(w, "  confidence: %.0f%% (%d rounds)\n", 100*p.Confidence, p.Samples)
}
