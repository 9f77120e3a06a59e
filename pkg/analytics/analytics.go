// Package analytics derives statistics from a finished run's round records.
package analytics

import (
	"math"
	"sort"

	"github.com/cpunion/dilemma-lab/pkg/types"
)

// Metric names a per-round, per-agent measurement.
type Metric string

const (
	MetricCooperationRate    Metric = "cooperation_rate"
	MetricTrust              Metric = "trust"
	MetricEmotionalStability Metric = "emotional_stability"
)

// Metrics is the fixed set correlated against cooperation rate.
var Metrics = []Metric{MetricCooperationRate, MetricTrust, MetricEmotionalStability}

// Sample is one agent's measurements after one round.
type Sample struct {
	Round              int        `json:"round"`
	Side               types.Side `json:"side"`
	CooperationRate    float64    `json:"cooperation_rate"`
	Trust              float64    `json:"trust"`
	EmotionalStability float64    `json:"emotional_stability"`
}

// Value returns the measurement named by m.
func (s Sample) Value(m Metric) float64 {
	switch m {
	case MetricTrust:
		return s.Trust
	case MetricEmotionalStability:
		return s.EmotionalStability
	default:
		return s.CooperationRate
	}
}

// Stability is max(0, 1 - |trust - anxiety| / 10).
func Stability(trust, anxiety int) float64 {
	return math.Max(0, 1-math.Abs(float64(trust-anxiety))/10)
}

// Samples flattens records into left then right samples per round.
func Samples(records []types.RoundRecord) []Sample {
	out := make([]Sample, 0, 2*len(records))
	for _, r := range records {
		for _, side := range types.Sides {
			a := r.Agent(side)
			out = append(out, Sample{
				Round:              r.Round,
				Side:               side,
				CooperationRate:    a.State.CooperationRate(),
				Trust:              float64(a.Trust),
				EmotionalStability: Stability(a.Trust, a.Anxiety),
			})
		}
	}
	return out
}

// DominantEmotion returns the emotion with the largest absolute value.
// Ties go to the earliest in types.EmotionOrder.
func DominantEmotion(es types.EmotionalState) types.Emotion {
	dominant, best := types.Trust, -1
	for _, e := range types.EmotionOrder {
		v := es.Get(e)
		if v < 0 {
			v = -v
		}
		if v > best {
			dominant, best = e, v
		}
	}
	return dominant
}

// Transition counts one from→to change of dominant emotion.
type Transition struct {
	From        types.Emotion `json:"from"`
	To          types.Emotion `json:"to"`
	Label       string        `json:"label"`
	Count       int           `json:"count"`
	Probability float64       `json:"probability"`
}

// Transitions tabulates dominant-emotion changes between successive rounds
// for both agents combined, most frequent first.
func Transitions(records []types.RoundRecord) []Transition {
	counts := map[[2]types.Emotion]int{}
	total := 0
	for _, side := range types.Sides {
		prev := types.Trust
		for i, r := range records {
			cur := DominantEmotion(r.Agent(side).State.EmotionalState)
			if i > 0 {
				counts[[2]types.Emotion{prev, cur}]++
				total++
			}
			prev = cur
		}
	}

	out := make([]Transition, 0, len(counts))
	for k, n := range counts {
		out = append(out, Transition{
			From:        k[0],
			To:          k[1],
			Label:       string(k[0]) + "→" + string(k[1]),
			Count:       n,
			Probability: float64(n) / float64(total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Correlation is one metric's Pearson r against cooperation rate.
type Correlation struct {
	Metric       Metric  `json:"metric"`
	R            float64 `json:"r"`
	Significance float64 `json:"significance"`
	Samples      int     `json:"samples"`
}

// Pearson returns the correlation coefficient of xs and ys. ok is false
// when there are fewer than three pairs or either side has no variance.
func Pearson(xs, ys []float64) (r float64, ok bool) {
	n := min(len(xs), len(ys))
	if n < 3 {
		return 0, false
	}
	var mx, my float64
	for i := 0; i < n; i++ {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	r = sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r)), true
}

// Significance approximates the two-sided p-value of r over n samples as
// clamp(2·exp(-0.717t - 0.416t²), 0.001, 1) with t = |r|·sqrt((n-2)/(1-r²)).
// It is a coarse closed form, not the Student-t distribution.
func Significance(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	den := 1 - r*r
	if den <= 0 {
		return 0.001
	}
	t := math.Abs(r) * math.Sqrt(float64(n-2)/den)
	p := 2 * math.Exp(-0.717*t-0.416*t*t)
	return math.Max(0.001, math.Min(1, p))
}

// Correlations correlates every metric in Metrics with cooperation rate.
func Correlations(samples []Sample) []Correlation {
	coop := make([]float64, len(samples))
	for i, s := range samples {
		coop[i] = s.CooperationRate
	}
	out := make([]Correlation, 0, len(Metrics))
	for _, m := range Metrics {
		xs := make([]float64, len(samples))
		for i, s := range samples {
			xs[i] = s.Value(m)
		}
		c := Correlation{Metric: m, Significance: 1, Samples: len(samples)}
		if r, ok := Pearson(xs, coop); ok {
			c.R = r
			c.Significance = Significance(r, len(samples))
		}
		out = append(out, c)
	}
	return out
}

// Prediction is the averaged outlook for the current pairing.
type Prediction struct {
	CooperationRate    float64 `json:"cooperation_rate"`
	Trust              float64 `json:"trust"`
	EmotionalStability float64 `json:"emotional_stability"`
	Samples            int     `json:"samples"`
	Confidence         float64 `json:"confidence"`
}

// Predict averages each agent's own history, then averages the two agents.
// Confidence is min(0.95, 0.5 + 0.4·samples/expectedRounds), where samples
// is the number of rounds; expectedRounds <= 0 means the rounds seen.
func Predict(records []types.RoundRecord, expectedRounds int) Prediction {
	p := Prediction{Samples: len(records)}
	if expectedRounds <= 0 {
		expectedRounds = max(1, len(records))
	}
	p.Confidence = math.Min(0.95, 0.5+0.4*float64(p.Samples)/float64(expectedRounds))
	if len(records) == 0 {
		return p
	}

	n := float64(len(records))
	for _, side := range types.Sides {
		var coop, trust, stability float64
		for _, r := range records {
			a := r.Agent(side)
			coop += a.State.CooperationRate()
			trust += float64(a.Trust)
			stability += Stability(a.Trust, a.Anxiety)
		}
		p.CooperationRate += coop / n / 2
		p.Trust += trust / n / 2
		p.EmotionalStability += stability / n / 2
	}
	return p
}

// Report bundles everything derived from one run.
type Report struct {
	Rounds       int           `json:"rounds"`
	Transitions  []Transition  `json:"transitions"`
	Correlations []Correlation `json:"correlations"`
	Prediction   Prediction    `json:"prediction"`
}

// Analyze computes a full Report. expectedRounds is the planned run length.
func Analyze(records []types.RoundRecord, expectedRounds int) Report {
	return Report{
		Rounds:       len(records),
		Transitions:  Transitions(records),
		Correlations: Correlations(Samples(records)),
		Prediction:   Predict(records, expectedRounds),
	}
}
