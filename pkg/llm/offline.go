package llm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/cpunion/dilemma-lab/pkg/protocol"
	"github.com/cpunion/dilemma-lab/pkg/types"
)

// OfflineProvider answers every request locally with randomly generated but
// well-formed replies. Moves are random, so a run behaves like the classic
// random-move mode without needing network access.
type OfflineProvider struct {
	mu        sync.Mutex
	rng       *rand.Rand
	cooperate float64
}

// OfflineConfig controls the offline generator.
type OfflineConfig struct {
	Seed uint64
	// CooperateProbability is the chance of answering DECISION: C.
	// Zero means 0.5.
	CooperateProbability float64
}

// NewOfflineProvider creates a seeded offline generator.
func NewOfflineProvider(cfg OfflineConfig) *OfflineProvider {
	p := cfg.CooperateProbability
	if p <= 0 {
		p = 0.5
	}
	return &OfflineProvider{
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		cooperate: p,
	}
}

var offlineBiases = []string{
	"anchoring", "confirmation bias", "loss aversion", "optimism bias", "negativity bias",
}

// Generate returns a reply shaped for req.Kind.
func (p *OfflineProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	switch req.Kind {
	case protocol.KindDecision:
		move := types.Defect
		if p.rng.Float64() < p.cooperate {
			move = types.Cooperate
		}
		line(&b, protocol.KeyDecision, string(move))
		line(&b, protocol.KeyReasoning, "I weighed the history and chose to "+move.Verb()+".")
		line(&b, protocol.KeyReflection, "Another round, another test of nerve.")
		p.writeEmotions(&b)
		line(&b, protocol.KeyBiases, offlineBiases[p.rng.IntN(len(offlineBiases))])
		line(&b, protocol.KeyMemoryNarrative, "The game so far feels like a slow negotiation.")
		line(&b, protocol.KeyMoodInfluence, "Steady.")
		line(&b, protocol.KeyPastEventInfluence, "The previous round.")
		emotion := 20 + p.rng.IntN(61)
		line(&b, protocol.KeyEmotionWeight, fmt.Sprint(emotion))
		line(&b, protocol.KeyLogicWeight, fmt.Sprint(100-emotion))
		line(&b, protocol.KeyCulturalInfluence, "Reciprocity is expected.")
		line(&b, protocol.KeySocialLearningInsight, "They tend to repeat what worked.")
		line(&b, protocol.KeyPersonalityEvolution, "Holding steady.")
		line(&b, protocol.KeyMoralReflection, "I can live with this choice.")
	case protocol.KindStateUpdate:
		p.writeEmotions(&b)
		line(&b, protocol.KeyMemoryNarrative, "The pattern is becoming clearer.")
		line(&b, protocol.KeyMoodShift, "Slightly changed by the outcome.")
		line(&b, protocol.KeyPersonalityFluctuation, "None to speak of.")
		if p.rng.IntN(3) == 0 {
			line(&b, protocol.KeySocialLearningUpdate, "Mirror the other player's last move")
		}
	case protocol.KindNarrative:
		b.WriteString("Round after round we circled each other, learning what the other would risk.")
	case protocol.KindMetaReflection:
		b.WriteString("Looking back, the early rounds set the tone for everything after.")
	default:
		return "", fmt.Errorf("offline: unknown response kind %q", req.Kind)
	}
	return b.String(), nil
}

func (p *OfflineProvider) writeEmotions(b *strings.Builder) {
	for _, e := range types.EmotionOrder {
		v := p.rng.IntN(11)
		if e == types.Trust {
			v = p.rng.IntN(21) - 10
		}
		line(b, protocol.EmotionKey(e), fmt.Sprint(v))
	}
}

func line(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

// Model returns "offline".
func (p *OfflineProvider) Model() string {
	return "offline"
}
