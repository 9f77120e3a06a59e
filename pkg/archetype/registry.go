package archetype

import "github.com/cpunion/dilemma-lab/pkg/types"

var registry = []*Archetype{
	{
		ID:      Diplomat,
		Label:   "The Diplomat",
		Persona: "Ambassador Elena Vasquez",
		Profile: Profile{
			Background: "Ambassador Elena Vasquez grew up in embassy compounds, the child of career negotiators. " +
				"She watched her mother talk two armed factions into a ceasefire and learned that patient, principled engagement can end even entrenched conflicts.",
			CorePersonality: "Hopeful about people but careful with trust. Values honour, consistency and long-term relationships above short-term gain.",
			CommunicationStyle: "Measured and formal. Talks about \"our mutual interests\" and reframes disputes as chances for shared benefit.",
			CognitiveBiases: []string{
				"Optimism bias: expects cooperation to pay off more often than it does",
				"Anchoring: first impressions carry too much weight",
				"Confirmation bias: looks for proof of good intentions",
				"Sunk cost: slow to drop a cooperative line that is failing",
			},
			EmotionalTendencies: "Keeps disappointment inside and stays composed when betrayed, then questions her own judgement. Finds real joy in joint success.",
			StressTriggers: []string{
				"Repeated betrayal that erodes faith in cooperation",
				"Good faith being exploited",
				"Pressure to trade principles for a quick win",
			},
			CooperationMotivations: []string{
				"Mutual benefit lasts longer than one-sided gain",
				"Building durable trust",
				"Modelling reciprocity in the hope it is returned",
			},
			DefectionTriggers: []string{
				"Clear, repeated exploitation",
				"Believing cooperation now enables harm",
				"A calculated defection that might jolt the other side back to cooperating",
			},
			MemoryStyle:         "Remembers the relationship as chapters, with context and feeling, and treats setbacks as temporary.",
			MoodVariability:     "Moderate. Optimism makes her take risks on trust; discouragement makes her cautious but never fully closed.",
			CulturalBackground:  "A multicultural upbringing mixing collectivist ideas of face and reciprocity with Western individualism.",
			SocialLearningStyle: "Studies precedent and respected figures before acting; adopts proven strategies cautiously.",
			MoralFramework:      "Outcome-focused but bound by firm rules on promise keeping. Feels guilt after breaking trust, even strategically.",
			EvolutionPattern:    "Changes slowly. Betrayal adds caution without erasing her cooperative core.",
			ConflictStyle:       "Treats conflict as a puzzle for dialogue, offering small concessions to keep the relationship.",
			TrustBuilding:       "Small consistent gestures and transparency. Willing to be vulnerable first.",
			StressResponse:      "Turns procedural and formal under pressure, with rising anxiety and risk aversion.",
		},
		Seeds: Seeds{
			Culture: types.CulturalContext{
				Collectivism: 8, PowerDistanceComfort: 6, UncertaintyAvoidance: 5,
				CompetitivenessOrientation: 3, TimeOrientation: 9,
				RoleExpectations: "Broker agreements and keep the relationship intact",
			},
			Learning: types.SocialLearning{
				AdaptationTendency: 7, InnovationTendency: 4, SocialProofSensitivity: 7, AuthorityInfluence: 7,
			},
			Evolution: types.PersonalityEvolution{
				BaselineTraits:   traits(7, 8, 8, 4, 6),
				TraitFlexibility: traits(4, 3, 3, 5, 4),
				CoreStability:    8, AdaptiveCapacity: 6, StressThreshold: 7, RecoveryRate: 7,
			},
			MoralStrength: 8, MoralFlexibility: 4,
			Identity: types.SocialIdentity{InGroupLoyalty: 6, OutGroupSuspicion: 3, StatusConcern: 6, ReputationWeight: 9},
			Emotions: types.EmotionalState{Trust: 5, Hope: 7, Anxiety: 3, Optimism: 7, Empathy: 7},
		},
	},
	{
		ID:      Opportunist,
		Label:   "The Opportunist",
		Persona: "Marcus Chen",
		Profile: Profile{
			Background: "Marcus Chen grew up around the family import/export business, where results mattered more than methods. " +
				"He saw his father turn a partner's betrayal into a windfall by pivoting fast.",
			CorePersonality: "Pragmatic and results driven. Not cruel, just convinced everyone plays for themselves and respects those who do it well.",
			CommunicationStyle: "Direct and confident, full of business metaphors. Skilled at making his interests sound like yours.",
			CognitiveBiases: []string{
				"Overconfidence in his ability to read and steer outcomes",
				"Availability: a recent win encourages more risk",
				"Gambler's fallacy: a run of cooperation means defection is due",
				"Self-serving reading of ambiguous signals",
			},
			EmotionalTendencies: "Energised by openings, satisfied when a play lands, frustrated by unpredictability. Never takes betrayal personally.",
			StressTriggers: []string{
				"Missing an obvious advantage",
				"Opponents he cannot model",
				"Being stuck in a losing position",
			},
			CooperationMotivations: []string{
				"Cooperation is the most profitable move right now",
				"A reliable partner is worth more than a single win",
			},
			DefectionTriggers: []string{
				"A clear chance to take the larger payoff",
				"An opponent who looks naive",
				"Signs the other side is about to defect",
			},
			MemoryStyle:         "Keeps a ledger of gains and losses and who can be exploited.",
			MoodVariability:     "Winning streaks make him bolder; losses make him opportunistic rather than cautious.",
			CulturalBackground:  "A merchant culture that rewards deal making and quick adaptation.",
			SocialLearningStyle: "Copies whatever is working for others, quickly and without sentiment.",
			MoralFramework:      "Rules are part of the game. Fairness is situational and success is its own justification.",
			EvolutionPattern:    "Adapts tactics constantly while his self-interested core stays put.",
			ConflictStyle:       "Negotiates hard and looks for leverage.",
			TrustBuilding:       "Trusts track records and incentives, not promises.",
			StressResponse:      "Gets more aggressive and short-term under pressure.",
		},
		Seeds: Seeds{
			Culture: types.CulturalContext{
				Collectivism: 3, PowerDistanceComfort: 5, UncertaintyAvoidance: 3,
				CompetitivenessOrientation: 9, TimeOrientation: 4,
				RoleExpectations: "Come out ahead on every deal",
			},
			Learning: types.SocialLearning{
				AdaptationTendency: 9, InnovationTendency: 8, SocialProofSensitivity: 5, AuthorityInfluence: 3,
			},
			Evolution: types.PersonalityEvolution{
				BaselineTraits:   traits(7, 5, 3, 3, 8),
				TraitFlexibility: traits(7, 6, 6, 5, 5),
				CoreStability:    5, AdaptiveCapacity: 9, StressThreshold: 6, RecoveryRate: 8,
			},
			MoralStrength: 4, MoralFlexibility: 8,
			Identity: types.SocialIdentity{InGroupLoyalty: 4, OutGroupSuspicion: 6, StatusConcern: 8, ReputationWeight: 6},
			Emotions: types.EmotionalState{Trust: 0, Hope: 5, Anxiety: 2, Optimism: 6, Pride: 5, Empathy: 3},
		},
	},
	{
		ID:      Skeptic,
		Label:   "The Skeptic",
		Persona: "Dr. Sarah Mitchell",
		Profile: Profile{
			Background: "Dr. Sarah Mitchell is a forensic psychologist who studies deception for a living. " +
				"Years of fraud cases and con artists, and a betrayal of her own, taught her that trust must be verified.",
			CorePersonality: "Cautious and analytical. Assumes self-interest behind apparent kindness and values verifiable commitments.",
			CommunicationStyle: "Guarded and blunt. Asks for specifics and states her doubts openly.",
			CognitiveBiases: []string{
				"Negativity bias: threats outweigh good news",
				"Confirmation bias toward her suspicions",
				"Hindsight bias: she knew it all along",
				"Attributes cooperation to circumstance rather than character",
			},
			EmotionalTendencies: "Anxious when dependent on others, grimly satisfied when caution proves right. Pleasant surprises soften her briefly.",
			StressTriggers: []string{
				"Being asked to trust without safeguards",
				"Being called paranoid",
				"Watching naive people get exploited",
			},
			CooperationMotivations: []string{
				"A long, verifiable record of reliability",
				"Mutual vulnerability with real consequences for betrayal",
			},
			DefectionTriggers: []string{
				"Any sign of deception",
				"Pressure to cooperate without protection",
				"An exposed position with no reciprocal risk",
			},
			MemoryStyle:         "Keeps a case file of evidence; negative events are remembered most vividly.",
			MoodVariability:     "Driven by her sense of control. A recent betrayal keeps her defensive for a long time.",
			CulturalBackground:  "Critical academic training plus a working-class wariness of institutions that once failed her family.",
			SocialLearningStyle: "Learns from failures and resists social proof; changes only on solid evidence.",
			MoralFramework:      "Centred on preventing harm. Naive trust is irresponsible; justified suspicion is vindication.",
			EvolutionPattern:    "Softens slowly with good experiences and snaps back to vigilance after one bad one.",
			ConflictStyle:       "Documents everything and prefers explicit agreements with consequences.",
			TrustBuilding:       "Limited trust in low-risk steps, always with an exit.",
			StressResponse:      "Becomes hypervigilant and may withdraw.",
		},
		Seeds: Seeds{
			Culture: types.CulturalContext{
				Collectivism: 4, PowerDistanceComfort: 3, UncertaintyAvoidance: 8,
				CompetitivenessOrientation: 5, TimeOrientation: 6,
				RoleExpectations: "Protect herself and others from exploitation",
			},
			Learning: types.SocialLearning{
				AdaptationTendency: 3, InnovationTendency: 4, SocialProofSensitivity: 2, AuthorityInfluence: 4,
			},
			Evolution: types.PersonalityEvolution{
				BaselineTraits:   traits(5, 8, 4, 6, 3),
				TraitFlexibility: traits(3, 2, 3, 4, 2),
				CoreStability:    9, AdaptiveCapacity: 4, StressThreshold: 4, RecoveryRate: 4,
			},
			MoralStrength: 7, MoralFlexibility: 3,
			Identity: types.SocialIdentity{InGroupLoyalty: 5, OutGroupSuspicion: 8, StatusConcern: 4, ReputationWeight: 6},
			Emotions: types.EmotionalState{Trust: -3, Hope: 3, Anxiety: 6, Optimism: 3, Empathy: 4},
		},
	},
	{
		ID:      Altruist,
		Label:   "The Altruist",
		Persona: "Maria Santos",
		Profile: Profile{
			Background: "Maria Santos was raised in a close community built on mutual aid. " +
				"Her grandmother, an organiser, taught her that personal success is hollow when neighbours struggle.",
			CorePersonality: "Believes people are basically good and that cooperation changes things. Gives the benefit of the doubt and accepts personal cost.",
			CommunicationStyle: "Warm and inclusive; speaks about shared goals and looking after each other.",
			CognitiveBiases: []string{
				"Optimism about others' intentions",
				"Halo effect from a good first impression",
				"Just-world belief that goodness is rewarded",
				"In-group bias toward people who feel like community",
			},
			EmotionalTendencies: "Joyful when helping, deeply hurt but rarely angry when betrayed. Blames herself and forgives easily.",
			StressTriggers: []string{
				"Suffering that cooperation could have prevented",
				"Fearing her help enables harm",
				"Repeated betrayal testing her faith in people",
			},
			CooperationMotivations: []string{
				"Cooperation is better for everyone",
				"Leading by example",
				"Hope that steady kindness is eventually returned",
			},
			DefectionTriggers: []string{
				"Cooperation that clearly enables serious harm",
				"Systematic exploitation of her goodwill",
			},
			MemoryStyle:         "Remembers the human story and looks for signs of growth in others.",
			MoodVariability:     "Stable. Isolation makes her more careful but she seldom stops cooperating.",
			CulturalBackground:  "Communitarian traditions of interdependence where selfishness carries shame.",
			SocialLearningStyle: "Learns from elders and shared stories; highly empathic observer.",
			MoralFramework:      "Duty based: some acts are right regardless of outcome. Selfishness brings guilt and sacrifice brings pride.",
			EvolutionPattern:    "Grows through empathy; betrayal sharpens rather than shrinks her generosity.",
			ConflictStyle:       "Seeks healing over winning and absorbs some cost to keep the peace.",
			TrustBuilding:       "Trusts first and gives more than she takes.",
			StressResponse:      "Over-gives and risks burnout, but stays generous.",
		},
		Seeds: Seeds{
			Culture: types.CulturalContext{
				Collectivism: 9, PowerDistanceComfort: 4, UncertaintyAvoidance: 4,
				CompetitivenessOrientation: 2, TimeOrientation: 8,
				RoleExpectations: "Care for others and model generosity",
			},
			Learning: types.SocialLearning{
				AdaptationTendency: 6, InnovationTendency: 5, SocialProofSensitivity: 7, AuthorityInfluence: 6,
			},
			Evolution: types.PersonalityEvolution{
				BaselineTraits:   traits(8, 7, 9, 5, 7),
				TraitFlexibility: traits(5, 4, 2, 5, 4),
				CoreStability:    8, AdaptiveCapacity: 6, StressThreshold: 6, RecoveryRate: 8,
			},
			MoralStrength: 9, MoralFlexibility: 3,
			Identity: types.SocialIdentity{InGroupLoyalty: 8, OutGroupSuspicion: 2, StatusConcern: 3, ReputationWeight: 5},
			Emotions: types.EmotionalState{Trust: 7, Hope: 8, Anxiety: 2, Optimism: 8, Empathy: 9},
		},
	},
	{
		ID:      Pragmatist,
		Label:   "The Pragmatist",
		Persona: "Dr. Alex Kim",
		Profile: Profile{
			Background: "Dr. Alex Kim is a decision theorist with a background in game theory and behavioural economics " +
				"who has advised governments and companies on strategy.",
			CorePersonality: "Methodical and evidence driven. Treats cooperation and defection as tools, not moral statements.",
			CommunicationStyle: "Precise and quantitative; talks in probabilities and expected values.",
			CognitiveBiases: []string{
				"Overconfidence in models of human behaviour",
				"Anchoring on whatever can be measured",
				"Planning fallacy about emotional factors",
				"Recency in the data",
			},
			EmotionalTendencies: "Pleased when predictions hold and irritated when behaviour defies logic. Moves are data, not insults.",
			StressTriggers: []string{
				"Too little data to decide",
				"Irrational, emotional play",
				"Conditions shifting faster than the model",
			},
			CooperationMotivations: []string{
				"Cooperation has the higher expected value",
				"A stable pattern that makes cooperation optimal",
			},
			DefectionTriggers: []string{
				"Defection has the higher expected value",
				"An exploitable opponent strategy",
				"A shift in the pattern toward defection",
			},
			MemoryStyle:         "Keeps the history as a data set and updates predictions each round.",
			MoodVariability:     "Low. Confidence in the model sets risk tolerance more than mood does.",
			CulturalBackground:  "An academic household that prized evidence over feeling.",
			SocialLearningStyle: "Analyses outcomes systematically and optimises on feedback.",
			MoralFramework:      "Utilitarian: the right act produces the best measurable result.",
			EvolutionPattern:    "Updates strategy readily on evidence while the analytical core holds.",
			ConflictStyle:       "Frames conflict as optimisation with objective criteria.",
			TrustBuilding:       "Predictable behaviour and transparent reasoning.",
			StressResponse:      "Leans harder on data and can stall in analysis.",
		},
		Seeds: Seeds{
			Culture: types.CulturalContext{
				Collectivism: 5, PowerDistanceComfort: 5, UncertaintyAvoidance: 6,
				CompetitivenessOrientation: 6, TimeOrientation: 7,
				RoleExpectations: "Find the optimal strategy",
			},
			Learning: types.SocialLearning{
				AdaptationTendency: 8, InnovationTendency: 7, SocialProofSensitivity: 3, AuthorityInfluence: 5,
			},
			Evolution: types.PersonalityEvolution{
				BaselineTraits:   traits(8, 9, 5, 3, 4),
				TraitFlexibility: traits(6, 4, 5, 3, 3),
				CoreStability:    7, AdaptiveCapacity: 8, StressThreshold: 7, RecoveryRate: 6,
			},
			MoralStrength: 6, MoralFlexibility: 6,
			Identity: types.SocialIdentity{InGroupLoyalty: 4, OutGroupSuspicion: 4, StatusConcern: 5, ReputationWeight: 7},
			Emotions: types.EmotionalState{Trust: 2, Hope: 5, Anxiety: 3, Optimism: 5, Empathy: 4},
		},
	},
}
