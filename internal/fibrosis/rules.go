package fibrosis

// Tier is one of the three ordered severity classifications.
type Tier string

const (
	TierNoSignificantFibrosis Tier = "No Significant Fibrosis"
	TierModerateFibrosis      Tier = "Possible Moderate Fibrosis"
	TierAdvancedFibrosis      Tier = "Advanced Fibrosis / Possible Cirrhosis"
)

// Severity is the tag rendered alongside a tier.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Score thresholds. Lower bounds are inclusive, upper bounds exclusive.
const (
	FIB4LowCutoff  = 1.3
	FIB4HighCutoff = 2.67
	APRILowCutoff  = 0.5
	APRIHighCutoff = 1.0
)

// Outcome is what a matching rule contributes to a Result.
type Outcome struct {
	Tier     Tier     `json:"tier"`
	Severity Severity `json:"severity"`
	Color    string   `json:"color"`
	Advice   string   `json:"advice"`
}

// Rule pairs a predicate over the unrounded scores with its outcome.
type Rule struct {
	ID      string
	Match   func(fib4, apri float64) bool
	Outcome Outcome
}

// Rules are evaluated top to bottom; the first match wins and the last rule
// always matches. Rule 1 needs both scores low, rule 2 needs either score in
// its moderate band.
var Rules = []Rule{
	{
		ID: "both-low",
		Match: func(fib4, apri float64) bool {
			return fib4 < FIB4LowCutoff && apri < APRILowCutoff
		},
		Outcome: Outcome{
			Tier:     TierNoSignificantFibrosis,
			Severity: SeverityLow,
			Color:    "green",
			Advice:   "Encourage healthy diet, exercise, avoid alcohol, recheck liver profile in 6 months.",
		},
	},
	{
		ID: "either-moderate",
		Match: func(fib4, apri float64) bool {
			return (fib4 >= FIB4LowCutoff && fib4 < FIB4HighCutoff) ||
				(apri >= APRILowCutoff && apri < APRIHighCutoff)
		},
		Outcome: Outcome{
			Tier:     TierModerateFibrosis,
			Severity: SeverityModerate,
			Color:    "yellow",
			Advice:   "Schedule teleconsultation with district hepatologist and monitor lifestyle closely.",
		},
	},
	{
		ID:    "advanced",
		Match: func(float64, float64) bool { return true },
		Outcome: Outcome{
			Tier:     TierAdvancedFibrosis,
			Severity: SeverityHigh,
			Color:    "red",
			Advice:   "Refer urgently to tertiary care for liver specialist evaluation.",
		},
	},
}

// Classify returns the outcome of the first rule matching the scores.
func Classify(fib4, apri float64) Outcome {
	return classify(Rules, fib4, apri)
}

func classify(rules []Rule, fib4, apri float64) Outcome {
	for _, rule := range rules {
		if rule.Match(fib4, apri) {
			return rule.Outcome
		}
	}
	return rules[len(rules)-1].Outcome
}
