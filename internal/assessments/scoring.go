package assessments

// WeightedResponse pairs a selected answer value with its question weight.
type WeightedResponse struct {
	SelectedValue float64
	Weight        float64
}

// Strategy turns weighted responses into a score and a score into a
// severity band. Implementations are pure and order-independent.
type Strategy interface {
	Name() string
	Score(responses []WeightedResponse) (float64, error)
	Severity(score float64, rules ScoringRules) SeverityLevel
}

// LinearSum scores Σ(value × weight). This is the default strategy and
// matches instruments like PHQ-9 and GAD-7 where weights are all 1.
type LinearSum struct{}

func (LinearSum) Name() string { return "linear" }

func (LinearSum) Score(responses []WeightedResponse) (float64, error) {
	var sum float64
	for _, r := range responses {
		sum += r.SelectedValue * r.Weight
	}
	return sum, nil
}

func (LinearSum) Severity(score float64, rules ScoringRules) SeverityLevel {
	return classify(score, rules)
}

// WeightedAverage scores Σ(value × weight) / Σ(weight).
type WeightedAverage struct{}

func (WeightedAverage) Name() string { return "weighted-average" }

func (WeightedAverage) Score(responses []WeightedResponse) (float64, error) {
	var weightedSum, totalWeight float64
	for _, r := range responses {
		weightedSum += r.SelectedValue * r.Weight
		totalWeight += r.Weight
	}
	if totalWeight == 0 {
		return 0, ErrZeroTotalWeight
	}
	return weightedSum / totalWeight, nil
}

func (WeightedAverage) Severity(score float64, rules ScoringRules) SeverityLevel {
	return classify(score, rules)
}

// classify scans ranges in listed order and returns the band of the first
// range containing the score, bounds inclusive. No match falls back to the
// lowest band.
func classify(score float64, rules ScoringRules) SeverityLevel {
	for _, r := range rules.Ranges {
		if score >= r.Min && score <= r.Max {
			return r.Level
		}
	}
	return SeverityMinimal
}

// StrategyFromName resolves a configured strategy name; unknown names fall
// back to linear sum.
func StrategyFromName(name string) Strategy {
	if name == "weighted-average" {
		return WeightedAverage{}
	}
	return LinearSum{}
}
