package assessments

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var phq9Rules = ScoringRules{Ranges: []ScoreRange{
	{Min: 0, Max: 4, Level: SeverityMinimal},
	{Min: 5, Max: 9, Level: SeverityMild},
	{Min: 10, Max: 14, Level: SeverityModerate},
	{Min: 15, Max: 19, Level: SeverityModeratelySevere},
	{Min: 20, Max: 27, Level: SeveritySevere},
}}

func TestLinearSumScore(t *testing.T) {
	responses := []WeightedResponse{
		{SelectedValue: 3, Weight: 1},
		{SelectedValue: 2, Weight: 1},
		{SelectedValue: 1, Weight: 2},
	}
	score, err := LinearSum{}.Score(responses)
	require.NoError(t, err)
	require.Equal(t, 7.0, score)
}

func TestLinearSumIsOrderIndependent(t *testing.T) {
	responses := []WeightedResponse{
		{SelectedValue: 1, Weight: 1},
		{SelectedValue: 2, Weight: 3},
		{SelectedValue: 3, Weight: 0.5},
		{SelectedValue: 0, Weight: 2},
	}
	want, err := LinearSum{}.Score(responses)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]WeightedResponse(nil), responses...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := LinearSum{}.Score(shuffled)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestWeightedAverageScore(t *testing.T) {
	responses := []WeightedResponse{
		{SelectedValue: 4, Weight: 1},
		{SelectedValue: 2, Weight: 3},
	}
	score, err := WeightedAverage{}.Score(responses)
	require.NoError(t, err)
	require.Equal(t, 2.5, score)
}

func TestWeightedAverageZeroWeight(t *testing.T) {
	responses := []WeightedResponse{
		{SelectedValue: 4, Weight: 0},
		{SelectedValue: 2, Weight: 0},
	}
	_, err := WeightedAverage{}.Score(responses)
	require.ErrorIs(t, err, ErrZeroTotalWeight)
}

func TestClassifyBoundariesAreInclusive(t *testing.T) {
	cases := []struct {
		score float64
		want  SeverityLevel
	}{
		{0, SeverityMinimal},
		{4, SeverityMinimal},  // upper bound stays in its range
		{5, SeverityMild},     // lower bound of next range
		{9, SeverityMild},
		{10, SeverityModerate},
		{14, SeverityModerate},
		{15, SeverityModeratelySevere},
		{27, SeveritySevere},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, classify(tc.score, phq9Rules), "score %v", tc.score)
	}
}

func TestClassifyNoMatchDefaultsToMinimal(t *testing.T) {
	require.Equal(t, SeverityMinimal, classify(99, phq9Rules))
	require.Equal(t, SeverityMinimal, classify(-1, phq9Rules))
	require.Equal(t, SeverityMinimal, classify(3, ScoringRules{}))
}

func TestStrategySeverityMatchesClassify(t *testing.T) {
	require.Equal(t, SeverityModerate, LinearSum{}.Severity(12, phq9Rules))
	require.Equal(t, SeverityModerate, WeightedAverage{}.Severity(12, phq9Rules))
}

func TestStrategyFromName(t *testing.T) {
	require.Equal(t, "weighted-average", StrategyFromName("weighted-average").Name())
	require.Equal(t, "linear", StrategyFromName("linear").Name())
	require.Equal(t, "linear", StrategyFromName("something-else").Name())
}
