package eval_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/biokg/kgbench/internal/eval"
	"github.com/biokg/kgbench/internal/qa"
)

// scriptedCompleter returns one response per call, cycling dimensions
// in rating order: naturalness, appropriateness, evidence support.
type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", fmt.Errorf("unexpected call %d", idx)
}

func intPtr(v int) *int { return &v }

func TestEvaluateItemParsesAllDimensions(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"4", " 5 ", "3\n"}}
	evaluator := eval.NewEvaluator(completer, zap.NewNop(), nil)

	score := evaluator.EvaluateItem(context.Background(), qa.Item{
		ID:       "item-1",
		Question: "Which disease is associated with TP53?",
		Answer:   "breast cancer",
		Evidence: "TP53 mutations are frequent in breast cancer.",
	})

	assert.Equal(t, "item-1", score.ID)
	assert.Equal(t, intPtr(4), score.Naturalness)
	assert.Equal(t, intPtr(5), score.Appropriateness)
	assert.Equal(t, intPtr(3), score.EvidenceSupport)
}

func TestEvaluateItemRecordsMissingScores(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "non-numeric response", response: "I would rate this a 4"},
		{name: "below range", response: "0"},
		{name: "above range", response: "6"},
		{name: "empty response", response: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &scriptedCompleter{responses: []string{tt.response, "4", "4"}}
			evaluator := eval.NewEvaluator(completer, zap.NewNop(), nil)

			score := evaluator.EvaluateItem(context.Background(), qa.Item{ID: "item-1"})
			assert.Nil(t, score.Naturalness, "unparsable rating must be missing, not zero")
			assert.Equal(t, intPtr(4), score.Appropriateness)
		})
	}
}

func TestEvaluateDatasetContinuesPastFailures(t *testing.T) {
	// First item: every call fails. Second item: all dimensions rate 5.
	failure := fmt.Errorf("rater unavailable")
	completer := &scriptedCompleter{
		responses: []string{"", "", "", "5", "5", "5"},
		errs:      []error{failure, failure, failure, nil, nil, nil},
	}
	evaluator := eval.NewEvaluator(completer, zap.NewNop(), nil)

	items := []qa.Item{
		{ID: "item-1", Question: "q1?", Answer: "a1"},
		{ID: "item-2", Question: "q2?", Answer: "a2"},
	}
	scores, err := evaluator.EvaluateDataset(context.Background(), items)
	require.NoError(t, err, "a failing rater must not abort the batch")
	require.Len(t, scores, 2)

	assert.Nil(t, scores[0].Naturalness)
	assert.Nil(t, scores[0].Appropriateness)
	assert.Nil(t, scores[0].EvidenceSupport)
	assert.Equal(t, intPtr(5), scores[1].Naturalness)
}

func TestScoreKey(t *testing.T) {
	withID := eval.Score{ID: "item-1", Question: "q?", Answer: "a"}
	assert.Equal(t, "item-1", withID.Key())

	withoutID := eval.Score{Question: "q?", Answer: "a"}
	assert.Equal(t, "q?|a", withoutID.Key())
}

func TestScoreGet(t *testing.T) {
	score := eval.Score{
		Naturalness:     intPtr(4),
		Appropriateness: intPtr(5),
	}
	assert.Equal(t, intPtr(4), score.Get(eval.DimNaturalness))
	assert.Equal(t, intPtr(5), score.Get(eval.DimAppropriateness))
	assert.Nil(t, score.Get(eval.DimEvidenceSupport))
	assert.Nil(t, score.Get("unknown_dimension"))
}

func TestEvaluateDatasetStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	completer := &scriptedCompleter{responses: []string{"4", "4", "4"}}
	evaluator := eval.NewEvaluator(completer, zap.NewNop(), nil)

	_, err := evaluator.EvaluateDataset(ctx, []qa.Item{{ID: "item-1"}})
	assert.True(t, strings.Contains(err.Error(), "context canceled"))
}
