package eval

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/biokg/kgbench/internal/metrics"
	"github.com/biokg/kgbench/internal/qa"
)

// Score dimensions rated by the external evaluator, each 1-5.
const (
	DimNaturalness     = "naturalness_score"
	DimAppropriateness = "answer_appropriateness_score"
	DimEvidenceSupport = "evidence_support_score"
)

// DefaultDimensions lists the rubric dimensions in rating order.
var DefaultDimensions = []string{DimNaturalness, DimAppropriateness, DimEvidenceSupport}

// Score holds the per-item ratings from one rater. Unparsable or
// out-of-range responses stay nil and are omitted from the output
// file; they are never recorded as zero.
type Score struct {
	ID              string `json:"id,omitempty"`
	Question        string `json:"question"`
	Answer          string `json:"answer"`
	Naturalness     *int   `json:"naturalness_score,omitempty"`
	Appropriateness *int   `json:"answer_appropriateness_score,omitempty"`
	EvidenceSupport *int   `json:"evidence_support_score,omitempty"`
}

// Get returns the rating for a dimension, nil when missing.
func (s Score) Get(dimension string) *int {
	switch dimension {
	case DimNaturalness:
		return s.Naturalness
	case DimAppropriateness:
		return s.Appropriateness
	case DimEvidenceSupport:
		return s.EvidenceSupport
	}
	return nil
}

// Key returns the identifier used to join score files: the item ID when
// present, otherwise the question|answer pair.
func (s Score) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Question + "|" + s.Answer
}

// Completer produces a completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Evaluator scores QA items with a rater model on the fixed rubric.
type Evaluator struct {
	llm       Completer
	logger    *zap.Logger
	collector *metrics.Collector
}

// NewEvaluator wires an evaluator. collector may be nil.
func NewEvaluator(llm Completer, logger *zap.Logger, collector *metrics.Collector) *Evaluator {
	return &Evaluator{llm: llm, logger: logger, collector: collector}
}

// EvaluateItem rates one item on all three dimensions. A failed or
// unparsable rating leaves that dimension missing and never aborts.
func (e *Evaluator) EvaluateItem(ctx context.Context, item qa.Item) Score {
	score := Score{
		ID:       item.ID,
		Question: item.Question,
		Answer:   item.Answer,
	}
	score.Naturalness = e.rate(ctx, naturalnessPrompt(item.Question))
	score.Appropriateness = e.rate(ctx, appropriatenessPrompt(item.Question, item.Answer))
	score.EvidenceSupport = e.rate(ctx, evidenceSupportPrompt(item.Question, item.Answer, item.Evidence))

	if e.collector != nil {
		status := "complete"
		if score.Naturalness == nil || score.Appropriateness == nil || score.EvidenceSupport == nil {
			status = "partial"
		}
		e.collector.ObserveItemEvaluated(status)
	}
	return score
}

// EvaluateDataset rates every item sequentially.
func (e *Evaluator) EvaluateDataset(ctx context.Context, items []qa.Item) ([]Score, error) {
	scores := make([]Score, 0, len(items))
	for idx, item := range items {
		if err := ctx.Err(); err != nil {
			return scores, err
		}
		score := e.EvaluateItem(ctx, item)
		scores = append(scores, score)
		e.logger.Info("item evaluated",
			zap.Int("index", idx+1),
			zap.Int("total", len(items)),
			zap.String("id", item.ID))
	}
	return scores, nil
}

func (e *Evaluator) rate(ctx context.Context, prompt string) *int {
	content, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		e.logger.Warn("rating call failed, recording missing score", zap.Error(err))
		return nil
	}
	return parseRating(content)
}

// parseRating extracts a 1-5 integer rating; anything else is missing.
func parseRating(content string) *int {
	value, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil {
		return nil
	}
	if value < 1 || value > 5 {
		return nil
	}
	return &value
}

func naturalnessPrompt(question string) string {
	return "You are a biomedical expert evaluating the quality of a question. " +
		"Rate the following question for naturalness (how well it reads as a natural, " +
		"expert-level question) on a scale of 1 to 5 (1 being very unnatural, " +
		"5 being very natural). Provide only the score as a number.\n\n" +
		fmt.Sprintf("Question: %s\nScore:", question)
}

func appropriatenessPrompt(question, answer string) string {
	return "You are a biomedical expert evaluating the quality of an answer. " +
		"Rate the following answer for appropriateness (how well it answers the question) " +
		"on a scale of 1 to 5 (1 being very inappropriate, 5 being very appropriate). " +
		"Provide only the score as a number.\n\n" +
		fmt.Sprintf("Question: %s\nAnswer: %s\nScore:", question, answer)
}

func evidenceSupportPrompt(question, answer, evidence string) string {
	return "You are a biomedical expert evaluating how well an answer is supported by evidence. " +
		"Rate the following answer for evidence support (how well the cited literature backs it) " +
		"on a scale of 1 to 5 (1 being unsupported, 5 being fully supported). " +
		"Provide only the score as a number.\n\n" +
		fmt.Sprintf("Question: %s\nAnswer: %s\nEvidence: %s\nScore:", question, answer, evidence)
}
