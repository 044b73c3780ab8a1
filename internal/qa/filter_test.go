package qa_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biokg/kgbench/internal/qa"
)

func validItem() qa.Item {
	return qa.Item{
		ID:           "item-1",
		QuestionType: qa.OneHop,
		Question:     "Which types of cancer are associated with MET?",
		Answer:       "MET is associated with low-grade glioma.",
		Head:         "MET",
		HeadType:     "gene",
		Relation:     "ASSOCIATED_WITH",
		Tail:         "low-grade glioma",
		TailType:     "disease",
	}
}

func TestRubricEvaluate(t *testing.T) {
	rubric := qa.DefaultRubric()

	tests := []struct {
		name           string
		mutate         func(*qa.Item)
		expectedKeep   bool
		expectedReason string
	}{
		{
			name:         "valid item kept",
			mutate:       func(*qa.Item) {},
			expectedKeep: true,
		},
		{
			name:           "unknown question type",
			mutate:         func(i *qa.Item) { i.QuestionType = "Three-hop" },
			expectedReason: "unknown_type",
		},
		{
			name:           "empty question",
			mutate:         func(i *qa.Item) { i.Question = "   " },
			expectedReason: "empty_question",
		},
		{
			name:           "question without question mark",
			mutate:         func(i *qa.Item) { i.Question = "MET is associated with several cancers." },
			expectedReason: "no_question_mark",
		},
		{
			name:           "question too short",
			mutate:         func(i *qa.Item) { i.Question = "What is MET?" },
			expectedReason: "question_too_short",
		},
		{
			name: "question too long",
			mutate: func(i *qa.Item) {
				i.Question = "Which " + strings.Repeat("very ", 80) + "long question mentions MET?"
			},
			expectedReason: "question_too_long",
		},
		{
			name:           "empty answer",
			mutate:         func(i *qa.Item) { i.Answer = "" },
			expectedReason: "empty_answer",
		},
		{
			name: "answer too long",
			mutate: func(i *qa.Item) {
				i.Answer = "MET " + strings.Repeat("is associated with glioma ", 30)
			},
			expectedReason: "answer_too_long",
		},
		{
			name:           "answer mentions no bound entity",
			mutate:         func(i *qa.Item) { i.Answer = "The gene is associated with several cancers." },
			expectedReason: "ungrounded_answer",
		},
		{
			name:         "entity match is case insensitive",
			mutate:       func(i *qa.Item) { i.Answer = "met is associated with LOW-GRADE GLIOMA." },
			expectedKeep: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(&item)
			decision := rubric.Evaluate(item)
			assert.Equal(t, tt.expectedKeep, decision.Keep)
			if !tt.expectedKeep {
				assert.Equal(t, tt.expectedReason, decision.Reason)
			}
		})
	}
}

func attributeItem() qa.Item {
	return qa.Item{
		ID:           "item-2",
		QuestionType: qa.Attribute,
		Question:     "What is the molecular function of TP53?",
		Answer:       "tumor suppressor protein",
		Entity:       "TP53",
		Description:  "tumor suppressor protein",
	}
}

func TestRubricEvaluateAttributeGroundedness(t *testing.T) {
	rubric := qa.DefaultRubric()

	tests := []struct {
		name           string
		mutate         func(*qa.Item)
		expectedKeep   bool
		expectedReason string
	}{
		{
			name:         "answer equal to the matched description",
			mutate:       func(*qa.Item) {},
			expectedKeep: true,
		},
		{
			name:         "answer is a fragment of the description",
			mutate:       func(i *qa.Item) { i.Answer = "tumor suppressor" },
			expectedKeep: true,
		},
		{
			name:         "answer quotes the description inside a sentence",
			mutate:       func(i *qa.Item) { i.Answer = "It acts as a tumor suppressor protein." },
			expectedKeep: true,
		},
		{
			name:         "answer mentions the entity but not the description",
			mutate:       func(i *qa.Item) { i.Answer = "TP53 suppresses tumor growth." },
			expectedKeep: true,
		},
		{
			name:           "answer unrelated to entity and description",
			mutate:         func(i *qa.Item) { i.Answer = "It regulates the cell cycle." },
			expectedReason: "ungrounded_answer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := attributeItem()
			tt.mutate(&item)
			decision := rubric.Evaluate(item)
			assert.Equal(t, tt.expectedKeep, decision.Keep)
			if !tt.expectedKeep {
				assert.Equal(t, tt.expectedReason, decision.Reason)
			}
		})
	}
}

func TestRubricEvaluateIsDeterministic(t *testing.T) {
	rubric := qa.DefaultRubric()
	item := validItem()

	first := rubric.Evaluate(item)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, rubric.Evaluate(item))
	}
}

func TestFilterDoesNotMutateKeptItems(t *testing.T) {
	items := []qa.Item{
		validItem(),
		{QuestionType: qa.OneHop, Question: "bad", Answer: ""},
	}
	original := items[0]

	kept, dropped := qa.Filter(items, qa.DefaultRubric())
	require.Len(t, kept, 1)
	assert.Equal(t, original, kept[0])
	assert.Equal(t, 1, dropped["no_question_mark"])
}
