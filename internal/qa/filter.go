package qa

import (
	"strings"
	"unicode/utf8"
)

// Rubric bounds the deterministic quality checks.
type Rubric struct {
	MinQuestionRunes int
	MaxQuestionRunes int
	MaxAnswerRunes   int
}

// DefaultRubric returns the rubric used for the published benchmark.
func DefaultRubric() Rubric {
	return Rubric{
		MinQuestionRunes: 20,
		MaxQuestionRunes: 300,
		MaxAnswerRunes:   500,
	}
}

// Decision is the outcome of a quality check.
type Decision struct {
	Keep   bool
	Reason string
}

// Evaluate applies the rubric to one item. It is a pure function: the
// same item and rubric always yield the same decision, and the item is
// never mutated.
func (r Rubric) Evaluate(item Item) Decision {
	if !item.QuestionType.Valid() {
		return Decision{Reason: "unknown_type"}
	}

	question := strings.TrimSpace(item.Question)
	if question == "" {
		return Decision{Reason: "empty_question"}
	}
	if !strings.HasSuffix(question, "?") {
		return Decision{Reason: "no_question_mark"}
	}
	questionLen := utf8.RuneCountInString(question)
	if questionLen < r.MinQuestionRunes {
		return Decision{Reason: "question_too_short"}
	}
	if questionLen > r.MaxQuestionRunes {
		return Decision{Reason: "question_too_long"}
	}

	answer := strings.TrimSpace(item.Answer)
	if answer == "" {
		return Decision{Reason: "empty_answer"}
	}
	if utf8.RuneCountInString(answer) > r.MaxAnswerRunes {
		return Decision{Reason: "answer_too_long"}
	}

	// The answer must be derivable from the matched facts: it has to
	// mention an entity bound by the pattern instance, or overlap the
	// matched description for attribute items.
	if !grounded(answer, item) {
		return Decision{Reason: "ungrounded_answer"}
	}

	return Decision{Keep: true}
}

// Filter applies the rubric to every item and returns the kept subset
// plus drop counts by reason. Kept items are returned unchanged.
func Filter(items []Item, rubric Rubric) ([]Item, map[string]int) {
	kept := make([]Item, 0, len(items))
	dropped := make(map[string]int)
	for _, item := range items {
		decision := rubric.Evaluate(item)
		if decision.Keep {
			kept = append(kept, item)
			continue
		}
		dropped[decision.Reason]++
	}
	return kept, dropped
}

func grounded(answer string, item Item) bool {
	if mentionsAnyEntity(answer, item.Entities()) {
		return true
	}
	description := strings.ToLower(strings.TrimSpace(item.Description))
	if description == "" {
		return false
	}
	// The description is itself a matched fact, so an answer that quotes
	// it (or a fragment of it) is grounded even without the entity name.
	lowered := strings.ToLower(answer)
	return strings.Contains(lowered, description) || strings.Contains(description, lowered)
}

func mentionsAnyEntity(answer string, entities []string) bool {
	if len(entities) == 0 {
		return false
	}
	lowered := strings.ToLower(answer)
	for _, entity := range entities {
		if entity == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(entity)) {
			return true
		}
	}
	return false
}
