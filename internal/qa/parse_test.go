package qa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/biokg/kgbench/internal/qa"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name             string
		content          string
		expectedQuestion string
		expectedAnswer   string
	}{
		{
			name:             "standard format",
			content:          "Question: Which types of cancer are associated with MET?\nAnswer: MET is associated with low-grade glioma.",
			expectedQuestion: "Which types of cancer are associated with MET?",
			expectedAnswer:   "MET is associated with low-grade glioma.",
		},
		{
			name:             "case insensitive headers",
			content:          "QUESTION: What drugs inhibit TERT?\nanswer: Doxorubicin inhibits TERT.",
			expectedQuestion: "What drugs inhibit TERT?",
			expectedAnswer:   "Doxorubicin inhibits TERT.",
		},
		{
			name:             "multi-line continuation",
			content:          "Question: Which gene is expressed in the brain\nand regulates dopamine levels?\nAnswer: COMT is expressed in the brain\nand regulates dopamine levels.",
			expectedQuestion: "Which gene is expressed in the brain\nand regulates dopamine levels?",
			expectedAnswer:   "COMT is expressed in the brain\nand regulates dopamine levels.",
		},
		{
			name:             "surrounding blank lines and whitespace",
			content:          "\n\n  Question:   What is the function of TP53?  \n\n  Answer:   Tumor suppression.  \n\n",
			expectedQuestion: "What is the function of TP53?",
			expectedAnswer:   "Tumor suppression.",
		},
		{
			name:             "missing answer section",
			content:          "Question: What is the function of TP53?",
			expectedQuestion: "What is the function of TP53?",
			expectedAnswer:   "",
		},
		{
			name:             "no sections at all",
			content:          "I cannot generate a question from this input.",
			expectedQuestion: "",
			expectedAnswer:   "",
		},
		{
			name:             "empty content",
			content:          "",
			expectedQuestion: "",
			expectedAnswer:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			question, answer := qa.ParseResponse(tt.content)
			assert.Equal(t, tt.expectedQuestion, question)
			assert.Equal(t, tt.expectedAnswer, answer)
		})
	}
}
