package qa

import "strings"

// ParseResponse extracts the question and answer sections from a model
// completion. The expected contract is "Question: ...\nAnswer: ..." with
// possible multi-line continuations; headers match case-insensitively.
// Either section may come back empty when the model ignored the format.
func ParseResponse(content string) (question, answer string) {
	var section string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "question"):
			section = "question"
			question = sectionValue(line, "question")
		case strings.HasPrefix(lower, "answer"):
			section = "answer"
			answer = sectionValue(line, "answer")
		case section == "question":
			question += "\n" + line
		case section == "answer":
			answer += "\n" + line
		}
	}
	return strings.TrimSpace(question), strings.TrimSpace(answer)
}

func sectionValue(line, header string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return strings.TrimSpace(line[len(header):])
}
