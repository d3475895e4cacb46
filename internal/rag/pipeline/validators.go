package pipeline

import (
	"regexp"
	"strings"
)

// The list trigger and the summary-sentence rule are business rules, not
// prompt trivia. The prompt asks for them and these validators verify them
// after generation; non-compliance is logged and counted, not fatal.

var listTriggerWords = []string{"outline", "phases", "roadmap", "steps", "pillars"}

var monthRangePattern = regexp.MustCompile(`\d+\s*[-\x{2013}]\s*\d+\s*months`)

var numberedItemPattern = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+\S`)

var emphasisPattern = regexp.MustCompile(`^(\*\*|\*|__|_)(.+?)(\*\*|\*|__|_)$`)

// WantsList reports whether the query's surface form asks for a
// phase/step/roadmap style answer.
func WantsList(query string) bool {
	lowered := strings.ToLower(query)
	for _, w := range listTriggerWords {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return monthRangePattern.MatchString(lowered)
}

// HasNumberedList reports whether the answer contains a numbered list with at
// least min items.
func HasNumberedList(answer string, min int) bool {
	return len(numberedItemPattern.FindAllString(answer, -1)) >= min
}

// ValidateSummarySentence checks the termination contract: the answer ends
// with exactly one emphasized sentence of at most 25 words.
func ValidateSummarySentence(answer string) bool {
	lines := strings.Split(strings.TrimSpace(answer), "\n")
	var last string
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			last = trimmed
			break
		}
	}
	if last == "" {
		return false
	}

	m := emphasisPattern.FindStringSubmatch(last)
	if m == nil || m[1] != m[3] {
		return false
	}
	inner := strings.TrimSpace(m[2])
	if inner == "" || strings.Contains(inner, m[1]) {
		return false
	}
	return len(strings.Fields(inner)) <= 25
}

// Validate audits a generated answer against the structural contract and
// returns human-readable findings, empty when compliant.
func Validate(query string, answer string) []string {
	var findings []string
	if WantsList(query) && !HasNumberedList(answer, 2) {
		findings = append(findings, "query asked for phases/steps but answer has no numbered list")
	}
	if !ValidateSummarySentence(answer) {
		findings = append(findings, "answer does not end with one emphasized summary sentence of 25 words or fewer")
	}
	return findings
}
