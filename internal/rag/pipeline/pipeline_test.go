package pipeline

import (
	"strings"
	"testing"
)

func TestWantsList(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  bool
	}{
		{"outline keyword", "Outline the national strategy", true},
		{"phases keyword", "What are the phases of the rollout?", true},
		{"roadmap keyword", "Describe the ROADMAP for adoption", true},
		{"steps keyword", "Which steps come first?", true},
		{"pillars keyword", "Name the pillars of the plan", true},
		{"month range hyphen", "What happens in 0-60 months?", true},
		{"month range en dash", "What happens in 0–60 months?", true},
		{"month range spaced", "plan for 12 - 24 months", true},
		{"plain question", "Why does compute capacity matter?", false},
		{"months without range", "How many months until launch?", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WantsList(tc.query); got != tc.want {
				t.Errorf("WantsList(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestHasNumberedList(t *testing.T) {
	listed := "Intro paragraph.\n\n1. First phase builds capacity.\n2. Second phase scales adoption.\n\nClosing."
	if !HasNumberedList(listed, 2) {
		t.Error("expected numbered list with two items to be detected")
	}
	if HasNumberedList("1. only one item here", 2) {
		t.Error("a single item should not satisfy a two-item minimum")
	}
	if HasNumberedList("In 1999 the report said nothing numbered.", 1) {
		t.Error("an inline year is not a list item")
	}
	if !HasNumberedList("1) parenthesis style\n2) also counts", 2) {
		t.Error("parenthesis-style numbering should count")
	}
}

func TestValidateSummarySentence(t *testing.T) {
	cases := []struct {
		name   string
		answer string
		want   bool
	}{
		{"bold closing", "Some prose.\n\n**The strategy hinges on compute and talent.**", true},
		{"italic closing", "Some prose.\n\n*A short closing thought.*", true},
		{"no emphasis", "Some prose.\n\nThe strategy hinges on compute and talent.", false},
		{"mismatched markers", "Prose.\n\n**Half emphasized.*", false},
		{"empty answer", "", false},
		{"too many words", "Prose.\n\n**" + strings.Repeat("word ", 26) + "**", false},
		{"exactly 25 words", "Prose.\n\n**" + strings.TrimSpace(strings.Repeat("word ", 25)) + "**", true},
		{"two emphasized spans", "Prose.\n\n**First.** **Second.**", false},
		{"trailing blank lines", "Prose.\n\n**Short and compliant.**\n\n\n", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidateSummarySentence(tc.answer); got != tc.want {
				t.Errorf("ValidateSummarySentence(%q) = %v, want %v", tc.answer, got, tc.want)
			}
		})
	}
}

func TestValidateFindings(t *testing.T) {
	compliant := "Intro.\n\n1. Phase one builds.\n2. Phase two scales.\n\n**Done in two phases.**"
	if findings := Validate("Outline the phases", compliant); len(findings) != 0 {
		t.Errorf("expected no findings, got %v", findings)
	}

	missingList := "Just prose here.\n\n**A compliant closing sentence.**"
	findings := Validate("Outline the phases", missingList)
	if len(findings) != 1 || !strings.Contains(findings[0], "numbered list") {
		t.Errorf("expected a numbered-list finding, got %v", findings)
	}

	findings = Validate("Why does compute matter?", "No emphasis at all.")
	if len(findings) != 1 || !strings.Contains(findings[0], "summary sentence") {
		t.Errorf("expected a summary-sentence finding, got %v", findings)
	}
}

func TestDirectiveFor(t *testing.T) {
	for _, domain := range DomainKeys() {
		directive, err := DirectiveFor(domain)
		if err != nil {
			t.Fatalf("DirectiveFor(%q) returned error: %v", domain, err)
		}
		if directive == "" {
			t.Errorf("DirectiveFor(%q) returned an empty directive", domain)
		}
		if !IsValidDomain(domain) {
			t.Errorf("IsValidDomain(%q) = false for a known domain", domain)
		}
	}

	if _, err := DirectiveFor("finance"); err == nil {
		t.Error("expected error for unknown domain")
	}
	if IsValidDomain("finance") {
		t.Error("IsValidDomain should reject unknown domains")
	}
}

func TestBuildSynthesisPrompt(t *testing.T) {
	directive, _ := DirectiveFor(DomainPolicy)
	prompt := BuildSynthesisPrompt("chunk one\n\nchunk two", directive, "What funds the plan?")

	for _, want := range []string{
		"chunk one",
		directive,
		"What funds the plan?",
		"do NOT default to Canada",
		"ONE bold summary sentence",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if idx := strings.Index(prompt, "chunk one"); idx > strings.Index(prompt, "User Question") {
		t.Error("evidence should precede the user question")
	}
}
