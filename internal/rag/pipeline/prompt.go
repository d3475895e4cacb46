package pipeline

import (
	"fmt"
	"strings"
)

const synthesisSystemRules = "You MUST answer strictly using the provided information from the documents. " +
	"If a claim is not in the context, say you don't know. Be concise, neutral, and structured. " +
	"Do not create unnecessary bullet-point summaries unless the context explicitly requires it. " +
	"Write in clear paragraphs that explain the answer, reference supporting evidence, " +
	"discuss implications, and end with a short summary. " +
	"Summarize the overall effect in 25 words or fewer."

const synthesisStyleRules = `STYLE:
- Answer naturally: clear, friendly, and easy to read.
- Use 2-5 paragraphs unless the question asks for phases, steps, pillars, or timelines.
- If the question includes words like 'outline', 'phases', 'roadmap', '0-60 months', 'steps', or 'pillars', use a clean numbered list.
- Each numbered item should have 1-3 sentences. Start with a short intro paragraph, then the list, then one small closing paragraph.
- Do NOT use visible section labels like 'Explanation', 'Evidence', or 'Implications'. Blend these elements into normal paragraphs.`

const synthesisScopeRules = `If the user does NOT mention a specific country, answer in general global terms and do NOT default to Canada. Use Canada only as an example if clearly helpful.
If the user explicitly mentions Canada or the Maple Protocol, then you may focus on Canada.
If something is not in the context, say you don't know.
END the entire response with ONE bold summary sentence (25 words or fewer).`

// BuildSynthesisPrompt assembles the second-stage prompt. The evidence block
// is read-only input; rank order inside it is already meaningful and must not
// be reshuffled here.
func BuildSynthesisPrompt(evidence string, directive string, query string) string {
	var b strings.Builder
	b.WriteString(synthesisStyleRules)
	b.WriteString("\n\nDIRECTIVE:\n")
	b.WriteString(directive)
	b.WriteString("\n\nRETRIEVED CONTEXT (from the researcher):\n")
	b.WriteString(evidence)
	b.WriteString("\n\nINSTRUCTION:\n")
	b.WriteString("Use the researcher's retrieved context to answer the question using only information that appears in the context. ")
	b.WriteString("Give a clear answer in normal prose, refer to supporting evidence or numbers from the retrieved context, ")
	b.WriteString("and briefly note what it means for national AI strategy or the relevant country. ")
	b.WriteString("If no country is mentioned, discuss the global implications.\n\n")
	b.WriteString(synthesisScopeRules)
	b.WriteString(fmt.Sprintf("\n\nUser Question: %s", query))
	return b.String()
}

func SynthesisSystemInstruction() string {
	return synthesisSystemRules
}
