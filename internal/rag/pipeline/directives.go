package pipeline

import "fmt"

// Domain directives are a closed set of named focus fragments injected
// verbatim into the synthesis instructions. The caller resolves the key
// before a job is enqueued; an unknown key never reaches the pipeline.
const (
	DomainGeneral       = "general"
	DomainPolicy        = "policy"
	DomainResearch      = "research"
	DomainProduct       = "product"
	DomainManufacturing = "manufacturing"
)

var domainDirectives = map[string]string{
	DomainGeneral: "Explain the answer at the global level. " +
		"Only discuss Canada if the user explicitly mentions Canada or the Maple Protocol.",
	DomainPolicy: "Emphasize implementation roadmaps, government levers, regulation, and funding. " +
		"If the user mentions a specific country, focus on that country; otherwise stay general.",
	DomainResearch:      "Emphasize sovereign models, compute capacity, and the 'Brain Drain' of talent.",
	DomainProduct:       "Emphasize the commercialization gap, startup ecosystem, and venture capital.",
	DomainManufacturing: "Emphasize AI adoption in real sectors (energy, health) and productivity gains.",
}

func DirectiveFor(domain string) (string, error) {
	directive, ok := domainDirectives[domain]
	if !ok {
		return "", fmt.Errorf("unknown domain directive: %q", domain)
	}
	return directive, nil
}

func IsValidDomain(domain string) bool {
	_, ok := domainDirectives[domain]
	return ok
}

func DomainKeys() []string {
	return []string{DomainGeneral, DomainPolicy, DomainResearch, DomainProduct, DomainManufacturing}
}
