package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/metrics"
	"github.com/mapleproto/reportchat/internal/rag/llm"
	"github.com/mapleproto/reportchat/pkg/logger_i"
)

// The evidence-gathering stage is a three-state machine:
//
//	StateStart -> StateToolCalled -> StateDone
//
// One retrieval at most, then a bounded natural-language account of what was
// found. The degenerate StateStart -> StateDone path (no retrieval) is legal.
type State string

const (
	StateStart      State = "START"
	StateToolCalled State = "TOOL_CALLED"
	StateDone       State = "DONE"
)

const (
	// deterministic minimum messages so empty/failed retrieval never leaves
	// the summary to generation variance
	emptyRetrievalObservation = "no passages matched the query"
	failedRetrievalPrefix     = "retrieval failed: "
)

type Result struct {
	Evidence    string
	UsedTool    bool
	Observation string
}

// Gatherer runs one evidence-gathering pass. Single use: the tool is consumed
// on first call and the struct is not reusable across queries.
type Gatherer struct {
	provider llm.Provider
	tool     *Tool
	state    State
	logger   *logger_i.Logger
}

func NewGatherer(provider llm.Provider, tool *Tool) *Gatherer {
	return &Gatherer{
		provider: provider,
		tool:     tool,
		state:    StateStart,
		logger:   logger_i.NewLogger("EvidenceGathering"),
	}
}

func (g *Gatherer) State() State {
	return g.state
}

func (g *Gatherer) Run(ctx context.Context, query string) (Result, error) {
	log := g.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	firstOutput, err := g.provider.Complete(ctx, gatherSystemInstruction, gatherPrompt(query))
	if err != nil {
		return Result{}, fmt.Errorf("evidence stage completion: %w", err)
	}

	toolQuery, wantsTool := parseToolCall(firstOutput, "retrieve_context")
	if !wantsTool || g.tool == nil {
		// degenerate path: no retrieval, straight to DONE
		g.state = StateDone
		return Result{Evidence: extractFinalAnswer(firstOutput)}, nil
	}

	observation := g.invokeTool(ctx, log, toolQuery)

	secondOutput, err := g.provider.Complete(ctx, gatherSystemInstruction,
		gatherFollowupPrompt(query, truncateAtObservation(firstOutput), observation))
	if err != nil {
		return Result{}, fmt.Errorf("evidence stage completion: %w", err)
	}

	// the tool is gone; any Action text in the follow-up (or smuggled in via
	// the observation) is inert data
	if _, again := parseToolCall(secondOutput, "retrieve_context"); again {
		metrics.IncrementProtocolViolations()
		log.Warn("Second tool call attempted after observation; ignoring")
	}

	g.state = StateDone
	return Result{
		Evidence:    extractFinalAnswer(secondOutput),
		UsedTool:    true,
		Observation: observation,
	}, nil
}

// invokeTool runs the single permitted retrieval. The tool is consumed before
// the call so nothing downstream can run it again; errors and empty results
// become fixed observation text instead of surfacing as pipeline failures.
func (g *Gatherer) invokeTool(ctx context.Context, log *logger_i.Logger, toolQuery string) string {
	tool := g.tool
	g.tool = nil
	g.state = StateToolCalled

	toolCtx, cancel := context.WithTimeout(ctx, config.RetrievalTimeout)
	defer cancel()

	observation, err := tool.Run(toolCtx, toolQuery)
	if err != nil {
		log.Error("Retrieval tool failed", "error", err)
		return failedRetrievalPrefix + err.Error()
	}
	if strings.TrimSpace(observation) == "" {
		return emptyRetrievalObservation
	}
	return observation
}

// truncateAtObservation cuts the first model turn at its Observation line, if
// it hallucinated one, so the real observation is the only one in the prompt.
func truncateAtObservation(output string) string {
	if idx := strings.Index(output, "Observation:"); idx != -1 {
		return strings.TrimSpace(output[:idx])
	}
	return strings.TrimSpace(output)
}
