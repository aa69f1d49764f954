package ai

import "context"

// Advisor generates loading guidance for a finished load plan.
// Implementations are best-effort: callers must be prepared to fall back to
// RuleBasedGuidance when the provider fails or returns unusable output.
type Advisor interface {
	AnalyzeLoad(ctx context.Context, items []LoadItem, info RouteInfo) (*LoadGuidance, error)
}
