package common

import "strings"

// Component names used for child loggers and metrics labels.
const (
	ComponentOrchestrator = "orchestrator"
	ComponentChainClient  = "chain-client"
	ComponentLaunchpad    = "launchpad"
	ComponentFarm         = "farm"
	ComponentLeaderboard  = "leaderboard"
	ComponentCheckpoint   = "checkpoint"
	ComponentMetrics      = "metrics"
)

func ToLowerWithTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
