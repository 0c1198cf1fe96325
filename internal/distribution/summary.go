package distribution

import "distribution-service/internal/model"

// AgentSummary is the per-agent count reported after an upload and by the
// summary endpoint
type AgentSummary struct {
	AgentID    uint   `json:"agentId"`
	AgentName  string `json:"agentName"`
	AgentEmail string `json:"agentEmail"`
	Count      int64  `json:"count"`
}

// AgentDistribution adds the agent's items from one upload
type AgentDistribution struct {
	AgentSummary
	Lists []model.ListItem `json:"lists"`
}

// SummarizeCounts builds one entry per agent in roster order. Agents missing
// from counts get zero; counts for agents not in the roster are ignored.
func SummarizeCounts(agents []model.Agent, counts map[uint]int64) []AgentSummary {
	summary := make([]AgentSummary, len(agents))
	for i, agent := range agents {
		summary[i] = AgentSummary{
			AgentID:    agent.ID,
			AgentName:  agent.Name,
			AgentEmail: agent.Email,
			Count:      counts[agent.ID],
		}
	}
	return summary
}

// Summarize counts items per agent in roster order
func Summarize(agents []model.Agent, items []model.ListItem) []AgentSummary {
	counts := make(map[uint]int64, len(agents))
	for _, item := range items {
		counts[item.AgentID]++
	}
	return SummarizeCounts(agents, counts)
}

// Breakdown is Summarize with each agent's items attached, in item order
func Breakdown(agents []model.Agent, items []model.ListItem) []AgentDistribution {
	byAgent := make(map[uint][]model.ListItem, len(agents))
	for _, item := range items {
		byAgent[item.AgentID] = append(byAgent[item.AgentID], item)
	}

	result := make([]AgentDistribution, len(agents))
	for i, s := range Summarize(agents, items) {
		lists := byAgent[s.AgentID]
		if lists == nil {
			lists = []model.ListItem{}
		}
		result[i] = AgentDistribution{AgentSummary: s, Lists: lists}
	}
	return result
}
