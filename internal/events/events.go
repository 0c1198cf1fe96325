// Package events publishes notifications about completed distributions so
// downstream consumers (dialers, agent notifications) can pick up new work.
package events

import (
	"context"
	"time"

	"distribution-service/internal/distribution"
)

const RoutingKeyDistributionCompleted = "distribution.completed"

// AgentCount is one agent's share of a distribution batch
type AgentCount struct {
	AgentID uint  `json:"agentId"`
	Count   int64 `json:"count"`
}

// DistributionCompleted is emitted once per successful upload
type DistributionCompleted struct {
	OriginalFileName string       `json:"originalFileName"`
	UploadedAt       time.Time    `json:"uploadedAt"`
	TotalItems       int          `json:"totalItems"`
	DroppedRows      int          `json:"droppedRows"`
	Agents           []AgentCount `json:"agents"`
}

// NewDistributionCompleted builds the event from an upload's per-agent summary
func NewDistributionCompleted(fileName string, uploadedAt time.Time, total, dropped int, summary []distribution.AgentSummary) DistributionCompleted {
	agents := make([]AgentCount, len(summary))
	for i, s := range summary {
		agents[i] = AgentCount{AgentID: s.AgentID, Count: s.Count}
	}
	return DistributionCompleted{
		OriginalFileName: fileName,
		UploadedAt:       uploadedAt,
		TotalItems:       total,
		DroppedRows:      dropped,
		Agents:           agents,
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishDistributionCompleted(ctx context.Context, event DistributionCompleted) error
	Close() error
}

// NoopPublisher drops every event; used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) PublishDistributionCompleted(context.Context, DistributionCompleted) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
