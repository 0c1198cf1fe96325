// Package distribution assigns normalized records to agents and reports
// how many records each agent holds.
package distribution

import (
	"time"

	appErrors "distribution-service/internal/errors"
	"distribution-service/internal/ingest"
	"distribution-service/internal/model"
)

// Assignment pairs a record with the agent it was given to
type Assignment struct {
	Record  ingest.Record
	AgentID uint
}

// Distribute gives record i to agents[i mod len(agents)]. The result has the
// same length and order as records. An empty roster is a NoAgentsError.
func Distribute(records []ingest.Record, agents []model.Agent) ([]Assignment, error) {
	if len(agents) == 0 {
		return nil, appErrors.NewNoAgentsError()
	}

	assignments := make([]Assignment, len(records))
	for i, rec := range records {
		assignments[i] = Assignment{Record: rec, AgentID: agents[i%len(agents)].ID}
	}
	return assignments, nil
}

// ToListItems stamps assignments with the batch's file name and upload time
func ToListItems(assignments []Assignment, fileName string, uploadedAt time.Time) []model.ListItem {
	items := make([]model.ListItem, len(assignments))
	for i, a := range assignments {
		items[i] = model.ListItem{
			FirstName:        a.Record.FirstName,
			Phone:            a.Record.Phone,
			Notes:            a.Record.Notes,
			AgentID:          a.AgentID,
			OriginalFileName: fileName,
			UploadedAt:       uploadedAt,
		}
	}
	return items
}
