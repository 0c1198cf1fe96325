package client

import "time"

// Admin is the authenticated operator account
type Admin struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Agent is one roster entry
type Agent struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobileNumber"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ListItem is one distributed contact. Agent is nil once the agent has been
// deleted.
type ListItem struct {
	ID               uint      `json:"id"`
	FirstName        string    `json:"firstName"`
	Phone            string    `json:"phone"`
	Notes            string    `json:"notes"`
	AgentID          uint      `json:"agentId"`
	OriginalFileName string    `json:"originalFileName"`
	UploadedAt       time.Time `json:"uploadedAt"`
	Agent            *Agent    `json:"agent"`
}

// FileBatch is one uploaded file and the number of items it still holds
type FileBatch struct {
	OriginalFileName string    `json:"originalFileName"`
	Count            int64     `json:"count"`
	UploadedAt       time.Time `json:"uploadedAt"`
}

// AgentSummary is one agent's item count
type AgentSummary struct {
	AgentID    uint   `json:"agentId"`
	AgentName  string `json:"agentName"`
	AgentEmail string `json:"agentEmail"`
	Count      int64  `json:"count"`
}

// AgentDistribution is one agent's share of an upload
type AgentDistribution struct {
	AgentSummary
	Lists []ListItem `json:"lists"`
}
