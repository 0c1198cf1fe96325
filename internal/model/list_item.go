package model

import "time"

// ListItem is one distributed contact. Items are created in batches that
// share OriginalFileName and UploadedAt, and are never updated afterwards.
type ListItem struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	FirstName        string    `json:"firstName" gorm:"type:varchar(255);not null"`
	Phone            string    `json:"phone" gorm:"type:varchar(50);not null"`
	Notes            string    `json:"notes" gorm:"type:text;not null;default:''"`
	AgentID          uint      `json:"agentId" gorm:"index;not null"`
	OriginalFileName string    `json:"originalFileName" gorm:"type:varchar(255);index;not null"`
	UploadedAt       time.Time `json:"uploadedAt" gorm:"index;not null"`

	// Agent is nil when the referenced agent has since been deleted
	Agent *Agent `json:"agent" gorm:"foreignKey:AgentID"`
}

// FileBatch describes the items created by one uploaded file
type FileBatch struct {
	OriginalFileName string    `json:"originalFileName"`
	Count            int64     `json:"count"`
	UploadedAt       time.Time `json:"uploadedAt"`
}
