package model

import "time"

// Agent is a roster entry that uploaded contacts are distributed to
type Agent struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null"`
	Email        string    `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	MobileNumber string    `json:"mobileNumber" gorm:"type:varchar(30);not null"`
	Password     string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
