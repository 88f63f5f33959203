package models

import "time"

// ProjectActive is the status of projects shown in listings.
const ProjectActive = "active"

type Project struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         string     `gorm:"size:36;index" json:"userId"`
	Name           string     `gorm:"size:255" json:"name"`
	URL            string     `gorm:"size:2048" json:"url"`
	Status         string     `gorm:"size:32;index" json:"status"`
	LastAnalyzedAt *time.Time `json:"lastAnalyzedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
