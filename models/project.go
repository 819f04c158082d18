package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Project represents a single portfolio entry
type Project struct {
	ID           uuid.UUID      `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title        string         `json:"title" db:"title" gorm:"type:text;not null"`
	Description  string         `json:"description" db:"description" gorm:"type:text;not null"`
	GithubLink   string         `json:"githubLink" db:"github_link" gorm:"type:text;not null;default:''"`
	VideoLink    string         `json:"videoLink" db:"video_link" gorm:"type:text;not null;default:''"`
	Technologies datatypes.JSON `json:"technologies" db:"technologies" gorm:"type:jsonb;not null;default:'[]'"`
	Image        string         `json:"image" db:"image" gorm:"type:text;not null;default:''"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at" gorm:"not null;index:idx_projects_created_at,sort:desc"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at" gorm:"not null"`
}

// SetTechnologies replaces the stored tag list. Order and duplicates are
// preserved; a nil slice is stored as an empty JSON array, never null.
func (p *Project) SetTechnologies(techs []string) {
	if techs == nil {
		techs = []string{}
	}
	encoded, err := json.Marshal(techs)
	if err != nil {
		encoded = []byte("[]")
	}
	p.Technologies = datatypes.JSON(encoded)
}

// TechnologyList decodes the stored tag list. Unreadable or missing data
// yields an empty list rather than an error.
func (p *Project) TechnologyList() []string {
	if len(p.Technologies) == 0 {
		return []string{}
	}
	var techs []string
	if err := json.Unmarshal(p.Technologies, &techs); err != nil || techs == nil {
		return []string{}
	}
	return techs
}
