package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UIComponent is a persisted descriptor for one reusable, data-driven UI fragment.
// Config is shaped by ComponentType; see internal/components for the per-type schemas.
type UIComponent struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name          string         `gorm:"uniqueIndex;not null;size:128" json:"name"`
	DisplayName   string         `gorm:"size:255" json:"displayName"`
	Description   string         `gorm:"type:text" json:"description"`
	Category      string         `gorm:"index;size:64" json:"category"`
	ComponentType string         `gorm:"index;not null;size:32" json:"componentType"`
	Config        datatypes.JSON `json:"config"`
	Template      string         `gorm:"type:text" json:"template,omitempty"`
	Styles        datatypes.JSON `json:"styles,omitempty"`
	Interactions  datatypes.JSON `json:"interactions,omitempty"`
	Responsive    datatypes.JSON `json:"responsive,omitempty"`

	IsActive bool `gorm:"not null" json:"isActive"`
	IsPublic bool `gorm:"not null" json:"isPublic"`

	// Approximate: incremented per tracked usage, recomputable from component_usages.
	UsageCount int64 `gorm:"not null;default:0" json:"usageCount"`

	CreatedBy string    `gorm:"size:64" json:"createdBy,omitempty"`
	UpdatedBy string    `gorm:"size:64" json:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (UIComponent) TableName() string {
	return "ui_components"
}

// BeforeCreate assigns an id when the caller did not
func (c *UIComponent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Label is the name shown to people: DisplayName, falling back to Name.
func (c *UIComponent) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}
