package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PerformanceMetrics carries client-measured timings in milliseconds
type PerformanceMetrics struct {
	LoadTime   float64 `gorm:"column:load_time_ms" json:"loadTime"`
	RenderTime float64 `gorm:"column:render_time_ms" json:"renderTime"`
}

// ComponentUsage records one rendered-and-displayed occurrence of a component.
// Rows are append-only.
type ComponentUsage struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ComponentID string         `gorm:"not null;index:idx_component_usages_component_created,priority:1;size:36" json:"componentId"`
	UserID      *string        `gorm:"index;size:64" json:"userId,omitempty"`
	Page        string         `gorm:"index;size:512" json:"page"`
	Context     datatypes.JSON `json:"context,omitempty"`

	PerformanceMetrics PerformanceMetrics `gorm:"embedded" json:"performanceMetrics"`

	UserAgent string    `gorm:"type:text" json:"userAgent,omitempty"`
	IPAddress string    `gorm:"size:64" json:"ipAddress,omitempty"`
	CreatedAt time.Time `gorm:"index;index:idx_component_usages_component_created,priority:2" json:"createdAt"`
}

// TableName specifies the table name
func (ComponentUsage) TableName() string {
	return "component_usages"
}

func (u *ComponentUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
