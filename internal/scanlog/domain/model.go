package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Reason codes recorded for every scan attempt.
const (
	ReasonSuccess         = "success"
	ReasonCardNotFound    = "card_not_found"
	ReasonNotActivated    = "not_activated"
	ReasonMaxScansReached = "max_scans_reached"
	ReasonMatrixError     = "matrix_error"
)

// ScanLog is an append-only audit record of a scan attempt. CardID is only
// set when the scanned identifier resolved to a real card; unresolved scans
// keep the raw identifier in CardUID with no row reference.
type ScanLog struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	CardID    *snowflake.ID     `gorm:"index"`
	CardUID   string            `gorm:"column:card_uid;type:text;not null;index"`
	Reason    string            `gorm:"type:text;not null"`
	Success   bool              `gorm:"not null;default:false"`
	ClientIP  *string           `gorm:"type:text"`
	UserAgent *string           `gorm:"type:text"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ScanLog) TableName() string { return "scan_logs" }

// Entry is the write request handed to the recorder.
type Entry struct {
	// CardID carries the resolved card row, when the lookup succeeded.
	CardID    *snowflake.ID
	CardUID   string
	Reason    string
	Success   bool
	ClientIP  string
	UserAgent string
	Metadata  map[string]any
}
