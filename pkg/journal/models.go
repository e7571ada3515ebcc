package journal

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Outcomes recorded for a request.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// JSONMap is a map[string]any stored as a JSON text column.
type JSONMap map[string]any

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
	return json.Unmarshal(b, m)
}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Event is one recorded console request.
type Event struct {
	ID         string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id" yaml:"id"`
	RequestID  string    `gorm:"column:request_id;index" json:"requestId" yaml:"requestId"`
	Method     string    `gorm:"column:method;not null" json:"method" yaml:"method"`
	Path       string    `gorm:"column:path;not null" json:"path" yaml:"path"`
	Action     string    `gorm:"column:action;index:idx_journal_action_time,priority:1" json:"action" yaml:"action"`
	StatusCode int       `gorm:"column:status_code" json:"statusCode" yaml:"statusCode"`
	Outcome    string    `gorm:"column:outcome;not null" json:"outcome" yaml:"outcome"`
	Error      string    `gorm:"column:error" json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs int64     `gorm:"column:duration_ms" json:"durationMs" yaml:"durationMs"`
	Metadata   JSONMap   `gorm:"column:metadata;type:text" json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;index;index:idx_journal_action_time,priority:2;autoCreateTime" json:"createdAt" yaml:"createdAt"`
}

// TableName returns the GORM table name.
func (Event) TableName() string { return "journal_events" }
