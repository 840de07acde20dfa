package audit

import (
	"time"

	"github.com/framesafe/framesafe/internal/pii"
)

// EventType classifies an audit event.
type EventType string

const (
	EventPIIDetected    EventType = "pii_detected"
	EventPIIMasked      EventType = "pii_masked"
	EventStorageBlocked EventType = "storage_blocked"
	EventConfigChanged  EventType = "config_changed"
)

// AllEventTypes lists every event type in report rendering order.
var AllEventTypes = []EventType{
	EventPIIDetected,
	EventPIIMasked,
	EventStorageBlocked,
	EventConfigChanged,
}

// Severity is the coarse urgency tier of an audit event.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordering value of the severity; unknown values rank lowest.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// Event is an immutable record of a detection, masking, or configuration
// action. ID and Timestamp are assigned by the store on append when unset.
type Event struct {
	ID        int64             `json:"id" db:"id"`
	Timestamp time.Time         `json:"timestamp" db:"ts"`
	Type      EventType         `json:"eventType" db:"event_type"`
	PIITypes  []pii.Type        `json:"piiTypes,omitempty"`
	Context   string            `json:"context,omitempty" db:"context"`
	Source    string            `json:"sourceComponent,omitempty" db:"source"`
	Severity  Severity          `json:"severity" db:"severity"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Config controls admission and retention of audit events.
type Config struct {
	// RetentionDays bounds event age; CleanupOldRecords prunes older events.
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days"`
	// EnabledEventTypes admits only the listed types. Empty means all types.
	EnabledEventTypes []EventType `yaml:"enabled_event_types" mapstructure:"enabled_event_types"`
	// MinimumSeverity rejects events below this tier.
	MinimumSeverity Severity `yaml:"minimum_severity" mapstructure:"minimum_severity"`
	// MaxEventsPerHour caps accepted events per rolling hour; excess events
	// are dropped silently. Zero or negative disables the cap.
	MaxEventsPerHour int `yaml:"max_events_per_hour" mapstructure:"max_events_per_hour"`
	// QueueSize bounds the in-flight buffer between admission and the
	// persistence worker.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
}

// DefaultConfig returns the audit defaults: 30-day retention, every event
// type, low severity floor, 1000 events per hour.
func DefaultConfig() Config {
	return Config{
		RetentionDays:     30,
		EnabledEventTypes: nil,
		MinimumSeverity:   SeverityLow,
		MaxEventsPerHour:  1000,
		QueueSize:         256,
	}
}

// Stats are exact aggregates derived over a queried time window.
type Stats struct {
	TotalEvents      int64               `json:"totalEvents"`
	EventsByType     map[EventType]int64 `json:"eventsByType"`
	PIITypeFrequency map[pii.Type]int64  `json:"piiTypeFrequency"`
}
