package filter

import (
	"github.com/framesafe/framesafe/internal/pii"
)

// BlockedMarker replaces the entire text when storage is refused. Storage
// refusal is outright: callers never receive a partially masked version of
// text they are not allowed to persist.
const BlockedMarker = "[BLOCKED: PII storage not permitted]"

// Config is the storage-admission policy. It is replaced wholesale on
// update and never field-mutated while shared.
type Config struct {
	// AllowedPIITypes may be persisted even when PreventPIIStorage is set.
	// The allow-list gates storage only; masking always applies.
	AllowedPIITypes []pii.Type `yaml:"allowed_pii_types" mapstructure:"allowed_pii_types"`
	// PreventPIIStorage refuses storage of text containing disallowed types.
	PreventPIIStorage bool `yaml:"prevent_pii_storage" mapstructure:"prevent_pii_storage"`
	// EnableRealTimeFiltering gates all detection work; when false, text
	// passes through untouched and unexamined.
	EnableRealTimeFiltering bool `yaml:"enable_real_time_filtering" mapstructure:"enable_real_time_filtering"`
}

// DefaultConfig returns the filter defaults: filter everything, store
// nothing that contains PII.
func DefaultConfig() Config {
	return Config{
		AllowedPIITypes:         nil,
		PreventPIIStorage:       true,
		EnableRealTimeFiltering: true,
	}
}

// Result is the outcome of filtering one block of text.
type Result struct {
	OriginalText   string      `json:"-"` // never serialize the raw text
	FilteredText   string      `json:"filteredText"`
	ContainedPII   bool        `json:"containedPII"`
	DetectedTypes  pii.TypeSet `json:"detectedTypes,omitempty"`
	BlockedTypes   pii.TypeSet `json:"blockedTypes,omitempty"`
	MaskingApplied bool        `json:"maskingApplied"`
	ShouldStore    bool        `json:"shouldStore"`
}

// BatchItem pairs a text block with caller metadata (OCR frame ids, bounding
// boxes, confidences) that the filter passes through unchanged.
type BatchItem struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// BatchResult associates a filtering outcome with its item's metadata.
type BatchResult struct {
	Result
	Metadata map[string]string `json:"metadata,omitempty"`
}
