package masking

import "github.com/framesafe/framesafe/internal/pii"

// Strategy names a transformation applied to a matched PII span.
type Strategy string

const (
	StrategyRedact      Strategy = "redact"
	StrategyHash        Strategy = "hash"
	StrategyAsterisk    Strategy = "asterisk"
	StrategyPlaceholder Strategy = "placeholder"
	StrategyPartial     Strategy = "partial"
	StrategyRemove      Strategy = "remove"
)

// knownStrategies guards against misconfigured strategy names.
var knownStrategies = map[Strategy]bool{
	StrategyRedact:      true,
	StrategyHash:        true,
	StrategyAsterisk:    true,
	StrategyPlaceholder: true,
	StrategyPartial:     true,
	StrategyRemove:      true,
}

// Config controls how matched spans are rewritten.
type Config struct {
	// Strategies assigns a strategy per PII type; unmapped types use Default.
	Strategies map[pii.Type]Strategy `yaml:"strategies" mapstructure:"strategies"`
	// Default applies to types without an explicit entry.
	Default Strategy `yaml:"default" mapstructure:"default"`
	// PreserveLength makes asterisk masking emit one mask character per rune
	// of the original span instead of a fixed-length run.
	PreserveLength bool `yaml:"preserve_length" mapstructure:"preserve_length"`
	// PartialRatio is the fraction of trailing characters kept by the partial
	// strategy for types without a dedicated retention rule.
	PartialRatio float64 `yaml:"partial_ratio" mapstructure:"partial_ratio"`
	// HashKey keys the hash-strategy digest. Processes sharing a key produce
	// identical markers for identical input.
	HashKey string `yaml:"hash_key" mapstructure:"hash_key"`
}

// DefaultConfig returns the masking defaults: redact everything, fixed-length
// asterisk runs, a quarter of characters retained by partial masking.
func DefaultConfig() Config {
	return Config{
		Strategies:     map[pii.Type]Strategy{},
		Default:        StrategyRedact,
		PreserveLength: false,
		PartialRatio:   0.25,
		HashKey:        "framesafe-mask-v1",
	}
}

// strategyFor resolves the strategy for a type, falling back to the default
// and finally to redact for unknown names.
func (c Config) strategyFor(t pii.Type) Strategy {
	strategy, ok := c.Strategies[t]
	if !ok {
		strategy = c.Default
	}
	if !knownStrategies[strategy] {
		return StrategyRedact
	}
	return strategy
}

// Span is a half-open byte range into the original text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Result is the outcome of masking one block of text.
type Result struct {
	MaskedText string `json:"maskedText"`
	// MaskedCount is the number of spans rewritten, removals included.
	MaskedCount int `json:"maskedCount"`
	// MaskingMap counts rewritten spans per PII type.
	MaskingMap map[pii.Type]int `json:"maskingMap"`
	// PreservedRanges are the spans of the original text copied verbatim.
	PreservedRanges []Span `json:"preservedRanges"`
}

// Preview pairs a match with the value masking would substitute for it.
type Preview struct {
	Match       pii.Match `json:"match"`
	MaskedValue string    `json:"maskedValue"`
}
