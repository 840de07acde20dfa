package pii

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Detector scans text for PII spans using the built-in recognizer table.
// Detection is stateless: a Detector is safe for concurrent use.
type Detector struct {
	rules   []DetectionRule
	enabled map[Type]bool
	logger  *zap.Logger
}

// New creates a detector with the given recognizer types enabled. The
// special name "all" enables every built-in recognizer.
func New(detectors []string, log *zap.Logger) (*Detector, error) {
	d := &Detector{
		rules:   defaultRules(),
		enabled: make(map[Type]bool),
		logger:  log,
	}

	for _, name := range detectors {
		if name == "all" {
			for _, rule := range d.rules {
				d.enabled[rule.Type] = true
			}
			continue
		}

		found := false
		for _, rule := range d.rules {
			if string(rule.Type) == name {
				d.enabled[rule.Type] = true
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown detector: %s", name)
		}
	}

	log.Info("PII detector initialized",
		zap.Int("total_rules", len(d.rules)),
		zap.Int("enabled_rules", len(d.enabled)),
	)

	return d, nil
}

// Detect scans text and returns non-overlapping matches sorted by start
// offset. Offsets are byte-based. Empty or PII-free input yields an empty
// slice.
func (d *Detector) Detect(text string) []Match {
	if text == "" {
		return nil
	}

	var candidates []Match
	for _, rule := range d.rules {
		if !d.enabled[rule.Type] {
			continue
		}
		for _, span := range rule.Pattern.FindAllStringIndex(text, -1) {
			value := text[span[0]:span[1]]
			confidence := rule.BaseConfidence
			if rule.Validate != nil && rule.Validate(value) {
				confidence = rule.BoostConfidence
			}
			candidates = append(candidates, Match{
				Type:       rule.Type,
				Start:      span[0],
				End:        span[1],
				Value:      value,
				Confidence: confidence,
			})
		}
	}

	matches := resolveOverlaps(candidates)

	if len(matches) > 0 {
		d.logger.Debug("PII detected",
			zap.Int("matches", len(matches)),
			zap.Int("text_len", len(text)),
		)
	}

	return matches
}

// HasPII reports whether text contains at least one recognizable PII span,
// stopping at the first hit.
func (d *Detector) HasPII(text string) bool {
	if text == "" {
		return false
	}
	for _, rule := range d.rules {
		if !d.enabled[rule.Type] {
			continue
		}
		if rule.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// DetectTypes returns the set of PII types present in text.
func (d *Detector) DetectTypes(text string) TypeSet {
	types := make(TypeSet)
	for _, match := range d.Detect(text) {
		types[match.Type] = true
	}
	return types
}

// minConfidence is the admission floor for candidates during overlap
// resolution.
const minConfidence = 0.5

// resolveOverlaps discards losing candidates so the survivors are
// non-overlapping. The total order is: higher confidence, then longer span,
// then earlier type priority. Survivors come back sorted by start offset.
func resolveOverlaps(candidates []Match) []Match {
	if len(candidates) == 0 {
		return nil
	}

	ranked := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence >= minConfidence {
			ranked = append(ranked, c)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if al, bl := a.End-a.Start, b.End-b.Start; al != bl {
			return al > bl
		}
		return a.Type.Priority() < b.Type.Priority()
	})

	var accepted []Match
	for _, candidate := range ranked {
		conflict := false
		for _, winner := range accepted {
			if candidate.Overlaps(winner) {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, candidate)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})
	return accepted
}
