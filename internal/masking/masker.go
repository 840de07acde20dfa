package masking

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/framesafe/framesafe/internal/pii"
)

const (
	redactMarker = "[REDACTED]"
	maskChar     = "*"
	// fixedMaskLen is the asterisk run length when lengths are not preserved.
	fixedMaskLen = 8
	// hashMarkerDigits is the digest prefix length embedded in hash markers.
	hashMarkerDigits = 12
)

var placeholders = map[pii.Type]string{
	pii.TypeEmail:      "[EMAIL]",
	pii.TypePhone:      "[PHONE]",
	pii.TypeSSN:        "[SSN]",
	pii.TypeCreditCard: "[CREDIT_CARD]",
	pii.TypeIPAddress:  "[IP_ADDRESS]",
	pii.TypeURL:        "[URL]",
}

// Masker rewrites detected PII spans according to a masking configuration.
// It is stateless and safe for concurrent use.
type Masker struct {
	detector *pii.Detector
	logger   *zap.Logger
}

// New creates a masker backed by the given detector.
func New(detector *pii.Detector, log *zap.Logger) *Masker {
	return &Masker{detector: detector, logger: log}
}

// Mask detects PII in text and rewrites every match per the configured
// strategy. The output is built in a single left-to-right pass over the
// original string, so earlier length-changing substitutions never invalidate
// later offsets. Masking the same text with the same config is
// byte-deterministic.
func (m *Masker) Mask(text string, cfg Config) Result {
	result := Result{
		MaskedText: text,
		MaskingMap: make(map[pii.Type]int),
	}

	matches := m.detector.Detect(text)
	if len(matches) == 0 {
		if len(text) > 0 {
			result.PreservedRanges = []Span{{Start: 0, End: len(text)}}
		}
		return result
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0

	for _, match := range matches {
		if match.Start > last {
			b.WriteString(text[last:match.Start])
			result.PreservedRanges = append(result.PreservedRanges, Span{Start: last, End: match.Start})
		}

		end := match.End
		if cfg.strategyFor(match.Type) == StrategyRemove {
			end = collapseSeparator(text, match.Start, match.End)
		} else {
			b.WriteString(m.maskValue(match, cfg))
		}

		result.MaskedCount++
		result.MaskingMap[match.Type]++
		last = end
	}

	if last < len(text) {
		b.WriteString(text[last:])
		result.PreservedRanges = append(result.PreservedRanges, Span{Start: last, End: len(text)})
	}

	result.MaskedText = b.String()

	m.logger.Debug("Text masked",
		zap.Int("matches", result.MaskedCount),
		zap.Int("input_len", len(text)),
		zap.Int("output_len", len(result.MaskedText)),
	)

	return result
}

// NeedsMasking reports whether text contains maskable PII, stopping at the
// first match without building a full result.
func (m *Masker) NeedsMasking(text string) bool {
	return m.detector.HasPII(text)
}

// Preview computes the substitution each detected match would receive,
// without rewriting anything or emitting side effects.
func (m *Masker) Preview(text string, cfg Config) []Preview {
	matches := m.detector.Detect(text)
	previews := make([]Preview, 0, len(matches))
	for _, match := range matches {
		value := ""
		if cfg.strategyFor(match.Type) != StrategyRemove {
			value = m.maskValue(match, cfg)
		}
		previews = append(previews, Preview{Match: match, MaskedValue: value})
	}
	return previews
}

// maskValue renders the replacement for a single match.
func (m *Masker) maskValue(match pii.Match, cfg Config) string {
	switch cfg.strategyFor(match.Type) {
	case StrategyHash:
		return hashMarker(match.Value, cfg.HashKey)
	case StrategyAsterisk:
		if cfg.PreserveLength {
			return strings.Repeat(maskChar, utf8.RuneCountInString(match.Value))
		}
		return strings.Repeat(maskChar, fixedMaskLen)
	case StrategyPlaceholder:
		if tag, ok := placeholders[match.Type]; ok {
			return tag
		}
		return redactMarker
	case StrategyPartial:
		return partialMask(match, cfg)
	default:
		return redactMarker
	}
}

// hashMarker renders a fixed-format marker embedding a keyed digest of the
// span. Identical input and key always produce an identical marker.
func hashMarker(value, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(value))
	digest := hex.EncodeToString(mac.Sum(nil))
	return "[HASH:" + digest[:hashMarkerDigits] + "]"
}

// partialMask retains a recognizable fragment of the span: the domain for
// email addresses, the last four digits for numeric identifiers, and a
// trailing PartialRatio share of runes for everything else. At least one
// character is always masked.
func partialMask(match pii.Match, cfg Config) string {
	value := match.Value

	switch match.Type {
	case pii.TypeEmail:
		if at := strings.LastIndexByte(value, '@'); at > 0 {
			return strings.Repeat(maskChar, utf8.RuneCountInString(value[:at])) + value[at:]
		}
	case pii.TypePhone, pii.TypeCreditCard, pii.TypeSSN:
		return maskDigitsExceptLast(value, 4)
	}

	runes := []rune(value)
	keep := int(cfg.PartialRatio * float64(len(runes)))
	if keep >= len(runes) {
		keep = len(runes) - 1
	}
	if keep < 0 {
		keep = 0
	}
	return strings.Repeat(maskChar, len(runes)-keep) + string(runes[len(runes)-keep:])
}

// maskDigitsExceptLast masks every digit but the trailing n, preserving
// separator characters in place.
func maskDigitsExceptLast(value string, n int) string {
	total := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			total++
		}
	}

	var b strings.Builder
	b.Grow(len(value))
	seen := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			seen++
			if seen <= total-n {
				b.WriteString(maskChar)
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collapseSeparator extends a removed span over one adjoining separator when
// both neighbors are separators, so the surviving text does not end up with a
// doubled space or delimiter.
func collapseSeparator(text string, start, end int) int {
	next, size := utf8.DecodeRuneInString(text[end:])
	if size == 0 || !isSeparator(next) {
		return end
	}

	if start == 0 {
		return end + size
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	if isSeparator(prev) {
		return end + size
	}
	return end
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ',', ';', ':', '-', '/':
		return true
	}
	return false
}
