package masking

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/framesafe/framesafe/internal/pii"
)

func newTestMasker(t *testing.T) *Masker {
	t.Helper()
	detector, err := pii.New([]string{"all"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}
	return New(detector, zap.NewNop())
}

func TestMaskStrategies(t *testing.T) {
	m := newTestMasker(t)

	t.Run("RedactDefault", func(t *testing.T) {
		result := m.Mask("Contact me at john.doe@company.com", DefaultConfig())
		if strings.Contains(result.MaskedText, "john.doe@company.com") {
			t.Errorf("Masked text still contains the address: %q", result.MaskedText)
		}
		if !strings.Contains(result.MaskedText, "[REDACTED]") {
			t.Errorf("Expected redact marker, got %q", result.MaskedText)
		}
		if result.MaskedCount != 1 || result.MaskingMap[pii.TypeEmail] != 1 {
			t.Errorf("Unexpected counts: %d %v", result.MaskedCount, result.MaskingMap)
		}
	})

	t.Run("HashDeterministic", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Default = StrategyHash

		first := m.Mask("SSN: 123-45-6789", cfg)
		second := m.Mask("SSN: 123-45-6789", cfg)
		if first.MaskedText != second.MaskedText {
			t.Errorf("Hash masking not deterministic: %q vs %q", first.MaskedText, second.MaskedText)
		}
		if !strings.Contains(first.MaskedText, "[HASH:") {
			t.Errorf("Expected hash marker, got %q", first.MaskedText)
		}
	})

	t.Run("HashKeyChangesMarker", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Default = StrategyHash
		first := m.Mask("a@b.com", cfg)

		cfg.HashKey = "rotated"
		second := m.Mask("a@b.com", cfg)
		if first.MaskedText == second.MaskedText {
			t.Error("Different hash keys should produce different markers")
		}
	})

	t.Run("AsteriskPreserveLength", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Default = StrategyAsterisk
		cfg.PreserveLength = true

		result := m.Mask("mail a@b.com today", cfg)
		want := "mail " + strings.Repeat("*", len("a@b.com")) + " today"
		if result.MaskedText != want {
			t.Errorf("Expected %q, got %q", want, result.MaskedText)
		}
	})

	t.Run("AsteriskFixedLength", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Default = StrategyAsterisk

		result := m.Mask("mail a@b.com today", cfg)
		if result.MaskedText != "mail ******** today" {
			t.Errorf("Expected fixed-length run, got %q", result.MaskedText)
		}
	})

	t.Run("Placeholder", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Strategies[pii.TypeEmail] = StrategyPlaceholder

		result := m.Mask("mail a@b.com today", cfg)
		if result.MaskedText != "mail [EMAIL] today" {
			t.Errorf("Expected type placeholder, got %q", result.MaskedText)
		}
	})

	t.Run("PartialCreditCard", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Strategies[pii.TypeCreditCard] = StrategyPartial

		result := m.Mask("Card number: 4111111111111111", cfg)
		if !strings.HasSuffix(result.MaskedText, "1111") {
			t.Errorf("Last four digits should survive, got %q", result.MaskedText)
		}
		if strings.Contains(result.MaskedText, "4111111111111111") {
			t.Errorf("Full card number survived: %q", result.MaskedText)
		}
	})

	t.Run("PartialEmailKeepsDomain", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Strategies[pii.TypeEmail] = StrategyPartial

		result := m.Mask("john.doe@company.com", cfg)
		if result.MaskedText != "********@company.com" {
			t.Errorf("Expected masked local part, got %q", result.MaskedText)
		}
	})

	t.Run("PartialPhoneKeepsSeparators", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Strategies[pii.TypePhone] = StrategyPartial

		result := m.Mask("call 555-123-4567", cfg)
		if result.MaskedText != "call ***-***-4567" {
			t.Errorf("Expected separator-preserving partial mask, got %q", result.MaskedText)
		}
	})

	t.Run("RemoveCollapsesSeparator", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Strategies[pii.TypePhone] = StrategyRemove

		result := m.Mask("Call 555-123-4567 now", cfg)
		if result.MaskedText != "Call now" {
			t.Errorf("Expected collapsed separator, got %q", result.MaskedText)
		}
		if result.MaskedCount != 1 {
			t.Errorf("Removal should still count as a masked span, got %d", result.MaskedCount)
		}
	})

	t.Run("UnknownStrategyFallsBackToRedact", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Default = Strategy("rot13")

		result := m.Mask("a@b.com", cfg)
		if result.MaskedText != "[REDACTED]" {
			t.Errorf("Expected redact fallback, got %q", result.MaskedText)
		}
	})
}

func TestMaskNoPII(t *testing.T) {
	m := newTestMasker(t)

	result := m.Mask("nothing sensitive here", DefaultConfig())
	if result.MaskedText != "nothing sensitive here" {
		t.Errorf("PII-free text should pass through, got %q", result.MaskedText)
	}
	if result.MaskedCount != 0 {
		t.Errorf("Expected zero masked spans, got %d", result.MaskedCount)
	}
	if len(result.PreservedRanges) != 1 || result.PreservedRanges[0] != (Span{0, len("nothing sensitive here")}) {
		t.Errorf("Expected one full preserved range, got %+v", result.PreservedRanges)
	}
}

func TestPreservedRanges(t *testing.T) {
	m := newTestMasker(t)

	text := "mail a@b.com today"
	result := m.Mask(text, DefaultConfig())
	want := []Span{{0, 5}, {12, len(text)}}
	if len(result.PreservedRanges) != 2 || result.PreservedRanges[0] != want[0] || result.PreservedRanges[1] != want[1] {
		t.Errorf("Expected ranges %+v, got %+v", want, result.PreservedRanges)
	}
}

func TestNeedsMasking(t *testing.T) {
	m := newTestMasker(t)

	if !m.NeedsMasking("reach me at a@b.com") {
		t.Error("Email should need masking")
	}
	if m.NeedsMasking("plain text") {
		t.Error("Plain text should not need masking")
	}
}

func TestPreview(t *testing.T) {
	m := newTestMasker(t)
	cfg := DefaultConfig()
	cfg.Strategies[pii.TypeEmail] = StrategyPlaceholder

	previews := m.Preview("mail a@b.com today", cfg)
	if len(previews) != 1 {
		t.Fatalf("Expected 1 preview, got %d", len(previews))
	}
	if previews[0].Match.Type != pii.TypeEmail || previews[0].MaskedValue != "[EMAIL]" {
		t.Errorf("Unexpected preview: %+v", previews[0])
	}
}
