package pii

import (
	"testing"

	"go.uber.org/zap"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := New([]string{"all"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}
	return d
}

func TestDetect(t *testing.T) {
	d := newTestDetector(t)

	t.Run("EmptyInput", func(t *testing.T) {
		if matches := d.Detect(""); len(matches) != 0 {
			t.Errorf("Expected no matches for empty input, got %d", len(matches))
		}
	})

	t.Run("NoPII", func(t *testing.T) {
		if matches := d.Detect("The quick brown fox jumps over the lazy dog"); len(matches) != 0 {
			t.Errorf("Expected no matches for plain text, got %d", len(matches))
		}
	})

	t.Run("Email", func(t *testing.T) {
		text := "Contact me at john.doe@company.com"
		matches := d.Detect(text)
		if len(matches) != 1 {
			t.Fatalf("Expected 1 match, got %d", len(matches))
		}
		m := matches[0]
		if m.Type != TypeEmail {
			t.Errorf("Expected email match, got %s", m.Type)
		}
		if m.Value != "john.doe@company.com" {
			t.Errorf("Unexpected match value: %q", m.Value)
		}
		if text[m.Start:m.End] != m.Value {
			t.Errorf("Span %d:%d does not slice to the matched value", m.Start, m.End)
		}
	})

	t.Run("ValidSSNBoosted", func(t *testing.T) {
		matches := d.Detect("SSN: 123-45-6789")
		if len(matches) != 1 || matches[0].Type != TypeSSN {
			t.Fatalf("Expected a single SSN match, got %+v", matches)
		}
		if matches[0].Confidence < 0.9 {
			t.Errorf("Valid SSN should have boosted confidence, got %f", matches[0].Confidence)
		}
	})

	t.Run("InvalidSSNBaseConfidence", func(t *testing.T) {
		matches := d.Detect("SSN: 000-12-3456")
		if len(matches) != 1 || matches[0].Type != TypeSSN {
			t.Fatalf("Expected a single SSN-shaped match, got %+v", matches)
		}
		if matches[0].Confidence >= 0.9 {
			t.Errorf("Unissued SSN should keep base confidence, got %f", matches[0].Confidence)
		}
	})

	t.Run("CreditCardLuhn", func(t *testing.T) {
		matches := d.Detect("Card number: 4111111111111111")
		if len(matches) != 1 {
			t.Fatalf("Expected 1 match, got %+v", matches)
		}
		if matches[0].Type != TypeCreditCard {
			t.Errorf("Expected credit card match, got %s", matches[0].Type)
		}
		if matches[0].Confidence < 0.9 {
			t.Errorf("Luhn-valid card should have boosted confidence, got %f", matches[0].Confidence)
		}
	})

	t.Run("SpacedCreditCard", func(t *testing.T) {
		matches := d.Detect("Card: 4111 1111 1111 1111 on file")
		if len(matches) != 1 || matches[0].Type != TypeCreditCard {
			t.Fatalf("Expected a single credit card match, got %+v", matches)
		}
	})

	t.Run("PhoneNumber", func(t *testing.T) {
		matches := d.Detect("Call me at (555) 123-4567 tomorrow")
		if len(matches) != 1 || matches[0].Type != TypePhone {
			t.Fatalf("Expected a single phone match, got %+v", matches)
		}
	})

	t.Run("TooShortPhoneIgnored", func(t *testing.T) {
		if matches := d.Detect("Extension 42"); len(matches) != 0 {
			t.Errorf("Two digits should not match anything, got %+v", matches)
		}
	})

	t.Run("IPv4", func(t *testing.T) {
		matches := d.Detect("Server at 192.168.1.1 responded")
		if len(matches) != 1 || matches[0].Type != TypeIPAddress {
			t.Fatalf("Expected a single IP match, got %+v", matches)
		}
		if matches[0].Confidence < 0.9 {
			t.Errorf("Valid octets should boost confidence, got %f", matches[0].Confidence)
		}
	})

	t.Run("URLWinsOverEmbeddedEmail", func(t *testing.T) {
		matches := d.Detect("See http://user@example.com/path for details")
		if len(matches) != 1 {
			t.Fatalf("Expected 1 match, got %+v", matches)
		}
		if matches[0].Type != TypeURL {
			t.Errorf("URL span should win overlap resolution, got %s", matches[0].Type)
		}
	})

	t.Run("SortedNonOverlapping", func(t *testing.T) {
		text := "Email a@b.com, card 4111111111111111, host 10.0.0.1, https://example.com/x"
		matches := d.Detect(text)
		if len(matches) < 4 {
			t.Fatalf("Expected at least 4 matches, got %d", len(matches))
		}
		for i := 1; i < len(matches); i++ {
			if matches[i].Start < matches[i-1].End {
				t.Errorf("Matches overlap or are unsorted: %+v then %+v", matches[i-1], matches[i])
			}
		}
	})
}

func TestHasPII(t *testing.T) {
	d := newTestDetector(t)

	if d.HasPII("nothing sensitive here") {
		t.Error("Plain text flagged as PII")
	}
	if !d.HasPII("mail me: someone@example.org") {
		t.Error("Email not flagged as PII")
	}
	if d.HasPII("") {
		t.Error("Empty input flagged as PII")
	}
}

func TestDetectTypes(t *testing.T) {
	d := newTestDetector(t)

	types := d.DetectTypes("Email: a@b.com, SSN: 123-45-6789")
	if !types.Contains(TypeEmail) || !types.Contains(TypeSSN) {
		t.Errorf("Expected email and ssn, got %v", types)
	}
	if len(types) != 2 {
		t.Errorf("Expected exactly 2 types, got %v", types)
	}
}

func TestUnknownDetectorRejected(t *testing.T) {
	if _, err := New([]string{"palm_print"}, zap.NewNop()); err == nil {
		t.Error("Expected error for unknown detector name")
	}
}

func TestTypePriorityOrder(t *testing.T) {
	if TypeSSN.Priority() >= TypeCreditCard.Priority() {
		t.Error("SSN should outrank credit card")
	}
	if TypeIPAddress.Priority() >= TypeURL.Priority() {
		t.Error("IP address should outrank URL")
	}
}
