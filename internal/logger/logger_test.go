package logger

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("JSONFormat", func(t *testing.T) {
		log, err := New(Config{Level: "info", Format: "json"})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		log.Info("startup")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		if _, err := New(Config{Level: "loud", Format: "json"}); err == nil {
			t.Error("Expected error for unknown level")
		}
	})
}

func TestTextDigest(t *testing.T) {
	text := "SSN: 123-45-6789"
	field := TextDigest(text)

	if field.Key != "text_digest" {
		t.Errorf("Unexpected field key: %s", field.Key)
	}
	if strings.Contains(field.String, "123-45-6789") {
		t.Errorf("Digest leaks the original text: %s", field.String)
	}
	if len(field.String) != 16 {
		t.Errorf("Expected 16 hex characters, got %q", field.String)
	}
	if again := TextDigest(text); again.String != field.String {
		t.Errorf("Digest not deterministic: %s vs %s", field.String, again.String)
	}
	if other := TextDigest("different"); other.String == field.String {
		t.Error("Distinct texts should not share a digest")
	}
}
