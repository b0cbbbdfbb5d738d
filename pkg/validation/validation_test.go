package validation

import (
	"strings"
	"testing"
)

func TestValidateLivestreamID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "ls_abc-123", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 101), true},
		{"invalid chars", "ls/../etc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLivestreamID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLivestreamID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIdentity(t *testing.T) {
	tests := []struct {
		name     string
		identity string
		wantErr  bool
	}{
		{"valid", "alice", false},
		{"valid email-like", "alice@example.com", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", 129), true},
		{"invalid chars", "alice bob", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentity(tt.identity)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentity(%q) error = %v, wantErr %v", tt.identity, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCommentContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		wantErr bool
	}{
		{"valid", "hello", 500, false},
		{"empty", "", 500, true},
		{"whitespace only", "   ", 500, true},
		{"at the limit", strings.Repeat("a", 500), 500, false},
		{"over the limit", strings.Repeat("a", 501), 500, true},
		{"multibyte under limit", strings.Repeat("å", 500), 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommentContent(tt.content, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCommentContent error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
