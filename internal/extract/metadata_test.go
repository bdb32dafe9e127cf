package extract

import (
	"testing"

	"payout-reporting-service/pkg/errors"
)

func TestSplitReference(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		expected  RefCodes
		wantError bool
	}{
		{
			name:      "Well-formed reference",
			reference: "PC1 - SUB - SEC3",
			expected:  RefCodes{PaymentCode: "PC1", ScheduleCode: "SUB", SectionCode: "SEC3"},
		},
		{
			name:      "Unpadded segments",
			reference: "A12-ACT-SQ",
			expected:  RefCodes{PaymentCode: "A12", ScheduleCode: "ACT", SectionCode: "SQ"},
		},
		{
			name:      "Too few segments",
			reference: "PC1 - SUB",
			wantError: true,
		},
		{
			name:      "Too many segments",
			reference: "PC1 - SUB - SEC3 - EXTRA",
			wantError: true,
		},
		{
			name:      "Empty string",
			reference: "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes, err := SplitReference(tt.reference)

			if tt.wantError {
				if err == nil {
					t.Fatalf("SplitReference(%q) expected error, got nil", tt.reference)
				}
				if !errors.IsCode(err, errors.CodeMalformedReference) {
					t.Errorf("SplitReference(%q) error code = %v, want malformed_reference", tt.reference, err)
				}
				if codes != (RefCodes{}) {
					t.Errorf("SplitReference(%q) codes = %+v, want zero value", tt.reference, codes)
				}
				return
			}

			if err != nil {
				t.Fatalf("SplitReference(%q) unexpected error: %v", tt.reference, err)
			}
			if codes != tt.expected {
				t.Errorf("SplitReference(%q) = %+v, want %+v", tt.reference, codes, tt.expected)
			}
		})
	}
}

func TestCleanMemberName(t *testing.T) {
	tests := []struct {
		name     string
		member   string
		expected string
	}{
		{"Name with member number", "Jane Doe (12345)", "Jane Doe"},
		{"Name without parenthesis", "Jane Doe", "Jane Doe"},
		{"Whitespace trimmed", "  Jane Doe  ", "Jane Doe"},
		{"Parenthesis first", "(12345)", ""},
		{"Empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanMemberName(tt.member); got != tt.expected {
				t.Errorf("CleanMemberName(%q) = %q, want %q", tt.member, got, tt.expected)
			}
		})
	}
}
