package extract

import (
	"strings"

	"payout-reporting-service/pkg/errors"
)

// RefCodes holds the three sub-codes of a dash-delimited reference string.
type RefCodes struct {
	PaymentCode  string
	ScheduleCode string
	SectionCode  string
}

// SplitReference decomposes a reference-code string of the shape
// "PC1 - SUB - SEC3" into its three trimmed sub-codes.
//
// A string that does not split into exactly three dash-delimited segments is
// malformed: the zero RefCodes value is returned together with an error, and
// the caller decides whether to fail the row or accept the empty codes.
func SplitReference(reference string) (RefCodes, error) {
	segments := strings.Split(reference, "-")
	if len(segments) != 3 {
		return RefCodes{}, errors.NormalizationError(
			errors.CodeMalformedReference,
			reference,
			nil,
		).WithContext("segments", len(segments))
	}

	return RefCodes{
		PaymentCode:  strings.TrimSpace(segments[0]),
		ScheduleCode: strings.TrimSpace(segments[1]),
		SectionCode:  strings.TrimSpace(segments[2]),
	}, nil
}

// CleanMemberName strips the member number from a "Name (member-number)"
// string, returning the trimmed display name. A string without a parenthesis
// is returned trimmed as-is.
func CleanMemberName(member string) string {
	if idx := strings.Index(member, "("); idx >= 0 {
		member = member[:idx]
	}
	return strings.TrimSpace(member)
}
