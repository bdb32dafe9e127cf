// Package extract reconstructs structured fields from the free-text and
// delimited metadata strings of payout export rows.
//
// Export descriptions look like "Subscriptions: Cubs January 25" or
// "Activities: 2024 Cubs Camping Trip": the schedule keyword before the
// colon, then section, payment name and an optional year in no fixed order.
// The extractor pulls out {year, section, payment name} using schedule
// specific rules; the metadata splitter decomposes the dash-delimited
// reference code and the "Name (member-number)" member string.
//
// All functions are pure. Rows with missing pieces degrade to empty fields
// rather than failing, leaving the strictness decision to the caller.
package extract

import (
	"regexp"
	"strings"

	"payout-reporting-service/internal/models"
)

var (
	fullYearPattern  = regexp.MustCompile(`\d{4}`)
	shortYearPattern = regexp.MustCompile(`\d{2}`)
	doubledSpaces    = regexp.MustCompile(` {2,}`)
)

// Fields holds the categorical values extracted from one description.
type Fields struct {
	Section     models.Section
	PaymentName string
	Year        int
}

// ExtractYear scans a description for a year token and returns the year plus
// the description with the matched token stripped.
//
// A 4-digit token is preferred; only the first match is captured and stripped,
// later digit runs remain embedded in the text. When no 4-digit token exists
// the first 2-digit token is interpreted as a short year (00-68 maps to the
// 2000s, 69-99 to the 1900s, matching the export's mixed-year conventions).
// A description with no digit token yields year 0.
func ExtractYear(description string) (int, string) {
	if loc := fullYearPattern.FindStringIndex(description); loc != nil {
		year := atoi(description[loc[0]:loc[1]])
		return year, description[:loc[0]] + description[loc[1]:]
	}

	if loc := shortYearPattern.FindStringIndex(description); loc != nil {
		short := atoi(description[loc[0]:loc[1]])
		year := 1900 + short
		if short <= 68 {
			year = 2000 + short
		}
		return year, description[:loc[0]] + description[loc[1]:]
	}

	return 0, description
}

// atoi converts a digit-only string; inputs are pre-validated by the patterns.
func atoi(digits string) int {
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
	}
	return n
}

// CleanDescription removes parenthesis characters and collapses doubled
// spaces ahead of tokenizing.
func CleanDescription(description string) string {
	description = strings.ReplaceAll(description, "(", "")
	description = strings.ReplaceAll(description, ")", "")
	return doubledSpaces.ReplaceAllString(description, " ")
}

// ExtractFields parses one description belonging to the given schedule
// partition into {section, payment name, year}.
//
// Subscriptions descriptions carry "<keyword>: <section> <payment name>";
// the post-colon segment is whitespace-split with empty tokens discarded.
// Activities descriptions carry "<keyword>: <section> <free text name>";
// the section is the first post-colon token and the payment name is the
// remainder with that leading section token stripped. The leading-token
// strip applies to Activities only; Subscriptions payment names already
// exclude the section.
//
// A description with no colon yields empty section and payment name.
func ExtractFields(description string, schedule models.Schedule) Fields {
	year, rest := ExtractYear(description)
	cleaned := CleanDescription(rest)

	result := Fields{Year: year}

	_, after, found := strings.Cut(cleaned, ":")
	if !found {
		return result
	}

	switch schedule {
	case models.ScheduleSubscriptions:
		tokens := strings.Fields(after)
		if len(tokens) > 0 {
			result.Section = models.Section(tokens[0])
		}
		if len(tokens) > 1 {
			result.PaymentName = tokens[1]
		}
	case models.ScheduleActivities:
		tokens := strings.Fields(after)
		if len(tokens) > 0 {
			result.Section = models.Section(tokens[0])
		}
		if len(tokens) > 1 {
			result.PaymentName = strings.Join(tokens[1:], " ")
		}
	}

	return result
}
