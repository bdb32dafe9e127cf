package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestClassifySchedule(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    Schedule
	}{
		{"Subscriptions keyword", "Subscriptions: Cubs January 25", ScheduleSubscriptions},
		{"Activities keyword", "Activities: 2024 Cubs Camping Trip", ScheduleActivities},
		{"No known keyword", "Donations: general fund", ScheduleUnclassified},
		{"Empty description", "", ScheduleUnclassified},
		{"Keyword embedded mid-string", "2024 Activities: Scouts Hike", ScheduleActivities},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySchedule(tt.description); got != tt.expected {
				t.Errorf("ClassifySchedule(%q) = %v, want %v", tt.description, got, tt.expected)
			}
		})
	}
}

func TestSchedule_Rank(t *testing.T) {
	if ScheduleActivities.Rank() >= ScheduleSubscriptions.Rank() {
		t.Errorf("Activities rank %d should precede Subscriptions rank %d",
			ScheduleActivities.Rank(), ScheduleSubscriptions.Rank())
	}
	if ScheduleUnclassified.Rank() <= ScheduleSubscriptions.Rank() {
		t.Errorf("Unclassified rank %d should follow Subscriptions rank %d",
			ScheduleUnclassified.Rank(), ScheduleSubscriptions.Rank())
	}
}

func TestSchedule_IsValid(t *testing.T) {
	tests := []struct {
		schedule Schedule
		valid    bool
	}{
		{ScheduleActivities, true},
		{ScheduleSubscriptions, true},
		{ScheduleUnclassified, false},
		{"Gift Aid", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.schedule), func(t *testing.T) {
			if got := tt.schedule.IsValid(); got != tt.valid {
				t.Errorf("Schedule.IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestSection_Rank(t *testing.T) {
	tests := []struct {
		section  Section
		expected int
	}{
		{SectionSquirrels, 1},
		{SectionBeavers, 2},
		{SectionCubs, 3},
		{SectionScouts, 4},
		{Section("Explorers"), 5},
		{Section(""), 5},
	}

	for _, tt := range tests {
		t.Run(string(tt.section), func(t *testing.T) {
			if got := tt.section.Rank(); got != tt.expected {
				t.Errorf("Section.Rank() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestSection_IsKnown(t *testing.T) {
	if !SectionCubs.IsKnown() {
		t.Error("Cubs should be a known section")
	}
	if Section("Explorers").IsKnown() {
		t.Error("Explorers should not be a known section")
	}
}

func TestRawTransaction_Validate(t *testing.T) {
	valid := RawTransaction{
		Description: "Subscriptions: Cubs January 25",
		ArrivalDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	missingDescription := RawTransaction{ArrivalDate: valid.ArrivalDate}
	if err := missingDescription.Validate(); err == nil {
		t.Error("Validate() expected error for empty description")
	}

	missingDate := RawTransaction{Description: "Subscriptions: Cubs January"}
	if err := missingDate.Validate(); err == nil {
		t.Error("Validate() expected error for zero arrival date")
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		wantError bool
	}{
		{"Plain decimal", "12.34", "12.34", false},
		{"Pound symbol stripped", "£12.34", "12.34", false},
		{"Thousand separator stripped", "1,234.50", "1234.5", false},
		{"Negative amount", "-3.00", "-3", false},
		{"Empty string", "", "", true},
		{"Not a number", "abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDecimalFromString(tt.input)

			if tt.wantError {
				if err == nil {
					t.Fatalf("ParseDecimalFromString(%q) expected error", tt.input)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseDecimalFromString(%q) unexpected error: %v", tt.input, err)
			}
			expected, _ := decimal.NewFromString(tt.expected)
			if !d.Equal(expected) {
				t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tt.input, d, expected)
			}
		})
	}
}

func TestParseDateWithFormats(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  time.Time
		wantError bool
	}{
		{"ISO export date", "2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"UK short date", "05/03/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"Report display date", "05-Mar-2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"Empty string", "", time.Time{}, true},
		{"Garbage", "not-a-date", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateWithFormats(tt.input)

			if tt.wantError {
				if err == nil {
					t.Fatalf("ParseDateWithFormats(%q) expected error", tt.input)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseDateWithFormats(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("ParseDateWithFormats(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
