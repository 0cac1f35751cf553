package agronomy

import (
	"testing"
	"time"
)

// TestClassifyStage tests the stage boundaries
func TestClassifyStage(t *testing.T) {
	today := time.Date(2025, 6, 15, 14, 30, 0, 0, time.Local)

	tests := []struct {
		name          string
		daysAgo       int
		expectedStage Stage
	}{
		{name: "sown today", daysAgo: 0, expectedStage: StageInitial},
		{name: "last initial day", daysAgo: 29, expectedStage: StageInitial},
		{name: "first mid-season day", daysAgo: 30, expectedStage: StageMidSeason},
		{name: "last mid-season day", daysAgo: 69, expectedStage: StageMidSeason},
		{name: "first late-season day", daysAgo: 70, expectedStage: StageLateSeason},
		{name: "long after sowing", daysAgo: 400, expectedStage: StageLateSeason},
		{name: "sowing date in the future", daysAgo: -5, expectedStage: StageInitial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sowing := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -tt.daysAgo)
			stage, days := ClassifyStage(sowing, today)
			if stage != tt.expectedStage {
				t.Errorf("ClassifyStage(%d days ago) stage = %q, expected %q", tt.daysAgo, stage, tt.expectedStage)
			}
			if days != tt.daysAgo {
				t.Errorf("ClassifyStage(%d days ago) days = %d, expected %d", tt.daysAgo, days, tt.daysAgo)
			}
		})
	}
}

// TestClassifyStage_Monotonic checks that the stage never goes back as days increase
func TestClassifyStage_Monotonic(t *testing.T) {
	sowing := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	previous := -1
	for offset := -10; offset <= 150; offset++ {
		stage, _ := ClassifyStage(sowing, sowing.AddDate(0, 0, offset))
		if stage.Index() < previous {
			t.Fatalf("stage went back at offset %d: %q", offset, stage)
		}
		previous = stage.Index()
	}
}

func TestClassifyStage_SameInputsSameOutput(t *testing.T) {
	sowing := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	stage1, days1 := ClassifyStage(sowing, today)
	stage2, days2 := ClassifyStage(sowing, today)
	if stage1 != stage2 || days1 != days2 {
		t.Errorf("expected identical results, got (%q, %d) and (%q, %d)", stage1, days1, stage2, days2)
	}
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("timezone data unavailable")
	}
	from := time.Date(2025, 3, 29, 0, 0, 0, 0, loc)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, loc)

	if got := DaysBetween(from, to); got != 2 {
		t.Errorf("DaysBetween across DST = %d, expected 2", got)
	}
}

// TestDaysBetween_Centuries covers spans longer than time.Duration can hold
func TestDaysBetween_Centuries(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		expected int
	}{
		{
			name:     "sown in 1700",
			from:     time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC),
			to:       time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
			expected: 118704,
		},
		{
			name:     "four centuries",
			from:     time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
			to:       time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 146097,
		},
		{
			name:     "four centuries backwards",
			from:     time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
			to:       time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: -146097,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.from, tt.to); got != tt.expected {
				t.Errorf("DaysBetween() = %d, expected %d", got, tt.expected)
			}
		})
	}

	stage, days := ClassifyStage(tests[0].from, tests[0].to)
	if stage != StageLateSeason || days != 118704 {
		t.Errorf("ClassifyStage(1700-01-01) = %q, %d", stage, days)
	}
}
