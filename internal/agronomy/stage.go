package agronomy

import "time"

// Stage is a crop growth stage
type Stage string

const (
	StageInitial    Stage = "Initial Stage"
	StageMidSeason  Stage = "Mid-Season Stage"
	StageLateSeason Stage = "Late-Season Stage"
)

const secondsPerDay = 24 * 60 * 60

const (
	midSeasonStartDay  = 30
	lateSeasonStartDay = 70
)

// Index returns the position of the stage in a crop coefficient triple
func (s Stage) Index() int {
	switch s {
	case StageInitial:
		return 0
	case StageMidSeason:
		return 1
	default:
		return 2
	}
}

// DaysBetween returns the number of whole calendar days from 'from' to 'to'.
// Only the calendar dates matter, so the result is negative when 'to' precedes 'from'.
func DaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	// Unix seconds avoid the ~292 year limit of time.Duration
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

// ClassifyStage derives the growth stage and days since sowing as of today.
// A sowing date in the future yields negative days and the initial stage.
func ClassifyStage(sowingDate, today time.Time) (Stage, int) {
	days := DaysBetween(sowingDate, today)

	switch {
	case days < midSeasonStartDay:
		return StageInitial, days
	case days < lateSeasonStartDay:
		return StageMidSeason, days
	default:
		return StageLateSeason, days
	}
}
