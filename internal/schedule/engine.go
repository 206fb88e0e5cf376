// Package schedule classifies "now" against the counter's recurring weekly
// hours. Classification is a pure function of the rule set and an injected
// instant, so it is testable without a clock.
package schedule

import (
	"fmt"
	"time"

	"github.com/brydenu/blfs-cafe-sub001/internal/models"
)

// StatusCode enumerates the possible answers to "is the counter open?".
type StatusCode string

const (
	StatusOpen                 StatusCode = "open"
	StatusNotOpenedYet         StatusCode = "not-opened-yet"
	StatusClosedBetweenPeriods StatusCode = "closed-between-periods"
	StatusClosedForDay         StatusCode = "closed-for-day"
	StatusNotScheduled         StatusCode = "not-scheduled"
)

// Status is the classification result. NextOpenTime is set only for the
// two "closed but opening later today" cases, formatted like "1:00 PM".
type Status struct {
	Code         StatusCode `json:"status"`
	Message      string     `json:"message"`
	NextOpenTime string     `json:"nextOpenTime,omitempty"`
}

// Classify resolves now into Pacific wall-clock time and compares it with
// the rule for today's weekday. All comparisons are on minute-of-day
// integers derived from the "HH:MM" rule fields.
func Classify(rules []models.ScheduleRule, now time.Time) Status {
	weekday, minute := pacificWallClock(now)

	var rule *models.ScheduleRule
	for i := range rules {
		if rules[i].Weekday == weekday {
			rule = &rules[i]
			break
		}
	}

	if rule == nil || !rule.IsOpen {
		return Status{
			Code:    StatusNotScheduled,
			Message: "We're closed today.",
		}
	}

	open1 := minutesOf(rule.OpenTime1)
	close1 := minutesOf(rule.CloseTime1)
	if open1 < 0 || close1 < 0 {
		return Status{
			Code:    StatusNotScheduled,
			Message: "We're closed today.",
		}
	}

	if minute < open1 {
		return Status{
			Code:         StatusNotOpenedYet,
			Message:      fmt.Sprintf("We're not open yet. We open at %s.", clockLabel(open1)),
			NextOpenTime: clockLabel(open1),
		}
	}

	if minute < close1 {
		return Status{Code: StatusOpen, Message: "We're open!"}
	}

	if !rule.IsSecondPeriodActive {
		return Status{
			Code:    StatusClosedForDay,
			Message: "We're closed for the rest of the day.",
		}
	}

	open2 := minutesOf(rule.OpenTime2)
	close2 := minutesOf(rule.CloseTime2)
	if open2 < 0 || close2 < 0 {
		return Status{
			Code:    StatusClosedForDay,
			Message: "We're closed for the rest of the day.",
		}
	}

	if minute < open2 {
		return Status{
			Code:         StatusClosedBetweenPeriods,
			Message:      fmt.Sprintf("We're closed between shifts. We reopen at %s.", clockLabel(open2)),
			NextOpenTime: clockLabel(open2),
		}
	}

	if minute < close2 {
		return Status{Code: StatusOpen, Message: "We're open!"}
	}

	return Status{
		Code:    StatusClosedForDay,
		Message: "We're closed for the rest of the day.",
	}
}

// pacificWallClock converts an instant to America/Los_Angeles weekday and
// minute-of-day without consulting the timezone database. The offset is
// -8h, or -7h between the second Sunday of March and the first Sunday of
// November; the boundary days are computed for the instant's year.
func pacificWallClock(now time.Time) (weekday, minute int) {
	utc := now.UTC()
	offset := -8 * time.Hour
	if inPacificDaylight(utc) {
		offset = -7 * time.Hour
	}
	local := utc.Add(offset)
	return int(local.Weekday()), local.Hour()*60 + local.Minute()
}

// inPacificDaylight reports whether utc falls inside the Pacific daylight
// saving interval. Transitions happen at 02:00 local: 10:00 UTC on the
// spring-forward day, 09:00 UTC on the fall-back day.
func inPacificDaylight(utc time.Time) bool {
	year := utc.Year()
	start := nthWeekdayOfMonth(year, time.March, time.Sunday, 2).Add(10 * time.Hour)
	end := nthWeekdayOfMonth(year, time.November, time.Sunday, 1).Add(9 * time.Hour)
	return !utc.Before(start) && utc.Before(end)
}

// nthWeekdayOfMonth returns midnight UTC of the nth given weekday in the
// month, e.g. the second Sunday of March.
func nthWeekdayOfMonth(year int, month time.Month, day time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	delta := (int(day) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, delta+(n-1)*7)
}

// minutesOf parses an "HH:MM" rule field into minute-of-day, or -1 if the
// field is empty or malformed.
func minutesOf(hhmm string) int {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return -1
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return -1
	}
	return h*60 + m
}

// clockLabel formats a minute-of-day as "H:MM AM/PM".
func clockLabel(minute int) string {
	h := minute / 60
	m := minute % 60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h = h % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}
