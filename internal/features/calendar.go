// Package features turns the merged hourly table into the daily modeling
// table and its ordered predictor list.
package features

import (
	"github.com/gridsight/energycast/internal/model"
)

// dayOfWeek maps a date to the Monday=0 convention: Monday=0 ... Sunday=6.
func dayOfWeek(d model.Date) int {
	return (int(d.Time().Weekday()) + 6) % 7
}

// isWeekend reports whether a Monday=0 day-of-week value is Saturday (5)
// or Sunday (6), as a 0/1 flag.
func isWeekend(dow int) int {
	if dow == 5 || dow == 6 {
		return 1
	}
	return 0
}

// applyCalendar fills the calendar-derived columns of a record.
func applyCalendar(r *model.FeatureRecord) {
	r.Month = int(r.Date.Month)
	r.DayOfWeek = dayOfWeek(r.Date)
	r.IsWeekend = isWeekend(r.DayOfWeek)
}
