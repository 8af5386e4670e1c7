package circulation

import "time"

// DefaultFineRatePerDay is the fallback fine rate in currency minor units
// per late day.
const DefaultFineRatePerDay int64 = 500

// LateFine computes the calendar days a return is past its due date and the
// resulting fine. Returning on or before the due date yields zero for both.
func LateFine(dueDate, returnedAt time.Time, ratePerDay int64) (daysLate int, fineCents int64) {
	due := truncateToDate(dueDate)
	ret := truncateToDate(returnedAt)

	days := int(ret.Sub(due).Hours() / 24)
	if days <= 0 {
		return 0, 0
	}
	return days, int64(days) * ratePerDay
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
