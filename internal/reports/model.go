package reports

import "time"

// TopMaterial is one row of the most-borrowed ranking.
type TopMaterial struct {
	MaterialID int64  `json:"material_id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	LoanCount  int64  `json:"loan_count"`
}

// OverdueLoan is an active loan past its due date, with the fine it would
// accrue if returned now.
type OverdueLoan struct {
	LoanID        int64     `json:"loan_id"`
	LoanULID      string    `json:"loan_ulid"`
	Borrower      string    `json:"borrower"`
	MaterialTitle string    `json:"material"`
	DueDate       time.Time `json:"due_date"`
	DaysLate      int       `json:"days_late"`
	AccruedFine   int64     `json:"accrued_fine_cents"`
}
