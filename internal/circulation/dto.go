package circulation

import "time"

type CreateLoanRequest struct {
	BorrowerUsername string `json:"borrower" binding:"required"`
	MaterialID       int64  `json:"material_id" binding:"required"`
}

type CreateReturnRequest struct {
	// either the numeric id or the public ULID identifies the loan
	LoanID   int64  `json:"loan_id"`
	LoanULID string `json:"loan_ulid"`
}

type LoanResponse struct {
	LoanID     int64      `json:"loan_id"`
	LoanULID   string     `json:"loan_ulid"`
	Borrower   string     `json:"borrower,omitempty"`
	MaterialID int64      `json:"material_id"`
	Material   string     `json:"material,omitempty"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     string     `json:"status"`
	FineCents  int64      `json:"fine_cents"`
}

type ReturnResponse struct {
	LoanID     int64     `json:"loan_id"`
	LoanULID   string    `json:"loan_ulid"`
	ReturnedAt time.Time `json:"returned_at"`
	DaysLate   int       `json:"days_late"`
	FineCents  int64     `json:"fine_cents"`
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}
