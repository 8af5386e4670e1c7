package circulation

import (
	"database/sql"
	"time"
)

const (
	StatusActive   = "active"
	StatusReturned = "returned"
)

// Loan is one row of the loans table. A loan is mutated exactly once, on
// return; afterwards it is immutable.
type Loan struct {
	LoanID     int64
	LoanULID   string
	UserID     int64
	MaterialID int64
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate sql.NullTime
	Status     string
	FineCents  int64
}

// loan list search conditions
type LoanFilter struct {
	BorrowerUsername *string
	MaterialID       *int64
	Status           *string
}

// LoanRow is a loan joined with borrower and material for listings.
type LoanRow struct {
	Loan
	BorrowerUsername string
	MaterialTitle    string
}
