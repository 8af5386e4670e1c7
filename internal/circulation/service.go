package circulation

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	platformdb "SIGB-backend/internal/platform/db"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type Service struct {
	store      LedgerStore
	clock      Clock
	id         IDGen
	loanPeriod time.Duration
	fineRate   int64
}

func NewService(db *sql.DB, cfg platformdb.CirculationConfig) *Service {
	return &Service{
		store:      NewStore(db),
		clock:      realClock{},
		id:         ulidGen{},
		loanPeriod: time.Duration(cfg.LoanPeriodDays) * 24 * time.Hour,
		fineRate:   cfg.FineRatePerDay,
	}
}

// RegisterLoan lends one copy of a material to a borrower. The stock check
// and decrement happen inside a single store transaction; two concurrent
// loans cannot both take the last copy.
func (s *Service) RegisterLoan(ctx context.Context, req CreateLoanRequest) (*LoanResponse, error) {
	if req.BorrowerUsername == "" {
		return nil, ErrInvalid("borrower is required")
	}
	if req.MaterialID <= 0 {
		return nil, ErrInvalid("material_id must be > 0")
	}

	userID, err := s.store.ResolveBorrower(ctx, req.BorrowerUsername)
	if err != nil {
		return nil, err
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	loan := &Loan{
		LoanULID:   idStr,
		UserID:     userID,
		MaterialID: req.MaterialID,
		LoanDate:   now,
		DueDate:    now.Add(s.loanPeriod),
		Status:     StatusActive,
	}

	if err := s.store.ExecRegisterLoan(ctx, loan); err != nil {
		return nil, err
	}

	resp := buildLoanResponse(loan, req.BorrowerUsername, "")
	return &resp, nil
}

// RegisterReturn closes an active loan, computes the fine and gives the copy
// back to stock. A second return attempt on the same loan is rejected.
func (s *Service) RegisterReturn(ctx context.Context, req CreateReturnRequest) (*ReturnResponse, error) {
	var loan *Loan
	var err error

	switch {
	case req.LoanID > 0:
		loan, err = s.store.GetLoanByID(ctx, req.LoanID)
	case req.LoanULID != "":
		loan, err = s.store.GetLoanByULID(ctx, req.LoanULID)
	default:
		return nil, ErrInvalid("loan_id or loan_ulid is required")
	}
	if err != nil {
		return nil, err
	}

	if loan.Status != StatusActive {
		return nil, ErrAlreadyReturned("loan already returned")
	}

	now := s.clock.Now()
	daysLate, fine := LateFine(loan.DueDate, now, s.fineRate)

	// the store re-checks the status under a row lock, a concurrent return
	// loses with ALREADY_RETURNED
	if err := s.store.ExecCloseLoan(ctx, loan.LoanID, now, fine); err != nil {
		return nil, err
	}

	return &ReturnResponse{
		LoanID:     loan.LoanID,
		LoanULID:   loan.LoanULID,
		ReturnedAt: now,
		DaysLate:   daysLate,
		FineCents:  fine,
	}, nil
}

// GetLoanByKey accepts either the numeric id or the public ULID.
func (s *Service) GetLoanByKey(ctx context.Context, key string) (*LoanResponse, error) {
	if key == "" {
		return nil, ErrInvalid("id or ulid is required")
	}

	var loan *Loan
	var err error
	if id, perr := strconv.ParseInt(key, 10, 64); perr == nil && id > 0 {
		loan, err = s.store.GetLoanByID(ctx, id)
	} else {
		loan, err = s.store.GetLoanByULID(ctx, key)
	}
	if err != nil {
		return nil, err
	}

	resp := buildLoanResponse(loan, "", "")
	return &resp, nil
}

func (s *Service) ListLoans(ctx context.Context, f LoanFilter, p Page) ([]LoanResponse, int64, error) {
	rows, total, err := s.store.ListLoans(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}

	out := make([]LoanResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, buildLoanResponse(&r.Loan, r.BorrowerUsername, r.MaterialTitle))
	}
	return out, total, nil
}

func buildLoanResponse(loan *Loan, borrower, material string) LoanResponse {
	resp := LoanResponse{
		LoanID:     loan.LoanID,
		LoanULID:   loan.LoanULID,
		Borrower:   borrower,
		MaterialID: loan.MaterialID,
		Material:   material,
		LoanDate:   loan.LoanDate,
		DueDate:    loan.DueDate,
		Status:     loan.Status,
		FineCents:  loan.FineCents,
	}
	if loan.ReturnDate.Valid {
		val := loan.ReturnDate.Time
		resp.ReturnDate = &val
	}
	return resp
}
