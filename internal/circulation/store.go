package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	platformdb "SIGB-backend/internal/platform/db"
)

type LedgerStore interface {
	ResolveBorrower(ctx context.Context, username string) (int64, error)
	ExecRegisterLoan(ctx context.Context, m *Loan) error
	ExecCloseLoan(ctx context.Context, loanID int64, returnedAt time.Time, fineCents int64) error
	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)
	GetLoanByULID(ctx context.Context, ulid string) (*Loan, error)
	ListLoans(ctx context.Context, f LoanFilter, p Page) ([]LoanRow, int64, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) LedgerStore { return &Store{db: db} }

// ResolveBorrower maps a username to its user id.
func (s *Store) ResolveBorrower(ctx context.Context, username string) (int64, error) {
	const q = `SELECT user_id FROM users WHERE username = ?`
	var id int64
	if err := s.db.QueryRowContext(ctx, q, username).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound("borrower not found")
		}
		return 0, err
	}
	return id, nil
}

// ExecRegisterLoan runs the loan registration as one transaction: lock the
// material row, check stock, decrement, insert the active loan.
func (s *Store) ExecRegisterLoan(ctx context.Context, m *Loan) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const lockQ = `SELECT available_copies FROM materials WHERE material_id = ? FOR UPDATE`
		var available int
		if err := tx.QueryRowContext(ctx, lockQ, m.MaterialID).Scan(&available); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("material not found")
			}
			return err
		}

		if available < 1 {
			return ErrInsufficientStock("no copies available")
		}

		const decQ = `UPDATE materials SET available_copies = available_copies - 1 WHERE material_id = ?`
		res, err := tx.ExecContext(ctx, decQ, m.MaterialID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return ErrInternal("failed to update materials.available_copies")
		}

		const insQ = `
	INSERT INTO loans
	(loan_ulid, user_id, material_id, loan_date, due_date, status, fine_cents)
	VALUES
	(?, ?, ?, ?, ?, 'active', 0)`
		res, err = tx.ExecContext(ctx, insQ, m.LoanULID, m.UserID, m.MaterialID, m.LoanDate, m.DueDate)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		m.LoanID = id
		return nil
	})
}

// ExecCloseLoan runs the return as one transaction: lock the loan row,
// re-check that it is still active, close it and give the copy back.
func (s *Store) ExecCloseLoan(ctx context.Context, loanID int64, returnedAt time.Time, fineCents int64) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const lockQ = `SELECT material_id, status FROM loans WHERE loan_id = ? FOR UPDATE`
		var materialID int64
		var status string
		if err := tx.QueryRowContext(ctx, lockQ, loanID).Scan(&materialID, &status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("loan not found")
			}
			return err
		}

		if status != StatusActive {
			return ErrAlreadyReturned("loan already returned")
		}

		const closeQ = `
	UPDATE loans
	SET status = 'returned', return_date = ?, fine_cents = ?
	WHERE loan_id = ?`
		if _, err := tx.ExecContext(ctx, closeQ, returnedAt, fineCents, loanID); err != nil {
			return err
		}

		// the available < total guard keeps the stock invariant even if a
		// loan row were closed twice by hand
		const incQ = `
	UPDATE materials
	SET available_copies = available_copies + 1
	WHERE material_id = ? AND available_copies < total_copies`
		res, err := tx.ExecContext(ctx, incQ, materialID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return ErrInternal("failed to update materials.available_copies")
		}
		return nil
	})
}

const loanColumns = `loan_id, loan_ulid, user_id, material_id, loan_date, due_date, return_date, status, fine_cents`

func (s *Store) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	q := fmt.Sprintf(`SELECT %s FROM loans WHERE loan_id = ?`, loanColumns)
	return s.scanLoan(s.db.QueryRowContext(ctx, q, loanID))
}

func (s *Store) GetLoanByULID(ctx context.Context, ulid string) (*Loan, error) {
	q := fmt.Sprintf(`SELECT %s FROM loans WHERE loan_ulid = ?`, loanColumns)
	return s.scanLoan(s.db.QueryRowContext(ctx, q, ulid))
}

func (s *Store) scanLoan(row *sql.Row) (*Loan, error) {
	var m Loan
	err := row.Scan(
		&m.LoanID, &m.LoanULID, &m.UserID, &m.MaterialID,
		&m.LoanDate, &m.DueDate, &m.ReturnDate, &m.Status, &m.FineCents,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound("loan not found")
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListLoans(ctx context.Context, f LoanFilter, p Page) ([]LoanRow, int64, error) {
	sb := strings.Builder{}
	sb.WriteString(`
	SELECT
	l.loan_id, l.loan_ulid, l.user_id, l.material_id, l.loan_date, l.due_date, l.return_date, l.status, l.fine_cents,
	u.username, m.title
	FROM loans l
	JOIN users u ON u.user_id = l.user_id
	JOIN materials m ON m.material_id = l.material_id
	WHERE 1=1`)

	args := []any{}
	if f.BorrowerUsername != nil {
		sb.WriteString(` AND u.username = ?`)
		args = append(args, *f.BorrowerUsername)
	}
	if f.MaterialID != nil {
		sb.WriteString(` AND l.material_id = ?`)
		args = append(args, *f.MaterialID)
	}
	if f.Status != nil {
		sb.WriteString(` AND l.status = ?`)
		args = append(args, *f.Status)
	}

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	sb.WriteString(fmt.Sprintf(` ORDER BY l.loan_date %s`, order))
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []LoanRow
	for rows.Next() {
		var r LoanRow
		if err := rows.Scan(
			&r.Loan.LoanID, &r.Loan.LoanULID, &r.Loan.UserID, &r.Loan.MaterialID,
			&r.Loan.LoanDate, &r.Loan.DueDate, &r.Loan.ReturnDate, &r.Loan.Status, &r.Loan.FineCents,
			&r.BorrowerUsername, &r.MaterialTitle,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	cb := strings.Builder{}
	cb.WriteString(`SELECT COUNT(*) FROM loans l JOIN users u ON u.user_id = l.user_id WHERE 1=1`)
	argsCnt := []any{}
	if f.BorrowerUsername != nil {
		cb.WriteString(` AND u.username = ?`)
		argsCnt = append(argsCnt, *f.BorrowerUsername)
	}
	if f.MaterialID != nil {
		cb.WriteString(` AND l.material_id = ?`)
		argsCnt = append(argsCnt, *f.MaterialID)
	}
	if f.Status != nil {
		cb.WriteString(` AND l.status = ?`)
		argsCnt = append(argsCnt, *f.Status)
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cb.String(), argsCnt...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}
