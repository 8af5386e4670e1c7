package reports

import (
	"context"
	"database/sql"
	"time"

	platformdb "SIGB-backend/internal/platform/db"
)

type ReportStore interface {
	TopMaterials(ctx context.Context, limit int) ([]TopMaterial, error)
	OverdueLoans(ctx context.Context, asOf time.Time) ([]OverdueLoan, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) ReportStore { return &Store{db: db} }

func (s *Store) TopMaterials(ctx context.Context, limit int) ([]TopMaterial, error) {
	var out []TopMaterial
	err := platformdb.ReadOnly(ctx, s.db, func(ctx context.Context, tx platformdb.DBTX) error {
		const q = `
	SELECT m.material_id, m.title, a.name, COUNT(l.loan_id) AS loan_count
	FROM loans l
	JOIN materials m ON m.material_id = l.material_id
	JOIN authors a ON a.author_id = m.author_id
	GROUP BY m.material_id, m.title, a.name
	ORDER BY loan_count DESC, m.title ASC
	LIMIT ?`

		rows, err := tx.QueryContext(ctx, q, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r TopMaterial
			if err := rows.Scan(&r.MaterialID, &r.Title, &r.Author, &r.LoanCount); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) OverdueLoans(ctx context.Context, asOf time.Time) ([]OverdueLoan, error) {
	var out []OverdueLoan
	err := platformdb.ReadOnly(ctx, s.db, func(ctx context.Context, tx platformdb.DBTX) error {
		const q = `
	SELECT l.loan_id, l.loan_ulid, u.username, m.title, l.due_date
	FROM loans l
	JOIN users u ON u.user_id = l.user_id
	JOIN materials m ON m.material_id = l.material_id
	WHERE l.status = 'active' AND l.due_date < ?
	ORDER BY l.due_date ASC`

		rows, err := tx.QueryContext(ctx, q, asOf)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r OverdueLoan
			if err := rows.Scan(&r.LoanID, &r.LoanULID, &r.Borrower, &r.MaterialTitle, &r.DueDate); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
