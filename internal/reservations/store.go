package reservations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	platformdb "SIGB-backend/internal/platform/db"
)

type ReservationStore interface {
	ResolveBorrower(ctx context.Context, username string) (int64, error)
	ExecReserve(ctx context.Context, m *Reservation) error
	ExecCancel(ctx context.Context, reservationID int64, actorUserID int64, actorIsStaff bool) error
	GetByID(ctx context.Context, reservationID int64) (*Reservation, error)
	GetByULID(ctx context.Context, ulid string) (*Reservation, error)
	List(ctx context.Context, f ReservationFilter, p Page) ([]ReservationRow, int64, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) ReservationStore { return &Store{db: db} }

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

// ExecReserve registers a pending reservation in one transaction. The
// material row lock serializes the stock check against concurrent loans and
// returns; the pending-row check enforces one reservation per pair.
func (s *Store) ExecReserve(ctx context.Context, m *Reservation) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const lockQ = `SELECT available_copies FROM materials WHERE material_id = ? FOR UPDATE`
		var available int
		if err := tx.QueryRowContext(ctx, lockQ, m.MaterialID).Scan(&available); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("material not found")
			}
			return err
		}

		if available > 0 {
			return ErrMaterialAvailable("copies are available, borrow instead of reserving")
		}

		const dupQ = `
	SELECT COUNT(*) FROM reservations
	WHERE user_id = ? AND material_id = ? AND status = 'pending'`
		var pending int
		if err := tx.QueryRowContext(ctx, dupQ, m.UserID, m.MaterialID).Scan(&pending); err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicateReservation("a pending reservation already exists for this material")
		}

		const insQ = `
	INSERT INTO reservations
	(reservation_ulid, user_id, material_id, reserved_at, status)
	VALUES
	(?, ?, ?, ?, 'pending')`
		res, err := tx.ExecContext(ctx, insQ, m.ReservationULID, m.UserID, m.MaterialID, m.ReservedAt)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		m.ReservationID = id
		return nil
	})
}

// ExecCancel flips a pending reservation to cancelled. Readers may only
// cancel their own rows; staff may cancel any.
func (s *Store) ExecCancel(ctx context.Context, reservationID int64, actorUserID int64, actorIsStaff bool) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const lockQ = `SELECT user_id, status FROM reservations WHERE reservation_id = ? FOR UPDATE`
		var userID int64
		var status string
		if err := tx.QueryRowContext(ctx, lockQ, reservationID).Scan(&userID, &status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("reservation not found")
			}
			return err
		}

		if !actorIsStaff && userID != actorUserID {
			return ErrNotFound("reservation not found")
		}
		if status != StatusPending {
			return ErrConflict("reservation is not pending")
		}

		const q = `UPDATE reservations SET status = 'cancelled' WHERE reservation_id = ?`
		res, err := tx.ExecContext(ctx, q, reservationID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return ErrInternal("failed to update reservation status")
		}
		return nil
	})
}

const reservationColumns = `reservation_id, reservation_ulid, user_id, material_id, reserved_at, status`

func (s *Store) GetByID(ctx context.Context, reservationID int64) (*Reservation, error) {
	q := fmt.Sprintf(`SELECT %s FROM reservations WHERE reservation_id = ?`, reservationColumns)
	return s.scanReservation(s.db.QueryRowContext(ctx, q, reservationID))
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*Reservation, error) {
	q := fmt.Sprintf(`SELECT %s FROM reservations WHERE reservation_ulid = ?`, reservationColumns)
	return s.scanReservation(s.db.QueryRowContext(ctx, q, ulid))
}

func (s *Store) scanReservation(row *sql.Row) (*Reservation, error) {
	var m Reservation
	err := row.Scan(
		&m.ReservationID, &m.ReservationULID, &m.UserID, &m.MaterialID, &m.ReservedAt, &m.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound("reservation not found")
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) List(ctx context.Context, f ReservationFilter, p Page) ([]ReservationRow, int64, error) {
	sb := strings.Builder{}
	sb.WriteString(`
	SELECT
	r.reservation_id, r.reservation_ulid, r.user_id, r.material_id, r.reserved_at, r.status,
	u.username, m.title
	FROM reservations r
	JOIN users u ON u.user_id = r.user_id
	JOIN materials m ON m.material_id = r.material_id
	WHERE 1=1`)

	args := []any{}
	if f.BorrowerUsername != nil {
		sb.WriteString(` AND u.username = ?`)
		args = append(args, *f.BorrowerUsername)
	}
	if f.MaterialID != nil {
		sb.WriteString(` AND r.material_id = ?`)
		args = append(args, *f.MaterialID)
	}
	if f.Status != nil {
		sb.WriteString(` AND r.status = ?`)
		args = append(args, *f.Status)
	}

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	sb.WriteString(fmt.Sprintf(` ORDER BY r.reserved_at %s`, order))
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

	var out []ReservationRow
	for rows.Next() {
		var r ReservationRow
		if err := rows.Scan(
			&r.Reservation.ReservationID, &r.Reservation.ReservationULID, &r.Reservation.UserID,
			&r.Reservation.MaterialID, &r.Reservation.ReservedAt, &r.Reservation.Status,
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
	cb.WriteString(`SELECT COUNT(*) FROM reservations r JOIN users u ON u.user_id = r.user_id WHERE 1=1`)
	argsCnt := []any{}
	if f.BorrowerUsername != nil {
		cb.WriteString(` AND u.username = ?`)
		argsCnt = append(argsCnt, *f.BorrowerUsername)
	}
	if f.MaterialID != nil {
		cb.WriteString(` AND r.material_id = ?`)
		argsCnt = append(argsCnt, *f.MaterialID)
	}
	if f.Status != nil {
		cb.WriteString(` AND r.status = ?`)
		argsCnt = append(argsCnt, *f.Status)
	}
	var total int64
	if err := s.db.QueryRowContext(ctx, cb.String(), argsCnt...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}
