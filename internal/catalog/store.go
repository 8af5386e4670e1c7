package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	platformdb "SIGB-backend/internal/platform/db"
)

type CatalogStore interface {
	ExecCreateMaterial(ctx context.Context, m *Material, categoryIDs []int64) error
	ExecUpdateMaterial(ctx context.Context, materialID int64, in UpdateMaterialRequest) error
	ExecSetCategories(ctx context.Context, materialID int64, categoryIDs []int64) error
	ExecDeleteMaterial(ctx context.Context, materialID int64) error
	GetMaterial(ctx context.Context, materialID int64) (*MaterialRow, error)
	ListMaterials(ctx context.Context, p Page) ([]MaterialRow, int64, error)
	ListSupport(ctx context.Context) (*SupportLists, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) CatalogStore { return &Store{db: db} }

// ExecCreateMaterial inserts the material and its category links in one
// transaction. available_copies starts equal to total_copies.
func (s *Store) ExecCreateMaterial(ctx context.Context, m *Material, categoryIDs []int64) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const q = `
	INSERT INTO materials
	(title, isbn, publication_year, total_copies, available_copies, author_id, publisher_id)
	VALUES
	(?, ?, ?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q,
			m.Title, m.ISBN, m.PublicationYear, m.TotalCopies, m.AvailableCopies, m.AuthorID, m.PublisherID,
		)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		m.MaterialID = id

		return replaceCategories(ctx, tx, m.MaterialID, categoryIDs)
	})
}

// ExecUpdateMaterial updates material fields and, when a category set is
// given, replaces the links, all in one transaction. A total_copies change
// moves available_copies by the same delta so copies out on loan stay
// accounted for.
func (s *Store) ExecUpdateMaterial(ctx context.Context, materialID int64, in UpdateMaterialRequest) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const lockQ = `SELECT total_copies, available_copies FROM materials WHERE material_id = ? FOR UPDATE`
		var total, available int
		if err := tx.QueryRowContext(ctx, lockQ, materialID).Scan(&total, &available); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("material not found")
			}
			return err
		}

		sets := []string{}
		args := []any{}
		if in.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *in.Title)
		}
		if in.ISBN != nil {
			sets = append(sets, "isbn = ?")
			args = append(args, *in.ISBN)
		}
		if in.PublicationYear != nil {
			sets = append(sets, "publication_year = ?")
			args = append(args, *in.PublicationYear)
		}
		if in.AuthorID != nil {
			sets = append(sets, "author_id = ?")
			args = append(args, *in.AuthorID)
		}
		if in.PublisherID != nil {
			sets = append(sets, "publisher_id = ?")
			args = append(args, *in.PublisherID)
		}
		if in.TotalCopies != nil {
			newAvailable := available + (*in.TotalCopies - total)
			if newAvailable < 0 {
				return ErrInvalid("total_copies cannot drop below the copies out on loan")
			}
			sets = append(sets, "total_copies = ?", "available_copies = ?")
			args = append(args, *in.TotalCopies, newAvailable)
		}

		if len(sets) > 0 {
			q := fmt.Sprintf(`UPDATE materials SET %s WHERE material_id = ?`, strings.Join(sets, ", "))
			args = append(args, materialID)
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return err
			}
		}

		if in.CategoryIDs != nil {
			return replaceCategories(ctx, tx, materialID, *in.CategoryIDs)
		}
		return nil
	})
}

// ExecSetCategories replaces the whole category set for a material.
func (s *Store) ExecSetCategories(ctx context.Context, materialID int64, categoryIDs []int64) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const q = `SELECT material_id FROM materials WHERE material_id = ? FOR UPDATE`
		var id int64
		if err := tx.QueryRowContext(ctx, q, materialID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("material not found")
			}
			return err
		}
		return replaceCategories(ctx, tx, materialID, categoryIDs)
	})
}

// ExecDeleteMaterial removes a material only when no copy is out on loan.
func (s *Store) ExecDeleteMaterial(ctx context.Context, materialID int64) error {
	return platformdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx platformdb.DBTX) error {
		const lockQ = `SELECT material_id FROM materials WHERE material_id = ? FOR UPDATE`
		var id int64
		if err := tx.QueryRowContext(ctx, lockQ, materialID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound("material not found")
			}
			return err
		}

		const countQ = `SELECT COUNT(*) FROM loans WHERE material_id = ? AND status = 'active'`
		var active int
		if err := tx.QueryRowContext(ctx, countQ, materialID).Scan(&active); err != nil {
			return err
		}
		if active > 0 {
			return ErrHasActiveLoans(active)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM material_categories WHERE material_id = ?`, materialID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE material_id = ?`, materialID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return ErrInternal("failed to delete material")
		}
		return nil
	})
}

// replaceCategories deletes every link for the material and inserts the
// given set. An empty set leaves the material with zero categories.
func replaceCategories(ctx context.Context, tx platformdb.DBTX, materialID int64, categoryIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM material_categories WHERE material_id = ?`, materialID); err != nil {
		return err
	}
	if len(categoryIDs) == 0 {
		return nil
	}

	sb := strings.Builder{}
	sb.WriteString(`INSERT INTO material_categories (material_id, category_id) VALUES `)
	args := []any{}
	for i, id := range categoryIDs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
		args = append(args, materialID, id)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

const materialColumns = `
	m.material_id, m.title, m.isbn, m.publication_year, m.total_copies, m.available_copies,
	m.author_id, m.publisher_id, a.name, p.name`

func (s *Store) GetMaterial(ctx context.Context, materialID int64) (*MaterialRow, error) {
	q := fmt.Sprintf(`
	SELECT %s
	FROM materials m
	JOIN authors a ON a.author_id = m.author_id
	JOIN publishers p ON p.publisher_id = m.publisher_id
	WHERE m.material_id = ?`, materialColumns)

	var r MaterialRow
	err := s.db.QueryRowContext(ctx, q, materialID).Scan(
		&r.MaterialID, &r.Title, &r.ISBN, &r.PublicationYear, &r.TotalCopies, &r.AvailableCopies,
		&r.AuthorID, &r.PublisherID, &r.AuthorName, &r.PublisherName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound("material not found")
		}
		return nil, err
	}

	r.CategoryIDs, err = s.categoryIDs(ctx, materialID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListMaterials(ctx context.Context, p Page) ([]MaterialRow, int64, error) {
	order := "ASC"
	if strings.ToLower(p.Order) == "desc" {
		order = "DESC"
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	q := fmt.Sprintf(`
	SELECT %s
	FROM materials m
	JOIN authors a ON a.author_id = m.author_id
	JOIN publishers p ON p.publisher_id = m.publisher_id
	ORDER BY m.title %s LIMIT ? OFFSET ?`, materialColumns, order)

	rows, err := s.db.QueryContext(ctx, q, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []MaterialRow
	for rows.Next() {
		var r MaterialRow
		if err := rows.Scan(
			&r.MaterialID, &r.Title, &r.ISBN, &r.PublicationYear, &r.TotalCopies, &r.AvailableCopies,
			&r.AuthorID, &r.PublisherID, &r.AuthorName, &r.PublisherName,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		out[i].CategoryIDs, err = s.categoryIDs(ctx, out[i].MaterialID)
		if err != nil {
			return nil, 0, err
		}
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM materials`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) categoryIDs(ctx context.Context, materialID int64) ([]int64, error) {
	const q = `SELECT category_id FROM material_categories WHERE material_id = ? ORDER BY category_id`
	rows, err := s.db.QueryContext(ctx, q, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListSupport loads the cataloging form lists in one read-only transaction.
func (s *Store) ListSupport(ctx context.Context) (*SupportLists, error) {
	var out SupportLists
	err := platformdb.ReadOnly(ctx, s.db, func(ctx context.Context, tx platformdb.DBTX) error {
		var err error
		if out.Authors, err = namedList(ctx, tx, `SELECT author_id, name FROM authors ORDER BY name`); err != nil {
			return err
		}
		if out.Publishers, err = namedList(ctx, tx, `SELECT publisher_id, name FROM publishers ORDER BY name`); err != nil {
			return err
		}
		out.Categories, err = namedList(ctx, tx, `SELECT category_id, name FROM categories ORDER BY name`)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func namedList(ctx context.Context, tx platformdb.DBTX, q string) ([]NamedRef, error) {
	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NamedRef
	for rows.Next() {
		var r NamedRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
