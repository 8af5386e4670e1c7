package opac

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type SearchStore interface {
	Search(ctx context.Context, term string, categoryID *int64, p Page) ([]Result, int64, error)
	GetMaterial(ctx context.Context, materialID int64) (*Result, error)
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) SearchStore { return &Store{db: db} }

const resultColumns = `
	m.material_id, m.title, m.isbn, m.publication_year, a.name, p.name,
	m.available_copies > 0`

// Search matches the folded term against title, ISBN and author name.
// Accent differences are handled by the utf8mb4 ci collation on the MySQL
// side once the term itself is folded.
func (s *Store) Search(ctx context.Context, term string, categoryID *int64, p Page) ([]Result, int64, error) {
	sb := strings.Builder{}
	sb.WriteString(`
	SELECT ` + resultColumns + `
	FROM materials m
	JOIN authors a ON a.author_id = m.author_id
	JOIN publishers p ON p.publisher_id = m.publisher_id
	WHERE 1=1`)

	args := []any{}
	if term != "" {
		sb.WriteString(` AND (m.title LIKE ? OR m.isbn LIKE ? OR a.name LIKE ?)`)
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if categoryID != nil {
		sb.WriteString(` AND EXISTS (
	SELECT 1 FROM material_categories mc
	WHERE mc.material_id = m.material_id AND mc.category_id = ?)`)
		args = append(args, *categoryID)
	}

	countQ := strings.Replace(sb.String(), "SELECT "+resultColumns, "SELECT COUNT(*)", 1)

	sb.WriteString(` ORDER BY m.title ASC`)
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

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.MaterialID, &r.Title, &r.ISBN, &r.PublicationYear,
			&r.Author, &r.Publisher, &r.Available,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		out[i].Categories, err = s.categoryNames(ctx, out[i].MaterialID)
		if err != nil {
			return nil, 0, err
		}
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, countQ, args[:len(args)-2]...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) GetMaterial(ctx context.Context, materialID int64) (*Result, error) {
	q := `
	SELECT ` + resultColumns + `
	FROM materials m
	JOIN authors a ON a.author_id = m.author_id
	JOIN publishers p ON p.publisher_id = m.publisher_id
	WHERE m.material_id = ?`

	var r Result
	err := s.db.QueryRowContext(ctx, q, materialID).Scan(
		&r.MaterialID, &r.Title, &r.ISBN, &r.PublicationYear,
		&r.Author, &r.Publisher, &r.Available,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound("material not found")
		}
		return nil, err
	}

	r.Categories, err = s.categoryNames(ctx, materialID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) categoryNames(ctx context.Context, materialID int64) ([]string, error) {
	const q = `
	SELECT c.name
	FROM material_categories mc
	JOIN categories c ON c.category_id = mc.category_id
	WHERE mc.material_id = ?
	ORDER BY c.name`

	rows, err := s.db.QueryContext(ctx, q, materialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
