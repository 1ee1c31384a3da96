package postgres

import (
	"context"
	"database/sql"

	"elysium/internal/model"
	"elysium/internal/repository"
)

// TemplatePostgres is the PostgreSQL implementation of
// repository.TemplateRepository. Parameterized queries only.
type TemplatePostgres struct {
	db *sql.DB
}

// NewTemplatePostgres creates the repository over an open connection pool.
func NewTemplatePostgres(db *sql.DB) *TemplatePostgres {
	return &TemplatePostgres{db: db}
}

var _ repository.TemplateRepository = (*TemplatePostgres)(nil)

func (r *TemplatePostgres) Create(ctx context.Context, tpl *model.SheetTemplate) (*model.SheetTemplate, error) {
	const q = `
		INSERT INTO sheet_templates (id, name, storage_path, size, field_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, storage_path, size, field_count, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		tpl.ID,
		tpl.Name,
		tpl.StoragePath,
		tpl.Size,
		tpl.FieldCount,
		tpl.CreatedAt,
	)
	var out model.SheetTemplate
	if err := row.Scan(
		&out.ID,
		&out.Name,
		&out.StoragePath,
		&out.Size,
		&out.FieldCount,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TemplatePostgres) FindByID(ctx context.Context, id string) (*model.SheetTemplate, error) {
	const q = `
		SELECT id, name, storage_path, size, field_count, created_at
		FROM sheet_templates
		WHERE id = $1
	`
	var t model.SheetTemplate
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID,
		&t.Name,
		&t.StoragePath,
		&t.Size,
		&t.FieldCount,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplatePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.SheetTemplate], error) {
	const qCount = `SELECT COUNT(*) FROM sheet_templates`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, name, storage_path, size, field_count, created_at
		FROM sheet_templates
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SheetTemplate, 0)
	for rows.Next() {
		var t model.SheetTemplate
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.StoragePath,
			&t.Size,
			&t.FieldCount,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.SheetTemplate]{Items: items, Total: total}, nil
}

func (r *TemplatePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM sheet_templates WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
