package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/edu-content/pkg/educontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements educontent.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

const contentColumns = `id, title, description, content_type, file_url, file_key,
       age_group, class_level, category, area, status, owner_id, created_at, updated_at`

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return educontent.ErrContentNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return &educontent.ValidationError{Field: "id", Reason: "already exists"}
		case "23502": // not_null_violation
			return &educontent.ValidationError{Field: pgErr.ColumnName, Reason: "is required"}
		case "23514": // check_violation
			return &educontent.ValidationError{Reason: fmt.Sprintf("constraint %s violated", pgErr.ConstraintName)}
		case "42P01": // undefined_table
			return fmt.Errorf("%w: table does not exist - database migration required", educontent.ErrPersistence)
		default:
			return fmt.Errorf("%w: database error in %s: %s (code: %s)", educontent.ErrPersistence, operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("%w: database error in %s: %w", educontent.ErrPersistence, operation, err)
}

func (r *Repository) Create(ctx context.Context, content *educontent.Content) error {
	if content.ID == uuid.Nil {
		content.ID = uuid.New()
	}
	if content.Status == "" {
		content.Status = educontent.ContentStatusDraft
	}
	now := time.Now().UTC()
	if content.CreatedAt.IsZero() {
		content.CreatedAt = now
	}
	if content.UpdatedAt.IsZero() {
		content.UpdatedAt = content.CreatedAt
	}
	if err := content.Validate(); err != nil {
		return err
	}

	query := `
        INSERT INTO content (id, title, description, content_type, file_url, file_key,
                             age_group, class_level, category, area, status, owner_id,
                             created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		content.ID, content.Title, content.Description, string(content.ContentType),
		content.FileURL, content.FileKey, content.AgeGroup, content.ClassLevel,
		content.Category, content.Area, string(content.Status), content.OwnerID,
		content.CreatedAt, content.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create content", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*educontent.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1`

	content, err := scanContent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get content", err)
	}
	return content, nil
}

func (r *Repository) List(ctx context.Context, filter educontent.Filter) ([]*educontent.Content, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.Status != "" {
		add("status", string(filter.Status))
	}
	if filter.ContentType != "" {
		add("content_type", string(filter.ContentType))
	}
	if filter.AgeGroup != "" {
		add("age_group", filter.AgeGroup)
	}
	if filter.ClassLevel != "" {
		add("class_level", filter.ClassLevel)
	}
	if filter.Category != "" {
		add("category", filter.Category)
	}
	if filter.Area != "" {
		add("area", filter.Area)
	}
	if filter.OwnerID != uuid.Nil {
		add("owner_id", filter.OwnerID)
	}
	if filter.FileKey != "" {
		add("file_key", filter.FileKey)
	}

	query := `SELECT ` + contentColumns + ` FROM content`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list content", err)
	}
	defer rows.Close()

	contents := make([]*educontent.Content, 0)
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan content", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list content", err)
	}
	return contents, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch educontent.ContentPatch) (*educontent.Content, error) {
	var (
		sets []string
		args = []interface{}{id}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, &educontent.ValidationError{Field: "title", Reason: "is required"}
		}
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.ContentType != nil {
		set("content_type", string(*patch.ContentType))
	}
	if patch.AgeGroup != nil {
		set("age_group", *patch.AgeGroup)
	}
	if patch.ClassLevel != nil {
		set("class_level", *patch.ClassLevel)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.Area != nil {
		set("area", *patch.Area)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	switch {
	case patch.FileURL != nil:
		set("file_url", *patch.FileURL)
	case patch.ClearFile:
		set("file_url", nil)
	}
	switch {
	case patch.FileKey != nil:
		set("file_key", *patch.FileKey)
	case patch.ClearFile:
		set("file_key", "")
	}
	set("updated_at", time.Now().UTC())

	query := `UPDATE content SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + contentColumns

	content, err := scanContent(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, r.handlePostgresError("update content", err)
	}
	return content, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete content", err)
	}
	if tag.RowsAffected() == 0 {
		return educontent.ErrContentNotFound
	}
	return nil
}

func scanContent(row pgx.Row) (*educontent.Content, error) {
	var (
		c           educontent.Content
		contentType string
		status      string
	)
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &contentType, &c.FileURL, &c.FileKey,
		&c.AgeGroup, &c.ClassLevel, &c.Category, &c.Area, &status, &c.OwnerID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ContentType = educontent.ContentType(contentType)
	c.Status = educontent.ContentStatus(status)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
