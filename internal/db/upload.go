package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

type Upload struct {
	ID          string    `db:"id" json:"id"`
	Filename    string    `db:"filename" json:"filename"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	FileURL     string    `db:"file_url" json:"file_url"`
	MimeType    string    `db:"mime_type" json:"mime_type"`
	Size        int64     `db:"size" json:"size"`
	Source      string    `db:"source" json:"source"`
	TextLength  int       `db:"text_length" json:"text_length"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (s *Storage) CreateUpload(ctx context.Context, u *Upload) error {
	if u.ID == "" {
		id, err := nanoid.New()
		if err != nil {
			return fmt.Errorf("error generating upload id: %w", err)
		}
		u.ID = id
	}
	if u.Source == "" {
		u.Source = "file"
	}
	u.CreatedAt = time.Now()

	query := `
		INSERT INTO uploads (id, filename, storage_path, file_url, mime_type, size, source, text_length, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		u.ID, u.Filename, u.StoragePath, u.FileURL, u.MimeType, u.Size, u.Source, u.TextLength, u.CreatedAt,
	); err != nil {
		return fmt.Errorf("error creating upload: %w", err)
	}

	return nil
}

func (s *Storage) GetUpload(ctx context.Context, id string) (*Upload, error) {
	query := `
		SELECT id, filename, storage_path, file_url, mime_type, size, source, text_length, created_at
		FROM uploads
		WHERE id = ?
	`

	var (
		u       Upload
		fileURL sql.NullString
		mime    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.Filename,
		&u.StoragePath,
		&fileURL,
		&mime,
		&u.Size,
		&u.Source,
		&u.TextLength,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting upload: %w", err)
	}

	u.FileURL = fileURL.String
	u.MimeType = mime.String
	return &u, nil
}

// ListUploads returns the most recent uploads first.
func (s *Storage) ListUploads(ctx context.Context, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, filename, storage_path, file_url, mime_type, size, source, text_length, created_at
		FROM uploads
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing uploads: %w", err)
	}
	defer rows.Close()

	var uploads []Upload
	for rows.Next() {
		var (
			u       Upload
			fileURL sql.NullString
			mime    sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Filename, &u.StoragePath, &fileURL, &mime, &u.Size, &u.Source, &u.TextLength, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning upload: %w", err)
		}
		u.FileURL = fileURL.String
		u.MimeType = mime.String
		uploads = append(uploads, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating upload rows: %w", err)
	}

	return uploads, nil
}
