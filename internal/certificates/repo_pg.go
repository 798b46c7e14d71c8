package certificates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts the initial certificate record.
func (r *PGRepo) Create(ctx context.Context, cert Certificate) error {
	const query = `
INSERT INTO certificates (
    id,
    user_id,
    original_filename,
    extension,
    mime_type,
    checksum,
    file_name,
    course_url,
    course_title,
    image_icon,
    general_status,
    detailed_status,
    front_status,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		cert.ID,
		cert.UserID,
		cert.OriginalFilename,
		cert.Extension,
		cert.MimeType,
		cert.Checksum,
		cert.FileName,
		cert.CourseURL,
		cert.CourseTitle,
		cert.ImageIcon,
		string(cert.GeneralStatus),
		nullString(string(cert.DetailedStatus)),
		nullString(string(cert.FrontStatus)),
		cert.CreatedAt,
	)
	return err
}

// Finalize updates the record's statuses and writes the blob and term
// associations in a single transaction. The status update is guarded so a
// record already forced terminal (for example by the stuck sweeper) is not
// resurrected.
func (r *PGRepo) Finalize(ctx context.Context, fin Finalization) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	const updateQuery = `
UPDATE certificates
SET general_status = $1, detailed_status = $2, front_status = $3
WHERE id = $4 AND general_status = $5`

	res, err := tx.ExecContext(
		ctx,
		updateQuery,
		string(fin.Certificate.GeneralStatus),
		nullString(string(fin.Certificate.DetailedStatus)),
		nullString(string(fin.Certificate.FrontStatus)),
		fin.Certificate.ID,
		string(StatusVerifying),
	)
	if err != nil {
		return fmt.Errorf("update statuses: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update statuses: %w", err)
	}
	if affected == 0 {
		// The record already left VERIFYING (the sweeper got there
		// first). The blob and associations belong to the terminal
		// resolution, so nothing else may attach.
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit finalize: %w", err)
		}
		return nil
	}

	if fin.Content != nil {
		const blobQuery = `
INSERT INTO certificate_blobs (certificate_id, content) VALUES ($1, $2)`
		if _, err = tx.ExecContext(ctx, blobQuery, fin.Certificate.ID, fin.Content); err != nil {
			return fmt.Errorf("insert blob: %w", err)
		}
	}

	const assocQuery = `
INSERT INTO user_terms (id, user_id, term_id, certificate_id, match_count)
VALUES ($1, $2, $3, $4, $5)`
	for _, ut := range fin.Associations {
		if _, err = tx.ExecContext(ctx, assocQuery, ut.ID, ut.UserID, ut.TermID, ut.CertificateID, ut.MatchCount); err != nil {
			return fmt.Errorf("insert user term: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

// GetByID fetches one certificate owned by the user.
func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (Certificate, error) {
	const query = selectColumns + `
WHERE user_id = $1 AND id = $2
LIMIT 1`

	row := r.DB.QueryRowContext(ctx, query, userID, id)
	cert, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Certificate{}, ErrNotFound
	}
	return cert, err
}

// ListByUser lists certificates newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Certificate, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = selectColumns + `
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cert)
	}
	return out, rows.Err()
}

// ExpireStuck force-rejects records left VERIFYING since before cutoff.
func (r *PGRepo) ExpireStuck(ctx context.Context, cutoff time.Time) ([]string, error) {
	const query = `
UPDATE certificates
SET general_status = $1, detailed_status = $2, front_status = $2
WHERE general_status = $3 AND created_at < $4
RETURNING id`

	rows, err := r.DB.QueryContext(
		ctx,
		query,
		string(StatusRejected),
		string(DetailedVerifyTimeout),
		string(StatusVerifying),
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const selectColumns = `
SELECT id, user_id, original_filename, extension, mime_type, checksum, file_name,
       course_url, course_title, image_icon, general_status, detailed_status, front_status, created_at
FROM certificates`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (Certificate, error) {
	var (
		cert     Certificate
		general  string
		detailed sql.NullString
		front    sql.NullString
	)
	err := row.Scan(
		&cert.ID,
		&cert.UserID,
		&cert.OriginalFilename,
		&cert.Extension,
		&cert.MimeType,
		&cert.Checksum,
		&cert.FileName,
		&cert.CourseURL,
		&cert.CourseTitle,
		&cert.ImageIcon,
		&general,
		&detailed,
		&front,
		&cert.CreatedAt,
	)
	if err != nil {
		return Certificate{}, err
	}
	cert.GeneralStatus = GeneralStatus(general)
	if detailed.Valid {
		cert.DetailedStatus = DetailedStatus(detailed.String)
	}
	if front.Valid {
		cert.FrontStatus = FrontStatus(front.String)
	}
	return cert, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
