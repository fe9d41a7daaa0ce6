package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"studentpress/internal/model"
	"studentpress/migrations"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}

	if err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Open opens the database at dsn with the settings every store connection
// uses. It does not run migrations.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", withConnParams(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if name, _, _ := strings.Cut(dsn, "?"); name == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// withConnParams appends the per-connection settings to dsn. Pragmas set
// here apply to every pooled connection, not just the first one. Transactions
// begin IMMEDIATE so a read-then-delete never has to upgrade its lock.
func withConnParams(dsn string) string {
	const params = "_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateUser inserts a user, assigning an ID if none is set.
func (s *SQLite) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	ids, err := encodeIDs(u.DraftIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, draft_ids, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Name, ids, formatTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns a single user by ID.
func (s *SQLite) GetUser(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, s.db, id)
}

// CreateDraft inserts a draft and appends its ID to the author's draft list.
func (s *SQLite) CreateDraft(ctx context.Context, d *model.Draft) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = s.now()
	}

	return s.RunTransaction(ctx, func(tx Tx) error {
		t := tx.(*sqliteTx)
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO drafts (id, author_id, post_type, title, content, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, d.AuthorID, string(d.PostType), d.Title, d.Content, formatTime(d.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert draft: %w", err)
		}

		u, err := t.GetUser(ctx, d.AuthorID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return t.UpdateUserDraftIDs(ctx, u.ID, append(u.DraftIDs, d.ID))
	})
}

// UpdateDraft persists an author's edit and bumps UpdatedAt.
func (s *SQLite) UpdateDraft(ctx context.Context, d *model.Draft) error {
	d.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE drafts SET post_type = ?, title = ?, content = ?, updated_at = ? WHERE id = ?`,
		string(d.PostType), d.Title, d.Content, formatTime(d.UpdatedAt), d.ID,
	)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	return expectAffected(res, "draft", d.ID)
}

// DeleteDraft removes a draft and its back-reference, as an author would.
func (s *SQLite) DeleteDraft(ctx context.Context, id string) error {
	return s.RunTransaction(ctx, func(tx Tx) error {
		d, err := tx.GetDraft(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteDraft(ctx, id); err != nil {
			return err
		}
		u, err := tx.GetUser(ctx, d.AuthorID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.UpdateUserDraftIDs(ctx, u.ID, RemoveID(u.DraftIDs, id))
	})
}

// FindDrafts returns drafts matching f, ordered by ID.
func (s *SQLite) FindDrafts(ctx context.Context, f DraftFilter) ([]model.Draft, error) {
	query := `SELECT id, author_id, post_type, title, content, updated_at FROM drafts`
	var args []any
	if f.AuthorID != "" {
		query += ` WHERE author_id = ?`
		args = append(args, f.AuthorID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var drafts []model.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	return drafts, rows.Err()
}

// CreateSubmission inserts a submission. Status defaults to PENDING.
func (s *SQLite) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	if sub.Status == "" {
		sub.Status = model.StatusPending
	}
	if !sub.Status.Valid() {
		return fmt.Errorf("invalid submission status %q", sub.Status)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, author_id, post_type, title, content, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.AuthorID, string(sub.PostType), sub.Title, sub.Content, string(sub.Status), formatTime(sub.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// UpdateSubmissionStatus moves a submission through the moderation workflow.
func (s *SQLite) UpdateSubmissionStatus(ctx context.Context, id string, status model.SubmissionStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid submission status %q", status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	return expectAffected(res, "submission", id)
}

// FindSubmissions returns submissions matching f, ordered by ID.
func (s *SQLite) FindSubmissions(ctx context.Context, f SubmissionFilter) ([]model.Submission, error) {
	query := `SELECT id, author_id, post_type, title, content, status, created_at FROM submissions`
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, f.AuthorID)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Submission
	for rows.Next() {
		var sub model.Submission
		var postType, status, created string
		if err := rows.Scan(&sub.ID, &sub.AuthorID, &postType, &sub.Title, &sub.Content, &status, &created); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.PostType = model.PostType(postType)
		sub.Status = model.SubmissionStatus(status)
		sub.CreatedAt = parseTime(created)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CreateComment inserts a comment, assigning an ID and timestamp if unset.
func (s *SQLite) CreateComment(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, submission_id, author_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.SubmissionID, c.AuthorID, c.Body, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListComments returns a submission's comments, oldest first.
func (s *SQLite) ListComments(ctx context.Context, submissionID string) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, submission_id, author_id, body, created_at FROM comments
		 WHERE submission_id = ? ORDER BY created_at, id`, submissionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		var created string
		if err := rows.Scan(&c.ID, &c.SubmissionID, &c.AuthorID, &c.Body, &created); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = parseTime(created)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// RunTransaction executes fn inside a transaction. The transaction commits if
// fn returns nil and rolls back otherwise.
func (s *SQLite) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) GetDraft(ctx context.Context, id string) (*model.Draft, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT id, author_id, post_type, title, content, updated_at FROM drafts WHERE id = ?`, id,
	)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return d, err
}

func (t *sqliteTx) DeleteDraft(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return expectAffected(res, "draft", id)
}

func (t *sqliteTx) GetUser(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, t.tx, id)
}

func (t *sqliteTx) UpdateUserDraftIDs(ctx context.Context, userID string, draftIDs []string) error {
	ids, err := encodeIDs(draftIDs)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx, `UPDATE users SET draft_ids = ? WHERE id = ?`, ids, userID)
	if err != nil {
		return fmt.Errorf("update user draft ids: %w", err)
	}
	return expectAffected(res, "user", userID)
}

func getUser(ctx context.Context, q queryer, id string) (*model.User, error) {
	var u model.User
	var ids, created string
	err := q.QueryRowContext(ctx,
		`SELECT id, name, draft_ids, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &ids, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if err := json.Unmarshal([]byte(ids), &u.DraftIDs); err != nil {
		return nil, fmt.Errorf("decode draft ids of user %s: %w", id, err)
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDraft(row scannable) (*model.Draft, error) {
	var d model.Draft
	var postType, updated string
	err := row.Scan(&d.ID, &d.AuthorID, &postType, &d.Title, &d.Content, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan draft: %w", err)
	}
	d.PostType = model.PostType(postType)
	d.UpdatedAt = parseTime(updated)
	return &d, nil
}

func expectAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode draft ids: %w", err)
	}
	return string(b), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
