package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/streamchat-server/internal/store"
)

//go:embed schema.sql
var schema string

const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies the embedded schema. It is idempotent.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// ==== UserStore implementation ====

const userColumns = `id, nickname, email, password_hash, avatar, descript, created_at, updated_at`

func scanUser(row rowScanner) (*store.User, error) {
	var (
		user   store.User
		avatar sql.NullString
	)
	if err := row.Scan(
		&user.ID,
		&user.Nickname,
		&user.Email,
		&user.PasswordHash,
		&avatar,
		&user.Descript,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Avatar = stringPtr(avatar)
	return &user, nil
}

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, nickname, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (nickname, email, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, nickname, email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user already exists: %w", store.ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// GetUserByNickname retrieves a user by nickname.
func (s *SQLiteStore) GetUserByNickname(ctx context.Context, nickname string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE nickname = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, nickname))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// UpdateUser updates nickname, email, description and avatar.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *store.User) error {
	query := `
		UPDATE users
		SET nickname = ?, email = ?, descript = ?, avatar = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, user.Nickname, user.Email, user.Descript, nullString(user.Avatar), user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("nickname or email taken: %w", store.ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("user not found: %w", store.ErrNotFound)
	}
	return nil
}

// SearchUsers searches for users whose nickname contains query.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string) ([]*store.User, error) {
	pattern := "%" + escapeLike(query) + "%"
	q := `SELECT ` + userColumns + ` FROM users WHERE nickname LIKE ? ESCAPE '\' ORDER BY nickname LIMIT 20`

	rows, err := s.db.QueryContext(ctx, q, pattern)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users := make([]*store.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ==== StreamStore implementation ====

const streamColumns = `id, user_id, title, descript, logo, state, starttime, created_at, updated_at`

func scanStream(row rowScanner) (*store.Stream, error) {
	var (
		stream    store.Stream
		logo      sql.NullString
		startTime sql.NullTime
	)
	if err := row.Scan(
		&stream.ID,
		&stream.UserID,
		&stream.Title,
		&stream.Descript,
		&logo,
		&stream.State,
		&startTime,
		&stream.CreatedAt,
		&stream.UpdatedAt,
	); err != nil {
		return nil, err
	}
	stream.Logo = stringPtr(logo)
	if startTime.Valid {
		t := startTime.Time
		stream.StartTime = &t
	}
	return &stream, nil
}

// CreateStream inserts a stream and fills its generated fields.
func (s *SQLiteStore) CreateStream(ctx context.Context, stream *store.Stream) error {
	if stream.State == "" {
		stream.State = store.StreamStateWaiting
	}
	query := `
		INSERT INTO streams (user_id, title, descript, logo, state, starttime)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		stream.UserID, stream.Title, stream.Descript, nullString(stream.Logo), stream.State, stream.StartTime)
	if err != nil {
		return fmt.Errorf("insert stream: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	created, err := s.GetStream(ctx, id)
	if err != nil {
		return err
	}
	*stream = *created
	return nil
}

// GetStream retrieves a stream by ID.
func (s *SQLiteStore) GetStream(ctx context.Context, id int64) (*store.Stream, error) {
	query := `SELECT ` + streamColumns + ` FROM streams WHERE id = ?`
	stream, err := scanStream(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("stream not found: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query stream: %w", err)
	}
	return stream, nil
}

// UpdateStream updates the mutable fields of a stream.
func (s *SQLiteStore) UpdateStream(ctx context.Context, stream *store.Stream) error {
	query := `
		UPDATE streams
		SET title = ?, descript = ?, logo = ?, state = ?, starttime = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		stream.Title, stream.Descript, nullString(stream.Logo), stream.State, stream.StartTime, stream.ID)
	if err != nil {
		return fmt.Errorf("update stream: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("stream not found: %w", store.ErrNotFound)
	}
	return nil
}

// DeleteStream removes a stream and, through the foreign keys, its chat.
func (s *SQLiteStore) DeleteStream(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM streams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete stream: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("stream not found: %w", store.ErrNotFound)
	}
	return nil
}

// ListStreams lists streams, newest first.
func (s *SQLiteStore) ListStreams(ctx context.Context, liveOnly bool, limit int) ([]*store.Stream, error) {
	query := `SELECT ` + streamColumns + ` FROM streams`
	args := []any{}
	if liveOnly {
		query += ` WHERE state IN (?, ?, ?)`
		args = append(args, store.StreamStatePreparing, store.StreamStateStarted, store.StreamStatePaused)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	return s.queryStreams(ctx, query, args...)
}

// ListStreamsByUser lists the streams owned by userID, newest first.
func (s *SQLiteStore) ListStreamsByUser(ctx context.Context, userID int64) ([]*store.Stream, error) {
	query := `SELECT ` + streamColumns + ` FROM streams WHERE user_id = ? ORDER BY id DESC`
	return s.queryStreams(ctx, query, userID)
}

func (s *SQLiteStore) queryStreams(ctx context.Context, query string, args ...any) ([]*store.Stream, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query streams: %w", err)
	}
	defer rows.Close()

	streams := make([]*store.Stream, 0)
	for rows.Next() {
		stream, err := scanStream(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		streams = append(streams, stream)
	}
	return streams, rows.Err()
}
