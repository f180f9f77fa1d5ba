package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vovakirdan/streamchat-server/internal/store"
)

// ==== ChatStore implementation ====

const chatMessageQuery = `
	SELECT m.id, m.stream_id, m.user_id, u.nickname, m.msg, m.date_crt, m.date_edt, m.date_rmv
	FROM chat_messages m
	JOIN users u ON u.id = m.user_id
`

func scanChatMessage(row rowScanner) (*store.ChatMessage, error) {
	var (
		msg     store.ChatMessage
		dateEdt sql.NullTime
		dateRmv sql.NullTime
	)
	if err := row.Scan(
		&msg.ID,
		&msg.StreamID,
		&msg.UserID,
		&msg.Nickname,
		&msg.Msg,
		&msg.DateCrt,
		&dateEdt,
		&dateRmv,
	); err != nil {
		return nil, err
	}
	if dateEdt.Valid {
		t := dateEdt.Time
		msg.DateEdt = &t
	}
	if dateRmv.Valid {
		t := dateRmv.Time
		msg.DateRmv = &t
	}
	return &msg, nil
}

func (s *SQLiteStore) getChatMessage(ctx context.Context, id int64) (*store.ChatMessage, error) {
	msg, err := scanChatMessage(s.db.QueryRowContext(ctx, chatMessageQuery+` WHERE m.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat message not found: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query chat message: %w", err)
	}
	return msg, nil
}

// CreateChatMessage persists a new message of a stream chat.
func (s *SQLiteStore) CreateChatMessage(ctx context.Context, streamID, userID int64, text string) (*store.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (stream_id, user_id, msg)
		SELECT id, ?, ? FROM streams WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, userID, text, streamID)
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("stream not found: %w", store.ErrNotFound)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.getChatMessage(ctx, id)
}

// ModifyChatMessage replaces the text of a message written by userID.
// Removed messages cannot be edited.
func (s *SQLiteStore) ModifyChatMessage(ctx context.Context, id, userID int64, text string) (*store.ChatMessage, error) {
	query := `
		UPDATE chat_messages
		SET msg = ?, date_edt = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ? AND date_rmv IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, text, id, userID)
	if err != nil {
		return nil, fmt.Errorf("update chat message: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("chat message not found: %w", store.ErrNotFound)
	}
	return s.getChatMessage(ctx, id)
}

// DeleteChatMessage blanks the text and marks the message removed.
func (s *SQLiteStore) DeleteChatMessage(ctx context.Context, id, userID int64) (*store.ChatMessage, error) {
	query := `
		UPDATE chat_messages
		SET msg = '', date_rmv = CURRENT_TIMESTAMP
		WHERE id = ? AND date_rmv IS NULL
		  AND (user_id = ? OR stream_id IN (SELECT id FROM streams WHERE user_id = ?))
	`
	result, err := s.db.ExecContext(ctx, query, id, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("remove chat message: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("chat message not found: %w", store.ErrNotFound)
	}
	return s.getChatMessage(ctx, id)
}

// ListChatMessages retrieves messages of a stream with pagination, oldest first.
func (s *SQLiteStore) ListChatMessages(ctx context.Context, streamID int64, limit int, beforeID *int64) ([]*store.ChatMessage, error) {
	query := chatMessageQuery + ` WHERE m.stream_id = ?`
	args := []any{streamID}
	if beforeID != nil {
		query += ` AND m.id < ?`
		args = append(args, *beforeID)
	}
	query += ` ORDER BY m.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.ChatMessage, 0)
	for rows.Next() {
		msg, err := scanChatMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}

	// Reverse to get chronological order
	for i := range len(messages) / 2 {
		messages[i], messages[len(messages)-1-i] = messages[len(messages)-1-i], messages[i]
	}

	return messages, rows.Err()
}

// CountChatMessages counts the non-removed messages of a stream.
func (s *SQLiteStore) CountChatMessages(ctx context.Context, streamID int64) (int64, error) {
	var n int64
	query := `SELECT COUNT(*) FROM chat_messages WHERE stream_id = ? AND date_rmv IS NULL`
	if err := s.db.QueryRowContext(ctx, query, streamID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chat messages: %w", err)
	}
	return n, nil
}

// ==== BlockStore implementation ====

const blockedUserQuery = `
	SELECT b.id, b.user_id, b.blocked_id, u.nickname, b.block_date
	FROM blocked_users b
	JOIN users u ON u.id = b.blocked_id
`

func scanBlockedUser(row rowScanner) (*store.BlockedUser, error) {
	var b store.BlockedUser
	if err := row.Scan(&b.ID, &b.UserID, &b.BlockedID, &b.BlockedNickname, &b.BlockDate); err != nil {
		return nil, err
	}
	return &b, nil
}

// resolveBlocked returns the id of the target, looking it up by nickname when no id is given.
func (s *SQLiteStore) resolveBlocked(ctx context.Context, blockedID *int64, blockedNickname *string) (int64, error) {
	switch {
	case blockedID != nil:
		user, err := s.GetUserByID(ctx, *blockedID)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	case blockedNickname != nil:
		user, err := s.GetUserByNickname(ctx, *blockedNickname)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	default:
		return 0, errors.New("blocked user id or nickname required")
	}
}

func (s *SQLiteStore) getBlockedUser(ctx context.Context, userID, blockedID int64) (*store.BlockedUser, error) {
	row := s.db.QueryRowContext(ctx, blockedUserQuery+` WHERE b.user_id = ? AND b.blocked_id = ?`, userID, blockedID)
	b, err := scanBlockedUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("blocked user not found: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query blocked user: %w", err)
	}
	return b, nil
}

// CreateBlockedUser blocks a user. Blocking an already blocked user returns the existing record.
func (s *SQLiteStore) CreateBlockedUser(ctx context.Context, userID int64, blockedID *int64, blockedNickname *string) (*store.BlockedUser, error) {
	targetID, err := s.resolveBlocked(ctx, blockedID, blockedNickname)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO blocked_users (user_id, blocked_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, blocked_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, userID, targetID); err != nil {
		return nil, fmt.Errorf("insert blocked user: %w", err)
	}
	return s.getBlockedUser(ctx, userID, targetID)
}

// DeleteBlockedUser removes a block and returns the removed record.
func (s *SQLiteStore) DeleteBlockedUser(ctx context.Context, userID int64, blockedID *int64, blockedNickname *string) (*store.BlockedUser, error) {
	targetID, err := s.resolveBlocked(ctx, blockedID, blockedNickname)
	if err != nil {
		return nil, err
	}

	existing, err := s.getBlockedUser(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM blocked_users WHERE id = ?`, existing.ID); err != nil {
		return nil, fmt.Errorf("delete blocked user: %w", err)
	}
	return existing, nil
}

// ListBlockedUsers lists the users blocked by userID, most recent first.
func (s *SQLiteStore) ListBlockedUsers(ctx context.Context, userID int64) ([]*store.BlockedUser, error) {
	rows, err := s.db.QueryContext(ctx, blockedUserQuery+` WHERE b.user_id = ? ORDER BY b.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query blocked users: %w", err)
	}
	defer rows.Close()

	blocked := make([]*store.BlockedUser, 0)
	for rows.Next() {
		b, err := scanBlockedUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blocked user: %w", err)
		}
		blocked = append(blocked, b)
	}
	return blocked, rows.Err()
}

// GetChatAccess resolves the stream and, for a known user, its ownership and block state.
func (s *SQLiteStore) GetChatAccess(ctx context.Context, streamID int64, userID *int64) (*store.ChatAccess, error) {
	access := store.ChatAccess{StreamID: streamID}
	err := s.db.QueryRowContext(ctx, `SELECT user_id, state FROM streams WHERE id = ?`, streamID).
		Scan(&access.StreamOwner, &access.StreamState)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("stream not found: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query stream: %w", err)
	}

	if userID == nil {
		return &access, nil
	}

	access.IsOwner = *userID == access.StreamOwner
	query := `SELECT EXISTS(SELECT 1 FROM blocked_users WHERE user_id = ? AND blocked_id = ?)`
	if err := s.db.QueryRowContext(ctx, query, access.StreamOwner, *userID).Scan(&access.IsBlocked); err != nil {
		return nil, fmt.Errorf("query block state: %w", err)
	}
	return &access, nil
}
