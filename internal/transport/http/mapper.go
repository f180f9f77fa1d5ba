package http

import (
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/streamchat-server/internal/store"
)

const timeLayout = time.RFC3339

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       int64   `json:"id"`
	Nickname string  `json:"nickname"`
	Avatar   *string `json:"avatar,omitempty"`
	Descript string  `json:"descript"`
}

// ProfileResponse is the own profile of the authenticated user.
type ProfileResponse struct {
	UserResponse
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// StreamResponse represents a stream in API responses.
type StreamResponse struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	Title     string  `json:"title"`
	Descript  string  `json:"descript"`
	Logo      *string `json:"logo,omitempty"`
	State     string  `json:"state"`
	Live      bool    `json:"live"`
	Viewers   int     `json:"viewers"`
	StartTime *string `json:"starttime,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// ChatMessageResponse represents a stored chat message.
type ChatMessageResponse struct {
	ID       int64   `json:"id"`
	StreamID int64   `json:"stream_id"`
	UserID   int64   `json:"user_id"`
	Nickname string  `json:"nickname"`
	Msg      string  `json:"msg"`
	DateCrt  string  `json:"date_crt"`
	DateEdt  *string `json:"date_edt,omitempty"`
	DateRmv  *string `json:"date_rmv,omitempty"`
}

// BlockedUserResponse represents an entry of a block list.
type BlockedUserResponse struct {
	ID        int64  `json:"id"`
	BlockedID int64  `json:"blocked_id"`
	Nickname  string `json:"nickname"`
	BlockDate string `json:"block_date"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return lo.ToPtr(t.UTC().Format(timeLayout))
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Nickname: u.Nickname,
		Avatar:   u.Avatar,
		Descript: u.Descript,
	}
}

func profileResponse(u *store.User) ProfileResponse {
	return ProfileResponse{
		UserResponse: userResponse(u),
		Email:        u.Email,
		CreatedAt:    u.CreatedAt.UTC().Format(timeLayout),
	}
}

// streamResponse fills Viewers from count, which may be nil.
func streamResponse(s *store.Stream, count func(int64) int) StreamResponse {
	resp := StreamResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		Descript:  s.Descript,
		Logo:      s.Logo,
		State:     string(s.State),
		Live:      s.State.Live(),
		StartTime: formatTime(s.StartTime),
		CreatedAt: s.CreatedAt.UTC().Format(timeLayout),
	}
	if count != nil {
		resp.Viewers = count(s.ID)
	}
	return resp
}

func streamResponses(streams []*store.Stream, count func(int64) int) []StreamResponse {
	return lo.Map(streams, func(s *store.Stream, _ int) StreamResponse {
		return streamResponse(s, count)
	})
}

func chatMessageResponses(messages []*store.ChatMessage) []ChatMessageResponse {
	return lo.Map(messages, func(m *store.ChatMessage, _ int) ChatMessageResponse {
		return ChatMessageResponse{
			ID:       m.ID,
			StreamID: m.StreamID,
			UserID:   m.UserID,
			Nickname: m.Nickname,
			Msg:      m.Msg,
			DateCrt:  m.DateCrt.UTC().Format(timeLayout),
			DateEdt:  formatTime(m.DateEdt),
			DateRmv:  formatTime(m.DateRmv),
		}
	})
}

func blockedUserResponse(b *store.BlockedUser) BlockedUserResponse {
	return BlockedUserResponse{
		ID:        b.ID,
		BlockedID: b.BlockedID,
		Nickname:  b.BlockedNickname,
		BlockDate: b.BlockDate.UTC().Format(timeLayout),
	}
}

func blockedUserResponses(blocked []*store.BlockedUser) []BlockedUserResponse {
	return lo.Map(blocked, func(b *store.BlockedUser, _ int) BlockedUserResponse {
		return blockedUserResponse(b)
	})
}
