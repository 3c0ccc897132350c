// Package memory stores the per-user conversation history that the agents
// read at the start of a request and the chat service appends to at the end.
package memory

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/krishg0kul/genai-multi-agent/errors"
)

// DefaultUserID is used when a request carries no user id.
const DefaultUserID = "default_user"

var (
	ErrInvalidMessage = errors.Sentinel("invalid message")
	ErrInvalidUserID  = errors.Sentinel("invalid user id")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is an entry before it has been written.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Entry is a stored, timestamped message. Entries are never modified once written.
type Entry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsUser reports whether the entry was written by the user. Entries with no
// role are treated as user entries.
func (e Entry) IsUser() bool {
	return e.Role == RoleUser || e.Role == ""
}

// Store persists conversation history per user.
type Store interface {
	Append(ctx context.Context, userID string, msgs []Message) error
	ReadAll(ctx context.Context, userID string) ([]Entry, error)
	Clear(ctx context.Context, userID string) (bool, error)
}

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// NormalizeUserID trims id, substitutes DefaultUserID for an empty value and
// rejects ids that are not safe to use as a file name or key.
func NormalizeUserID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultUserID, nil
	}
	if !userIDPattern.MatchString(id) || strings.Trim(id, ".") == "" {
		return "", errors.Wrapf(ErrInvalidUserID, "%q", id)
	}
	return id, nil
}

// Validate checks that msgs is non-empty and every message has a known role
// and non-blank content.
func Validate(msgs []Message) error {
	if len(msgs) == 0 {
		return errors.Wrapf(ErrInvalidMessage, "no messages")
	}
	for i, m := range msgs {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return errors.Wrapf(ErrInvalidMessage, "message %d has role %q", i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return errors.Wrapf(ErrInvalidMessage, "message %d is empty", i)
		}
	}
	return nil
}

// FormatMessages builds the user/assistant pair recorded after a turn. It
// returns nil when either side is blank.
func FormatMessages(userQuery, assistantResponse string) []Message {
	q := strings.TrimSpace(userQuery)
	a := strings.TrimSpace(assistantResponse)
	if q == "" || a == "" {
		return nil
	}
	return []Message{
		{Role: RoleUser, Content: q},
		{Role: RoleAssistant, Content: a},
	}
}

// Recent returns the last n entries, or all of them when n <= 0.
func Recent(entries []Entry, n int) []Entry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

func stamp(msgs []Message, now time.Time) []Entry {
	out := make([]Entry, len(msgs))
	for i, m := range msgs {
		out[i] = Entry{Role: m.Role, Content: m.Content, Timestamp: now}
	}
	return out
}
