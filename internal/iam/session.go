package iam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"legalthings.one/internal/obs"
)

// Session binds an identity to a point in time. The user is never nil
// after binding; a guest session carries an anonymous user with a null
// identity.
type Session struct {
	ID   string    `json:"id,omitempty"`
	Date time.Time `json:"date"`
	User *User     `json:"user,omitempty"`
}

// SessionData is the raw payload behind GET /sessions/{id}. A session
// that exists without a party attached has no user.
type SessionData struct {
	User *User `json:"user,omitempty"`
}

// SessionSource fetches session payloads; the remote IAM client
// implements it.
type SessionSource interface {
	GetSession(ctx context.Context, id string) (*SessionData, error)
}

var (
	sessionMu sync.Mutex
	current   *Session
)

// BindSession resolves a session id through IAM into a bound session and
// makes it the process-wide current session. A session IAM does not know
// yields (nil, nil) and leaves the current session untouched. A session
// without an attached party gets an anonymous user.
func BindSession(ctx context.Context, src SessionSource, id string) (*Session, error) {
	data, err := src.GetSession(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess := newSession(id, time.Now().UTC(), data.User)
	setCurrent(sess)
	return sess, nil
}

// MockSession builds a session from a literal JSON document of the form
// {"id": ..., "date": ..., "user": {...}} instead of calling IAM. Meant
// for tests and fixtures; it also replaces the current session.
func MockSession(raw string) (*Session, error) {
	var doc struct {
		ID   string    `json:"id"`
		Date time.Time `json:"date"`
		User *User     `json:"user"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	date := doc.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	sess := newSession(doc.ID, date, doc.User)
	setCurrent(sess)
	return sess, nil
}

func newSession(id string, date time.Time, user *User) *Session {
	if user == nil {
		user = &User{Organization: &Organization{}}
	} else if user.Organization == nil {
		user.Organization = &Organization{}
	}
	return &Session{ID: id, Date: date, User: user}
}

// CurrentSession returns the process-wide session if one was bound. When
// nothing is bound it warns and reports false; that is a condition, not
// a failure. The process-wide pointer suits a single in-flight request;
// prefer ContextWithSession under concurrent request handling.
func CurrentSession() (*Session, bool) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	if current == nil {
		obs.Warn("there is no current session")
		return nil, false
	}
	return current, true
}

func setCurrent(s *Session) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	current = s
}

// ResetSessionForTests clears the process-wide session. Only intended
// for test use.
func ResetSessionForTests() {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	current = nil
}

type sessionContextKey struct{}

// ContextWithSession attaches a bound session to the context, scoping
// the identity to one logical request.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	if s == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFromContext extracts the session previously attached to the
// context.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok || s == nil {
		return nil, false
	}
	return s, true
}
