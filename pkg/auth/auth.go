// Package auth models the signed-in user. Identity itself lives with an
// external provider; this package only tracks the current session and
// verifies the provider's HS256 access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tb0hdan/adapta-history/pkg/events"
)

var ErrInvalidToken = errors.New("invalid access token")

type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Provider resolves the current user. A nil user with a nil error means
// nobody is signed in.
type Provider interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// SessionChange is published whenever the signed-in user changes. User is
// nil after sign-out.
type SessionChange struct {
	User *User
}

type Session struct {
	mu      sync.RWMutex
	user    *User
	token   string
	secret  []byte
	Changes events.Bus[SessionChange]
}

// NewSession returns a signed-out session. secret verifies access tokens and
// may be empty when only SignIn is used.
func NewSession(secret string) *Session {
	return &Session{secret: []byte(secret)}
}

func (s *Session) CurrentUser(_ context.Context) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

// Token returns the access token of the current session, if any.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SignIn(user User) {
	s.set(&user, "")
}

// SignInWithToken verifies token and signs in as its subject.
func (s *Session) SignInWithToken(token string) (*User, error) {
	user, err := VerifyToken(s.secret, token)
	if err != nil {
		return nil, err
	}
	s.set(user, token)
	u := *user
	return &u, nil
}

func (s *Session) SignOut() {
	s.set(nil, "")
}

func (s *Session) set(user *User, token string) {
	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()

	var published *User
	if user != nil {
		u := *user
		published = &u
	}
	s.Changes.Publish(SessionChange{User: published})
}

// VerifyToken parses an HS256 token and maps its sub and email claims to a User.
func VerifyToken(secret []byte, token string) (*User, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)

	return &User{ID: sub, Email: email}, nil
}

// IssueToken signs an HS256 token for user valid for ttl.
func IssueToken(secret []byte, user User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.ID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if user.Email != "" {
		claims["email"] = user.Email
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Static is a Provider that always returns the same user. A nil User means
// signed out.
type Static struct {
	User *User
}

func (s Static) CurrentUser(context.Context) (*User, error) {
	return s.User, nil
}
