package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ShellSubject identifies the desktop shell as the token holder.
const ShellSubject = "desktop-shell"

var ErrInvalidToken = errors.New("invalid session token")

// SessionManager signs and checks the bearer token the desktop shell presents.
// The signing key lives only in memory, so tokens from a previous run are rejected.
type SessionManager struct {
	secretKey []byte
	ttl       time.Duration
}

// NewSessionManager creates a manager with a fresh random signing key.
func NewSessionManager(ttl time.Duration) (*SessionManager, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	return &SessionManager{secretKey: key, ttl: ttl}, nil
}

// IssueToken signs a token for the shell that expires after the configured TTL.
func (m *SessionManager) IssueToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   ShellSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// ValidateToken checks signature, expiry and subject.
func (m *SessionManager) ValidateToken(tokenString string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithSubject(ShellSubject), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// WriteTokenFile stores token where only the current user can read it.
func WriteTokenFile(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}
