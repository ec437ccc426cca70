package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys under which the session is persisted
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var (
	// ErrMalformedProfile is returned when the stored user profile is not valid JSON.
	ErrMalformedProfile = errors.New("malformed user profile")
)

// ID is a user identifier that the backend may send as a number or a string
type ID string

// UnmarshalJSON accepts both JSON numbers and strings
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// User is the cached profile of the signed-in user
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

// Backend is persistent key-value storage. Put and Delete apply all of
// their keys atomically.
type Backend interface {
	Get(key string) (string, bool, error)
	Put(entries map[string]string) error
	Delete(keys ...string) error
}

// Store holds the auth token and user profile
type Store struct {
	backend Backend
}

// NewStore creates a session store over backend
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// GetToken returns the persisted token, or "" when none is set
func (s *Store) GetToken() (string, error) {
	token, _, err := s.backend.Get(KeyToken)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

// SetToken persists token, overwriting any prior value
func (s *Store) SetToken(token string) error {
	if err := s.backend.Put(map[string]string{KeyToken: token}); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// RemoveToken deletes the persisted token
func (s *Store) RemoveToken() error {
	if err := s.backend.Delete(KeyToken); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// GetUser returns the cached profile. A missing or null profile yields (nil, nil);
// a profile that does not parse yields an error wrapping ErrMalformedProfile.
func (s *Store) GetUser() (*User, error) {
	raw, ok, err := s.backend.Get(KeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read user profile: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	// a stored null stays nil, like an absent profile
	var user *User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}
	return user, nil
}

// SetUser caches the user profile
func (s *Store) SetUser(user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}
	if err := s.backend.Put(map[string]string{KeyUser: string(data)}); err != nil {
		return fmt.Errorf("failed to save user profile: %w", err)
	}
	return nil
}

// RemoveUser deletes the cached profile
func (s *Store) RemoveUser() error {
	if err := s.backend.Delete(KeyUser); err != nil {
		return fmt.Errorf("failed to remove user profile: %w", err)
	}
	return nil
}

// Save writes token and profile together
func (s *Store) Save(token string, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}
	err = s.backend.Put(map[string]string{
		KeyToken: token,
		KeyUser:  string(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes token and profile together
func (s *Store) Clear() error {
	if err := s.backend.Delete(KeyToken, KeyUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
