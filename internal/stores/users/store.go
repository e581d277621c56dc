// Package users implements the flat-file user store with password
// hashing and JWT access tokens.
package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// User is one registered account
type User struct {
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	HashedPassword string `json:"hashed_password"`
	CreatedAt      string `json:"created_at"`
	IsActive       bool   `json:"is_active"`
}

// Store persists users in a local JSON file
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a user store backed by the given JSON file. If the
// file holds no users, a demo account is seeded for first use.
func NewStore(path string) *Store {
	s := &Store{path: path}

	users, err := s.load()
	if err == nil && len(users) == 0 {
		if _, err := s.Create("demo", "demo123", "Demo User", "demo@face2phrase.com"); err == nil {
			log.Printf("[USERS]: Demo user created: username='demo'")
		}
	}

	return s
}

// Create registers a new user with a bcrypt-hashed password
func (s *Store) Create(username, password, fullName, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}

	if _, exists := users[username]; exists {
		return nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Username:       username,
		FullName:       fullName,
		Email:          email,
		HashedPassword: string(hashed),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		IsActive:       true,
	}

	users[username] = user
	if err := s.save(users); err != nil {
		return nil, err
	}

	return user, nil
}

// Get returns a user by username
func (s *Store) Get(username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return nil, err
	}

	user, ok := users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Authenticate checks the username/password pair
func (s *Store) Authenticate(username, password string) (*User, error) {
	user, err := s.Get(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// load reads the user file; a missing or corrupt file yields an empty map
func (s *Store) load() (map[string]*User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*User), nil
		}
		return nil, fmt.Errorf("failed to read user file: %w", err)
	}

	users := make(map[string]*User)
	if err := json.Unmarshal(data, &users); err != nil {
		return make(map[string]*User), nil
	}
	return users, nil
}

// save writes the full user map back to disk
func (s *Store) save(users map[string]*User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write user file: %w", err)
	}
	return nil
}
