// Package auth provides a small file-backed credential store. Passwords
// are hashed with SHA-256 over a per-user random salt plus an optional
// deployment-wide pepper. This is a pilot-grade gate, not a full
// identity system.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials is returned for unknown users and wrong
	// passwords alike; callers must not distinguish the two.
	ErrInvalidCredentials = fmt.Errorf("invalid username or password")

	// ErrUserExists is returned by Signup for a taken username.
	ErrUserExists = fmt.Errorf("username already taken")

	// ErrSignupClosed is returned by Signup when self-registration is
	// disabled for the deployment.
	ErrSignupClosed = fmt.Errorf("signup is disabled")
)

type userRecord struct {
	Salt      string    `json:"salt"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

type userFile struct {
	Users map[string]userRecord `json:"users"`
}

// Store manages user credentials in a single JSON file.
type Store struct {
	mu          sync.Mutex
	path        string
	pepper      string
	allowSignup bool
	users       map[string]userRecord
	logger      *zap.Logger
}

// Options tunes a Store.
type Options struct {
	Pepper      string
	AllowSignup bool
	Logger      *zap.Logger
}

// Open loads (or creates) the user file at path.
func Open(path string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		path:        path,
		pepper:      opts.Pepper,
		allowSignup: opts.AllowSignup,
		users:       map[string]userRecord{},
		logger:      logger,
	}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run; the file is written on the first mutation.
	case err != nil:
		return nil, fmt.Errorf("reading user file: %w", err)
	default:
		var f userFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing user file %s: %w", path, err)
		}
		if f.Users != nil {
			s.users = f.Users
		}
	}
	logger.Info("user store opened", zap.String("path", path), zap.Int("users", len(s.users)))
	return s, nil
}

// Bootstrap ensures an initial account exists. It is a no-op when the
// username is empty, already present, or the password is blank.
func (s *Store) Bootstrap(username, password string) error {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return nil
	}
	if err := s.addLocked(username, password); err != nil {
		return err
	}
	s.logger.Info("bootstrap user created", zap.String("user", username))
	return nil
}

// Signup registers a new user when self-registration is enabled.
func (s *Store) Signup(username, password string) error {
	username = normalizeUsername(username)
	if !s.allowSignup {
		return ErrSignupClosed
	}
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	return s.addLocked(username, password)
}

// Authenticate checks a username/password pair.
func (s *Store) Authenticate(username, password string) error {
	username = normalizeUsername(username)
	s.mu.Lock()
	rec, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		// Burn a hash anyway so lookups take comparable time.
		s.hash("missing", password)
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(s.hash(rec.Salt, password)), []byte(rec.Hash)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// Count reports the number of registered users.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) addLocked(username, password string) error {
	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}
	salt := hex.EncodeToString(saltBytes)
	s.users[username] = userRecord{
		Salt:      salt,
		Hash:      s.hash(salt, password),
		CreatedAt: time.Now().UTC(),
	}
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(userFile{Users: s.users}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding user file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating user file directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing user file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing user file: %w", err)
	}
	return nil
}

func (s *Store) hash(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + s.pepper + password))
	return hex.EncodeToString(sum[:])
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}
