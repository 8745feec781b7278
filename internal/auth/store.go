package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
	"github.com/wyvern0us/proxy/internal/shared/id"
)

// Sentinel errors for credential operations.
var (
	// ErrUserExists indicates a registration for a taken username.
	ErrUserExists = errors.New("auth: username already registered")

	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidUsername indicates an empty or malformed username.
	ErrInvalidUsername = errors.New("auth: invalid username")

	// ErrInvalidPassword indicates a password below the minimum length.
	ErrInvalidPassword = errors.New("auth: password too short")
)

const (
	userKeyPrefix     = "user:"
	minPasswordLength = 8
	maxUsernameLength = 32
)

// User is a registered account. PasswordHash is a bcrypt digest and never
// leaves this package in serialized form.
type User struct {
	ID           id.UserID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists accounts in an embedded Badger database.
type Store struct {
	db     *badger.DB
	logger *logging.Logger
	cost   int
}

// NewStore opens (or creates) the credential database at dataDir.
func NewStore(dataDir string, logger *logging.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dataDir).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger,
		cost:   bcrypt.DefaultCost,
	}, nil
}

// NewInMemoryStore opens a store that lives only for the process. Used in
// tests and ephemeral deployments.
func NewInMemoryStore(logger *logging.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger,
		// MinCost keeps hashing out of the test hot path.
		cost: bcrypt.MinCost,
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Register creates an account. The username is stored lowercased so logins
// are case-insensitive.
func (s *Store) Register(ctx context.Context, username, password string) (*User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrInvalidPassword
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           id.NewUserID(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	encoded, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	key := userKey(username)
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrUserExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, encoded)
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to store user: %w", err)
	}

	s.logger.Info("Account registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", username),
	)
	return user, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and bad
// passwords both return ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.lookup(username)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Burn a comparison anyway so unknown usernames cost the same
			// as wrong passwords.
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Lookup fetches an account by username without verifying a password.
func (s *Store) Lookup(ctx context.Context, username string) (*User, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, ErrInvalidUsername
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	user, err := s.lookup(username)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *Store) lookup(username string) (*User, error) {
	var user User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func userKey(username string) []byte {
	return []byte(userKeyPrefix + username)
}

func normalizeUsername(username string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || len(username) > maxUsernameLength {
		return "", ErrInvalidUsername
	}
	for _, r := range username {
		if !isUsernameRune(r) {
			return "", ErrInvalidUsername
		}
	}
	return username, nil
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '.':
		return true
	}
	return false
}

// dummyHash is a bcrypt digest of an unguessable value, used to equalize
// timing between unknown-user and wrong-password failures.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}()
