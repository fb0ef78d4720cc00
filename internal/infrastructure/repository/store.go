package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/plexpatrol/plexpatrol/internal/infrastructure/persistence/mappers"
	"github.com/plexpatrol/plexpatrol/internal/shared/biztime"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

var (
	// ErrStoreWrite wraps every failed write.
	ErrStoreWrite = errors.New("store write failed")
	// ErrStoreRead wraps every failed read.
	ErrStoreRead = errors.New("store read failed")
)

func writeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreWrite, op, err)
}

func readErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreRead, op, err)
}

// Store persists accounts, stream history and termination counters. Each
// logical operation runs in one transaction; a failure is logged and
// returned to the caller, never panicked.
type Store struct {
	db            *gorm.DB
	userMapper    mappers.UserMapper
	sessionMapper mappers.SessionMapper
	logger        logger.Interface
	now           func() time.Time
}

type Option func(*Store)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = func() time.Time { return now().UTC() }
	}
}

func NewStore(db *gorm.DB, log logger.Interface, opts ...Option) *Store {
	s := &Store{
		db:            db,
		userMapper:    mappers.NewUserMapper(),
		sessionMapper: mappers.NewSessionMapper(),
		logger:        log,
		now:           biztime.NowUTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
