// Package pin gates director actions behind a six-digit PIN. The remote
// store holds the authoritative PIN; Redis keeps a bcrypt hash of the last
// PIN the store confirmed so verification survives a store outage.
package pin

import (
	"bytes"
	"context"
	stderrors "errors"
	"regexp"
	"time"

	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/common/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var pinFormat = regexp.MustCompile(`^[0-9]{6}$`)

var hashCost = bcrypt.DefaultCost

// seedMarker prefixes the hash written by Init. A seeded entry was never
// confirmed by the store and does not count as a credential.
var seedMarker = []byte("seed:")

// Store is the authoritative PIN holder.
type Store interface {
	CheckPIN(ctx context.Context, pin string) (bool, error)
	UpdatePIN(ctx context.Context, currentPIN, newPIN string) error
}

type Config struct {
	DefaultPIN string
	CacheKey   string
	CacheTTL   time.Duration
}

type Service struct {
	config Config
	store  Store
	redis  *redis.Client
	logger logger.Logger
}

func NewService(cfg Config, store Store, rdb *redis.Client, log logger.Logger) *Service {
	return &Service{
		config: cfg,
		store:  store,
		redis:  rdb,
		logger: log.With(map[string]interface{}{"component": "director-pin"}),
	}
}

// ValidFormat reports whether pin is exactly six ASCII digits.
func ValidFormat(pin string) bool {
	return pinFormat.MatchString(pin)
}

// Init seeds the cache with the configured default PIN unless an entry
// already exists. The seed is marked so Verify never falls back to it.
func (s *Service) Init(ctx context.Context) error {
	if !ValidFormat(s.config.DefaultPIN) {
		return errors.NewPinFormatError()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.config.DefaultPIN), hashCost)
	if err != nil {
		return err
	}
	seed := append(append([]byte{}, seedMarker...), hash...)
	seeded, err := s.redis.SetNX(ctx, s.config.CacheKey, seed, s.config.CacheTTL).Result()
	if err != nil {
		return err
	}
	if seeded {
		s.logger.Info("Director PIN cache seeded with default", nil)
	}
	return nil
}

// Verify accepts pin when the store confirms it. When the store cannot be
// reached the cached hash decides, but only if the store confirmed it
// earlier; the unconfirmed default seed yields the store error.
func (s *Service) Verify(ctx context.Context, pin string) error {
	if !ValidFormat(pin) {
		return errors.NewPinFormatError()
	}

	valid, err := s.store.CheckPIN(ctx, pin)
	if err == nil {
		if !valid {
			return errors.NewPinInvalidError()
		}
		s.remember(ctx, pin)
		return nil
	}

	s.logger.Warn("Store PIN check failed, falling back to cache", map[string]interface{}{
		"error": err.Error(),
	})

	hash, cacheErr := s.redis.Get(ctx, s.config.CacheKey).Bytes()
	if cacheErr != nil {
		if !stderrors.Is(cacheErr, redis.Nil) {
			s.logger.Warn("Director PIN cache read failed", map[string]interface{}{"error": cacheErr.Error()})
		}
		return err
	}
	if bytes.HasPrefix(hash, seedMarker) {
		s.logger.Warn("Director PIN cache holds only the unconfirmed default", nil)
		return err
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(pin)) != nil {
		return errors.NewPinInvalidError()
	}
	return nil
}

// Rotate replaces the director PIN. The store checks currentPIN.
func (s *Service) Rotate(ctx context.Context, currentPIN, newPIN string) error {
	if !ValidFormat(currentPIN) || !ValidFormat(newPIN) {
		return errors.NewPinFormatError()
	}
	if err := s.store.UpdatePIN(ctx, currentPIN, newPIN); err != nil {
		return err
	}
	s.remember(ctx, newPIN)
	s.logger.Info("Director PIN rotated", nil)
	return nil
}

func (s *Service) remember(ctx context.Context, pin string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), hashCost)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, s.config.CacheKey, hash, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn("Director PIN cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
