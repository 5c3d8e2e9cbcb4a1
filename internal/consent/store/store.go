package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pawty/internal/consent/models"
	"pawty/internal/platform/kvstore"
	"pawty/internal/sentinel"
)

// Keys under which the decision is persisted. Both are written together and
// cleared together.
const (
	KeyChoice    = "corgi_consent_choice"
	KeyTimestamp = "corgi_consent_timestamp"
)

// Error Contract:
// - Load returns sentinel.ErrNotFound when either key is missing, when the
//   profile JSON is malformed or incomplete, or when the timestamp is not a
//   decimal millisecond value
// - Backend failures are returned wrapped; the service decides how to degrade

// Store persists the single consent record of one client.
type Store struct {
	kv kvstore.KV
}

// New wraps kv. Callers scope kv to one client with kvstore.WithNamespace.
func New(kv kvstore.KV) *Store {
	return &Store{kv: kv}
}

// Load reads the persisted record.
func (s *Store) Load(ctx context.Context) (*models.Record, error) {
	choice, err := s.kv.Get(ctx, KeyChoice)
	if err != nil {
		return nil, normalize(err, KeyChoice)
	}
	stamp, err := s.kv.Get(ctx, KeyTimestamp)
	if err != nil {
		return nil, normalize(err, KeyTimestamp)
	}

	var profile models.Profile
	if err := json.Unmarshal([]byte(choice), &profile); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyChoice, sentinel.ErrNotFound)
	}
	if !profile.IsValid() {
		return nil, fmt.Errorf("incomplete %s: %w", KeyChoice, sentinel.ErrNotFound)
	}

	ms, err := strconv.ParseInt(strings.TrimSpace(stamp), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyTimestamp, sentinel.ErrNotFound)
	}

	return &models.Record{Profile: profile, DecidedAt: time.UnixMilli(ms)}, nil
}

// Save replaces the persisted record.
func (s *Store) Save(ctx context.Context, record *models.Record) error {
	encoded, err := json.Marshal(record.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	err = s.kv.SetMany(ctx, map[string]string{
		KeyChoice:    string(encoded),
		KeyTimestamp: strconv.FormatInt(record.DecidedAt.UnixMilli(), 10),
	})
	if err != nil {
		return fmt.Errorf("save consent record: %w", err)
	}
	return nil
}

// Clear deletes the persisted record. Clearing an absent record is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyChoice, KeyTimestamp); err != nil {
		return fmt.Errorf("clear consent record: %w", err)
	}
	return nil
}

func normalize(err error, key string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("missing %s: %w", key, sentinel.ErrNotFound)
	}
	return fmt.Errorf("read %s: %w", key, err)
}
