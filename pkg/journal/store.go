// Package journal keeps a local, append-only record of the mutating requests
// the console sends to the backend.
package journal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 500
)

// Store provides append-only operations on journal events.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database. Call AutoMigrate before use.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) the SQLite journal at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	s := NewStore(db)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// AutoMigrate creates or updates the journal table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Event{}); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append records a new event.
func (s *Store) Append(event *Event) error {
	if err := s.db.Create(event).Error; err != nil {
		return fmt.Errorf("append journal event: %w", err)
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Action  string
	Outcome string
	Since   time.Time
}

// List returns events newest first, ties broken by id. pageToken is the value
// returned by the previous call; an empty next token means there are no more
// events.
func (s *Store) List(filter ListFilter, pageSize int, pageToken string) ([]Event, string, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := s.db.Order("created_at DESC").Order("id DESC").Limit(pageSize + 1)
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Outcome != "" {
		query = query.Where("outcome = ?", filter.Outcome)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if pageToken != "" {
		at, id, err := decodePageToken(pageToken)
		if err != nil {
			return nil, "", err
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", at, at, id)
	}

	var events []Event
	if err := query.Find(&events).Error; err != nil {
		return nil, "", fmt.Errorf("list journal events: %w", err)
	}

	var next string
	if len(events) > pageSize {
		next = encodePageToken(events[pageSize-1])
		events = events[:pageSize]
	}
	return events, next, nil
}

// Page tokens are an opaque (created_at, id) cursor.
func encodePageToken(last Event) string {
	raw := last.CreatedAt.Format(time.RFC3339Nano) + "|" + last.ID
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

func decodePageToken(token string) (time.Time, string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid page token: %w", err)
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return time.Time{}, "", errors.New("invalid page token: missing cursor id")
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid page token: %w", err)
	}
	return at, id, nil
}

// DeleteOlderThan removes events created before cutoff.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&Event{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete old journal events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
