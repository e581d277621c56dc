package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// sessionRow is the database representation: the session payload is
// serialized JSON, with status and timestamps lifted out for querying
type sessionRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	Status    string `gorm:"size:16;index"`
	Payload   []byte `gorm:"type:longblob"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (sessionRow) TableName() string {
	return "interview_sessions"
}

// GormStore handles session persistence using GORM
type GormStore struct {
	db *gorm.DB

	// writeMu serializes read-modify-write mutations; the service runs
	// single-process, so a store-level lock is sufficient
	writeMu sync.Mutex
}

// NewGormStore creates a MySQL-backed session store
func NewGormStore(databaseURL string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &GormStore{db: db}, nil
}

// Create inserts a new session row
func (g *GormStore) Create(ctx context.Context, s *Session) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}

	if result := g.db.WithContext(ctx).Create(row); result.Error != nil {
		return fmt.Errorf("failed to create session: %w", result.Error)
	}
	return nil
}

// Get retrieves a session by id
func (g *GormStore) Get(ctx context.Context, id string) (*Session, error) {
	var row sessionRow
	result := g.db.WithContext(ctx).First(&row, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", result.Error)
	}

	return fromRow(&row)
}

// Put upserts the full session payload
func (g *GormStore) Put(ctx context.Context, s *Session) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}

	if result := g.db.WithContext(ctx).Save(row); result.Error != nil {
		return fmt.Errorf("failed to save session: %w", result.Error)
	}
	return nil
}

// SetAnswer records the answer for one question index under the write lock
func (g *GormStore) SetAnswer(ctx context.Context, id string, idx int, record *AnswerRecord) error {
	return g.update(ctx, id, func(s *Session) {
		if s.Answers == nil {
			s.Answers = make(map[int]*AnswerRecord)
		}
		s.Answers[idx] = record
	})
}

// SetStatus moves the session lifecycle forward, carrying the finalize
// bundles when completing
func (g *GormStore) SetStatus(ctx context.Context, id string, status Status, feedback *FeedbackBundle, key *AnswerKey) error {
	return g.update(ctx, id, func(s *Session) {
		s.Status = status
		if feedback != nil {
			s.Feedback = feedback
		}
		if key != nil {
			s.AnswerKey = key
		}
	})
}

// update runs a serialized read-modify-write of one session row
func (g *GormStore) update(ctx context.Context, id string, fn func(*Session)) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	s, err := g.Get(ctx, id)
	if err != nil {
		return err
	}

	fn(s)
	return g.Put(ctx, s)
}

// List returns every stored session ordered by creation time
func (g *GormStore) List(ctx context.Context) ([]*Session, error) {
	var rows []sessionRow
	result := g.db.WithContext(ctx).Order("created_at ASC").Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", result.Error)
	}

	sessions := make([]*Session, 0, len(rows))
	for i := range rows {
		s, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// Delete removes a session row
func (g *GormStore) Delete(ctx context.Context, id string) error {
	result := g.db.WithContext(ctx).Delete(&sessionRow{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Close closes the database connection
func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

func toRow(s *Session) (*sessionRow, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	return &sessionRow{
		ID:        s.ID,
		Status:    string(s.Status),
		Payload:   payload,
		CreatedAt: s.CreatedAt,
	}, nil
}

func fromRow(row *sessionRow) (*Session, error) {
	var s Session
	if err := json.Unmarshal(row.Payload, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}
