package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"giftgroup-onboarding/internal/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrMemberNotFound is returned when no member matches a lookup
var ErrMemberNotFound = errors.New("member not found")

const schema = `
CREATE TABLE IF NOT EXISTS members (
	id               TEXT PRIMARY KEY,
	phone            TEXT NOT NULL,
	group_code       TEXT NOT NULL,
	name             TEXT NOT NULL,
	avatar           TEXT NOT NULL,
	preferences      TEXT NOT NULL,
	amazon_connected INTEGER NOT NULL,
	joined_at        TIMESTAMP NOT NULL,
	UNIQUE (phone, group_code)
);
CREATE INDEX IF NOT EXISTS members_group_code ON members (group_code);
`

// Storage keeps members who finished onboarding. The database lives in
// memory and goes away with the process.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// NewStorage opens a fresh in-memory registry
func NewStorage(ctx context.Context) (*Storage, error) {
	// each registry gets its own named in-memory database
	dsn := fmt.Sprintf("file:members-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// the database is dropped once its last connection closes
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db, now: time.Now}, nil
}

// Close releases the database; its contents are lost
func (s *Storage) Close() error {
	return s.db.Close()
}

// AddMember adds a member or replaces the one with the same phone and group code
func (s *Storage) AddMember(ctx context.Context, member models.Member) (models.Member, error) {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = s.now().UTC()
	}
	member.Record = member.Record.Clone()

	prefs, err := json.Marshal(member.Record.Preferences)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to marshal preferences: %w", err)
	}

	const q = `
INSERT INTO members (id, phone, group_code, name, avatar, preferences, amazon_connected, joined_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (phone, group_code) DO UPDATE SET
	name = excluded.name,
	avatar = excluded.avatar,
	preferences = excluded.preferences,
	amazon_connected = excluded.amazon_connected`

	r := member.Record
	if _, err := s.db.ExecContext(ctx, q,
		member.ID, member.Phone, r.GroupCode, r.Name, r.Avatar, string(prefs), r.AmazonConnected, member.JoinedAt,
	); err != nil {
		return models.Member{}, fmt.Errorf("failed to save member: %w", err)
	}

	// an update keeps the original id and join date
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM members WHERE phone = ? AND group_code = ?`, member.Phone, r.GroupCode)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to query member: %w", err)
	}
	saved, err := scanMembers(rows)
	if err != nil {
		return models.Member{}, err
	}
	if len(saved) == 0 {
		return models.Member{}, ErrMemberNotFound
	}
	return saved[0], nil
}

// GetMember retrieves a member by id
func (s *Storage) GetMember(ctx context.Context, id string) (models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM members WHERE id = ?`, id)
	if err != nil {
		return models.Member{}, fmt.Errorf("failed to query member: %w", err)
	}
	members, err := scanMembers(rows)
	if err != nil {
		return models.Member{}, err
	}
	if len(members) == 0 {
		return models.Member{}, ErrMemberNotFound
	}
	return members[0], nil
}

// GetAllMembers returns all members in the order they joined
func (s *Storage) GetAllMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM members ORDER BY joined_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	return scanMembers(rows)
}

// GetMembersByGroup returns the members of one gift group
func (s *Storage) GetMembersByGroup(ctx context.Context, groupCode string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM members WHERE group_code = ? ORDER BY joined_at, rowid`, groupCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	return scanMembers(rows)
}

const columns = `id, phone, group_code, name, avatar, preferences, amazon_connected, joined_at`

func scanMembers(rows *sql.Rows) ([]models.Member, error) {
	defer rows.Close()

	var result []models.Member
	for rows.Next() {
		var (
			m     models.Member
			prefs string
		)
		if err := rows.Scan(&m.ID, &m.Phone, &m.Record.GroupCode, &m.Record.Name, &m.Record.Avatar,
			&prefs, &m.Record.AmazonConnected, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if err := json.Unmarshal([]byte(prefs), &m.Record.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}
	return result, nil
}
