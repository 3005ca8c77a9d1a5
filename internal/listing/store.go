package listing

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a new listing Store.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

func (s *store) UpsertUser(id, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Registration data is immutable; only the display name is refreshed.
	_, err := s.db.Exec(`
		INSERT INTO users (id, display_name, registered_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name;
	`, id, displayName, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", id, err)
	}
	return nil
}

func (s *store) CreateListing(ownerID string, category Category, teamSize TeamSize, attrs []string) (int64, error) {
	clean, err := validateAttributes(attrs)
	if err != nil {
		return 0, err
	}
	if category == CategoryClan {
		teamSize = ""
	} else if teamSize == "" {
		return 0, fmt.Errorf("teammate listing requires a team size: %w", ErrInvalidAttributes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT INTO listings (owner_id, category, team_size, attr1, attr2, attr3, attr4, attr5, created_at, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`, ownerID, category, nullString(string(teamSize)), clean[0], clean[1], clean[2], clean[3], clean[4], time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to create listing: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read new listing id: %w", err)
	}
	log.Info("Created listing", "listingID", id, "ownerID", ownerID, "category", category, "teamSize", teamSize)
	return id, nil
}

func (s *store) UpdateListing(id int64, attrs []string) error {
	clean, err := validateAttributes(attrs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The is_active predicate keeps an edit from resurrecting a listing
	// the sweeper retired in between.
	res, err := s.db.Exec(`
		UPDATE listings
		SET attr1 = ?, attr2 = ?, attr3 = ?, attr4 = ?, attr5 = ?, created_at = ?
		WHERE id = ? AND is_active = 1
	`, clean[0], clean[1], clean[2], clean[3], clean[4], time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update listing %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of listing %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	log.Info("Updated listing", "listingID", id)
	return nil
}

func (s *store) GetListing(id int64) (*Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT l.id, l.owner_id, u.display_name, l.category, l.team_size,
		       l.attr1, l.attr2, l.attr3, l.attr4, l.attr5, l.created_at, l.is_active
		FROM listings l
		JOIN users u ON l.owner_id = u.id
		WHERE l.id = ?
	`, id)
	l, err := scanListing(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing %d: %w", id, err)
	}
	return l, nil
}

func (s *store) SoftDeleteListing(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE listings SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete listing %d: %w", id, err)
	}
	return nil
}

func (s *store) SoftDeleteAllByOwner(ownerID string) ([]Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT l.id, l.owner_id, u.display_name, l.category, l.team_size,
		       l.attr1, l.attr2, l.attr3, l.attr4, l.attr5, l.created_at, l.is_active
		FROM listings l
		JOIN users u ON l.owner_id = u.id
		WHERE l.owner_id = ? AND l.is_active = 1
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select listings for owner %s: %w", ownerID, err)
	}
	retired, err := collectListings(rows)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec("UPDATE listings SET is_active = 0 WHERE owner_id = ? AND is_active = 1", ownerID); err != nil {
		return nil, fmt.Errorf("failed to soft-delete listings for owner %s: %w", ownerID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit owner delete: %w", err)
	}
	log.Info("Retired all listings for owner", "ownerID", ownerID, "count", len(retired))
	return retired, nil
}

func (s *store) ListActive(category Category, teamSize TeamSize) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT l.id, l.owner_id, u.display_name, l.category, l.team_size,
		       l.attr1, l.attr2, l.attr3, l.attr4, l.attr5, l.created_at, l.is_active
		FROM listings l
		JOIN users u ON l.owner_id = u.id
		WHERE l.is_active = 1 AND l.category = ?`
	args := []any{category}
	if category == CategoryTeammate {
		query += " AND l.team_size = ?"
		args = append(args, teamSize)
	}
	query += " ORDER BY l.created_at DESC, l.id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active listings: %w", err)
	}
	return collectListings(rows)
}

func (s *store) ListByOwner(ownerID string, category Category, teamSize TeamSize) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT l.id, l.owner_id, u.display_name, l.category, l.team_size,
		       l.attr1, l.attr2, l.attr3, l.attr4, l.attr5, l.created_at, l.is_active
		FROM listings l
		JOIN users u ON l.owner_id = u.id
		WHERE l.is_active = 1 AND l.owner_id = ? AND l.category = ?`
	args := []any{ownerID, category}
	if category == CategoryTeammate {
		query += " AND l.team_size = ?"
		args = append(args, teamSize)
	}
	query += " ORDER BY l.created_at DESC, l.id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings for owner %s: %w", ownerID, err)
	}
	return collectListings(rows)
}

func (s *store) HasActiveByOwner(ownerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM listings WHERE owner_id = ? AND is_active = 1)", ownerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check listings for owner %s: %w", ownerID, err)
	}
	return exists, nil
}

func (s *store) ListAll(limit, offset int) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT l.id, l.owner_id, u.display_name, l.category, l.team_size,
		       l.attr1, l.attr2, l.attr3, l.attr4, l.attr5, l.created_at, l.is_active
		FROM listings l
		JOIN users u ON l.owner_id = u.id
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list all listings: %w", err)
	}
	return collectListings(rows)
}

func (s *store) CountListings() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM listings").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

func (s *store) ExpireOlderThan(cutoff time.Time) ([]Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT l.id, l.owner_id, u.display_name, l.category, l.team_size,
		       l.attr1, l.attr2, l.attr3, l.attr4, l.attr5, l.created_at, l.is_active
		FROM listings l
		JOIN users u ON l.owner_id = u.id
		WHERE l.is_active = 1 AND l.created_at < ?
	`, cutoff.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to select stale listings: %w", err)
	}
	stale, err := collectListings(rows)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec("UPDATE listings SET is_active = 0 WHERE is_active = 1 AND created_at < ?", cutoff.Unix()); err != nil {
		return nil, fmt.Errorf("failed to retire stale listings: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit expiry: %w", err)
	}
	return stale, nil
}

func (s *store) GetRetentionDays() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = 'retention_days'").Scan(&raw)
	if err != nil {
		return 0, fmt.Errorf("failed to read retention setting: %w", err)
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("retention setting is not numeric: %w", err)
	}
	return days, nil
}

func (s *store) SetRetentionDays(days int) error {
	if days <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", days)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES ('retention_days', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value;
	`, strconv.Itoa(days))
	if err != nil {
		return fmt.Errorf("failed to write retention setting: %w", err)
	}
	log.Info("Retention period updated", "days", days)
	return nil
}

func (s *store) ExportUsers(w io.Writer) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT id, display_name, registered_at FROM users ORDER BY registered_at")
	if err != nil {
		return 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"user_id", "display_name", "registered_at"}); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	count := 0
	for rows.Next() {
		var id, name string
		var registeredAt int64
		if err := rows.Scan(&id, &name, &registeredAt); err != nil {
			log.Error("Failed to scan user row", "error", err)
			continue
		}
		record := []string{
			id,
			name,
			time.Unix(registeredAt, 0).UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return count, fmt.Errorf("failed to write csv row: %w", err)
		}
		count++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("failed to flush csv: %w", err)
	}
	return count, nil
}

// scanListing scans a single listing row, from either a Row or Rows.
func scanListing(scanner interface{ Scan(...any) error }) (*Listing, error) {
	var l Listing
	var teamSize sql.NullString
	var createdAt int64
	var attrs [AttributeCount]string

	err := scanner.Scan(
		&l.ID, &l.OwnerID, &l.OwnerName, &l.Category, &teamSize,
		&attrs[0], &attrs[1], &attrs[2], &attrs[3], &attrs[4],
		&createdAt, &l.IsActive,
	)
	if err != nil {
		return nil, err
	}

	l.TeamSize = TeamSize(teamSize.String)
	l.CreatedAt = time.Unix(createdAt, 0)
	l.Attributes = attrs[:]
	return &l, nil
}

func collectListings(rows *sql.Rows) ([]Listing, error) {
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			log.Error("Failed to scan listing row", "error", err)
			continue
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	return listings, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
