package intake

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/reklamap/recommender/internal/signals"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS complaints (
	complaint_id  TEXT PRIMARY KEY,
	profile       TEXT NOT NULL,
	answers_json  TEXT NOT NULL,
	received_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_complaints_profile ON complaints(profile, received_at);
`

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// #endregion schema

// #region store-struct
// Store keeps complaint answers in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #region add
// Add stores the answers under a fresh complaint ID.
func (s *Store) Add(profile string, answers signals.SignalSet) (Complaint, error) {
	c := Complaint{
		ID:         uuid.New().String(),
		Profile:    profile,
		Signals:    answers,
		ReceivedAt: s.now().UTC(),
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return Complaint{}, fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO complaints (complaint_id, profile, answers_json, received_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Profile, string(data), c.ReceivedAt.Format(timeLayout),
	)
	if err != nil {
		return Complaint{}, fmt.Errorf("insert complaint: %w", err)
	}
	return c, nil
}

// #endregion add

// #region get
// Get loads one complaint by ID.
func (s *Store) Get(id string) (Complaint, error) {
	row := s.db.QueryRow(
		`SELECT complaint_id, profile, answers_json, received_at FROM complaints WHERE complaint_id = ?`, id)
	c, err := scanComplaint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Complaint{}, fmt.Errorf("get complaint %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Complaint{}, fmt.Errorf("get complaint %s: %w", id, err)
	}
	return c, nil
}

// #endregion get

// #region list
// List returns complaints newest first. An empty profile lists all of
// them; limit <= 0 means no limit.
func (s *Store) List(profile string, limit int) ([]Complaint, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT complaint_id, profile, answers_json, received_at FROM complaints
		 WHERE ? = '' OR profile = ?
		 ORDER BY received_at DESC, complaint_id
		 LIMIT ?`,
		profile, profile, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	var out []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of stored complaints per profile.
func (s *Store) Count() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT profile, COUNT(*) FROM complaints GROUP BY profile`)
	if err != nil {
		return nil, fmt.Errorf("count complaints: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var p string
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[p] = n
	}
	return out, rows.Err()
}

// #endregion list

// #region helpers

type scanner interface {
	Scan(dest ...any) error
}

func scanComplaint(r scanner) (Complaint, error) {
	var c Complaint
	var answers, received string
	if err := r.Scan(&c.ID, &c.Profile, &answers, &received); err != nil {
		return Complaint{}, err
	}
	if err := json.Unmarshal([]byte(answers), &c.Signals); err != nil {
		return Complaint{}, fmt.Errorf("decode answers: %w", err)
	}
	at, err := time.Parse(timeLayout, received)
	if err != nil {
		return Complaint{}, fmt.Errorf("decode received_at: %w", err)
	}
	c.ReceivedAt = at
	return c, nil
}

// #endregion helpers
