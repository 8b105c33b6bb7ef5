package cart

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Keys inside the local state file.
const (
	keyCart     = "cart"
	keyCustomer = "customer_name"
)

// State is the durable client-local store: a small sqlite file with a
// single key/value table. The cart survives a terminal restart through it;
// it is per-terminal and never synced anywhere.
type State struct {
	db *sql.DB
}

func OpenState(path string) (*State, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init local state: %w", err)
	}
	return &State{db: db}, nil
}

func (s *State) Close() error { return s.db.Close() }

func (s *State) get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *State) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *State) SaveCart(lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.set(keyCart, string(raw))
}

func (s *State) LoadCart() ([]Line, error) {
	raw, ok, err := s.get(keyCart)
	if err != nil || !ok {
		return nil, err
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode stored cart: %w", err)
	}
	return lines, nil
}

// SetCustomer locks in the customer name for the current checkout session.
func (s *State) SetCustomer(name string) error {
	return s.set(keyCustomer, name)
}

func (s *State) Customer() (string, error) {
	v, _, err := s.get(keyCustomer)
	return v, err
}
