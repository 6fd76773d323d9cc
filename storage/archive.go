package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"linae/model"
)

// SessionSummary describes one archived session.
type SessionSummary struct {
	ID        string    `json:"id"`
	Turns     int       `json:"turns"`
	StartedAt time.Time `json:"started_at"`
	LastAt    time.Time `json:"last_at"`
}

// Archive is the opt-in sqlite copy of every appended turn.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (creating if needed) the archive database at dbPath.
func OpenArchive(dbPath string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The server and the TUI timers can write at the same time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	a := &Archive{db: db}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return a, nil
}

func (a *Archive) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		image_mime TEXT DEFAULT '',
		image_data BLOB,
		document_name TEXT DEFAULT '',
		document_text TEXT DEFAULT '',
		result TEXT DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, created_at);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Record stores t under sessionID. Recording the same turn twice keeps the
// first copy.
func (a *Archive) Record(ctx context.Context, sessionID string, t model.Turn) error {
	var (
		imageMIME, docName, docText, result string
		imageData                           []byte
	)
	if t.Image != nil {
		imageMIME, imageData = t.Image.MIMEType, t.Image.Data
	}
	if t.Document != nil {
		docName, docText = t.Document.Name, t.Document.Text
	}
	if t.Result != nil {
		data, err := json.Marshal(t.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		result = string(data)
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO turns
			(id, session_id, role, content, created_at, image_mime, image_data, document_name, document_text, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, sessionID, string(t.Role), t.Content, t.Timestamp.UnixNano(),
		imageMIME, imageData, docName, docText, result)
	if err != nil {
		return fmt.Errorf("failed to archive turn %s: %w", t.ID, err)
	}
	return nil
}

// Turns returns the archived turns of one session, oldest first.
func (a *Archive) Turns(ctx context.Context, sessionID string) ([]model.Turn, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, role, content, created_at, image_mime, image_data, document_name, document_text, result
		FROM turns WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	turns := []model.Turn{}
	for rows.Next() {
		var (
			t                                 model.Turn
			role, imageMIME, docName, docText string
			result                            string
			created                           int64
			imageData                         []byte
		)
		if err := rows.Scan(&t.ID, &role, &t.Content, &created, &imageMIME, &imageData, &docName, &docText, &result); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Role = model.Role(role)
		t.Timestamp = time.Unix(0, created)
		if imageMIME != "" {
			t.Image = &model.Image{MIMEType: imageMIME, Data: imageData}
		}
		if docName != "" {
			t.Document = &model.Document{Name: docName, Text: docText}
		}
		if result != "" {
			var r model.Result
			if err := json.Unmarshal([]byte(result), &r); err != nil {
				return nil, fmt.Errorf("failed to parse result of turn %s: %w", t.ID, err)
			}
			t.Result = &r
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Sessions lists archived sessions, most recently active first.
func (a *Archive) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MIN(created_at), MAX(created_at)
		FROM turns GROUP BY session_id ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var (
			s           SessionSummary
			first, last int64
		)
		if err := rows.Scan(&s.ID, &s.Turns, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.StartedAt = time.Unix(0, first)
		s.LastAt = time.Unix(0, last)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Search returns up to limit turns whose content contains query, newest
// first.
func (a *Archive) Search(ctx context.Context, query string, limit int) ([]TurnMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []TurnMatch{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	rows, err := a.db.QueryContext(ctx, `
		SELECT session_id, role, content, created_at
		FROM turns WHERE lower(content) LIKE ? ESCAPE '\'
		ORDER BY created_at DESC LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search archive: %w", err)
	}
	defer rows.Close()

	matches := []TurnMatch{}
	for rows.Next() {
		var (
			m             TurnMatch
			role, content string
			created       int64
		)
		if err := rows.Scan(&m.SessionID, &role, &content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.Role = model.Role(role)
		m.Preview = Preview(content)
		m.Timestamp = time.Unix(0, created)
		m.TurnIndex = -1
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Sink returns a model.TurnSink writing into this archive under sessionID.
func (a *Archive) Sink(sessionID string) model.TurnSink {
	return &sessionSink{archive: a, sessionID: sessionID}
}

func (a *Archive) Close() error {
	return a.db.Close()
}

type sessionSink struct {
	archive   *Archive
	sessionID string
}

func (s *sessionSink) Record(ctx context.Context, t model.Turn) error {
	return s.archive.Record(ctx, s.sessionID, t)
}
