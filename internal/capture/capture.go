// Package capture stores recorded IQ sample data in a SQLite database: one
// session row per recording with the device identity and radio configuration,
// and a sequence of raw iq8 chunks in delivery order.
package capture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const (
	insertSessionSQL = `
INSERT INTO sessions (serial,
                      board_id,
                      firmware,
                      center_hz,
                      sample_hz,
                      filter_hz,
                      lna_gain,
                      vga_gain,
                      amp_enabled)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectSessionSQL = `
SELECT id,
       start_time,
       serial,
       board_id,
       firmware,
       center_hz,
       sample_hz,
       filter_hz,
       lna_gain,
       vga_gain,
       amp_enabled
FROM sessions
WHERE id = ?`

	selectSessionsSQL = `
SELECT id,
       start_time,
       serial,
       board_id,
       firmware,
       center_hz,
       sample_hz,
       filter_hz,
       lna_gain,
       vga_gain,
       amp_enabled
FROM sessions
ORDER BY start_time`

	insertChunkSQL = `
INSERT INTO chunks (session_id, seq, data)
VALUES (?, ?, ?)`

	selectChunksSQL = `
SELECT seq, data
FROM chunks
WHERE session_id = ?
ORDER BY seq`
)

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("capture: session not found")

// Session describes one recording: the board it came from and the radio
// configuration that was active while it ran.
type Session struct {
	ID         int64
	StartTime  time.Time
	Serial     string
	BoardID    int
	Firmware   string
	CenterHz   uint64
	SampleHz   uint32
	FilterHz   uint32
	LNAGain    int
	VGAGain    int
	AmpEnabled bool
}

// Chunk is one bulk transfer's worth of raw iq8 bytes.
type Chunk struct {
	Seq  int
	Data []byte
}

// Store is a capture database. A single Store may be shared between a writer
// and readers; SQLite's WAL mode keeps them out of each other's way.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) a capture database at path and ensures the
// schema exists.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err = db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateSession records the start of a recording and returns its ID.
func (s *Store) CreateSession(ctx context.Context, sess *Session) (int64, error) {
	result, err := s.db.ExecContext(ctx, insertSessionSQL,
		sess.Serial, sess.BoardID, sess.Firmware,
		int64(sess.CenterHz), int64(sess.SampleHz), int64(sess.FilterHz),
		sess.LNAGain, sess.VGAGain, sess.AmpEnabled)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting session ID: %w", err)
	}
	return id, nil
}

// Session retrieves one session by ID.
func (s *Store) Session(ctx context.Context, id int64) (*Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, selectSessionSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return sess, nil
}

// Sessions returns all sessions ordered by start time.
func (s *Store) Sessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var centerHz, sampleHz, filterHz int64
	if err := row.Scan(&sess.ID, &sess.StartTime, &sess.Serial, &sess.BoardID, &sess.Firmware,
		&centerHz, &sampleHz, &filterHz, &sess.LNAGain, &sess.VGAGain, &sess.AmpEnabled); err != nil {
		return nil, err
	}
	sess.CenterHz = uint64(centerHz)
	sess.SampleHz = uint32(sampleHz)
	sess.FilterHz = uint32(filterHz)
	return &sess, nil
}

// AppendChunks stores a batch of chunks for a session in one transaction.
func (s *Store) AppendChunks(ctx context.Context, sessionID int64, chunks []Chunk) (err error) {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertChunkSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err = stmt.ExecContext(ctx, sessionID, chunk.Seq, chunk.Data); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", chunk.Seq, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// Chunks iterates a session's chunks in sequence order. The caller must Close
// the iterator and check Err afterwards.
func (s *Store) Chunks(ctx context.Context, sessionID int64) (*ChunkIterator, error) {
	rows, err := s.db.QueryContext(ctx, selectChunksSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return &ChunkIterator{rows: rows}, nil
}

// Close releases the database. Safe to call more than once.
func (s *Store) Close() error {
	return s.db.Close()
}

// ChunkIterator walks chunk rows without loading a whole capture into memory.
type ChunkIterator struct {
	rows *sql.Rows
	cur  Chunk
	err  error
}

// Next advances to the next chunk, reporting false at the end of the set or
// on error.
func (it *ChunkIterator) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	it.err = it.rows.Scan(&it.cur.Seq, &it.cur.Data)
	return it.err == nil
}

// Chunk returns the current chunk. Valid after a true Next.
func (it *ChunkIterator) Chunk() Chunk { return it.cur }

// Err returns the first error encountered while iterating.
func (it *ChunkIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.rows.Err()
}

// Close releases the underlying rows.
func (it *ChunkIterator) Close() error { return it.rows.Close() }
