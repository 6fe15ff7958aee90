package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/prerender/internal/crawler"
)

// FileName is the database file name inside the history directory.
const FileName = "prerender.db"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Store is the SQLite run history.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures how the database is opened.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL turns on write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options the CLI uses.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the history database in dir.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		state TEXT NOT NULL,
		pages INTEGER NOT NULL,
		failures INTEGER NOT NULL,
		pending INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		path TEXT NOT NULL,
		depth INTEGER NOT NULL,
		render_ms INTEGER NOT NULL,
		size INTEGER NOT NULL,
		hash TEXT NOT NULL,
		cached INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);

	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		error TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Run is a stored crawl run.
type Run struct {
	ID        int64
	Seed      string
	StartedAt time.Time
	Elapsed   time.Duration
	State     string
	Pages     int
	Failures  int
	Pending   int

	// Error is the error that ended the run, or "".
	Error string
}

// Page is a stored page of a run.
type Page struct {
	RunID      int64
	URL        string
	Path       string
	Depth      int
	RenderTime time.Duration
	Size       int
	Hash       string
	Cached     bool
}

// Failure is a stored failed page of a run.
type Failure struct {
	RunID int64
	URL   string
	Kind  string
	Error string
}

// SaveRun stores a crawl result and the error the run ended with, if any,
// in one transaction. It returns the new run ID.
func (s *Store) SaveRun(ctx context.Context, result *crawler.Result, runErr error) (id int64, err error) {
	if result == nil {
		return 0, errors.New("nil crawl result")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (seed, started_at, elapsed_ms, state, pages, failures, pending, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.Seed,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.Elapsed.Milliseconds(),
		result.State.String(),
		len(result.Pages),
		len(result.Failures),
		len(result.Pending),
		errText,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, p := range result.Pages {
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO pages (run_id, url, path, depth, render_ms, size, hash, cached)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.URL, p.Path, p.Depth, p.RenderTime.Milliseconds(), p.Size, p.Hash, p.Cached,
		); err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
	}

	for _, f := range result.Failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		if _, err = tx.ExecContext(ctx, `
		INSERT INTO failures (run_id, url, kind, error)
		VALUES (?, ?, ?, ?)`,
			id, f.URL, f.Kind, msg,
		); err != nil {
			return 0, fmt.Errorf("failed to insert failure %s: %w", f.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

const runColumns = `id, seed, started_at, elapsed_ms, state, pages, failures, pending, error`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r         Run
		startedAt string
		elapsedMS int64
		errText   sql.NullString
	)
	if err := row.Scan(&r.ID, &r.Seed, &startedAt, &elapsedMS, &r.State, &r.Pages, &r.Failures, &r.Pending, &errText); err != nil {
		return nil, err
	}
	r.StartedAt = parseTimestamp(startedAt)
	r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	r.Error = errText.String
	return &r, nil
}

// GetRun returns the run with the given ID, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns returns runs newest first. An empty seed lists every seed;
// limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, seed string, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if seed != "" {
		query += ` WHERE seed = ?`
		args = append(args, seed)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// Pages returns the pages of a run in crawl order.
func (s *Store) Pages(ctx context.Context, runID int64) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT run_id, url, path, depth, render_ms, size, hash, cached
	FROM pages WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	pages := make([]Page, 0)
	for rows.Next() {
		var (
			p        Page
			renderMS int64
		)
		if err := rows.Scan(&p.RunID, &p.URL, &p.Path, &p.Depth, &renderMS, &p.Size, &p.Hash, &p.Cached); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.RenderTime = time.Duration(renderMS) * time.Millisecond
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Failures returns the failed pages of a run in crawl order.
func (s *Store) Failures(ctx context.Context, runID int64) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT run_id, url, kind, error
	FROM failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get failures: %w", err)
	}
	defer rows.Close()

	failures := make([]Failure, 0)
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.RunID, &f.URL, &f.Kind, &f.Error); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// timestampFormats are the layouts a stored timestamp may use.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
