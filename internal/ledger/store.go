package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Scene is one ledger row.
type Scene struct {
	SceneID    string
	ItemType   string
	BundleType string
	Instrument string
	StripID    string
	Acquired   time.Time
	ShelvedDir string
	Method     string
	RunID      string
	ShelvedAt  time.Time
}

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies migrations.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert records scenes in one transaction and returns the number written.
// An existing row for the same scene id is replaced.
func (s *Store) Upsert(ctx context.Context, scenes []Scene) (int, error) {
	if len(scenes) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO shelved_scenes (
            scene_id, item_type, bundle_type, instrument, strip_id,
            acquired, shelved_dir, method, run_id, shelved_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(scene_id) DO UPDATE SET
            item_type = excluded.item_type,
            bundle_type = excluded.bundle_type,
            instrument = excluded.instrument,
            strip_id = excluded.strip_id,
            acquired = excluded.acquired,
            shelved_dir = excluded.shelved_dir,
            method = excluded.method,
            run_id = excluded.run_id,
            shelved_at = excluded.shelved_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, scene := range scenes {
		if strings.TrimSpace(scene.SceneID) == "" {
			return 0, errors.New("scene id is empty")
		}
		shelvedAt := scene.ShelvedAt
		if shelvedAt.IsZero() {
			shelvedAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			scene.SceneID,
			scene.ItemType,
			scene.BundleType,
			nullableString(scene.Instrument),
			nullableString(scene.StripID),
			scene.Acquired.UTC().Format(time.RFC3339Nano),
			scene.ShelvedDir,
			scene.Method,
			scene.RunID,
			shelvedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return 0, fmt.Errorf("upsert scene %s: %w", scene.SceneID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ledger: %w", err)
	}
	return len(scenes), nil
}

const sceneColumns = "scene_id, item_type, bundle_type, instrument, strip_id, acquired, shelved_dir, method, run_id, shelved_at"

// List returns ledger rows ordered by acquisition time, optionally filtered
// by item type.
func (s *Store) List(ctx context.Context, itemType string) ([]Scene, error) {
	query := `SELECT ` + sceneColumns + ` FROM shelved_scenes`
	var args []any
	if itemType = strings.TrimSpace(itemType); itemType != "" {
		query += ` WHERE item_type = ?`
		args = append(args, itemType)
	}
	query += ` ORDER BY acquired, scene_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	var scenes []Scene
	for rows.Next() {
		scene, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, scene)
	}
	return scenes, rows.Err()
}

// Get fetches one scene by id. A missing row returns nil, nil.
func (s *Store) Get(ctx context.Context, sceneID string) (*Scene, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM shelved_scenes WHERE scene_id = ?`, sceneID)
	scene, err := scanScene(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return &scene, nil
}

// Count returns the number of scenes on hand.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM shelved_scenes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scenes: %w", err)
	}
	return n, nil
}

func scanScene(scanner interface{ Scan(dest ...any) error }) (Scene, error) {
	var (
		scene        Scene
		instrument   sql.NullString
		stripID      sql.NullString
		acquiredRaw  string
		shelvedAtRaw string
	)
	if err := scanner.Scan(
		&scene.SceneID,
		&scene.ItemType,
		&scene.BundleType,
		&instrument,
		&stripID,
		&acquiredRaw,
		&scene.ShelvedDir,
		&scene.Method,
		&scene.RunID,
		&shelvedAtRaw,
	); err != nil {
		return Scene{}, err
	}
	scene.Instrument = instrument.String
	scene.StripID = stripID.String
	scene.Acquired = parseTime(acquiredRaw)
	scene.ShelvedAt = parseTime(shelvedAtRaw)
	return scene, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
