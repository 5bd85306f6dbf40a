package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"course-importer/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver.
)

// Store keeps import runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// ImportRun describes one stored import.
type ImportRun struct {
	ID        string
	Provider  string
	CreatedAt time.Time
}

// OpenStore opens or creates the SQLite database and applies migrations.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS imports (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS schedule_configs (
			import_id TEXT PRIMARY KEY,
			semester_start_date TEXT,
			total_weeks INTEGER NOT NULL,
			first_day_of_week INTEGER NOT NULL,
			default_class_duration INTEGER,
			default_break_duration INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS courses (
			import_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			name TEXT NOT NULL,
			teacher TEXT NOT NULL,
			position TEXT NOT NULL,
			day INTEGER NOT NULL,
			start_section INTEGER NOT NULL,
			end_section INTEGER NOT NULL,
			weeks TEXT NOT NULL,
			PRIMARY KEY (import_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS time_slots (
			import_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			number INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			PRIMARY KEY (import_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_imports_created_at ON imports(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Begin starts a new import run. The run row is written by the first accept call.
func (s *Store) Begin(provider string) *StoreRun {
	return &StoreRun{
		store: s,
		run: ImportRun{
			ID:        uuid.NewString(),
			Provider:  provider,
			CreatedAt: time.Now().UTC(),
		},
	}
}

// StoreRun is the Gateway for a single import run.
type StoreRun struct {
	store *Store
	run   ImportRun
}

// ID returns the run identifier.
func (r *StoreRun) ID() string {
	return r.run.ID
}

func (r *StoreRun) within(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO imports (id, provider, created_at) VALUES (?, ?, ?)`,
		r.run.ID, r.run.Provider, r.run.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// AcceptScheduleConfig implements Gateway.
func (r *StoreRun) AcceptScheduleConfig(ctx context.Context, cfg model.ScheduleConfig) error {
	return r.within(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO schedule_configs (import_id, semester_start_date, total_weeks, first_day_of_week, default_class_duration, default_break_duration)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.run.ID,
			nullString(cfg.SemesterStartDate),
			cfg.TotalWeeks,
			cfg.FirstDayOfWeek,
			nullInt(cfg.DefaultClassDuration),
			nullInt(cfg.DefaultBreakDuration),
		)
		return err
	})
}

// AcceptCourses implements Gateway.
func (r *StoreRun) AcceptCourses(ctx context.Context, courses []model.Course) error {
	return r.within(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO courses (import_id, seq, name, teacher, position, day, start_section, end_section, weeks)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, c := range courses {
			if _, err := stmt.ExecContext(ctx, r.run.ID, i, c.Name, c.Teacher, c.Position, c.Day, c.StartSection, c.EndSection, model.FormatWeeks(c.Weeks)); err != nil {
				return err
			}
		}
		return nil
	})
}

// AcceptTimeSlots implements Gateway.
func (r *StoreRun) AcceptTimeSlots(ctx context.Context, slots []model.TimeSlot) error {
	return r.within(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO time_slots (import_id, seq, number, start_time, end_time) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, slot := range slots {
			if _, err := stmt.ExecContext(ctx, r.run.ID, i, slot.Number, slot.StartTime, slot.EndTime); err != nil {
				return err
			}
		}
		return nil
	})
}

// ErrNoImports is returned when the store holds no import run.
var ErrNoImports = errors.New("no imports stored")

// LatestImport returns the most recent import run, optionally for one provider.
func (s *Store) LatestImport(ctx context.Context, provider string) (ImportRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, provider, created_at FROM imports
		 WHERE (? = '' OR provider = ?)
		 ORDER BY created_at DESC
		 LIMIT 1`, provider, provider)
	var run ImportRun
	var created string
	if err := row.Scan(&run.ID, &run.Provider, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ImportRun{}, ErrNoImports
		}
		return ImportRun{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return ImportRun{}, fmt.Errorf("import %s: bad created_at %q: %w", run.ID, created, err)
	}
	run.CreatedAt = ts
	return run, nil
}

// ListCourses returns the stored courses of an import run in accept order.
func (s *Store) ListCourses(ctx context.Context, importID string) ([]model.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, teacher, position, day, start_section, end_section, weeks
		 FROM courses WHERE import_id = ? ORDER BY seq`, importID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		var weeks string
		if err := rows.Scan(&c.Name, &c.Teacher, &c.Position, &c.Day, &c.StartSection, &c.EndSection, &weeks); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(weeks), &c.Weeks); err != nil {
			return nil, fmt.Errorf("decode weeks %q: %w", weeks, err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

// ListTimeSlots returns the stored time slots of an import run.
func (s *Store) ListTimeSlots(ctx context.Context, importID string) ([]model.TimeSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT number, start_time, end_time FROM time_slots WHERE import_id = ? ORDER BY seq`, importID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	slots := []model.TimeSlot{}
	for rows.Next() {
		var slot model.TimeSlot
		if err := rows.Scan(&slot.Number, &slot.StartTime, &slot.EndTime); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// GetScheduleConfig returns the stored config of an import run.
func (s *Store) GetScheduleConfig(ctx context.Context, importID string) (model.ScheduleConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT semester_start_date, total_weeks, first_day_of_week, default_class_duration, default_break_duration
		 FROM schedule_configs WHERE import_id = ?`, importID)
	var cfg model.ScheduleConfig
	var start sql.NullString
	var class, brk sql.NullInt64
	if err := row.Scan(&start, &cfg.TotalWeeks, &cfg.FirstDayOfWeek, &class, &brk); err != nil {
		return model.ScheduleConfig{}, err
	}
	if start.Valid {
		cfg.SemesterStartDate = &start.String
	}
	if class.Valid {
		v := int(class.Int64)
		cfg.DefaultClassDuration = &v
	}
	if brk.Valid {
		v := int(brk.Int64)
		cfg.DefaultBreakDuration = &v
	}
	return cfg, nil
}

// LoadSchedule assembles everything stored for an import run. A missing config
// row leaves the zero config.
func (s *Store) LoadSchedule(ctx context.Context, importID string) (model.Schedule, error) {
	var schedule model.Schedule
	cfg, err := s.GetScheduleConfig(ctx, importID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return schedule, err
	}
	schedule.Config = cfg
	if schedule.Courses, err = s.ListCourses(ctx, importID); err != nil {
		return schedule, err
	}
	if schedule.TimeSlots, err = s.ListTimeSlots(ctx, importID); err != nil {
		return schedule, err
	}
	return schedule, nil
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
