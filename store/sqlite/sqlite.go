/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.TxStore (punches, shift segments, employee directory,
  man-hour records) on SQLite. Two drivers are supported:
  - DriverMattn   ("sqlite3"): github.com/mattn/go-sqlite3, cgo
  - DriverModernc ("sqlite"):  modernc.org/sqlite, pure Go

KEY TABLES:
  punches:          Append-only clock events, role re-tagged in place
  shift_segments:   Effective-dated break configuration, append-only
  employees:        Directory rows used for eligibility
  man_hour_records: Computed intervals, replaced per employee/work day

ENCODING:
  - Instants are INTEGER unix milliseconds (UTC on read)
  - Dates are TEXT "2006-01-02"
  - Clocks are TEXT "15:04", break durations INTEGER minutes
  - Hours are TEXT decimal strings, never REAL

INDEXES:
  - idx_punches_employee_ts: Work-day window reads (hot path)
  - idx_punches_pending:     Partial index over unresolved Unknown punches
  - idx_records_open:        Partial index for the incomplete-record query

CONCURRENCY:
  Every write goes through Worker, one goroutine owning one transaction at
  a time. WithTx runs the whole callback as a single Worker job, so a
  delete-then-recreate of an employee/day can never interleave with
  another write. Reads use the pool directly.

  ":memory:" databases are limited to one connection; every connection
  to ":memory:" would otherwise open its own empty database.

USAGE:
  store, err := sqlite.New("./data/manhours.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on Open().

SEE ALSO:
  - generic/store.go: Interface definitions
  - worker.go: Single-writer queue
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/warp/manhour-engine/generic"
)

type Driver string

const (
	DriverMattn   Driver = "sqlite3"
	DriverModernc Driver = "sqlite"
)

// ParseDriver maps a config value to a Driver. Empty means DriverMattn.
func ParseDriver(s string) (Driver, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(s))) {
	case "", DriverMattn:
		return DriverMattn, nil
	case DriverModernc:
		return DriverModernc, nil
	}
	return "", fmt.Errorf("unknown sqlite driver %q (want %q or %q)", s, DriverMattn, DriverModernc)
}

// Store implements generic.TxStore using SQLite.
type Store struct {
	db     *sql.DB
	worker *Worker
}

// New opens dbPath with the mattn driver.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	return Open(context.Background(), DriverMattn, dbPath)
}

// Open opens dbPath with the given driver and migrates the schema.
func Open(ctx context.Context, driver Driver, dbPath string) (*Store, error) {
	inMemory := dbPath == ":memory:"

	var dsn string
	switch driver {
	case DriverMattn:
		dsn = dbPath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	case DriverModernc:
		if inMemory {
			dsn = dbPath
		} else {
			dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
		}
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	s.worker = NewWorker(db, 256)
	return s, nil
}

// Close stops the write worker and closes the database.
func (s *Store) Close() error {
	s.worker.Close()
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	-- Punches (append-only, role is the only mutable column)
	CREATE TABLE IF NOT EXISTS punches (
		id INTEGER PRIMARY KEY,
		employee_key TEXT NOT NULL,
		ts_ms INTEGER NOT NULL,
		input_channel TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'unknown',
		resolved_at_ms INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_punches_employee_ts
		ON punches(employee_key, ts_ms);
	CREATE INDEX IF NOT EXISTS idx_punches_pending
		ON punches(ts_ms) WHERE role = 'unknown' AND resolved_at_ms IS NULL;

	-- Shift segments (append-only, seq keeps append order)
	CREATE TABLE IF NOT EXISTS shift_segments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		employee_key TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		break_a_start TEXT NOT NULL,
		break_a_minutes INTEGER NOT NULL DEFAULT 0,
		break_b_start TEXT NOT NULL,
		break_b_minutes INTEGER NOT NULL DEFAULT 0,
		spans_midnight INTEGER NOT NULL DEFAULT 0,
		is_flexible INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_segments_employee
		ON shift_segments(employee_key, seq);

	-- Employee directory
	CREATE TABLE IF NOT EXISTS employees (
		key TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		attendance_tracked INTEGER NOT NULL DEFAULT 1,
		employment_start TEXT NOT NULL,
		employment_end TEXT
	);

	-- Man-hour records (delete-then-recreate per employee/work day)
	CREATE TABLE IF NOT EXISTS man_hour_records (
		id TEXT PRIMARY KEY,
		employee_key TEXT NOT NULL,
		work_date TEXT NOT NULL,
		start_ms INTEGER NOT NULL,
		end_ms INTEGER,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		hours TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_employee_date
		ON man_hour_records(employee_key, work_date);
	CREATE INDEX IF NOT EXISTS idx_records_open
		ON man_hour_records(start_ms) WHERE end_ms IS NULL;
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// PUNCH STORE
// =============================================================================

func (s *Store) AppendPunches(ctx context.Context, punches []generic.Punch) error {
	return s.worker.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return appendPunches(ctx, tx, punches)
	})
}

func (s *Store) PunchesInRange(ctx context.Context, key generic.EmployeeKey, from, to time.Time) ([]generic.Punch, error) {
	return punchesInRange(ctx, s.db, key, nil, from, to)
}

func (s *Store) PunchesByRole(ctx context.Context, key generic.EmployeeKey, role generic.Role, from, to time.Time) ([]generic.Punch, error) {
	return punchesInRange(ctx, s.db, key, &role, from, to)
}

func (s *Store) PendingPunches(ctx context.Context) ([]generic.Punch, error) {
	return pendingPunches(ctx, s.db)
}

func (s *Store) UpdateRoles(ctx context.Context, updates []generic.RoleUpdate) error {
	return s.worker.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return updateRoles(ctx, tx, updates)
	})
}

const punchColumns = `id, employee_key, ts_ms, input_channel, role, resolved_at_ms`

func appendPunches(ctx context.Context, q querier, punches []generic.Punch) error {
	query := `INSERT INTO punches (` + punchColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	for _, p := range punches {
		_, err := q.ExecContext(ctx, query,
			int64(p.ID),
			string(p.EmployeeKey),
			p.Timestamp.UnixMilli(),
			string(p.InputChannel),
			string(p.Role),
			nullMillis(p.ResolvedAt),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("%w: duplicate punch id %d", generic.ErrInvalidPunch, p.ID)
			}
			return fmt.Errorf("failed to append punch %d: %w", p.ID, err)
		}
	}
	return nil
}

func punchesInRange(ctx context.Context, q querier, key generic.EmployeeKey, role *generic.Role, from, to time.Time) ([]generic.Punch, error) {
	query := `SELECT ` + punchColumns + ` FROM punches
		WHERE employee_key = ? AND ts_ms >= ? AND ts_ms < ?`
	args := []any{string(key), from.UnixMilli(), to.UnixMilli()}
	if role != nil {
		query += ` AND role = ?`
		args = append(args, string(*role))
	}
	query += ` ORDER BY ts_ms ASC, id ASC`
	return queryPunches(ctx, q, query, args...)
}

func pendingPunches(ctx context.Context, q querier) ([]generic.Punch, error) {
	return queryPunches(ctx, q, `SELECT `+punchColumns+` FROM punches
		WHERE role = 'unknown' AND resolved_at_ms IS NULL
		ORDER BY ts_ms ASC, id ASC`)
}

func updateRoles(ctx context.Context, q querier, updates []generic.RoleUpdate) error {
	for _, u := range updates {
		res, err := q.ExecContext(ctx,
			`UPDATE punches SET role = ?, resolved_at_ms = ? WHERE id = ?`,
			string(u.Role), u.ResolvedAt.UnixMilli(), int64(u.ID),
		)
		if err != nil {
			return fmt.Errorf("failed to update punch %d: %w", u.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("update role: punch %d not found", u.ID)
		}
	}
	return nil
}

func queryPunches(ctx context.Context, q querier, query string, args ...any) ([]generic.Punch, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query punches: %w", err)
	}
	defer rows.Close()

	var punches []generic.Punch
	for rows.Next() {
		var (
			p          generic.Punch
			id         int64
			key        string
			tsMillis   int64
			channel    string
			role       string
			resolvedAt sql.NullInt64
		)
		if err := rows.Scan(&id, &key, &tsMillis, &channel, &role, &resolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		p.ID = generic.PunchID(id)
		p.EmployeeKey = generic.EmployeeKey(key)
		p.Timestamp = fromMillis(tsMillis)
		p.InputChannel = generic.InputChannel(channel)
		if p.Role, err = generic.ParseRole(role); err != nil {
			return nil, fmt.Errorf("punch %d: %w", id, err)
		}
		if resolvedAt.Valid {
			t := fromMillis(resolvedAt.Int64)
			p.ResolvedAt = &t
		}
		punches = append(punches, p)
	}
	return punches, rows.Err()
}

// =============================================================================
// SEGMENT STORE
// =============================================================================

func (s *Store) AppendSegment(ctx context.Context, seg generic.ShiftSegment) error {
	return s.worker.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return appendSegment(ctx, tx, seg)
	})
}

func (s *Store) SegmentsFor(ctx context.Context, key generic.EmployeeKey) ([]generic.ShiftSegment, error) {
	return segmentsFor(ctx, s.db, key)
}

func appendSegment(ctx context.Context, q querier, seg generic.ShiftSegment) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO shift_segments
		(id, employee_key, effective_from, break_a_start, break_a_minutes,
		 break_b_start, break_b_minutes, spans_midnight, is_flexible)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(seg.ID),
		string(seg.EmployeeKey),
		seg.EffectiveFrom.String(),
		seg.BreakA.Start.String(), int(seg.BreakA.Duration/time.Minute),
		seg.BreakB.Start.String(), int(seg.BreakB.Duration/time.Minute),
		seg.SpansMidnight,
		seg.IsFlexible,
	)
	if err != nil {
		return fmt.Errorf("failed to append segment %s: %w", seg.ID, err)
	}
	return nil
}

func segmentsFor(ctx context.Context, q querier, key generic.EmployeeKey) ([]generic.ShiftSegment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, employee_key, effective_from, break_a_start, break_a_minutes,
		       break_b_start, break_b_minutes, spans_midnight, is_flexible
		FROM shift_segments
		WHERE employee_key = ?
		ORDER BY seq ASC`, string(key))
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []generic.ShiftSegment
	for rows.Next() {
		var (
			seg                  generic.ShiftSegment
			id, empKey, from     string
			aStart, bStart       string
			aMinutes, bMinutes   int
			spansMidnight, flexi bool
		)
		if err := rows.Scan(&id, &empKey, &from, &aStart, &aMinutes, &bStart, &bMinutes, &spansMidnight, &flexi); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		seg.ID = generic.SegmentID(id)
		seg.EmployeeKey = generic.EmployeeKey(empKey)
		if seg.EffectiveFrom, err = generic.ParseDate(from); err != nil {
			return nil, err
		}
		if seg.BreakA, err = breakWindow(aStart, aMinutes); err != nil {
			return nil, err
		}
		if seg.BreakB, err = breakWindow(bStart, bMinutes); err != nil {
			return nil, err
		}
		seg.SpansMidnight = spansMidnight
		seg.IsFlexible = flexi
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func breakWindow(start string, minutes int) (generic.BreakWindow, error) {
	c, err := generic.ParseClock(start)
	if err != nil {
		return generic.BreakWindow{}, err
	}
	return generic.BreakWindow{Start: c, Duration: time.Duration(minutes) * time.Minute}, nil
}

// =============================================================================
// EMPLOYEE DIRECTORY
// =============================================================================

// SaveEmployee inserts or replaces an employee row.
func (s *Store) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	return s.worker.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return saveEmployee(ctx, tx, emp)
	})
}

func (s *Store) GetEmployee(ctx context.Context, key generic.EmployeeKey) (generic.Employee, error) {
	return getEmployee(ctx, s.db, key)
}

func (s *Store) ListEmployees(ctx context.Context) ([]generic.Employee, error) {
	return listEmployees(ctx, s.db)
}

const employeeColumns = `key, name, attendance_tracked, employment_start, employment_end`

func saveEmployee(ctx context.Context, q querier, emp generic.Employee) error {
	var end sql.NullString
	if emp.EmploymentEnd != nil {
		end = sql.NullString{String: emp.EmploymentEnd.String(), Valid: true}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			attendance_tracked = excluded.attendance_tracked,
			employment_start = excluded.employment_start,
			employment_end = excluded.employment_end`,
		string(emp.Key), emp.Name, emp.AttendanceTracked, emp.EmploymentStart.String(), end,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.Key, err)
	}
	return nil
}

func getEmployee(ctx context.Context, q querier, key generic.EmployeeKey) (generic.Employee, error) {
	row := q.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE key = ?`, string(key))
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.Employee{}, generic.ErrEmployeeNotFound
	}
	return emp, err
}

func listEmployees(ctx context.Context, q querier) ([]generic.Employee, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []generic.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(sc scanner) (generic.Employee, error) {
	var (
		emp        generic.Employee
		key, start string
		end        sql.NullString
	)
	if err := sc.Scan(&key, &emp.Name, &emp.AttendanceTracked, &start, &end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return emp, err
		}
		return emp, fmt.Errorf("failed to scan employee: %w", err)
	}
	emp.Key = generic.EmployeeKey(key)

	var err error
	if emp.EmploymentStart, err = generic.ParseDate(start); err != nil {
		return emp, err
	}
	if end.Valid && end.String != "" {
		d, err := generic.ParseDate(end.String)
		if err != nil {
			return emp, err
		}
		emp.EmploymentEnd = &d
	}
	return emp, nil
}

// =============================================================================
// MAN-HOUR STORE
// =============================================================================

func (s *Store) DeleteManHours(ctx context.Context, key generic.EmployeeKey, date generic.Date) (int64, error) {
	var n int64
	err := s.worker.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		n, err = deleteManHours(ctx, tx, key, date)
		return err
	})
	return n, err
}

func (s *Store) SaveManHours(ctx context.Context, records []generic.ManHourRecord) error {
	return s.worker.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return saveManHours(ctx, tx, records)
	})
}

func (s *Store) ManHours(ctx context.Context, key generic.EmployeeKey, date generic.Date) ([]generic.ManHourRecord, error) {
	return manHours(ctx, s.db, key, date)
}

func (s *Store) OldestOpenManHour(ctx context.Context) (*generic.ManHourRecord, error) {
	return oldestOpen(ctx, s.db)
}

func (s *Store) CountOpenManHours(ctx context.Context) (int64, error) {
	return countOpen(ctx, s.db)
}

const recordColumns = `id, employee_key, work_date, start_ms, end_ms, break_minutes, hours`

func deleteManHours(ctx context.Context, q querier, key generic.EmployeeKey, date generic.Date) (int64, error) {
	res, err := q.ExecContext(ctx,
		`DELETE FROM man_hour_records WHERE employee_key = ? AND work_date = ?`,
		string(key), date.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return res.RowsAffected()
}

func saveManHours(ctx context.Context, q querier, records []generic.ManHourRecord) error {
	query := `INSERT INTO man_hour_records (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, r := range records {
		_, err := q.ExecContext(ctx, query,
			string(r.ID),
			string(r.EmployeeKey),
			r.WorkDate.String(),
			r.Start.UnixMilli(),
			nullMillis(r.End),
			r.BreakMinutes,
			r.Hours.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to save record %s: %w", r.ID, err)
		}
	}
	return nil
}

func manHours(ctx context.Context, q querier, key generic.EmployeeKey, date generic.Date) ([]generic.ManHourRecord, error) {
	return queryRecords(ctx, q, `SELECT `+recordColumns+` FROM man_hour_records
		WHERE employee_key = ? AND work_date = ?
		ORDER BY start_ms ASC, id ASC`, string(key), date.String())
}

func oldestOpen(ctx context.Context, q querier) (*generic.ManHourRecord, error) {
	recs, err := queryRecords(ctx, q, `SELECT `+recordColumns+` FROM man_hour_records
		WHERE end_ms IS NULL
		ORDER BY start_ms ASC, id ASC
		LIMIT 1`)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

func countOpen(ctx context.Context, q querier) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM man_hour_records WHERE end_ms IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count open records: %w", err)
	}
	return n, nil
}

func queryRecords(ctx context.Context, q querier, query string, args ...any) ([]generic.ManHourRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []generic.ManHourRecord
	for rows.Next() {
		var (
			r             generic.ManHourRecord
			id, key, date string
			startMillis   int64
			endMillis     sql.NullInt64
			hours         string
		)
		if err := rows.Scan(&id, &key, &date, &startMillis, &endMillis, &r.BreakMinutes, &hours); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.ID = generic.RecordID(id)
		r.EmployeeKey = generic.EmployeeKey(key)
		if r.WorkDate, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		r.Start = fromMillis(startMillis)
		if endMillis.Valid {
			end := fromMillis(endMillis.Int64)
			r.End = &end
		}
		if r.Hours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("record %s: bad hours %q: %w", id, hours, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx runs fn as one Worker job inside one SQL transaction. fn must
// not call back into s; the Worker is busy running it.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	return s.worker.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

// txStore routes reads and writes through the open transaction.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) AppendPunches(ctx context.Context, punches []generic.Punch) error {
	return appendPunches(ctx, ts.tx, punches)
}

func (ts *txStore) PunchesInRange(ctx context.Context, key generic.EmployeeKey, from, to time.Time) ([]generic.Punch, error) {
	return punchesInRange(ctx, ts.tx, key, nil, from, to)
}

func (ts *txStore) PunchesByRole(ctx context.Context, key generic.EmployeeKey, role generic.Role, from, to time.Time) ([]generic.Punch, error) {
	return punchesInRange(ctx, ts.tx, key, &role, from, to)
}

func (ts *txStore) PendingPunches(ctx context.Context) ([]generic.Punch, error) {
	return pendingPunches(ctx, ts.tx)
}

func (ts *txStore) UpdateRoles(ctx context.Context, updates []generic.RoleUpdate) error {
	return updateRoles(ctx, ts.tx, updates)
}

func (ts *txStore) AppendSegment(ctx context.Context, seg generic.ShiftSegment) error {
	return appendSegment(ctx, ts.tx, seg)
}

func (ts *txStore) SegmentsFor(ctx context.Context, key generic.EmployeeKey) ([]generic.ShiftSegment, error) {
	return segmentsFor(ctx, ts.tx, key)
}

func (ts *txStore) SaveEmployee(ctx context.Context, emp generic.Employee) error {
	return saveEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) GetEmployee(ctx context.Context, key generic.EmployeeKey) (generic.Employee, error) {
	return getEmployee(ctx, ts.tx, key)
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]generic.Employee, error) {
	return listEmployees(ctx, ts.tx)
}

func (ts *txStore) DeleteManHours(ctx context.Context, key generic.EmployeeKey, date generic.Date) (int64, error) {
	return deleteManHours(ctx, ts.tx, key, date)
}

func (ts *txStore) SaveManHours(ctx context.Context, records []generic.ManHourRecord) error {
	return saveManHours(ctx, ts.tx, records)
}

func (ts *txStore) ManHours(ctx context.Context, key generic.EmployeeKey, date generic.Date) ([]generic.ManHourRecord, error) {
	return manHours(ctx, ts.tx, key, date)
}

func (ts *txStore) OldestOpenManHour(ctx context.Context) (*generic.ManHourRecord, error) {
	return oldestOpen(ctx, ts.tx)
}

func (ts *txStore) CountOpenManHours(ctx context.Context) (int64, error) {
	return countOpen(ctx, ts.tx)
}

var (
	_ generic.TxStore = (*Store)(nil)
	_ generic.Store   = (*txStore)(nil)
)

// =============================================================================
// HELPERS
// =============================================================================

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
