package database

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/jgoulah/taxistats/pkg/models"
	_ "modernc.org/sqlite"
)

const timestampFormat = "2006-01-02 15:04:05"

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		value REAL,
		source TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_observations_timestamp ON observations(timestamp);

	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		source TEXT NOT NULL,
		rows INTEGER NOT NULL,
		adf_stat REAL,
		p_value REAL,
		used_lag INTEGER,
		nobs INTEGER,
		report_path TEXT,
		summary TEXT,
		published INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON analysis_runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_published ON analysis_runs(published);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// InsertObservations stores observations in one transaction, ignoring
// timestamps that already exist. It returns the number of new rows.
func (db *DB) InsertObservations(obs []models.Observation, source string) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR IGNORE INTO observations (timestamp, value, source, created_at)
	VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, o := range obs {
		// NaN is stored as NULL
		var value sql.NullFloat64
		if !math.IsNaN(o.Value) {
			value = sql.NullFloat64{Float64: o.Value, Valid: true}
		}

		res, err := stmt.Exec(o.Timestamp.UTC().Format(timestampFormat), value, source, createdAt)
		if err != nil {
			return 0, fmt.Errorf("inserting observation %s: %w", o.Timestamp.Format(timestampFormat), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing observations: %w", err)
	}
	return inserted, nil
}

// ListObservations returns observations ordered by timestamp. Zero since or
// until leave that side of the range open; until is inclusive of the whole day.
func (db *DB) ListObservations(since, until time.Time) ([]models.Observation, error) {
	query := `SELECT timestamp, value FROM observations WHERE 1=1`
	var args []interface{}
	if !since.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, since.UTC().Format(timestampFormat))
	}
	if !until.IsZero() {
		query += ` AND timestamp < ?`
		args = append(args, until.UTC().AddDate(0, 0, 1).Format("2006-01-02")+" 00:00:00")
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var results []models.Observation
	for rows.Next() {
		var tsStr string
		var value sql.NullFloat64
		if err := rows.Scan(&tsStr, &value); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		ts, err := time.Parse(timestampFormat, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}

		o := models.Observation{Timestamp: ts, Value: math.NaN()}
		if value.Valid {
			o.Value = value.Float64
		}
		results = append(results, o)
	}

	return results, rows.Err()
}

// CountObservations returns the number of stored observations
func (db *DB) CountObservations() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM observations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting observations: %w", err)
	}
	return n, nil
}

// InsertRun records an analysis run
func (db *DB) InsertRun(run *models.AnalysisRun) error {
	query := `
	INSERT INTO analysis_runs (id, created_at, source, rows, adf_stat, p_value, used_lag, nobs, report_path, summary, published)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`

	_, err := db.conn.Exec(query,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339),
		run.Source,
		run.Rows,
		nullableFloat(run.ADFStat),
		nullableFloat(run.PValue),
		run.UsedLag,
		run.NObs,
		run.ReportPath,
		run.Summary,
	)
	if err != nil {
		return fmt.Errorf("inserting analysis run: %w", err)
	}
	return nil
}

// ListRuns retrieves all analysis runs, newest first
func (db *DB) ListRuns() ([]models.AnalysisRun, error) {
	return db.queryRuns(`
	SELECT id, created_at, source, rows, adf_stat, p_value, used_lag, nobs, report_path, summary, published
	FROM analysis_runs
	ORDER BY created_at DESC
	`)
}

// ListUnpublishedRuns retrieves runs that have not been published, newest first
func (db *DB) ListUnpublishedRuns() ([]models.AnalysisRun, error) {
	return db.queryRuns(`
	SELECT id, created_at, source, rows, adf_stat, p_value, used_lag, nobs, report_path, summary, published
	FROM analysis_runs
	WHERE published = 0
	ORDER BY created_at DESC
	`)
}

func (db *DB) queryRuns(query string) ([]models.AnalysisRun, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying analysis runs: %w", err)
	}
	defer rows.Close()

	var results []models.AnalysisRun
	for rows.Next() {
		var run models.AnalysisRun
		var createdAt string
		var adfStat, pValue sql.NullFloat64
		var reportPath, summary sql.NullString
		var published int

		if err := rows.Scan(&run.ID, &createdAt, &run.Source, &run.Rows, &adfStat, &pValue,
			&run.UsedLag, &run.NObs, &reportPath, &summary, &published); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		run.ADFStat, run.PValue = math.NaN(), math.NaN()
		if adfStat.Valid {
			run.ADFStat = adfStat.Float64
		}
		if pValue.Valid {
			run.PValue = pValue.Float64
		}
		run.ReportPath = reportPath.String
		run.Summary = summary.String
		run.Published = published != 0

		results = append(results, run)
	}

	return results, rows.Err()
}

// MarkPublished marks an analysis run as published
func (db *DB) MarkPublished(id string) error {
	query := `UPDATE analysis_runs SET published = 1 WHERE id = ?`
	_, err := db.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("marking run as published: %w", err)
	}
	return nil
}

func nullableFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
