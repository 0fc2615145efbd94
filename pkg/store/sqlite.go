package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vulnwatch/vulnwatch/pkg/models"
)

const vulnerabilitySchema = `
CREATE TABLE IF NOT EXISTS vulnerabilities (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               TEXT NOT NULL UNIQUE,
	cve_id           TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	severity         TEXT NOT NULL,
	severity_score   REAL NOT NULL,
	cvss_score       REAL NOT NULL DEFAULT 0,
	source_tool      TEXT NOT NULL DEFAULT '',
	detected_at      DATETIME NOT NULL,
	affected_port    INTEGER NOT NULL DEFAULT 0,
	affected_service TEXT NOT NULL DEFAULT '',
	solution         TEXT NOT NULL DEFAULT '',
	refs             TEXT NOT NULL DEFAULT '[]',
	device_id        TEXT NOT NULL DEFAULT '',
	scan_session_id  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_vulnerabilities_order ON vulnerabilities(severity_score DESC, detected_at DESC, seq ASC);
CREATE INDEX IF NOT EXISTS idx_vulnerabilities_device ON vulnerabilities(device_id);
CREATE INDEX IF NOT EXISTS idx_vulnerabilities_severity ON vulnerabilities(severity, detected_at DESC);
`

const vulnerabilityColumns = `id, cve_id, title, description, severity, severity_score, cvss_score,
	source_tool, detected_at, affected_port, affected_service, solution, refs, device_id, scan_session_id`

// SQLiteStore is the durable vulnerability record store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the database at the given path
// and ensures the schema exists. Use ":memory:" for an ephemeral store.
func OpenSQLite(dataSourceName string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dataSourceName); dataSourceName != ":memory:" && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName+"?_foreign_keys=on&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := db.Exec(vulnerabilitySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(v models.Vulnerability) error {
	refs, err := json.Marshal(v.References)
	if err != nil {
		return fmt.Errorf("encoding references for %s: %w", v.ID, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO vulnerabilities (`+vulnerabilityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.CVEID, v.Title, v.Description, string(v.Severity), v.SeverityScore, v.CVSSScore,
		v.SourceTool, v.DetectedAt.UTC(), v.AffectedPort, v.AffectedService, v.Solution,
		string(refs), v.DeviceID, v.ScanSessionID,
	)
	if err != nil {
		return fmt.Errorf("inserting vulnerability %s: %w", v.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Query(f Filter, limit, offset int) ([]models.Vulnerability, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM vulnerabilities"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting vulnerabilities: %w", err)
	}

	query := "SELECT " + vulnerabilityColumns + " FROM vulnerabilities" + where +
		" ORDER BY severity_score DESC, detected_at DESC, seq ASC"
	pageArgs := args
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		pageArgs = append(append([]interface{}{}, args...), limit, offset)
	} else if offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		pageArgs = append(append([]interface{}{}, args...), offset)
	}

	rows, err := s.db.Query(query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying vulnerabilities: %w", err)
	}
	defer rows.Close()

	vulns, err := scanVulnerabilities(rows)
	if err != nil {
		return nil, 0, err
	}
	return vulns, total, nil
}

func (s *SQLiteStore) GetByID(id string) (models.Vulnerability, error) {
	row := s.db.QueryRow("SELECT "+vulnerabilityColumns+" FROM vulnerabilities WHERE id = ?", id)
	v, err := scanVulnerability(row)
	if err == sql.ErrNoRows {
		return models.Vulnerability{}, ErrNotFound
	}
	if err != nil {
		return models.Vulnerability{}, fmt.Errorf("querying vulnerability %s: %w", id, err)
	}
	return v, nil
}

func (s *SQLiteStore) DeleteByID(id string) error {
	result, err := s.db.Exec("DELETE FROM vulnerabilities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting vulnerability %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting vulnerability %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) RecentBySeverity(sev models.Severity, limit int) ([]models.Vulnerability, error) {
	query := "SELECT " + vulnerabilityColumns + ` FROM vulnerabilities
		WHERE severity = ? ORDER BY detected_at DESC, seq ASC`
	args := []interface{}{string(sev)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vulnerabilities by severity: %w", err)
	}
	defer rows.Close()
	return scanVulnerabilities(rows)
}

func (s *SQLiteStore) DetectedSince(cutoff time.Time) ([]models.Vulnerability, error) {
	rows, err := s.db.Query("SELECT "+vulnerabilityColumns+` FROM vulnerabilities
		WHERE detected_at >= ? ORDER BY seq ASC`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying recent vulnerabilities: %w", err)
	}
	defer rows.Close()
	return scanVulnerabilities(rows)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func buildWhere(f Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.DeviceID != "" {
		clauses = append(clauses, "device_id = ?")
		args = append(args, f.DeviceID)
	}
	if f.ScanSessionID != "" {
		clauses = append(clauses, "scan_session_id = ?")
		args = append(args, f.ScanSessionID)
	}
	if f.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, string(f.Severity))
	}
	if f.SourceTool != "" {
		clauses = append(clauses, "source_tool = ?")
		args = append(args, f.SourceTool)
	}
	if f.CVEID != "" {
		clauses = append(clauses, "cve_id = ?")
		args = append(args, f.CVEID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVulnerability(row rowScanner) (models.Vulnerability, error) {
	var v models.Vulnerability
	var severity, refs string
	if err := row.Scan(
		&v.ID, &v.CVEID, &v.Title, &v.Description, &severity, &v.SeverityScore, &v.CVSSScore,
		&v.SourceTool, &v.DetectedAt, &v.AffectedPort, &v.AffectedService, &v.Solution,
		&refs, &v.DeviceID, &v.ScanSessionID,
	); err != nil {
		return v, err
	}
	v.Severity = models.Severity(severity)
	if err := json.Unmarshal([]byte(refs), &v.References); err != nil {
		return v, fmt.Errorf("decoding references for %s: %w", v.ID, err)
	}
	return v, nil
}

func scanVulnerabilities(rows *sql.Rows) ([]models.Vulnerability, error) {
	vulns := []models.Vulnerability{}
	for rows.Next() {
		v, err := scanVulnerability(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning vulnerability row: %w", err)
		}
		vulns = append(vulns, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vulnerability rows: %w", err)
	}
	return vulns, nil
}
