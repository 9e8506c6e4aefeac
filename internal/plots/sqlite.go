package plots

import (
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteRegistry wraps Registry with write-through persistence. All records
// are loaded into the in-memory registry on open; reads never touch disk.
type SQLiteRegistry struct {
	inner *Registry
	db    *sqlx.DB
	mu    sync.Mutex
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS plots (
	plot_id      TEXT PRIMARY KEY,
	area_sqm     REAL NOT NULL DEFAULT 0,
	gfa_sqm      REAL NOT NULL DEFAULT 0,
	zoning       TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	lat          REAL NOT NULL DEFAULT 0,
	lng          REAL NOT NULL DEFAULT 0,
	geometry_ref TEXT NOT NULL DEFAULT ''
);
`

func OpenSQLiteRegistry(dbPath string) (*SQLiteRegistry, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLiteRegistry{inner: NewRegistry(), db: db}
	if err := s.loadAll(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load plots: %w", err)
	}
	return s, nil
}

func (s *SQLiteRegistry) Close() error { return s.db.Close() }

func (s *SQLiteRegistry) loadAll() error {
	rows, err := s.db.Query("SELECT plot_id, area_sqm, gfa_sqm, zoning, status, location, lat, lng, geometry_ref FROM plots")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.AreaSqm, &rec.GFASqm, &rec.Zoning, &rec.Status, &rec.Location, &rec.Lat, &rec.Lng, &rec.GeometryRef); err != nil {
			return err
		}
		s.inner.Upsert(rec)
	}
	return rows.Err()
}

func (s *SQLiteRegistry) Upsert(rec Record) error {
	s.inner.Upsert(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT OR REPLACE INTO plots (plot_id, area_sqm, gfa_sqm, zoning, status, location, lat, lng, geometry_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AreaSqm, rec.GFASqm, rec.Zoning, rec.Status, rec.Location, rec.Lat, rec.Lng, rec.GeometryRef)
	return err
}

func (s *SQLiteRegistry) Get(id string) (Record, bool) { return s.inner.Get(id) }
func (s *SQLiteRegistry) List() []Record               { return s.inner.List() }
func (s *SQLiteRegistry) Len() int                     { return s.inner.Len() }
