package places

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"croplens/geo"
)

// cacheTTL is how long a resolved place location is reused.
const cacheTTL = 30 * 24 * time.Hour

// Cache stores resolved place locations in SQLite.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// cachePath returns $DATA_DIR/places.db, defaulting to ~/.croplens.
func cachePath() string {
	dir := os.Getenv("DATA_DIR")
	if dir == "" {
		dir = os.ExpandEnv("$HOME/.croplens")
	}
	return filepath.Join(dir, "places.db")
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open place cache: %w", err)
	}

	// SQLite works best with limited connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS place_locations (
			place_id TEXT PRIMARY KEY,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			cached_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create place cache: %w", err)
	}

	return &Cache{db: db, ttl: cacheTTL, now: time.Now}, nil
}

// Get returns the cached location of placeID if it has not expired.
func (c *Cache) Get(placeID string) (*geo.Coordinates, bool) {
	var lat, lon float64
	var cachedAt int64
	err := c.db.QueryRow(
		`SELECT lat, lon, cached_at FROM place_locations WHERE place_id = ?`, placeID,
	).Scan(&lat, &lon, &cachedAt)
	if err != nil {
		return nil, false
	}
	if c.now().Sub(time.Unix(cachedAt, 0)) > c.ttl {
		return nil, false
	}
	return &geo.Coordinates{Lat: lat, Lon: lon}, true
}

// Put stores the location of placeID.
func (c *Cache) Put(placeID string, loc geo.Coordinates) error {
	_, err := c.db.Exec(
		`INSERT INTO place_locations (place_id, lat, lon, cached_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(place_id) DO UPDATE SET lat = excluded.lat, lon = excluded.lon, cached_at = excluded.cached_at`,
		placeID, loc.Lat, loc.Lon, c.now().Unix(),
	)
	return err
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
