package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"rftrank/internal"
)

// DB persists snapshots of the canonical table between restarts. It is the
// durable loader behind Store: save after merge/append, load at startup.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS process_records (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  po TEXT NOT NULL,
  product TEXT NOT NULL,
  line INTEGER,
  mill INTEGER,
  rft_ext TEXT,
  rft_mill TEXT,
  throughput_ext REAL,
  throughput_mill REAL,
  dosing REAL,
  side_feed REAL,
  ht1 REAL,
  ht2 REAL,
  ht3 REAL,
  ht4 REAL,
  ht5 REAL,
  screw_speed REAL,
  torque REAL,
  feed REAL,
  sep REAL,
  rotor REAL,
  air_flow REAL
);
CREATE INDEX IF NOT EXISTS idx_process_records_po ON process_records(po);
CREATE INDEX IF NOT EXISTS idx_process_records_product ON process_records(product);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveSnapshot replaces the persisted table with the given records,
// preserving their order via the seq column.
func (d *DB) SaveSnapshot(records []internal.ProcessRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM process_records`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO process_records (
  po, product, line, mill, rft_ext, rft_mill,
  throughput_ext, throughput_mill,
  dosing, side_feed, ht1, ht2, ht3, ht4, ht5, screw_speed, torque,
  feed, sep, rotor, air_flow
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(
			r.PO, r.Product, r.Line, r.Mill, r.RFTExt, r.RFTMill,
			r.ThroughputExt, r.ThroughputMill,
			r.Dosing, r.SideFeed, r.HT1, r.HT2, r.HT3, r.HT4, r.HT5, r.ScrewSpeed, r.Torque,
			r.Feed, r.Sep, r.Rotor, r.AirFlow,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadSnapshot returns the persisted table in its original order.
func (d *DB) LoadSnapshot() ([]internal.ProcessRecord, error) {
	rows, err := d.conn.Query(`
SELECT po, product, line, mill, rft_ext, rft_mill,
       throughput_ext, throughput_mill,
       dosing, side_feed, ht1, ht2, ht3, ht4, ht5, screw_speed, torque,
       feed, sep, rotor, air_flow
FROM process_records ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ProcessRecord
	for rows.Next() {
		var r internal.ProcessRecord
		if err := rows.Scan(
			&r.PO, &r.Product, &r.Line, &r.Mill, &r.RFTExt, &r.RFTMill,
			&r.ThroughputExt, &r.ThroughputMill,
			&r.Dosing, &r.SideFeed, &r.HT1, &r.HT2, &r.HT3, &r.HT4, &r.HT5, &r.ScrewSpeed, &r.Torque,
			&r.Feed, &r.Sep, &r.Rotor, &r.AirFlow,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
