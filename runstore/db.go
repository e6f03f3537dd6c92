// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runstore stores canonical run records in a SQL database.
//
// Records are written in uploads. Each upload gets an ID of the form
// YYYYMMDD.N, where N counts the uploads made that day.
package runstore

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Sasso0101/thesis/runmath"
	"github.com/Sasso0101/thesis/runset"
	"github.com/pkg/errors"
)

// ErrNoUpload is returned by Query for an upload ID that does not
// exist.
var ErrNoUpload = errors.New("no such upload")

// DB is a run record database. It's safe for concurrent use by
// multiple goroutines.
type DB struct {
	sql *sql.DB

	insertUpload *sql.Stmt
	insertRun    *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Uploads (
	UploadID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Day CHAR(8) NOT NULL,
	Seq INT NOT NULL,
	Created BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS Runs (
	UploadID BIGINT UNSIGNED,
	RecordID BIGINT UNSIGNED,
	Board VARCHAR(255),
	Implementation VARCHAR(255),
	Dataset VARCHAR(255),
	NumCPUs INT,
	ChunkSize INT,
	Runtime DOUBLE,
	StdRuntime DOUBLE,
	MinRuntime DOUBLE,
	MaxRuntime DOUBLE,
	Samples INT,
	Origin VARCHAR(1024),
	Replicated BOOLEAN,
	Cluster VARCHAR(255),
{{if not .sqlite3}}
	Index (Board(100), Implementation(100), Dataset(100)),
{{end}}
	PRIMARY KEY (UploadID, RecordID),
	FOREIGN KEY (UploadID) REFERENCES Uploads(UploadID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS RunsKey ON Runs(Board, Implementation, Dataset);
CREATE INDEX IF NOT EXISTS UploadsDay ON Uploads(Day, Seq);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return errors.Wrap(err, "create table")
		}
	}
	return nil
}

const runColumns = "Board, Implementation, Dataset, NumCPUs, ChunkSize, Runtime, StdRuntime, MinRuntime, MaxRuntime, Samples, Origin, Replicated, Cluster"

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertUpload, err = db.sql.Prepare("INSERT INTO Uploads(Day, Seq, Created) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(UploadID, RecordID, " + runColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing
var now = time.Now

// An Upload is a collection of records that share an upload ID.
// Nothing written to an Upload is visible until Commit.
//
// An open Upload holds a connection. On sqlite3, which is limited to
// one connection, other calls on the DB block until it is committed
// or aborted.
type Upload struct {
	// ID is the upload ID.
	ID string

	// id is the primary key of the upload.
	id int64
	// recordid is the index of the next record to insert.
	recordid int64
	db       *DB
	tx       *sql.Tx
}

// NewUpload returns an upload for storing new records.
func (db *DB) NewUpload(ctx context.Context) (*Upload, error) {
	t := now().UTC()
	day := t.Format("20060102")

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(Seq), 0) FROM Uploads WHERE Day = ?", day).Scan(&seq); err != nil {
		tx.Rollback()
		return nil, err
	}
	seq++
	res, err := tx.StmtContext(ctx, db.insertUpload).ExecContext(ctx, day, seq, t.Unix())
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return &Upload{
		ID: fmt.Sprintf("%s.%d", day, seq),
		id: id,
		db: db,
		tx: tx,
	}, nil
}

// Insert adds rec to the upload.
func (u *Upload) Insert(rec runset.Record) error {
	if u.tx == nil {
		return errors.New("upload already finished")
	}
	k, s := rec.Key, rec.Summary
	if _, err := u.tx.Stmt(u.db.insertRun).Exec(u.id, u.recordid,
		k.Board, k.Implementation, k.Dataset, k.NumCPUs, k.ChunkSize,
		s.GeoMean, s.StdDev, s.Min, s.Max, s.N,
		rec.Origin, rec.Replicated, rec.Cluster); err != nil {
		return errors.Wrapf(err, "inserting %s", k)
	}
	u.recordid++
	return nil
}

// InsertDataset adds every record of d to the upload, in order.
func (u *Upload) InsertDataset(d *runset.Dataset) error {
	for _, rec := range d.Records() {
		if err := u.Insert(rec); err != nil {
			return err
		}
	}
	return nil
}

// Commit makes the upload and its records visible.
func (u *Upload) Commit() error {
	if u.tx == nil {
		return errors.New("upload already finished")
	}
	err := u.tx.Commit()
	u.tx = nil
	return err
}

// Abort discards the upload and its records.
func (u *Upload) Abort() error {
	if u.tx == nil {
		return errors.New("upload already finished")
	}
	err := u.tx.Rollback()
	u.tx = nil
	return err
}

// An UploadInfo describes one committed upload.
type UploadInfo struct {
	ID      string
	Created time.Time
	Records int
}

// Uploads returns every committed upload, oldest first.
func (db *DB) Uploads(ctx context.Context) ([]UploadInfo, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT u.Day, u.Seq, u.Created, COUNT(r.RecordID)
FROM Uploads u LEFT JOIN Runs r ON u.UploadID = r.UploadID
GROUP BY u.UploadID, u.Day, u.Seq, u.Created
ORDER BY u.UploadID`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UploadInfo
	for rows.Next() {
		var (
			day          string
			seq, created int64
			info         UploadInfo
		)
		if err := rows.Scan(&day, &seq, &created, &info.Records); err != nil {
			return nil, err
		}
		info.ID = fmt.Sprintf("%s.%d", day, seq)
		info.Created = time.Unix(created, 0).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

// CountUploads returns the number of committed uploads.
func (db *DB) CountUploads() (int, error) {
	var n int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Uploads").Scan(&n)
	return n, err
}

// parseUploadID splits an upload ID into its day and sequence number.
func parseUploadID(id string) (day string, seq int64, ok bool) {
	day, s, found := strings.Cut(id, ".")
	if !found || len(day) != 8 {
		return "", 0, false
	}
	if _, err := time.Parse("20060102", day); err != nil {
		return "", 0, false
	}
	seq, err := strconv.ParseInt(s, 10, 64)
	if err != nil || seq < 1 {
		return "", 0, false
	}
	return day, seq, true
}

// Query returns the records of the upload with the given ID, in
// insertion order. Records that no longer satisfy the dataset
// invariant are reported as errors.
func (db *DB) Query(ctx context.Context, uploadID string) (*runset.Dataset, error) {
	day, seq, ok := parseUploadID(uploadID)
	if !ok {
		return nil, errors.Errorf("malformed upload ID %q", uploadID)
	}
	var id int64
	err := db.sql.QueryRowContext(ctx, "SELECT UploadID FROM Uploads WHERE Day = ? AND Seq = ?", day, seq).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(ErrNoUpload, uploadID)
	} else if err != nil {
		return nil, err
	}

	rows, err := db.sql.QueryContext(ctx, "SELECT "+runColumns+" FROM Runs WHERE UploadID = ? ORDER BY RecordID", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ds := &runset.Dataset{}
	for rows.Next() {
		var (
			rec              runset.Record
			gm, sd, min, max float64
			n                int
		)
		k := &rec.Key
		if err := rows.Scan(&k.Board, &k.Implementation, &k.Dataset, &k.NumCPUs, &k.ChunkSize,
			&gm, &sd, &min, &max, &n, &rec.Origin, &rec.Replicated, &rec.Cluster); err != nil {
			return nil, err
		}
		rec.Summary = runmath.NewSummary(gm, sd, min, max, n)
		if err := ds.Add(rec); err != nil {
			return nil, errors.Wrapf(err, "upload %s", uploadID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertUpload.Close(); err != nil {
		return err
	}
	if err := db.insertRun.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
