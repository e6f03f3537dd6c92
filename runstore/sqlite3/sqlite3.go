// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlite3 provides the sqlite3 driver for
// runstore.OpenSQL. It must be imported instead of go-sqlite3 to
// ensure foreign keys are properly honored.
package sqlite3

import (
	"database/sql"

	"github.com/Sasso0101/thesis/runstore"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	runstore.RegisterOpenHook("sqlite3", func(db *sql.DB) error {
		// A :memory: database is private to its connection, so
		// every query must share the one connection.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return err
		}
		return nil
	})
}

