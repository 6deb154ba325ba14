// Package database provides the SQLite connection used by the project store.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Versioned schema migrations read from any fs.FS
//   - Transaction helper (InTx)
//
// The pool is limited to one connection; SQLite supports a single writer
// and the project store writes whole documents in one transaction.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
