// Package database provides SQLite connectivity for the bridge's
// accessory catalog.
//
// This package manages:
//   - Database connection with WAL mode and a busy timeout
//   - Forward/backward schema migrations read from an fs.FS
//   - Health checks for the status API
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, database.Migrations{FS: migrations.FS, Dir: "."}); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql. Migrations
// only run forwards; .down.sql files are skipped.
package database
