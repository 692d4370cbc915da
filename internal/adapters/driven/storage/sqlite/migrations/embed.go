// Package migrations embeds SQL migration files for the SQLite stores.
//
// Session databases and index files have independent schemas, each a
// sequence of NNN_name.up.sql / NNN_name.down.sql pairs.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed session/*.sql index/*.sql
var files embed.FS

// Session returns the migrations for the session database.
func Session() fs.FS {
	return sub("session")
}

// Index returns the migrations for an index file.
func Index() fs.FS {
	return sub("index")
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(files, dir)
	if err != nil {
		panic(err) // directories are fixed at compile time
	}
	return fsys
}
