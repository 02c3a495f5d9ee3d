package repository

import "database/sql"

type Repo struct {
	db *sql.DB
}

// LogOffset is how far into a log file commands have been consumed.
type LogOffset struct {
	Path      string
	Offset    int64
	UpdatedAt int64
}
