package render

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/readahead"
)

// Loader fetches template bytes from a resolved path.
type Loader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// LoaderFunc adapts a function to the [Loader] interface.
type LoaderFunc func(ctx context.Context, path string) ([]byte, error)

// Load implements [Loader].
func (f LoaderFunc) Load(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// FileLoader reads templates from the operating system's file system.
type FileLoader struct{}

// Load implements [Loader]. The context is checked before every read.
func (FileLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if !info.Mode().IsRegular() {
		return nil, ErrNotRegular.Wrap(&fs.PathError{
			Op:   "load",
			Path: path,
			Err:  fs.ErrInvalid,
		})
	}

	// Read ahead asynchronously so parsing of one template can overlap
	// with I/O of the next.
	ra := readahead.NewReader(contextReader{ctx: ctx, r: f})
	defer ra.Close()

	return io.ReadAll(ra)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}

// FSLoader reads templates from an [fs.FS]. Leading slashes are stripped so
// resolved absolute paths address the root of the file system.
type FSLoader struct {
	FS fs.FS
}

// Load implements [Loader].
func (l FSLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return fs.ReadFile(l.FS, strings.TrimLeft(filepath.ToSlash(path), "/"))
}

// DefaultTable is the table read by [SQLLoader] when none is configured.
const DefaultTable = "templates"

// SQLLoader reads templates from a database table with the columns
// (path TEXT PRIMARY KEY, body BLOB).
type SQLLoader struct {
	DB    *sql.DB
	Table string
}

// NewSQLLoader returns an SQLLoader reading [DefaultTable] from db.
func NewSQLLoader(db *sql.DB) *SQLLoader {
	return &SQLLoader{DB: db, Table: DefaultTable}
}

func (l *SQLLoader) table() string {
	t := l.Table
	if t == "" {
		t = DefaultTable
	}

	return `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
}

// Init creates the template table if it does not exist.
func (l *SQLLoader) Init(ctx context.Context) error {
	_, err := l.DB.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+l.table()+
		" (path TEXT PRIMARY KEY, body BLOB NOT NULL)")

	return err
}

// Load implements [Loader].
func (l *SQLLoader) Load(ctx context.Context, path string) ([]byte, error) {
	var body []byte

	err := l.DB.QueryRowContext(
		ctx,
		"SELECT body FROM "+l.table()+" WHERE path = ?",
		path,
	).Scan(&body)
	if err != nil {
		return nil, err
	}

	return body, nil
}

// Store inserts or replaces the template at path.
func (l *SQLLoader) Store(ctx context.Context, path string, body []byte) error {
	_, err := l.DB.ExecContext(
		ctx,
		"INSERT INTO "+l.table()+" (path, body) VALUES (?, ?) "+
			"ON CONFLICT (path) DO UPDATE SET body = excluded.body",
		path, body,
	)

	return err
}

// Paths returns every stored template path in order.
func (l *SQLLoader) Paths(ctx context.Context) ([]string, error) {
	rows, err := l.DB.QueryContext(ctx, "SELECT path FROM "+l.table()+" ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string

	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}

		paths = append(paths, p)
	}

	return paths, rows.Err()
}
