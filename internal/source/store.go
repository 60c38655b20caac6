package source

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/FocuswithJustin/JuniperHelps/core/doc"
	"github.com/FocuswithJustin/JuniperHelps/core/errors"
	"github.com/FocuswithJustin/JuniperHelps/core/ir"
	"github.com/FocuswithJustin/JuniperHelps/core/sqlite"
)

// encMode writes Core Deterministic CBOR: the same document always
// produces identical bytes.
var encMode cbor.EncMode

// decMode ignores unknown fields so older stores stay readable.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("source: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("source: CBOR decoder initialization failed: " + err.Error())
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS books (
	resource   TEXT NOT NULL,
	book       TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	language   TEXT NOT NULL DEFAULT '',
	document   BLOB NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (resource, book)
);`

// Store keeps parsed documents in a SQLite database, one CBOR blob per
// resource and book.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) a content store.
func OpenStore(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open store", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("initialize store", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a document under resourceKey, replacing any previous copy.
func (s *Store) Put(ctx context.Context, resourceKey string, d *doc.Document) error {
	if errs := doc.Validate(d); len(errs) > 0 {
		return errs[0]
	}
	blob, err := encMode.Marshal(d)
	if err != nil {
		return errors.Wrapf(err, "encoding %s %s", resourceKey, d.Book.Code)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO books (resource, book, name, language, document, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (resource, book) DO UPDATE SET
		   name = excluded.name, language = excluded.language,
		   document = excluded.document, updated_at = excluded.updated_at`,
		resourceKey, strings.ToUpper(d.Book.Code), d.Book.Name, d.Language, blob,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrapf(err, "storing %s %s", resourceKey, d.Book.Code)
	}
	return nil
}

// Document implements DocumentSource.
func (s *Store) Document(ctx context.Context, resourceKey, book string) (*doc.Document, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM books WHERE resource = ? AND book = ?`,
		resourceKey, strings.ToUpper(book)).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, errors.NewMissingContent(resourceKey, book, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s %s", resourceKey, book)
	}

	var d doc.Document
	if err := decMode.Unmarshal(blob, &d); err != nil {
		return nil, &errors.ParseError{Format: "CBOR", Path: resourceKey + "/" + book, Message: err.Error(), Err: err}
	}
	return &d, nil
}

// Load implements Source.
func (s *Store) Load(ctx context.Context, resourceKey, book string) ([]ir.Chapter, error) {
	return Convert(ctx, s, resourceKey, book)
}

// Entry describes one stored book.
type Entry struct {
	Resource  string
	Book      string
	Name      string
	Language  string
	UpdatedAt string
}

// List returns the stored books, optionally limited to one resource.
func (s *Store) List(ctx context.Context, resourceKey string) ([]Entry, error) {
	query := `SELECT resource, book, name, language, updated_at FROM books`
	var args []any
	if resourceKey != "" {
		query += ` WHERE resource = ?`
		args = append(args, resourceKey)
	}
	query += ` ORDER BY resource, book`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing store")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Resource, &e.Book, &e.Name, &e.Language, &e.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "listing store")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
