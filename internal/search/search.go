// Package search maintains a sqlite FTS5 index of page content. The index
// lives in :memory:, matching the lifetime of the page store it mirrors.
package search

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE VIRTUAL TABLE IF NOT EXISTS page_fts USING fts5(
	name,
	content
);
`

type Index struct {
	db *sql.DB
}

type Result struct {
	Name    string
	Snippet string
}

// Open creates the in-memory index. The pool is pinned to a single
// connection because each :memory: connection is its own database.
func Open() (*Index, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func (i *Index) Close() error {
	if i.db == nil {
		return nil
	}
	return i.db.Close()
}

// IndexPage replaces the indexed content for name.
func (i *Index) IndexPage(ctx context.Context, name, content string) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM page_fts WHERE name=?", name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO page_fts(name, content) VALUES(?, ?)", name, content); err != nil {
		return err
	}
	return tx.Commit()
}

// Remove drops name from the index.
func (i *Index) Remove(ctx context.Context, name string) error {
	_, err := i.db.ExecContext(ctx, "DELETE FROM page_fts WHERE name=?", name)
	return err
}

// Search runs an FTS5 MATCH query. The query string is passed through
// unmodified, so FTS operators like AND and NEAR work. A blank query returns
// nothing.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := i.db.QueryContext(ctx,
		"SELECT name, snippet(page_fts, 1, '', '', '...', 12) FROM page_fts WHERE page_fts MATCH ? LIMIT ?",
		query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
