// Package store archives pipeline runs and their classified items in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/caijingx/newsradar/internal/radar/model"
	"github.com/caijingx/newsradar/internal/radar/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at   TIMESTAMP NOT NULL,
    duration_ms  INTEGER NOT NULL,
    fetched      INTEGER NOT NULL,
    deduped      INTEGER NOT NULL,
    classified   INTEGER NOT NULL,
    skipped      INTEGER NOT NULL,
    fetch_errors INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS news (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id             INTEGER NOT NULL REFERENCES runs(id),
    url                TEXT NOT NULL,
    title              TEXT NOT NULL,
    content            TEXT,
    publish_time       TEXT,
    source             TEXT NOT NULL,
    fetched_at         TIMESTAMP,
    companies          TEXT,
    stock_codes        TEXT,
    keywords           TEXT,
    related_industries TEXT,
    industry_related   INTEGER NOT NULL DEFAULT 0,
    policy_info        INTEGER NOT NULL DEFAULT 0,
    important          INTEGER NOT NULL DEFAULT 0,
    news_type          TEXT,
    UNIQUE(run_id, url)
);

CREATE INDEX IF NOT EXISTS idx_news_source ON news(source);
CREATE INDEX IF NOT EXISTS idx_news_type ON news(news_type);
`

// Store persists run archives.
type Store struct {
	db *sql.DB
}

// New opens the database at dbPath and ensures the schema exists.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveRun archives one pipeline result and returns the run ID.
func (s *Store) SaveRun(ctx context.Context, result *pipeline.Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (started_at, duration_ms, fetched, deduped, classified, skipped, fetch_errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.StartedAt, result.Duration.Milliseconds(), result.Fetched, result.Deduped,
		len(result.Items), result.Skipped, len(result.FetchErrors))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO news
		    (run_id, url, title, content, publish_time, source, fetched_at,
		     companies, stock_codes, keywords, related_industries,
		     industry_related, policy_info, important, news_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, item := range result.Items {
		companies, _ := json.Marshal(item.Companies)
		stockCodes, _ := json.Marshal(item.StockCodes)
		keywords, _ := json.Marshal(item.Keywords)
		industries, _ := json.Marshal(item.RelatedIndustries)

		if _, err := stmt.ExecContext(ctx,
			runID, item.URL, item.Title, item.Content, item.PublishTime, item.Source, item.FetchedAt,
			string(companies), string(stockCodes), string(keywords), string(industries),
			boolInt(item.IndustryRelated), boolInt(item.PolicyInfo), boolInt(item.Important),
			string(item.NewsType),
		); err != nil {
			return 0, fmt.Errorf("insert item %s: %w", item.URL, err)
		}
	}

	return runID, tx.Commit()
}

// LatestRunItems returns the classified items of the most recent run, in
// insertion order. A missing run yields an empty slice.
func (s *Store) LatestRunItems(ctx context.Context) ([]model.ClassifiedItem, error) {
	var runID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT url, title, content, publish_time, source, fetched_at,
		       companies, stock_codes, keywords, related_industries,
		       industry_related, policy_info, important, news_type
		FROM news WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.ClassifiedItem
	for rows.Next() {
		var item model.ClassifiedItem
		var companies, stockCodes, keywords, industries, newsType string
		var industryRelated, policyInfo, important int
		if err := rows.Scan(&item.URL, &item.Title, &item.Content, &item.PublishTime,
			&item.Source, &item.FetchedAt,
			&companies, &stockCodes, &keywords, &industries,
			&industryRelated, &policyInfo, &important, &newsType); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(companies), &item.Companies)
		json.Unmarshal([]byte(stockCodes), &item.StockCodes)
		json.Unmarshal([]byte(keywords), &item.Keywords)
		json.Unmarshal([]byte(industries), &item.RelatedIndustries)
		item.IndustryRelated = industryRelated != 0
		item.PolicyInfo = policyInfo != 0
		item.Important = important != 0
		item.NewsType = model.NewsType(newsType)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
