package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"chainbrief/internal/domain"
	"chainbrief/internal/ports"
)

// ErrDuplicateURL is returned by Insert when a record with the same URL
// already exists. URL is the authoritative dedup key.
var ErrDuplicateURL = errors.New("article url already stored")

const articlesTable = "articles"

var articleColumns = []string{
	"id", "title", "url", "summary", "source", "ecosystem_tag",
	"legitimacy_score", "sentiment_score", "is_processed",
	"created_at", "published_at",
}

// PostgresRepository persists enriched records into Postgres.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres with the given read/write DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(time.Minute)
	return db, nil
}

// FindByURL returns the stored record for a URL, or (nil, nil) when absent.
func (r *PostgresRepository) FindByURL(ctx context.Context, url string) (*domain.EnrichedRecord, error) {
	query, args, err := r.selectArticles().
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by url: %w", err)
	}

	return &record, nil
}

// Insert stores a new record. A URL collision yields ErrDuplicateURL so a
// concurrent cycle race cannot produce duplicates.
func (r *PostgresRepository) Insert(ctx context.Context, record domain.EnrichedRecord) error {
	query, args, err := r.builder.
		Insert(articlesTable).
		Columns(articleColumns...).
		Values(
			record.ID, record.Title, record.URL, record.Summary,
			record.Source, record.EcosystemTag,
			record.LegitimacyScore, record.SentimentScore, record.IsProcessed,
			record.CreatedAt, record.PublishedAt,
		).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDuplicateURL
	}

	return nil
}

// Recent lists the newest records, optionally filtered by ecosystem tag.
func (r *PostgresRepository) Recent(ctx context.Context, ecosystemTag string, limit int) ([]domain.EnrichedRecord, error) {
	builder := r.selectArticles().
		OrderBy("created_at DESC").
		Limit(uint64(normalizeLimit(limit)))

	if ecosystemTag != "" && ecosystemTag != "all" {
		builder = builder.Where(sq.Eq{"ecosystem_tag": ecosystemTag})
	}

	return r.queryRecords(ctx, builder)
}

// Search matches records whose title contains the query, case-insensitively.
func (r *PostgresRepository) Search(ctx context.Context, query string, limit int) ([]domain.EnrichedRecord, error) {
	builder := r.selectArticles().
		Where(sq.ILike{"title": "%" + query + "%"}).
		OrderBy("created_at DESC").
		Limit(uint64(normalizeLimit(limit)))

	return r.queryRecords(ctx, builder)
}

// TopRecent lists high-score records stored since the given time, ordered by
// legitimacy score. Used by the post-cycle digest.
func (r *PostgresRepository) TopRecent(ctx context.Context, since time.Time, minScore float64, limit int) ([]domain.EnrichedRecord, error) {
	builder := r.selectArticles().
		Where(sq.GtOrEq{"created_at": since}).
		Where(sq.GtOrEq{"legitimacy_score": minScore}).
		OrderBy("legitimacy_score DESC").
		Limit(uint64(normalizeLimit(limit)))

	return r.queryRecords(ctx, builder)
}

func (r *PostgresRepository) selectArticles() sq.SelectBuilder {
	return r.builder.Select(articleColumns...).From(articlesTable)
}

func (r *PostgresRepository) queryRecords(ctx context.Context, builder sq.SelectBuilder) ([]domain.EnrichedRecord, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var records []domain.EnrichedRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.EnrichedRecord, error) {
	var record domain.EnrichedRecord
	err := row.Scan(
		&record.ID, &record.Title, &record.URL, &record.Summary,
		&record.Source, &record.EcosystemTag,
		&record.LegitimacyScore, &record.SentimentScore, &record.IsProcessed,
		&record.CreatedAt, &record.PublishedAt,
	)
	return record, err
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
