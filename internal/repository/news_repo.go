package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/marketsync/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewsRepository handles the news snapshot tables and their lookup tables
// (authors, sources, topicrefs).
type NewsRepository struct {
	pool *pgxpool.Pool
}

// NewNewsRepository creates a new NewsRepository
func NewNewsRepository(pool *pgxpool.Pool) *NewsRepository {
	return &NewsRepository{pool: pool}
}

func (r *NewsRepository) loadNames(ctx context.Context, op, query string) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, Classify(op, fmt.Errorf("failed to query %s: %w", op, err))
	}
	defer rows.Close()

	names := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", op, err)
		}
		names[name] = id
	}
	return names, rows.Err()
}

// LoadAuthors returns author name → id
func (r *NewsRepository) LoadAuthors(ctx context.Context) (map[string]int64, error) {
	return r.loadNames(ctx, "authors", `SELECT id, author_name FROM authors`)
}

// LoadSources returns source name → id
func (r *NewsRepository) LoadSources(ctx context.Context) (map[string]int64, error) {
	return r.loadNames(ctx, "sources", `SELECT id, source_name FROM sources`)
}

// LoadTopics returns topic name → id
func (r *NewsRepository) LoadTopics(ctx context.Context) (map[string]int64, error) {
	return r.loadNames(ctx, "topics", `SELECT id, name FROM topicrefs`)
}

// The lookup inserts update on conflict so RETURNING always yields the id,
// even when another writer created the row first.

func (r *NewsRepository) InsertAuthor(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO authors (author_name) VALUES ($1)
		ON CONFLICT (author_name) DO UPDATE SET author_name = EXCLUDED.author_name
		RETURNING id
	`
	var id int64
	if err := r.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, Classify("insert author", fmt.Errorf("failed to insert author %q: %w", name, err))
	}
	return id, nil
}

func (r *NewsRepository) InsertSource(ctx context.Context, name, domain string) (int64, error) {
	query := `
		INSERT INTO sources (source_name, domain) VALUES ($1, $2)
		ON CONFLICT (source_name) DO UPDATE SET domain = EXCLUDED.domain
		RETURNING id
	`
	var id int64
	if err := r.pool.QueryRow(ctx, query, name, domain).Scan(&id); err != nil {
		return 0, Classify("insert source", fmt.Errorf("failed to insert source %q: %w", name, err))
	}
	return id, nil
}

func (r *NewsRepository) InsertTopic(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO topicrefs (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	var id int64
	if err := r.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, Classify("insert topic", fmt.Errorf("failed to insert topic %q: %w", name, err))
	}
	return id, nil
}

// LatestNewsHash returns the fingerprint of the newest stored snapshot for
// sid, or "" when none exists.
func (r *NewsRepository) LatestNewsHash(ctx context.Context, sid int64) (string, error) {
	query := `
		SELECT hashid FROM newsoverviews
		WHERE sid = $1
		ORDER BY creation DESC, id DESC
		LIMIT 1
	`
	var hash string
	err := r.pool.QueryRow(ctx, query, sid).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", Classify("latest news hash", fmt.Errorf("failed to get news hash: %w", err))
	}
	return hash, nil
}

// InsertNewsOverview stores a snapshot header and returns its id.
func (r *NewsRepository) InsertNewsOverview(ctx context.Context, sid int64, items int, hash string) (int64, error) {
	query := `
		INSERT INTO newsoverviews (sid, items, hashid, creation)
		VALUES ($1, $2, $3, now())
		RETURNING id
	`
	var id int64
	if err := r.pool.QueryRow(ctx, query, sid, items, hash).Scan(&id); err != nil {
		return 0, Classify("insert news overview", fmt.Errorf("failed to insert news overview: %w", err))
	}
	return id, nil
}

// SetNewsHash records the fingerprint of a snapshot whose articles are all stored.
func (r *NewsRepository) SetNewsHash(ctx context.Context, overviewID int64, hash string) error {
	query := `UPDATE newsoverviews SET hashid = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, overviewID, hash); err != nil {
		return Classify("set news hash", fmt.Errorf("failed to set news hash: %w", err))
	}
	return nil
}

// InsertArticle stores an article unless its hash is already present.
// Returns whether a row was created.
func (r *NewsRepository) InsertArticle(ctx context.Context, a models.StoredArticle) (bool, error) {
	query := `
		INSERT INTO articles (hashid, sourceid, category, title, url, summary, banner, author, ct)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
		RETURNING hashid
	`
	var hash string
	err := r.pool.QueryRow(ctx, query,
		a.HashID, a.SourceID, a.Category, a.Title, a.URL, a.Summary, a.Banner, a.AuthorID, a.CT,
	).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict occurred, article already stored by an earlier snapshot
		return false, nil
	}
	if err != nil {
		return false, Classify("insert article", fmt.Errorf("failed to insert article: %w", err))
	}
	return true, nil
}

// InsertFeed links an article to a snapshot and returns the feed id.
func (r *NewsRepository) InsertFeed(ctx context.Context, f models.Feed) (int64, error) {
	query := `
		INSERT INTO feeds (sid, newsoverviewid, articleid, sourceid, osentiment, sentlabel)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		f.SID, f.NewsOverviewID, f.ArticleID, f.SourceID, f.OSentiment, f.SentLabel,
	).Scan(&id)
	if err != nil {
		return 0, Classify("insert feed", fmt.Errorf("failed to insert feed: %w", err))
	}
	return id, nil
}

// sendBatch executes every queued statement and returns the first failure.
func (r *NewsRepository) sendBatch(ctx context.Context, op string, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return Classify(op, fmt.Errorf("failed to store %s %d: %w", op, i, err))
		}
	}
	return nil
}

// InsertAuthorMaps links a feed row to each of its authors.
func (r *NewsRepository) InsertAuthorMaps(ctx context.Context, feedID int64, authorIDs []int64) error {
	query := `INSERT INTO authormaps (feedid, authorid) VALUES ($1, $2)`
	batch := &pgx.Batch{}
	for _, authorID := range authorIDs {
		batch.Queue(query, feedID, authorID)
	}
	return r.sendBatch(ctx, "author map", batch)
}

// InsertTopicMaps stores the topic relevance scores of a feed row.
func (r *NewsRepository) InsertTopicMaps(ctx context.Context, sid, feedID int64, topics []models.TopicMap) error {
	query := `INSERT INTO topicmaps (sid, feedid, topicid, relscore) VALUES ($1, $2, $3, $4)`
	batch := &pgx.Batch{}
	for _, t := range topics {
		batch.Queue(query, sid, feedID, t.TopicID, t.RelScore)
	}
	return r.sendBatch(ctx, "topic map", batch)
}

// InsertTickerSentiments stores per-ticker sentiment for a feed row.
func (r *NewsRepository) InsertTickerSentiments(ctx context.Context, feedID int64, rows []models.TickerSentimentRow) error {
	query := `
		INSERT INTO tickersentiments (feedid, sid, relevance, tsentiment, sentimentlabel)
		VALUES ($1, $2, $3, $4, $5)
	`
	batch := &pgx.Batch{}
	for _, ts := range rows {
		batch.Queue(query, feedID, ts.SID, ts.Relevance, ts.Sentiment, ts.SentimentLabel)
	}
	return r.sendBatch(ctx, "ticker sentiment", batch)
}
