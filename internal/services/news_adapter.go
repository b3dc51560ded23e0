package services

import (
	"context"
	"fmt"

	"github.com/epeers/marketsync/internal/alphavantage"
	"github.com/epeers/marketsync/internal/cache"
	"github.com/epeers/marketsync/internal/fingerprint"
	"github.com/epeers/marketsync/internal/models"
	"github.com/epeers/marketsync/internal/syncerr"
)

// newsSnapshot is a parsed feed together with its content fingerprint.
type newsSnapshot struct {
	models.NewsSnapshot
	Hash string
}

// newsAdapter stores a NEWS_SENTIMENT snapshot per symbol unless the feed is
// identical to the last one stored.
type newsAdapter struct {
	provider Provider
	news     NewsStore
}

func newNewsAdapter(p Provider, news NewsStore) *newsAdapter {
	return &newsAdapter{provider: p, news: news}
}

func (a *newsAdapter) Kind() Kind { return models.SyncNews }

func (a *newsAdapter) Label(item models.SymbolRef) string { return item.Symbol }

func (a *newsAdapter) Fetch(ctx context.Context, item models.SymbolRef) ([]byte, error) {
	return a.provider.News(ctx, item.Symbol)
}

func (a *newsAdapter) Parse(_ models.SymbolRef, payload []byte) ([]newsSnapshot, error) {
	snap, err := alphavantage.ParseNews(payload)
	if err != nil {
		return nil, err
	}
	return []newsSnapshot{{NewsSnapshot: snap, Hash: fingerprint.Of(snap.Feed)}}, nil
}

func (a *newsAdapter) Filter(ctx context.Context, _ *RunContext, item models.SymbolRef, rows []newsSnapshot) ([]newsSnapshot, int, error) {
	latest, err := a.news.LatestNewsHash(ctx, item.SID)
	if err != nil {
		return nil, 0, err
	}
	var kept []newsSnapshot
	skipped := 0
	for _, snap := range rows {
		if fingerprint.Equal(snap.Hash, latest) {
			skipped++
			addWarningf(ctx, models.WarnUnchanged, "news %s: feed unchanged since last snapshot", item.Symbol)
			continue
		}
		kept = append(kept, snap)
	}
	return kept, skipped, nil
}

// Persist writes the snapshot header without its fingerprint, then the
// articles. The fingerprint is recorded only once every article is stored, so
// a partly failed snapshot never matches and the next run retries the feed.
func (a *newsAdapter) Persist(ctx context.Context, rc *RunContext, item models.SymbolRef, snap newsSnapshot) error {
	overviewID, err := a.news.InsertNewsOverview(ctx, item.SID, snap.Items, "")
	if err != nil {
		return err
	}
	logger := rc.Log.WithField("item", item.Symbol)
	failed := 0
	for _, article := range snap.Feed {
		if err := a.persistArticle(ctx, rc, item.SID, overviewID, article); err != nil {
			if syncerr.IsFatal(err) {
				return err
			}
			failed++
			logger.Warnf("Article %q not stored: %v", article.URL, err)
			addWarningf(ctx, models.WarnRowSkipped, "news %s: article %s: %v", item.Symbol, article.URL, err)
		}
	}
	if failed > 0 {
		return syncerr.New(syncerr.Store, "persist news",
			fmt.Errorf("%d of %d articles not stored, snapshot left unfingerprinted", failed, len(snap.Feed)))
	}
	return a.news.SetNewsHash(ctx, overviewID, snap.Hash)
}

func (a *newsAdapter) persistArticle(ctx context.Context, rc *RunContext, sid, overviewID int64, article models.Article) error {
	reg := rc.Registry

	sourceID, err := reg.GetOrCreate(cache.Sources, article.Source, func() (int64, error) {
		return a.news.InsertSource(ctx, article.Source, article.SourceDomain)
	})
	if err != nil {
		return fmt.Errorf("source %q: %w", article.Source, err)
	}

	authors := article.Authors
	if len(authors) == 0 {
		authors = []string{alphavantage.MissingString}
	}
	authorIDs := make([]int64, 0, len(authors))
	for _, name := range authors {
		id, err := reg.GetOrCreate(cache.Authors, name, func() (int64, error) {
			return a.news.InsertAuthor(ctx, name)
		})
		if err != nil {
			return fmt.Errorf("author %q: %w", name, err)
		}
		authorIDs = append(authorIDs, id)
	}

	banner := ""
	if article.BannerImage != nil {
		banner = *article.BannerImage
	}
	hash := fingerprint.One(article)
	if _, err := a.news.InsertArticle(ctx, models.StoredArticle{
		HashID:   hash,
		SourceID: sourceID,
		Category: article.CategoryWithinSource,
		Title:    article.Title,
		URL:      article.URL,
		Summary:  article.Summary,
		Banner:   banner,
		AuthorID: authorIDs[0],
		CT:       article.TimePublished,
	}); err != nil {
		return err
	}

	feedID, err := a.news.InsertFeed(ctx, models.Feed{
		SID:            sid,
		NewsOverviewID: overviewID,
		ArticleID:      hash,
		SourceID:       sourceID,
		OSentiment:     article.OverallSentimentScore,
		SentLabel:      article.OverallSentimentLabel,
	})
	if err != nil {
		return err
	}
	if err := a.news.InsertAuthorMaps(ctx, feedID, authorIDs); err != nil {
		return err
	}

	topics := make([]models.TopicMap, 0, len(article.Topics))
	for _, t := range article.Topics {
		id, err := reg.GetOrCreate(cache.Topics, t.Topic, func() (int64, error) {
			return a.news.InsertTopic(ctx, t.Topic)
		})
		if err != nil {
			return fmt.Errorf("topic %q: %w", t.Topic, err)
		}
		topics = append(topics, models.TopicMap{TopicID: id, RelScore: t.RelevanceScore})
	}
	if len(topics) > 0 {
		if err := a.news.InsertTopicMaps(ctx, sid, feedID, topics); err != nil {
			return err
		}
	}

	var sentiments []models.TickerSentimentRow
	for _, ts := range article.TickerSentiment {
		tsid, ok := reg.Lookup(cache.Symbols, ts.Ticker)
		if !ok {
			continue
		}
		sentiments = append(sentiments, models.TickerSentimentRow{
			SID:            tsid,
			Relevance:      ts.RelevanceScore,
			Sentiment:      ts.SentimentScore,
			SentimentLabel: ts.SentimentLabel,
		})
	}
	if len(sentiments) > 0 {
		return a.news.InsertTickerSentiments(ctx, feedID, sentiments)
	}
	return nil
}
