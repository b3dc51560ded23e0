package models

import (
	"time"

	"github.com/epeers/marketsync/internal/fingerprint"
)

// NewsSnapshot is one NEWS_SENTIMENT response for a single ticker.
type NewsSnapshot struct {
	Items                    int       `json:"items"`
	SentimentScoreDefinition string    `json:"sentiment_score_definition"`
	RelevanceScoreDefinition string    `json:"relevance_score_definition"`
	Feed                     []Article `json:"feed"`
}

// Article is one entry of a news feed in provider order.
type Article struct {
	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	TimePublished         time.Time         `json:"time_published"`
	Authors               []string          `json:"authors"`
	Summary               string            `json:"summary"`
	BannerImage           *string           `json:"banner_image"`
	Source                string            `json:"source"`
	CategoryWithinSource  string            `json:"category_within_source"`
	SourceDomain          string            `json:"source_domain"`
	Topics                []TopicRelevance  `json:"topics"`
	OverallSentimentScore float64           `json:"overall_sentiment_score"`
	OverallSentimentLabel string            `json:"overall_sentiment_label"`
	TickerSentiment       []TickerSentiment `json:"ticker_sentiment"`
}

type TopicRelevance struct {
	Topic          string  `json:"topic"`
	RelevanceScore float64 `json:"relevance_score"`
}

type TickerSentiment struct {
	Ticker         string  `json:"ticker"`
	RelevanceScore float64 `json:"relevance_score"`
	SentimentScore float64 `json:"ticker_sentiment_score"`
	SentimentLabel string  `json:"ticker_sentiment_label"`
}

// WriteCanonical covers every field of the article, so any edit by the
// provider produces a different snapshot fingerprint.
func (a Article) WriteCanonical(e *fingerprint.Encoder) {
	e.String(a.Title)
	e.String(a.URL)
	e.Time(a.TimePublished)
	e.Strings(a.Authors)
	e.String(a.Summary)
	e.Optional(a.BannerImage)
	e.String(a.Source)
	e.String(a.CategoryWithinSource)
	e.String(a.SourceDomain)
	e.Int64(int64(len(a.Topics)))
	for _, t := range a.Topics {
		e.String(t.Topic)
		e.Float64(t.RelevanceScore)
	}
	e.Float64(a.OverallSentimentScore)
	e.String(a.OverallSentimentLabel)
	e.Int64(int64(len(a.TickerSentiment)))
	for _, ts := range a.TickerSentiment {
		e.String(ts.Ticker)
		e.Float64(ts.RelevanceScore)
		e.Float64(ts.SentimentScore)
		e.String(ts.SentimentLabel)
	}
}

// Feed links a snapshot to an article with the article's overall sentiment.
type Feed struct {
	ID             int64   `json:"id"`
	SID            int64   `json:"sid"`
	NewsOverviewID int64   `json:"newsoverviewid"`
	ArticleID      string  `json:"articleid"`
	SourceID       int64   `json:"sourceid"`
	OSentiment     float64 `json:"osentiment"`
	SentLabel      string  `json:"sentlabel"`
}

// StoredArticle is the articles row; HashID is the article's fingerprint.
type StoredArticle struct {
	HashID   string    `json:"hashid"`
	SourceID int64     `json:"sourceid"`
	Category string    `json:"category"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Summary  string    `json:"summary"`
	Banner   string    `json:"banner"`
	AuthorID int64     `json:"author"`
	CT       time.Time `json:"ct"`
}

// TopicMap scores one topic for a feed row.
type TopicMap struct {
	TopicID  int64   `json:"topicid"`
	RelScore float64 `json:"relscore"`
}

// TickerSentimentRow is a ticker_sentiment entry resolved to a sid.
type TickerSentimentRow struct {
	SID            int64   `json:"sid"`
	Relevance      float64 `json:"relevance"`
	Sentiment      float64 `json:"tsentiment"`
	SentimentLabel string  `json:"sentimentlabel"`
}
