package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestSchemaDeclaresTables(t *testing.T) {
	tables := []string{
		"symbols", "intradayprices", "summaryprices", "topstats", "overviews", "overviewexts",
		"authors", "sources", "topicrefs", "newsoverviews", "articles", "feeds",
		"authormaps", "topicmaps", "tickersentiments", "proc_runs",
	}
	for _, table := range tables {
		if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("schema is missing table %s", table)
		}
	}
	if strings.Contains(schemaSQL, "CREATE TABLE "+"symbols") {
		t.Error("schema statements must be idempotent")
	}
}

func TestNew_BadURL(t *testing.T) {
	if _, err := New(context.Background(), "://not a url"); err == nil {
		t.Fatal("expected error for malformed connection string")
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	pgURL := os.Getenv("PG_URL")
	if testing.Short() || pgURL == "" {
		t.Skip("PG_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, pgURL)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := db.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema pass %d: %v", i+1, err)
		}
	}
}
