package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/fitwatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleStore() *Store {
	a := model.Posting{Link: "https://acme/jobs/1", Title: "One", Company: "acme", Description: "d1"}
	b := model.Posting{Link: "https://acme/jobs/2", Title: "Two", Company: "acme"}
	b.Enrichment = &model.Enrichment{
		Score:      model.LegacyScore{SkillsMatch: 50, InterestAlignment: 70},
		OverallFit: 60,
	}
	c := model.Posting{Link: "https://globex/jobs/9", Title: "Nine", Company: "globex"}
	return New(a, b, c)
}

func assertSameLinks(t *testing.T, got, want *Store) {
	t.Helper()
	g, w := got.All(), want.All()
	if len(g) != len(w) {
		t.Fatalf("expected %d postings, got %d", len(w), len(g))
	}
	for i := range w {
		if g[i].Link != w[i].Link {
			t.Errorf("position %d: got %s, want %s", i, g[i].Link, w[i].Link)
		}
	}
}

func TestFilePersisterMissingFile(t *testing.T) {
	f := NewFilePersister(filepath.Join(t.TempDir(), "nope.json"), NewCodec(nil), discardLogger())
	s, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestFilePersisterCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFilePersister(path, NewCodec(nil), discardLogger())
	s, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("expected corrupt file to degrade without error, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestFilePersisterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	f := NewFilePersister(path, NewCodec(nil), discardLogger())
	ctx := context.Background()

	want := sampleStore()
	if err := f.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertSameLinks(t, got, want)

	p, _ := got.Get("https://acme/jobs/2")
	if p.Enrichment == nil || p.Enrichment.Balanced() != 60 {
		t.Errorf("expected legacy enrichment with balanced 60, got %+v", p.Enrichment)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the cache file in dir, found %d entries", len(entries))
	}
}

func newTestSQLite(t *testing.T) *SQLitePersister {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLitePersister(dbPath, NewCodec(nil), discardLogger())
	if err != nil {
		t.Fatalf("NewSQLitePersister: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLitePersisterRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	empty, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if empty.Len() != 0 {
		t.Fatalf("expected empty store, got %d", empty.Len())
	}

	want := sampleStore()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// A second save must replace, not append.
	want.Remove("https://globex/jobs/9")
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertSameLinks(t, got, want)
}

func TestSQLitePersisterRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2"} {
		r := Run{
			ID:         id,
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			Added:      i + 1,
		}
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	runs, err := s.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" || runs[0].Added != 2 {
		t.Errorf("unexpected runs: %+v", runs)
	}
}

func TestRedisPersisterRoundTrip(t *testing.T) {
	url := os.Getenv("FITWATCH_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FITWATCH_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	r, err := NewRedisPersister(ctx, url, "fitwatch:test:"+t.Name(), NewCodec(nil), discardLogger())
	if err != nil {
		t.Fatalf("NewRedisPersister: %v", err)
	}
	defer r.Close()
	defer r.client.Del(ctx, r.key)

	want := sampleStore()
	if err := r.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := r.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertSameLinks(t, got, want)
}
