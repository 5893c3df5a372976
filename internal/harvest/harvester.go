// Package harvest drives the incremental crawl: paginated listing
// traversal, dedup against previously persisted entries, chunked
// bounded-concurrency detail enrichment, and checkpointing.
package harvest

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"gradharvest/internal/domain"
	"gradharvest/internal/fetch"
	"gradharvest/internal/gradcafe"
)

type Config struct {
	BaseURL        string        // listing URL template base; pages append ?page=N
	Pages          int           // how many listing pages to traverse at most
	ChunkPages     int           // listing pages per detail-fetch chunk
	Workers        int           // bounded detail-fetch concurrency
	TaskTimeout    time.Duration // per detail-fetch task
	StopAfterNoNew int           // consecutive zero-new pages before early stop
	PageDelay      time.Duration // politeness delay between listing fetches
	CheckpointPath string        // run checkpoint JSON; empty disables
}

func (c *Config) applyDefaults() {
	if c.Pages <= 0 {
		c.Pages = 1550
	}
	if c.ChunkPages <= 0 {
		c.ChunkPages = 25
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 60 * time.Second
	}
	if c.StopAfterNoNew <= 0 {
		c.StopAfterNoNew = 2
	}
	if c.PageDelay <= 0 {
		c.PageDelay = 250 * time.Millisecond
	}
}

// PageFetcher fetches one listing page; failure is soft.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, bool)
}

// DetailParser enriches one record from its detail page.
type DetailParser interface {
	Parse(ctx context.Context, entryURL string) gradcafe.Detail
}

// Stats is what a run reports back.
type Stats struct {
	PagesVisited  int `json:"pages_visited"`
	Discovered    int `json:"discovered"`
	DetailUpdated int `json:"detail_updated"`
	DetailFailed  int `json:"detail_failed"`
	Checkpoints   int `json:"checkpoints"`
}

// Harvester owns the run state. Run must not be invoked while a previous
// invocation against the same store has not returned; callers hold the
// run lock for that.
//
// Precondition: the listing paginates newest-first. The early-stop
// heuristic assumes older pages are redundant once consecutive pages
// yield nothing new; any other ordering silently truncates the crawl.
type Harvester struct {
	cfg     Config
	pages   PageFetcher
	details DetailParser
	limiter *rate.Limiter

	seen    map[string]struct{}
	records []domain.RawRecord
	pending []int // slots awaiting detail fetch in the current chunk
	stats   Stats
}

// New builds a harvester seeded with the canonical URLs already known to
// the persisted store.
func New(cfg Config, pages PageFetcher, details DetailParser, knownURLs []string) *Harvester {
	cfg.applyDefaults()

	seen := make(map[string]struct{}, len(knownURLs))
	for _, u := range knownURLs {
		// store rows may predate canonicalization
		if c := gradcafe.CanonicalResultURL(u); c != "" {
			seen[c] = struct{}{}
		}
	}

	return &Harvester{
		cfg:     cfg,
		pages:   pages,
		details: details,
		limiter: fetch.NewPoliteLimiter(cfg.PageDelay),
		seen:    seen,
		records: []domain.RawRecord{},
	}
}

// Resume preloads records from a previous run's checkpoint so their URLs
// dedup and their rows survive into this run's output.
func (h *Harvester) Resume(records []domain.RawRecord) {
	for _, r := range records {
		if r.EntryURL != "" {
			h.seen[r.EntryURL] = struct{}{}
		}
		h.records = append(h.records, r)
	}
}

// Run traverses listing pages until the configured limit, an early stop,
// or an external interrupt. It always returns whatever was accumulated;
// nothing inside the crawl is a hard failure.
func (h *Harvester) Run(ctx context.Context) ([]domain.RawRecord, Stats) {
	log.Printf("[harvest] starting: pages=%d chunk=%d workers=%d known=%d",
		h.cfg.Pages, h.cfg.ChunkPages, h.cfg.Workers, len(h.seen))

	noNew := 0
	for page := 1; page <= h.cfg.Pages; page++ {
		if err := h.limiter.Wait(ctx); err != nil {
			// interrupted between pages; pending chunk stays unfetched
			log.Printf("[interrupt] stopping at page %d", page)
			h.checkpoint()
			return h.records, h.stats
		}

		pageURL := fmt.Sprintf("%s?page=%d", h.cfg.BaseURL, page)
		log.Printf("[survey] page %d: %s", page, pageURL)

		added := 0
		html, ok := h.pages.Fetch(ctx, pageURL)
		h.stats.PagesVisited++
		if !ok {
			log.Printf("[survey] page %d skipped (fetch failed)", page)
		} else {
			added = h.ingestPage(html, pageURL)
		}

		if added == 0 {
			noNew++
		} else {
			noNew = 0
		}

		if noNew >= h.cfg.StopAfterNoNew {
			log.Printf("[early stop] %d consecutive pages with no new rows", h.cfg.StopAfterNoNew)
			h.flushChunk(ctx)
			h.checkpoint()
			return h.records, h.stats
		}

		if page%h.cfg.ChunkPages == 0 && len(h.pending) > 0 {
			h.flushChunk(ctx)
			h.checkpoint()
		}

		if ctx.Err() != nil {
			log.Printf("[interrupt] stopping after page %d", page)
			h.checkpoint()
			return h.records, h.stats
		}
	}

	if len(h.pending) > 0 {
		log.Printf("[details] final fetch for remaining %d rows", len(h.pending))
		h.flushChunk(ctx)
	}
	h.checkpoint()
	return h.records, h.stats
}

// ingestPage parses one listing page, dedups rows against the index and
// queues new detail URLs. New URLs register in the index right away,
// before their detail fetch runs, so a repeat on a later page can't
// queue duplicate work. Rows without a usable detail URL are kept but
// can't be enriched, deduped, or counted toward the early-stop reset.
func (h *Harvester) ingestPage(html, pageURL string) int {
	parsed := gradcafe.ParseListingPage(html, pageURL)

	added := 0
	for _, rec := range parsed {
		u := gradcafe.CanonicalResultURL(rec.EntryURL)
		if !gradcafe.ValidResultURL(u) {
			u = ""
		}
		rec.EntryURL = u

		if u == "" {
			h.records = append(h.records, rec)
			continue
		}
		if _, dup := h.seen[u]; dup {
			continue
		}

		h.seen[u] = struct{}{}
		h.records = append(h.records, rec)
		h.pending = append(h.pending, len(h.records)-1)
		added++
	}

	h.stats.Discovered += added
	log.Printf("[survey] parsed=%d added=%d total=%d chunk_pending=%d",
		len(parsed), added, len(h.records), len(h.pending))
	return added
}

// flushChunk runs detail fetch+parse for every pending slot with a fixed
// worker pool. Task i writes only records[i] (slot ownership assigned at
// dispatch), so the record list needs no locking; only the counters are
// shared. A task that fails or times out leaves its record unenriched
// and never fails the chunk.
func (h *Harvester) flushChunk(ctx context.Context) {
	if len(h.pending) == 0 {
		return
	}
	log.Printf("[details] fetching %d detail pages (workers=%d)", len(h.pending), h.cfg.Workers)

	var updated, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(h.cfg.Workers)
	for _, idx := range h.pending {
		idx := idx
		g.Go(func() error {
			tctx, cancel := context.WithTimeout(ctx, h.cfg.TaskTimeout)
			defer cancel()

			d := h.details.Parse(tctx, h.records[idx].EntryURL)
			if !d.Fetched {
				failed.Add(1)
				return nil
			}
			applyDetail(&h.records[idx], d)
			updated.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	h.pending = h.pending[:0]
	h.stats.DetailUpdated += int(updated.Load())
	h.stats.DetailFailed += int(failed.Load())
	log.Printf("[details] chunk done: updated=%d failed=%d total_failed=%d",
		updated.Load(), failed.Load(), h.stats.DetailFailed)
}

// applyDetail merges enrichment into a record slot. Detail notes are
// richer than the listing comment cell and replace it when present.
func applyDetail(r *domain.RawRecord, d gradcafe.Detail) {
	if d.Notes != "" {
		r.Comments = d.Notes
	}
	r.Degree = d.Degree
	r.DegreeLevel = d.DegreeLevel
	r.GPA = d.GPA
	r.GRETotal = d.GRETotal
	r.GREVerbal = d.GREVerbal
	r.GREAW = d.GREAW
	r.StartTerm = d.StartTerm
	r.StartYear = d.StartYear
	r.International = d.International
}
