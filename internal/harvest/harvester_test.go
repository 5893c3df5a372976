package harvest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradharvest/internal/gradcafe"
	"gradharvest/internal/normalize"
	"gradharvest/internal/store"
)

type fakePages struct {
	pages map[string]string
}

func (f fakePages) Fetch(_ context.Context, url string) (string, bool) {
	html, ok := f.pages[url]
	return html, ok
}

type fakeDetailFetch struct {
	bodies map[string]string
}

func (f fakeDetailFetch) Fetch(_ context.Context, url string) (string, bool) {
	b, ok := f.bodies[url]
	return b, ok
}

const baseURL = "https://www.thegradcafe.com/survey/"

func pageURL(n int) string { return fmt.Sprintf("%s?page=%d", baseURL, n) }

func listingRow(university, program, decision, resultPath string) string {
	link := ""
	if resultPath != "" {
		link = fmt.Sprintf(`<a href="%s">see more</a>`, resultPath)
	}
	return fmt.Sprintf(`<tr>
<td>%s</td><td>%s</td><td>January 29, 2026</td><td>%s</td><td>fingers crossed %s</td>
</tr>`, university, program, decision, link)
}

func listingPage(rows ...string) string {
	body := ""
	for _, r := range rows {
		body += r
	}
	return "<html><body><table>" + body + "</table></body></html>"
}

const goodDetailHTML = `<html><body>
<p>Degree Type</p><p>PhD</p>
<p>Degree's Country of Origin</p><p>International</p>
<p>Undergrad GPA</p><p>3.75</p>
<p>GRE General:</p><p>325</p>
<p>GRE Verbal:</p><p>160</p>
<p>Analytical Writing:</p><p>4.5</p>
<p>Notes</p><p>Funded offer</p>
</body></html>`

func testConfig(t *testing.T, pages int) Config {
	t.Helper()
	return Config{
		BaseURL:        baseURL,
		Pages:          pages,
		ChunkPages:     25,
		Workers:        8,
		TaskTimeout:    5 * time.Second,
		StopAfterNoNew: 2,
		PageDelay:      time.Millisecond,
		CheckpointPath: filepath.Join(t.TempDir(), "checkpoint.json"),
	}
}

// Two listing pages: page 1 has a row with a detail URL and one without,
// page 2 repeats page 1's URL and adds a new one whose detail fetch
// always fails. The harvest keeps exactly 3 records, the failed one
// unenriched, and two identical loads leave exactly 3 rows in the store.
func TestHarvestEndToEnd(t *testing.T) {
	pages := fakePages{pages: map[string]string{
		pageURL(1): listingPage(
			listingRow("JHU", "Computer Science", "Accepted on 29 Jan", "/result/1"),
			listingRow("Yale", "History", "Wait listed on 3 Feb", ""),
		),
		pageURL(2): listingPage(
			listingRow("JHU", "Computer Science", "Accepted on 29 Jan", "/result/1"),
			listingRow("MIT", "Physics", "Rejected on 28 Jan", "/result/2"),
		),
	}}
	details := gradcafe.NewDetailParser(fakeDetailFetch{bodies: map[string]string{
		"https://www.thegradcafe.com/result/1": goodDetailHTML,
		// result/2 missing: every fetch attempt fails
	}})

	cfg := testConfig(t, 2)
	h := New(cfg, pages, details, nil)
	records, stats := h.Run(context.Background())

	require.Len(t, records, 3)
	assert.Equal(t, 2, stats.PagesVisited)
	assert.Equal(t, 2, stats.Discovered)
	assert.Equal(t, 1, stats.DetailUpdated)
	assert.Equal(t, 1, stats.DetailFailed)

	enriched := records[0]
	assert.Equal(t, "https://www.thegradcafe.com/result/1", enriched.EntryURL)
	assert.Equal(t, "PhD", enriched.Degree)
	assert.Equal(t, "PhD", enriched.DegreeLevel)
	require.NotNil(t, enriched.International)
	assert.True(t, *enriched.International)
	assert.Equal(t, "3.75", enriched.GPA)
	assert.Equal(t, "Funded offer", enriched.Comments, "detail notes replace listing comments")

	unkeyed := records[1]
	assert.Equal(t, "", unkeyed.EntryURL)
	assert.Equal(t, "Yale", unkeyed.University)
	assert.Equal(t, "Waitlisted", unkeyed.Status)

	failed := records[2]
	assert.Equal(t, "https://www.thegradcafe.com/result/2", failed.EntryURL)
	assert.Equal(t, "", failed.Degree, "failed detail fetch leaves enrichment absent")
	assert.Equal(t, "", failed.GPA)
	assert.Nil(t, failed.International)

	// checkpoint holds the full record set
	ckpt, err := LoadCheckpoint(cfg.CheckpointPath)
	require.NoError(t, err)
	assert.Len(t, ckpt, 3)

	// load twice; the store ends with exactly 3 rows both times
	db, err := store.Open(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, store.Migrate(db.Pool))

	normalized := normalize.Records(records)
	require.Len(t, normalized, 3)

	inserted, err := store.InsertApplicants(context.Background(), db.Pool, normalized)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	inserted, err = store.InsertApplicants(context.Background(), db.Pool, normalized)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	var count int
	require.NoError(t, db.Pool.QueryRow(`SELECT COUNT(*) FROM applicants;`).Scan(&count))
	assert.Equal(t, 3, count)
}

// The same canonical URL showing up across pages yields exactly one record.
func TestHarvestDedupMonotonic(t *testing.T) {
	row := listingRow("JHU", "Computer Science", "Accepted on 29 Jan", "/result/1")
	pages := fakePages{pages: map[string]string{
		pageURL(1): listingPage(row),
		pageURL(2): listingPage(row),
		pageURL(3): listingPage(row),
	}}
	details := gradcafe.NewDetailParser(fakeDetailFetch{})

	h := New(testConfig(t, 3), pages, details, nil)
	records, _ := h.Run(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, "https://www.thegradcafe.com/result/1", records[0].EntryURL)
}

// URLs already persisted in the store never produce records.
func TestHarvestSkipsKnownURLs(t *testing.T) {
	pages := fakePages{pages: map[string]string{
		pageURL(1): listingPage(
			listingRow("JHU", "Computer Science", "Accepted on 29 Jan", "/result/1"),
			listingRow("MIT", "Physics", "Rejected on 28 Jan", "/result/2"),
		),
	}}
	details := gradcafe.NewDetailParser(fakeDetailFetch{})

	// known URL in a pre-canonical form; seeding canonicalizes it
	known := []string{"http://thegradcafe.com/result/1"}
	h := New(testConfig(t, 1), pages, details, known)
	records, _ := h.Run(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, "https://www.thegradcafe.com/result/2", records[0].EntryURL)
}

// Consecutive pages with nothing new stop the crawl early.
func TestHarvestEarlyStop(t *testing.T) {
	row := listingRow("JHU", "Computer Science", "Accepted on 29 Jan", "/result/1")
	pages := map[string]string{}
	for p := 1; p <= 10; p++ {
		pages[pageURL(p)] = listingPage(row)
	}
	details := gradcafe.NewDetailParser(fakeDetailFetch{})

	h := New(testConfig(t, 10), fakePages{pages: pages}, details, nil)
	records, stats := h.Run(context.Background())

	require.Len(t, records, 1)
	// page 1 adds the row, pages 2 and 3 add nothing, then stop
	assert.Equal(t, 3, stats.PagesVisited)
}

// A listing page that fails to fetch is skipped and counts toward the
// early-stop window without aborting the run.
func TestHarvestFailedPageSkipped(t *testing.T) {
	pages := fakePages{pages: map[string]string{
		// page 1 missing: fetch fails
		pageURL(2): listingPage(listingRow("JHU", "Computer Science", "Accepted on 29 Jan", "/result/1")),
	}}
	details := gradcafe.NewDetailParser(fakeDetailFetch{})

	h := New(testConfig(t, 2), pages, details, nil)
	records, stats := h.Run(context.Background())

	require.Len(t, records, 1)
	assert.Equal(t, 2, stats.PagesVisited)
}

// An external interrupt stops traversal and still checkpoints what was
// accumulated.
func TestHarvestInterruptCheckpoints(t *testing.T) {
	// every page yields something new so early stop never fires
	pages := map[string]string{}
	for p := 1; p <= 10; p++ {
		pages[pageURL(p)] = listingPage(
			listingRow("JHU", "Computer Science", "Accepted on 29 Jan", fmt.Sprintf("/result/%d", 100+p)))
	}
	details := gradcafe.NewDetailParser(fakeDetailFetch{})

	cfg := testConfig(t, 1000)
	cfg.PageDelay = 50 * time.Millisecond

	h := New(cfg, fakePages{pages: pages}, details, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(120 * time.Millisecond)
		cancel()
	}()

	records, _ := h.Run(ctx)
	assert.NotEmpty(t, records)
	assert.Less(t, len(records), 10, "traversal stopped before all pages")

	ckpt, err := LoadCheckpoint(cfg.CheckpointPath)
	require.NoError(t, err)
	assert.Len(t, ckpt, len(records))
}

func TestHarvestResume(t *testing.T) {
	cfg := testConfig(t, 1)

	prev := gradcafe.ParseListingPage(
		listingPage(listingRow("JHU", "Computer Science", "Accepted on 29 Jan", "/result/1")),
		pageURL(1))
	require.Len(t, prev, 1)
	prev[0].EntryURL = gradcafe.CanonicalResultURL(prev[0].EntryURL)

	pages := fakePages{pages: map[string]string{
		pageURL(1): listingPage(
			listingRow("JHU", "Computer Science", "Accepted on 29 Jan", "/result/1"),
			listingRow("MIT", "Physics", "Rejected on 28 Jan", "/result/2"),
		),
	}}
	h := New(cfg, pages, gradcafe.NewDetailParser(fakeDetailFetch{}), nil)
	h.Resume(prev)

	records, _ := h.Run(context.Background())
	require.Len(t, records, 2, "resumed record survives, repeat URL dedups, new URL adds")
	assert.Equal(t, "https://www.thegradcafe.com/result/2", records[1].EntryURL)
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.json")

	h := &Harvester{cfg: Config{CheckpointPath: path}}
	h.records = gradcafe.ParseListingPage(
		listingPage(listingRow("JHU", "CS", "Accepted on 29 Jan", "/result/1")),
		pageURL(1))
	h.checkpoint()

	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, h.records[0], loaded[0])

	// checkpoints overwrite wholesale, not append
	h.records = nil
	h.checkpoint()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(b))

	loadedEmpty, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Empty(t, loadedEmpty)
}
