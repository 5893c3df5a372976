package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"gradharvest/internal/domain"
)

// Migrate brings the store schema up to date. The loader itself never
// touches the schema at runtime; least-privilege deployments run this
// once at setup.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// The two llm_generated_* columns are reserved for the external
	// enrichment collaborators; this loader always leaves them NULL.
	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS applicants (
  p_id INTEGER PRIMARY KEY AUTOINCREMENT,
  program TEXT,
  university TEXT,
  comments TEXT,
  date_added TEXT,
  url TEXT UNIQUE,
  status TEXT,
  term TEXT,
  us_or_international TEXT,
  gpa REAL,
  gre REAL,
  gre_v REAL,
  gre_aw REAL,
  degree TEXT,
  llm_generated_program TEXT,
  llm_generated_university TEXT
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

// InsertApplicants loads normalized records into the applicants table,
// keyed uniquely by entry URL. Rows whose key already exists are skipped,
// never updated, so running the same load twice is a no-op. Returns the
// count of rows actually inserted.
func InsertApplicants(ctx context.Context, db *sql.DB, recs []domain.NormalizedRecord) (int, error) {
	inserted := 0
	for _, r := range recs {
		if r.EntryURL == "" {
			n, err := insertUnkeyed(ctx, db, r)
			if err != nil {
				return inserted, err
			}
			inserted += n
			continue
		}

		res, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO applicants(
  program, university, comments, date_added, url,
  status, term, us_or_international,
  gpa, gre, gre_v, gre_aw,
  degree, llm_generated_program, llm_generated_university)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,NULL,NULL);`,
			nullable(r.Program),
			nullable(r.University),
			nullable(r.Comments),
			nullable(parseDate(r.DatePosted)),
			r.EntryURL,
			nullable(r.Status),
			nullable(termColumn(r.StartTerm, r.StartYear)),
			nullable(r.Nationality),
			nullFloat(r.GPA),
			nullFloat(r.GRETotal),
			nullFloat(r.GREVerbal),
			nullFloat(r.GREAW),
			nullable(degreeColumn(r)),
		)
		if err != nil {
			return inserted, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// insertUnkeyed handles rows that never carried a detail URL. UNIQUE
// treats NULLs as distinct, so OR IGNORE can't dedup them; an existence
// guard on the identity fields keeps repeat loads from piling them up.
func insertUnkeyed(ctx context.Context, db *sql.DB, r domain.NormalizedRecord) (int, error) {
	res, err := db.ExecContext(ctx, `
INSERT INTO applicants(
  program, university, comments, date_added, url,
  status, term, us_or_international,
  gpa, gre, gre_v, gre_aw,
  degree, llm_generated_program, llm_generated_university)
SELECT ?,?,?,?,NULL,?,?,?,?,?,?,?,?,NULL,NULL
WHERE NOT EXISTS (
  SELECT 1 FROM applicants
  WHERE url IS NULL
    AND program IS ? AND university IS ? AND date_added IS ? AND status IS ?
);`,
		nullable(r.Program),
		nullable(r.University),
		nullable(r.Comments),
		nullable(parseDate(r.DatePosted)),
		nullable(r.Status),
		nullable(termColumn(r.StartTerm, r.StartYear)),
		nullable(r.Nationality),
		nullFloat(r.GPA),
		nullFloat(r.GRETotal),
		nullFloat(r.GREVerbal),
		nullFloat(r.GREAW),
		nullable(degreeColumn(r)),
		nullable(r.Program),
		nullable(r.University),
		nullable(parseDate(r.DatePosted)),
		nullable(r.Status),
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// KnownURLs seeds the dedup index with every entry URL already persisted.
func KnownURLs(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT url FROM applicants WHERE url IS NOT NULL;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// termColumn joins term and year into the single term column, NULL when
// both are absent.
func termColumn(term, year string) string {
	return strings.TrimSpace(strings.TrimSpace(term) + " " + strings.TrimSpace(year))
}

// degreeColumn prefers the derived tier over the raw label.
func degreeColumn(r domain.NormalizedRecord) string {
	if r.DegreeLevel != "" {
		return r.DegreeLevel
	}
	return r.Degree
}

// parseDate keeps only ISO dates; the listing's human-readable postings
// don't coerce cleanly and stay NULL.
func parseDate(s string) string {
	if s == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return ""
	}
	return s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return f
}
