package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeFormat is fixed width so stored timestamps compare lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// LastEntry is the lookup key for the most recent entry.
const LastEntry = "-1"

// Entry is one recorded invocation.
type Entry struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	RecordedAt time.Time `json:"recorded_at"`
	Subcommand string    `json:"subcommand"`
	Jobname    string    `json:"jobname,omitempty"`
	Jobfile    string    `json:"jobfile,omitempty"`
	DryRun     bool      `json:"dry_run"`
	JobCount   int       `json:"job_count"`
	SpecHash   string    `json:"spec_hash,omitempty"`
	Args       []string  `json:"args"`
}

// CommandLine reconstructs the invocation as typed.
func (e Entry) CommandLine() string {
	return strings.Join(append([]string{"onager", e.Subcommand}, e.Args...), " ")
}

// Filter narrows List results.
type Filter struct {
	// Limit keeps only the most recent N matches. Zero means no limit.
	Limit int
	// Since drops entries recorded before this instant. Zero means no bound.
	Since time.Time
	// Subcommand keeps only entries for one subcommand.
	Subcommand string
	// HideDryRun drops dry-run entries.
	HideDryRun bool
}

// Append stores e, assigning its ID, Seq and RecordedAt. The stored entry
// is returned.
func (l *Log) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.Subcommand == "" {
		return Entry{}, fmt.Errorf("append history: subcommand is required")
	}
	if e.Args == nil {
		e.Args = []string{}
	}
	args, err := json.Marshal(e.Args)
	if err != nil {
		return Entry{}, fmt.Errorf("append history: %w", err)
	}

	e.ID = l.ids.Generate()
	e.RecordedAt = l.clock.Now().UTC()

	err = l.db.QueryRowContext(ctx, `
		INSERT INTO history
		(id, seq, recorded_at, subcommand, jobname, jobfile, dry_run, job_count, spec_hash, args)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM history), ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq
	`,
		e.ID,
		e.RecordedAt.Format(timeFormat),
		e.Subcommand,
		e.Jobname,
		e.Jobfile,
		e.DryRun,
		e.JobCount,
		e.SpecHash,
		string(args),
	).Scan(&e.Seq)
	if err != nil {
		return Entry{}, fmt.Errorf("append history: %w", err)
	}
	return e, nil
}

const selectColumns = `id, seq, recorded_at, subcommand, jobname, jobfile, dry_run, job_count, spec_hash, args`

// List returns matching entries ordered by seq ascending. With a Limit,
// the most recent Limit matches are returned, still oldest first.
//
// Returns an empty slice (not nil) if nothing matches.
func (l *Log) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if !f.Since.IsZero() {
		where = append(where, "recorded_at >= ?")
		args = append(args, f.Since.UTC().Format(timeFormat))
	}
	if f.Subcommand != "" {
		where = append(where, "subcommand = ?")
		args = append(args, f.Subcommand)
	}
	if f.HideDryRun {
		where = append(where, "dry_run = 0")
	}

	inner := "SELECT " + selectColumns + " FROM history"
	if len(where) > 0 {
		inner += " WHERE " + strings.Join(where, " AND ")
	}
	inner += " ORDER BY seq DESC"
	if f.Limit > 0 {
		inner += " LIMIT ?"
		args = append(args, f.Limit)
	}
	query := "SELECT " + selectColumns + " FROM (" + inner + ") ORDER BY seq ASC"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Last returns the most recent entry.
func (l *Log) Last(ctx context.Context) (Entry, error) {
	row := l.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM history ORDER BY seq DESC LIMIT 1")
	return scanOne(row, "last entry")
}

// Get looks an entry up by ID, then by jobname (most recent wins).
// LastEntry returns the most recent entry.
func (l *Log) Get(ctx context.Context, key string) (Entry, error) {
	if key == LastEntry {
		return l.Last(ctx)
	}

	row := l.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM history WHERE id = ?", key)
	e, err := scanOne(row, key)
	if !errors.Is(err, ErrNotFound) {
		return e, err
	}

	row = l.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM history WHERE jobname = ? ORDER BY seq DESC LIMIT 1", key)
	return scanOne(row, key)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row, key string) (Entry, error) {
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return e, err
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e          Entry
		recordedAt string
		args       string
	)
	err := s.Scan(&e.ID, &e.Seq, &recordedAt, &e.Subcommand, &e.Jobname, &e.Jobfile,
		&e.DryRun, &e.JobCount, &e.SpecHash, &args)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan history: %w", err)
	}
	if e.RecordedAt, err = time.Parse(timeFormat, recordedAt); err != nil {
		return Entry{}, fmt.Errorf("scan history %s: recorded_at: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(args), &e.Args); err != nil {
		return Entry{}, fmt.Errorf("scan history %s: args: %w", e.ID, err)
	}
	return e, nil
}
