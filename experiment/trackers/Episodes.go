package trackers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samuelfneumann/drivelearn/environment/intersection"
	ts "github.com/samuelfneumann/drivelearn/timestep"

	// Registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

const episodesSchema = `
	CREATE TABLE IF NOT EXISTS episodes (
		episode_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		episode INTEGER NOT NULL,
		episode_return REAL NOT NULL,
		steps INTEGER NOT NULL,
		end_type TEXT NOT NULL,
		cause TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS episodes_run ON episodes (run_id, episode);
`

// Episode is a finished episode as recorded by the Episodes tracker
type Episode struct {
	EpisodeID string
	RunID     string
	Episode   int
	Return    float64
	Steps     int
	EndType   string
	Cause     string
	CreatedAt int64
}

// Episodes tracks every finished episode of a run and saves one row
// per episode to an SQLite database. Rows are buffered in memory until
// Save is called.
//
// If the Episodes tracker is registered with an intersection
// environment through Summarize, the reward rule which ended each
// episode is recorded as its cause.
type Episodes struct {
	db    *sql.DB
	runID string

	episode       int
	currentReturn float64
	cause         string
	pending       []Episode
}

// OpenEpisodes opens or creates the SQLite database at path and
// returns an Episodes tracker recording a new run into it
func OpenEpisodes(path string) (*Episodes, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("openEpisodes: open database: %w", err)
	}

	e, err := NewEpisodes(db, uuid.New().String())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("openEpisodes: %w", err)
	}
	return e, nil
}

// NewEpisodes returns an Episodes tracker recording the run runID
// into db
func NewEpisodes(db *sql.DB, runID string) (*Episodes, error) {
	if _, err := db.Exec(episodesSchema); err != nil {
		return nil, fmt.Errorf("newEpisodes: create schema: %w", err)
	}
	return &Episodes{db: db, runID: runID}, nil
}

// RunID returns the identifier of the run being recorded
func (e *Episodes) RunID() string {
	return e.runID
}

// Summarize records the cause of the episode which is ending. It is
// meant to be registered with intersection.Intersection.OnEpisodeEnd.
func (e *Episodes) Summarize(s intersection.EpisodeSummary) {
	e.cause = s.Cause.String()
}

// Track accumulates the return of the current episode and buffers a
// row when the episode ends
func (e *Episodes) Track(step ts.TimeStep) error {
	if step.First() {
		e.currentReturn = 0
	}
	e.currentReturn += step.Reward
	if !step.Last() {
		return nil
	}

	e.episode++
	e.pending = append(e.pending, Episode{
		EpisodeID: uuid.New().String(),
		RunID:     e.runID,
		Episode:   e.episode,
		Return:    e.currentReturn,
		Steps:     step.Number,
		EndType:   step.EndType().String(),
		Cause:     e.cause,
		CreatedAt: time.Now().UnixNano(),
	})
	e.currentReturn = 0
	e.cause = ""
	return nil
}

// Save writes all buffered episodes to the database in a single
// transaction
func (e *Episodes) Save() error {
	if len(e.pending) == 0 {
		return nil
	}

	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("save: begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO episodes (
			episode_id, run_id, episode, episode_return, steps, end_type, cause,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("save: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ep := range e.pending {
		var cause interface{}
		if ep.Cause != "" {
			cause = ep.Cause
		}
		if _, err := stmt.Exec(ep.EpisodeID, ep.RunID, ep.Episode, ep.Return,
			ep.Steps, ep.EndType, cause, ep.CreatedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("save: insert episode %d: %w", ep.Episode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: commit: %w", err)
	}
	e.pending = e.pending[:0]
	return nil
}

// List returns the saved episodes of run runID, in episode order
func (e *Episodes) List(runID string) ([]Episode, error) {
	rows, err := e.db.Query(`
		SELECT episode_id, run_id, episode, episode_return, steps, end_type, cause,
		       created_at
		FROM episodes
		WHERE run_id = ?
		ORDER BY episode`, runID)
	if err != nil {
		return nil, fmt.Errorf("list: query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var ep Episode
		var cause sql.NullString
		if err := rows.Scan(&ep.EpisodeID, &ep.RunID, &ep.Episode, &ep.Return,
			&ep.Steps, &ep.EndType, &cause, &ep.CreatedAt); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		ep.Cause = cause.String
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// Close closes the underlying database
func (e *Episodes) Close() error {
	return e.db.Close()
}
