// Package history keeps the round log of the current run in an in-memory
// SQLite database. Nothing is written to disk.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/calcrush/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrUnknownGame is returned when a round references a game never begun.
var ErrUnknownGame = errors.New("unknown game")

// Log wraps the in-memory database.
type Log struct {
	db *sql.DB
}

// Open creates an empty in-memory round log.
func Open() (*Log, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open round log: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	l := &Log{db: db}
	if err := l.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate round log: %w", err)
	}
	return l, nil
}

// Close releases the database; the log is gone afterwards.
func (l *Log) Close() error {
	return l.db.Close()
}

func (l *Log) migrate() error {
	stmts := []string{
		`CREATE TABLE games (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			final_score INTEGER NOT NULL DEFAULT 0,
			final_level INTEGER NOT NULL DEFAULT 1
		);`,
		`CREATE TABLE rounds (
			game_id TEXT NOT NULL REFERENCES games(id),
			seq INTEGER NOT NULL,
			expression TEXT NOT NULL,
			op TEXT NOT NULL,
			answer REAL NOT NULL,
			submitted REAL,
			outcome TEXT NOT NULL,
			points INTEGER NOT NULL,
			level INTEGER NOT NULL,
			combo INTEGER NOT NULL,
			time_remaining INTEGER NOT NULL,
			at TEXT NOT NULL,
			PRIMARY KEY (game_id, seq)
		);`,
		`CREATE INDEX idx_rounds_outcome ON rounds(game_id, outcome);`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginGame registers a new game and returns its id.
func (l *Log) BeginGame(ctx context.Context, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO games (id, started_at) VALUES (?, ?)`,
		id, startedAt.Format(time.RFC3339Nano)); err != nil {
		return "", fmt.Errorf("failed to begin game: %w", err)
	}
	return id, nil
}

// EndGame stamps the end time and final progress of a game.
func (l *Log) EndGame(ctx context.Context, gameID string, endedAt time.Time, score, level int) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE games SET ended_at = ?, final_score = ?, final_level = ? WHERE id = ?`,
		endedAt.Format(time.RFC3339Nano), score, level, gameID)
	if err != nil {
		return fmt.Errorf("failed to end game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to end game: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	return nil
}

// RecordRound appends a round to its game and returns the assigned sequence
// number.
func (l *Log) RecordRound(ctx context.Context, r model.Round) (int, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE id = ?`, r.GameID).Scan(&exists); err != nil {
		return 0, err
	}
	if exists == 0 {
		err = fmt.Errorf("%w: %s", ErrUnknownGame, r.GameID)
		return 0, err
	}

	var seq int
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM rounds WHERE game_id = ?`, r.GameID).Scan(&seq); err != nil {
		return 0, err
	}

	var submitted any
	if r.Submitted != nil {
		submitted = *r.Submitted
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO rounds (game_id, seq, expression, op, answer, submitted, outcome, points, level, combo, time_remaining, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.GameID,
		seq,
		r.Expression,
		string(r.Op),
		r.Answer,
		submitted,
		string(r.Outcome),
		r.Points,
		r.Level,
		r.Combo,
		r.TimeRemaining,
		r.At.Format(time.RFC3339Nano),
	); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return seq, nil
}

// RecentRounds returns up to limit of the latest rounds of a game, newest
// first. A limit of zero or less returns every round.
func (l *Log) RecentRounds(ctx context.Context, gameID string, limit int) ([]model.Round, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT game_id, seq, expression, op, answer, submitted, outcome, points, level, combo, time_remaining, at
		 FROM rounds
		 WHERE game_id = ?
		 ORDER BY seq DESC
		 LIMIT ?`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rounds []model.Round
	for rows.Next() {
		var r model.Round
		var op, outcome, at string
		var submitted sql.NullFloat64
		if err := rows.Scan(&r.GameID, &r.Seq, &r.Expression, &op, &r.Answer, &submitted,
			&outcome, &r.Points, &r.Level, &r.Combo, &r.TimeRemaining, &at); err != nil {
			return nil, err
		}
		r.Op = model.Operator(op)
		r.Outcome = model.Outcome(outcome)
		if submitted.Valid {
			v := submitted.Float64
			r.Submitted = &v
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		r.At = parsed
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rounds, nil
}

// Summary aggregates every round of a game.
func (l *Log) Summary(ctx context.Context, gameID string) (model.GameSummary, error) {
	summary := model.GameSummary{GameID: gameID}
	var startedAt string
	var endedAt sql.NullString
	err := l.db.QueryRowContext(ctx,
		`SELECT started_at, ended_at, final_score, final_level FROM games WHERE id = ?`, gameID).Scan(
		&startedAt, &endedAt, &summary.FinalScore, &summary.FinalLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GameSummary{}, fmt.Errorf("%w: %s", ErrUnknownGame, gameID)
	}
	if err != nil {
		return model.GameSummary{}, err
	}

	if summary.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return model.GameSummary{}, err
	}
	if endedAt.Valid {
		if summary.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt.String); err != nil {
			return model.GameSummary{}, err
		}
	}

	err = l.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(outcome = 'correct'), 0),
			COALESCE(SUM(outcome = 'wrong'), 0),
			COALESCE(SUM(outcome = 'timeout'), 0),
			COALESCE(SUM(points), 0),
			COALESCE(MAX(combo), 0)
		 FROM rounds WHERE game_id = ?`, gameID).Scan(
		&summary.Rounds,
		&summary.Correct,
		&summary.Wrong,
		&summary.Timeouts,
		&summary.Points,
		&summary.BestCombo,
	)
	if err != nil {
		return model.GameSummary{}, err
	}
	return summary, nil
}

// OperatorAggregates groups the rounds of a game by challenge operator.
func (l *Log) OperatorAggregates(ctx context.Context, gameID string) ([]model.OperatorAggregate, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT op,
			SUM(outcome = 'correct'),
			SUM(outcome = 'wrong'),
			SUM(outcome = 'timeout'),
			SUM(points)
		 FROM rounds
		 WHERE game_id = ?
		 GROUP BY op
		 ORDER BY op`, gameID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.OperatorAggregate
	for rows.Next() {
		var agg model.OperatorAggregate
		var op string
		if err := rows.Scan(&op, &agg.Correct, &agg.Wrong, &agg.Timeouts, &agg.Points); err != nil {
			return nil, err
		}
		agg.Op = model.Operator(op)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
