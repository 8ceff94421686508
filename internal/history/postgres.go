package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-arena/pkg/arenadto"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS arena_games (
	id           BIGSERIAL PRIMARY KEY,
	session_uuid TEXT        NOT NULL UNIQUE,
	game_number  BIGINT      NOT NULL,
	white_agent  TEXT        NOT NULL,
	black_agent  TEXT        NOT NULL,
	result       TEXT        NOT NULL,
	result_method TEXT       NOT NULL DEFAULT '',
	start_fen    TEXT        NOT NULL DEFAULT '',
	moves_uci    JSONB       NOT NULL DEFAULT '[]'::jsonb,
	moves_san    JSONB       NOT NULL DEFAULT '[]'::jsonb,
	pgn          TEXT        NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL,
	ended_at     TIMESTAMPTZ NOT NULL,
	duration_ms  BIGINT      NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS arena_games_ended_at_idx ON arena_games (ended_at DESC);`

type repository struct {
	db *sql.DB
}

// OpenPostgres connects, pings and makes sure the archive table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(pctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure arena schema: %w", err)
	}
	return NewRepository(db), nil
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *repository) SaveGame(ctx context.Context, rec arenadto.GameRecord) error {
	movesUCI, err := json.Marshal(nonNil(rec.MovesUCI))
	if err != nil {
		return fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(nonNil(rec.MovesSAN))
	if err != nil {
		return fmt.Errorf("marshal moves_san: %w", err)
	}
	duration := rec.EndedAt.Sub(rec.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const query = `
		INSERT INTO arena_games (
			session_uuid,
			game_number,
			white_agent,
			black_agent,
			result,
			result_method,
			start_fen,
			moves_uci,
			moves_san,
			pgn,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10, $11, $12, $13)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		rec.ID,
		rec.Game,
		rec.White,
		rec.Black,
		rec.Result,
		rec.Method,
		rec.StartFEN,
		movesUCI,
		movesSAN,
		rec.PGN,
		rec.StartedAt,
		rec.EndedAt,
		duration,
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return ErrDuplicateGame
	}
	if err != nil {
		return fmt.Errorf("insert arena game: %w", err)
	}
	return nil
}

const selectColumns = `
			session_uuid,
			game_number,
			white_agent,
			black_agent,
			result,
			result_method,
			start_fen,
			moves_uci,
			moves_san,
			pgn,
			started_at,
			ended_at`

func (r *repository) RecentGames(ctx context.Context, limit int) ([]arenadto.GameRecord, error) {
	limit = clampLimit(limit)
	query := `SELECT` + selectColumns + `
		FROM arena_games
		ORDER BY ended_at DESC, game_number DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select arena games: %w", err)
	}
	defer rows.Close()

	out := make([]arenadto.GameRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate arena games: %w", err)
	}
	return out, nil
}

func (r *repository) GetGame(ctx context.Context, id string) (*arenadto.GameRecord, error) {
	query := `SELECT` + selectColumns + `
		FROM arena_games
		WHERE session_uuid = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, strings.TrimSpace(id)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (arenadto.GameRecord, error) {
	var (
		rec          arenadto.GameRecord
		movesUCIJSON []byte
		movesSANJSON []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Game,
		&rec.White,
		&rec.Black,
		&rec.Result,
		&rec.Method,
		&rec.StartFEN,
		&movesUCIJSON,
		&movesSANJSON,
		&rec.PGN,
		&rec.StartedAt,
		&rec.EndedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return rec, err
		}
		return rec, fmt.Errorf("scan arena game: %w", err)
	}
	if len(movesUCIJSON) > 0 {
		if err := json.Unmarshal(movesUCIJSON, &rec.MovesUCI); err != nil {
			return rec, fmt.Errorf("unmarshal moves_uci: %w", err)
		}
	}
	if len(movesSANJSON) > 0 {
		if err := json.Unmarshal(movesSANJSON, &rec.MovesSAN); err != nil {
			return rec, fmt.Errorf("unmarshal moves_san: %w", err)
		}
	}
	return rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
