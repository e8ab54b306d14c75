package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/quantfold/pead-engine/internal/dates"
	"github.com/quantfold/pead-engine/internal/lifecycle"
)

// PostgresJournal persists the managed-position set so an engine restart
// resumes mid-trade instead of orphaning open earnings positions.
type PostgresJournal struct {
	db *sql.DB
}

func NewPostgres(url string) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL")

	return &PostgresJournal{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS managed_positions (
			id            UUID PRIMARY KEY,
			symbol        TEXT NOT NULL,
			switch_on     DATE NOT NULL,
			liquidate_on  DATE NOT NULL,
			state         TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (s *PostgresJournal) SavePosition(ctx context.Context, p *lifecycle.Position) error {
	query := `
		INSERT INTO managed_positions (id, symbol, switch_on, liquidate_on, state)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, p.ID, p.Symbol, p.SwitchOn, p.LiquidateOn, string(p.State))
	return err
}

func (s *PostgresJournal) UpdateState(ctx context.Context, id string, state lifecycle.State) error {
	query := `UPDATE managed_positions SET state = $2 WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, id, string(state))
	return err
}

func (s *PostgresJournal) DeletePosition(ctx context.Context, id string) error {
	query := `DELETE FROM managed_positions WHERE id = $1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

func (s *PostgresJournal) OpenPositions(ctx context.Context) ([]*lifecycle.Position, error) {
	query := `
		SELECT id, symbol, switch_on, liquidate_on, state
		FROM managed_positions
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*lifecycle.Position
	for rows.Next() {
		var p lifecycle.Position
		var state string

		err := rows.Scan(&p.ID, &p.Symbol, &p.SwitchOn, &p.LiquidateOn, &state)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan position")
			continue
		}

		p.State = lifecycle.State(state)
		p.SwitchOn = dates.Day(p.SwitchOn)
		p.LiquidateOn = dates.Day(p.LiquidateOn)
		positions = append(positions, &p)
	}

	return positions, rows.Err()
}

func (s *PostgresJournal) Close() error {
	return s.db.Close()
}
