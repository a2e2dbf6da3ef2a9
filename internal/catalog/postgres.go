package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the cards table layout shared by LoadPostgres and the import script.
const Schema = `CREATE TABLE IF NOT EXISTS cards (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	subtypes    TEXT[] NOT NULL DEFAULT '{}',
	hp          INTEGER NOT NULL DEFAULT 0,
	types       TEXT[] NOT NULL DEFAULT '{}',
	attacks     JSONB NOT NULL DEFAULT '[]',
	weaknesses  JSONB NOT NULL DEFAULT '[]',
	resistances JSONB NOT NULL DEFAULT '[]',
	effects     TEXT[] NOT NULL DEFAULT '{}'
)`

// Querier is the subset of pgxpool.Pool used for catalog reads.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ Querier = (*pgxpool.Pool)(nil)

// LoadPostgres reads every row of the cards table into a catalog.
func LoadPostgres(ctx context.Context, db Querier) (*Catalog, error) {
	rows, err := db.Query(ctx, `SELECT id, name, category, subtypes, hp, types,
		attacks, weaknesses, resistances, effects FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		var (
			card                                 Card
			category                             string
			attacks, weaknesses, resistancesJSON []byte
		)
		if err := rows.Scan(&card.ID, &card.Name, &category, &card.Subtypes, &card.HP,
			&card.Types, &attacks, &weaknesses, &resistancesJSON, &card.Effects); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cat, ok := ParseCategory(category)
		if !ok {
			return nil, fmt.Errorf("card %s: unknown category %q", card.ID, category)
		}
		card.Category = cat
		if err := json.Unmarshal(attacks, &card.Attacks); err != nil {
			return nil, fmt.Errorf("card %s attacks: %w", card.ID, err)
		}
		if err := json.Unmarshal(weaknesses, &card.Weaknesses); err != nil {
			return nil, fmt.Errorf("card %s weaknesses: %w", card.ID, err)
		}
		if err := json.Unmarshal(resistancesJSON, &card.Resistances); err != nil {
			return nil, fmt.Errorf("card %s resistances: %w", card.ID, err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return New(cards)
}
