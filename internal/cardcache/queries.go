package cardcache

import (
	"context"
	"database/sql"
	_ "embed"
)

//go:embed schema.sql
var Schema string

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type CardLookup struct {
	Name      string
	CardID    string
	CardJson  string
	FetchedAt int64
}

const getCardLookup = `select name, card_id, card_json, fetched_at from card_lookup where name = ?`

func (q *Queries) GetCardLookup(ctx context.Context, name string) (CardLookup, error) {
	row := q.db.QueryRowContext(ctx, getCardLookup, name)
	var i CardLookup
	err := row.Scan(&i.Name, &i.CardID, &i.CardJson, &i.FetchedAt)
	return i, err
}

const putCardLookup = `insert into card_lookup (name, card_id, card_json, fetched_at) values (?, ?, ?, ?)
on conflict (name) do update set card_id = excluded.card_id, card_json = excluded.card_json, fetched_at = excluded.fetched_at`

func (q *Queries) PutCardLookup(ctx context.Context, arg CardLookup) error {
	_, err := q.db.ExecContext(ctx, putCardLookup, arg.Name, arg.CardID, arg.CardJson, arg.FetchedAt)
	return err
}

const deleteCardLookupsBefore = `delete from card_lookup where fetched_at < ?`

func (q *Queries) DeleteCardLookupsBefore(ctx context.Context, before int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCardLookupsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
