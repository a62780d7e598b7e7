// Package catalog_repo provides PostgreSQL implementations of the catalog
// and client providers.
package catalog_repo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sorvetao/internal/core/apperror"
	"sorvetao/internal/infrastructure/storage/postgres"
)

// baseRepo holds what every reference-data repository needs.
type baseRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
}

func newBaseRepo[T any](txManager *postgres.TxManager, tableName, entityName string, selectCols []string) baseRepo[T] {
	return baseRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
	}
}

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *baseRepo[T]) baseSelect() squirrel.SelectBuilder {
	return Builder().Select(r.selectCols...).From(r.tableName)
}

// getOne runs q and scans a single row. No rows becomes a not-found error
// naming key.
func (r *baseRepo[T]) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*T, error) {
	sql, args, err := q.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	item := new(T)
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, key)
		}
		return nil, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return item, nil
}

// selectAll runs q and scans every row.
func (r *baseRepo[T]) selectAll(ctx context.Context, q squirrel.SelectBuilder) ([]*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*T
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.entityName, err)
	}
	return items, nil
}

// Upsert inserts v, plus any extra columns, or overwrites the non-key
// columns of the row matching conflict. Used by the seeder.
func Upsert(ctx context.Context, q postgres.Querier, table string, conflict []string, v any, extra map[string]any) error {
	data := postgres.StructToMap(v)
	if len(data) == 0 {
		return fmt.Errorf("no db columns on %T", v)
	}
	for k, val := range extra {
		data[k] = val
	}

	sql, args, err := upsertQuery(table, conflict, data).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func upsertQuery(table string, conflict []string, data map[string]any) squirrel.InsertBuilder {
	isKey := make(map[string]bool, len(conflict))
	for _, c := range conflict {
		isKey[c] = true
	}

	cols := make([]string, 0, len(data))
	for k := range data {
		if !isKey[k] {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = EXCLUDED." + c
	}

	return Builder().Insert(table).SetMap(data).
		Suffix("ON CONFLICT (" + strings.Join(conflict, ", ") + ") DO UPDATE SET " + strings.Join(sets, ", "))
}
