/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomoncle/curriculum/types"
	"github.com/uptrace/bun"
)

type options struct {
	relations []string
	orders    []string
}

// Option customises the queries issued by a repository.
type Option func(*options)

// WithRelations joins the named bun relations on every read.
func WithRelations(relations ...string) Option {
	return func(o *options) { o.relations = append(o.relations, relations...) }
}

// WithDefaultOrder sets the ordering used when a read has none, as
// "column ASC|DESC" pairs on the entity's own table.
func WithDefaultOrder(orders ...string) Option {
	return func(o *options) { o.orders = append(o.orders, orders...) }
}

type baseRepositoryImpl[T any, P Model[T]] struct {
	db   bun.IDB
	opts options
}

// NewRepository returns a generic repository backed by the provided Bun DB
// or transaction.
func NewRepository[T any, P Model[T]](db bun.IDB, opts ...Option) Repository[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.orders) == 0 {
		o.orders = []string{"id ASC"}
	}
	return &baseRepositoryImpl[T, P]{db: db, opts: o}
}

func (r *baseRepositoryImpl[T, P]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T, P]) WithTx(tx bun.IDB) Repository[T] {
	return &baseRepositoryImpl[T, P]{db: tx, opts: r.opts}
}

func (r *baseRepositoryImpl[T, P]) selectQuery(model interface{}) *bun.SelectQuery {
	q := r.db.NewSelect().Model(model)
	for _, rel := range r.opts.relations {
		q = q.Relation(rel)
	}
	return q
}

// applyOrders qualifies every column with the entity's alias so joined
// relations never make the ORDER BY ambiguous.
func applyOrders(q *bun.SelectQuery, orders []string) *bun.SelectQuery {
	for _, order := range orders {
		fields := strings.Fields(order)
		if len(fields) == 0 {
			continue
		}
		direction := "ASC"
		if len(fields) > 1 && strings.EqualFold(fields[1], "DESC") {
			direction = "DESC"
		}
		q = q.OrderExpr("?TableAlias.? "+direction, bun.Ident(fields[0]))
	}
	return q
}

func (r *baseRepositoryImpl[T, P]) FindOneBy(ctx context.Context, id int64) (*T, error) {
	entity := new(T)
	err := r.selectQuery(entity).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %T %d: %w", entity, id, err)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T, P]) Find(ctx context.Context) ([]*T, error) {
	return r.List(ctx, nil)
}

func (r *baseRepositoryImpl[T, P]) List(ctx context.Context, filter *types.QueryFilter, orders ...string) ([]*T, error) {
	entities := make([]*T, 0)
	q := r.selectQuery(&entities)
	if filter != nil {
		q = q.Where(filter.Schema, filter.Args...)
	}
	if len(orders) == 0 {
		orders = r.opts.orders
	}
	if err := applyOrders(q, orders).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list %T: %w", entities, err)
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T, P]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	entities := make([]*T, 0)
	q := r.selectQuery(&entities)
	if f := pageRequest.GetFilter(); f != nil {
		q = q.Where(f.Schema, f.Args...)
	}
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := q.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count %T: %w", entities, err)
	}
	if total == 0 {
		return pagination, nil
	}
	orders := pageRequest.GetOrders()
	if len(orders) == 0 {
		orders = r.opts.orders
	}
	err = applyOrders(q, orders).
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("page %T: %w", entities, err)
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T, P]) Save(ctx context.Context, entity *T) error {
	if P(entity).GetID() == 0 {
		if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			return fmt.Errorf("insert %T: %w", entity, err)
		}
		return nil
	}
	res, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update %T %d: %w", entity, P(entity).GetID(), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *baseRepositoryImpl[T, P]) Preload(ctx context.Context, id int64, patch func(*T)) (*T, error) {
	entity, err := r.FindOneBy(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch != nil {
		patch(entity)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T, P]) SoftDelete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.NewDelete().Model(new(T)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("soft delete %d: %w", id, err)
	}
	return res.RowsAffected()
}

// Restore also stamps updated_at, which every entity carries through
// types.Timestamps.
func (r *baseRepositoryImpl[T, P]) Restore(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.NewUpdate().
		Model(new(T)).
		WhereDeleted().
		Set("? = NULL", bun.Ident("deleted_at")).
		Set("? = ?", bun.Ident("updated_at"), time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore %d: %w", id, err)
	}
	return res.RowsAffected()
}
