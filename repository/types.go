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
	"errors"

	"github.com/tomoncle/curriculum/types"
	"github.com/uptrace/bun"
)

// ErrRecordNotFound is returned when no live row matches the requested id.
var ErrRecordNotFound = errors.New("record not found")

// Model is the pointer constraint every repository entity satisfies.
type Model[T any] interface {
	*T
	types.HasID
}

// CrudRepository defines the persistence contract of one entity kind.
// Removed rows (soft-deleted) are invisible to every read.
type CrudRepository[T any] interface {
	// FindOneBy loads the live row with the given id.
	FindOneBy(ctx context.Context, id int64) (*T, error)

	// Find returns every live row.
	Find(ctx context.Context) ([]*T, error)

	// List returns the live rows matching filter; nil matches everything.
	List(ctx context.Context, filter *types.QueryFilter, orders ...string) ([]*T, error)

	// Save inserts entity when its id is zero, otherwise overwrites the row.
	Save(ctx context.Context, entity *T) error

	// Preload loads the row with the given id and applies patch on top of
	// it without persisting anything.
	Preload(ctx context.Context, id int64, patch func(*T)) (*T, error)

	// SoftDelete marks the row removed and reports the affected row count.
	SoftDelete(ctx context.Context, id int64) (int64, error)

	// Restore clears the removal marker and reports the affected row count.
	Restore(ctx context.Context, id int64) (int64, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines CRUD and pagination, and can be rebound to a
// transaction.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	WithTx(tx bun.IDB) Repository[T]
	DB() bun.IDB
}
