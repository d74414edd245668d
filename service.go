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

package curriculum

import (
	"context"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/tomoncle/curriculum/metrics"
	"github.com/tomoncle/curriculum/repository"
	"github.com/tomoncle/curriculum/types"
	"github.com/uptrace/bun"
)

// AffectedResult reports how many records a remove or restore touched.
type AffectedResult struct {
	Affected int64 `json:"affected"`
}

// Patch carries the fields of a partial update. Apply copies the supplied
// fields onto the stored record and leaves the others alone.
type Patch[T any] interface {
	Apply(*T)
}

// PatchFunc adapts a plain function to Patch.
type PatchFunc[T any] func(*T)

func (f PatchFunc[T]) Apply(t *T) { f(t) }

// Service is the generic record store: create, update, remove, restore and
// lookups over one entity kind, with every absence reported as ErrNotFound.
type Service[T any, P repository.Model[T]] struct {
	repo     repository.Repository[T]
	resource string
}

// NewService builds a store over db; opts are passed to the repository.
func NewService[T any, P repository.Model[T]](db bun.IDB, opts ...repository.Option) *Service[T, P] {
	return NewServiceWithRepository[T, P](repository.NewRepository[T, P](db, opts...))
}

// NewServiceWithRepository builds a store over an existing repository.
func NewServiceWithRepository[T any, P repository.Model[T]](repo repository.Repository[T]) *Service[T, P] {
	return &Service[T, P]{
		repo:     repo,
		resource: strings.ToLower(reflect.TypeOf((*T)(nil)).Elem().Name()),
	}
}

// WithTx returns a store bound to tx.
func (s *Service[T, P]) WithTx(tx bun.IDB) *Service[T, P] {
	return &Service[T, P]{repo: s.repo.WithTx(tx), resource: s.resource}
}

// Resource is the lower-cased entity name used in metrics and messages.
func (s *Service[T, P]) Resource() string { return s.resource }

// Create persists a new record. The id is assigned by the database and
// written back into entity.
func (s *Service[T, P]) Create(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, errors.Wrap(ErrInvalidInput, "nil entity")
	}
	if P(entity).GetID() != 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "%s id is assigned on creation", s.resource)
	}
	if err := s.repo.Save(ctx, entity); err != nil {
		s.observe("create", err)
		return nil, errors.Wrapf(err, "create %s", s.resource)
	}
	s.observe("create", nil)
	return entity, nil
}

// Update loads the record, applies patch on top of it and saves the merge.
func (s *Service[T, P]) Update(ctx context.Context, id int64, patch Patch[T]) (*T, error) {
	var apply func(*T)
	if patch != nil {
		apply = patch.Apply
	}
	merged, err := s.repo.Preload(ctx, id, apply)
	if err != nil {
		return nil, s.translate(err, "update", id)
	}
	if P(merged).GetID() != id {
		return nil, errors.Wrapf(ErrInvalidInput, "%s id cannot be changed", s.resource)
	}
	if err := s.repo.Save(ctx, merged); err != nil {
		return nil, s.translate(err, "update", id)
	}
	s.observe("update", nil)
	return merged, nil
}

// Remove soft-deletes the record. Removing a missing or already removed
// record is ErrNotFound.
func (s *Service[T, P]) Remove(ctx context.Context, id int64) (*AffectedResult, error) {
	n, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return nil, s.translate(err, "remove", id)
	}
	if n == 0 {
		return nil, s.translate(repository.ErrRecordNotFound, "remove", id)
	}
	s.observe("remove", nil)
	return &AffectedResult{Affected: n}, nil
}

// Restore clears the removal marker. Restoring a missing or live record is
// ErrNotFound.
func (s *Service[T, P]) Restore(ctx context.Context, id int64) (*AffectedResult, error) {
	n, err := s.repo.Restore(ctx, id)
	if err != nil {
		return nil, s.translate(err, "restore", id)
	}
	if n == 0 {
		return nil, s.translate(repository.ErrRecordNotFound, "restore", id)
	}
	s.observe("restore", nil)
	return &AffectedResult{Affected: n}, nil
}

// FindAll returns every live record, unpaginated.
func (s *Service[T, P]) FindAll(ctx context.Context) ([]*T, error) {
	items, err := s.repo.Find(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", s.resource)
	}
	return items, nil
}

// FindOne returns the live record with the given id.
func (s *Service[T, P]) FindOne(ctx context.Context, id int64) (*T, error) {
	item, err := s.repo.FindOneBy(ctx, id)
	if err != nil {
		return nil, s.translate(err, "find", id)
	}
	return item, nil
}

// List returns the live records matching filter.
func (s *Service[T, P]) List(ctx context.Context, filter *types.QueryFilter, orders ...string) ([]*T, error) {
	items, err := s.repo.List(ctx, filter, orders...)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", s.resource)
	}
	return items, nil
}

// Page returns one page of live records.
func (s *Service[T, P]) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error) {
	page, err := s.repo.Page(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "page %s", s.resource)
	}
	return page, nil
}

func (s *Service[T, P]) translate(err error, op string, id int64) error {
	if errors.Is(err, repository.ErrRecordNotFound) {
		err = errors.Wrapf(ErrNotFound, "%s %s %d", op, s.resource, id)
	} else {
		err = errors.Wrapf(err, "%s %s %d", op, s.resource, id)
	}
	s.observe(op, err)
	return err
}

func (s *Service[T, P]) observe(op string, err error) {
	if op == "find" {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.RecordMutations.WithLabelValues(s.resource, op, outcome).Inc()
}
