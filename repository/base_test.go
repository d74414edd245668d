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

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/database/dbtest"
	"github.com/tomoncle/curriculum/repository"
	"github.com/tomoncle/curriculum/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type note struct {
	bun.BaseModel `bun:"table:notes,alias:n"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Title string `bun:"title,notnull"`
	Body  string `bun:"body"`
	Stars int    `bun:"stars,notnull,default:0"`
	types.Timestamps
}

func (n *note) GetID() int64 { return n.ID }

var _ bun.BeforeAppendModelHook = (*note)(nil)

func (n *note) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		n.Touch(time.Now())
	}
	return nil
}

func newNotes(t *testing.T) repository.Repository[note] {
	db := dbtest.Open(t, database.NewModelAdapter((*note)(nil), 10))
	return repository.NewRepository[note](db)
}

func seed(t *testing.T, repo repository.Repository[note], titles ...string) []*note {
	var out []*note
	for i, title := range titles {
		n := &note{Title: title, Stars: i}
		require.NoError(t, repo.Save(context.Background(), n))
		out = append(out, n)
	}
	return out
}

func TestSaveInsertsAndAssignsID(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)

	n := &note{Title: "first"}
	require.NoError(t, repo.Save(ctx, n))
	assert.Equal(t, int64(1), n.ID)

	found, err := repo.FindOneBy(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", found.Title)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestFindOneByMissing(t *testing.T) {
	repo := newNotes(t)
	_, err := repo.FindOneBy(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestPreloadMergesWithoutPersisting(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)
	seed(t, repo, "a")

	merged, err := repo.Preload(ctx, 1, func(n *note) { n.Body = "patched" })
	require.NoError(t, err)
	assert.Equal(t, "a", merged.Title)
	assert.Equal(t, "patched", merged.Body)

	stored, err := repo.FindOneBy(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, stored.Body)

	require.NoError(t, repo.Save(ctx, merged))
	stored, err = repo.FindOneBy(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "patched", stored.Body)

	_, err = repo.Preload(ctx, 9, nil)
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestSaveUnknownIDIsNotFound(t *testing.T) {
	repo := newNotes(t)
	err := repo.Save(context.Background(), &note{ID: 77, Title: "ghost"})
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)
	seed(t, repo, "a", "b")

	n, err := repo.SoftDelete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.SoftDelete(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n, "already removed")

	_, err = repo.FindOneBy(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
	all, err := repo.Find(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Title)

	n, err = repo.Restore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Restore(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n, "already live")

	n, err = repo.Restore(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, n)

	restored, err := repo.FindOneBy(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", restored.Title)
}

func TestListAndPage(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)
	seed(t, repo, "alpha", "beta", "gamma", "delta")

	list, err := repo.List(ctx, types.NewQueryFilter("?TableAlias.stars >= ?", 2))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "gamma", list[0].Title)

	list, err = repo.List(ctx, nil, "title DESC")
	require.NoError(t, err)
	assert.Equal(t, "gamma", list[0].Title)

	page, err := repo.Page(ctx, types.NewPageRequest(2, 3, nil, []string{"stars DESC"}))
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alpha", page.Items[0].Title)

	empty, err := repo.Page(ctx, types.NewPageRequest(1, 10, types.NewQueryFilter("?TableAlias.title = ?", "none"), nil))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Items)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newNotes(t)
	db := repo.DB().(*bun.DB)

	boom := errors.New("boom")
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		require.NoError(t, repo.WithTx(tx).Save(ctx, &note{Title: "in tx"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := repo.Find(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDriverErrorsAreNotNotFound(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))
	repo := repository.NewRepository[note](db)

	_, err = repo.FindOneBy(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrRecordNotFound)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
