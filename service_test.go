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

package curriculum_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/curriculum"
	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/database/dbtest"
	"github.com/tomoncle/curriculum/metrics"
	"github.com/tomoncle/curriculum/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull" json:"name"`
	City string `bun:"city" json:"city"`
	Age  int    `bun:"age,notnull,default:0" json:"age"`
	types.Timestamps
}

func (p *profile) GetID() int64 { return p.ID }

func (p *profile) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		p.Touch(time.Now())
	}
	return nil
}

type profilePatch struct {
	Name *string
	City *string
}

func (p profilePatch) Apply(dst *profile) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.City != nil {
		dst.City = *p.City
	}
}

func strptr(s string) *string { return &s }

func newStore(t *testing.T) *curriculum.Service[profile, *profile] {
	db := dbtest.Open(t, database.NewModelAdapter((*profile)(nil), 10))
	return curriculum.NewService[profile](db)
}

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	created, err := store.Create(ctx, &profile{Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "A", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = store.Create(ctx, &profile{ID: 7, Name: "B"})
	assert.ErrorIs(t, err, curriculum.ErrInvalidInput)
}

func TestUpdateMergesSuppliedFields(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Create(ctx, &profile{Name: "A", City: "Tunis", Age: 30})
	require.NoError(t, err)

	updated, err := store.Update(ctx, 1, profilePatch{Name: strptr("B")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ID)
	assert.Equal(t, "B", updated.Name)
	assert.Equal(t, "Tunis", updated.City)
	assert.Equal(t, 30, updated.Age)

	stored, err := store.FindOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Name)
	assert.Equal(t, "Tunis", stored.City)
}

func TestUpdateRejectsIDChange(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.Create(ctx, &profile{Name: "A"})
	require.NoError(t, err)

	_, err = store.Update(ctx, 1, curriculum.PatchFunc[profile](func(p *profile) { p.ID = 2 }))
	assert.ErrorIs(t, err, curriculum.ErrInvalidInput)
}

func TestMissingIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.FindOne(ctx, 42)
	assert.ErrorIs(t, err, curriculum.ErrNotFound)
	_, err = store.Update(ctx, 42, profilePatch{Name: strptr("x")})
	assert.ErrorIs(t, err, curriculum.ErrNotFound)
	_, err = store.Remove(ctx, 42)
	assert.ErrorIs(t, err, curriculum.ErrNotFound)
	_, err = store.Restore(ctx, 42)
	assert.ErrorIs(t, err, curriculum.ErrNotFound)
	assert.Contains(t, err.Error(), "entity not found")
}

func TestRemoveAndRestore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.Create(ctx, &profile{Name: "A"})
	require.NoError(t, err)
	_, err = store.Create(ctx, &profile{Name: "B"})
	require.NoError(t, err)

	removed, err := store.Remove(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed.Affected)

	_, err = store.FindOne(ctx, 1)
	assert.ErrorIs(t, err, curriculum.ErrNotFound)
	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "B", all[0].Name)

	_, err = store.Remove(ctx, 1)
	assert.ErrorIs(t, err, curriculum.ErrNotFound, "second remove")
	_, err = store.Update(ctx, 1, profilePatch{Name: strptr("C")})
	assert.ErrorIs(t, err, curriculum.ErrNotFound, "update of removed record")

	restored, err := store.Restore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), restored.Affected)

	found, err := store.FindOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)

	_, err = store.Restore(ctx, 1)
	assert.ErrorIs(t, err, curriculum.ErrNotFound, "restore of live record")
}

func TestListAndPage(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for i, name := range []string{"A", "B", "C", "D"} {
		_, err := store.Create(ctx, &profile{Name: name, Age: 20 + i*10})
		require.NoError(t, err)
	}

	older, err := store.List(ctx, types.NewQueryFilter("p.age >= ?", 40), "age DESC")
	require.NoError(t, err)
	require.Len(t, older, 2)
	assert.Equal(t, "D", older[0].Name)

	page, err := store.Page(ctx, types.NewDefaultPageRequest(2, 3))
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "D", page.Items[0].Name)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t, database.NewModelAdapter((*profile)(nil), 10))
	store := curriculum.NewService[profile](db)

	boom := errors.New("boom")
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := store.WithTx(tx).Create(ctx, &profile{Name: "A"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMutationsAreCounted(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	assert.Equal(t, "profile", store.Resource())

	created := metrics.RecordMutations.WithLabelValues("profile", "create", "ok")
	missing := metrics.RecordMutations.WithLabelValues("profile", "remove", "not_found")
	beforeCreated, beforeMissing := testutil.ToFloat64(created), testutil.ToFloat64(missing)

	_, err := store.Create(ctx, &profile{Name: "A"})
	require.NoError(t, err)
	_, err = store.Remove(ctx, 99)
	require.Error(t, err)

	assert.Equal(t, beforeCreated+1, testutil.ToFloat64(created))
	assert.Equal(t, beforeMissing+1, testutil.ToFloat64(missing))
}

func TestPersistenceFailuresAreNotClassified(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	store := curriculum.NewService[profile](db)

	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrConnDone)
	_, err = store.FindOne(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NotErrorIs(t, err, curriculum.ErrNotFound)

	mock.ExpectExec("DELETE|UPDATE").WillReturnError(sql.ErrConnDone)
	_, err = store.Remove(context.Background(), 1)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
