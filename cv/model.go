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

package cv

import (
	"context"
	"time"

	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/types"
	"github.com/tomoncle/curriculum/user"
	"github.com/uptrace/bun"
)

// CV is a curriculum vitae owned by one user.
type CV struct {
	bun.BaseModel `bun:"table:cvs,alias:cv"`

	ID        int64      `bun:"id,pk,autoincrement" json:"id"`
	Name      string     `bun:"name,notnull" json:"name"`
	Firstname string     `bun:"firstname,notnull" json:"firstname"`
	Age       int        `bun:"age,notnull,default:0" json:"age"`
	Cin       int64      `bun:"cin,notnull,default:0" json:"cin"`
	Job       string     `bun:"job" json:"job"`
	Path      string     `bun:"path" json:"path"`
	UserID    int64      `bun:"user_id,notnull" json:"userId"`
	User      *user.User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	types.Timestamps
}

// Attachment records a file uploaded for a CV. CVID is zero for uploads
// not tied to any CV.
type Attachment struct {
	bun.BaseModel `bun:"table:cv_attachments,alias:att"`

	ID          int64            `bun:"id,pk,autoincrement" json:"id"`
	CVID        int64            `bun:"cv_id,nullzero" json:"cvId,omitempty"`
	UserID      int64            `bun:"user_id,notnull" json:"userId"`
	Backend     string           `bun:"backend,notnull" json:"backend"`
	StorageKey  string           `bun:"storage_key,notnull" json:"key"`
	FileName    string           `bun:"file_name" json:"fileName"`
	ContentType string           `bun:"content_type,notnull" json:"contentType"`
	Size        int64            `bun:"size,notnull" json:"size"`
	URL         string           `bun:"url" json:"url"`
	Metadata    types.JsonObject `bun:"metadata,type:text" json:"metadata,omitempty"`
	types.Timestamps
}

func init() {
	for _, m := range Models() {
		database.RegisteredModel(m)
	}
}

// Models describes the cvs and cv_attachments tables. They reference users,
// so they are created after it.
func Models() []database.SQLModel {
	return []database.SQLModel{
		database.NewModelAdapter((*CV)(nil), 20).
			WithForeignKeys(database.ForeignKeyConstraint{
				Table:           "cvs",
				Column:          "user_id",
				ReferenceTable:  "users",
				ReferenceColumn: "id",
				OnDelete:        "CASCADE",
			}).
			WithIndexes(database.Index{Name: "idx_cvs_user_id", Table: "cvs", Columns: []string{"user_id"}}),
		database.NewModelAdapter((*Attachment)(nil), 30).
			WithForeignKeys(
				database.ForeignKeyConstraint{
					Table:           "cv_attachments",
					Column:          "cv_id",
					ReferenceTable:  "cvs",
					ReferenceColumn: "id",
					OnDelete:        "SET NULL",
				},
				database.ForeignKeyConstraint{
					Table:           "cv_attachments",
					Column:          "user_id",
					ReferenceTable:  "users",
					ReferenceColumn: "id",
					OnDelete:        "CASCADE",
				},
			).
			WithIndexes(database.Index{Name: "idx_cv_attachments_cv_id", Table: "cv_attachments", Columns: []string{"cv_id"}}),
	}
}

func (c *CV) GetID() int64 { return c.ID }

func (a *Attachment) GetID() int64 { return a.ID }

var (
	_ bun.BeforeAppendModelHook = (*CV)(nil)
	_ bun.BeforeAppendModelHook = (*Attachment)(nil)
)

func (c *CV) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		c.Touch(time.Now())
	}
	return nil
}

func (a *Attachment) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		a.Touch(time.Now())
	}
	return nil
}
