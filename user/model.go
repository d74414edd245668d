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

package user

import (
	"context"
	"time"

	"github.com/tomoncle/curriculum/auth"
	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/types"
	"github.com/uptrace/bun"
)

// User is an account able to own CVs.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Username     string     `bun:"username,notnull,unique" json:"username"`
	Email        string     `bun:"email" json:"email"`
	PasswordHash string     `bun:"password_hash,notnull" json:"-"`
	Role         types.Role `bun:"role,notnull,default:'user'" json:"role"`
	types.Timestamps
}

func init() {
	database.RegisteredModel(Model())
}

// Model describes the users table for the migrations.
func Model() database.SQLModel {
	return database.NewModelAdapter((*User)(nil), 10)
}

func (u *User) GetID() int64 { return u.ID }

var _ bun.BeforeAppendModelHook = (*User)(nil)

func (u *User) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		u.Touch(time.Now())
	}
	return nil
}

// Identity returns the caller identity of u.
func (u *User) Identity() *auth.Identity {
	return &auth.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}
