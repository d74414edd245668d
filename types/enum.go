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

package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// Role is the authorization role carried by a user account and its tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var roleNumbers = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

var roleDescriptions = map[Role]string{
	RoleUser:  "regular account, may act on its own records",
	RoleAdmin: "administrator, may act on every record",
}

var _ BaseEnum = RoleUser

// ParseRole resolves a role name case-insensitively.
func ParseRole(name string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(name)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role %q", name)
	}
	return role, nil
}

func (r Role) IsValid() bool {
	_, ok := roleNumbers[r]
	return ok
}

func (r Role) Number() int {
	if n, ok := roleNumbers[r]; ok {
		return n
	}
	return IllegalValue
}

func (r Role) String() string { return r.Name() }

func (r Role) Name() string {
	if !r.IsValid() {
		return IllegalName
	}
	return string(r)
}

func (r Role) Desc() string {
	if d, ok := roleDescriptions[r]; ok {
		return d
	}
	return IllegalDesc
}

// Value implements driver.Valuer so roles are stored by name.
func (r Role) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid role %q", string(r))
	}
	return string(r), nil
}

// Scan implements sql.Scanner.
func (r *Role) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = ""
		return nil
	case string:
		*r = Role(v)
	case []byte:
		*r = Role(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	return nil
}
