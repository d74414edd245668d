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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/tomoncle/curriculum"
	"github.com/tomoncle/curriculum/types"
)

const maxAge = 150

// CreateInput is the body of a CV creation. The owner comes from the
// caller, never from the body.
type CreateInput struct {
	Name      string `json:"name" binding:"required"`
	Firstname string `json:"firstname" binding:"required"`
	Age       int    `json:"age"`
	Cin       int64  `json:"cin"`
	Job       string `json:"job"`
	Path      string `json:"path"`
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Firstname) == "" {
		return errors.Wrap(curriculum.ErrInvalidInput, "name and firstname are required")
	}
	return validateAge(in.Age)
}

// UpdateInput is a partial update; nil fields keep their stored value.
type UpdateInput struct {
	Name      *string `json:"name"`
	Firstname *string `json:"firstname"`
	Age       *int    `json:"age"`
	Cin       *int64  `json:"cin"`
	Job       *string `json:"job"`
	Path      *string `json:"path"`
}

var _ curriculum.Patch[CV] = UpdateInput{}

func (in UpdateInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return errors.Wrap(curriculum.ErrInvalidInput, "name cannot be empty")
	}
	if in.Firstname != nil && strings.TrimSpace(*in.Firstname) == "" {
		return errors.Wrap(curriculum.ErrInvalidInput, "firstname cannot be empty")
	}
	if in.Age != nil {
		return validateAge(*in.Age)
	}
	return nil
}

func (in UpdateInput) Apply(c *CV) {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Firstname != nil {
		c.Firstname = strings.TrimSpace(*in.Firstname)
	}
	if in.Age != nil {
		c.Age = *in.Age
	}
	if in.Cin != nil {
		c.Cin = *in.Cin
	}
	if in.Job != nil {
		c.Job = *in.Job
	}
	if in.Path != nil {
		c.Path = *in.Path
	}
}

func validateAge(age int) error {
	if age < 0 || age > maxAge {
		return errors.Wrapf(curriculum.ErrInvalidInput, "age must be between 0 and %d", maxAge)
	}
	return nil
}

// SearchCriteria narrows the admin listing. Criteria matches name,
// firstname or job case-insensitively as a literal substring; Age matches
// exactly.
type SearchCriteria struct {
	Criteria string
	Age      *int
}

// ParseSearchCriteria builds criteria from raw query values. A blank age
// is treated as absent.
func ParseSearchCriteria(criteria, age string) (SearchCriteria, error) {
	sc := SearchCriteria{Criteria: criteria}
	if age = strings.TrimSpace(age); age != "" {
		n, err := strconv.Atoi(age)
		if err != nil {
			return sc, errors.Wrapf(curriculum.ErrInvalidInput, "age %q is not a number", age)
		}
		sc.Age = &n
	}
	return sc, nil
}

func (s SearchCriteria) IsEmpty() bool {
	return strings.TrimSpace(s.Criteria) == "" && s.Age == nil
}

const likeEscape = '!'

var likeReplacer = strings.NewReplacer(
	string(likeEscape), string(likeEscape)+string(likeEscape),
	"%", string(likeEscape)+"%",
	"_", string(likeEscape)+"_",
)

// Filter renders the criteria as a WHERE clause over the cv alias, or nil
// when there is nothing to filter on. '!' is the LIKE escape so the clause
// reads the same on sqlite, postgres and mysql.
func (s SearchCriteria) Filter() *types.QueryFilter {
	var filter *types.QueryFilter
	if c := strings.TrimSpace(s.Criteria); c != "" {
		like := "%" + likeReplacer.Replace(strings.ToLower(c)) + "%"
		filter = types.NewQueryFilter(
			"LOWER(cv.name) LIKE ? ESCAPE '!' OR LOWER(cv.firstname) LIKE ? ESCAPE '!' OR LOWER(cv.job) LIKE ? ESCAPE '!'",
			like, like, like,
		)
	}
	if s.Age != nil {
		filter = filter.And(types.NewQueryFilter("cv.age = ?", *s.Age))
	}
	return filter
}

// SortColumns are the columns a listing may be ordered by.
var SortColumns = []string{"id", "name", "firstname", "age"}
