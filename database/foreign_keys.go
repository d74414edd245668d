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

package database

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

var validReferentialActions = []string{"CASCADE", "RESTRICT", "SET NULL", "NO ACTION"}

// ForeignKeyConstraint describes a foreign key relationship between tables.
type ForeignKeyConstraint struct {
	Table           string
	Column          string
	ReferenceTable  string
	ReferenceColumn string
	OnDelete        string // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string
	ConstraintName  string
}

// GenerateConstraintName returns the explicit name or a derived name.
func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// Clause renders the constraint for CreateTableQuery.ForeignKey, e.g.
// "(user_id) REFERENCES users (id) ON DELETE CASCADE". Declaring keys at
// creation also works on sqlite, which has no ALTER TABLE ADD CONSTRAINT.
func (fk *ForeignKeyConstraint) Clause() (string, []interface{}) {
	var b strings.Builder
	b.WriteString("(?) REFERENCES ? (?)")
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE " + strings.ToUpper(fk.OnDelete))
	}
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE " + strings.ToUpper(fk.OnUpdate))
	}
	return b.String(), []interface{}{bun.Ident(fk.Column), bun.Ident(fk.ReferenceTable), bun.Ident(fk.ReferenceColumn)}
}

// Validate checks the constraint for missing names and unknown actions.
func (fk *ForeignKeyConstraint) Validate() error {
	switch {
	case fk.Table == "":
		return fmt.Errorf("table name cannot be empty")
	case fk.Column == "":
		return fmt.Errorf("column name cannot be empty: %s", fk.Table)
	case fk.ReferenceTable == "":
		return fmt.Errorf("reference table name cannot be empty: %s.%s", fk.Table, fk.Column)
	case fk.ReferenceColumn == "":
		return fmt.Errorf("reference column name cannot be empty: %s.%s -> %s", fk.Table, fk.Column, fk.ReferenceTable)
	}
	for _, action := range []string{fk.OnDelete, fk.OnUpdate} {
		if action != "" && !isReferentialAction(action) {
			return fmt.Errorf("invalid referential action %q on %s", action, fk.GenerateConstraintName())
		}
	}
	return nil
}

func isReferentialAction(s string) bool {
	for _, a := range validReferentialActions {
		if strings.EqualFold(s, a) {
			return true
		}
	}
	return false
}

// ForeignKeyManager collects the constraints declared by the registered
// models and hands them out per table.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager gathers the constraints of every registered model.
func NewForeignKeyManager(logger Logger, models []SQLModel) *ForeignKeyManager {
	m := &ForeignKeyManager{logger: logger}
	for _, model := range models {
		m.constraints = append(m.constraints, model.ForeignKeys()...)
	}
	return m
}

// GetConstraintsByTable returns the constraints defined for a table.
func (fkm *ForeignKeyManager) GetConstraintsByTable(tableName string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, constraint := range fkm.constraints {
		if strings.EqualFold(constraint.Table, tableName) {
			result = append(result, constraint)
		}
	}
	return result
}

// ListAllConstraints returns all configured constraints.
func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

// ValidateConstraints checks every constraint and returns all problems found.
func (fkm *ForeignKeyManager) ValidateConstraints() []error {
	var errs []error
	for i := range fkm.constraints {
		if err := fkm.constraints[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
