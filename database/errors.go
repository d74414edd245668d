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
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var sqlErrorNames = map[SQLError]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no rows",
	NoIndexErr:                  "no such index",
	NoColumnErr:                 "no such column",
	ExistIndexErr:               "index exists",
	ExistColumnErr:              "column exists",
	NoTableErr:                  "no such table",
	ExistTableErr:               "table exists",
	DuplicateKeyErr:             "duplicate key",
	NotNullViolationErr:         "not null violation",
	ForeignKeyViolationErr:      "foreign key violation",
	CheckConstraintViolationErr: "check constraint violation",
	DataTruncatedErr:            "data truncated",
	InvalidTypeCastErr:          "invalid type cast",
}

func (e SQLError) String() string { return sqlErrorNames[e] }

var mysqlErrorNumbers = map[uint16]SQLError{
	1091: NoIndexErr,
	1054: NoColumnErr,
	1061: ExistIndexErr,
	1060: ExistColumnErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
}

// errorPattern matches when every needle is contained in the lower-cased
// message. Order matters: the first match wins.
type errorPattern struct {
	kind    SQLError
	needles []string
}

var errorPatterns = []errorPattern{
	{NoColumnErr, []string{"sqlstate 42703"}},
	{NoColumnErr, []string{"undefined column"}},
	{NoColumnErr, []string{"no such column"}},
	{NoIndexErr, []string{"sqlstate 42704"}},
	{NoIndexErr, []string{"no such index"}},
	{NoIndexErr, []string{"index", "does not exist"}},
	{NoTableErr, []string{"sqlstate 42p01"}},
	{NoTableErr, []string{"undefined table"}},
	{NoTableErr, []string{"no such table"}},
	{ExistIndexErr, []string{"index", "already exists"}},
	{ExistTableErr, []string{"table", "already exists"}},
	{ExistTableErr, []string{"relation", "already exists"}},
	{DuplicateKeyErr, []string{"duplicate key value"}},
	{DuplicateKeyErr, []string{"unique constraint failed"}},
	{DuplicateKeyErr, []string{"sqlstate 23505"}},
	{NotNullViolationErr, []string{"not-null constraint"}},
	{NotNullViolationErr, []string{"not null constraint failed"}},
	{NotNullViolationErr, []string{"sqlstate 23502"}},
	{ForeignKeyViolationErr, []string{"foreign key violation"}},
	{ForeignKeyViolationErr, []string{"foreign key constraint failed"}},
	{ForeignKeyViolationErr, []string{"violates foreign key constraint"}},
	{ForeignKeyViolationErr, []string{"sqlstate 23503"}},
	{CheckConstraintViolationErr, []string{"check constraint"}},
	{CheckConstraintViolationErr, []string{"sqlstate 23514"}},
	{DataTruncatedErr, []string{"string data right truncation"}},
	{DataTruncatedErr, []string{"sqlstate 22001"}},
	{DataTruncatedErr, []string{"data truncated"}},
	{InvalidTypeCastErr, []string{"datatype mismatch"}},
	{InvalidTypeCastErr, []string{"sqlstate 42804"}},
}

// IsSqlError classifies err across the mysql, postgres and sqlite drivers.
// mysql errors are matched by number, the others by message.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlErrorNumbers[mysqlErr.Number]; ok {
			return true, kind
		}
		return true, UnknownErr
	}
	s := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if containsAll(s, p.needles) {
			return true, p.kind
		}
	}
	return false, UnknownErr
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	is, kind := IsSqlError(err)
	return is && kind == DuplicateKeyErr
}

func containsAll(s string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(s, n) {
			return false
		}
	}
	return true
}
