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
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var supportedTypes = []string{"mysql", "postgres", "sqlite"}

// normalizeType maps the accepted aliases onto mysql, postgres or sqlite.
func normalizeType(t string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "mysql":
		return "mysql", nil
	case "postgres", "postgresql", "pg":
		return "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database type: %s, supported types: %v", t, supportedTypes)
	}
}

// openDB opens the pool and wraps it in the matching bun dialect. It does
// not touch the network; Connect pings afterwards.
func openDB(cfg *ConnectionConfig) (*sql.DB, *bun.DB, error) {
	kind, err := normalizeType(cfg.Type)
	if err != nil {
		return nil, nil, err
	}
	switch kind {
	case "mysql":
		sqlDB, err := sql.Open("mysql", mysqlDSN(cfg))
		if err != nil {
			return nil, nil, err
		}
		return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil
	case "postgres":
		sqlDB, err := sql.Open("postgres", postgresDSN(cfg))
		if err != nil {
			return nil, nil, err
		}
		return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		sqlDB, err := sql.Open(sqliteshim.ShimName, sqliteDSN(cfg))
		if err != nil {
			return nil, nil, err
		}
		// one connection: in-memory databases are per connection and
		// PRAGMA foreign_keys is per connection as well.
		sqlDB.SetMaxOpenConns(1)
		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
		return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil
	}
}

func mysqlDSN(cfg *ConnectionConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.ConnectTimeout,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
	)
}

func postgresDSN(cfg *ConnectionConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("connect_timeout", fmt.Sprintf("%d", int(cfg.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

func sqliteDSN(cfg *ConnectionConfig) string {
	name := cfg.DBName
	switch {
	case name == "" || name == ":memory:":
		return "file::memory:?cache=shared"
	case strings.HasPrefix(name, "file:"):
		return name
	case !strings.HasSuffix(name, ".db"):
		return name + ".db"
	default:
		return name
	}
}
