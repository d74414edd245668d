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
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// BaseDatabaseFactory creates and manages a configured database manager and
// provides helpers for initialization, health checks, and statistics.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	config  *Config
	logger  Logger
}

// NewDatabaseFactory returns a new database factory using the package logger.
func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{logger: GetLogger()}
}

// CreateFromConfig constructs a database manager from cfg after applying the
// DB_* environment overrides.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *Config) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if _, err := normalizeType(cfg.ConnectionConfig.Type); err != nil {
		return nil, err
	}
	overrideFromEnv(&cfg.ConnectionConfig)

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)
	f.manager = manager
	f.config = cfg
	return manager, nil
}

type envOverride struct {
	key   string
	apply func(cfg *ConnectionConfig, v string) error
}

func envSeconds(dst func(cfg *ConnectionConfig) *time.Duration) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(cfg) = time.Duration(n) * time.Second
		return nil
	}
}

func envInteger(dst func(cfg *ConnectionConfig) *int) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(cfg) = n
		return nil
	}
}

func envText(dst func(cfg *ConnectionConfig) *string) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, v string) error {
		*dst(cfg) = v
		return nil
	}
}

func envBoolean(dst func(cfg *ConnectionConfig) *bool) func(*ConnectionConfig, string) error {
	return func(cfg *ConnectionConfig, v string) error {
		*dst(cfg) = v == "true"
		return nil
	}
}

var envOverrides = []envOverride{
	{"DB_HOST", envText(func(c *ConnectionConfig) *string { return &c.Host })},
	{"DB_PORT", envInteger(func(c *ConnectionConfig) *int { return &c.Port })},
	{"DB_USERNAME", envText(func(c *ConnectionConfig) *string { return &c.Username })},
	{"DB_PASSWORD", envText(func(c *ConnectionConfig) *string { return &c.Password })},
	{"DB_NAME", envText(func(c *ConnectionConfig) *string { return &c.DBName })},
	{"DB_SSLMODE", envText(func(c *ConnectionConfig) *string { return &c.SSLMode })},
	{"DB_MAX_IDLE_CONNS", envInteger(func(c *ConnectionConfig) *int { return &c.MaxIdleConns })},
	{"DB_MAX_OPEN_CONNS", envInteger(func(c *ConnectionConfig) *int { return &c.MaxOpenConns })},
	{"DB_CONN_MAX_LIFETIME", envSeconds(func(c *ConnectionConfig) *time.Duration { return &c.ConnMaxLifetime })},
	{"DB_ENABLE_RECONNECT", envBoolean(func(c *ConnectionConfig) *bool { return &c.EnableReconnect })},
	{"DB_RECONNECT_INTERVAL", envSeconds(func(c *ConnectionConfig) *time.Duration { return &c.ReconnectInterval })},
	{"DB_ENABLE_QUERY_LOG", envBoolean(func(c *ConnectionConfig) *bool { return &c.EnableQueryLog })},
}

// overrideFromEnv applies DB_* variables on top of cfg. Unparsable numbers
// are ignored.
func overrideFromEnv(cfg *ConnectionConfig) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.key); v != "" {
			_ = o.apply(cfg, v)
		}
	}
}

// InitializeDatabase connects to the database and runs the migrations when
// enabled in the configuration or forced by runMigrations.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, runMigrations bool) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if runMigrations || f.config.DataMigrateConfig.EnableMigrateOnStartup {
		if err := f.manager.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("database initialization completed")
	return nil
}

// Open is the one-call form used by the commands: create, connect, migrate.
func Open(ctx context.Context, cfg *Config, runMigrations bool) (*BaseDatabaseFactory, error) {
	f := NewDatabaseFactory()
	if _, err := f.CreateFromConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := f.InitializeDatabase(ctx, runMigrations); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the Bun database instance, or nil if not initialized.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus returns the current database health status from the manager.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			LastError:     "database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns database connection statistics from the manager.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
