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
	"time"

	"github.com/uptrace/bun"
)

// AbstractDatabaseManager defines the operations for managing a database
// connection, running migrations, initializing data, and reporting health.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	RunMigrations(ctx context.Context) error
	InitData(ctx context.Context) error
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
// For sqlite, DBName is a file path (".db" is appended when missing) or
// ":memory:".
type ConnectionConfig struct {
	Type                string        `yaml:"type" env:"TYPE"` // postgres, mysql, sqlite
	Host                string        `yaml:"host" env:"HOST"`
	Port                int           `yaml:"port" env:"PORT"`
	Username            string        `yaml:"username" env:"USERNAME"`
	Password            string        `yaml:"password" env:"PASSWORD"`
	DBName              string        `yaml:"dbname" env:"DBNAME"`
	SSLMode             string        `yaml:"sslmode" env:"SSLMODE"`
	MaxIdleConns        int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	MaxOpenConns        int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	ConnMaxLifetime     time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTime     time.Duration `yaml:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME"`
	ConnectTimeout      time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	ReadTimeout         time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout        time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	EnableReconnect     bool          `yaml:"enable_reconnect" env:"ENABLE_RECONNECT"`
	ReconnectInterval   time.Duration `yaml:"reconnect_interval" env:"RECONNECT_INTERVAL"`
	MaxReconnectTries   int           `yaml:"max_reconnect_tries" env:"MAX_RECONNECT_TRIES"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval" env:"HEALTH_CHECK_INTERVAL"`
	EnableQueryLog      bool          `yaml:"enable_query_log" env:"ENABLE_QUERY_LOG"`
	SlowQueryTime       time.Duration `yaml:"slow_query_time" env:"SLOW_QUERY_TIME"`
}

// DataMigrateConfig controls schema migration behavior on startup.
type DataMigrateConfig struct {
	EnableMigrateOnStartup bool `yaml:"enable_migrate_on_startup" env:"ENABLE_MIGRATE_ON_STARTUP"`
	EnableForeignKey       bool `yaml:"enable_foreign_key" env:"ENABLE_FOREIGN_KEY"`
}

// DataInitConfig controls data seeding behavior and environment selection.
type DataInitConfig struct {
	AutoInitOnMigration bool   `yaml:"auto_init_on_migration" env:"AUTO_INIT_ON_MIGRATION"`
	Filepath            string `yaml:"filepath" env:"FILEPATH"`
	Environment         string `yaml:"environment" env:"ENVIRONMENT"`
}

// Config aggregates connection, migration, and data initialization settings.
type Config struct {
	ConnectionConfig  ConnectionConfig  `yaml:"connection"`
	DataMigrateConfig DataMigrateConfig `yaml:"migrate" envPrefix:"MIGRATE_"`
	DataInitConfig    DataInitConfig    `yaml:"init" envPrefix:"INIT_"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:                "sqlite",
		DBName:              "curriculum",
		MaxIdleConns:        10,
		MaxOpenConns:        100,
		ConnMaxLifetime:     time.Hour,
		ConnMaxIdleTime:     time.Minute * 30,
		ConnectTimeout:      time.Second * 10,
		ReadTimeout:         time.Second * 30,
		WriteTimeout:        time.Second * 30,
		EnableReconnect:     true,
		ReconnectInterval:   time.Second * 5,
		MaxReconnectTries:   3,
		HealthCheckInterval: time.Minute * 5,
		SlowQueryTime:       time.Second * 2,
	}
}

// DefaultConfig returns a sqlite configuration that migrates on startup.
func DefaultConfig() *Config {
	return &Config{
		ConnectionConfig: *DefaultConnectionConfig(),
		DataMigrateConfig: DataMigrateConfig{
			EnableMigrateOnStartup: true,
			EnableForeignKey:       true,
		},
		DataInitConfig: DataInitConfig{
			Filepath:    "configs/sql",
			Environment: "prod",
		},
	}
}
