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
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

type defaultDatabaseManager struct {
	config          *Config
	db              *bun.DB
	sqlDB           *sql.DB
	logger          Logger
	mu              sync.RWMutex
	connected       bool
	healthStatus    *HealthStatus
	reconnectTries  int
	stopHealthCheck chan struct{}
	healthCheckOnce sync.Once
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// If config is nil, DefaultConfig is used.
func NewDatabaseManager(config *Config) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConfig()
	}
	return &defaultDatabaseManager{
		config:          config,
		logger:          GetLogger(),
		healthStatus:    &HealthStatus{},
		stopHealthCheck: make(chan struct{}),
	}
}

func (dm *defaultDatabaseManager) conn() *ConnectionConfig { return &dm.config.ConnectionConfig }

func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.connected && dm.db != nil {
		return nil
	}
	cfg := dm.conn()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	sqlDB, db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	dm.configureConnectionPool(sqlDB)
	dm.addQueryHooks(db)

	ctxTimeout, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctxTimeout); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	db.RegisterModel(RegisteredModelInstances()...)
	dm.sqlDB, dm.db = sqlDB, db
	dm.connected = true
	dm.reconnectTries = 0

	if cfg.HealthCheckInterval > 0 {
		dm.startHealthCheck()
	}
	dm.logger.Info("database connected", "type", cfg.Type, "host", cfg.Host, "dbname", cfg.DBName)
	return nil
}

func (dm *defaultDatabaseManager) configureConnectionPool(sqlDB *sql.DB) {
	cfg := dm.conn()
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	if kind, _ := normalizeType(cfg.Type); kind != "sqlite" {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
}

// addQueryHooks installs the colored SQL log (BUNDEBUG overrides the
// config), bundebug when BUNDEBUG_VERBOSE is set, and the slow query hook.
func (dm *defaultDatabaseManager) addQueryHooks(db *bun.DB) {
	cfg := dm.conn()
	db.AddQueryHook(NewQueryHook(
		WithEnabled(cfg.EnableQueryLog),
		WithEnv("BUNDEBUG"),
	))
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv("BUNDEBUG_VERBOSE"),
	))
	if cfg.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(cfg.SlowQueryTime, dm.logger))
	}
}

func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	select {
	case dm.stopHealthCheck <- struct{}{}:
	default:
	}

	if dm.db == nil {
		return nil
	}
	err := dm.db.Close()
	dm.db, dm.sqlDB = nil, nil
	dm.connected = false
	if err != nil {
		dm.logger.Error("failed to close database connection", "error", err)
	} else {
		dm.logger.Info("database connection closed")
	}
	return err
}

func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.logger.Info("attempting to reconnect to the database")
	dm.mu.Lock()
	if dm.db != nil {
		if err := dm.db.Close(); err != nil {
			dm.logger.Warn("error closing existing connection", "error", err)
		}
		dm.db, dm.sqlDB = nil, nil
		dm.connected = false
	}
	dm.mu.Unlock()
	return dm.Connect(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	dm.mu.RLock()
	db := dm.db
	dm.mu.RUnlock()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start, Connected: dm.connected}
	if dm.db == nil {
		status.LastError = "database not initialized"
		dm.healthStatus = status
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := dm.db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.Connected = false
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}

	stats := dm.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections

	dm.healthStatus = status
	return status
}

func (dm *defaultDatabaseManager) startHealthCheck() {
	dm.healthCheckOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(dm.conn().HealthCheckInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					status := dm.HealthCheck(ctx)
					cancel()
					if !status.Healthy && dm.conn().EnableReconnect {
						dm.handleReconnect()
					}
				case <-dm.stopHealthCheck:
					return
				}
			}
		}()
	})
}

func (dm *defaultDatabaseManager) handleReconnect() {
	cfg := dm.conn()
	if dm.reconnectTries >= cfg.MaxReconnectTries {
		dm.logger.Error("max reconnect attempts reached, giving up", "tries", dm.reconnectTries)
		return
	}
	dm.reconnectTries++
	dm.logger.Info("starting database reconnect", "try", dm.reconnectTries)
	time.Sleep(cfg.ReconnectInterval)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := dm.Reconnect(ctx); err != nil {
		dm.logger.Error("reconnect failed", "error", err, "try", dm.reconnectTries)
		return
	}
	dm.logger.Info("reconnect succeeded")
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	dm.mu.RLock()
	sqlDB := dm.sqlDB
	dm.mu.RUnlock()
	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, dm.logger, dm.config).RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) InitData(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, dm.logger, dm.config).InitData(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
