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
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// MigrationManager coordinates schema migrations and data initialization.
type MigrationManager struct {
	db     *bun.DB
	logger Logger
	config *Config
	models []SQLModel
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// NewMigrationManager constructs a MigrationManager over the registered models.
func NewMigrationManager(db *bun.DB, logger Logger, config *Config) *MigrationManager {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{
		db:     db,
		logger: logger,
		config: config,
		models: GetRegisteredModels(),
	}
}

// WithModels replaces the registered models, mainly for tests.
func (mm *MigrationManager) WithModels(models ...SQLModel) *MigrationManager {
	mm.models = models
	return mm
}

// RunMigrations creates the migration tracking table if needed and executes
// every pending migration in ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		SilenceQueryHooks(true)
		defer SilenceQueryHooks(false)
	}

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := mm.getAllMigrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for _, migration := range migrations {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}
	mm.logger.Info("database migrations completed")
	return nil
}

func (mm *MigrationManager) getAllMigrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create base table structure",
			Up:          mm.createBaseTables,
		},
		{
			Version:     "002",
			Name:        "create_indexes",
			Description: "Create secondary indexes",
			Up:          mm.createIndexes,
		},
	}
	if mm.config.DataInitConfig.AutoInitOnMigration {
		migrations = append(migrations, MigrationItem{
			Version:     "003",
			Name:        "seed_initial_data",
			Description: "Seed initial data",
			Up:          mm.seedInitialData,
		})
	}
	return migrations
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&Migration{
			Version:     migration.Version,
			Name:        migration.Name,
			AppliedAt:   time.Now(),
			Description: migration.Description,
		}).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("migration executed", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	fkm := NewForeignKeyManager(mm.logger, mm.models)
	if mm.config.DataMigrateConfig.EnableForeignKey {
		if errs := fkm.ValidateConstraints(); len(errs) > 0 {
			for _, err := range errs {
				mm.logger.Error("invalid foreign key constraint", "error", err.Error())
			}
			return fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
		}
	}

	for _, model := range mm.models {
		q := db.NewCreateTable().Model(model.Instance()).IfNotExists()
		if mm.config.DataMigrateConfig.EnableForeignKey {
			for _, fk := range model.ForeignKeys() {
				clause, args := fk.Clause()
				q = q.ForeignKey(clause, args...)
			}
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model.Instance(), err)
		}
	}
	return nil
}

func (mm *MigrationManager) createIndexes(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.models {
		for _, idx := range model.Indexes() {
			_, err := db.NewCreateIndex().
				Model(model.Instance()).
				Index(idx.Name).
				Column(idx.Columns...).
				IfNotExists().
				Exec(ctx)
			if err == nil {
				continue
			}
			// mysql has no CREATE INDEX IF NOT EXISTS
			if is, kind := IsSqlError(err); is && kind == ExistIndexErr {
				mm.logger.Debug("index already exists", "index", idx.Name)
				continue
			}
			return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
		}
	}
	return nil
}

// InitData runs the SQL seed files outside the migration bookkeeping.
func (mm *MigrationManager) InitData(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return mm.seedInitialData(ctx, tx)
	})
}

func (mm *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	init := mm.config.DataInitConfig
	sqlManager := NewSQLInitManager(init.Filepath, init.Environment, mm.logger)
	if _, err := sqlManager.Execute(ctx, db); err != nil {
		return fmt.Errorf("SQL file initialization failed: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
