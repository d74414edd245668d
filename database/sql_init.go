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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const commonEnvironment = "common"

var fileOrderPattern = regexp.MustCompile(`^(\d+)_`)

// SQLInitManager discovers and executes seed SQL files. Files live under
// <root>/common and <root>/environments/<env>; common files run first and
// each group is ordered by its numeric "NNN_" prefix.
type SQLInitManager struct {
	root        string
	environment string
	logger      Logger
}

// SQLFileInfo describes a SQL file to be executed during initialization.
type SQLFileInfo struct {
	Path        string
	Name        string
	Order       int
	Environment string
}

// NewSQLInitManager creates a SQL initializer for the given environment.
func NewSQLInitManager(root, environment string, logger Logger) *SQLInitManager {
	if root == "" {
		root = "configs/sql"
	}
	if environment == "" {
		environment = "prod"
	}
	if logger == nil {
		logger = GetLogger()
	}
	return &SQLInitManager{root: root, environment: environment, logger: logger}
}

// Execute runs every discovered file against db and returns how many ran.
// Missing directories are not an error.
func (s *SQLInitManager) Execute(ctx context.Context, db bun.IDB) (int, error) {
	files, err := s.GetSQLFiles()
	if err != nil {
		return 0, fmt.Errorf("failed to get SQL files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("no SQL seed files found", "root", s.root, "environment", s.environment)
		return 0, nil
	}
	for _, file := range files {
		start := time.Now()
		rows, err := s.executeFile(ctx, db, file)
		if err != nil {
			return 0, fmt.Errorf("SQL file execution failed %s: %w", file.Path, err)
		}
		s.logger.Info("SQL file executed", "file", file.Path, "duration", time.Since(start).String(), "rows_affected", rows)
	}
	return len(files), nil
}

// GetSQLFiles returns the common files followed by the environment files.
func (s *SQLInitManager) GetSQLFiles() ([]SQLFileInfo, error) {
	common, err := s.filesIn(filepath.Join(s.root, commonEnvironment), commonEnvironment)
	if err != nil {
		return nil, err
	}
	env, err := s.filesIn(filepath.Join(s.root, "environments", s.environment), s.environment)
	if err != nil {
		return nil, err
	}
	return append(common, env...), nil
}

func (s *SQLInitManager) filesIn(dir, environment string) ([]SQLFileInfo, error) {
	var files []SQLFileInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			return nil
		}
		files = append(files, SQLFileInfo{
			Path:        path,
			Name:        d.Name(),
			Order:       parseFileOrder(d.Name()),
			Environment: environment,
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Order < files[j].Order })
	return files, err
}

func parseFileOrder(filename string) int {
	if m := fileOrderPattern.FindStringSubmatch(filename); len(m) > 1 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 999
}

func (s *SQLInitManager) executeFile(ctx context.Context, db bun.IDB, file SQLFileInfo) (int64, error) {
	content, err := os.ReadFile(file.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}
	var total int64
	for _, stmt := range splitSQLStatements(string(content)) {
		res, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return total, fmt.Errorf("failed to execute SQL statement: %s, error: %w", stmt, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// splitSQLStatements splits on lines ending with ';' and drops "--" comments.
func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString(" ")
		if strings.HasSuffix(line, ";") {
			flush()
		}
	}
	flush()
	return statements
}
