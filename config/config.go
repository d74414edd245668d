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

// Package config loads the service configuration: built-in defaults, then
// an optional YAML file, then CURRICULUM_* environment variables.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/tomoncle/curriculum/auth"
	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/storage"
	"github.com/tomoncle/curriculum/utils"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "CURRICULUM_"

type Config struct {
	Server   ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Log      utils.LogOptions `yaml:"log" envPrefix:"LOG_"`
	Database database.Config  `yaml:"database" envPrefix:"DATABASE_"`
	Auth     AuthConfig       `yaml:"auth" envPrefix:"AUTH_"`
	Storage  storage.Config   `yaml:"storage" envPrefix:"STORAGE_"`
	Upload   UploadConfig     `yaml:"upload" envPrefix:"UPLOAD_"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr" env:"ADDR"`
	Mode              string        `yaml:"mode" env:"MODE"` // debug | release | test
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

type AuthConfig struct {
	Secret        string        `yaml:"secret" env:"SECRET"`
	Issuer        string        `yaml:"issuer" env:"ISSUER"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
	AdminUsername string        `yaml:"admin_username" env:"ADMIN_USERNAME"`
	AdminPassword string        `yaml:"admin_password" env:"ADMIN_PASSWORD"`
}

type UploadConfig struct {
	MaxSize      int64    `yaml:"max_size" env:"MAX_SIZE"`
	AllowedTypes []string `yaml:"allowed_types" env:"ALLOWED_TYPES" envSeparator:","`
}

// Validator returns the upload checks described by u.
func (u UploadConfig) Validator() storage.Validator {
	return storage.Validator{MaxSize: u.MaxSize, AllowedTypes: u.AllowedTypes}
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			Mode:              "release",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Log:      utils.DefaultLogOptions(),
		Database: *database.DefaultConfig(),
		Auth: AuthConfig{
			Issuer:   "curriculum",
			TokenTTL: auth.DefaultTokenTTL,
		},
		Storage: storage.DefaultConfig(),
		Upload: UploadConfig{
			MaxSize:      storage.DefaultMaxSize,
			AllowedTypes: append([]string(nil), storage.DefaultAllowedTypes...),
		},
	}
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.WithStack(err)
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Server.Addr) == "" {
		problems = append(problems, "server.addr is empty")
	}
	if c.Auth.Secret == "" {
		problems = append(problems, "auth.secret is empty")
	}
	if (c.Auth.AdminUsername == "") != (c.Auth.AdminPassword == "") {
		problems = append(problems, "auth.admin_username and auth.admin_password go together")
	}
	switch strings.ToLower(c.Storage.Type) {
	case "", storage.TypeLocal, storage.TypeMinio, storage.TypeS3:
	default:
		problems = append(problems, "storage.type must be local, minio or s3")
	}
	if c.Upload.MaxSize <= 0 {
		problems = append(problems, "upload.max_size must be positive")
	}
	if len(problems) > 0 {
		return errors.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
