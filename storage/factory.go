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

package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

const (
	TypeLocal = "local"
	TypeMinio = "minio"
	TypeS3    = "s3"
)

type LocalConfig struct {
	Dir     string `yaml:"dir" env:"DIR"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	Region    string `yaml:"region" env:"REGION"`
	UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
}

type S3Config struct {
	Region       string `yaml:"region" env:"REGION"`
	Bucket       string `yaml:"bucket" env:"BUCKET"`
	Prefix       string `yaml:"prefix" env:"PREFIX"`
	Endpoint     string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey    string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey    string `yaml:"secret_key" env:"SECRET_KEY"`
	UsePathStyle bool   `yaml:"use_path_style" env:"USE_PATH_STYLE"`
}

// Config selects and configures the backend.
type Config struct {
	Type  string      `yaml:"type" env:"TYPE"`
	Local LocalConfig `yaml:"local" envPrefix:"LOCAL_"`
	Minio MinioConfig `yaml:"minio" envPrefix:"MINIO_"`
	S3    S3Config    `yaml:"s3" envPrefix:"S3_"`
}

func DefaultConfig() Config {
	return Config{
		Type:  TypeLocal,
		Local: LocalConfig{Dir: "uploads", BaseURL: "/uploads"},
	}
}

// NewBackend builds the backend named by cfg.Type.
func NewBackend(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", TypeLocal:
		return NewLocalBackend(cfg.Local.Dir, cfg.Local.BaseURL)
	case TypeMinio:
		return NewMinioBackend(ctx, cfg.Minio)
	case TypeS3:
		return NewS3Backend(ctx, cfg.S3)
	default:
		return nil, errors.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// New builds a Store over the configured backend.
func New(ctx context.Context, cfg Config, validator Validator) (*Store, error) {
	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewStore(backend, validator), nil
}
