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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LocalBackend writes objects below a directory.
type LocalBackend struct {
	dir     string
	baseURL string
}

func NewLocalBackend(dir, baseURL string) (*LocalBackend, error) {
	if dir == "" {
		return nil, errors.New("local storage directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	return &LocalBackend{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (b *LocalBackend) Name() string { return TypeLocal }

func (b *LocalBackend) Put(ctx context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full := filepath.Join(b.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(full, filepath.Clean(b.dir)+string(filepath.Separator)) {
		return "", errors.Errorf("key %q escapes the storage directory", key)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.Wrap(err, "mkdir")
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "open file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", errors.Wrap(err, "write file")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "close file")
	}
	if b.baseURL == "" {
		return key, nil
	}
	return b.baseURL + "/" + key, nil
}
