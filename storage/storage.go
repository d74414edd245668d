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

// Package storage keeps uploaded files. Uploads are validated by content
// sniffing, then written to the configured backend: local disk, MinIO or S3.
package storage

import (
	"context"
	"io"
)

// Upload is one incoming file. Size is the length declared by the client;
// the stored size is counted from Reader.
type Upload struct {
	FileName string
	Size     int64
	Reader   io.Reader
	OwnerID  int64
}

// Descriptor describes a stored file.
type Descriptor struct {
	Backend     string `json:"backend"`
	Key         string `json:"key"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// FileStorage accepts uploads.
type FileStorage interface {
	UploadFile(ctx context.Context, upload Upload) (*Descriptor, error)
}

// Backend writes objects under a key and returns the URL they can be
// fetched from.
type Backend interface {
	Name() string
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}
