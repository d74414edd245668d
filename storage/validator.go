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
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/tomoncle/curriculum"
)

const DefaultMaxSize int64 = 1 << 20

// DefaultAllowedTypes are the image types accepted for CV photos.
var DefaultAllowedTypes = []string{"image/jpeg", "image/jpg", "image/png"}

// Validator checks the size and sniffed type of an upload.
type Validator struct {
	MaxSize      int64
	AllowedTypes []string
}

func DefaultValidator() Validator {
	return Validator{MaxSize: DefaultMaxSize, AllowedTypes: DefaultAllowedTypes}
}

// Read consumes r, at most MaxSize bytes, and returns its content with the
// detected content type. Violations wrap curriculum.ErrInvalidInput.
func (v Validator) Read(r io.Reader) ([]byte, *mimetype.MIME, error) {
	max := v.MaxSize
	if max <= 0 {
		max = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, nil, errors.Wrap(err, "read upload")
	}
	if len(data) == 0 {
		return nil, nil, errors.Wrap(curriculum.ErrInvalidInput, "file is empty")
	}
	if int64(len(data)) > max {
		return nil, nil, errors.Wrapf(curriculum.ErrInvalidInput, "file exceeds %d bytes", max)
	}
	mtype := mimetype.Detect(data)
	if !v.allowed(mtype) {
		return nil, nil, errors.Wrapf(curriculum.ErrInvalidInput, "file type %s is not accepted", mtype.String())
	}
	return data, mtype, nil
}

func (v Validator) allowed(mtype *mimetype.MIME) bool {
	if len(v.AllowedTypes) == 0 {
		return true
	}
	for _, t := range v.AllowedTypes {
		if mtype.Is(strings.ToLower(strings.TrimSpace(t))) {
			return true
		}
	}
	return false
}
