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
	"bytes"
	"context"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/curriculum"
	"github.com/tomoncle/curriculum/metrics"
	"github.com/tomoncle/curriculum/utils"
)

// Store validates uploads and hands them to a Backend.
type Store struct {
	backend   Backend
	validator Validator
	log       *logrus.Logger
	now       func() time.Time
}

var _ FileStorage = (*Store)(nil)

func NewStore(backend Backend, validator Validator) *Store {
	return &Store{
		backend:   backend,
		validator: validator,
		log:       utils.NewLogger("STORAGE"),
		now:       time.Now,
	}
}

func (s *Store) Backend() string { return s.backend.Name() }

// UploadFile stores upload under a fresh key and describes the result.
func (s *Store) UploadFile(ctx context.Context, upload Upload) (*Descriptor, error) {
	if upload.Reader == nil {
		return nil, errors.Wrap(curriculum.ErrInvalidInput, "no file")
	}
	data, mtype, err := s.validator.Read(upload.Reader)
	if err != nil {
		s.count("rejected")
		return nil, err
	}

	key := s.objectKey(upload, mtype)
	contentType := mtype.String()
	url, err := s.backend.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.count("error")
		return nil, errors.Wrapf(err, "store %s", key)
	}
	s.count("ok")
	metrics.UploadBytes.WithLabelValues(s.backend.Name()).Add(float64(len(data)))
	s.log.WithFields(logrus.Fields{
		"backend": s.backend.Name(),
		"key":     key,
		"size":    len(data),
	}).Info("file stored")

	return &Descriptor{
		Backend:     s.backend.Name(),
		Key:         key,
		FileName:    cleanFileName(upload.FileName),
		ContentType: contentType,
		Size:        int64(len(data)),
		URL:         url,
	}, nil
}

// objectKey is "<owner>/<yyyy>/<mm>/<uuid><ext>"; the client's file name
// never reaches the key.
func (s *Store) objectKey(upload Upload, mtype *mimetype.MIME) string {
	now := s.now().UTC()
	return path.Join(
		"u"+strconv.FormatInt(upload.OwnerID, 10),
		now.Format("2006"),
		now.Format("01"),
		uuid.NewString()+mtype.Extension(),
	)
}

func (s *Store) count(outcome string) {
	metrics.Uploads.WithLabelValues(s.backend.Name(), outcome).Inc()
}

func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
