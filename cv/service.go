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

// Package cv serves CVs owned by users. Every operation takes the caller
// explicitly: owners act on their own CVs, administrators list, search and
// restore all of them.
package cv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/curriculum"
	"github.com/tomoncle/curriculum/auth"
	"github.com/tomoncle/curriculum/repository"
	"github.com/tomoncle/curriculum/storage"
	"github.com/tomoncle/curriculum/types"
	"github.com/tomoncle/curriculum/user"
	"github.com/tomoncle/curriculum/utils"
	"github.com/uptrace/bun"
)

// UserLookup resolves the account behind a caller.
type UserLookup interface {
	FindOne(ctx context.Context, id int64) (*user.User, error)
}

type Service struct {
	db          bun.IDB
	cvs         *curriculum.Service[CV, *CV]
	attachments *curriculum.Service[Attachment, *Attachment]
	users       UserLookup
	files       storage.FileStorage
	log         *logrus.Logger
}

func NewService(db bun.IDB, users UserLookup, files storage.FileStorage) *Service {
	return &Service{
		db:          db,
		cvs:         curriculum.NewService[CV](db, repository.WithRelations("User"), repository.WithDefaultOrder("id ASC")),
		attachments: curriculum.NewService[Attachment](db, repository.WithDefaultOrder("id ASC")),
		users:       users,
		files:       files,
		log:         utils.NewLogger("CV"),
	}
}

func unauthorized(msg string) error {
	return errors.Wrap(curriculum.ErrUnauthorized, msg)
}

// ListAll returns every CV to an administrator, filtered by criteria when
// any is given.
func (s *Service) ListAll(ctx context.Context, caller *auth.Identity, criteria SearchCriteria) ([]*CV, error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	if !caller.IsAdmin() {
		return nil, errors.Wrap(curriculum.ErrForbidden, "admin role required")
	}
	if criteria.IsEmpty() {
		return s.cvs.FindAll(ctx)
	}
	return s.Search(ctx, criteria)
}

// Search returns the live CVs matching criteria.
func (s *Service) Search(ctx context.Context, criteria SearchCriteria) ([]*CV, error) {
	return s.cvs.List(ctx, criteria.Filter())
}

// GetOwn returns the caller's CVs.
func (s *Service) GetOwn(ctx context.Context, caller *auth.Identity) ([]*CV, error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	return s.cvs.List(ctx, types.NewQueryFilter("cv.user_id = ?", caller.UserID))
}

// PageAll is the paged form of ListAll; criteria becomes the page filter.
func (s *Service) PageAll(ctx context.Context, caller *auth.Identity, criteria SearchCriteria, page, pageSize int, orders []string) (*types.Pagination[CV], error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	if !caller.IsAdmin() {
		return nil, errors.Wrap(curriculum.ErrForbidden, "admin role required")
	}
	return s.cvs.Page(ctx, types.NewPageRequest(page, pageSize, criteria.Filter(), orders))
}

// PageOwn is the paged form of GetOwn.
func (s *Service) PageOwn(ctx context.Context, caller *auth.Identity, page, pageSize int, orders []string) (*types.Pagination[CV], error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	filter := types.NewQueryFilter("cv.user_id = ?", caller.UserID)
	return s.cvs.Page(ctx, types.NewPageRequest(page, pageSize, filter, orders))
}

// FindOne returns a CV to its owner or to an administrator.
func (s *Service) FindOne(ctx context.Context, caller *auth.Identity, id int64) (*CV, error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	c, err := s.cvs.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Owns(c.UserID) && !caller.IsAdmin() {
		return nil, unauthorized("not the owner of this cv")
	}
	return c, nil
}

// Create stores a CV owned by the caller. Nothing is written unless the
// caller resolves to an existing account.
func (s *Service) Create(ctx context.Context, caller *auth.Identity, in CreateInput) (*CV, error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	owner, err := s.users.FindOne(ctx, caller.UserID)
	if errors.Is(err, curriculum.ErrNotFound) {
		return nil, unauthorized("unknown user")
	}
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &CV{
		Name:      in.Name,
		Firstname: in.Firstname,
		Age:       in.Age,
		Cin:       in.Cin,
		Job:       in.Job,
		Path:      in.Path,
		UserID:    owner.ID,
	}
	if _, err := s.cvs.Create(ctx, c); err != nil {
		return nil, err
	}
	c.User = owner
	s.log.WithFields(logrus.Fields{"cv_id": c.ID, "user_id": owner.ID}).Info("cv created")
	return c, nil
}

// Update applies in to a CV of the caller. Administrators get no bypass.
func (s *Service) Update(ctx context.Context, caller *auth.Identity, id int64, in UpdateInput) (*CV, error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	if err := s.owned(ctx, caller, id); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.cvs.Update(ctx, id, in)
}

// Remove soft-deletes a CV of the caller.
func (s *Service) Remove(ctx context.Context, caller *auth.Identity, id int64) (*curriculum.AffectedResult, error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	if err := s.owned(ctx, caller, id); err != nil {
		return nil, err
	}
	res, err := s.cvs.Remove(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"cv_id": id, "user_id": caller.UserID}).Info("cv removed")
	return res, nil
}

// Restore brings back a removed CV. Administrators only.
func (s *Service) Restore(ctx context.Context, caller *auth.Identity, id int64) (*curriculum.AffectedResult, error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	if !caller.IsAdmin() {
		return nil, errors.Wrap(curriculum.ErrForbidden, "admin role required")
	}
	return s.cvs.Restore(ctx, id)
}

// owned fails with ErrNotFound when the CV is missing and with
// ErrUnauthorized when the caller does not own it.
func (s *Service) owned(ctx context.Context, caller *auth.Identity, id int64) error {
	c, err := s.cvs.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if !caller.Owns(c.UserID) {
		return unauthorized("not the owner of this cv")
	}
	return nil
}

// UploadAttachment stores a file for the caller. With a non-zero cvID the
// CV must belong to the caller; its path then points at the new file.
func (s *Service) UploadAttachment(ctx context.Context, caller *auth.Identity, cvID int64, upload storage.Upload) (*storage.Descriptor, error) {
	if caller == nil {
		return nil, unauthorized("authentication required")
	}
	if cvID != 0 {
		if err := s.owned(ctx, caller, cvID); err != nil {
			return nil, err
		}
	}

	upload.OwnerID = caller.UserID
	desc, err := s.files.UploadFile(ctx, upload)
	if err != nil {
		return nil, err
	}

	att := &Attachment{
		CVID:        cvID,
		UserID:      caller.UserID,
		Backend:     desc.Backend,
		StorageKey:  desc.Key,
		FileName:    desc.FileName,
		ContentType: desc.ContentType,
		Size:        desc.Size,
		URL:         desc.URL,
		Metadata:    types.JsonObject{"declaredSize": upload.Size},
	}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.attachments.WithTx(tx).Create(ctx, att); err != nil {
			return err
		}
		if cvID == 0 {
			return nil
		}
		_, err := s.cvs.WithTx(tx).Update(ctx, cvID, curriculum.PatchFunc[CV](func(c *CV) {
			c.Path = desc.URL
		}))
		return err
	})
	if err != nil {
		s.log.WithError(err).WithField("key", desc.Key).Error("stored file could not be recorded")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"cv_id": cvID, "attachment_id": att.ID}).Info("attachment uploaded")
	return desc, nil
}

// Attachments lists the files uploaded for a CV the caller may read.
func (s *Service) Attachments(ctx context.Context, caller *auth.Identity, cvID int64) ([]*Attachment, error) {
	if _, err := s.FindOne(ctx, caller, cvID); err != nil {
		return nil, err
	}
	return s.attachments.List(ctx, types.NewQueryFilter("att.cv_id = ?", cvID))
}
