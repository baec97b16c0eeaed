package core

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/platform/storage"
)

type Service struct {
	store   StoreAPI
	objects storage.Store
}

func NewService(store StoreAPI, objects storage.Store) *Service {
	return &Service{store: store, objects: objects}
}

func (s *Service) GetEmployee(ctx context.Context, actor auth.Actor, id string) (*Employee, error) {
	emp, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Capability() != auth.Privileged && emp.UserID != actor.UserID {
		return nil, ErrForbidden
	}
	return emp, nil
}

// GetOwnEmployee resolves the caller's employee record, whatever their role.
func (s *Service) GetOwnEmployee(ctx context.Context, actor auth.Actor) (*Employee, error) {
	return s.store.GetEmployeeByUserID(ctx, actor.UserID)
}

func (s *Service) ListEmployees(ctx context.Context, actor auth.Actor, status string, limit, offset int) ([]Employee, int, error) {
	if actor.Capability() != auth.Privileged {
		return nil, 0, ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListEmployees(ctx, status, limit, offset)
}

func (s *Service) UpdateEmployee(ctx context.Context, actor auth.Actor, id string, in EmployeeInput) (*Employee, error) {
	if actor.Capability() != auth.Privileged {
		return nil, ErrForbidden
	}
	if in.Status != EmployeeActive && in.Status != EmployeeInactive {
		return nil, fmt.Errorf("invalid employee status %q", in.Status)
	}
	if err := s.store.UpdateEmployee(ctx, id, in); err != nil {
		return nil, err
	}
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) DeleteEmployee(ctx context.Context, actor auth.Actor, id string) error {
	if actor.Capability() != auth.Privileged {
		return ErrForbidden
	}
	return s.store.DeleteEmployee(ctx, id)
}

// UpdateProfile applies the self-service contact edits. The input type only
// carries contact fields, so an employee physically cannot reach salary or
// status through this path.
func (s *Service) UpdateProfile(ctx context.Context, actor auth.Actor, in SelfEditInput) (*Employee, error) {
	if err := s.store.UpdateSelf(ctx, actor.UserID, in); err != nil {
		return nil, err
	}
	return s.store.GetEmployeeByUserID(ctx, actor.UserID)
}

func (s *Service) Profile(ctx context.Context, actor auth.Actor) (*User, error) {
	return s.store.GetUser(ctx, actor.UserID)
}

// UploadAvatar replaces the caller's avatar. One object per user; a new
// upload overwrites the previous one.
func (s *Service) UploadAvatar(ctx context.Context, actor auth.Actor, fileName, contentType string, data []byte) (string, error) {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".png"
	}
	objectPath := fmt.Sprintf("%s/avatar%s", actor.UserID, ext)
	err := s.objects.Upload(ctx, storage.BucketAvatars, objectPath, data, storage.UploadOptions{
		ContentType: contentType,
		Upsert:      true,
	})
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	url := s.objects.PublicURL(storage.BucketAvatars, objectPath)
	if err := s.store.SetAvatarURL(ctx, actor.UserID, url); err != nil {
		return "", err
	}
	return url, nil
}
