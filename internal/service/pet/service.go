// Package pet manages owner maintained pet profiles.
package pet

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	"github.com/riveravet/clinic-api/internal/storage"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
)

var ErrNotOwner = apperrors.Forbidden("permission denied")

type ObjectStore interface {
	Upload(ctx context.Context, folder string, f *model.Photo) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	repo    repository.PetRepository
	objects ObjectStore
	logger  *logger.Logger
}

func NewService(repo repository.PetRepository, objects ObjectStore, log *logger.Logger) *Service {
	return &Service{repo: repo, objects: objects, logger: log}
}

// Create registers a pet for the caller. Staff may name another owner.
func (s *Service) Create(ctx context.Context, p model.Principal, in *model.PetInput, photo *model.Photo) (*model.Pet, error) {
	owner := p.UserID
	if in.OwnerUserID != "" {
		id, err := uuid.Parse(in.OwnerUserID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid owner_user_id", err)
		}
		if id != p.UserID && !p.IsStaff() {
			return nil, ErrNotOwner
		}
		owner = id
	}

	pet := &model.Pet{OwnerUserID: owner}
	apply(pet, in)

	obj, err := s.upload(ctx, photo)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		pet.PhotoURL, pet.PhotoKey = &obj.URL, &obj.Key
	}

	if err := s.repo.Create(ctx, pet); err != nil {
		s.remove(ctx, obj)
		return nil, err
	}
	s.logger.Info("Pet profile created", "pet_id", pet.ID, "owner", owner)
	return pet, nil
}

// Update edits a pet the caller owns, or any pet for staff. Ownership does not move.
func (s *Service) Update(ctx context.Context, p model.Principal, id uuid.UUID, in *model.PetInput, photo *model.Photo) (*model.Pet, error) {
	pet, err := s.visible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	apply(pet, in)

	oldKey := pet.PhotoKey
	obj, err := s.upload(ctx, photo)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		pet.PhotoURL, pet.PhotoKey = &obj.URL, &obj.Key
	}

	if err := s.repo.Update(ctx, pet); err != nil {
		s.remove(ctx, obj)
		return nil, err
	}
	if obj != nil && oldKey != nil {
		s.remove(ctx, &storage.Object{Key: *oldKey})
	}
	return pet, nil
}

func (s *Service) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	pet, err := s.visible(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if pet.PhotoKey != nil {
		s.remove(ctx, &storage.Object{Key: *pet.PhotoKey})
	}
	return nil
}

func (s *Service) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Pet, error) {
	return s.visible(ctx, p, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Pet, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) ListOwners(ctx context.Context) ([]*model.PetOwner, error) {
	return s.repo.ListOwners(ctx)
}

func (s *Service) visible(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Pet, error) {
	pet, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsStaff() && pet.OwnerUserID != p.UserID {
		return nil, ErrNotOwner
	}
	return pet, nil
}

func (s *Service) upload(ctx context.Context, photo *model.Photo) (*storage.Object, error) {
	if photo == nil {
		return nil, nil
	}
	if !strings.HasPrefix(photo.ContentType, "image/") {
		return nil, apperrors.BadRequest("photo must be an image", nil)
	}
	obj, err := s.objects.Upload(ctx, storage.FolderPets, photo)
	if err != nil {
		return nil, apperrors.Unavailable("failed to upload photo", err)
	}
	return obj, nil
}

func (s *Service) remove(ctx context.Context, obj *storage.Object) {
	if obj == nil {
		return
	}
	if err := s.objects.Delete(ctx, obj.Key); err != nil {
		s.logger.Warn("Failed to delete pet photo", "key", obj.Key, "error", err)
	}
}

func apply(pet *model.Pet, in *model.PetInput) {
	pet.Name = strings.TrimSpace(in.Name)
	pet.PetType = strings.TrimSpace(in.PetType)
	pet.Breed = strings.TrimSpace(in.Breed)
	pet.Age = strings.TrimSpace(in.Age)
	pet.Gender = in.Gender
}
