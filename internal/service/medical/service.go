package medical

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	"github.com/riveravet/clinic-api/internal/storage"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/timezone"
)

type ObjectStore interface {
	Upload(ctx context.Context, folder string, f *model.Photo) (*storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	repo     repository.MedicalRepository
	objects  ObjectStore
	location *time.Location
	logger   *logger.Logger
}

func NewService(repo repository.MedicalRepository, objects ObjectStore, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = timezone.Location("")
	}
	return &Service{
		repo:     repo,
		objects:  objects,
		location: loc,
		logger:   log,
	}
}

func (s *Service) CreateRecord(ctx context.Context, in *model.PetRecordInput, photo *model.Photo) (*model.PetRecord, error) {
	rec := &model.PetRecord{}
	if err := applyRecord(rec, in); err != nil {
		return nil, err
	}

	obj, err := s.upload(ctx, photo)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		rec.PhotoURL, rec.PhotoKey = &obj.URL, &obj.Key
	}

	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		s.remove(ctx, obj)
		return nil, err
	}
	s.logger.Info("Pet record created", "record_id", rec.ID, "pet", rec.PetName)
	return rec, nil
}

// UpdateRecord replaces the record details; a new photo replaces the stored one.
func (s *Service) UpdateRecord(ctx context.Context, id uuid.UUID, in *model.PetRecordInput, photo *model.Photo) (*model.PetRecord, error) {
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyRecord(rec, in); err != nil {
		return nil, err
	}

	oldKey := rec.PhotoKey
	obj, err := s.upload(ctx, photo)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		rec.PhotoURL, rec.PhotoKey = &obj.URL, &obj.Key
	}

	if err := s.repo.UpdateRecord(ctx, rec); err != nil {
		s.remove(ctx, obj)
		return nil, err
	}
	if obj != nil && oldKey != nil {
		s.remove(ctx, &storage.Object{Key: *oldKey})
	}
	return rec, nil
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*model.PetRecord, error) {
	return s.repo.GetRecord(ctx, id)
}

func (s *Service) ListRecords(ctx context.Context) ([]*model.PetRecord, error) {
	return s.repo.ListRecords(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.PetRecord, error) {
	return s.repo.ListRecordsByOwner(ctx, ownerID)
}

func (s *Service) AddVisit(ctx context.Context, recordID uuid.UUID, in *model.VisitInput) (*model.Visit, error) {
	if _, err := s.repo.GetRecord(ctx, recordID); err != nil {
		return nil, err
	}
	v := &model.Visit{MedicalRecordID: recordID}
	if err := s.applyVisit(v, in); err != nil {
		return nil, err
	}
	if err := s.repo.CreateVisit(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) UpdateVisit(ctx context.Context, recordID, visitID uuid.UUID, in *model.VisitInput) (*model.Visit, error) {
	v := &model.Visit{ID: visitID, MedicalRecordID: recordID}
	if err := s.applyVisit(v, in); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateVisit(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) ListVisits(ctx context.Context, recordID uuid.UUID) ([]*model.Visit, error) {
	if _, err := s.repo.GetRecord(ctx, recordID); err != nil {
		return nil, err
	}
	return s.repo.ListVisits(ctx, recordID)
}

func (s *Service) applyVisit(v *model.Visit, in *model.VisitInput) error {
	date, err := s.NormalizeDate(in.VisitDate)
	if err != nil {
		return err
	}
	v.VisitDate = date
	v.ServiceType = strings.TrimSpace(in.ServiceType)
	v.Diagnosis = in.Diagnosis
	v.Treatment = in.Treatment
	v.Notes = in.Notes
	v.Veterinarian = strings.TrimSpace(in.Veterinarian)
	return nil
}

// NormalizeDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// clinic-local calendar date.
func (s *Service) NormalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if d, err := timezone.ParseDate(raw, s.location); err == nil {
		return timezone.FormatDate(d, s.location), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return timezone.FormatDate(t, s.location), nil
	}
	return "", apperrors.BadRequest("invalid visit date: expected YYYY-MM-DD", nil)
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

func applyRecord(rec *model.PetRecord, in *model.PetRecordInput) error {
	rec.OwnerUserID = nil
	if in.OwnerUserID != "" {
		id, err := uuid.Parse(in.OwnerUserID)
		if err != nil {
			return apperrors.BadRequest("invalid owner_user_id", err)
		}
		rec.OwnerUserID = &id
	}
	rec.OwnerName = strings.TrimSpace(in.OwnerName)
	rec.PetName = strings.TrimSpace(in.PetName)
	rec.Species = strings.TrimSpace(in.Species)
	rec.Breed = strings.TrimSpace(in.Breed)
	rec.Gender = in.Gender
	rec.BirthDate = nil
	if b := strings.TrimSpace(in.BirthDate); b != "" {
		rec.BirthDate = &b
	}
	rec.Weight = in.Weight
	rec.Color = in.Color
	return nil
}
