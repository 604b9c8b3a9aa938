package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
)

const (
	petRecordColumns = `
		id, owner_user_id, owner_name, pet_name, species, breed, gender,
		to_char(birth_date, 'YYYY-MM-DD') AS birth_date, weight, color, photo_url, photo_key, created_at`
	visitColumns = `
		id, medical_record_id, to_char(visit_date, 'YYYY-MM-DD') AS visit_date, service_type,
		diagnosis, treatment, notes, veterinarian, created_at`
)

type medicalRepository struct {
	BaseRepository
}

func NewMedicalRepository(base BaseRepository) repository.MedicalRepository {
	return &medicalRepository{base}
}

func (r *medicalRepository) CreateRecord(ctx context.Context, rec *model.PetRecord) error {
	query := `
		INSERT INTO pet_medical_records (
			id, owner_user_id, owner_name, pet_name, species, breed, gender,
			birth_date, weight, color, photo_url, photo_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, $9, $10, $11, $12, $13)
	`
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.OwnerUserID, rec.OwnerName, rec.PetName, rec.Species, rec.Breed, rec.Gender,
		rec.BirthDate, rec.Weight, rec.Color, rec.PhotoURL, rec.PhotoKey, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}
	return nil
}

func (r *medicalRepository) GetRecord(ctx context.Context, id uuid.UUID) (*model.PetRecord, error) {
	query := `SELECT ` + petRecordColumns + ` FROM pet_medical_records WHERE id = $1`

	var rec model.PetRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, wrapGet(err, "medical record")
	}
	return &rec, nil
}

func (r *medicalRepository) UpdateRecord(ctx context.Context, rec *model.PetRecord) error {
	query := `
		UPDATE pet_medical_records
		SET owner_user_id = $1, owner_name = $2, pet_name = $3, species = $4, breed = $5,
			gender = $6, birth_date = $7::date, weight = $8, color = $9, photo_url = $10, photo_key = $11
		WHERE id = $12
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.OwnerUserID, rec.OwnerName, rec.PetName, rec.Species, rec.Breed,
		rec.Gender, rec.BirthDate, rec.Weight, rec.Color, rec.PhotoURL, rec.PhotoKey, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medical record: %w", err)
	}
	return expectRows(res, "medical record")
}

func (r *medicalRepository) ListRecords(ctx context.Context) ([]*model.PetRecord, error) {
	query := `SELECT ` + petRecordColumns + ` FROM pet_medical_records ORDER BY pet_name ASC`

	records := []*model.PetRecord{}
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

func (r *medicalRepository) ListRecordsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.PetRecord, error) {
	query := `SELECT ` + petRecordColumns + ` FROM pet_medical_records WHERE owner_user_id = $1 ORDER BY pet_name ASC`

	records := []*model.PetRecord{}
	if err := r.db.SelectContext(ctx, &records, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}

func (r *medicalRepository) CreateVisit(ctx context.Context, v *model.Visit) error {
	query := `
		INSERT INTO visit_history (
			id, medical_record_id, visit_date, service_type, diagnosis, treatment, notes, veterinarian, created_at
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9)
	`
	v.ID = uuid.New()
	v.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.MedicalRecordID, v.VisitDate, v.ServiceType, v.Diagnosis, v.Treatment, v.Notes, v.Veterinarian, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}
	return nil
}

func (r *medicalRepository) UpdateVisit(ctx context.Context, v *model.Visit) error {
	query := `
		UPDATE visit_history
		SET visit_date = $1::date, service_type = $2, diagnosis = $3, treatment = $4, notes = $5, veterinarian = $6
		WHERE id = $7 AND medical_record_id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		v.VisitDate, v.ServiceType, v.Diagnosis, v.Treatment, v.Notes, v.Veterinarian, v.ID, v.MedicalRecordID)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}
	return expectRows(res, "visit")
}

func (r *medicalRepository) ListVisits(ctx context.Context, recordID uuid.UUID) ([]*model.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visit_history WHERE medical_record_id = $1 ORDER BY visit_date DESC, created_at DESC`

	visits := []*model.Visit{}
	if err := r.db.SelectContext(ctx, &visits, query, recordID); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	return visits, nil
}
