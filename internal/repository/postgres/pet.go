package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
)

const petColumns = `
	id, owner_user_id, name, pet_type, breed, age, gender,
	photo_url, photo_key, created_at, updated_at`

type petRepository struct {
	BaseRepository
}

func NewPetRepository(base BaseRepository) repository.PetRepository {
	return &petRepository{base}
}

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	query := `
		INSERT INTO pet_profiles (
			id, owner_user_id, name, pet_type, breed, age, gender,
			photo_url, photo_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	pet.ID = uuid.New()
	pet.CreatedAt = time.Now()
	pet.UpdatedAt = pet.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		pet.ID, pet.OwnerUserID, pet.Name, pet.PetType, pet.Breed, pet.Age, pet.Gender,
		pet.PhotoURL, pet.PhotoKey, pet.CreatedAt, pet.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("owner", err)
		}
		return fmt.Errorf("failed to create pet: %w", err)
	}
	return nil
}

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pet_profiles WHERE id = $1`

	var pet model.Pet
	if err := r.db.GetContext(ctx, &pet, query, id); err != nil {
		return nil, wrapGet(err, "pet")
	}
	return &pet, nil
}

func (r *petRepository) Update(ctx context.Context, pet *model.Pet) error {
	query := `
		UPDATE pet_profiles
		SET name = $1, pet_type = $2, breed = $3, age = $4, gender = $5,
			photo_url = $6, photo_key = $7, updated_at = NOW()
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		pet.Name, pet.PetType, pet.Breed, pet.Age, pet.Gender, pet.PhotoURL, pet.PhotoKey, pet.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pet: %w", err)
	}
	return expectRows(res, "pet")
}

func (r *petRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pet_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pet: %w", err)
	}
	return expectRows(res, "pet")
}

func (r *petRepository) List(ctx context.Context) ([]*model.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pet_profiles ORDER BY name ASC`

	pets := []*model.Pet{}
	if err := r.db.SelectContext(ctx, &pets, query); err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return pets, nil
}

func (r *petRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error) {
	query := `SELECT ` + petColumns + ` FROM pet_profiles WHERE owner_user_id = $1 ORDER BY name ASC`

	pets := []*model.Pet{}
	if err := r.db.SelectContext(ctx, &pets, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return pets, nil
}

func (r *petRepository) ListOwners(ctx context.Context) ([]*model.PetOwner, error) {
	query := `
		SELECT u.id AS user_id, u.username, u.first_name, u.last_name, COUNT(p.id) AS pets
		FROM users u
		JOIN pet_profiles p ON p.owner_user_id = u.id
		GROUP BY u.id, u.username, u.first_name, u.last_name
		ORDER BY u.last_name ASC, u.first_name ASC
	`
	owners := []*model.PetOwner{}
	if err := r.db.SelectContext(ctx, &owners, query); err != nil {
		return nil, fmt.Errorf("failed to list pet owners: %w", err)
	}
	return owners, nil
}
