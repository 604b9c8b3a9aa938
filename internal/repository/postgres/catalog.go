package postgres

import (
	"context"
	"fmt"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
)

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(base BaseRepository) repository.CatalogRepository {
	return &catalogRepository{base}
}

func (r *catalogRepository) ListServices(ctx context.Context) ([]*model.ClinicService, error) {
	services := []*model.ClinicService{}
	if err := r.db.SelectContext(ctx, &services, `SELECT id, title, description, image_url FROM services ORDER BY title ASC`); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}
