package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
)

const consultationColumns = `
	id, channel_id, user_id, owner_name, pet_name, pet_type, pet_species, concern,
	consult_type, payment_proof_url, payment_proof_key, file_type,
	to_char(slot_date, 'YYYY-MM-DD') AS slot_date, to_char(slot_time, 'HH24:MI') AS slot_time,
	status, decline_reason, created_at`

type consultationRepository struct {
	BaseRepository
}

func NewConsultationRepository(base BaseRepository) repository.ConsultationRepository {
	return &consultationRepository{base}
}

func (r *consultationRepository) Create(ctx context.Context, c *model.Consultation) error {
	query := `
		INSERT INTO online_consultations (
			id, channel_id, user_id, owner_name, pet_name, pet_type, pet_species,
			concern, consult_type, payment_proof_url, payment_proof_key, file_type,
			slot_date, slot_time, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::date, $14::time, $15, $16)
	`
	c.ID = uuid.New()
	c.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ChannelID, c.UserID, c.OwnerName, c.PetName, c.PetType, c.PetSpecies,
		c.Concern, c.ConsultType, c.PaymentProofURL, c.PaymentProofKey, c.FileType,
		c.Date, c.Time, c.Status, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM online_consultations WHERE id = $1`

	var c model.Consultation
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, wrapGet(err, "consultation")
	}
	return &c, nil
}

func (r *consultationRepository) List(ctx context.Context) ([]*model.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM online_consultations ORDER BY created_at DESC`

	consultations := []*model.Consultation{}
	if err := r.db.SelectContext(ctx, &consultations, query); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM online_consultations WHERE user_id = $1 ORDER BY created_at DESC`

	consultations := []*model.Consultation{}
	if err := r.db.SelectContext(ctx, &consultations, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, reason *string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE online_consultations SET status = $1, decline_reason = $2 WHERE id = $3 AND status = 'Pending'`,
		status, reason, id)
	if err != nil {
		return false, fmt.Errorf("failed to update consultation status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *consultationRepository) CreateMessage(ctx context.Context, m *model.ConsultMessage) error {
	query := `
		INSERT INTO consult_messages (id, consultation_id, sender_type, sender_name, message_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	m.ID = uuid.New()
	m.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, m.ID, m.ConsultationID, m.SenderType, m.SenderName, m.MessageText, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (r *consultationRepository) ListMessages(ctx context.Context, consultationID uuid.UUID) ([]*model.ConsultMessage, error) {
	query := `
		SELECT id, consultation_id, sender_type, sender_name, message_text, created_at
		FROM consult_messages
		WHERE consultation_id = $1
		ORDER BY created_at ASC
	`
	messages := []*model.ConsultMessage{}
	if err := r.db.SelectContext(ctx, &messages, query, consultationID); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
