package consultation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/storage"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
)

type fakeRepo struct {
	items     map[uuid.UUID]*model.Consultation
	messages  []*model.ConsultMessage
	createErr error
}

func (f *fakeRepo) Create(ctx context.Context, c *model.Consultation) error {
	if f.createErr != nil {
		return f.createErr
	}
	c.ID = uuid.New()
	cp := *c
	f.items[c.ID] = &cp
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, apperrors.NotFound("consultation", nil)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeRepo) List(ctx context.Context) ([]*model.Consultation, error) {
	var out []*model.Consultation
	for _, c := range f.items {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Consultation, error) {
	var out []*model.Consultation
	for _, c := range f.items {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, reason *string) (bool, error) {
	c, ok := f.items[id]
	if !ok || c.Status != model.AppointmentStatusPending {
		return false, nil
	}
	c.Status = status
	c.DeclineReason = reason
	return true, nil
}

func (f *fakeRepo) CreateMessage(ctx context.Context, m *model.ConsultMessage) error {
	m.ID = uuid.New()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeRepo) ListMessages(ctx context.Context, id uuid.UUID) ([]*model.ConsultMessage, error) {
	return f.messages, nil
}

type fakeBlocker struct{ blocked bool }

func (f fakeBlocker) IsBlockedTx(ctx context.Context, tx *sqlx.Tx, date, slotTime string) (bool, error) {
	return f.blocked, nil
}

type fakeObjects struct {
	deleted []string
}

func (f *fakeObjects) Upload(ctx context.Context, folder string, p *model.Photo) (*storage.Object, error) {
	return &storage.Object{Key: folder + "/" + p.Filename, URL: "https://cdn.example/" + folder + "/" + p.Filename}, nil
}

func (f *fakeObjects) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

type note struct {
	userID uuid.UUID
	title  string
}

type fakeNotifier struct{ notes []note }

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, title, kind, details string) error {
	f.notes = append(f.notes, note{userID, title})
	return nil
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	objects  *fakeObjects
	notifier *fakeNotifier
	owner    model.Principal
}

func newFixture(blocked bool) *fixture {
	f := &fixture{
		repo:     &fakeRepo{items: map[uuid.UUID]*model.Consultation{}},
		objects:  &fakeObjects{},
		notifier: &fakeNotifier{},
		owner:    model.Principal{UserID: uuid.New(), Username: "ana", Role: model.RoleUser},
	}
	f.svc = NewService(f.repo, fakeBlocker{blocked}, f.objects, f.notifier, logger.Nop())
	f.svc.now = func() time.Time { return time.UnixMilli(1717228800123) }
	return f
}

func request() *model.SubmitConsultationRequest {
	return &model.SubmitConsultationRequest{
		OwnerName:   "Ana Cruz",
		PetName:     "Mochi",
		PetType:     "Cat",
		Concern:     "Not eating",
		ConsultType: model.ConsultTypeRegular,
		Date:        "2025-06-02",
		Time:        "10:00",
	}
}

func proof() *model.Photo {
	return &model.Photo{Filename: "gcash.jpg", ContentType: "image/jpeg", Body: []byte("jpg")}
}

func (f *fixture) submit(t *testing.T) *model.Consultation {
	t.Helper()
	c, err := f.svc.Submit(context.Background(), f.owner, request(), proof())
	require.NoError(t, err)
	return c
}

func TestSubmit(t *testing.T) {
	f := newFixture(false)
	c := f.submit(t)

	assert.Equal(t, "consult1717228800123", c.ChannelID)
	assert.Equal(t, model.AppointmentStatusPending, c.Status)
	assert.Equal(t, "payment-proofs/gcash.jpg", c.PaymentProofKey)
	assert.Equal(t, "image/jpeg", c.FileType)
	assert.Equal(t, f.owner.UserID, c.UserID)
}

func TestSubmit_Rejections(t *testing.T) {
	f := newFixture(true)
	_, err := f.svc.Submit(context.Background(), f.owner, request(), proof())
	assert.ErrorIs(t, err, ErrSlotBlocked)

	f = newFixture(false)
	_, err = f.svc.Submit(context.Background(), f.owner, request(), nil)
	assert.ErrorIs(t, err, ErrProofMissing)
	_, err = f.svc.Submit(context.Background(), f.owner, request(), &model.Photo{Filename: "a.exe", ContentType: "application/octet-stream", Body: []byte("x")})
	assert.ErrorIs(t, err, ErrProofMissing)

	f.repo.createErr = errors.New("db down")
	_, err = f.svc.Submit(context.Background(), f.owner, request(), proof())
	require.Error(t, err)
	assert.Equal(t, []string{"payment-proofs/gcash.jpg"}, f.objects.deleted)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(false)
	c := f.submit(t)

	_, err := f.svc.SetStatus(context.Background(), c.ID, &model.UpdateAppointmentStatusRequest{Status: "Declined"})
	assert.ErrorIs(t, err, ErrReasonMissing)

	updated, err := f.svc.SetStatus(context.Background(), c.ID, &model.UpdateAppointmentStatusRequest{Status: "Declined", Reason: "vet unavailable"})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusDeclined, updated.Status)
	require.Len(t, f.notifier.notes, 1)
	assert.Equal(t, "Consultation Declined", f.notifier.notes[0].title)
	assert.Equal(t, f.owner.UserID, f.notifier.notes[0].userID)

	_, err = f.svc.SetStatus(context.Background(), c.ID, &model.UpdateAppointmentStatusRequest{Status: "Approved"})
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestMessages_OwnerAndStaffOnly(t *testing.T) {
	f := newFixture(false)
	c := f.submit(t)
	vet := model.Principal{UserID: uuid.New(), Username: "dr.rivera", Role: model.RoleVet}
	stranger := model.Principal{UserID: uuid.New(), Username: "eve", Role: model.RoleUser}

	m, err := f.svc.SaveMessage(context.Background(), f.owner, c.ID, "  hello doc ")
	require.NoError(t, err)
	assert.Equal(t, "hello doc", m.MessageText)
	assert.Equal(t, SenderUser, m.SenderType)

	m, err = f.svc.SaveMessage(context.Background(), vet, c.ID, "hi Ana")
	require.NoError(t, err)
	assert.Equal(t, SenderStaff, m.SenderType)

	_, err = f.svc.SaveMessage(context.Background(), stranger, c.ID, "let me in")
	assert.ErrorIs(t, err, ErrNotAllowed)
	_, err = f.svc.SaveMessage(context.Background(), f.owner, c.ID, strings.Repeat(" ", 3))
	assert.ErrorIs(t, err, ErrEmptyMessage)

	msgs, err := f.svc.ListMessages(context.Background(), vet, c.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestList_ScopedByRole(t *testing.T) {
	f := newFixture(false)
	f.submit(t)
	other := model.Principal{UserID: uuid.New(), Role: model.RoleUser}

	mine, err := f.svc.List(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.List(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	all, err := f.svc.List(context.Background(), model.Principal{Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
