package availability

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
	apperrors "github.com/riveravet/clinic-api/pkg/errors"
	"github.com/riveravet/clinic-api/pkg/logger"
	"github.com/riveravet/clinic-api/pkg/timezone"
)

type fakeTx struct {
	locks []string
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error { return fn(nil) }

func (f *fakeTx) AdvisoryLock(ctx context.Context, tx *sqlx.Tx, key string) error {
	f.locks = append(f.locks, key)
	return nil
}

type fakeRepo struct {
	days  []*model.UnavailableDate
	times []*model.UnavailableTime
}

func (f *fakeRepo) FullDaysOnTx(ctx context.Context, tx *sqlx.Tx, date string) ([]*model.UnavailableDate, error) {
	var out []*model.UnavailableDate
	for _, d := range f.days {
		if d.Date == date {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) TimesOnTx(ctx context.Context, tx *sqlx.Tx, date string) ([]*model.UnavailableTime, error) {
	var out []*model.UnavailableTime
	for _, t := range f.times {
		if t.Date == date {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateFullDayTx(ctx context.Context, tx *sqlx.Tx, e *model.UnavailableDate) error {
	e.ID = uuid.New()
	f.days = append(f.days, e)
	return nil
}

func (f *fakeRepo) CreateTimeTx(ctx context.Context, tx *sqlx.Tx, e *model.UnavailableTime) error {
	e.ID = uuid.New()
	f.times = append(f.times, e)
	return nil
}

func (f *fakeRepo) DeleteFullDay(ctx context.Context, id uuid.UUID) error {
	for i, d := range f.days {
		if d.ID == id {
			f.days = append(f.days[:i], f.days[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("unavailable date", nil)
}

func (f *fakeRepo) DeleteTime(ctx context.Context, id uuid.UUID) error {
	for i, t := range f.times {
		if t.ID == id {
			f.times = append(f.times[:i], f.times[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("unavailable time", nil)
}

func (f *fakeRepo) ListFullDays(ctx context.Context, filter model.UnavailabilityFilter) ([]*model.UnavailableDate, error) {
	out := []*model.UnavailableDate{}
	for _, d := range f.days {
		if (filter.UserID == nil || *filter.UserID == d.UserID) && (filter.Role == "" || filter.Role == d.Role) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListTimes(ctx context.Context, filter model.UnavailabilityFilter) ([]*model.UnavailableTime, error) {
	out := []*model.UnavailableTime{}
	for _, t := range f.times {
		if (filter.UserID == nil || *filter.UserID == t.UserID) && (filter.Role == "" || filter.Role == t.Role) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeUsers struct {
	repository.UserRepository
	recipients []*model.Recipient
}

func (f *fakeUsers) ListVerifiedRecipients(ctx context.Context, role string) ([]*model.Recipient, error) {
	return f.recipients, nil
}

type fakeNotifier struct {
	failFor  uuid.UUID
	notified []uuid.UUID
	emails   []string
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, title, kind, details string) error {
	if userID == f.failFor {
		return errors.New("insert failed")
	}
	f.notified = append(f.notified, userID)
	return nil
}

func (f *fakeNotifier) EnqueueEmail(ctx context.Context, tx *sqlx.Tx, to, subject, html string) error {
	f.emails = append(f.emails, to)
	return nil
}

var (
	admin = model.Principal{UserID: uuid.New(), Username: "admin", Role: model.RoleAdmin}
	vet   = model.Principal{UserID: uuid.New(), Username: "dr.rivera", Role: model.RoleVet}
	vet2  = model.Principal{UserID: uuid.New(), Username: "dr.santos", Role: model.RoleVet}
)

func newService() (*Service, *fakeRepo, *fakeTx) {
	repo, tx := &fakeRepo{}, &fakeTx{}
	return NewService(tx, repo, &fakeUsers{}, &fakeNotifier{}, "Rivera Veterinary Clinic", logger.Nop()), repo, tx
}

func TestAdminFullDayBlocksRangesAndVets(t *testing.T) {
	svc, _, tx := newService()
	ctx := context.Background()

	_, err := svc.AddFullDay(ctx, admin, &model.AddFullDayRequest{Date: "2025-07-04", Event: "Holiday"})
	require.NoError(t, err)
	assert.Equal(t, DateLockKey("2025-07-04"), tx.locks[0])

	_, err = svc.AddTimeRange(ctx, vet, &model.AddTimeRangeRequest{Date: "2025-07-04", TimeFrom: "09:00", TimeTo: "10:00", Event: "Surgery"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))

	_, err = svc.AddFullDay(ctx, vet, &model.AddFullDayRequest{Date: "2025-07-04", Event: "Leave"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))
}

func TestAddFullDay_RejectsDuplicateAndExistingRanges(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.AddFullDay(ctx, vet, &model.AddFullDayRequest{Date: "2025-07-05", Event: "Leave"})
	require.NoError(t, err)
	_, err = svc.AddFullDay(ctx, vet, &model.AddFullDayRequest{Date: "2025-07-05", Event: "Leave"})
	assert.ErrorIs(t, err, ErrDuplicateDay)

	_, err = svc.AddTimeRange(ctx, vet2, &model.AddTimeRangeRequest{Date: "2025-07-06", TimeFrom: "13:00", TimeTo: "14:00", Event: "Lunch"})
	require.NoError(t, err)
	_, err = svc.AddFullDay(ctx, vet2, &model.AddFullDayRequest{Date: "2025-07-06", Event: "Leave"})
	assert.ErrorIs(t, err, ErrRangesExist)
}

func TestAddTimeRange_Validation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	cases := []model.AddTimeRangeRequest{
		{Date: "2025-13-01", TimeFrom: "09:00", TimeTo: "10:00"},
		{Date: "2025-07-01", TimeFrom: "9:00", TimeTo: "10:00"},
		{Date: "2025-07-01", TimeFrom: "11:00", TimeTo: "10:00"},
		{Date: "2025-07-01", TimeFrom: "10:00", TimeTo: "10:00"},
	}
	for _, c := range cases {
		c := c
		_, err := svc.AddTimeRange(ctx, vet, &c)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest), "%+v", c)
	}
}

func TestAddTimeRange_AdjacentRangesAllowed(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	_, err := svc.AddTimeRange(ctx, vet, &model.AddTimeRangeRequest{Date: "2025-07-01", TimeFrom: "09:00", TimeTo: "10:00"})
	require.NoError(t, err)
	_, err = svc.AddTimeRange(ctx, vet2, &model.AddTimeRangeRequest{Date: "2025-07-01", TimeFrom: "10:00", TimeTo: "11:00"})
	require.NoError(t, err)
	_, err = svc.AddTimeRange(ctx, vet2, &model.AddTimeRangeRequest{Date: "2025-07-01", TimeFrom: "10:30", TimeTo: "12:00"})
	assert.ErrorIs(t, err, ErrOverlap)
	assert.Len(t, repo.times, 2)
}

func TestAddTimeRange_StoredIntervalsStayDisjoint(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		from := r.Intn(20 * 60)
		to := from + 15 + r.Intn(180)
		if to >= 24*60 {
			continue
		}
		_, _ = svc.AddTimeRange(ctx, vet, &model.AddTimeRangeRequest{
			Date:     "2025-08-01",
			TimeFrom: fmt.Sprintf("%02d:%02d", from/60, from%60),
			TimeTo:   fmt.Sprintf("%02d:%02d", to/60, to%60),
		})
	}

	require.NotEmpty(t, repo.times)
	for i, a := range repo.times {
		for j, b := range repo.times {
			if i == j {
				continue
			}
			af, _ := timezone.ParseClock(a.TimeFrom)
			at, _ := timezone.ParseClock(a.TimeTo)
			bf, _ := timezone.ParseClock(b.TimeFrom)
			bt, _ := timezone.ParseClock(b.TimeTo)
			assert.True(t, at <= bf || af >= bt, "%s-%s intersects %s-%s", a.TimeFrom, a.TimeTo, b.TimeFrom, b.TimeTo)
		}
	}
}

func TestIsBlockedTx(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.AddTimeRange(ctx, vet, &model.AddTimeRangeRequest{Date: "2025-07-01", TimeFrom: "09:00", TimeTo: "10:00"})
	require.NoError(t, err)

	blocked, err := svc.IsBlockedTx(ctx, nil, "2025-07-01", "09:30")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = svc.IsBlockedTx(ctx, nil, "2025-07-01", "10:00")
	require.NoError(t, err)
	assert.False(t, blocked)

	_, err = svc.AddFullDay(ctx, admin, &model.AddFullDayRequest{Date: "2025-07-02", Event: "Holiday"})
	require.NoError(t, err)
	blocked, err = svc.IsBlockedTx(ctx, nil, "2025-07-02", "")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestListProjections(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, _ = svc.AddFullDay(ctx, admin, &model.AddFullDayRequest{Date: "2025-07-04", Event: "Holiday"})
	_, _ = svc.AddTimeRange(ctx, vet, &model.AddTimeRangeRequest{Date: "2025-07-01", TimeFrom: "09:00", TimeTo: "10:00"})

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all.FullDays, 1)
	assert.Len(t, all.Times, 1)

	mine, err := svc.ListForUser(ctx, vet.UserID)
	require.NoError(t, err)
	assert.Empty(t, mine.FullDays)
	assert.Len(t, mine.Times, 1)

	admins, err := svc.ListAdminOnly(ctx)
	require.NoError(t, err)
	assert.Len(t, admins.FullDays, 1)
	assert.Empty(t, admins.Times)
}

func TestRemove(t *testing.T) {
	svc, repo, _ := newService()
	ctx := context.Background()

	d, err := svc.AddFullDay(ctx, vet, &model.AddFullDayRequest{Date: "2025-07-09", Event: "Leave"})
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, d.ID, model.UnavailabilityFullDay))
	assert.Empty(t, repo.days)

	err = svc.Remove(ctx, d.ID, "weekly")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}

func TestNotifyUsers_ContinuesPastFailures(t *testing.T) {
	bad := &model.Recipient{ID: uuid.New(), Email: "bad@example.com"}
	good1 := &model.Recipient{ID: uuid.New(), Email: "ana@example.com", FirstName: "Ana"}
	good2 := &model.Recipient{ID: uuid.New(), Email: "ben@example.com", FirstName: "Ben"}

	notifier := &fakeNotifier{failFor: bad.ID}
	svc := NewService(&fakeTx{}, &fakeRepo{}, &fakeUsers{recipients: []*model.Recipient{good1, bad, good2}}, notifier, "Rivera Veterinary Clinic", logger.Nop())

	report, err := svc.NotifyUsers(context.Background(), admin, &model.NotifyUnavailabilityRequest{Date: "2025-07-04", Reason: "Holiday"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Notified)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, bad.ID, report.Failed[0].UserID)
	assert.Equal(t, []string{"ana@example.com", "ben@example.com"}, notifier.emails)
}
