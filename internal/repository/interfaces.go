package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/riveravet/clinic-api/internal/model"
)

// Methods that take a *sqlx.Tx run on the database handle when tx is nil.

// All repository interfaces in one file
type (
	// TxManager runs multi-step invariants in a single transaction.
	TxManager interface {
		WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
		// AdvisoryLock takes a transaction scoped lock on key, released at commit or rollback.
		AdvisoryLock(ctx context.Context, tx *sqlx.Tx, key string) error
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetByVerificationToken(ctx context.Context, token string) (*model.User, error)
		GetByUnlockToken(ctx context.Context, token string) (*model.User, error)
		GetByResetToken(ctx context.Context, token string) (*model.User, error)
		UsernameExists(ctx context.Context, username string) (bool, error)
		EmailExists(ctx context.Context, email string) (bool, error)
		// UpdateAuthState persists verification, lockout and token columns.
		UpdateAuthState(ctx context.Context, user *model.User) error
		// IncrementFailedLogins returns the counter after the increment.
		IncrementFailedLogins(ctx context.Context, id uuid.UUID) (int, error)
		LockAccount(ctx context.Context, id uuid.UUID, until time.Time, unlockToken string) error
		UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
		ListVerifiedRecipients(ctx context.Context, role string) ([]*model.Recipient, error)
		List(ctx context.Context) ([]*model.User, error)
		UpdateDetails(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	AppointmentRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error
		CountActiveAtTx(ctx context.Context, tx *sqlx.Tx, date, slotTime string) (int, error)
		CountOnDateTx(ctx context.Context, tx *sqlx.Tx, date string) (int, error)
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// UpdateStatusFromPending reports false when the row exists but is no longer Pending.
		UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, reason *string) (bool, error)
		SetCompletion(ctx context.Context, id uuid.UUID, done bool) error
		ListBookedTimes(ctx context.Context, date string) ([]string, error)
		ListFullyBookedDates(ctx context.Context, threshold int) ([]string, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error)
		ListByDate(ctx context.Context, date string) ([]*model.Appointment, error)
		ListFrom(ctx context.Context, date string) ([]*model.Appointment, error)
		ListRecent(ctx context.Context, limit int) ([]*model.Appointment, error)
	}

	AvailabilityRepository interface {
		FullDaysOnTx(ctx context.Context, tx *sqlx.Tx, date string) ([]*model.UnavailableDate, error)
		TimesOnTx(ctx context.Context, tx *sqlx.Tx, date string) ([]*model.UnavailableTime, error)
		CreateFullDayTx(ctx context.Context, tx *sqlx.Tx, entry *model.UnavailableDate) error
		CreateTimeTx(ctx context.Context, tx *sqlx.Tx, entry *model.UnavailableTime) error
		DeleteFullDay(ctx context.Context, id uuid.UUID) error
		DeleteTime(ctx context.Context, id uuid.UUID) error
		ListFullDays(ctx context.Context, filter model.UnavailabilityFilter) ([]*model.UnavailableDate, error)
		ListTimes(ctx context.Context, filter model.UnavailabilityFilter) ([]*model.UnavailableTime, error)
	}

	InventoryRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, item *model.InventoryItem) error
		Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
		// UpdateDetailsTx updates everything except stock, which only moves through the ledger.
		UpdateDetailsTx(ctx context.Context, tx *sqlx.Tx, item *model.InventoryItem) error
		DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
		List(ctx context.Context) ([]*model.InventoryItem, error)
	}

	StockRepository interface {
		GetForUpdate(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID) (*model.InventoryItem, error)
		SetStock(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, stock int) error
		InsertMovement(ctx context.Context, tx *sqlx.Tx, movement *model.StockMovement) error
		ListMovements(ctx context.Context, productID uuid.UUID) ([]*model.StockMovement, error)
		ListLowStock(ctx context.Context, tx *sqlx.Tx, threshold int) ([]*model.InventoryItem, error)
	}

	OrderRepository interface {
		CreateTx(ctx context.Context, tx *sqlx.Tx, order *model.Order) error
		CreateItemTx(ctx context.Context, tx *sqlx.Tx, item *model.OrderItem) error
		Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
		GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Order, error)
		GetByIntent(ctx context.Context, tx *sqlx.Tx, intentID string) (*model.Order, error)
		ItemsTx(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID) ([]*model.OrderItem, error)
		UpdatePayment(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, paymentStatus string, intentID *string) error
		// RequestCancel reports false when the order is no longer Pending.
		RequestCancel(ctx context.Context, id uuid.UUID, reason *string) (bool, error)
		TransitionStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.OrderStatus) (bool, error)
		MarkCancelled(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, refundStatus string, refundID *string) error
		// MarkRefunded records a captured payment that was refunded in full.
		MarkRefunded(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, refundID string) error
		ListAll(ctx context.Context) ([]*model.Order, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Order, error)
		ListPurchases(ctx context.Context, userID uuid.UUID) ([]*model.Purchase, error)
	}

	NotificationRepository interface {
		CreateUserTx(ctx context.Context, tx *sqlx.Tx, n *model.UserNotification) error
		ListUser(ctx context.Context, userID uuid.UUID) ([]*model.UserNotification, error)
		DeleteUser(ctx context.Context, id uuid.UUID) error
		CreateAdminTx(ctx context.Context, tx *sqlx.Tx, n *model.AdminNotification) error
		// AdminAlertExistsSince reports whether an alert of kind for productID was raised at or after since.
		AdminAlertExistsSince(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, kind string, since time.Time) (bool, error)
		ListAdmin(ctx context.Context, userID uuid.UUID) ([]*model.AdminNotification, error)
		MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
		MarkAllRead(ctx context.Context, userID uuid.UUID) error
		Clear(ctx context.Context, notificationID, userID uuid.UUID) error
		UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	}

	ConsultationRepository interface {
		Create(ctx context.Context, c *model.Consultation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		List(ctx context.Context) ([]*model.Consultation, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Consultation, error)
		UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, reason *string) (bool, error)
		CreateMessage(ctx context.Context, m *model.ConsultMessage) error
		ListMessages(ctx context.Context, consultationID uuid.UUID) ([]*model.ConsultMessage, error)
	}

	MedicalRepository interface {
		CreateRecord(ctx context.Context, r *model.PetRecord) error
		GetRecord(ctx context.Context, id uuid.UUID) (*model.PetRecord, error)
		UpdateRecord(ctx context.Context, r *model.PetRecord) error
		ListRecords(ctx context.Context) ([]*model.PetRecord, error)
		ListRecordsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.PetRecord, error)
		CreateVisit(ctx context.Context, v *model.Visit) error
		UpdateVisit(ctx context.Context, v *model.Visit) error
		ListVisits(ctx context.Context, recordID uuid.UUID) ([]*model.Visit, error)
	}

	ReportRepository interface {
		OrdersSummary(ctx context.Context, from, to string) (*model.OrdersSummary, error)
		OrderDetails(ctx context.Context, from, to string) ([]*model.OrderDetail, error)
		ProductsSold(ctx context.Context, from, to string) ([]*model.ProductSold, error)
		InventorySummary(ctx context.Context, lowStockThreshold int) (*model.InventorySummary, error)
		StockFlow(ctx context.Context, from, to string) ([]*model.StockFlow, error)
		AppointmentsSummary(ctx context.Context, from, to string) (*model.AppointmentsSummary, error)
		VisitCount(ctx context.Context, from, to string) (int, error)
		NewPetCount(ctx context.Context, from, to string) (int, error)
		ServiceUsage(ctx context.Context, from, to string) ([]*model.ServiceUsage, error)
		UserDashboard(ctx context.Context, userID uuid.UUID) (*model.UserDashboard, error)
		AdminDashboard(ctx context.Context, userID uuid.UUID, today string, lowStockThreshold int) (*model.AdminDashboard, error)
	}

	CatalogRepository interface {
		ListServices(ctx context.Context) ([]*model.ClinicService, error)
	}

	PetRepository interface {
		Create(ctx context.Context, pet *model.Pet) error
		Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
		Update(ctx context.Context, pet *model.Pet) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Pet, error)
		ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.Pet, error)
		ListOwners(ctx context.Context) ([]*model.PetOwner, error)
	}

	ContentRepository interface {
		CreateAnnouncement(ctx context.Context, a *model.Announcement) error
		GetAnnouncement(ctx context.Context, id uuid.UUID) (*model.Announcement, error)
		UpdateAnnouncement(ctx context.Context, a *model.Announcement) error
		DeleteAnnouncement(ctx context.Context, id uuid.UUID) error
		// ListAnnouncements returns every announcement when activeOn is empty,
		// otherwise those posted on or before activeOn and not yet expired.
		ListAnnouncements(ctx context.Context, activeOn string) ([]*model.Announcement, error)
		CreateFeature(ctx context.Context, f *model.Feature) error
		UpdateFeature(ctx context.Context, f *model.Feature) error
		DeleteFeature(ctx context.Context, id uuid.UUID) error
		ListFeatures(ctx context.Context) ([]*model.Feature, error)
	}

	ActivityRepository interface {
		Create(ctx context.Context, entry *model.ActivityLog) error
		List(ctx context.Context, filter model.ActivityFilter) ([]*model.ActivityLog, error)
	}

	ReceiptRepository interface {
		// CreateTx inserts the receipt and its items.
		CreateTx(ctx context.Context, tx *sqlx.Tx, receipt *model.Receipt) error
		GetByRef(ctx context.Context, ref string) (*model.Receipt, error)
		GetByOrderTx(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID) (*model.Receipt, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
