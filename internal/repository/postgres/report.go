package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/internal/repository"
)

// Ranges are half-open [from, to) over calendar dates.

type reportRepository struct {
	BaseRepository
}

func NewReportRepository(base BaseRepository) repository.ReportRepository {
	return &reportRepository{base}
}

func (r *reportRepository) OrdersSummary(ctx context.Context, from, to string) (*model.OrdersSummary, error) {
	query := `
		SELECT COUNT(*) AS total_orders,
			COALESCE(SUM(total) FILTER (WHERE status <> 'Cancelled'), 0) AS total_revenue,
			COUNT(*) FILTER (WHERE status = 'Pending') AS pending_orders,
			COUNT(*) FILTER (WHERE status = 'Shipped') AS shipped_orders,
			COUNT(*) FILTER (WHERE status = 'Delivered') AS delivered_orders,
			COUNT(*) FILTER (WHERE status = 'Cancelled') AS cancelled_orders
		FROM orders
		WHERE order_date >= $1::date AND order_date < $2::date
	`
	var s model.OrdersSummary
	if err := r.db.GetContext(ctx, &s, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to summarize orders: %w", err)
	}
	return &s, nil
}

func (r *reportRepository) OrderDetails(ctx context.Context, from, to string) ([]*model.OrderDetail, error) {
	query := `
		SELECT id, customer_name, to_char(order_date, 'YYYY-MM-DD') AS order_date, total, status, payment_method
		FROM orders
		WHERE order_date >= $1::date AND order_date < $2::date
		ORDER BY order_date ASC, created_at ASC
	`
	details := []*model.OrderDetail{}
	if err := r.db.SelectContext(ctx, &details, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list order details: %w", err)
	}
	return details, nil
}

func (r *reportRepository) ProductsSold(ctx context.Context, from, to string) ([]*model.ProductSold, error) {
	query := `
		SELECT oi.product_name, SUM(oi.quantity) AS quantity, SUM(oi.quantity * oi.unit_price) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status <> 'Cancelled' AND o.order_date >= $1::date AND o.order_date < $2::date
		GROUP BY oi.product_name
		ORDER BY quantity DESC
	`
	sold := []*model.ProductSold{}
	if err := r.db.SelectContext(ctx, &sold, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list products sold: %w", err)
	}
	return sold, nil
}

func (r *reportRepository) InventorySummary(ctx context.Context, lowStockThreshold int) (*model.InventorySummary, error) {
	query := `
		SELECT COUNT(*) AS total_items,
			COALESCE(SUM(stock), 0) AS total_stock,
			COUNT(*) FILTER (WHERE stock <= $1) AS low_stock_items,
			COUNT(*) FILTER (WHERE stock = 0) AS out_of_stock,
			COALESCE(SUM(stock * price), 0) AS stock_value
		FROM inventory_items
	`
	var s model.InventorySummary
	if err := r.db.GetContext(ctx, &s, query, lowStockThreshold); err != nil {
		return nil, fmt.Errorf("failed to summarize inventory: %w", err)
	}
	return &s, nil
}

func (r *reportRepository) StockFlow(ctx context.Context, from, to string) ([]*model.StockFlow, error) {
	query := `
		SELECT i.name AS product_name, SUM(m.stock_in) AS stock_in, SUM(m.stock_out) AS stock_out
		FROM stock_movements m
		JOIN inventory_items i ON i.id = m.product_id
		WHERE m.created_at >= $1::date AND m.created_at < $2::date
		GROUP BY i.name
		ORDER BY i.name ASC
	`
	flow := []*model.StockFlow{}
	if err := r.db.SelectContext(ctx, &flow, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list stock flow: %w", err)
	}
	return flow, nil
}

func (r *reportRepository) AppointmentsSummary(ctx context.Context, from, to string) (*model.AppointmentsSummary, error) {
	query := `
		SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'Pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'Approved') AS approved,
			COUNT(*) FILTER (WHERE status = 'Declined') AS declined,
			COUNT(*) FILTER (WHERE is_done) AS completed
		FROM appointments
		WHERE slot_date >= $1::date AND slot_date < $2::date
	`
	var s model.AppointmentsSummary
	if err := r.db.GetContext(ctx, &s, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to summarize appointments: %w", err)
	}
	return &s, nil
}

func (r *reportRepository) VisitCount(ctx context.Context, from, to string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM visit_history WHERE visit_date >= $1::date AND visit_date < $2::date`, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return n, nil
}

func (r *reportRepository) NewPetCount(ctx context.Context, from, to string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM pet_medical_records WHERE created_at >= $1::date AND created_at < $2::date`, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to count pets: %w", err)
	}
	return n, nil
}

func (r *reportRepository) ServiceUsage(ctx context.Context, from, to string) ([]*model.ServiceUsage, error) {
	query := `
		SELECT service_type, COUNT(*) AS count
		FROM visit_history
		WHERE visit_date >= $1::date AND visit_date < $2::date
		GROUP BY service_type
		ORDER BY count DESC, service_type ASC
	`
	usage := []*model.ServiceUsage{}
	if err := r.db.SelectContext(ctx, &usage, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list service usage: %w", err)
	}
	return usage, nil
}

func (r *reportRepository) UserDashboard(ctx context.Context, userID uuid.UUID) (*model.UserDashboard, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM appointments WHERE user_id = $1) AS appointments,
			(SELECT COUNT(*) FROM pet_medical_records WHERE owner_user_id = $1) AS pets,
			(SELECT COUNT(*) FROM user_notifications WHERE user_id = $1) AS notifications,
			(SELECT COUNT(*) FROM visit_history v
				JOIN pet_medical_records p ON p.id = v.medical_record_id
				WHERE p.owner_user_id = $1) AS visits
	`
	var d model.UserDashboard
	if err := r.db.GetContext(ctx, &d, query, userID); err != nil {
		return nil, fmt.Errorf("failed to load user dashboard: %w", err)
	}
	return &d, nil
}

func (r *reportRepository) AdminDashboard(ctx context.Context, userID uuid.UUID, today string, lowStockThreshold int) (*model.AdminDashboard, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM appointments WHERE slot_date = $2::date) AS today_appointments,
			(SELECT COUNT(*) FROM appointments WHERE status = 'Pending' AND slot_date >= $2::date) AS pending_appointments,
			(SELECT COUNT(*) FROM pet_medical_records) AS pets,
			(SELECT COUNT(*) FROM inventory_items WHERE stock <= $3) AS low_stock_count,
			(SELECT COUNT(*) FROM orders WHERE status = 'Pending') AS pending_orders,
			(SELECT COUNT(*) FROM admin_notifications n
				WHERE NOT EXISTS (SELECT 1 FROM admin_notification_reads rd WHERE rd.notification_id = n.id AND rd.user_id = $1)
				AND NOT EXISTS (SELECT 1 FROM admin_notification_clears c WHERE c.notification_id = n.id AND c.user_id = $1)
			) AS unread_notifications
	`
	var d model.AdminDashboard
	if err := r.db.GetContext(ctx, &d, query, userID, today, lowStockThreshold); err != nil {
		return nil, fmt.Errorf("failed to load admin dashboard: %w", err)
	}
	return &d, nil
}
