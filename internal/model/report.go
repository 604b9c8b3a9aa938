package model

import "github.com/google/uuid"

type OrdersSummary struct {
	TotalOrders     int     `json:"total_orders" db:"total_orders"`
	TotalRevenue    float64 `json:"total_revenue" db:"total_revenue"`
	PendingOrders   int     `json:"pending_orders" db:"pending_orders"`
	ShippedOrders   int     `json:"shipped_orders" db:"shipped_orders"`
	DeliveredOrders int     `json:"delivered_orders" db:"delivered_orders"`
	CancelledOrders int     `json:"cancelled_orders" db:"cancelled_orders"`
}

type OrderDetail struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CustomerName  string    `json:"customer_name" db:"customer_name"`
	OrderDate     string    `json:"order_date" db:"order_date"`
	Total         float64   `json:"total" db:"total"`
	Status        string    `json:"status" db:"status"`
	PaymentMethod string    `json:"payment_method" db:"payment_method"`
}

type ProductSold struct {
	ProductName string  `json:"product_name" db:"product_name"`
	Quantity    int     `json:"quantity" db:"quantity"`
	Revenue     float64 `json:"revenue" db:"revenue"`
}

type InventorySummary struct {
	TotalItems    int     `json:"total_items" db:"total_items"`
	TotalStock    int     `json:"total_stock" db:"total_stock"`
	LowStockItems int     `json:"low_stock_items" db:"low_stock_items"`
	OutOfStock    int     `json:"out_of_stock" db:"out_of_stock"`
	StockValue    float64 `json:"stock_value" db:"stock_value"`
}

type StockFlow struct {
	ProductName string `json:"product_name" db:"product_name"`
	StockIn     int    `json:"stock_in" db:"stock_in"`
	StockOut    int    `json:"stock_out" db:"stock_out"`
}

type AppointmentsSummary struct {
	Total     int `json:"total" db:"total"`
	Pending   int `json:"pending" db:"pending"`
	Approved  int `json:"approved" db:"approved"`
	Declined  int `json:"declined" db:"declined"`
	Completed int `json:"completed" db:"completed"`
}

type ServiceUsage struct {
	ServiceType string `json:"service_type" db:"service_type"`
	Count       int    `json:"count" db:"count"`
}

type MonthlyReport struct {
	Month        int                  `json:"month"`
	Year         int                  `json:"year"`
	Orders       *OrdersSummary       `json:"orders"`
	OrderDetails []*OrderDetail       `json:"order_details"`
	ProductsSold []*ProductSold       `json:"products_sold"`
	Inventory    *InventorySummary    `json:"inventory"`
	StockFlow    []*StockFlow         `json:"stock_flow"`
	Appointments *AppointmentsSummary `json:"appointments"`
	Visits       int                  `json:"visits"`
	NewPets      int                  `json:"new_pets"`
	ServiceUsage []*ServiceUsage      `json:"service_usage"`
}

type UserDashboard struct {
	Appointments  int `json:"appointments" db:"appointments"`
	Pets          int `json:"pets" db:"pets"`
	Notifications int `json:"notifications" db:"notifications"`
	Visits        int `json:"visits" db:"visits"`
}

type AdminDashboard struct {
	TodayAppointments   int `json:"today_appointments" db:"today_appointments"`
	PendingAppointments int `json:"pending_appointments" db:"pending_appointments"`
	Pets                int `json:"pets" db:"pets"`
	LowStockCount       int `json:"low_stock_count" db:"low_stock_count"`
	PendingOrders       int `json:"pending_orders" db:"pending_orders"`
	UnreadNotifications int `json:"unread_notifications" db:"unread_notifications"`
}

type ChatRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
