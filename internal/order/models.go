package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/pkg/apiclient"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
)

// DateLayout is the dd/mm/yyyy form used by date filters and displays.
const DateLayout = "02/01/2006"

type Item struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type Address struct {
	City     string `json:"city"`
	District string `json:"district"`
	Ward     string `json:"ward"`
	Street   string `json:"street"`
}

// Line joins the address parts the way receipts print them.
func (a Address) Line() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.City, a.District, a.Ward, a.Street} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Order struct {
	ID            string
	CustomerPhone string
	StaffPhone    string
	PlacedAt      time.Time
	DeliveredAt   time.Time
	Address       Address
	Items         []Item
	Subtotal      int64
	ShipPrice     int64
	Discount      int64
	Status        Status
	Payment       PaymentStatus
}

func (o Order) Total() int64 {
	return o.Subtotal + o.ShipPrice - o.Discount
}

func FromWire(w apiclient.Order) (Order, error) {
	st, err := ParseStatus(w.Status)
	if err != nil {
		return Order{}, fmt.Errorf("order %s: %w", w.ID, err)
	}
	o := Order{
		ID:            w.ID,
		CustomerPhone: w.CustomerPhone,
		StaffPhone:    w.StaffPhone,
		PlacedAt:      parseTime(w.Date),
		DeliveredAt:   parseTime(w.DeliveryDate),
		Address:       Address{City: w.City, District: w.District, Ward: w.Ward, Street: w.Street},
		Subtotal:      w.Price,
		ShipPrice:     w.ShipPrice,
		Discount:      w.Discount,
		Status:        st,
		Payment:       Unpaid,
	}
	if w.PaymentStatus == int(Paid) {
		o.Payment = Paid
	}
	for _, p := range w.Products {
		o.Items = append(o.Items, Item{ProductID: p.ProductID, ProductName: p.ProductName, Quantity: p.Quantity})
	}
	return o, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02", DateLayout}

// parseTime returns a UTC instant, or zero for empty and unparseable input.
func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
