package order

// CustomerView is what a signed-in customer sees in order tracking.
type CustomerView struct {
	ID           string `json:"id"`
	PlacedAt     string `json:"date"`
	Phone        string `json:"customer_phone"`
	Address      string `json:"address"`
	Items        []Item `json:"products"`
	Subtotal     int64  `json:"price"`
	ShipPrice    int64  `json:"ship_price"`
	Total        int64  `json:"total"`
	Status       Status `json:"status"`
	StatusLabel  string `json:"status_label"`
	PaymentLabel string `json:"payment_label"`
}

type AdminView struct {
	ID            string        `json:"id"`
	CustomerPhone string        `json:"customer_phone"`
	StaffPhone    string        `json:"staff_phone"`
	PlacedAt      string        `json:"date"`
	DeliveryDate  string        `json:"delivery_date"`
	Address       Address       `json:"address"`
	Items         []Item        `json:"products"`
	Subtotal      int64         `json:"price"`
	ShipPrice     int64         `json:"ship_price"`
	Discount      int64         `json:"discount"`
	Total         int64         `json:"total"`
	Status        Status        `json:"status"`
	StatusLabel   string        `json:"status_label"`
	Payment       PaymentStatus `json:"payment_status"`
	PaymentLabel  string        `json:"payment_label"`
	Next          []Status      `json:"next_statuses"`
}

func NewCustomerView(o Order) CustomerView {
	return CustomerView{
		ID:           o.ID,
		PlacedAt:     formatDate(o.PlacedAt),
		Phone:        o.CustomerPhone,
		Address:      o.Address.Line(),
		Items:        o.Items,
		Subtotal:     o.Subtotal,
		ShipPrice:    o.ShipPrice,
		Total:        o.Total(),
		Status:       o.Status,
		StatusLabel:  o.Status.Label(),
		PaymentLabel: o.Payment.Label(),
	}
}

// CustomerViews keeps only the orders placed with phone.
func CustomerViews(orders []Order, phone string) []CustomerView {
	out := make([]CustomerView, 0, len(orders))
	if phone == "" {
		return out
	}
	for _, o := range orders {
		if o.CustomerPhone == phone {
			out = append(out, NewCustomerView(o))
		}
	}
	return out
}

func NewAdminView(o Order) AdminView {
	v := AdminView{
		ID:            o.ID,
		CustomerPhone: o.CustomerPhone,
		StaffPhone:    o.StaffPhone,
		PlacedAt:      formatDate(o.PlacedAt),
		DeliveryDate:  formatDate(o.DeliveredAt),
		Address:       o.Address,
		Items:         o.Items,
		Subtotal:      o.Subtotal,
		ShipPrice:     o.ShipPrice,
		Discount:      o.Discount,
		Total:         o.Total(),
		Status:        o.Status,
		StatusLabel:   o.Status.Label(),
		Payment:       o.Payment,
		PaymentLabel:  o.Payment.Label(),
		Next:          []Status{},
	}
	for _, st := range Statuses() {
		if CanTransition(o.Status, st) {
			v.Next = append(v.Next, st)
		}
	}
	return v
}

func AdminViews(orders []Order) []AdminView {
	out := make([]AdminView, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewAdminView(o))
	}
	return out
}
