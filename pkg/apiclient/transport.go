package apiclient

type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BrandsResponse struct {
	Brands     []Brand `json:"brands"`
	TotalPages int     `json:"totalPages"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Show bool   `json:"show"`
}

type CategoriesResponse struct {
	Categories []Category `json:"categories"`
	TotalPages int        `json:"totalPages"`
}

type OrderProduct struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
}

type Order struct {
	ID            string         `json:"id"`
	CustomerPhone string         `json:"customer_phone"`
	StaffPhone    string         `json:"staff_phone"`
	Date          string         `json:"date"`
	DeliveryDate  string         `json:"delivery_date"`
	City          string         `json:"city"`
	District      string         `json:"district"`
	Ward          string         `json:"ward"`
	Street        string         `json:"street"`
	Discount      int64          `json:"discount"`
	Price         int64          `json:"price"`
	ShipPrice     int64          `json:"ship_price"`
	Status        string         `json:"status"`
	PaymentStatus int            `json:"payment_status"`
	Products      []OrderProduct `json:"products,omitempty"`
}

type OrdersResponse struct {
	Orders     []Order `json:"orders"`
	TotalPages int     `json:"totalPages"`
}

// OrderQuery mirrors the /order/get query string. Empty fields are sent
// as empty strings and mean no constraint.
type OrderQuery struct {
	Phone         string
	FromDate      string
	ToDate        string
	Status        string
	PaymentStatus string
	Page          int
}

type CreateOrderRequest struct {
	Name          string         `json:"name"`
	Email         string         `json:"email,omitempty"`
	CustomerPhone string         `json:"customer_phone"`
	City          string         `json:"city,omitempty"`
	District      string         `json:"district,omitempty"`
	Ward          string         `json:"ward,omitempty"`
	Street        string         `json:"street"`
	Discount      string         `json:"discount"`
	Price         int64          `json:"price"`
	Products      []OrderProduct `json:"products"`
}

type UpdateOrderRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	ShipPrice     int64  `json:"ship_price"`
}

type UpdateOrderResponse struct {
	Message string `json:"message"`
	Result  Order  `json:"result"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type locationsResponse struct {
	Data []Location `json:"data"`
}
