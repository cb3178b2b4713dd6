package cart

// Product is the subset of a catalog product needed to put it in the cart.
type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Image string `json:"image"`
}

type Line struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image"`
}

func (l Line) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// envelope is the persisted form: {"products": [...]}.
type envelope struct {
	Products []Line `json:"products"`
}

type Summary struct {
	Lines []Line `json:"products"`
	Count int    `json:"count"`
	Total int64  `json:"total"`
}

func Summarize(lines []Line) Summary {
	s := Summary{Lines: lines}
	if s.Lines == nil {
		s.Lines = []Line{}
	}
	for _, l := range lines {
		s.Count += l.Quantity
		s.Total += l.Subtotal()
	}
	return s
}
