package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/pkg/apiclient"
)

// Filter is a conjunction of optional constraints. Zero fields constrain
// nothing.
type Filter struct {
	Phone   string
	From    time.Time
	To      time.Time
	Status  Status
	Payment *PaymentStatus
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be dd/mm/yyyy", ErrValidation, s)
	}
	return t, nil
}

// ParseFilter builds a Filter from the wire form of each field.
func ParseFilter(phone, from, to, status, payment string) (Filter, error) {
	f := Filter{Phone: strings.TrimSpace(phone)}
	var err error
	if f.From, err = ParseDate(from); err != nil {
		return Filter{}, err
	}
	if f.To, err = ParseDate(to); err != nil {
		return Filter{}, err
	}
	if strings.TrimSpace(status) != "" {
		if f.Status, err = ParseStatus(status); err != nil {
			return Filter{}, err
		}
	}
	if strings.TrimSpace(payment) != "" {
		p, err := ParsePaymentStatus(payment)
		if err != nil {
			return Filter{}, err
		}
		f.Payment = &p
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Filter{}, fmt.Errorf("%w: toDate before fromDate", ErrValidation)
	}
	return f, nil
}

func (f Filter) Query(page int) apiclient.OrderQuery {
	q := apiclient.OrderQuery{
		Phone:    f.Phone,
		FromDate: formatDate(f.From),
		ToDate:   formatDate(f.To),
		Status:   string(f.Status),
		Page:     page,
	}
	if f.Payment != nil {
		q.PaymentStatus = f.Payment.String()
	}
	return q
}

// Matches applies the filter locally. Both date bounds are inclusive
// calendar days.
func (f Filter) Matches(o Order) bool {
	if f.Phone != "" && !strings.Contains(o.CustomerPhone, f.Phone) {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Payment != nil && o.Payment != *f.Payment {
		return false
	}
	day := dayOf(o.PlacedAt)
	if !f.From.IsZero() && day < dayOf(f.From) {
		return false
	}
	if !f.To.IsZero() && day > dayOf(f.To) {
		return false
	}
	return true
}

func dayOf(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
