package order

import (
	"fmt"
	"strconv"
	"strings"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
)

func Statuses() []Status {
	return []Status{StatusWaiting, StatusProcessing, StatusDelivering, StatusDelivered, StatusCanceled}
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(strings.ToLower(s)))
	switch st {
	case StatusWaiting, StatusProcessing, StatusDelivering, StatusDelivered, StatusCanceled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, s)
}

func (s Status) Label() string {
	switch s {
	case StatusWaiting:
		return "Đang chờ"
	case StatusProcessing:
		return "Đang xử lý"
	case StatusDelivering:
		return "Đang giao"
	case StatusDelivered:
		return "Đã giao"
	case StatusCanceled:
		return "Đã huỷ"
	default:
		return ""
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// CanTransition reports whether the forward workflow allows from -> to.
// The backend does not enforce it; views use it to order their choices.
func CanTransition(from, to Status) bool {
	if from == to || from.IsTerminal() {
		return false
	}
	if to == StatusCanceled {
		return true
	}
	return rank(to) > rank(from)
}

func rank(s Status) int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusProcessing:
		return 1
	case StatusDelivering:
		return 2
	case StatusDelivered:
		return 3
	default:
		return -1
	}
}

// PaymentStatus travels as a digit: "0" unpaid, "1" paid.
type PaymentStatus int

const (
	Unpaid PaymentStatus = 0
	Paid   PaymentStatus = 1
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || (n != int(Unpaid) && n != int(Paid)) {
		return 0, fmt.Errorf("%w: unknown payment status %q", ErrValidation, s)
	}
	return PaymentStatus(n), nil
}

func (p PaymentStatus) String() string {
	return strconv.Itoa(int(p))
}

func (p PaymentStatus) Label() string {
	if p == Paid {
		return "Đã thanh toán"
	}
	return "Chưa thanh toán"
}
