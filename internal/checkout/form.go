package checkout

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Skotchmaster/storefront/internal/session"
)

var ErrValidation = errors.New("validation")

type Form struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"customer_phone"`
	City     string `json:"city,omitempty"`
	District string `json:"district,omitempty"`
	Ward     string `json:"ward,omitempty"`
	Street   string `json:"street"`
}

// FormFor pre-fills a form from the signed-in user's profile.
func FormFor(u *session.User) Form {
	if u == nil {
		return Form{}
	}
	return Form{
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		City:     u.City,
		District: u.District,
		Ward:     u.Ward,
		Street:   u.Street,
	}
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (f Form) normalized() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Street = strings.TrimSpace(f.Street)
	return f
}

// Validate returns a *ValidationError listing every failing field.
func (f Form) Validate() error {
	f = f.normalized()
	var errs []FieldError
	add := func(field, msg string) { errs = append(errs, FieldError{Field: field, Message: msg}) }

	switch n := utf8.RuneCountInString(f.Name); {
	case n < 2:
		add("name", "Tên phải có ít nhất 2 ký tự")
	case n > 100:
		add("name", "Tên không được vượt quá 100 ký tự")
	case !lettersAndSpaces(f.Name):
		add("name", "Tên chỉ được chứa chữ cái, dấu tiếng Việt và khoảng trắng")
	}

	switch n := utf8.RuneCountInString(f.Phone); {
	case n < 5:
		add("customer_phone", "Số điện thoại không hợp lệ")
	case n > 11:
		add("customer_phone", "Số điện thoại không vượt quá 11 số")
	}

	switch n := utf8.RuneCountInString(f.Street); {
	case n < 2:
		add("street", "Bắt buộc nhập địa chỉ")
	case n > 300:
		add("street", "Địa chỉ không được vượt quá 300 ký tự")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func lettersAndSpaces(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && !unicode.Is(unicode.Mn, r) {
			return false
		}
	}
	return true
}
