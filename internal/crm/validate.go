package crm

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/1AaliyahAdams1/Custom-CRM-sub004/internal/table"
)

var (
	phonePattern   = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)
	websitePattern = regexp.MustCompile(`^(?i)(https?://)?([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}(:[0-9]+)?(/\S*)?$`)
)

// AccountInput is the validated shape of an account payload.
type AccountInput struct {
	AccountName       string   `json:"AccountName" validate:"required,max=255"`
	Email             string   `json:"Email" validate:"omitempty,email"`
	Phone             string   `json:"Phone" validate:"omitempty,phone"`
	Website           string   `json:"Website" validate:"omitempty,website"`
	City              string   `json:"City" validate:"max=100"`
	Country           string   `json:"Country" validate:"max=100"`
	NumberOfEmployees *float64 `json:"NumberOfEmployees" validate:"omitempty,gte=0"`
	AnnualRevenue     *float64 `json:"AnnualRevenue" validate:"omitempty,gte=0"`
}

// ValidationErrors maps a payload field to what is wrong with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + " " + v[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("website", func(fl validator.FieldLevel) bool {
		return websitePattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateAccount checks an account payload. With partial set, fields that
// are absent from the payload are not required.
func ValidateAccount(payload map[string]any, partial bool) error {
	in := AccountInput{
		AccountName: text(payload, "AccountName"),
		Email:       text(payload, "Email"),
		Phone:       text(payload, "Phone"),
		Website:     text(payload, "Website"),
		City:        text(payload, "City"),
		Country:     text(payload, "Country"),
	}

	errs := ValidationErrors{}
	var err error
	if in.NumberOfEmployees, err = number(payload, "NumberOfEmployees"); err != nil {
		errs["NumberOfEmployees"] = "must be a number"
	}
	if in.AnnualRevenue, err = number(payload, "AnnualRevenue"); err != nil {
		errs["AnnualRevenue"] = "must be a number"
	}

	var verr error
	if _, present := payload["AccountName"]; partial && !present {
		verr = validate.StructExcept(in, "AccountName")
	} else {
		verr = validate.Struct(in)
	}

	var fieldErrs validator.ValidationErrors
	if verr != nil && !errors.As(verr, &fieldErrs) {
		return fmt.Errorf("validating account: %w", verr)
	}
	for _, fe := range fieldErrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = describe(fe)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a valid phone number"
	case "website":
		return "must be a valid website address"
	case "gte":
		return "must not be negative"
	default:
		return "is invalid"
	}
}

func text(payload map[string]any, key string) string {
	return strings.TrimSpace(table.Stringify(payload[key]))
}

func number(payload map[string]any, key string) (*float64, error) {
	v, ok := payload[key]
	if !ok || table.IsEmpty(v) {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		return &n, nil
	case int:
		f := float64(n)
		return &f, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(table.Stringify(v)), 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
