package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/wanderlust/wanderlust/util/common"
	"github.com/wanderlust/wanderlust/web/entity"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "float", func(fl validator.FieldLevel) bool {
			_, ok := entity.ParseNumber(fl.Field().String())
			return ok
		})
		mustRegister(v, "integer", func(fl validator.FieldLevel) bool {
			n, ok := entity.ParseNumber(fl.Field().String())
			return ok && n == math.Trunc(n)
		})
		mustRegister(v, "ge", func(fl validator.FieldLevel) bool {
			return compareNumber(fl, func(n, limit float64) bool { return n >= limit })
		})
		mustRegister(v, "le", func(fl validator.FieldLevel) bool {
			return compareNumber(fl, func(n, limit float64) bool { return n <= limit })
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

func compareNumber(fl validator.FieldLevel, cmp func(n, limit float64) bool) bool {
	n, ok := entity.ParseNumber(fl.Field().String())
	if !ok {
		return false
	}
	limit, err := strconv.ParseFloat(fl.Param(), 64)
	if err != nil {
		return false
	}
	return cmp(n, limit)
}

// ValidateListing checks a listing payload and returns the first violation
// as a ValidationError.
func ValidateListing(form *entity.ListingForm) error {
	if form == nil {
		return common.NewValidationError(`"listing" is required`)
	}
	return validateStruct(form)
}

// ValidateReview checks a review payload and returns the first violation
// as a ValidationError.
func ValidateReview(form *entity.ReviewForm) error {
	if form == nil {
		return common.NewValidationError(`"review" is required`)
	}
	return validateStruct(form)
}

func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return common.NewValidationError(violationMessage(fieldErrs[0]))
	}
	return common.NewUnexpectedError(err)
}

func violationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "min":
		return fmt.Sprintf("%q is not allowed to be empty", field)
	case "float":
		return fmt.Sprintf("%q must be a number", field)
	case "integer":
		return fmt.Sprintf("%q must be an integer", field)
	case "ge":
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "le":
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%q must be a valid uri", field)
	}
	return fmt.Sprintf("%q is invalid", field)
}
