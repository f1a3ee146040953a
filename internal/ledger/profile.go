package ledger

import (
	"errors"
	"fmt"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"presenze/internal/core"
)

type displayName struct {
	Name string `validate:"min=3,max=20,letterspace"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func nameValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Registration only fails on an empty tag or nil func.
		_ = v.RegisterValidation("letterspace", func(fl validator.FieldLevel) bool {
			for _, r := range fl.Field().String() {
				if r != ' ' && !unicode.IsLetter(r) {
					return false
				}
			}
			return true
		})
		validate = v
	})
	return validate
}

// ValidateDisplayName checks the 3-20 letters-and-spaces rule.
func ValidateDisplayName(name string) error {
	err := nameValidator().Struct(displayName{Name: name})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: failed %q", core.ErrInvalidName, verrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", core.ErrInvalidName, err)
}
