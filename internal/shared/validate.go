package shared

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs validator tags on a request struct and folds the first
// failure into the ErrValidation taxonomy.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return Validationf("field %s failed on %s", f.Field(), f.Tag())
	}
	return Validationf("%v", err)
}
