package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"parkfinder/internal/entities"
	apperrors "parkfinder/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report violations under the payload's JSON field names so clients
	// can match them to what they sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// ValidateCreate checks a full create payload. On failure it returns a
// ValidationError listing every violated field, not just the first.
func ValidateCreate(req *entities.CreateParkingLotRequest) error {
	return translate(validate.Struct(req))
}

// ValidateUpdate checks a deep-partial update payload: absent fields pass,
// present fields must satisfy the same constraints as on create.
func ValidateUpdate(req *entities.UpdateParkingLotRequest) error {
	return translate(validate.Struct(req))
}

func translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return apperrors.NewValidation(fields)
}

// fieldPath strips the struct type prefix from the namespace, leaving the
// JSON path, e.g. "location.shape.coordinates".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must not be empty"
		}
		return fmt.Sprintf("must be %s or greater", fe.Param())
	case "len":
		return fmt.Sprintf("must contain exactly %s elements", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}
