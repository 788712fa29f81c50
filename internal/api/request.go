package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidBody = errors.New("invalid request body")

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// validationError lists the fields that failed their tags.
type validationError struct {
	fields []string
}

func (e validationError) Error() string {
	return "invalid fields: " + strings.Join(e.fields, ", ")
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return check(dst)
}

func check(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	fields := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag())
	}
	return validationError{fields: fields}
}
