package domain

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgProfileNotNumeric    = "El responsable debe ser un ID numérico."
	MsgNombreRequired       = "El nombre es obligatorio."
	MsgDireccionRequired    = "Selecciona una dirección válida."
	MsgDepartamentoRequired = "Selecciona un departamento válido."
	msgFieldInvalid         = "Campo inválido."
)

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidationError is a local failure: the request never leaves the process.
// Fields maps the json field name to a user-facing message. Message is a
// form-level failure shown as feedback, with no per-field marks.
type ValidationError struct {
	Fields  map[string]string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid form: " + strings.Join(keys, ", ")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// validateStruct runs the struct tags of s and maps failing fields through messages.
func validateStruct(s any, messages map[string]string) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()]
		if !ok {
			msg = msgFieldInvalid
		}
		fields[fe.Field()] = msg
	}
	return &ValidationError{Fields: fields}
}
