package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/quizdeck/identity/internal/models"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("role", validateRole)
	validate.RegisterTagNameFunc(useJSONTagNames)
	return validate
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Role fields are validated once here at the boundary, handlers and services
// work with the parsed models.Role afterwards
func validateRole(fl validator.FieldLevel) bool {
	_, err := models.ParseRole(fl.Field().String())
	return err == nil
}
