package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	clinicvalidator "github.com/riveravet/clinic-api/pkg/validator"
)

// RegisterValidators installs the clinic tags (ymd, hhmm) on gin's binding
// validator and reports fields by their json or form name.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := clinicvalidator.Register(v); err != nil {
		return err
	}
	v.RegisterTagNameFunc(fieldName)
	return nil
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
