package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Register installs the shared rules as struct tags on v and makes field
// names resolve to their JSON keys.
func Register(v *validator.Validate, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]func(string) bool{
		"cpf":         CPF,
		"cep":         CEP,
		"rg":          RG,
		"phone_br":    Phone,
		"person_name": Name,
		"birthdate":   func(raw string) bool { return BirthDate(raw, now()) },
	}
	for tag, rule := range rules {
		rule := rule
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return rule(fl.Field().String())
		}); err != nil {
			return fmt.Errorf("register %s validation: %w", tag, err)
		}
	}
	return nil
}

// NewValidator returns a validator with the shared rules registered.
func NewValidator(now func() time.Time) *validator.Validate {
	v := validator.New()
	if err := Register(v, now); err != nil {
		panic(err)
	}
	return v
}

// FromValidator converts go-playground validation errors into Errors.
// Other errors yield nil.
func FromValidator(err error) Errors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: messageFor(fe.Tag(), fe.Param())})
	}
	return out
}

func messageFor(tag, param string) string {
	switch tag {
	case "required":
		return msgRequired
	case "email":
		return "e-mail inválido"
	case "cpf":
		return "CPF inválido"
	case "cep":
		return "CEP deve ter 8 dígitos"
	case "rg":
		return "RG deve conter entre 7 e 9 dígitos"
	case "phone_br":
		return "telefone deve ter 10 ou 11 dígitos"
	case "person_name":
		return "use ao menos 2 letras, sem números ou símbolos"
	case "birthdate":
		return "idade deve estar entre 16 e 100 anos"
	case "datetime":
		return "data inválida, use o formato AAAA-MM-DD"
	case "min":
		return fmt.Sprintf("mínimo de %s caracteres", param)
	case "gt":
		return fmt.Sprintf("deve ser maior que %s", param)
	default:
		return "valor inválido"
	}
}
