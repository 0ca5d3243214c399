package catalog

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/velomart-erp/velomart-erp/internal/shared"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("urlslug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

// validateRequest runs struct-level validation and converts the result
// into the aggregated field-error shape.
func validateRequest(req ProductRequest) shared.ValidationErrors {
	var errs shared.ValidationErrors
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs.Add("request", "%v", err)
			return errs
		}
		for _, fe := range verrs {
			errs.Add(fieldName(fe), "%s", validationMessage(fe))
		}
	}
	return errs
}

// fieldName maps the validator namespace onto the JSON request shape,
// e.g. "ProductRequest.Variants[1].URLSlug" -> "variants[1].urlSlug".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	parts := strings.Split(ns, ".")
	for i, p := range parts {
		idx := ""
		if j := strings.Index(p, "["); j >= 0 {
			idx = p[j:]
			p = p[:j]
		}
		parts[i] = lowerFirst(p) + idx
	}
	return strings.Join(parts, ".")
}

func lowerFirst(s string) string {
	switch s {
	case "URLSlug":
		return "urlSlug"
	case "CategoryID":
		return "categoryId"
	case "BrandID":
		return "brandId"
	case "":
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "urlslug":
		return "must contain only letters, digits and hyphens"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}
