package handler

import "github.com/supplyhub/supplier-console/internal/pkg/validate"

// echoValidator lets Echo call c.Validate(req).
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface.
func (echoValidator) Validate(i any) error {
	return validate.Struct(i)
}
