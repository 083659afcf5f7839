package validator

import (
	"errors"
	"fmt"
	"strings"

	"fleetbook/pkg/conflict"
	"fleetbook/pkg/logger"
	"fleetbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator", "error", err)
	}

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

// validateClock accepts HH:MM wall-clock times.
func validateClock(fl validator.FieldLevel) bool {
	_, err := conflict.ParseClock(fl.Field().String())
	return err == nil
}

func (v *ReservationValidator) Validate(reservation *model.Reservation) error {
	return v.structErrors(reservation)
}

func (v *ReservationValidator) ValidateUpdate(update *model.ReservationUpdate) error {
	if err := v.structErrors(update); err != nil {
		return err
	}

	if update.PickupAt != nil && update.ReturnAt != nil && !update.ReturnAt.After(*update.PickupAt) {
		return ValidationErrors{
			ValidationError{
				Field:   "ReturnAt",
				Message: "return_at must be after pickup_at",
			},
		}
	}
	return nil
}

func (v *ReservationValidator) ValidateEdit(req *model.EditRequest) error {
	return v.structErrors(req)
}

func (v *ReservationValidator) structErrors(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid e-mail address", err.Field())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in %s format", err.Field(), err.Param())
		case "clock":
			message = fmt.Sprintf("%s must be a time in HH:MM format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
