package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"docbook/pkg/datekey"
	"docbook/pkg/logger"
	"docbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

var (
	// Bookable times fall on the half hour, 24h clock.
	slotTimeRegex = regexp.MustCompile(`^([01]\d|2[0-3]):(00|30)$`)
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

type AppointmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	v := validator.New()

	if err := v.RegisterValidation("datekey", validateDateKey); err != nil {
		log.Fatal("Failed to register 'datekey' validator",
			"error", err,
		)
	}
	if err := v.RegisterValidation("slottime", validateSlotTime); err != nil {
		log.Fatal("Failed to register 'slottime' validator",
			"error", err,
		)
	}

	log.Info("Appointment validator initialized successfully")

	return &AppointmentValidator{
		validate: v,
		logger:   log,
	}
}

func validateDateKey(fl validator.FieldLevel) bool {
	return datekey.Valid(fl.Field().String())
}

func validateSlotTime(fl validator.FieldLevel) bool {
	return slotTimeRegex.MatchString(fl.Field().String())
}

func (v *AppointmentValidator) ValidateBooking(req *model.BookAppointmentRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *AppointmentValidator) ValidateCancel(req *model.CancelAppointmentRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *AppointmentValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "datekey":
			message = fmt.Sprintf("%s must be a DD_MM_YYYY date key", err.Field())
		case "slottime":
			message = fmt.Sprintf("%s must be an HH:MM time on the half hour", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
