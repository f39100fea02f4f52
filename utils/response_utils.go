package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/internal/apperr"
)

var validate = validator.New()

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Status  string   `json:"status" example:"error"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// SuccessResponse is the JSON body of every successful request.
type SuccessResponse struct {
	Status  string      `json:"status" example:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithError sends a JSON error response.
func RespondWithError(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(ErrorResponse{
		Status:  "error",
		Message: message,
	})
}

// RespondWithAppError maps err to its status and localized message.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, apperr.Status(err), apperr.Message(err, c.Get(fiber.HeaderAcceptLanguage)))
}

// RespondWithValidationErrors sends 400 with one line per failed field.
func RespondWithValidationErrors(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Status:  "error",
		Message: apperr.Text(apperr.KeyValidation, c.Get(fiber.HeaderAcceptLanguage)),
		Errors:  FormatValidationErrors(err),
	})
}

// RespondWithJSON sends a JSON success response.
func RespondWithJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(SuccessResponse{
		Status: "success",
		Data:   data,
	})
}

// RespondWithMessage sends a JSON success response carrying only a message.
func RespondWithMessage(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(SuccessResponse{
		Status:  "success",
		Message: message,
	})
}

// ValidateStruct runs the struct's validate tags.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err == nil {
			return nil
		}
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		element := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			element = fmt.Sprintf("%s (value: %s)", element, fe.Param())
		}
		out = append(out, element)
	}
	return out
}

// SanitizeInput trims surrounding whitespace from user input.
func SanitizeInput(input string) string {
	return strings.TrimSpace(input)
}
