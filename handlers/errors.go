package handlers

import (
	"context"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/internal/apperr"
	"audiosales/web-gateway/internal/backend"
	"audiosales/web-gateway/internal/feedback"
	"audiosales/web-gateway/internal/recording"
	"audiosales/web-gateway/internal/storage"
	"audiosales/web-gateway/utils"
)

// classify maps package errors onto apperr categories.
func classify(err error) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, backend.ErrNotFound),
		errors.Is(err, recording.ErrNotFound),
		errors.Is(err, recording.ErrNotOwner),
		errors.Is(err, feedback.ErrCommentNotFound),
		errors.Is(err, feedback.ErrSegmentNotFound):
		return apperr.New(apperr.KindNotFound, apperr.KeyNotFound, err)
	case errors.Is(err, feedback.ErrSubmitInProgress):
		return apperr.New(apperr.KindConflict, apperr.KeySubmitInProgress, err)
	case errors.Is(err, feedback.ErrConfirmationRequired):
		return apperr.New(apperr.KindValidation, apperr.KeyConfirmationRequired, err)
	case errors.Is(err, feedback.ErrEmptyComment):
		return apperr.Validation(err)
	case errors.Is(err, feedback.ErrNotCommentAuthor):
		return apperr.New(apperr.KindForbidden, apperr.KeyForbidden, err)
	case errors.Is(err, recording.ErrInvalidTransition):
		return apperr.New(apperr.KindConflict, apperr.KeyRecordingState, err)
	case errors.Is(err, storage.ErrInvalidStartTime):
		return apperr.New(apperr.KindValidation, apperr.KeyInvalidStartTime, err)
	case errors.Is(err, storage.ErrNotConfigured):
		return apperr.Config(err)
	case errors.Is(err, storage.ErrEmptyPath):
		return apperr.New(apperr.KindResource, apperr.KeyAudioUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Upstream(err)
	}
	var se *backend.HTTPStatusError
	var ue *url.Error
	if errors.As(err, &se) || errors.As(err, &ue) {
		return apperr.Upstream(err)
	}
	return apperr.New(apperr.KindInternal, apperr.KeyInternal, err)
}

// fail logs err with the request id and writes the error envelope.
func (h *ApplicationHandler) fail(c *fiber.Ctx, msg string, err error) error {
	err = classify(err)
	entry := h.Logger.WithError(err).WithField("request_id", c.Locals("requestid"))
	if apperr.Status(err) >= fiber.StatusInternalServerError {
		entry.Error(msg)
	} else {
		entry.Warn(msg)
	}
	return utils.RespondWithAppError(c, err)
}
