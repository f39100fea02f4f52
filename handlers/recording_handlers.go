package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/internal/apperr"
	"audiosales/web-gateway/internal/recording"
	"audiosales/web-gateway/middleware"
	"audiosales/web-gateway/utils"
)

// AudioLevelHeader optionally carries the client's current input level (0..1).
const AudioLevelHeader = "X-Audio-Level"

// StartRecordingRequest is the body of POST /recordings.
type StartRecordingRequest struct {
	MeetingID int `json:"meeting_id" validate:"gte=0"`
}

// StartRecording godoc
// @Summary Start a recording
// @Description Opens a recording session; the browser then posts its audio chunks to it.
// @Tags recordings
// @Accept json
// @Produce json
// @Param request body StartRecordingRequest false "Meeting to record"
// @Success 201 {object} utils.SuccessResponse "Recording status"
// @Failure 404 {object} utils.ErrorResponse "Meeting not found"
// @Router /recordings [post]
func (h *ApplicationHandler) StartRecording(c *fiber.Ctx) error {
	req := new(StartRecordingRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return utils.RespondWithValidationErrors(c, err)
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondWithValidationErrors(c, err)
	}

	userID := middleware.CurrentSession(c).UserID()
	if req.MeetingID > 0 {
		meeting, err := h.authorizedMeeting(c, req.MeetingID)
		if err != nil {
			return h.fail(c, "Fetching meeting failed", err)
		}
		if meeting.UserID != userID {
			return h.fail(c, "Recording for another user's meeting", apperr.New(apperr.KindForbidden, apperr.KeyForbidden, nil))
		}
	}

	rec, err := h.Recordings.Begin(req.MeetingID, userID)
	if err != nil {
		return h.fail(c, "Starting recording failed", err)
	}
	h.Logger.WithField("recording_id", rec.ID()).WithField("meeting_id", req.MeetingID).Info("Recording session opened")
	return utils.RespondWithJSON(c, fiber.StatusCreated, rec.Status())
}

// PushRecordingChunk godoc
// @Summary Append audio
// @Description Appends one encoded audio chunk. Chunks sent while paused are discarded.
// @Tags recordings
// @Accept application/octet-stream
// @Produce json
// @Param id path string true "Recording ID"
// @Param X-Audio-Level header number false "Input level between 0 and 1"
// @Success 202 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse "Recording not capturing"
// @Router /recordings/{id}/chunks [post]
func (h *ApplicationHandler) PushRecordingChunk(c *fiber.Ctx) error {
	var level *float64
	if raw := c.Get(AudioLevelHeader); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return h.fail(c, "Invalid audio level", apperr.Validation(err))
		}
		level = &v
	}
	// fasthttp reuses the body buffer after the handler returns
	chunk := append([]byte(nil), c.Body()...)

	userID := middleware.CurrentSession(c).UserID()
	if err := h.Recordings.Push(c.UserContext(), c.Params("id"), userID, chunk, level); err != nil {
		return h.fail(c, "Appending audio failed", err)
	}
	return utils.RespondWithMessage(c, fiber.StatusAccepted, "ok")
}

// PauseRecording godoc
// @Summary Pause a recording
// @Tags recordings
// @Produce json
// @Param id path string true "Recording ID"
// @Success 200 {object} utils.SuccessResponse "Recording status"
// @Failure 409 {object} utils.ErrorResponse "Not recording"
// @Router /recordings/{id}/pause [post]
func (h *ApplicationHandler) PauseRecording(c *fiber.Ctx) error {
	return h.transition(c, "Pausing recording failed", (*recording.Recorder).Pause)
}

// ResumeRecording godoc
// @Summary Resume a recording
// @Tags recordings
// @Produce json
// @Param id path string true "Recording ID"
// @Success 200 {object} utils.SuccessResponse "Recording status"
// @Failure 409 {object} utils.ErrorResponse "Not paused"
// @Router /recordings/{id}/resume [post]
func (h *ApplicationHandler) ResumeRecording(c *fiber.Ctx) error {
	return h.transition(c, "Resuming recording failed", (*recording.Recorder).Resume)
}

// StopRecording godoc
// @Summary Stop a recording
// @Description Finishes capture and queues the upload. Upload progress and the redirect target appear in the recording status.
// @Tags recordings
// @Produce json
// @Param id path string true "Recording ID"
// @Success 202 {object} utils.SuccessResponse "Recording status"
// @Failure 409 {object} utils.ErrorResponse "Already stopped"
// @Router /recordings/{id}/stop [post]
func (h *ApplicationHandler) StopRecording(c *fiber.Ctx) error {
	rec, err := h.Recordings.Get(c.Params("id"), middleware.CurrentSession(c).UserID())
	if err != nil {
		return h.fail(c, "Stopping recording failed", err)
	}
	if err := rec.Stop(); err != nil {
		return h.fail(c, "Stopping recording failed", err)
	}
	return utils.RespondWithJSON(c, fiber.StatusAccepted, rec.Status())
}

// GetRecording godoc
// @Summary Recording status
// @Tags recordings
// @Produce json
// @Param id path string true "Recording ID"
// @Success 200 {object} utils.SuccessResponse "Recording status"
// @Failure 404 {object} utils.ErrorResponse "Unknown recording"
// @Router /recordings/{id} [get]
func (h *ApplicationHandler) GetRecording(c *fiber.Ctx) error {
	rec, err := h.Recordings.Get(c.Params("id"), middleware.CurrentSession(c).UserID())
	if err != nil {
		return h.fail(c, "Fetching recording failed", err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, rec.Status())
}

// DiscardRecording godoc
// @Summary Discard a recording
// @Description Aborts capture without uploading and forgets the session.
// @Tags recordings
// @Produce json
// @Param id path string true "Recording ID"
// @Success 200 {object} utils.SuccessResponse
// @Router /recordings/{id} [delete]
func (h *ApplicationHandler) DiscardRecording(c *fiber.Ctx) error {
	if err := h.Recordings.Discard(c.Params("id"), middleware.CurrentSession(c).UserID()); err != nil {
		return h.fail(c, "Discarding recording failed", err)
	}
	return utils.RespondWithMessage(c, fiber.StatusOK, "Recording discarded")
}

func (h *ApplicationHandler) transition(c *fiber.Ctx, msg string, fn func(*recording.Recorder) error) error {
	rec, err := h.Recordings.Get(c.Params("id"), middleware.CurrentSession(c).UserID())
	if err != nil {
		return h.fail(c, msg, err)
	}
	if err := fn(rec); err != nil {
		return h.fail(c, msg, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, rec.Status())
}
