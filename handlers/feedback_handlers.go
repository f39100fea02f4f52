package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/internal/apperr"
	"audiosales/web-gateway/internal/feedback"
	"audiosales/web-gateway/middleware"
	"audiosales/web-gateway/models"
	"audiosales/web-gateway/utils"
)

// AddCommentRequest is the body of POST /segments/{id}/comments.
type AddCommentRequest struct {
	MeetingID int    `json:"meeting_id" validate:"required,gt=0"`
	Content   string `json:"content" validate:"required,max=2000"`
}

func intParam(c *fiber.Ctx, name string) (int, error) {
	v, err := c.ParamsInt(name)
	if err != nil || v <= 0 {
		return 0, apperr.Validation(errors.New("invalid " + name))
	}
	return v, nil
}

// authorizedSegment checks that the session may see meetingID and that
// segmentID belongs to it.
func (h *ApplicationHandler) authorizedSegment(c *fiber.Ctx, meetingID, segmentID int) error {
	if meetingID <= 0 {
		return apperr.Validation(errors.New("invalid meeting_id"))
	}
	if _, err := h.authorizedMeeting(c, meetingID); err != nil {
		return err
	}
	return h.Feedback.CheckSegment(c.UserContext(), meetingID, segmentID)
}

// GetTranscript godoc
// @Summary Meeting transcript
// @Description Returns the meeting with its segments as chat bubbles and summary dividers, each bubble carrying its playback URL and comments.
// @Tags feedback
// @Produce json
// @Param id path int true "Meeting ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse "Meeting not found"
// @Failure 502 {object} utils.ErrorResponse "Backend unavailable"
// @Router /meetings/{id}/transcript [get]
func (h *ApplicationHandler) GetTranscript(c *fiber.Ctx) error {
	meetingID, err := intParam(c, "id")
	if err != nil {
		return h.fail(c, "Invalid meeting id", err)
	}
	if _, err := h.authorizedMeeting(c, meetingID); err != nil {
		return h.fail(c, "Fetching meeting failed", err)
	}
	s := middleware.CurrentSession(c)
	viewer := feedback.Viewer{ID: s.UserID(), Name: s.User.Name}
	tr, err := h.Feedback.Transcript(c.UserContext(), meetingID, viewer, c.Get(fiber.HeaderAcceptLanguage))
	if err != nil {
		return h.fail(c, "Building transcript failed", err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, tr)
}

// ListComments godoc
// @Summary Segment comments
// @Tags feedback
// @Produce json
// @Param id path int true "Segment ID"
// @Param meeting_id query int true "Meeting the segment belongs to"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse "Segment not found"
// @Router /segments/{id}/comments [get]
func (h *ApplicationHandler) ListComments(c *fiber.Ctx) error {
	segmentID, err := intParam(c, "id")
	if err != nil {
		return h.fail(c, "Invalid segment id", err)
	}
	if err := h.authorizedSegment(c, c.QueryInt("meeting_id"), segmentID); err != nil {
		return h.fail(c, "Segment not accessible", err)
	}
	list, err := h.Feedback.Comments(c.UserContext(), segmentID)
	if err != nil {
		return h.fail(c, "Listing comments failed", err)
	}
	return h.respondComments(c, fiber.StatusOK, list)
}

// AddComment godoc
// @Summary Add a comment
// @Description Posts a comment on a segment. A second submit while the first is in flight is rejected with 409.
// @Tags feedback
// @Accept json
// @Produce json
// @Param id path int true "Segment ID"
// @Param comment body AddCommentRequest true "Comment"
// @Success 201 {object} utils.SuccessResponse "Refreshed comment list"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 404 {object} utils.ErrorResponse "Segment not found"
// @Failure 409 {object} utils.ErrorResponse "Submit in progress"
// @Router /segments/{id}/comments [post]
func (h *ApplicationHandler) AddComment(c *fiber.Ctx) error {
	segmentID, err := intParam(c, "id")
	if err != nil {
		return h.fail(c, "Invalid segment id", err)
	}
	req := new(AddCommentRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.RespondWithValidationErrors(c, err)
	}
	req.Content = utils.SanitizeInput(req.Content)
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondWithValidationErrors(c, err)
	}
	if err := h.authorizedSegment(c, req.MeetingID, segmentID); err != nil {
		return h.fail(c, "Segment not accessible", err)
	}

	list, err := h.Feedback.AddComment(c.UserContext(), middleware.CurrentSession(c).UserID(), req.MeetingID, segmentID, req.Content)
	if err != nil {
		return h.fail(c, "Adding comment failed", err)
	}
	return h.respondComments(c, fiber.StatusCreated, list)
}

// DeleteComment godoc
// @Summary Delete a comment
// @Description Deletes the caller's own comment. Requires confirm=true.
// @Tags feedback
// @Produce json
// @Param segmentId path int true "Segment ID"
// @Param commentId path int true "Comment ID"
// @Param meeting_id query int true "Meeting the segment belongs to"
// @Param confirm query bool true "Explicit confirmation"
// @Success 200 {object} utils.SuccessResponse "Refreshed comment list"
// @Failure 400 {object} utils.ErrorResponse "Not confirmed"
// @Failure 403 {object} utils.ErrorResponse "Not the author"
// @Router /segments/{segmentId}/comments/{commentId} [delete]
func (h *ApplicationHandler) DeleteComment(c *fiber.Ctx) error {
	segmentID, err := intParam(c, "segmentId")
	if err != nil {
		return h.fail(c, "Invalid segment id", err)
	}
	commentID, err := intParam(c, "commentId")
	if err != nil {
		return h.fail(c, "Invalid comment id", err)
	}
	if err := h.authorizedSegment(c, c.QueryInt("meeting_id"), segmentID); err != nil {
		return h.fail(c, "Segment not accessible", err)
	}
	confirm, _ := strconv.ParseBool(c.Query("confirm"))

	list, err := h.Feedback.DeleteComment(c.UserContext(), middleware.CurrentSession(c).UserID(), segmentID, commentID, confirm)
	if err != nil {
		return h.fail(c, "Deleting comment failed", err)
	}
	return h.respondComments(c, fiber.StatusOK, list)
}

// MarkCommentRead godoc
// @Summary Mark a comment read
// @Tags feedback
// @Produce json
// @Param segmentId path int true "Segment ID"
// @Param commentId path int true "Comment ID"
// @Param meeting_id query int true "Meeting the segment belongs to"
// @Success 200 {object} utils.SuccessResponse "Refreshed comment list"
// @Router /segments/{segmentId}/comments/{commentId}/read [post]
func (h *ApplicationHandler) MarkCommentRead(c *fiber.Ctx) error {
	segmentID, err := intParam(c, "segmentId")
	if err != nil {
		return h.fail(c, "Invalid segment id", err)
	}
	commentID, err := intParam(c, "commentId")
	if err != nil {
		return h.fail(c, "Invalid comment id", err)
	}
	if err := h.authorizedSegment(c, c.QueryInt("meeting_id"), segmentID); err != nil {
		return h.fail(c, "Segment not accessible", err)
	}
	list, err := h.Feedback.MarkRead(c.UserContext(), middleware.CurrentSession(c).UserID(), segmentID, commentID)
	if err != nil {
		return h.fail(c, "Marking comment read failed", err)
	}
	return h.respondComments(c, fiber.StatusOK, list)
}

func (h *ApplicationHandler) respondComments(c *fiber.Ctx, status int, list []models.Comment) error {
	return utils.RespondWithJSON(c, status, h.Feedback.Views(list, middleware.CurrentSession(c).UserID()))
}
