package handlers

import (
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/internal/apperr"
	"audiosales/web-gateway/internal/dashboard"
	"audiosales/web-gateway/internal/recording"
	"audiosales/web-gateway/middleware"
	"audiosales/web-gateway/utils"
)

var allowedAudioExt = map[string]bool{
	".webm": true, ".wav": true, ".mp3": true, ".m4a": true, ".ogg": true,
}

// GetUploadURL godoc
// @Summary Issue an upload URL
// @Description Returns a short-lived write-only SAS URL for uploading one audio blob directly to storage.
// @Tags storage
// @Produce json
// @Param filename query string true "Blob file name"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse "Missing or invalid filename"
// @Failure 500 {object} utils.ErrorResponse "Storage not configured"
// @Router /storage/upload-url [get]
func (h *ApplicationHandler) GetUploadURL(c *fiber.Ctx) error {
	name := utils.SanitizeInput(c.Query("filename"))
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || base != name || base == "." || base == ".." {
		return h.fail(c, "Invalid upload filename", apperr.Validation(errors.New("filename must be a plain file name")))
	}
	if !allowedAudioExt[strings.ToLower(filepath.Ext(base))] {
		return h.fail(c, "Unsupported upload type", apperr.Validation(errors.New("unsupported audio file type")))
	}

	u, err := h.UploadURLs.IssueUploadURL(c.UserContext(), base)
	if err != nil {
		return h.fail(c, "Issuing upload URL failed", err)
	}
	h.Logger.WithField("blob", u.BlobName).Info("Upload URL issued")
	return utils.RespondWithJSON(c, fiber.StatusOK, u)
}

// UploadMeetingAudio godoc
// @Summary Upload meeting audio
// @Description Accepts an audio file for a meeting, stores it in blob storage and attaches it to the meeting.
// @Tags meetings
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Meeting ID"
// @Param file formData file true "Audio file"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse "Missing or invalid file"
// @Failure 404 {object} utils.ErrorResponse "Meeting not found"
// @Failure 502 {object} utils.ErrorResponse "Storage or backend unavailable"
// @Router /meetings/{id}/audio [post]
func (h *ApplicationHandler) UploadMeetingAudio(c *fiber.Ctx) error {
	meetingID, err := c.ParamsInt("id")
	if err != nil || meetingID <= 0 {
		return h.fail(c, "Invalid meeting id", apperr.Validation(errors.New("invalid meeting id")))
	}
	meeting, err := h.authorizedMeeting(c, meetingID)
	if err != nil {
		return h.fail(c, "Fetching meeting failed", err)
	}
	userID := middleware.CurrentSession(c).UserID()
	if meeting.UserID != userID {
		return h.fail(c, "Audio upload by non-owner", apperr.New(apperr.KindForbidden, apperr.KeyForbidden, nil))
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.Logger.Warnf("Error getting file from request: %v", err)
		return h.fail(c, "Missing audio file", apperr.Validation(err))
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = ".webm"
	}
	if !allowedAudioExt[ext] {
		return h.fail(c, "Unsupported upload type", apperr.Validation(errors.New("unsupported audio file type")))
	}
	if h.MaxAudioBytes > 0 && file.Size > int64(h.MaxAudioBytes) {
		return h.fail(c, "Audio file too large", apperr.Validation(errors.New("audio file too large")))
	}

	fileHandle, err := file.Open()
	if err != nil {
		return h.fail(c, "Error opening file", err)
	}
	defer fileHandle.Close()
	data, err := io.ReadAll(fileHandle)
	if err != nil {
		return h.fail(c, "Error reading file content", err)
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = recording.ContentType
	}
	blobName := strings.TrimSuffix(recording.BuildFilename(meetingID, userID, time.Now()), ".webm") + ext

	ctx := c.UserContext()
	u, err := h.UploadURLs.IssueUploadURL(ctx, blobName)
	if err != nil {
		return h.fail(c, "Issuing upload URL failed", err)
	}
	err = h.Blobs.Upload(ctx, u.URL, data, contentType)
	h.Metrics.ObserveUpload("multipart", len(data), err)
	if err != nil {
		return h.fail(c, "Uploading audio failed", apperr.Upstream(err))
	}
	if err := h.Meetings.UpdateMeetingAudio(ctx, meetingID, blobName); err != nil {
		return h.fail(c, "Attaching audio to meeting failed", err)
	}
	if err := h.Cache.Invalidate(ctx, dashboard.MeetingsKey(userID)); err != nil {
		h.Logger.WithError(err).Warn("Failed to refresh meeting list")
	}

	h.Logger.WithField("meeting_id", meetingID).WithField("bytes", len(data)).Info("Successfully uploaded meeting audio")
	return utils.RespondWithJSON(c, fiber.StatusCreated, fiber.Map{"blob_name": blobName, "meeting_id": meetingID})
}
