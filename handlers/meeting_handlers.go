package handlers

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/internal/apperr"
	"audiosales/web-gateway/internal/dashboard"
	"audiosales/web-gateway/middleware"
	"audiosales/web-gateway/models"
	"audiosales/web-gateway/utils"
)

// LastBasicInfoCookie holds the most recently saved basic info so the
// recording page can prefill itself.
const LastBasicInfoCookie = "last_basic_info"

const searchDateLayout = "2006-01-02"

// LastBasicInfo is the content of LastBasicInfoCookie.
type LastBasicInfo struct {
	MeetingID int `json:"meeting_id"`
	models.BasicInfo
}

// SaveBasicInfo godoc
// @Summary Save meeting basic info
// @Description Creates the meeting record before recording starts and remembers the input in a cookie.
// @Tags meetings
// @Accept json
// @Produce json
// @Param info body models.BasicInfo true "Basic info"
// @Success 201 {object} utils.SuccessResponse "Meeting created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Not logged in"
// @Failure 502 {object} utils.ErrorResponse "Backend unavailable"
// @Router /meetings/basic-info [post]
func (h *ApplicationHandler) SaveBasicInfo(c *fiber.Ctx) error {
	info := new(models.BasicInfo)
	if err := c.BodyParser(info); err != nil {
		h.Logger.Warnf("Error parsing basic info payload: %v", err)
		return utils.RespondWithValidationErrors(c, err)
	}
	info.UserID = middleware.CurrentSession(c).UserID()
	info.ClientCompanyName = utils.SanitizeInput(info.ClientCompanyName)
	info.ClientContactName = utils.SanitizeInput(info.ClientContactName)
	if err := utils.ValidateStruct(info); err != nil {
		return utils.RespondWithValidationErrors(c, err)
	}

	ctx := c.UserContext()
	meeting, err := h.Meetings.SaveBasicInfo(ctx, *info)
	if err != nil {
		return h.fail(c, "Saving basic info failed", err)
	}
	if err := h.Cache.Invalidate(ctx, dashboard.MeetingsKey(info.UserID)); err != nil {
		h.Logger.WithError(err).Warn("Failed to refresh meeting list")
	}

	last := LastBasicInfo{MeetingID: meeting.ID, BasicInfo: *info}
	if b, err := json.Marshal(last); err == nil {
		c.Cookie(&fiber.Cookie{
			Name:     LastBasicInfoCookie,
			Value:    url.QueryEscape(string(b)),
			Path:     "/",
			Expires:  time.Now().Add(24 * time.Hour),
			Secure:   h.CookieSecure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	h.Logger.WithField("meeting_id", meeting.ID).Info("Basic info saved")
	return utils.RespondWithJSON(c, fiber.StatusCreated, meeting)
}

// GetLastBasicInfo godoc
// @Summary Last entered basic info
// @Tags meetings
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse "Nothing saved yet"
// @Router /meetings/basic-info/last [get]
func (h *ApplicationHandler) GetLastBasicInfo(c *fiber.Ctx) error {
	raw := c.Cookies(LastBasicInfoCookie)
	if raw == "" {
		return h.fail(c, "No basic info cookie", apperr.New(apperr.KindNotFound, apperr.KeyNotFound, nil))
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return h.fail(c, "Unreadable basic info cookie", apperr.New(apperr.KindNotFound, apperr.KeyNotFound, err))
	}
	var last LastBasicInfo
	if err := json.Unmarshal([]byte(decoded), &last); err != nil {
		return h.fail(c, "Unreadable basic info cookie", apperr.New(apperr.KindNotFound, apperr.KeyNotFound, err))
	}
	if last.UserID != middleware.CurrentSession(c).UserID() {
		return h.fail(c, "Basic info cookie belongs to another user", apperr.New(apperr.KindNotFound, apperr.KeyNotFound, nil))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, last)
}

// ListMeetings godoc
// @Summary List my meetings
// @Tags meetings
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse "Not logged in"
// @Router /meetings [get]
func (h *ApplicationHandler) ListMeetings(c *fiber.Ctx) error {
	list, err := h.Dashboard.Meetings(c.UserContext(), middleware.CurrentSession(c).UserID())
	if err != nil {
		return h.fail(c, "Listing meetings failed", err)
	}
	if list == nil {
		list = []models.Meeting{}
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, list)
}

// GetMeeting godoc
// @Summary Get a meeting
// @Tags meetings
// @Produce json
// @Param id path int true "Meeting ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse "Not found"
// @Router /meetings/{id} [get]
func (h *ApplicationHandler) GetMeeting(c *fiber.Ctx) error {
	meetingID, err := c.ParamsInt("id")
	if err != nil || meetingID <= 0 {
		return h.fail(c, "Invalid meeting id", apperr.Validation(errors.New("invalid meeting id")))
	}
	meeting, err := h.authorizedMeeting(c, meetingID)
	if err != nil {
		return h.fail(c, "Fetching meeting failed", err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, meeting)
}

// authorizedMeeting loads a meeting visible to the session: the owner's or,
// for managers, one held by a direct report. Anything else is not found.
func (h *ApplicationHandler) authorizedMeeting(c *fiber.Ctx, meetingID int) (models.Meeting, error) {
	ctx := c.UserContext()
	meeting, err := h.Meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return models.Meeting{}, err
	}
	s := middleware.CurrentSession(c)
	if meeting.UserID == s.UserID() {
		return meeting, nil
	}
	if s.IsManager() {
		ok, err := h.Dashboard.Manages(ctx, s.UserID(), meeting.UserID)
		if err != nil {
			return models.Meeting{}, err
		}
		if ok {
			return meeting, nil
		}
	}
	return models.Meeting{}, apperr.New(apperr.KindNotFound, apperr.KeyNotFound, nil)
}

// SearchMeetings godoc
// @Summary Search meetings
// @Description Full-text search over the caller's meetings. Managers may pass user_id.
// @Tags meetings
// @Produce json
// @Param q query string false "Search text"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param user_id query int false "Member id (managers only)"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse "Invalid dates"
// @Router /meetings/search [get]
func (h *ApplicationHandler) SearchMeetings(c *fiber.Ctx) error {
	s := middleware.CurrentSession(c)
	search := models.MeetingSearch{
		Query:  utils.SanitizeInput(c.Query("q")),
		UserID: s.UserID(),
		From:   utils.SanitizeInput(c.Query("from")),
		To:     utils.SanitizeInput(c.Query("to")),
	}
	if raw := c.Query("user_id"); raw != "" && s.IsManager() {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			search.UserID = id
		}
	}
	for _, d := range []string{search.From, search.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(searchDateLayout, d); err != nil {
			return h.fail(c, "Invalid search date", apperr.Validation(err))
		}
	}
	if search.From != "" && search.To != "" && search.From > search.To {
		return h.fail(c, "Invalid search range", apperr.Validation(errors.New("from is after to")))
	}

	list, err := h.Meetings.SearchMeetings(c.UserContext(), search)
	if err != nil {
		return h.fail(c, "Searching meetings failed", err)
	}
	dashboard.SortNewestFirst(list)
	if list == nil {
		list = []models.Meeting{}
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, list)
}
