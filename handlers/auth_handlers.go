package handlers

import (
	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/middleware"
	"audiosales/web-gateway/models"
	"audiosales/web-gateway/utils"
)

// SessionResponse is the body of GET /api/auth/me.
type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	IsManager     bool         `json:"is_manager"`
	User          *models.User `json:"user,omitempty"`
}

// Login godoc
// @Summary Log in
// @Description Verifies credentials with the backend, sets the session cookies and returns the dashboard to open.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.Credentials true "Login credentials"
// @Success 200 {object} utils.SuccessResponse "Logged in"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 401 {object} utils.ErrorResponse "Wrong email or password"
// @Failure 500 {object} utils.ErrorResponse "Server misconfigured"
// @Router /auth/login [post]
func (h *ApplicationHandler) Login(c *fiber.Ctx) error {
	creds := new(models.Credentials)
	if err := c.BodyParser(creds); err != nil {
		h.Logger.Warnf("Error parsing login payload: %v", err)
		return utils.RespondWithValidationErrors(c, err)
	}
	creds.Email = utils.SanitizeInput(creds.Email)
	if err := utils.ValidateStruct(creds); err != nil {
		return utils.RespondWithValidationErrors(c, err)
	}

	res, err := h.Auth.Login(c.UserContext(), *creds)
	if err != nil {
		return h.fail(c, "Login failed", err)
	}
	middleware.SetSessionCookies(c, res.Token, res.UserCookie, res.ExpiresAt, h.CookieSecure)
	h.Logger.WithField("user_id", res.User.ID).Info("User logged in")
	return utils.RespondWithJSON(c, fiber.StatusOK, res)
}

// Logout godoc
// @Summary Log out
// @Description Clears the session cookies. Backend notification failures are ignored.
// @Tags auth
// @Produce json
// @Success 200 {object} utils.SuccessResponse "Logged out"
// @Router /auth/logout [post]
func (h *ApplicationHandler) Logout(c *fiber.Ctx) error {
	s := middleware.CurrentSession(c)
	userID := s.UserID()
	if userID == 0 && s != nil && s.Claims != nil {
		userID = s.Claims.UserID
	}
	h.Auth.Logout(c.UserContext(), userID)
	middleware.ClearSessionCookies(c, h.CookieSecure)
	return utils.RespondWithMessage(c, fiber.StatusOK, "Logged out")
}

// Register godoc
// @Summary Register an account
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body models.Registration true "New account"
// @Success 201 {object} utils.SuccessResponse "Account created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 409 {object} utils.ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (h *ApplicationHandler) Register(c *fiber.Ctx) error {
	reg := new(models.Registration)
	if err := c.BodyParser(reg); err != nil {
		return utils.RespondWithValidationErrors(c, err)
	}
	reg.Name = utils.SanitizeInput(reg.Name)
	reg.Email = utils.SanitizeInput(reg.Email)
	if err := utils.ValidateStruct(reg); err != nil {
		return utils.RespondWithValidationErrors(c, err)
	}

	u, err := h.Auth.Register(c.UserContext(), *reg)
	if err != nil {
		return h.fail(c, "Registration failed", err)
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, u)
}

// Me godoc
// @Summary Current session
// @Description Returns the logged-in user, restoring it from the backend when only the token survived.
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /auth/me [get]
func (h *ApplicationHandler) Me(c *fiber.Ctx) error {
	var resp SessionResponse
	if s := middleware.CurrentSession(c); s.IsAuthenticated() {
		resp = SessionResponse{Authenticated: true, IsManager: s.IsManager(), User: s.User}
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, resp)
}
