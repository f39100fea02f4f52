package handlers

import (
	"github.com/gofiber/fiber/v2"

	"audiosales/web-gateway/middleware"
)

// RegisterAPIRoutes mounts every /api route on app.
func (h *ApplicationHandler) RegisterAPIRoutes(app *fiber.App, sess middleware.SessionConfig) {
	api := app.Group("/api", middleware.LoadSession(sess))

	authGroup := api.Group("/auth")
	authGroup.Post("/login", h.Login)
	authGroup.Post("/logout", h.Logout)
	authGroup.Post("/register", h.Register)
	authGroup.Get("/me", h.Me)

	protected := api.Group("", middleware.RequireSession())

	protected.Get("/storage/upload-url", h.GetUploadURL)

	protected.Get("/meetings", h.ListMeetings)
	protected.Post("/meetings/basic-info", h.SaveBasicInfo)
	protected.Get("/meetings/basic-info/last", h.GetLastBasicInfo)
	protected.Get("/meetings/search", h.SearchMeetings)
	protected.Get("/meetings/:id", h.GetMeeting)
	protected.Get("/meetings/:id/transcript", h.GetTranscript)
	protected.Post("/meetings/:id/audio", h.UploadMeetingAudio)

	protected.Get("/segments/:id/comments", h.ListComments)
	protected.Post("/segments/:id/comments", h.AddComment)
	protected.Delete("/segments/:segmentId/comments/:commentId", h.DeleteComment)
	protected.Post("/segments/:segmentId/comments/:commentId/read", h.MarkCommentRead)

	protected.Post("/recordings", h.StartRecording)
	protected.Get("/recordings/:id", h.GetRecording)
	protected.Delete("/recordings/:id", h.DiscardRecording)
	protected.Post("/recordings/:id/chunks", h.PushRecordingChunk)
	protected.Post("/recordings/:id/pause", h.PauseRecording)
	protected.Post("/recordings/:id/resume", h.ResumeRecording)
	protected.Post("/recordings/:id/stop", h.StopRecording)

	protected.Get("/dashboard", h.GetUserDashboard)
	protected.Get("/manager/dashboard", middleware.RequireManager(), h.GetManagerDashboard)
}
