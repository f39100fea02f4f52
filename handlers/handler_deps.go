package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"audiosales/web-gateway/internal/auth"
	"audiosales/web-gateway/internal/cache"
	"audiosales/web-gateway/internal/dashboard"
	"audiosales/web-gateway/internal/feedback"
	"audiosales/web-gateway/internal/metrics"
	"audiosales/web-gateway/internal/recording"
	"audiosales/web-gateway/internal/storage"
	"audiosales/web-gateway/models"
)

// MeetingsBackend defines the meeting operations handlers call directly.
type MeetingsBackend interface {
	GetMeeting(ctx context.Context, meetingID int) (models.Meeting, error)
	SearchMeetings(ctx context.Context, s models.MeetingSearch) ([]models.Meeting, error)
	SaveBasicInfo(ctx context.Context, info models.BasicInfo) (models.Meeting, error)
	UpdateMeetingAudio(ctx context.Context, meetingID int, blobPath string) error
}

// UploadURLIssuer issues write-only upload URLs.
type UploadURLIssuer interface {
	IssueUploadURL(ctx context.Context, blobName string) (storage.UploadURL, error)
}

// BlobUploader writes blobs through an upload URL.
type BlobUploader interface {
	Upload(ctx context.Context, sasURL string, data []byte, contentType string) error
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Logger       *logrus.Logger
	Auth         *auth.Service
	Meetings     MeetingsBackend
	Feedback     *feedback.Service
	Dashboard    *dashboard.Service
	Recordings   *recording.Registry
	UploadURLs   UploadURLIssuer
	Blobs        BlobUploader
	Cache        *cache.Layer
	Metrics      *metrics.Metrics
	CookieSecure bool
	// MaxAudioBytes caps multipart audio uploads.
	MaxAudioBytes int
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(logger *logrus.Logger, opts ...func(*ApplicationHandler)) *ApplicationHandler {
	h := &ApplicationHandler{Logger: logger, MaxAudioBytes: 200 << 20}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
