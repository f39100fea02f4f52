// Package feedback builds the transcript page of a meeting and handles the
// comments managers and members leave on its segments.
package feedback

import (
	"context"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"audiosales/web-gateway/internal/cache"
	"audiosales/web-gateway/internal/storage"
	"audiosales/web-gateway/models"
)

// Cache kinds owned by this package.
const (
	KindMeetingSegments = "meeting-segments"
	KindSegmentComments = "segment-comments"
)

// DefaultFanout bounds concurrent comment fetches for one transcript.
const DefaultFanout = 8

// Backend is the subset of the backend client the transcript page uses.
type Backend interface {
	GetMeeting(ctx context.Context, meetingID int) (models.Meeting, error)
	ListSegments(ctx context.Context, meetingID int) ([]models.ConversationSegment, error)
	ListComments(ctx context.Context, segmentID int) ([]models.Comment, error)
	AddComment(ctx context.Context, nc models.NewComment) (models.Comment, error)
	DeleteComment(ctx context.Context, commentID int) error
	MarkCommentRead(ctx context.Context, commentID, userID int) error
}

// Audio turns segment audio paths into playable URLs.
type Audio struct {
	Account storage.Account
	Token   string
}

// Service serves transcripts and comment mutations.
type Service struct {
	backend Backend
	cache   *cache.Layer
	audio   Audio
	logger  *logrus.Logger
	fanout  int

	mu         sync.Mutex
	submitting map[submitKey]struct{}
}

type submitKey struct {
	viewer, segment int
}

// NewService wires the service and registers its cache loaders on layer.
func NewService(backend Backend, layer *cache.Layer, audio Audio, logger *logrus.Logger) *Service {
	s := &Service{
		backend:    backend,
		cache:      layer,
		audio:      audio,
		logger:     logger,
		fanout:     DefaultFanout,
		submitting: make(map[submitKey]struct{}),
	}
	layer.Register(KindMeetingSegments, func(ctx context.Context, id string) (interface{}, error) {
		meetingID, err := strconv.Atoi(id)
		if err != nil {
			return nil, err
		}
		return backend.ListSegments(ctx, meetingID)
	})
	layer.Register(KindSegmentComments, func(ctx context.Context, id string) (interface{}, error) {
		segmentID, err := strconv.Atoi(id)
		if err != nil {
			return nil, err
		}
		return backend.ListComments(ctx, segmentID)
	})
	return s
}

func segmentsKey(meetingID int) cache.Key {
	return cache.Key{Kind: KindMeetingSegments, ID: strconv.Itoa(meetingID)}
}

func commentsKey(segmentID int) cache.Key {
	return cache.Key{Kind: KindSegmentComments, ID: strconv.Itoa(segmentID)}
}
