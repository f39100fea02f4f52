package feedback

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"audiosales/web-gateway/internal/apperr"
	"audiosales/web-gateway/internal/cache"
	"audiosales/web-gateway/internal/storage"
	"audiosales/web-gateway/models"
)

// EntryKind distinguishes transcript rows.
type EntryKind string

const (
	KindSummary EntryKind = "summary"
	KindBubble  EntryKind = "bubble"
)

// Side places a bubble in the chat layout.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// CommentView is a comment prepared for display to one viewer.
type CommentView struct {
	ID        int    `json:"comment_id"`
	UserID    int    `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	Mine      bool   `json:"mine"`
	Unread    bool   `json:"unread"`
}

// Entry is one transcript row: a summary divider or a speech bubble.
type Entry struct {
	Kind        EntryKind     `json:"kind"`
	SegmentID   int           `json:"segment_id"`
	Speaker     string        `json:"speaker,omitempty"`
	Content     string        `json:"content"`
	Side        Side          `json:"side,omitempty"`
	StartTime   float64       `json:"start_time"`
	EndTime     float64       `json:"end_time"`
	PlaybackURL string        `json:"playback_url,omitempty"`
	AudioError  string        `json:"audio_error,omitempty"`
	Comments    []CommentView `json:"comments"`
	UnreadCount int           `json:"unread_count"`
}

// Transcript is the assembled feedback page.
type Transcript struct {
	Meeting models.Meeting `json:"meeting"`
	Entries []Entry        `json:"entries"`
}

// Viewer identifies who is reading the transcript.
type Viewer struct {
	ID   int
	Name string
}

// Transcript assembles the page for meetingID as seen by viewer. Comments
// are fetched one request per segment, concurrently.
func (s *Service) Transcript(ctx context.Context, meetingID int, viewer Viewer, acceptLanguage string) (*Transcript, error) {
	var (
		meeting  models.Meeting
		segments []models.ConversationSegment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.backend.GetMeeting(gctx, meetingID)
		if err != nil {
			return fmt.Errorf("load meeting %d: %w", meetingID, err)
		}
		meeting = m
		return nil
	})
	g.Go(func() error {
		segs, err := cache.Fetch[[]models.ConversationSegment](gctx, s.cache, segmentsKey(meetingID))
		if err != nil {
			return fmt.Errorf("load segments of meeting %d: %w", meetingID, err)
		}
		segments = segs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comments := make([][]models.Comment, len(segments))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i, seg := range segments {
		if seg.IsSummary() {
			continue
		}
		g.Go(func() error {
			list, err := cache.Fetch[[]models.Comment](gctx, s.cache, commentsKey(seg.ID))
			if err != nil {
				return fmt.Errorf("load comments of segment %d: %w", seg.ID, err)
			}
			comments[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sides := newSideAssigner(viewer.Name)
	entries := make([]Entry, 0, len(segments))
	for i, seg := range segments {
		if seg.IsSummary() {
			entries = append(entries, Entry{
				Kind:      KindSummary,
				SegmentID: seg.ID,
				Content:   seg.Content,
				StartTime: seg.StartTime,
				EndTime:   seg.EndTime,
				Comments:  []CommentView{},
			})
			continue
		}
		e := Entry{
			Kind:      KindBubble,
			SegmentID: seg.ID,
			Speaker:   seg.Speaker,
			Content:   seg.Content,
			Side:      sides.side(seg),
			StartTime: seg.StartTime,
			EndTime:   seg.EndTime,
			Comments:  s.Views(comments[i], viewer.ID),
		}
		for _, c := range e.Comments {
			if c.Unread {
				e.UnreadCount++
			}
		}
		s.attachAudio(&e, seg, acceptLanguage)
		entries = append(entries, e)
	}
	return &Transcript{Meeting: meeting, Entries: entries}, nil
}

// Views prepares comments for display to viewerID.
func (s *Service) Views(list []models.Comment, viewerID int) []CommentView {
	views := make([]CommentView, 0, len(list))
	for _, c := range list {
		if _, err := ParseTimestamp(c.CreatedAt); err != nil {
			s.logger.WithFields(logrus.Fields{
				"comment_id": c.ID,
				"raw":        c.CreatedAt,
			}).Warn("Unrecognized comment timestamp")
		}
		mine := c.UserID == viewerID
		views = append(views, CommentView{
			ID:        c.ID,
			UserID:    c.UserID,
			UserName:  c.UserName,
			Content:   c.Content,
			CreatedAt: FormatTimestamp(c.CreatedAt),
			Mine:      mine,
			Unread:    !mine && !c.ReadBy(viewerID),
		})
	}
	return views
}

// attachAudio sets the playback URL or an inline error; a bad audio path
// never fails the whole page.
func (s *Service) attachAudio(e *Entry, seg models.ConversationSegment, acceptLanguage string) {
	if err := storage.CheckStartOffset(seg.StartTime); err != nil {
		e.StartTime = 0
		e.AudioError = apperr.Text(apperr.KeyInvalidStartTime, acceptLanguage)
		return
	}
	if seg.AudioPath == "" {
		return
	}
	u, err := storage.PlaybackURL(s.audio.Account, s.audio.Token, seg.AudioPath)
	if err != nil {
		if !errors.Is(err, storage.ErrEmptyPath) {
			s.logger.WithError(err).WithField("segment_id", seg.ID).Warn("Cannot build playback URL")
		}
		e.AudioError = apperr.Text(apperr.KeyAudioUnavailable, acceptLanguage)
		return
	}
	e.PlaybackURL = u
}

// sideAssigner puts the viewer's own speech on the right, the first other
// speaker on the left and every further speaker on the right.
type sideAssigner struct {
	viewer string
	first  string
	seen   bool
}

func newSideAssigner(viewerName string) *sideAssigner {
	return &sideAssigner{viewer: viewerName}
}

func (a *sideAssigner) side(seg models.ConversationSegment) Side {
	if a.viewer != "" && seg.Speaker == a.viewer {
		return SideRight
	}
	if !a.seen {
		a.first, a.seen = seg.Speaker, true
	}
	if seg.Speaker == a.first {
		return SideLeft
	}
	return SideRight
}
