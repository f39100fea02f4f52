package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"audiosales/web-gateway/internal/cache"
	"audiosales/web-gateway/models"
)

var (
	// ErrSubmitInProgress is returned while the same viewer's previous
	// comment on the same segment is still being sent.
	ErrSubmitInProgress = errors.New("feedback: comment submit in progress")
	// ErrConfirmationRequired is returned by DeleteComment without confirm.
	ErrConfirmationRequired = errors.New("feedback: deletion not confirmed")
	// ErrEmptyComment is returned for blank comment text.
	ErrEmptyComment = errors.New("feedback: comment is empty")
	// ErrCommentNotFound is returned when the comment is not on the segment.
	ErrCommentNotFound = errors.New("feedback: comment not found")
	// ErrNotCommentAuthor is returned when deleting another user's comment.
	ErrNotCommentAuthor = errors.New("feedback: not the comment author")
	// ErrSegmentNotFound is returned when a segment is not part of the
	// meeting it was addressed through.
	ErrSegmentNotFound = errors.New("feedback: segment not in meeting")
)

// CheckSegment verifies that segmentID is a segment of meetingID, using the
// cached segment list.
func (s *Service) CheckSegment(ctx context.Context, meetingID, segmentID int) error {
	segs, err := cache.Fetch[[]models.ConversationSegment](ctx, s.cache, segmentsKey(meetingID))
	if err != nil {
		return fmt.Errorf("load segments of meeting %d: %w", meetingID, err)
	}
	for _, seg := range segs {
		if seg.ID == segmentID {
			return nil
		}
	}
	return fmt.Errorf("%w: segment %d, meeting %d", ErrSegmentNotFound, segmentID, meetingID)
}

// AddComment posts a comment and returns the segment's refreshed comments.
func (s *Service) AddComment(ctx context.Context, viewerID, meetingID, segmentID int, content string) ([]models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}

	key := submitKey{viewer: viewerID, segment: segmentID}
	s.mu.Lock()
	if _, busy := s.submitting[key]; busy {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	s.submitting[key] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.submitting, key)
		s.mu.Unlock()
	}()

	_, err := s.backend.AddComment(ctx, models.NewComment{
		SegmentID: segmentID,
		MeetingID: meetingID,
		UserID:    viewerID,
		Content:   content,
	})
	if err != nil {
		return nil, fmt.Errorf("add comment to segment %d: %w", segmentID, err)
	}
	return s.refresh(ctx, segmentID)
}

// DeleteComment removes the viewer's own comment once confirmed.
func (s *Service) DeleteComment(ctx context.Context, viewerID, segmentID, commentID int, confirm bool) ([]models.Comment, error) {
	if !confirm {
		return nil, ErrConfirmationRequired
	}
	list, err := s.Comments(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, c := range list {
		if c.ID != commentID {
			continue
		}
		if c.UserID != viewerID {
			return nil, ErrNotCommentAuthor
		}
		found = true
		break
	}
	if !found {
		return nil, ErrCommentNotFound
	}

	if err := s.backend.DeleteComment(ctx, commentID); err != nil {
		return nil, fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	return s.refresh(ctx, segmentID)
}

// MarkRead records the viewer's read receipt on a comment.
func (s *Service) MarkRead(ctx context.Context, viewerID, segmentID, commentID int) ([]models.Comment, error) {
	if err := s.backend.MarkCommentRead(ctx, commentID, viewerID); err != nil {
		return nil, fmt.Errorf("mark comment %d read: %w", commentID, err)
	}
	return s.refresh(ctx, segmentID)
}

// Comments returns the (cached) comments of a segment.
func (s *Service) Comments(ctx context.Context, segmentID int) ([]models.Comment, error) {
	list, err := cache.Fetch[[]models.Comment](ctx, s.cache, commentsKey(segmentID))
	if err != nil {
		return nil, fmt.Errorf("load comments of segment %d: %w", segmentID, err)
	}
	return list, nil
}

// refresh re-resolves the segment's comments after a write. A failed
// refresh only logs; the key is dropped so the next read hits the backend.
func (s *Service) refresh(ctx context.Context, segmentID int) ([]models.Comment, error) {
	if err := s.cache.Invalidate(ctx, commentsKey(segmentID)); err != nil {
		s.logger.WithError(err).WithField("segment_id", segmentID).Warn("Failed to refresh comments")
	}
	return s.Comments(ctx, segmentID)
}
