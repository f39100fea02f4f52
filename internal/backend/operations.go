package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"audiosales/web-gateway/models"
)

type loginResponse struct {
	User    models.User `json:"user"`
	Message string      `json:"message,omitempty"`
}

// Login checks credentials with the backend.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.User, error) {
	var resp loginResponse
	err := c.do(ctx, "login", http.MethodPost, "/users/login", nil, creds, &resp)
	if err != nil {
		var se *HTTPStatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
			return models.User{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return models.User{}, err
	}
	if resp.User.ID == 0 {
		return models.User{}, ErrInvalidCredentials
	}
	return resp.User, nil
}

// NotifyLogout tells the backend the user logged out.
func (c *Client) NotifyLogout(ctx context.Context, userID int) error {
	return c.do(ctx, "logout", http.MethodPost, "/users/logout", nil, map[string]int{"user_id": userID}, nil)
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	var u models.User
	err := c.do(ctx, "register", http.MethodPost, "/users/register", nil, reg, &u)
	return u, err
}

// GetUser is the "who am I" lookup.
func (c *Client) GetUser(ctx context.Context, userID int) (models.User, error) {
	var u models.User
	err := c.do(ctx, "get_user", http.MethodGet, "/users/"+strconv.Itoa(userID), nil, nil, &u)
	return u, err
}

// ListUsers lists accounts; managerID > 0 restricts to that manager's team.
func (c *Client) ListUsers(ctx context.Context, managerID int) ([]models.User, error) {
	q := url.Values{}
	if managerID > 0 {
		q.Set("manager_id", strconv.Itoa(managerID))
	}
	var users []models.User
	err := c.do(ctx, "list_users", http.MethodGet, "/users", q, nil, &users)
	return users, err
}

// ListMeetings lists the meetings owned by userID.
func (c *Client) ListMeetings(ctx context.Context, userID int) ([]models.Meeting, error) {
	q := url.Values{"user_id": {strconv.Itoa(userID)}}
	var meetings []models.Meeting
	err := c.do(ctx, "list_meetings", http.MethodGet, "/meetings", q, nil, &meetings)
	return meetings, err
}

// SearchMeetings runs a filtered meeting search.
func (c *Client) SearchMeetings(ctx context.Context, s models.MeetingSearch) ([]models.Meeting, error) {
	q := url.Values{}
	if s.Query != "" {
		q.Set("q", s.Query)
	}
	if s.UserID > 0 {
		q.Set("user_id", strconv.Itoa(s.UserID))
	}
	if s.From != "" {
		q.Set("from_date", s.From)
	}
	if s.To != "" {
		q.Set("to_date", s.To)
	}
	var meetings []models.Meeting
	err := c.do(ctx, "search_meetings", http.MethodGet, "/meetings/search", q, nil, &meetings)
	return meetings, err
}

// GetMeeting fetches one meeting.
func (c *Client) GetMeeting(ctx context.Context, meetingID int) (models.Meeting, error) {
	var m models.Meeting
	err := c.do(ctx, "get_meeting", http.MethodGet, "/meetings/"+strconv.Itoa(meetingID), nil, nil, &m)
	return m, err
}

// SaveBasicInfo creates a meeting from pre-recording metadata.
func (c *Client) SaveBasicInfo(ctx context.Context, info models.BasicInfo) (models.Meeting, error) {
	var m models.Meeting
	err := c.do(ctx, "save_basic_info", http.MethodPost, "/basicinfo", nil, info, &m)
	return m, err
}

// UpdateMeetingAudio records the uploaded audio blob against a meeting.
func (c *Client) UpdateMeetingAudio(ctx context.Context, meetingID int, blobPath string) error {
	body := map[string]string{"file_path": blobPath, "status": models.MeetingStatusUploaded}
	return c.do(ctx, "update_meeting_audio", http.MethodPatch, "/meetings/"+strconv.Itoa(meetingID)+"/audio", nil, body, nil)
}

// ListSegments returns the meeting's segments ordered by start time.
func (c *Client) ListSegments(ctx context.Context, meetingID int) ([]models.ConversationSegment, error) {
	var segs []models.ConversationSegment
	if err := c.do(ctx, "list_segments", http.MethodGet, "/meetings/"+strconv.Itoa(meetingID)+"/segments", nil, nil, &segs); err != nil {
		return nil, err
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].StartTime < segs[j].StartTime })
	return segs, nil
}

// ListComments returns the comments on one segment.
func (c *Client) ListComments(ctx context.Context, segmentID int) ([]models.Comment, error) {
	var comments []models.Comment
	err := c.do(ctx, "list_comments", http.MethodGet, "/segments/"+strconv.Itoa(segmentID)+"/comments", nil, nil, &comments)
	return comments, err
}

// AddComment posts a comment.
func (c *Client) AddComment(ctx context.Context, nc models.NewComment) (models.Comment, error) {
	var cm models.Comment
	err := c.do(ctx, "add_comment", http.MethodPost, "/comments", nil, nc, &cm)
	return cm, err
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, commentID int) error {
	return c.do(ctx, "delete_comment", http.MethodDelete, "/comments/"+strconv.Itoa(commentID), nil, nil, nil)
}

// MarkCommentRead records a read receipt for userID.
func (c *Client) MarkCommentRead(ctx context.Context, commentID, userID int) error {
	body := map[string]int{"user_id": userID}
	return c.do(ctx, "mark_comment_read", http.MethodPost, "/comments/"+strconv.Itoa(commentID)+"/read", nil, body, nil)
}
