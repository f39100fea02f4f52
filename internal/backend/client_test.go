package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiosales/web-gateway/models"
)

type recordedCall struct {
	Method string
	Path   string
	Query  string
	Key    string
	Body   string
}

type fakeBackend struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeBackend) record(r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Key:    r.Header.Get("x-functions-key"),
		Body:   string(b),
	})
}

func (f *fakeBackend) last() recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type observed struct {
	ops []string
	err []error
}

func (o *observed) ObserveUpstream(op string, err error, _ time.Duration) {
	o.ops = append(o.ops, op)
	o.err = append(o.err, err)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeBackend, *observed) {
	t.Helper()
	fb := &fakeBackend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.record(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	obs := &observed{}
	c, err := New(srv.URL+"/api/", time.Second, WithFunctionKey("fn-key"), WithObserver(obs))
	require.NoError(t, err)
	return c, fb, obs
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Validates(t *testing.T) {
	_, err := New("  ", time.Second)
	require.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	c, fb, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user": map[string]interface{}{"user_id": 9, "user_name": "Kato", "email": "k@example.com", "is_manager": true},
		})
	})

	u, err := c.Login(context.Background(), models.Credentials{Email: "k@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, 9, u.ID)
	assert.True(t, u.IsManager)

	call := fb.last()
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/api/users/login", call.Path)
	assert.Equal(t, "fn-key", call.Key)
	assert.JSONEq(t, `{"email":"k@example.com","password":"pw"}`, call.Body)
	assert.Equal(t, []string{"login"}, obs.ops)
}

func TestLogin_Rejected(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad password"})
	})

	_, err := c.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var se *HTTPStatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bad password", se.Message)
}

func TestGetMeeting_NotFound(t *testing.T) {
	c, fb, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such meeting"})
	})

	_, err := c.GetMeeting(context.Background(), 77)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "/api/meetings/77", fb.last().Path)
	require.Len(t, obs.err, 1)
	assert.Error(t, obs.err[0])
}

func TestUpstreamErrorMessageSurfaced(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Login timeout expired"})
	})

	_, err := c.ListMeetings(context.Background(), 1)
	var se *HTTPStatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.HTTPStatusCode())
	assert.Contains(t, err.Error(), "Login timeout expired")
}

func TestListSegments_SortedByStart(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"segment_id": 2, "start_time": 12.5},
			{"segment_id": 1, "start_time": 0},
			{"segment_id": 3, "start_time": 30},
		})
	})

	segs, err := c.ListSegments(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{segs[0].ID, segs[1].ID, segs[2].ID})
}

func TestSearchMeetings_Query(t *testing.T) {
	c, fb, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Meeting{{ID: 1}})
	})

	got, err := c.SearchMeetings(context.Background(), models.MeetingSearch{Query: "acme", UserID: 3, From: "2024-01-01"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "from_date=2024-01-01&q=acme&user_id=3", fb.last().Query)
}

func TestCommentMutations(t *testing.T) {
	c, fb, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/comments" {
			writeJSON(w, http.StatusCreated, map[string]interface{}{"comment_id": 11, "content": "good"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	cm, err := c.AddComment(ctx, models.NewComment{SegmentID: 4, MeetingID: 2, UserID: 1, Content: "good"})
	require.NoError(t, err)
	assert.Equal(t, 11, cm.ID)

	require.NoError(t, c.MarkCommentRead(ctx, 11, 8))
	assert.Equal(t, "/api/comments/11/read", fb.last().Path)
	assert.JSONEq(t, `{"user_id":8}`, fb.last().Body)

	require.NoError(t, c.DeleteComment(ctx, 11))
	assert.Equal(t, http.MethodDelete, fb.last().Method)
}

func TestContextCancelled(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.User{ID: 1})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetUser(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
