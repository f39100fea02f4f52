package dashboard

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiosales/web-gateway/internal/cache"
	"audiosales/web-gateway/models"
)

type fakeBackend struct {
	meetings map[int][]models.Meeting
	users    []models.User
	failFor  int
}

func (f *fakeBackend) ListMeetings(_ context.Context, userID int) ([]models.Meeting, error) {
	if userID == f.failFor {
		return nil, errors.New("backend down")
	}
	return f.meetings[userID], nil
}

func (f *fakeBackend) ListUsers(context.Context, int) ([]models.User, error) {
	return f.users, nil
}

func newService(b *fakeBackend) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(b, cache.NewLayer(cache.NewMemoryStore(), time.Minute, logger, nil))
}

func intPtr(v int) *int { return &v }

func TestForUserSortsAndCounts(t *testing.T) {
	b := &fakeBackend{meetings: map[int][]models.Meeting{
		1: {
			{ID: 1, MeetingDatetime: "2024-01-01T09:00:00", Status: models.MeetingStatusCompleted, DurationSeconds: 60},
			{ID: 2, MeetingDatetime: "2024-03-01T09:00:00", Status: models.MeetingStatusScheduled},
			{ID: 3, MeetingDatetime: "2024-02-01T09:00:00", Status: models.MeetingStatusCompleted, DurationSeconds: 30},
		},
	}}
	d, err := newService(b).ForUser(context.Background(), 1)
	require.NoError(t, err)

	ids := []int{d.Meetings[0].ID, d.Meetings[1].ID, d.Meetings[2].ID}
	assert.Equal(t, []int{2, 3, 1}, ids)
	assert.Equal(t, 3, d.Summary.Meetings)
	assert.Equal(t, 90, d.Summary.DurationSeconds)
	assert.Equal(t, 2, d.Summary.ByStatus[models.MeetingStatusCompleted])
	assert.Equal(t, 1, d.Summary.ByStatus[models.MeetingStatusScheduled])
}

func TestForUserEmpty(t *testing.T) {
	d, err := newService(&fakeBackend{}).ForUser(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, d.Meetings)
	assert.Zero(t, d.Summary.Meetings)
}

func TestForManagerAggregatesTeam(t *testing.T) {
	b := &fakeBackend{
		users: []models.User{
			{ID: 3, Name: "Yamada", ManagerID: intPtr(9)},
			{ID: 2, Name: "Abe", ManagerID: intPtr(9)},
			{ID: 4, Name: "Other team", ManagerID: intPtr(8)},
			{ID: 9, Name: "Boss", IsManager: true},
		},
		meetings: map[int][]models.Meeting{
			2: {{ID: 20, Status: models.MeetingStatusCompleted, DurationSeconds: 100}},
			3: {
				{ID: 30, Status: models.MeetingStatusCompleted, DurationSeconds: 50},
				{ID: 31, Status: models.MeetingStatusFailed},
			},
			4: {{ID: 40, Status: models.MeetingStatusCompleted}},
		},
	}
	d, err := newService(b).ForManager(context.Background(), 9)
	require.NoError(t, err)

	require.Len(t, d.Members, 2)
	assert.Equal(t, "Abe", d.Members[0].User.Name)
	assert.Equal(t, "Yamada", d.Members[1].User.Name)
	assert.Equal(t, 3, d.Totals.Meetings)
	assert.Equal(t, 150, d.Totals.DurationSeconds)
	assert.Equal(t, 2, d.Totals.ByStatus[models.MeetingStatusCompleted])
	assert.Equal(t, 1, d.Totals.ByStatus[models.MeetingStatusFailed])
}

func TestManagesDirectReportsOnly(t *testing.T) {
	b := &fakeBackend{users: []models.User{
		{ID: 2, Name: "Abe", ManagerID: intPtr(9)},
		{ID: 4, Name: "Other team", ManagerID: intPtr(8)},
	}}
	svc := newService(b)
	ctx := context.Background()

	ok, err := svc.Manages(ctx, 9, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Manages(ctx, 9, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Manages(ctx, 8, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForManagerPropagatesMemberFailure(t *testing.T) {
	b := &fakeBackend{
		users:   []models.User{{ID: 2, Name: "Abe", ManagerID: intPtr(9)}},
		failFor: 2,
	}
	_, err := newService(b).ForManager(context.Background(), 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}
