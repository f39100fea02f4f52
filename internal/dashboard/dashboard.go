// Package dashboard aggregates meeting lists for the member and manager
// dashboards.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"audiosales/web-gateway/internal/cache"
	"audiosales/web-gateway/models"
)

// Cache kinds owned by this package.
const (
	KindUserMeetings = "user-meetings"
	KindTeamMembers  = "team-members"
)

// Backend is the subset of the backend client dashboards need.
type Backend interface {
	ListMeetings(ctx context.Context, userID int) ([]models.Meeting, error)
	ListUsers(ctx context.Context, managerID int) ([]models.User, error)
}

// Counts tallies meetings by status.
type Counts map[string]int

// Summary is the aggregate over a list of meetings.
type Summary struct {
	Meetings        int    `json:"meetings"`
	DurationSeconds int    `json:"duration_seconds"`
	ByStatus        Counts `json:"by_status"`
}

// UserDashboard is a member's own view.
type UserDashboard struct {
	Meetings []models.Meeting `json:"meetings"`
	Summary  Summary          `json:"summary"`
}

// MemberRow is one team member on the manager dashboard.
type MemberRow struct {
	User     models.User      `json:"user"`
	Meetings []models.Meeting `json:"meetings"`
	Summary  Summary          `json:"summary"`
}

// ManagerDashboard is the team view.
type ManagerDashboard struct {
	Members []MemberRow `json:"members"`
	Totals  Summary     `json:"totals"`
}

// Service builds dashboards from cached backend lists.
type Service struct {
	cache  *cache.Layer
	fanout int
}

// NewService registers this package's loaders on layer.
func NewService(backend Backend, layer *cache.Layer) *Service {
	layer.Register(KindUserMeetings, func(ctx context.Context, id string) (interface{}, error) {
		userID, err := strconv.Atoi(id)
		if err != nil {
			return nil, err
		}
		return backend.ListMeetings(ctx, userID)
	})
	layer.Register(KindTeamMembers, func(ctx context.Context, id string) (interface{}, error) {
		managerID, err := strconv.Atoi(id)
		if err != nil {
			return nil, err
		}
		users, err := backend.ListUsers(ctx, managerID)
		if err != nil {
			return nil, err
		}
		// the backend filter is advisory; keep only direct reports
		team := make([]models.User, 0, len(users))
		for _, u := range users {
			if u.ManagerID != nil && *u.ManagerID == managerID {
				team = append(team, u)
			}
		}
		return team, nil
	})
	return &Service{cache: layer, fanout: 8}
}

// MeetingsKey is the cache key of a user's meeting list; writers that add
// meetings invalidate it.
func MeetingsKey(userID int) cache.Key {
	return cache.Key{Kind: KindUserMeetings, ID: strconv.Itoa(userID)}
}

func teamKey(managerID int) cache.Key {
	return cache.Key{Kind: KindTeamMembers, ID: strconv.Itoa(managerID)}
}

// Meetings returns the user's meetings, newest first.
func (s *Service) Meetings(ctx context.Context, userID int) ([]models.Meeting, error) {
	list, err := cache.Fetch[[]models.Meeting](ctx, s.cache, MeetingsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load meetings of user %d: %w", userID, err)
	}
	SortNewestFirst(list)
	return list, nil
}

// Manages reports whether userID is a direct report of managerID.
func (s *Service) Manages(ctx context.Context, managerID, userID int) (bool, error) {
	team, err := cache.Fetch[[]models.User](ctx, s.cache, teamKey(managerID))
	if err != nil {
		return false, fmt.Errorf("load team of manager %d: %w", managerID, err)
	}
	for _, u := range team {
		if u.ID == userID {
			return true, nil
		}
	}
	return false, nil
}

// ForUser builds the member dashboard.
func (s *Service) ForUser(ctx context.Context, userID int) (*UserDashboard, error) {
	list, err := s.Meetings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Meeting{}
	}
	return &UserDashboard{Meetings: list, Summary: Summarize(list)}, nil
}

// ForManager builds the team dashboard, loading members' meetings
// concurrently.
func (s *Service) ForManager(ctx context.Context, managerID int) (*ManagerDashboard, error) {
	team, err := cache.Fetch[[]models.User](ctx, s.cache, teamKey(managerID))
	if err != nil {
		return nil, fmt.Errorf("load team of manager %d: %w", managerID, err)
	}

	rows := make([]MemberRow, len(team))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for i, u := range team {
		g.Go(func() error {
			list, err := s.Meetings(gctx, u.ID)
			if err != nil {
				return err
			}
			if list == nil {
				list = []models.Meeting{}
			}
			rows[i] = MemberRow{User: u, Meetings: list, Summary: Summarize(list)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := Summary{ByStatus: Counts{}}
	for _, r := range rows {
		totals.Meetings += r.Summary.Meetings
		totals.DurationSeconds += r.Summary.DurationSeconds
		for st, n := range r.Summary.ByStatus {
			totals.ByStatus[st] += n
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].User.Name < rows[j].User.Name })
	return &ManagerDashboard{Members: rows, Totals: totals}, nil
}

// Summarize counts meetings, total duration and per-status tallies.
func Summarize(list []models.Meeting) Summary {
	s := Summary{ByStatus: Counts{}}
	for _, m := range list {
		s.Meetings++
		s.DurationSeconds += m.DurationSeconds
		st := m.Status
		if st == "" {
			st = "unknown"
		}
		s.ByStatus[st]++
	}
	return s
}

// SortNewestFirst orders meetings by meeting time, then id, descending.
func SortNewestFirst(list []models.Meeting) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].MeetingDatetime != list[j].MeetingDatetime {
			return list[i].MeetingDatetime > list[j].MeetingDatetime
		}
		return list[i].ID > list[j].ID
	})
}
