// Package coaching tracks which coach trains which athlete.
package coaching

import (
	"context"
	"errors"
	"time"

	"github.com/hackcelestial/sports-bridge/bridge"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/notify"
	"github.com/hackcelestial/sports-bridge/store"
)

var log = logger.Get()
var coachingLogger = log.WithField("prefix", "COACHING")

type Service struct {
	store  store.Store
	notify *notify.Service
	now    func() time.Time
}

func NewService(s store.Store, n *notify.Service) *Service {
	return &Service{store: s, notify: n, now: func() time.Time { return time.Now().UTC() }}
}

// Relationship is a coaching relationship with both parties attached.
type Relationship struct {
	*bridge.CoachRelationship
	Coach   bridge.UserSummary `json:"coach"`
	Athlete bridge.UserSummary `json:"athlete"`
}

type MyCoach struct {
	Current *Relationship  `json:"currentCoach"`
	Past    []Relationship `json:"pastCoaches"`
}

type CoachView struct {
	Coach        bridge.UserSummary   `json:"coach"`
	Bio          string               `json:"bio,omitempty"`
	Profile      *bridge.CoachProfile `json:"profile"`
	AthleteCount int                  `json:"athleteCount"`
}

func (s *Service) attach(ctx context.Context, rels []*bridge.CoachRelationship) ([]Relationship, error) {
	out := make([]Relationship, 0, len(rels))
	if len(rels) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(rels)*2)
	for _, r := range rels {
		ids = append(ids, r.CoachID, r.AthleteID)
	}
	users, err := s.store.Users().ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range rels {
		out = append(out, Relationship{
			CoachRelationship: r,
			Coach:             users[r.CoachID].Summary(),
			Athlete:           users[r.AthleteID].Summary(),
		})
	}
	return out, nil
}

// Current returns the athlete's active relationship, or nil when there is none.
func (s *Service) Current(ctx context.Context, athleteID int64) (*bridge.CoachRelationship, error) {
	rel, err := s.store.Coaching().Active(ctx, athleteID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return rel, err
}

// MyCoach lists the athlete's current coach and everyone who coached them before.
func (s *Service) MyCoach(ctx context.Context, u *bridge.User) (*MyCoach, *bridge.HttpError) {
	if u.Role != bridge.RoleAthlete {
		return nil, bridge.Forbidden("Only athletes have coaches", nil)
	}
	rels, err := s.store.Coaching().ByAthlete(ctx, u.ID)
	if err != nil {
		return nil, bridge.Internal("Could not load coaches", err)
	}
	views, err := s.attach(ctx, rels)
	if err != nil {
		return nil, bridge.Internal("Could not load coaches", err)
	}
	res := &MyCoach{Past: []Relationship{}}
	for i := range views {
		if views[i].Active && res.Current == nil {
			res.Current = &views[i]
			continue
		}
		res.Past = append(res.Past, views[i])
	}
	return res, nil
}

func (s *Service) MyAthletes(ctx context.Context, u *bridge.User) ([]Relationship, *bridge.HttpError) {
	if u.Role != bridge.RoleCoach {
		return nil, bridge.Forbidden("Only coaches have athletes", nil)
	}
	rels, err := s.store.Coaching().ActiveByCoach(ctx, u.ID)
	if err != nil {
		return nil, bridge.Internal("Could not load athletes", err)
	}
	views, err := s.attach(ctx, rels)
	if err != nil {
		return nil, bridge.Internal("Could not load athletes", err)
	}
	return views, nil
}

func (s *Service) CoachProfile(ctx context.Context, coachID int64) (*CoachView, *bridge.HttpError) {
	u, err := s.store.Users().Get(ctx, coachID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && u.Role != bridge.RoleCoach) {
		return nil, bridge.NotFound("Coach not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load coach", err)
	}
	view := &CoachView{Coach: u.Summary(), Bio: u.Bio, Profile: &bridge.CoachProfile{UserID: u.ID}}
	p, err := s.store.Profiles().Coach(ctx, u.ID)
	switch {
	case err == nil:
		view.Profile = p
	case !errors.Is(err, store.ErrNotFound):
		return nil, bridge.Internal("Could not load coach", err)
	}
	athletes, err := s.store.Coaching().ActiveByCoach(ctx, u.ID)
	if err != nil {
		return nil, bridge.Internal("Could not load coach", err)
	}
	view.AthleteCount = len(athletes)
	return view, nil
}

// End finishes the athlete's active coaching relationship and tells the coach.
func (s *Service) End(ctx context.Context, u *bridge.User) *bridge.HttpError {
	if u.Role != bridge.RoleAthlete {
		return bridge.Forbidden("Only athletes can end coaching", nil)
	}
	rel, err := s.Current(ctx, u.ID)
	if err != nil {
		return bridge.Internal("Could not load coach", err)
	}
	if rel == nil {
		return bridge.NotFound("No active coach", nil)
	}
	if err := s.store.Coaching().End(ctx, rel.ID, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return bridge.NotFound("No active coach", err)
		}
		return bridge.Internal("Could not end coaching", err)
	}
	if s.notify != nil {
		s.notify.Notify(ctx, rel.CoachID, u.FullName+" ended the coaching relationship")
	}
	return nil
}
