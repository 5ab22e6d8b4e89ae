package feed

import (
	"context"
	"errors"
	"strings"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/store"
)

// PersonHit is a user found by global search with the profile fields that matched.
type PersonHit struct {
	bridge.UserSummary
	Bio      string `json:"bio,omitempty"`
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type GlobalResults struct {
	Query        string      `json:"query"`
	Posts        []PostView  `json:"posts"`
	Athletes     []PersonHit `json:"athletes"`
	Coaches      []PersonHit `json:"coaches"`
	Sponsors     []PersonHit `json:"sponsors"`
	TotalResults int         `json:"totalResults"`
}

// GlobalSearch looks through posts and people. Results are cached briefly per query.
// An empty query has no results.
func (s *Service) GlobalSearch(ctx context.Context, query string) (*GlobalResults, *bridge.HttpError) {
	q := strings.ToLower(strings.TrimSpace(query))
	res := &GlobalResults{Query: q, Posts: []PostView{}, Athletes: []PersonHit{}, Coaches: []PersonHit{}, Sponsors: []PersonHit{}}
	if q == "" {
		return res, nil
	}
	if cached, ok := s.search.Get(q); ok {
		return cached.(*GlobalResults), nil
	}

	posts, err := s.store.Posts().Search(ctx, q)
	if err != nil {
		return nil, bridge.Internal("Could not search posts", err)
	}
	if res.Posts, err = s.views(ctx, nil, posts); err != nil {
		return nil, bridge.Internal("Could not search posts", err)
	}
	for _, role := range []bridge.Role{bridge.RoleAthlete, bridge.RoleCoach, bridge.RoleSponsor} {
		hits, err := s.people(ctx, role, q)
		if err != nil {
			return nil, bridge.Internal("Could not search people", err)
		}
		switch role {
		case bridge.RoleAthlete:
			res.Athletes = hits
		case bridge.RoleCoach:
			res.Coaches = hits
		case bridge.RoleSponsor:
			res.Sponsors = hits
		}
	}
	res.TotalResults = len(res.Posts) + len(res.Athletes) + len(res.Coaches) + len(res.Sponsors)
	s.search.SetDefault(q, res)
	return res, nil
}

func (s *Service) people(ctx context.Context, role bridge.Role, q string) ([]PersonHit, error) {
	users, err := s.store.Users().Search(ctx, role, q)
	if err != nil {
		return nil, err
	}
	hits := make([]PersonHit, 0, len(users))
	for _, u := range users {
		hit := PersonHit{UserSummary: u.Summary(), Bio: u.Bio}
		if err := s.decorate(ctx, u, &hit); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *Service) decorate(ctx context.Context, u *bridge.User, hit *PersonHit) error {
	profiles := s.store.Profiles()
	switch u.Role {
	case bridge.RoleAthlete:
		p, err := profiles.Athlete(ctx, u.ID)
		if err != nil {
			return err
		}
		hit.State, hit.District = p.State, p.District
		if p.SportID != nil {
			if sp, err := s.store.Sports().Get(ctx, *p.SportID); err == nil {
				hit.Detail = sp.Name
			}
		}
	case bridge.RoleCoach:
		p, err := profiles.Coach(ctx, u.ID)
		if err != nil {
			return err
		}
		hit.State, hit.District, hit.Detail = p.State, p.District, p.Specialization
	case bridge.RoleSponsor:
		p, err := profiles.Sponsor(ctx, u.ID)
		if err != nil {
			return err
		}
		hit.Detail = p.CompanyName
	}
	return nil
}
