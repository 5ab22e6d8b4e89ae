package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/store"
)

// Profile is a user with the profile matching their role.
type Profile struct {
	User    *bridge.User           `json:"user"`
	Athlete *bridge.AthleteProfile `json:"athleteProfile,omitempty"`
	Coach   *bridge.CoachProfile   `json:"coachProfile,omitempty"`
	Sponsor *bridge.SponsorProfile `json:"sponsorProfile,omitempty"`
	Sport   *bridge.Sport          `json:"sport,omitempty"`
}

// ProfilePatch carries optional updates; nil fields are left untouched.
// Role specific fields only apply to users of that role.
type ProfilePatch struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`

	Height                *float64 `json:"height"`
	Weight                *float64 `json:"weight"`
	IsDisabled            *bool    `json:"isDisabled"`
	DisabilityType        *string  `json:"disabilityType"`
	EmergencyContactName  *string  `json:"emergencyContactName"`
	EmergencyContactPhone *string  `json:"emergencyContactPhone"`
	SportID               *int64   `json:"sportId"`
	Sport                 *string  `json:"sport"`

	Authority       *string `json:"authority"`
	Specialization  *string `json:"specialization"`
	ExperienceYears *int    `json:"experienceYears"`

	State    *string `json:"state"`
	District *string `json:"district"`

	CompanyName *string `json:"companyName"`
	Industry    *string `json:"industry"`
	Website     *string `json:"website"`
	BudgetRange *string `json:"budgetRange"`
}

func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, *bridge.HttpError) {
	u, err := s.store.Users().Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.NotFound("User not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load user", err)
	}
	return s.profileOf(ctx, u)
}

// PublicProfile hides contact details of other users.
func (s *Service) PublicProfile(ctx context.Context, userID int64) (*Profile, *bridge.HttpError) {
	p, httpErr := s.Profile(ctx, userID)
	if httpErr != nil {
		return nil, httpErr
	}
	public := *p.User
	public.Phone = ""
	p.User = &public
	if p.Athlete != nil {
		athlete := *p.Athlete
		athlete.EmergencyContactName = ""
		athlete.EmergencyContactPhone = ""
		p.Athlete = &athlete
	}
	return p, nil
}

func (s *Service) profileOf(ctx context.Context, u *bridge.User) (*Profile, *bridge.HttpError) {
	p := &Profile{User: u}
	var err error
	switch u.Role {
	case bridge.RoleAthlete:
		p.Athlete, err = s.store.Profiles().Athlete(ctx, u.ID)
		if err == nil && p.Athlete.SportID != nil {
			p.Sport, err = s.store.Sports().Get(ctx, *p.Athlete.SportID)
		}
	case bridge.RoleCoach:
		p.Coach, err = s.store.Profiles().Coach(ctx, u.ID)
	case bridge.RoleSponsor:
		p.Sponsor, err = s.store.Profiles().Sponsor(ctx, u.ID)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, bridge.Internal("Could not load profile", err)
	}
	return p, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// UpdateProfile applies patch to the user and the profile of their role.
func (s *Service) UpdateProfile(ctx context.Context, u *bridge.User, patch ProfilePatch) (*Profile, *bridge.HttpError) {
	if patch.FullName != nil && strings.TrimSpace(*patch.FullName) == "" {
		return nil, bridge.BadRequest("Full name cannot be empty", nil)
	}
	setTrimmed(&u.FullName, patch.FullName)
	setTrimmed(&u.Email, patch.Email)
	set(&u.Bio, patch.Bio)
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, bridge.Internal("Could not update user", err)
	}

	profiles := s.store.Profiles()
	var err error
	switch u.Role {
	case bridge.RoleAthlete:
		p, getErr := profiles.Athlete(ctx, u.ID)
		if errors.Is(getErr, store.ErrNotFound) {
			p, getErr = &bridge.AthleteProfile{UserID: u.ID}, nil
		}
		if getErr != nil {
			return nil, bridge.Internal("Could not load profile", getErr)
		}
		set(&p.Height, patch.Height)
		set(&p.Weight, patch.Weight)
		set(&p.IsDisabled, patch.IsDisabled)
		setTrimmed(&p.DisabilityType, patch.DisabilityType)
		setTrimmed(&p.EmergencyContactName, patch.EmergencyContactName)
		setTrimmed(&p.EmergencyContactPhone, patch.EmergencyContactPhone)
		setTrimmed(&p.State, patch.State)
		setTrimmed(&p.District, patch.District)
		if httpErr := s.applySport(ctx, p, patch); httpErr != nil {
			return nil, httpErr
		}
		err = profiles.SaveAthlete(ctx, p)
	case bridge.RoleCoach:
		p, getErr := profiles.Coach(ctx, u.ID)
		if errors.Is(getErr, store.ErrNotFound) {
			p, getErr = &bridge.CoachProfile{UserID: u.ID}, nil
		}
		if getErr != nil {
			return nil, bridge.Internal("Could not load profile", getErr)
		}
		setTrimmed(&p.Authority, patch.Authority)
		setTrimmed(&p.Specialization, patch.Specialization)
		set(&p.ExperienceYears, patch.ExperienceYears)
		setTrimmed(&p.State, patch.State)
		setTrimmed(&p.District, patch.District)
		err = profiles.SaveCoach(ctx, p)
	case bridge.RoleSponsor:
		p, getErr := profiles.Sponsor(ctx, u.ID)
		if errors.Is(getErr, store.ErrNotFound) {
			p, getErr = &bridge.SponsorProfile{UserID: u.ID}, nil
		}
		if getErr != nil {
			return nil, bridge.Internal("Could not load profile", getErr)
		}
		setTrimmed(&p.CompanyName, patch.CompanyName)
		setTrimmed(&p.Industry, patch.Industry)
		setTrimmed(&p.Website, patch.Website)
		setTrimmed(&p.BudgetRange, patch.BudgetRange)
		err = profiles.SaveSponsor(ctx, p)
	}
	if err != nil {
		return nil, bridge.Internal("Could not update profile", err)
	}
	return s.profileOf(ctx, u)
}

// applySport resolves the sport by id or by name. Unknown sports are rejected.
func (s *Service) applySport(ctx context.Context, p *bridge.AthleteProfile, patch ProfilePatch) *bridge.HttpError {
	var sp *bridge.Sport
	var err error
	switch {
	case patch.SportID != nil:
		sp, err = s.store.Sports().Get(ctx, *patch.SportID)
	case patch.Sport != nil && strings.TrimSpace(*patch.Sport) != "":
		sp, err = s.store.Sports().GetByName(ctx, *patch.Sport)
	default:
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return bridge.BadRequest("Unknown sport", err)
	}
	if err != nil {
		return bridge.Internal("Could not load sport", err)
	}
	p.SportID = &sp.ID
	return nil
}

// Sports lists every sport for pickers.
func (s *Service) Sports(ctx context.Context) ([]*bridge.Sport, *bridge.HttpError) {
	sports, err := s.store.Sports().List(ctx)
	if err != nil {
		return nil, bridge.Internal("Could not load sports", err)
	}
	return sports, nil
}

// AddSport registers a sport by name. Names are unique regardless of case.
func (s *Service) AddSport(ctx context.Context, name, description string) (*bridge.Sport, *bridge.HttpError) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, bridge.BadRequest("Sport name is required", nil)
	}
	if _, err := s.store.Sports().GetByName(ctx, name); err == nil {
		return nil, bridge.Conflict("Sport already exists", nil)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, bridge.Internal("Could not load sport", err)
	}
	sp := &bridge.Sport{Name: name, Description: strings.TrimSpace(description), CreatedAt: s.now()}
	if err := s.store.Sports().Create(ctx, sp); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, bridge.Conflict("Sport already exists", err)
		}
		return nil, bridge.Internal("Could not save sport", err)
	}
	return sp, nil
}
