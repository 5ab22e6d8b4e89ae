// Package sponsorship handles sponsors' offers to athletes.
package sponsorship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/bridge"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/notify"
	"github.com/hackcelestial/sports-bridge/store"
)

var log = logger.Get()
var sponsorLogger = log.WithField("prefix", "SPONSORSHIP")

const dateLayout = "2006-01-02"

type Service struct {
	store  store.Store
	notify *notify.Service
	now    func() time.Time
}

func NewService(s store.Store, n *notify.Service) *Service {
	return &Service{store: s, notify: n, now: func() time.Time { return time.Now().UTC() }}
}

type OfferRequest struct {
	AthleteID int64  `json:"athleteId"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Terms     string `json:"terms"`
	// Dates are YYYY-MM-DD and optional.
	ContractStartDate string `json:"contractStartDate"`
	ContractEndDate   string `json:"contractEndDate"`
}

type SponsorInfo struct {
	bridge.UserSummary
	CompanyName string `json:"companyName,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Website     string `json:"website,omitempty"`
	BudgetRange string `json:"budgetRange,omitempty"`
}

type AthleteInfo struct {
	bridge.UserSummary
	Sport    string `json:"sport,omitempty"`
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
}

// View is a sponsorship with both parties attached.
type View struct {
	*bridge.Sponsorship
	Sponsor SponsorInfo `json:"sponsor"`
	Athlete AthleteInfo `json:"athlete"`
}

type AthleteOverview struct {
	Sponsorships       []View `json:"sponsorships"`
	ActiveSponsorships []View `json:"activeSponsorships"`
	TotalCount         int    `json:"totalCount"`
	ActiveCount        int    `json:"activeCount"`
}

func parseDate(field, v string) (*time.Time, *bridge.HttpError) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, bridge.BadRequest(field+" must be YYYY-MM-DD", err)
	}
	return &d, nil
}

// Offer creates a PENDING sponsorship from sponsor to an athlete.
func (s *Service) Offer(ctx context.Context, sponsor *bridge.User, req OfferRequest) (*View, *bridge.HttpError) {
	if sponsor.Role != bridge.RoleSponsor {
		return nil, bridge.Forbidden("Only sponsors can offer sponsorships", nil)
	}
	athlete, err := s.store.Users().Get(ctx, req.AthleteID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.NotFound("Athlete not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load athlete", err)
	}
	if athlete.Role != bridge.RoleAthlete {
		return nil, bridge.BadRequest("Sponsorships can only be offered to athletes", nil)
	}
	if req.Amount <= 0 {
		return nil, bridge.BadRequest("Amount must be positive", nil)
	}
	currency, err := bridge.ParseCurrency(req.Currency)
	if err != nil {
		return nil, bridge.BadRequest("Invalid currency", err)
	}
	start, httpErr := parseDate("Contract start date", req.ContractStartDate)
	if httpErr != nil {
		return nil, httpErr
	}
	end, httpErr := parseDate("Contract end date", req.ContractEndDate)
	if httpErr != nil {
		return nil, httpErr
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, bridge.BadRequest("Contract end date is before its start date", nil)
	}

	sp := &bridge.Sponsorship{
		SponsorID:         sponsor.ID,
		AthleteID:         athlete.ID,
		Amount:            req.Amount,
		Currency:          currency,
		Terms:             strings.TrimSpace(req.Terms),
		Status:            bridge.StatusPending,
		ContractStartDate: start,
		ContractEndDate:   end,
		CreatedAt:         s.now(),
	}
	if err := s.store.Sponsorships().Create(ctx, sp); err != nil {
		return nil, bridge.Internal("Could not save sponsorship", err)
	}
	if s.notify != nil {
		s.notify.Notify(ctx, athlete.ID, fmt.Sprintf("%s offered you a sponsorship of %d %s", sponsor.FullName, sp.Amount, sp.Currency))
	}
	sponsorLogger.WithFields(logrus.Fields{"sponsorship": sp.ID, "athlete": athlete.ID}).Info("Sponsorship offered")
	views, err := s.views(ctx, []*bridge.Sponsorship{sp})
	if err != nil {
		return nil, bridge.Internal("Could not load sponsorship", err)
	}
	return &views[0], nil
}

func (s *Service) load(ctx context.Context, id int64) (*bridge.Sponsorship, *bridge.HttpError) {
	sp, err := s.store.Sponsorships().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.NotFound("Sponsorship not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load sponsorship", err)
	}
	return sp, nil
}

// Respond lets the athlete accept or decline a pending offer.
func (s *Service) Respond(ctx context.Context, athlete *bridge.User, id int64, status string) (*View, *bridge.HttpError) {
	to, err := bridge.ParseInvitationStatus(status)
	if err != nil || !bridge.StatusPending.CanTransition(to) {
		return nil, bridge.BadRequest("Invalid status", err)
	}
	sp, httpErr := s.load(ctx, id)
	if httpErr != nil {
		return nil, httpErr
	}
	if sp.AthleteID != athlete.ID {
		return nil, bridge.Forbidden("Only the athlete can respond to this offer", nil)
	}
	if sp.Status != bridge.StatusPending {
		return nil, bridge.Conflict("Sponsorship already "+strings.ToLower(string(sp.Status)), nil)
	}
	at := s.now()
	if err := s.store.Sponsorships().SetStatus(ctx, id, to, at); err != nil {
		return nil, bridge.Internal("Could not update sponsorship", err)
	}
	sp.Status, sp.RespondedAt = to, &at
	if s.notify != nil {
		s.notify.Notify(ctx, sp.SponsorID, fmt.Sprintf("%s %s your sponsorship offer", athlete.FullName, strings.ToLower(string(to))))
	}
	views, err := s.views(ctx, []*bridge.Sponsorship{sp})
	if err != nil {
		return nil, bridge.Internal("Could not load sponsorship", err)
	}
	return &views[0], nil
}

func (s *Service) ForAthlete(ctx context.Context, athlete *bridge.User) (*AthleteOverview, *bridge.HttpError) {
	if athlete.Role != bridge.RoleAthlete {
		return nil, bridge.Forbidden("Only athletes receive sponsorships", nil)
	}
	list, err := s.store.Sponsorships().ByAthlete(ctx, athlete.ID)
	if err != nil {
		return nil, bridge.Internal("Could not load sponsorships", err)
	}
	views, err := s.views(ctx, list)
	if err != nil {
		return nil, bridge.Internal("Could not load sponsorships", err)
	}
	res := &AthleteOverview{Sponsorships: views, ActiveSponsorships: []View{}, TotalCount: len(views)}
	today := s.now()
	for _, v := range views {
		if v.IsActive(today) {
			res.ActiveSponsorships = append(res.ActiveSponsorships, v)
		}
	}
	res.ActiveCount = len(res.ActiveSponsorships)
	return res, nil
}

func (s *Service) ForSponsor(ctx context.Context, sponsor *bridge.User) ([]View, *bridge.HttpError) {
	if sponsor.Role != bridge.RoleSponsor {
		return nil, bridge.Forbidden("Only sponsors can list their offers", nil)
	}
	list, err := s.store.Sponsorships().BySponsor(ctx, sponsor.ID)
	if err != nil {
		return nil, bridge.Internal("Could not load sponsorships", err)
	}
	views, err := s.views(ctx, list)
	if err != nil {
		return nil, bridge.Internal("Could not load sponsorships", err)
	}
	return views, nil
}

// Get shows one sponsorship to either party or an admin.
func (s *Service) Get(ctx context.Context, u *bridge.User, id int64) (*View, *bridge.HttpError) {
	sp, httpErr := s.load(ctx, id)
	if httpErr != nil {
		return nil, httpErr
	}
	if sp.SponsorID != u.ID && sp.AthleteID != u.ID && u.Role != bridge.RoleAdmin {
		return nil, bridge.Forbidden("Not a party to this sponsorship", nil)
	}
	views, err := s.views(ctx, []*bridge.Sponsorship{sp})
	if err != nil {
		return nil, bridge.Internal("Could not load sponsorship", err)
	}
	return &views[0], nil
}

func (s *Service) views(ctx context.Context, list []*bridge.Sponsorship) ([]View, error) {
	out := make([]View, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(list)*2)
	for _, sp := range list {
		ids = append(ids, sp.SponsorID, sp.AthleteID)
	}
	users, err := s.store.Users().ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sponsors := map[int64]SponsorInfo{}
	athletes := map[int64]AthleteInfo{}
	for _, sp := range list {
		si, ok := sponsors[sp.SponsorID]
		if !ok {
			if si, err = s.sponsorInfo(ctx, users[sp.SponsorID]); err != nil {
				return nil, err
			}
			sponsors[sp.SponsorID] = si
		}
		ai, ok := athletes[sp.AthleteID]
		if !ok {
			if ai, err = s.athleteInfo(ctx, users[sp.AthleteID]); err != nil {
				return nil, err
			}
			athletes[sp.AthleteID] = ai
		}
		out = append(out, View{Sponsorship: sp, Sponsor: si, Athlete: ai})
	}
	return out, nil
}

func (s *Service) sponsorInfo(ctx context.Context, u *bridge.User) (SponsorInfo, error) {
	info := SponsorInfo{UserSummary: u.Summary()}
	if u == nil {
		return info, nil
	}
	p, err := s.store.Profiles().Sponsor(ctx, u.ID)
	if errors.Is(err, store.ErrNotFound) {
		return info, nil
	}
	if err != nil {
		return info, err
	}
	info.CompanyName, info.Industry, info.Website, info.BudgetRange = p.CompanyName, p.Industry, p.Website, p.BudgetRange
	return info, nil
}

func (s *Service) athleteInfo(ctx context.Context, u *bridge.User) (AthleteInfo, error) {
	info := AthleteInfo{UserSummary: u.Summary()}
	if u == nil {
		return info, nil
	}
	p, err := s.store.Profiles().Athlete(ctx, u.ID)
	if errors.Is(err, store.ErrNotFound) {
		return info, nil
	}
	if err != nil {
		return info, err
	}
	info.State, info.District = p.State, p.District
	if p.SportID != nil {
		if sp, err := s.store.Sports().Get(ctx, *p.SportID); err == nil {
			info.Sport = sp.Name
		}
	}
	return info, nil
}
