package training

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/store"
)

type AchievementRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	CompetitionName string `json:"competitionName"`
	CertificateURL  string `json:"certificateUrl"`
	// AchievementDate is YYYY-MM-DD.
	AchievementDate string `json:"achievementDate"`
	RankPosition    *int   `json:"rankPosition"`
}

// AddAchievement records an achievement. certificate may be nil.
func (s *Service) AddAchievement(ctx context.Context, u *bridge.User, req AchievementRequest, certificate io.Reader) (*bridge.Achievement, *bridge.HttpError) {
	if u.Role != bridge.RoleAthlete {
		return nil, bridge.Forbidden("Only athletes can add achievements", nil)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, bridge.BadRequest("Title is required", nil)
	}
	a := &bridge.Achievement{
		AthleteID:       u.ID,
		Title:           title,
		Description:     strings.TrimSpace(req.Description),
		CompetitionName: strings.TrimSpace(req.CompetitionName),
		CertificateURL:  strings.TrimSpace(req.CertificateURL),
		RankPosition:    req.RankPosition,
		CreatedAt:       s.now(),
	}
	if d := strings.TrimSpace(req.AchievementDate); d != "" {
		day, err := time.Parse(dayKey, d)
		if err != nil {
			return nil, bridge.BadRequest("Achievement date must be YYYY-MM-DD", err)
		}
		a.AchievementDate = &day
	}
	if a.RankPosition != nil && *a.RankPosition < 1 {
		return nil, bridge.BadRequest("Rank must be at least 1", nil)
	}
	if certificate != nil {
		if s.uploads == nil {
			return nil, bridge.BadRequest("Uploads are not configured", nil)
		}
		url, httpErr := s.uploads.SaveImage(ctx, "certificates", certificate)
		if httpErr != nil {
			return nil, httpErr
		}
		a.CertificateURL = url
	}
	if err := s.store.Achievements().Create(ctx, a); err != nil {
		return nil, bridge.Internal("Could not save achievement", err)
	}
	return a, nil
}

func (s *Service) MyAchievements(ctx context.Context, u *bridge.User) ([]*bridge.Achievement, *bridge.HttpError) {
	return s.AchievementsOf(ctx, u.ID)
}

func (s *Service) AchievementsOf(ctx context.Context, userID int64) ([]*bridge.Achievement, *bridge.HttpError) {
	out, err := s.store.Achievements().ByAthlete(ctx, userID)
	if err != nil {
		return nil, bridge.Internal("Could not load achievements", err)
	}
	return out, nil
}

func (s *Service) DeleteAchievement(ctx context.Context, u *bridge.User, id int64) *bridge.HttpError {
	a, err := s.store.Achievements().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return bridge.NotFound("Achievement not found", err)
	}
	if err != nil {
		return bridge.Internal("Could not load achievement", err)
	}
	if a.AthleteID != u.ID {
		return bridge.Forbidden("You can only delete your own achievements", nil)
	}
	if err := s.store.Achievements().Delete(ctx, id); err != nil {
		return bridge.Internal("Could not delete achievement", err)
	}
	return nil
}
