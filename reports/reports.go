// Package reports lets users flag content and admins resolve the flags.
package reports

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/bridge"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/notify"
	"github.com/hackcelestial/sports-bridge/store"
)

var log = logger.Get()
var reportLogger = log.WithField("prefix", "REPORTS")

// Entity types that can be reported.
const (
	EntityUser        = "USER"
	EntityPost        = "POST"
	EntityAchievement = "ACHIEVEMENT"
)

type Service struct {
	store  store.Store
	notify *notify.Service
	now    func() time.Time
}

func NewService(s store.Store, n *notify.Service) *Service {
	return &Service{store: s, notify: n, now: func() time.Time { return time.Now().UTC() }}
}

type FileRequest struct {
	EntityType  string `json:"reportedEntityType"`
	EntityID    int64  `json:"reportedEntityId"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

func (s *Service) exists(ctx context.Context, kind string, id int64) error {
	var err error
	switch kind {
	case EntityUser:
		_, err = s.store.Users().Get(ctx, id)
	case EntityPost:
		_, err = s.store.Posts().Get(ctx, id)
	case EntityAchievement:
		_, err = s.store.Achievements().Get(ctx, id)
	}
	return err
}

// File records a report against a user, post or achievement.
func (s *Service) File(ctx context.Context, reporter *bridge.User, req FileRequest) (*bridge.Report, *bridge.HttpError) {
	kind := strings.ToUpper(strings.TrimSpace(req.EntityType))
	if kind != EntityUser && kind != EntityPost && kind != EntityAchievement {
		return nil, bridge.BadRequest("Invalid reported entity type", nil)
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, bridge.BadRequest("Reason is required", nil)
	}
	if err := s.exists(ctx, kind, req.EntityID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, bridge.NotFound("Reported entity not found", err)
		}
		return nil, bridge.Internal("Could not file report", err)
	}
	r := &bridge.Report{
		ReporterID:         reporter.ID,
		ReportedEntityType: kind,
		ReportedEntityID:   req.EntityID,
		Reason:             reason,
		Description:        strings.TrimSpace(req.Description),
		CreatedAt:          s.now(),
	}
	if err := s.store.Reports().Create(ctx, r); err != nil {
		return nil, bridge.Internal("Could not file report", err)
	}
	reportLogger.WithFields(logrus.Fields{"report": r.ID, "entity": kind}).Info("Report filed")
	return r, nil
}

func (s *Service) List(ctx context.Context, onlyOpen bool) ([]*bridge.Report, *bridge.HttpError) {
	out, err := s.store.Reports().List(ctx, onlyOpen)
	if err != nil {
		return nil, bridge.Internal("Could not load reports", err)
	}
	return out, nil
}

// Resolve closes a report. reviewer is nil when the admin API secret was used.
func (s *Service) Resolve(ctx context.Context, reviewer *bridge.User, id int64, conclusion string) (*bridge.Report, *bridge.HttpError) {
	r, err := s.store.Reports().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.NotFound("Report not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load report", err)
	}
	if r.Solved {
		return nil, bridge.Conflict("Report already resolved", nil)
	}
	conclusion = strings.TrimSpace(conclusion)
	if conclusion == "" {
		return nil, bridge.BadRequest("Conclusion is required", nil)
	}
	var reviewerID *int64
	if reviewer != nil {
		reviewerID = &reviewer.ID
	}
	at := s.now()
	if err := s.store.Reports().Resolve(ctx, id, reviewerID, conclusion, at); err != nil {
		return nil, bridge.Internal("Could not resolve report", err)
	}
	r.Solved, r.Conclusion, r.ReviewedBy, r.ReviewedAt = true, conclusion, reviewerID, &at
	if s.notify != nil {
		s.notify.Notify(ctx, r.ReporterID, "Your report was reviewed: "+conclusion)
	}
	return r, nil
}
