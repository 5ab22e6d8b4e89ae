// Package training records athletes' daily training logs and achievements.
package training

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/bridge"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/store"
	"github.com/hackcelestial/sports-bridge/uploads"
)

var log = logger.Get()
var trainingLogger = log.WithField("prefix", "TRAINING")

const (
	DefaultChartDays = 7
	MaxChartDays     = 365
	chartLabel       = "Jan 02"
	dayKey           = "2006-01-02"
)

type Service struct {
	store   store.Store
	uploads *uploads.Service
	now     func() time.Time
}

func NewService(s store.Store, up *uploads.Service) *Service {
	return &Service{store: s, uploads: up, now: func() time.Time { return time.Now().UTC() }}
}

type LogRequest struct {
	TrainingType     string `json:"trainingType"`
	TrainingDuration int    `json:"trainingDurationMinutes"`
	Notes            string `json:"notes"`
	SportID          *int64 `json:"sportId"`
}

type LogView struct {
	*bridge.DailyLog
	Sport *bridge.Sport `json:"sport,omitempty"`
}

type Today struct {
	Logs          []LogView `json:"logs"`
	TotalDuration int       `json:"totalDuration"`
}

type Stats struct {
	CurrentStreak         int   `json:"currentStreak"`
	TotalLifetimeDuration int64 `json:"totalLifetimeDuration"`
	TotalSessions         int   `json:"totalSessions"`
}

type Chart struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

type ChartData struct {
	Days              int   `json:"days"`
	DurationChart     Chart `json:"durationChart"`
	TrainingTypeChart Chart `json:"trainingTypeChart"`
}

func athleteOnly(u *bridge.User) *bridge.HttpError {
	if u.Role != bridge.RoleAthlete {
		return bridge.Forbidden("Only athletes can keep training logs", nil)
	}
	return nil
}

// streak counts consecutive calendar days ending on today that have a log.
func streak(days map[string]bool, today time.Time) int {
	n := 0
	for d := bridge.DayOf(today.UTC()); days[d.Format(dayKey)]; d = d.AddDate(0, 0, -1) {
		n++
	}
	return n
}

func logDays(logs []*bridge.DailyLog) map[string]bool {
	days := make(map[string]bool, len(logs))
	for _, l := range logs {
		days[l.CreatedAt.UTC().Format(dayKey)] = true
	}
	return days
}

// CreateLog records a session and stamps it with the running streak and lifetime total.
func (s *Service) CreateLog(ctx context.Context, u *bridge.User, req LogRequest) (*LogView, *bridge.HttpError) {
	if httpErr := athleteOnly(u); httpErr != nil {
		return nil, httpErr
	}
	kind := strings.TrimSpace(req.TrainingType)
	if kind == "" {
		return nil, bridge.BadRequest("Training type is required", nil)
	}
	if req.TrainingDuration <= 0 {
		return nil, bridge.BadRequest("Training duration must be positive", nil)
	}
	existing, err := s.store.DailyLogs().ByAthlete(ctx, u.ID)
	if err != nil {
		return nil, bridge.Internal("Could not load training logs", err)
	}
	now := s.now()
	l := &bridge.DailyLog{
		AthleteID:        u.ID,
		TrainingType:     kind,
		TrainingDuration: req.TrainingDuration,
		Notes:            strings.TrimSpace(req.Notes),
		CreatedAt:        now,
	}
	view := &LogView{DailyLog: l}
	if req.SportID != nil {
		if sp, err := s.store.Sports().Get(ctx, *req.SportID); err == nil {
			l.SportID, view.Sport = &sp.ID, sp
		}
	}

	total := req.TrainingDuration
	for _, e := range existing {
		total += e.TrainingDuration
	}
	days := logDays(existing)
	days[now.Format(dayKey)] = true
	l.TotalLifetimeDuration = total
	l.CurrentStreak = streak(days, now)

	if err := s.store.DailyLogs().Create(ctx, l); err != nil {
		return nil, bridge.Internal("Could not save training log", err)
	}
	trainingLogger.WithFields(logrus.Fields{"athlete": u.ID, "streak": l.CurrentStreak}).Debug("Training log saved")
	return view, nil
}

func (s *Service) withSports(ctx context.Context, logs []*bridge.DailyLog) ([]LogView, error) {
	sports := map[int64]*bridge.Sport{}
	out := make([]LogView, 0, len(logs))
	for _, l := range logs {
		v := LogView{DailyLog: l}
		if l.SportID != nil {
			sp, ok := sports[*l.SportID]
			if !ok {
				var err error
				if sp, err = s.store.Sports().Get(ctx, *l.SportID); err != nil && !errors.Is(err, store.ErrNotFound) {
					return nil, err
				}
				sports[*l.SportID] = sp
			}
			v.Sport = sp
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) MyLogs(ctx context.Context, u *bridge.User) ([]LogView, *bridge.HttpError) {
	if httpErr := athleteOnly(u); httpErr != nil {
		return nil, httpErr
	}
	logs, err := s.store.DailyLogs().ByAthlete(ctx, u.ID)
	if err != nil {
		return nil, bridge.Internal("Could not load training logs", err)
	}
	views, err := s.withSports(ctx, logs)
	if err != nil {
		return nil, bridge.Internal("Could not load training logs", err)
	}
	return views, nil
}

func (s *Service) Today(ctx context.Context, u *bridge.User) (*Today, *bridge.HttpError) {
	if httpErr := athleteOnly(u); httpErr != nil {
		return nil, httpErr
	}
	logs, err := s.store.DailyLogs().Since(ctx, u.ID, bridge.DayOf(s.now()))
	if err != nil {
		return nil, bridge.Internal("Could not load training logs", err)
	}
	views, err := s.withSports(ctx, logs)
	if err != nil {
		return nil, bridge.Internal("Could not load training logs", err)
	}
	res := &Today{Logs: views}
	for _, l := range logs {
		res.TotalDuration += l.TrainingDuration
	}
	return res, nil
}

func (s *Service) DeleteLog(ctx context.Context, u *bridge.User, id int64) *bridge.HttpError {
	l, err := s.store.DailyLogs().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return bridge.NotFound("Training log not found", err)
	}
	if err != nil {
		return bridge.Internal("Could not load training log", err)
	}
	if l.AthleteID != u.ID {
		return bridge.Forbidden("You can only delete your own logs", nil)
	}
	if err := s.store.DailyLogs().Delete(ctx, id); err != nil {
		return bridge.Internal("Could not delete training log", err)
	}
	return nil
}

func (s *Service) Stats(ctx context.Context, u *bridge.User) (*Stats, *bridge.HttpError) {
	if httpErr := athleteOnly(u); httpErr != nil {
		return nil, httpErr
	}
	return s.StatsOf(ctx, u.ID)
}

// StatsOf summarises any athlete's logs. Empty history gives zeros.
func (s *Service) StatsOf(ctx context.Context, athleteID int64) (*Stats, *bridge.HttpError) {
	logs, err := s.store.DailyLogs().ByAthlete(ctx, athleteID)
	if err != nil {
		return nil, bridge.Internal("Could not load training logs", err)
	}
	stats := &Stats{TotalSessions: len(logs)}
	if len(logs) == 0 {
		return stats, nil
	}
	for _, l := range logs {
		stats.TotalLifetimeDuration += int64(l.TrainingDuration)
	}
	stats.CurrentStreak = streak(logDays(logs), s.now())
	return stats, nil
}

// ClampDays applies the chart window default and bounds.
func ClampDays(days int) int {
	switch {
	case days == 0:
		return DefaultChartDays
	case days < 1:
		return 1
	case days > MaxChartDays:
		return MaxChartDays
	}
	return days
}

// ChartData aggregates the last days of training per day and per training type.
func (s *Service) ChartData(ctx context.Context, u *bridge.User, days int) (*ChartData, *bridge.HttpError) {
	if httpErr := athleteOnly(u); httpErr != nil {
		return nil, httpErr
	}
	days = ClampDays(days)
	start := bridge.DayOf(s.now()).AddDate(0, 0, -(days - 1))
	logs, err := s.store.DailyLogs().Since(ctx, u.ID, start)
	if err != nil {
		return nil, bridge.Internal("Could not load chart data", err)
	}

	perDay := make(map[string]int, days)
	perType := map[string]int{}
	for _, l := range logs {
		perDay[l.CreatedAt.UTC().Format(dayKey)] += l.TrainingDuration
		perType[l.TrainingType]++
	}

	res := &ChartData{
		Days:              days,
		DurationChart:     Chart{Labels: make([]string, 0, days), Data: make([]int, 0, days)},
		TrainingTypeChart: Chart{Labels: make([]string, 0, len(perType)), Data: make([]int, 0, len(perType))},
	}
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		res.DurationChart.Labels = append(res.DurationChart.Labels, d.Format(chartLabel))
		res.DurationChart.Data = append(res.DurationChart.Data, perDay[d.Format(dayKey)])
	}
	for kind := range perType {
		res.TrainingTypeChart.Labels = append(res.TrainingTypeChart.Labels, kind)
	}
	sort.Strings(res.TrainingTypeChart.Labels)
	for _, kind := range res.TrainingTypeChart.Labels {
		res.TrainingTypeChart.Data = append(res.TrainingTypeChart.Data, perType[kind])
	}
	return res, nil
}
