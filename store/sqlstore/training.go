package sqlstore

import (
	"context"
	"time"

	"github.com/hackcelestial/sports-bridge/bridge"
)

type dailyLogRepo struct{ s *Store }

func (r dailyLogRepo) Create(ctx context.Context, l *bridge.DailyLog) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO daily_logs
		(athlete_id, sport_id, training_type, training_duration_minutes, notes, current_streak, total_lifetime_duration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		l.AthleteID, l.SportID, l.TrainingType, l.TrainingDuration, l.Notes, l.CurrentStreak, l.TotalLifetimeDuration, l.CreatedAt)
	if err != nil {
		return err
	}
	l.ID = id
	return nil
}

func (r dailyLogRepo) Get(ctx context.Context, id int64) (*bridge.DailyLog, error) {
	l := &bridge.DailyLog{}
	if err := r.s.get(ctx, l, `SELECT * FROM daily_logs WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return l, nil
}

func (r dailyLogRepo) Delete(ctx context.Context, id int64) error {
	return r.s.exec(ctx, `DELETE FROM daily_logs WHERE id = ?`, id)
}

func (r dailyLogRepo) ByAthlete(ctx context.Context, athleteID int64) ([]*bridge.DailyLog, error) {
	logs := []*bridge.DailyLog{}
	err := r.s.sel(ctx, &logs, `SELECT * FROM daily_logs WHERE athlete_id = ?`+newestFirst, athleteID)
	return logs, err
}

func (r dailyLogRepo) Since(ctx context.Context, athleteID int64, since time.Time) ([]*bridge.DailyLog, error) {
	logs := []*bridge.DailyLog{}
	err := r.s.sel(ctx, &logs, `SELECT * FROM daily_logs WHERE athlete_id = ? AND created_at >= ?`+newestFirst, athleteID, since)
	return logs, err
}

func (r dailyLogRepo) TotalDuration(ctx context.Context, athleteID int64) (int64, error) {
	var total int64
	err := r.s.get(ctx, &total, `SELECT COALESCE(SUM(training_duration_minutes), 0) FROM daily_logs WHERE athlete_id = ?`, athleteID)
	return total, err
}

type achievementRepo struct{ s *Store }

func (r achievementRepo) Create(ctx context.Context, a *bridge.Achievement) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO achievements
		(athlete_id, title, description, competition_name, certificate_url, achievement_date, rank_position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		a.AthleteID, a.Title, a.Description, a.CompetitionName, a.CertificateURL, a.AchievementDate, a.RankPosition, a.CreatedAt)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (r achievementRepo) Get(ctx context.Context, id int64) (*bridge.Achievement, error) {
	a := &bridge.Achievement{}
	if err := r.s.get(ctx, a, `SELECT * FROM achievements WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return a, nil
}

func (r achievementRepo) Delete(ctx context.Context, id int64) error {
	return r.s.exec(ctx, `DELETE FROM achievements WHERE id = ?`, id)
}

func (r achievementRepo) ByAthlete(ctx context.Context, athleteID int64) ([]*bridge.Achievement, error) {
	out := []*bridge.Achievement{}
	err := r.s.sel(ctx, &out, `SELECT * FROM achievements WHERE athlete_id = ?`+newestFirst, athleteID)
	return out, err
}
