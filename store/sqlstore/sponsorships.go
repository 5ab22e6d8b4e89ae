package sqlstore

import (
	"context"
	"time"

	"github.com/hackcelestial/sports-bridge/bridge"
)

type sponsorshipRepo struct{ s *Store }

func (r sponsorshipRepo) Create(ctx context.Context, sp *bridge.Sponsorship) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO sponsorships
		(sponsor_id, athlete_id, amount, currency, terms, status, contract_start_date, contract_end_date, created_at, responded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		sp.SponsorID, sp.AthleteID, sp.Amount, sp.Currency, sp.Terms, sp.Status,
		sp.ContractStartDate, sp.ContractEndDate, sp.CreatedAt, sp.RespondedAt)
	if err != nil {
		return err
	}
	sp.ID = id
	return nil
}

func (r sponsorshipRepo) Get(ctx context.Context, id int64) (*bridge.Sponsorship, error) {
	sp := &bridge.Sponsorship{}
	if err := r.s.get(ctx, sp, `SELECT * FROM sponsorships WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return sp, nil
}

func (r sponsorshipRepo) SetStatus(ctx context.Context, id int64, status bridge.InvitationStatus, at time.Time) error {
	return r.s.exec(ctx, `UPDATE sponsorships SET status = ?, responded_at = ? WHERE id = ?`, status, at, id)
}

func (r sponsorshipRepo) ByAthlete(ctx context.Context, athleteID int64) ([]*bridge.Sponsorship, error) {
	out := []*bridge.Sponsorship{}
	err := r.s.sel(ctx, &out, `SELECT * FROM sponsorships WHERE athlete_id = ?`+newestFirst, athleteID)
	return out, err
}

func (r sponsorshipRepo) BySponsor(ctx context.Context, sponsorID int64) ([]*bridge.Sponsorship, error) {
	out := []*bridge.Sponsorship{}
	err := r.s.sel(ctx, &out, `SELECT * FROM sponsorships WHERE sponsor_id = ?`+newestFirst, sponsorID)
	return out, err
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, n *bridge.Notification) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO notifications (recipient_id, message, is_read, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`, n.RecipientID, n.Message, n.IsRead, n.CreatedAt)
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

func (r notificationRepo) Get(ctx context.Context, id int64) (*bridge.Notification, error) {
	n := &bridge.Notification{}
	if err := r.s.get(ctx, n, `SELECT * FROM notifications WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return n, nil
}

func (r notificationRepo) ByRecipient(ctx context.Context, recipientID int64) ([]*bridge.Notification, error) {
	out := []*bridge.Notification{}
	err := r.s.sel(ctx, &out, `SELECT * FROM notifications WHERE recipient_id = ?`+newestFirst, recipientID)
	return out, err
}

func (r notificationRepo) MarkRead(ctx context.Context, id int64) error {
	return r.s.exec(ctx, `UPDATE notifications SET is_read = ? WHERE id = ?`, true, id)
}

func (r notificationRepo) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	res, err := r.s.db.ExecContext(ctx, r.s.q(`UPDATE notifications SET is_read = ? WHERE recipient_id = ? AND is_read = ?`),
		true, recipientID, false)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

func (r notificationRepo) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	var n int64
	err := r.s.get(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = ?`, recipientID, false)
	return n, err
}

type reportRepo struct{ s *Store }

func (r reportRepo) Create(ctx context.Context, rep *bridge.Report) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO reports
		(reporter_id, reported_entity_type, reported_entity_id, reason, description, solved, conclusion, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		rep.ReporterID, rep.ReportedEntityType, rep.ReportedEntityID, rep.Reason, rep.Description,
		rep.Solved, rep.Conclusion, rep.CreatedAt)
	if err != nil {
		return err
	}
	rep.ID = id
	return nil
}

func (r reportRepo) Get(ctx context.Context, id int64) (*bridge.Report, error) {
	rep := &bridge.Report{}
	if err := r.s.get(ctx, rep, `SELECT * FROM reports WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return rep, nil
}

func (r reportRepo) List(ctx context.Context, onlyOpen bool) ([]*bridge.Report, error) {
	out := []*bridge.Report{}
	if onlyOpen {
		err := r.s.sel(ctx, &out, `SELECT * FROM reports WHERE solved = ?`+newestFirst, false)
		return out, err
	}
	err := r.s.sel(ctx, &out, `SELECT * FROM reports`+newestFirst)
	return out, err
}

func (r reportRepo) Resolve(ctx context.Context, id int64, reviewerID *int64, conclusion string, at time.Time) error {
	return r.s.exec(ctx, `UPDATE reports SET solved = ?, conclusion = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ?`,
		true, conclusion, reviewerID, at, id)
}
