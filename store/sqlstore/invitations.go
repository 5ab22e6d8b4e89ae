package sqlstore

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hackcelestial/sports-bridge/bridge"
)

type invitationRepo struct{ s *Store }

func (r invitationRepo) Create(ctx context.Context, inv *bridge.Invitation) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO invitations
		(sender_id, receiver_id, post_id, message, status, sent_at, responded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		inv.SenderID, inv.ReceiverID, inv.PostID, inv.Message, inv.Status, inv.SentAt, inv.RespondedAt)
	if err != nil {
		return err
	}
	inv.ID = id
	return nil
}

func (r invitationRepo) Get(ctx context.Context, id int64) (*bridge.Invitation, error) {
	inv := &bridge.Invitation{}
	if err := r.s.get(ctx, inv, `SELECT * FROM invitations WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r invitationRepo) Exists(ctx context.Context, senderID, postID int64) (bool, error) {
	var n int
	err := r.s.get(ctx, &n, `SELECT COUNT(*) FROM invitations WHERE sender_id = ? AND post_id = ?`, senderID, postID)
	return n > 0, err
}

const answerInvitation = `UPDATE invitations SET status = ?, responded_at = ? WHERE id = ? AND status = ?`

func (r invitationRepo) SetStatus(ctx context.Context, id int64, status bridge.InvitationStatus, at time.Time) error {
	return r.s.exec(ctx, answerInvitation, status, at, id, bridge.StatusPending)
}

func (r invitationRepo) AcceptCoaching(ctx context.Context, id, athleteID, coachID int64, at time.Time) (*bridge.CoachRelationship, *bridge.ChatRoom, error) {
	var rel *bridge.CoachRelationship
	var room *bridge.ChatRoom
	err := r.s.tx(ctx, func(tx *sqlx.Tx) error {
		err := affected(tx.ExecContext(ctx, r.s.q(answerInvitation), bridge.StatusAccepted, at, id, bridge.StatusPending))
		if err != nil {
			return err
		}
		if rel, err = r.s.assignCoach(ctx, tx, athleteID, coachID, at); err != nil {
			return err
		}
		room, err = r.s.openRoom(ctx, tx, coachID, athleteID, at)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return rel, room, nil
}

func (r invitationRepo) list(ctx context.Context, where string, args ...interface{}) ([]*bridge.Invitation, error) {
	invs := []*bridge.Invitation{}
	err := r.s.sel(ctx, &invs, `SELECT * FROM invitations WHERE `+where+` ORDER BY sent_at DESC, id DESC`, args...)
	return invs, err
}

func (r invitationRepo) BySender(ctx context.Context, senderID int64) ([]*bridge.Invitation, error) {
	return r.list(ctx, `sender_id = ?`, senderID)
}

func (r invitationRepo) ByReceiver(ctx context.Context, receiverID int64) ([]*bridge.Invitation, error) {
	return r.list(ctx, `receiver_id = ?`, receiverID)
}

func (r invitationRepo) PendingFor(ctx context.Context, receiverID int64) ([]*bridge.Invitation, error) {
	return r.list(ctx, `receiver_id = ? AND status = ?`, receiverID, bridge.StatusPending)
}

func (r invitationRepo) DeleteRespondedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.s.db.ExecContext(ctx, r.s.q(`DELETE FROM invitations
		WHERE status <> ? AND responded_at IS NOT NULL AND responded_at < ?`), bridge.StatusPending, cutoff)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

func (r invitationRepo) CountByStatus(ctx context.Context) (map[bridge.InvitationStatus]int64, error) {
	rows := []struct {
		Status bridge.InvitationStatus `db:"status"`
		N      int64                   `db:"n"`
	}{}
	if err := r.s.sel(ctx, &rows, `SELECT status, COUNT(*) AS n FROM invitations GROUP BY status`); err != nil {
		return nil, err
	}
	out := map[bridge.InvitationStatus]int64{}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

type coachingRepo struct{ s *Store }

func (r coachingRepo) Active(ctx context.Context, athleteID int64) (*bridge.CoachRelationship, error) {
	rel := &bridge.CoachRelationship{}
	err := r.s.get(ctx, rel, `SELECT * FROM coach_relationships WHERE athlete_id = ? AND active = ?
		ORDER BY start_date DESC, id DESC LIMIT 1`, athleteID, true)
	if err != nil {
		return nil, err
	}
	return rel, nil
}

func (r coachingRepo) ByAthlete(ctx context.Context, athleteID int64) ([]*bridge.CoachRelationship, error) {
	rels := []*bridge.CoachRelationship{}
	err := r.s.sel(ctx, &rels, `SELECT * FROM coach_relationships WHERE athlete_id = ? ORDER BY start_date DESC, id DESC`, athleteID)
	return rels, err
}

func (r coachingRepo) ActiveByCoach(ctx context.Context, coachID int64) ([]*bridge.CoachRelationship, error) {
	rels := []*bridge.CoachRelationship{}
	err := r.s.sel(ctx, &rels, `SELECT * FROM coach_relationships WHERE coach_id = ? AND active = ? ORDER BY start_date DESC, id DESC`, coachID, true)
	return rels, err
}

func (r coachingRepo) Assign(ctx context.Context, athleteID, coachID int64, at time.Time) (*bridge.CoachRelationship, error) {
	var rel *bridge.CoachRelationship
	err := r.s.tx(ctx, func(tx *sqlx.Tx) error {
		var err error
		rel, err = r.s.assignCoach(ctx, tx, athleteID, coachID, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// assignCoach ends the athlete's active relationship and starts one with coachID inside tx.
func (s *Store) assignCoach(ctx context.Context, tx *sqlx.Tx, athleteID, coachID int64, at time.Time) (*bridge.CoachRelationship, error) {
	if _, err := tx.ExecContext(ctx, s.q(`UPDATE coach_relationships SET active = ?, end_date = ?
		WHERE athlete_id = ? AND active = ?`), false, at, athleteID, true); err != nil {
		return nil, translate(err)
	}
	id, err := s.insert(ctx, tx, `INSERT INTO coach_relationships (athlete_id, coach_id, active, start_date)
		VALUES (?, ?, ?, ?) RETURNING id`, athleteID, coachID, true, at)
	if err != nil {
		return nil, err
	}
	return &bridge.CoachRelationship{ID: id, AthleteID: athleteID, CoachID: coachID, Active: true, StartDate: at}, nil
}

func (r coachingRepo) End(ctx context.Context, id int64, at time.Time) error {
	return r.s.exec(ctx, `UPDATE coach_relationships SET active = ?, end_date = ? WHERE id = ? AND active = ?`, false, at, id, true)
}
