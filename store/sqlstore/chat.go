package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hackcelestial/sports-bridge/bridge"
)

type chatRoomRepo struct{ s *Store }

func (r chatRoomRepo) Get(ctx context.Context, id int64) (*bridge.ChatRoom, error) {
	room := &bridge.ChatRoom{}
	if err := r.s.get(ctx, room, `SELECT * FROM chat_rooms WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return room, nil
}

func (r chatRoomRepo) Between(ctx context.Context, coachID, athleteID int64) (*bridge.ChatRoom, error) {
	room := &bridge.ChatRoom{}
	if err := r.s.get(ctx, room, `SELECT * FROM chat_rooms WHERE coach_id = ? AND athlete_id = ?`, coachID, athleteID); err != nil {
		return nil, err
	}
	return room, nil
}

func (r chatRoomRepo) ByParticipant(ctx context.Context, userID int64) ([]*bridge.ChatRoom, error) {
	rooms := []*bridge.ChatRoom{}
	err := r.s.sel(ctx, &rooms, `SELECT * FROM chat_rooms WHERE coach_id = ? OR athlete_id = ?
		ORDER BY created_at DESC, id DESC`, userID, userID)
	return rooms, err
}

// openRoom returns the coach/athlete room, creating it inside tx when missing.
func (s *Store) openRoom(ctx context.Context, tx *sqlx.Tx, coachID, athleteID int64, at time.Time) (*bridge.ChatRoom, error) {
	room := &bridge.ChatRoom{}
	err := tx.GetContext(ctx, room, s.q(`SELECT * FROM chat_rooms WHERE coach_id = ? AND athlete_id = ?`), coachID, athleteID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, translate(err)
	}
	id, err := s.insert(ctx, tx, `INSERT INTO chat_rooms (coach_id, athlete_id, created_at) VALUES (?, ?, ?) RETURNING id`,
		coachID, athleteID, at)
	if err != nil {
		return nil, err
	}
	return &bridge.ChatRoom{ID: id, CoachID: coachID, AthleteID: athleteID, CreatedAt: at}, nil
}

type chatMessageRepo struct{ s *Store }

func (r chatMessageRepo) Create(ctx context.Context, m *bridge.ChatMessage) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO chat_messages (room_id, sender_id, content, created_at)
		VALUES (?, ?, ?, ?) RETURNING id`, m.RoomID, m.SenderID, m.Content, m.CreatedAt)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (r chatMessageRepo) ByRoom(ctx context.Context, roomID int64) ([]*bridge.ChatMessage, error) {
	msgs := []*bridge.ChatMessage{}
	err := r.s.sel(ctx, &msgs, `SELECT * FROM chat_messages WHERE room_id = ? ORDER BY created_at, id`, roomID)
	return msgs, err
}

func (r chatMessageRepo) Count(ctx context.Context, roomID int64) (int64, error) {
	var n int64
	err := r.s.get(ctx, &n, `SELECT COUNT(*) FROM chat_messages WHERE room_id = ?`, roomID)
	return n, err
}
