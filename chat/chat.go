// Package chat serves the private rooms opened when a coach and an athlete
// accept each other's invitation. Only the two participants can read or post.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/bridge"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/notify"
	"github.com/hackcelestial/sports-bridge/store"
)

var log = logger.Get()
var chatLogger = log.WithField("prefix", "CHAT")

// MaxMessageLen bounds a single message in characters.
const MaxMessageLen = 2000

type Service struct {
	store  store.Store
	notify *notify.Service
	now    func() time.Time
}

func NewService(s store.Store, n *notify.Service) *Service {
	return &Service{store: s, notify: n, now: func() time.Time { return time.Now().UTC() }}
}

// RoomView is a room with both participants attached.
type RoomView struct {
	*bridge.ChatRoom
	Coach   bridge.UserSummary `json:"coach"`
	Athlete bridge.UserSummary `json:"athlete"`
}

func (s *Service) Rooms(ctx context.Context, u *bridge.User) ([]RoomView, *bridge.HttpError) {
	rooms, err := s.store.ChatRooms().ByParticipant(ctx, u.ID)
	if err != nil {
		return nil, bridge.Internal("Could not load chat rooms", err)
	}
	out := make([]RoomView, 0, len(rooms))
	if len(rooms) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(rooms)*2)
	for _, r := range rooms {
		ids = append(ids, r.CoachID, r.AthleteID)
	}
	users, err := s.store.Users().ByIDs(ctx, ids)
	if err != nil {
		return nil, bridge.Internal("Could not load chat rooms", err)
	}
	for _, r := range rooms {
		out = append(out, RoomView{ChatRoom: r, Coach: users[r.CoachID].Summary(), Athlete: users[r.AthleteID].Summary()})
	}
	return out, nil
}

// room loads roomID and checks that u takes part in it.
func (s *Service) room(ctx context.Context, u *bridge.User, roomID int64) (*bridge.ChatRoom, *bridge.HttpError) {
	room, err := s.store.ChatRooms().Get(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.NotFound("Room not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load room", err)
	}
	if !room.HasParticipant(u.ID) {
		return nil, bridge.Forbidden("Not a participant of this room", nil)
	}
	return room, nil
}

// Messages lists a room's messages oldest first.
func (s *Service) Messages(ctx context.Context, u *bridge.User, roomID int64) ([]*bridge.ChatMessage, *bridge.HttpError) {
	if _, httpErr := s.room(ctx, u, roomID); httpErr != nil {
		return nil, httpErr
	}
	msgs, err := s.store.ChatMessages().ByRoom(ctx, roomID)
	if err != nil {
		return nil, bridge.Internal("Could not load messages", err)
	}
	return msgs, nil
}

// Send posts content to the room. The coach opens every conversation.
func (s *Service) Send(ctx context.Context, u *bridge.User, roomID int64, content string) (*bridge.ChatMessage, *bridge.HttpError) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, bridge.BadRequest("Content is required", nil)
	}
	if utf8.RuneCountInString(content) > MaxMessageLen {
		return nil, bridge.BadRequest("Message is too long", nil)
	}
	room, httpErr := s.room(ctx, u, roomID)
	if httpErr != nil {
		return nil, httpErr
	}
	if u.ID != room.CoachID {
		n, err := s.store.ChatMessages().Count(ctx, roomID)
		if err != nil {
			return nil, bridge.Internal("Could not load messages", err)
		}
		if n == 0 {
			return nil, bridge.Forbidden("Coach must send the first message", nil)
		}
	}
	m := &bridge.ChatMessage{RoomID: roomID, SenderID: u.ID, Content: content, CreatedAt: s.now()}
	if err := s.store.ChatMessages().Create(ctx, m); err != nil {
		return nil, bridge.Internal("Could not send message", err)
	}
	to := room.CoachID
	if u.ID == room.CoachID {
		to = room.AthleteID
	}
	if s.notify != nil {
		s.notify.Notify(ctx, to, "New message from "+u.FullName)
	}
	chatLogger.WithFields(logrus.Fields{"room": roomID, "sender": u.ID}).Debug("Message sent")
	return m, nil
}
