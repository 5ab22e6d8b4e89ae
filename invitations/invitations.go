// Package invitations lets users answer each other's posts and drives the
// PENDING -> ACCEPTED | DECLINED lifecycle of those invitations.
package invitations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/coaching"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/notify"
	"github.com/hackcelestial/sports-bridge/store"
)

var log = logger.Get()
var invLogger = log.WithField("prefix", "INVITATIONS")

// DefaultRetention is how long responded invitations are kept.
const DefaultRetention = 24 * time.Hour

type Service struct {
	store    store.Store
	coaching *coaching.Service
	notify   *notify.Service
	now      func() time.Time
}

func NewService(s store.Store, c *coaching.Service, n *notify.Service) *Service {
	return &Service{store: s, coaching: c, notify: n, now: func() time.Time { return time.Now().UTC() }}
}

type PostSummary struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	PostType    bridge.PostType `json:"postType"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// View is an invitation with its parties and post attached.
type View struct {
	*bridge.Invitation
	Sender   bridge.UserSummary `json:"sender"`
	Receiver bridge.UserSummary `json:"receiver"`
	Post     PostSummary        `json:"post"`
}

// Result describes the outcome of answering an invitation.
type Result struct {
	Success              bool                    `json:"success"`
	Message              string                  `json:"message"`
	Status               bridge.InvitationStatus `json:"status"`
	RequiresConfirmation bool                    `json:"requiresConfirmation,omitempty"`
	CurrentCoach         *bridge.UserSummary     `json:"currentCoach,omitempty"`
	RedirectToProfile    bool                    `json:"redirectToProfile,omitempty"`
	SenderRole           string                  `json:"senderRole,omitempty"`
	SenderID             int64                   `json:"senderId,omitempty"`
	RoomID               int64                   `json:"roomId,omitempty"`
}

// Send invites the author of postID.
func (s *Service) Send(ctx context.Context, sender *bridge.User, postID int64, message string) (*bridge.Invitation, *bridge.HttpError) {
	if postID <= 0 {
		return nil, bridge.BadRequest("Post ID is required", nil)
	}
	post, err := s.store.Posts().Get(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.NotFound("Post not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load post", err)
	}
	if post.UserID == sender.ID {
		return nil, bridge.BadRequest("You cannot send an invitation to your own post", nil)
	}
	exists, err := s.store.Invitations().Exists(ctx, sender.ID, postID)
	if err != nil {
		return nil, bridge.Internal("Could not send invitation", err)
	}
	if exists {
		return nil, bridge.BadRequest("You have already sent an invitation for this post", nil)
	}
	inv := &bridge.Invitation{
		SenderID:   sender.ID,
		ReceiverID: post.UserID,
		PostID:     postID,
		Message:    strings.TrimSpace(message),
		Status:     bridge.StatusPending,
		SentAt:     s.now(),
	}
	if err := s.store.Invitations().Create(ctx, inv); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, bridge.BadRequest("You have already sent an invitation for this post", err)
		}
		return nil, bridge.Internal("Could not send invitation", err)
	}
	s.tell(ctx, inv.ReceiverID, fmt.Sprintf("%s sent you an invitation for \"%s\"", sender.FullName, post.Title))
	invLogger.WithFields(logrus.Fields{"invitation": inv.ID, "post": postID}).Debug("Invitation sent")
	return inv, nil
}

func (s *Service) tell(ctx context.Context, userID int64, msg string) {
	if s.notify != nil {
		s.notify.Notify(ctx, userID, msg)
	}
}

// pending loads an invitation that user may still answer.
func (s *Service) pending(ctx context.Context, u *bridge.User, id int64) (*bridge.Invitation, *bridge.HttpError) {
	inv, err := s.store.Invitations().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.NotFound("Invitation not found", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not load invitation", err)
	}
	if inv.ReceiverID != u.ID {
		return nil, bridge.Forbidden("Only the receiver can respond", nil)
	}
	if inv.Status != bridge.StatusPending {
		return nil, bridge.Conflict("Invitation already "+strings.ToLower(string(inv.Status)), nil)
	}
	return inv, nil
}

// Respond accepts or declines an invitation. Accepting a coaching invitation while the
// athlete has another active coach leaves it pending and asks for confirmation.
func (s *Service) Respond(ctx context.Context, u *bridge.User, id int64, status string) (*Result, *bridge.HttpError) {
	to, err := bridge.ParseInvitationStatus(status)
	if err != nil || !bridge.StatusPending.CanTransition(to) {
		return nil, bridge.BadRequest("Invalid status", err)
	}
	inv, httpErr := s.pending(ctx, u, id)
	if httpErr != nil {
		return nil, httpErr
	}
	sender, err := s.store.Users().Get(ctx, inv.SenderID)
	if err != nil {
		return nil, bridge.Internal("Could not load sender", err)
	}
	if to == bridge.StatusAccepted && bridge.IsCoachingPair(sender.Role, u.Role) {
		athleteID, coachID := pair(sender, u)
		current, err := s.coaching.Current(ctx, athleteID)
		if err != nil {
			return nil, bridge.Internal("Could not load coach", err)
		}
		if current != nil && current.CoachID != coachID {
			coach, err := s.store.Users().Get(ctx, current.CoachID)
			if err != nil {
				return nil, bridge.Internal("Could not load coach", err)
			}
			summary := coach.Summary()
			return &Result{
				Success:              false,
				Message:              "Athlete already has an active coach. Confirm to replace them.",
				Status:               bridge.StatusPending,
				RequiresConfirmation: true,
				CurrentCoach:         &summary,
			}, nil
		}
	}
	return s.apply(ctx, u, inv, sender, to)
}

// Confirm settles an invitation that needed confirmation. forceAccept replaces the
// current coach, otherwise the invitation is declined.
func (s *Service) Confirm(ctx context.Context, u *bridge.User, id int64, forceAccept bool) (*Result, *bridge.HttpError) {
	inv, httpErr := s.pending(ctx, u, id)
	if httpErr != nil {
		return nil, httpErr
	}
	sender, err := s.store.Users().Get(ctx, inv.SenderID)
	if err != nil {
		return nil, bridge.Internal("Could not load sender", err)
	}
	to := bridge.StatusDeclined
	if forceAccept {
		to = bridge.StatusAccepted
	}
	return s.apply(ctx, u, inv, sender, to)
}

func pair(a, b *bridge.User) (athleteID, coachID int64) {
	if a.Role == bridge.RoleAthlete {
		return a.ID, b.ID
	}
	return b.ID, a.ID
}

func (s *Service) apply(ctx context.Context, u *bridge.User, inv *bridge.Invitation, sender *bridge.User, to bridge.InvitationStatus) (*Result, *bridge.HttpError) {
	at := s.now()
	res := &Result{Success: true, Status: to}
	var err error
	if to == bridge.StatusAccepted && bridge.IsCoachingPair(sender.Role, u.Role) {
		athleteID, coachID := pair(sender, u)
		var room *bridge.ChatRoom
		if _, room, err = s.store.Invitations().AcceptCoaching(ctx, inv.ID, athleteID, coachID, at); err == nil {
			res.RoomID = room.ID
			invLogger.WithFields(logrus.Fields{"athlete": athleteID, "coach": coachID, "room": room.ID}).Info("Coach assigned")
		}
	} else {
		err = s.store.Invitations().SetStatus(ctx, inv.ID, to, at)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, bridge.Conflict("Invitation already answered", err)
	}
	if err != nil {
		return nil, bridge.Internal("Could not update invitation", err)
	}
	inv.Status, inv.RespondedAt = to, &at

	if to == bridge.StatusAccepted {
		res.Message = "Invitation accepted"
		res.RedirectToProfile = true
		res.SenderRole = sender.Role.Lower()
		res.SenderID = sender.ID
		s.tell(ctx, sender.ID, u.FullName+" accepted your invitation")
	} else {
		res.Message = "Invitation declined"
		s.tell(ctx, sender.ID, u.FullName+" declined your invitation")
	}
	invLogger.WithFields(logrus.Fields{"invitation": inv.ID, "status": to}).Info("Invitation answered")
	return res, nil
}

func (s *Service) Sent(ctx context.Context, u *bridge.User) ([]View, *bridge.HttpError) {
	return s.list(ctx, s.store.Invitations().BySender, u.ID)
}

func (s *Service) Received(ctx context.Context, u *bridge.User) ([]View, *bridge.HttpError) {
	return s.list(ctx, s.store.Invitations().ByReceiver, u.ID)
}

func (s *Service) Pending(ctx context.Context, u *bridge.User) ([]View, *bridge.HttpError) {
	return s.list(ctx, s.store.Invitations().PendingFor, u.ID)
}

func (s *Service) list(ctx context.Context, load func(context.Context, int64) ([]*bridge.Invitation, error), userID int64) ([]View, *bridge.HttpError) {
	invs, err := load(ctx, userID)
	if err != nil {
		return nil, bridge.Internal("Could not load invitations", err)
	}
	views, err := s.views(ctx, invs)
	if err != nil {
		return nil, bridge.Internal("Could not load invitations", err)
	}
	return views, nil
}

func (s *Service) views(ctx context.Context, invs []*bridge.Invitation) ([]View, error) {
	out := make([]View, 0, len(invs))
	if len(invs) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(invs)*2)
	for _, inv := range invs {
		ids = append(ids, inv.SenderID, inv.ReceiverID)
	}
	users, err := s.store.Users().ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	posts := map[int64]*bridge.Post{}
	for _, inv := range invs {
		v := View{Invitation: inv, Sender: users[inv.SenderID].Summary(), Receiver: users[inv.ReceiverID].Summary()}
		p, ok := posts[inv.PostID]
		if !ok {
			if p, err = s.store.Posts().Get(ctx, inv.PostID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			posts[inv.PostID] = p
		}
		if p != nil {
			v.Post = PostSummary{ID: p.ID, Title: p.Title, Description: p.Description, PostType: p.PostType, ImageURL: p.ImageURL}
		}
		out = append(out, v)
	}
	return out, nil
}

// Cleanup deletes invitations answered more than retention before now.
func (s *Service) Cleanup(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	n, err := s.store.Invitations().DeleteRespondedBefore(ctx, now.UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("cleanup invitations: %w", err)
	}
	if n > 0 {
		invLogger.Infof("Cleaned up %d old invitations", n)
	}
	return n, nil
}
