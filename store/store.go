// Package store defines the persistence boundary of the platform.
// Implementations return ErrNotFound and ErrDuplicate so callers can map them to HTTP codes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hackcelestial/sports-bridge/bridge"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store groups every repository. Close releases the underlying connections.
type Store interface {
	Users() UserRepository
	Profiles() ProfileRepository
	Sports() SportRepository
	Posts() PostRepository
	Likes() LikeRepository
	Invitations() InvitationRepository
	Coaching() CoachingRepository
	DailyLogs() DailyLogRepository
	Achievements() AchievementRepository
	Sponsorships() SponsorshipRepository
	Notifications() NotificationRepository
	Reports() ReportRepository
	ChatRooms() ChatRoomRepository
	ChatMessages() ChatMessageRepository
	Close() error
}

type UserRepository interface {
	Create(ctx context.Context, u *bridge.User) error
	Get(ctx context.Context, id int64) (*bridge.User, error)
	GetByPhone(ctx context.Context, phone string) (*bridge.User, error)
	GetByAadhaarHash(ctx context.Context, hash string) (*bridge.User, error)
	// Update writes every mutable column of u.
	Update(ctx context.Context, u *bridge.User) error
	ByIDs(ctx context.Context, ids []int64) (map[int64]*bridge.User, error)
	List(ctx context.Context) ([]*bridge.User, error)
	// Search matches users of role on their own and their profile's text columns.
	Search(ctx context.Context, role bridge.Role, query string) ([]*bridge.User, error)
	CountByRole(ctx context.Context) (map[bridge.Role]int64, error)
}

type ProfileRepository interface {
	Athlete(ctx context.Context, userID int64) (*bridge.AthleteProfile, error)
	Coach(ctx context.Context, userID int64) (*bridge.CoachProfile, error)
	Sponsor(ctx context.Context, userID int64) (*bridge.SponsorProfile, error)
	SaveAthlete(ctx context.Context, p *bridge.AthleteProfile) error
	SaveCoach(ctx context.Context, p *bridge.CoachProfile) error
	SaveSponsor(ctx context.Context, p *bridge.SponsorProfile) error
}

type SportRepository interface {
	Create(ctx context.Context, s *bridge.Sport) error
	Get(ctx context.Context, id int64) (*bridge.Sport, error)
	GetByName(ctx context.Context, name string) (*bridge.Sport, error)
	List(ctx context.Context) ([]*bridge.Sport, error)
}

type PostRepository interface {
	Create(ctx context.Context, p *bridge.Post) error
	Get(ctx context.Context, id int64) (*bridge.Post, error)
	// Delete removes the post together with its likes and invitations.
	Delete(ctx context.Context, id int64) error
	Page(ctx context.Context, offset, limit int) ([]*bridge.Post, int64, error)
	// Search matches title, description and author name. An empty query lists everything.
	Search(ctx context.Context, query string) ([]*bridge.Post, error)
	ByType(ctx context.Context, t bridge.PostType) ([]*bridge.Post, error)
	All(ctx context.Context) ([]*bridge.Post, error)
	Count(ctx context.Context) (int64, error)
}

type LikeRepository interface {
	// Toggle adds or removes the like and returns the new state and like count.
	Toggle(ctx context.Context, userID, postID int64) (bool, int64, error)
	LikedBy(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error)
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *bridge.Invitation) error
	Get(ctx context.Context, id int64) (*bridge.Invitation, error)
	Exists(ctx context.Context, senderID, postID int64) (bool, error)
	// SetStatus answers a pending invitation; ErrNotFound when it is missing or already answered.
	SetStatus(ctx context.Context, id int64, status bridge.InvitationStatus, at time.Time) error
	// AcceptCoaching answers the invitation, makes coachID the athlete's only active coach and
	// opens (or reuses) their chat room in one transaction.
	AcceptCoaching(ctx context.Context, id, athleteID, coachID int64, at time.Time) (*bridge.CoachRelationship, *bridge.ChatRoom, error)
	BySender(ctx context.Context, senderID int64) ([]*bridge.Invitation, error)
	ByReceiver(ctx context.Context, receiverID int64) ([]*bridge.Invitation, error)
	PendingFor(ctx context.Context, receiverID int64) ([]*bridge.Invitation, error)
	DeleteRespondedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[bridge.InvitationStatus]int64, error)
}

type CoachingRepository interface {
	Active(ctx context.Context, athleteID int64) (*bridge.CoachRelationship, error)
	ByAthlete(ctx context.Context, athleteID int64) ([]*bridge.CoachRelationship, error)
	ActiveByCoach(ctx context.Context, coachID int64) ([]*bridge.CoachRelationship, error)
	// Assign ends any active relationship of the athlete and starts a new one.
	Assign(ctx context.Context, athleteID, coachID int64, at time.Time) (*bridge.CoachRelationship, error)
	End(ctx context.Context, id int64, at time.Time) error
}

type DailyLogRepository interface {
	Create(ctx context.Context, l *bridge.DailyLog) error
	Get(ctx context.Context, id int64) (*bridge.DailyLog, error)
	Delete(ctx context.Context, id int64) error
	ByAthlete(ctx context.Context, athleteID int64) ([]*bridge.DailyLog, error)
	Since(ctx context.Context, athleteID int64, since time.Time) ([]*bridge.DailyLog, error)
	TotalDuration(ctx context.Context, athleteID int64) (int64, error)
}

type AchievementRepository interface {
	Create(ctx context.Context, a *bridge.Achievement) error
	Get(ctx context.Context, id int64) (*bridge.Achievement, error)
	Delete(ctx context.Context, id int64) error
	ByAthlete(ctx context.Context, athleteID int64) ([]*bridge.Achievement, error)
}

type SponsorshipRepository interface {
	Create(ctx context.Context, s *bridge.Sponsorship) error
	Get(ctx context.Context, id int64) (*bridge.Sponsorship, error)
	SetStatus(ctx context.Context, id int64, status bridge.InvitationStatus, at time.Time) error
	ByAthlete(ctx context.Context, athleteID int64) ([]*bridge.Sponsorship, error)
	BySponsor(ctx context.Context, sponsorID int64) ([]*bridge.Sponsorship, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *bridge.Notification) error
	Get(ctx context.Context, id int64) (*bridge.Notification, error)
	ByRecipient(ctx context.Context, recipientID int64) ([]*bridge.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
	UnreadCount(ctx context.Context, recipientID int64) (int64, error)
}

type ReportRepository interface {
	Create(ctx context.Context, r *bridge.Report) error
	Get(ctx context.Context, id int64) (*bridge.Report, error)
	List(ctx context.Context, onlyOpen bool) ([]*bridge.Report, error)
	Resolve(ctx context.Context, id int64, reviewerID *int64, conclusion string, at time.Time) error
}

type ChatRoomRepository interface {
	Get(ctx context.Context, id int64) (*bridge.ChatRoom, error)
	Between(ctx context.Context, coachID, athleteID int64) (*bridge.ChatRoom, error)
	ByParticipant(ctx context.Context, userID int64) ([]*bridge.ChatRoom, error)
}

type ChatMessageRepository interface {
	Create(ctx context.Context, m *bridge.ChatMessage) error
	ByRoom(ctx context.Context, roomID int64) ([]*bridge.ChatMessage, error)
	Count(ctx context.Context, roomID int64) (int64, error)
}
