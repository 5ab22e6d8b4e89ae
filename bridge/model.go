package bridge

import (
	"strings"
	"time"
)

type User struct {
	ID               int64     `db:"id" json:"id"`
	FullName         string    `db:"full_name" json:"fullName"`
	Role             Role      `db:"role" json:"role"`
	Phone            string    `db:"phone" json:"phone"`
	Email            string    `db:"email" json:"email,omitempty"`
	AadhaarEncrypted []byte    `db:"aadhaar_encrypted" json:"-"`
	AadhaarHash      string    `db:"aadhaar_hash" json:"-"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	ProfilePicURL    string    `db:"profile_pic_url" json:"profilePicUrl,omitempty"`
	Bio              string    `db:"bio" json:"bio,omitempty"`
	Verified         bool      `db:"verified" json:"verified"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// UserSummary is the shape embedded in posts, invitations and search results.
type UserSummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Role          Role   `json:"role"`
	ProfilePicURL string `json:"profileImageUrl,omitempty"`
}

func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:            u.ID,
		Name:          u.FullName,
		Email:         u.Email,
		Role:          u.Role,
		ProfilePicURL: u.ProfilePicURL,
	}
}

// FirstName is everything before the first space of the full name.
func (u *User) FirstName() string {
	name := strings.TrimSpace(u.FullName)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

type AthleteProfile struct {
	UserID                int64   `db:"user_id" json:"userId"`
	Height                float64 `db:"height" json:"height"`
	Weight                float64 `db:"weight" json:"weight"`
	IsDisabled            bool    `db:"is_disabled" json:"isDisabled"`
	DisabilityType        string  `db:"disability_type" json:"disabilityType,omitempty"`
	EmergencyContactName  string  `db:"emergency_contact_name" json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string  `db:"emergency_contact_phone" json:"emergencyContactPhone,omitempty"`
	State                 string  `db:"state" json:"state,omitempty"`
	District              string  `db:"district" json:"district,omitempty"`
	SportID               *int64  `db:"sport_id" json:"sportId,omitempty"`
}

type CoachProfile struct {
	UserID          int64  `db:"user_id" json:"userId"`
	Authority       string `db:"authority" json:"authority,omitempty"`
	Specialization  string `db:"specialization" json:"specialization,omitempty"`
	ExperienceYears int    `db:"experience_years" json:"experienceYears"`
	State           string `db:"state" json:"state,omitempty"`
	District        string `db:"district" json:"district,omitempty"`
}

type SponsorProfile struct {
	UserID      int64  `db:"user_id" json:"userId"`
	CompanyName string `db:"company_name" json:"companyName,omitempty"`
	Industry    string `db:"industry" json:"industry,omitempty"`
	Website     string `db:"website" json:"website,omitempty"`
	BudgetRange string `db:"budget_range" json:"budgetRange,omitempty"`
}

type Sport struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type Post struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	PostType    PostType  `db:"post_type" json:"postType"`
	ImageURL    string    `db:"image_url" json:"imageUrl,omitempty"`
	LikeCount   int64     `db:"like_count" json:"likeCount"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type Invitation struct {
	ID          int64            `db:"id" json:"id"`
	SenderID    int64            `db:"sender_id" json:"senderId"`
	ReceiverID  int64            `db:"receiver_id" json:"receiverId"`
	PostID      int64            `db:"post_id" json:"postId"`
	Message     string           `db:"message" json:"message"`
	Status      InvitationStatus `db:"status" json:"status"`
	SentAt      time.Time        `db:"sent_at" json:"sentAt"`
	RespondedAt *time.Time       `db:"responded_at" json:"respondedAt,omitempty"`
}

type CoachRelationship struct {
	ID        int64      `db:"id" json:"id"`
	AthleteID int64      `db:"athlete_id" json:"athleteId"`
	CoachID   int64      `db:"coach_id" json:"coachId"`
	Active    bool       `db:"active" json:"active"`
	StartDate time.Time  `db:"start_date" json:"startDate"`
	EndDate   *time.Time `db:"end_date" json:"endDate,omitempty"`
}

type DailyLog struct {
	ID                    int64     `db:"id" json:"id"`
	AthleteID             int64     `db:"athlete_id" json:"athleteId"`
	SportID               *int64    `db:"sport_id" json:"sportId,omitempty"`
	TrainingType          string    `db:"training_type" json:"trainingType"`
	TrainingDuration      int       `db:"training_duration_minutes" json:"trainingDurationMinutes"`
	Notes                 string    `db:"notes" json:"notes,omitempty"`
	CurrentStreak         int       `db:"current_streak" json:"currentStreak"`
	TotalLifetimeDuration int       `db:"total_lifetime_duration" json:"totalLifetimeDuration"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
}

type Achievement struct {
	ID              int64      `db:"id" json:"id"`
	AthleteID       int64      `db:"athlete_id" json:"athleteId"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description,omitempty"`
	CompetitionName string     `db:"competition_name" json:"competitionName,omitempty"`
	CertificateURL  string     `db:"certificate_url" json:"certificateUrl,omitempty"`
	AchievementDate *time.Time `db:"achievement_date" json:"achievementDate,omitempty"`
	RankPosition    *int       `db:"rank_position" json:"rankPosition,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
}

type Sponsorship struct {
	ID                int64            `db:"id" json:"id"`
	SponsorID         int64            `db:"sponsor_id" json:"sponsorId"`
	AthleteID         int64            `db:"athlete_id" json:"athleteId"`
	Amount            int64            `db:"amount" json:"amount"`
	Currency          Currency         `db:"currency" json:"currency"`
	Terms             string           `db:"terms" json:"terms,omitempty"`
	Status            InvitationStatus `db:"status" json:"status"`
	ContractStartDate *time.Time       `db:"contract_start_date" json:"contractStartDate,omitempty"`
	ContractEndDate   *time.Time       `db:"contract_end_date" json:"contractEndDate,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"createdAt"`
	RespondedAt       *time.Time       `db:"responded_at" json:"respondedAt,omitempty"`
}

// IsActive reports whether an accepted sponsorship still runs on day.
func (s *Sponsorship) IsActive(day time.Time) bool {
	if s.Status != StatusAccepted {
		return false
	}
	if s.ContractEndDate == nil {
		return true
	}
	return !DayOf(*s.ContractEndDate).Before(DayOf(day))
}

type Notification struct {
	ID          int64     `db:"id" json:"id"`
	RecipientID int64     `db:"recipient_id" json:"recipientId"`
	Message     string    `db:"message" json:"message"`
	IsRead      bool      `db:"is_read" json:"isRead"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type Report struct {
	ID                 int64      `db:"id" json:"id"`
	ReporterID         int64      `db:"reporter_id" json:"reporterId"`
	ReportedEntityType string     `db:"reported_entity_type" json:"reportedEntityType"`
	ReportedEntityID   int64      `db:"reported_entity_id" json:"reportedEntityId"`
	Reason             string     `db:"reason" json:"reason"`
	Description        string     `db:"description" json:"description,omitempty"`
	Solved             bool       `db:"solved" json:"solved"`
	Conclusion         string     `db:"conclusion" json:"conclusion,omitempty"`
	ReviewedBy         *int64     `db:"reviewed_by" json:"reviewedBy,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	ReviewedAt         *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
}

// ChatRoom is the private channel opened between a coach and an athlete.
type ChatRoom struct {
	ID        int64     `db:"id" json:"id"`
	CoachID   int64     `db:"coach_id" json:"coachId"`
	AthleteID int64     `db:"athlete_id" json:"athleteId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// HasParticipant reports whether userID is the room's coach or athlete.
func (r *ChatRoom) HasParticipant(userID int64) bool {
	return r.CoachID == userID || r.AthleteID == userID
}

type ChatMessage struct {
	ID        int64     `db:"id" json:"id"`
	RoomID    int64     `db:"room_id" json:"roomId"`
	SenderID  int64     `db:"sender_id" json:"senderId"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
