package sqlstore

import (
	"context"
	"strings"

	"github.com/hackcelestial/sports-bridge/bridge"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u *bridge.User) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO users
		(full_name, role, phone, email, aadhaar_encrypted, aadhaar_hash, password_hash, profile_pic_url, bio, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		u.FullName, u.Role, u.Phone, u.Email, u.AadhaarEncrypted, u.AadhaarHash, u.PasswordHash,
		u.ProfilePicURL, u.Bio, u.Verified, u.CreatedAt)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r userRepo) one(ctx context.Context, where string, arg interface{}) (*bridge.User, error) {
	u := &bridge.User{}
	if err := r.s.get(ctx, u, `SELECT * FROM users WHERE `+where+` = ?`, arg); err != nil {
		return nil, err
	}
	return u, nil
}

func (r userRepo) Get(ctx context.Context, id int64) (*bridge.User, error) {
	return r.one(ctx, "id", id)
}

func (r userRepo) GetByPhone(ctx context.Context, phone string) (*bridge.User, error) {
	return r.one(ctx, "phone", phone)
}

func (r userRepo) GetByAadhaarHash(ctx context.Context, hash string) (*bridge.User, error) {
	return r.one(ctx, "aadhaar_hash", hash)
}

func (r userRepo) Update(ctx context.Context, u *bridge.User) error {
	return r.s.exec(ctx, `UPDATE users SET full_name = ?, role = ?, phone = ?, email = ?,
		aadhaar_encrypted = ?, aadhaar_hash = ?, password_hash = ?, profile_pic_url = ?, bio = ?, verified = ?
		WHERE id = ?`,
		u.FullName, u.Role, u.Phone, u.Email, u.AadhaarEncrypted, u.AadhaarHash, u.PasswordHash,
		u.ProfilePicURL, u.Bio, u.Verified, u.ID)
}

func (r userRepo) ByIDs(ctx context.Context, ids []int64) (map[int64]*bridge.User, error) {
	out := make(map[int64]*bridge.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := r.s.in(`SELECT * FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	users := []*bridge.User{}
	if err := r.s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, translate(err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r userRepo) List(ctx context.Context) ([]*bridge.User, error) {
	users := []*bridge.User{}
	err := r.s.sel(ctx, &users, `SELECT * FROM users ORDER BY id`)
	return users, err
}

var userSearchColumns = []string{
	"u.full_name", "u.email", "u.bio",
	"ap.state", "ap.district", "ap.disability_type",
	"cp.state", "cp.district", "cp.specialization", "cp.authority",
	"sp.company_name", "sp.industry",
}

func (r userRepo) Search(ctx context.Context, role bridge.Role, query string) ([]*bridge.User, error) {
	conds := make([]string, len(userSearchColumns))
	args := []interface{}{role}
	pattern := like(query)
	for i, col := range userSearchColumns {
		conds[i] = "LOWER(COALESCE(" + col + ", '')) LIKE ?" + likeEscape
		args = append(args, pattern)
	}
	users := []*bridge.User{}
	err := r.s.sel(ctx, &users, `SELECT u.* FROM users u
		LEFT JOIN athlete_profiles ap ON ap.user_id = u.id
		LEFT JOIN coach_profiles cp ON cp.user_id = u.id
		LEFT JOIN sponsor_profiles sp ON sp.user_id = u.id
		WHERE u.role = ? AND (`+strings.Join(conds, " OR ")+`)
		ORDER BY u.full_name, u.id`, args...)
	return users, err
}

func (r userRepo) CountByRole(ctx context.Context) (map[bridge.Role]int64, error) {
	rows := []struct {
		Role bridge.Role `db:"role"`
		N    int64       `db:"n"`
	}{}
	if err := r.s.sel(ctx, &rows, `SELECT role, COUNT(*) AS n FROM users GROUP BY role`); err != nil {
		return nil, err
	}
	out := map[bridge.Role]int64{}
	for _, row := range rows {
		out[row.Role] = row.N
	}
	return out, nil
}

type profileRepo struct{ s *Store }

func (r profileRepo) Athlete(ctx context.Context, userID int64) (*bridge.AthleteProfile, error) {
	p := &bridge.AthleteProfile{}
	if err := r.s.get(ctx, p, `SELECT * FROM athlete_profiles WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r profileRepo) Coach(ctx context.Context, userID int64) (*bridge.CoachProfile, error) {
	p := &bridge.CoachProfile{}
	if err := r.s.get(ctx, p, `SELECT * FROM coach_profiles WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r profileRepo) Sponsor(ctx context.Context, userID int64) (*bridge.SponsorProfile, error) {
	p := &bridge.SponsorProfile{}
	if err := r.s.get(ctx, p, `SELECT * FROM sponsor_profiles WHERE user_id = ?`, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r profileRepo) upsert(ctx context.Context, query string, args ...interface{}) error {
	_, err := r.s.db.ExecContext(ctx, r.s.q(query), args...)
	return translate(err)
}

func (r profileRepo) SaveAthlete(ctx context.Context, p *bridge.AthleteProfile) error {
	return r.upsert(ctx, `INSERT INTO athlete_profiles
		(user_id, height, weight, is_disabled, disability_type, emergency_contact_name, emergency_contact_phone, state, district, sport_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET height = excluded.height, weight = excluded.weight,
		is_disabled = excluded.is_disabled, disability_type = excluded.disability_type,
		emergency_contact_name = excluded.emergency_contact_name, emergency_contact_phone = excluded.emergency_contact_phone,
		state = excluded.state, district = excluded.district, sport_id = excluded.sport_id`,
		p.UserID, p.Height, p.Weight, p.IsDisabled, p.DisabilityType, p.EmergencyContactName,
		p.EmergencyContactPhone, p.State, p.District, p.SportID)
}

func (r profileRepo) SaveCoach(ctx context.Context, p *bridge.CoachProfile) error {
	return r.upsert(ctx, `INSERT INTO coach_profiles
		(user_id, authority, specialization, experience_years, state, district)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET authority = excluded.authority, specialization = excluded.specialization,
		experience_years = excluded.experience_years, state = excluded.state, district = excluded.district`,
		p.UserID, p.Authority, p.Specialization, p.ExperienceYears, p.State, p.District)
}

func (r profileRepo) SaveSponsor(ctx context.Context, p *bridge.SponsorProfile) error {
	return r.upsert(ctx, `INSERT INTO sponsor_profiles
		(user_id, company_name, industry, website, budget_range)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET company_name = excluded.company_name, industry = excluded.industry,
		website = excluded.website, budget_range = excluded.budget_range`,
		p.UserID, p.CompanyName, p.Industry, p.Website, p.BudgetRange)
}

type sportRepo struct{ s *Store }

func (r sportRepo) Create(ctx context.Context, sp *bridge.Sport) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO sports (name, description, created_at) VALUES (?, ?, ?) RETURNING id`,
		sp.Name, sp.Description, sp.CreatedAt)
	if err != nil {
		return err
	}
	sp.ID = id
	return nil
}

func (r sportRepo) Get(ctx context.Context, id int64) (*bridge.Sport, error) {
	sp := &bridge.Sport{}
	if err := r.s.get(ctx, sp, `SELECT * FROM sports WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return sp, nil
}

func (r sportRepo) GetByName(ctx context.Context, name string) (*bridge.Sport, error) {
	sp := &bridge.Sport{}
	if err := r.s.get(ctx, sp, `SELECT * FROM sports WHERE LOWER(name) = ?`, strings.ToLower(strings.TrimSpace(name))); err != nil {
		return nil, err
	}
	return sp, nil
}

func (r sportRepo) List(ctx context.Context) ([]*bridge.Sport, error) {
	sports := []*bridge.Sport{}
	err := r.s.sel(ctx, &sports, `SELECT * FROM sports ORDER BY name`)
	return sports, err
}
