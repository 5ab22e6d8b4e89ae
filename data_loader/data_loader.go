package data_loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/configuration"
	"github.com/hackcelestial/sports-bridge/constants"
	"github.com/hackcelestial/sports-bridge/internal/secure"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/store"
)

var log = logger.Get()
var dataLoaderLoggerTag = "SB DATA LOADER"
var dataLogger = log.WithField("prefix", dataLoaderLoggerTag)

// DataLoader is an interface that defines how seed data is loaded from a source into the store
// and how the store is backed up to that source.
type DataLoader interface {
	Init(conf interface{}) error
	LoadIntoStore(ctx context.Context, s *Seeder) error
	Flush(ctx context.Context, s store.Store) error
}

func reloadDataLoaderLogger() {
	log = logger.Get()
	dataLogger = &logrus.Entry{Logger: log}
	dataLogger = dataLogger.Logger.WithField("prefix", dataLoaderLoggerTag)
}

func CreateDataLoader(conf configuration.Seed) (DataLoader, error) {
	var dataLoader DataLoader
	var loaderConf interface{}
	reloadDataLoaderLogger()

	switch conf.Type {
	case constants.LoaderMongo:
		dataLoader = &MongoLoader{}
		loaderConf = MongoLoaderConf{URL: conf.MongoURL, Database: conf.MongoDB}
	case constants.LoaderNone:
		dataLoader = DumbLoader{}
	default:
		dataLoader = &FileLoader{}
		loaderConf = FileLoaderConf{FileName: conf.File, BackupDir: conf.BackupDir}
	}

	err := dataLoader.Init(loaderConf)
	return dataLoader, err
}

type SeedSport struct {
	Name        string `json:"name" yaml:"name" bson:"name"`
	Description string `json:"description" yaml:"description" bson:"description"`
}

// SeedUser is a verified account with its role profile.
type SeedUser struct {
	FullName string `json:"fullName" yaml:"fullName" bson:"fullName"`
	Role     string `json:"role" yaml:"role" bson:"role"`
	Phone    string `json:"phone" yaml:"phone" bson:"phone"`
	Aadhaar  string `json:"aadhaar" yaml:"aadhaar" bson:"aadhaar"`
	Password string `json:"password" yaml:"password" bson:"password"`
	Email    string `json:"email" yaml:"email" bson:"email"`
	Bio      string `json:"bio" yaml:"bio" bson:"bio"`

	Sport           string  `json:"sport" yaml:"sport" bson:"sport"`
	State           string  `json:"state" yaml:"state" bson:"state"`
	District        string  `json:"district" yaml:"district" bson:"district"`
	Height          float64 `json:"height" yaml:"height" bson:"height"`
	Weight          float64 `json:"weight" yaml:"weight" bson:"weight"`
	Specialization  string  `json:"specialization" yaml:"specialization" bson:"specialization"`
	Authority       string  `json:"authority" yaml:"authority" bson:"authority"`
	ExperienceYears int     `json:"experienceYears" yaml:"experienceYears" bson:"experienceYears"`
	CompanyName     string  `json:"companyName" yaml:"companyName" bson:"companyName"`
	Industry        string  `json:"industry" yaml:"industry" bson:"industry"`
	Website         string  `json:"website" yaml:"website" bson:"website"`
	BudgetRange     string  `json:"budgetRange" yaml:"budgetRange" bson:"budgetRange"`
}

type Seed struct {
	Sports []SeedSport `json:"sports" yaml:"sports"`
	Users  []SeedUser  `json:"users" yaml:"users"`
}

// BackupUser is a user without credentials or identity numbers.
type BackupUser struct {
	ID        int64     `json:"id" bson:"id"`
	FullName  string    `json:"fullName" bson:"fullName"`
	Role      string    `json:"role" bson:"role"`
	Phone     string    `json:"phone" bson:"phone"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Bio       string    `json:"bio,omitempty" bson:"bio,omitempty"`
	Verified  bool      `json:"verified" bson:"verified"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Backup struct {
	Timestamp int64        `json:"timestamp" bson:"timestamp"`
	Sports    []SeedSport  `json:"sports" bson:"sports"`
	Users     []BackupUser `json:"users" bson:"users"`
}

func snapshot(ctx context.Context, s store.Store, now time.Time) (*Backup, error) {
	sports, err := s.Sports().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sports: %w", err)
	}
	users, err := s.Users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	b := &Backup{Timestamp: now.Unix(), Sports: make([]SeedSport, 0, len(sports)), Users: make([]BackupUser, 0, len(users))}
	for _, sp := range sports {
		b.Sports = append(b.Sports, SeedSport{Name: sp.Name, Description: sp.Description})
	}
	for _, u := range users {
		b.Users = append(b.Users, BackupUser{
			ID: u.ID, FullName: u.FullName, Role: string(u.Role), Phone: u.Phone,
			Email: u.Email, Bio: u.Bio, Verified: u.Verified, CreatedAt: u.CreatedAt,
		})
	}
	return b, nil
}

// Seeder writes seed documents into a store. Existing sports and users are left alone.
type Seeder struct {
	Store  store.Store
	Cipher *secure.Cipher
	now    func() time.Time
}

func NewSeeder(s store.Store, c *secure.Cipher) *Seeder {
	return &Seeder{Store: s, Cipher: c, now: func() time.Time { return time.Now().UTC() }}
}

type SeedResult struct {
	SportsAdded int
	UsersAdded  int
	Skipped     int
}

func (s *Seeder) Apply(ctx context.Context, seed *Seed) (*SeedResult, error) {
	res := &SeedResult{}
	for _, sp := range seed.Sports {
		name := strings.TrimSpace(sp.Name)
		if name == "" {
			continue
		}
		_, err := s.Store.Sports().GetByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return res, err
		}
		if err := s.Store.Sports().Create(ctx, &bridge.Sport{Name: name, Description: sp.Description, CreatedAt: s.now()}); err != nil {
			return res, fmt.Errorf("seed sport %q: %w", name, err)
		}
		res.SportsAdded++
	}

	for _, su := range seed.Users {
		added, err := s.addUser(ctx, su)
		if err != nil {
			dataLogger.WithFields(logrus.Fields{"phone": su.Phone, "error": err}).Warning("Skipping seed user")
			res.Skipped++
			continue
		}
		if added {
			res.UsersAdded++
		} else {
			res.Skipped++
		}
	}
	dataLogger.WithFields(logrus.Fields{
		"sports": res.SportsAdded,
		"users":  res.UsersAdded,
	}).Info("Seed data loaded")
	return res, nil
}

func (s *Seeder) addUser(ctx context.Context, su SeedUser) (bool, error) {
	phone := strings.TrimSpace(su.Phone)
	if !secure.ValidPhone(phone) {
		return false, fmt.Errorf("invalid phone %q", phone)
	}
	if !secure.ValidAadhaar(su.Aadhaar) {
		return false, errors.New("invalid aadhaar")
	}
	for _, candidate := range secure.PhoneCandidates(phone) {
		if _, err := s.Store.Users().GetByPhone(ctx, candidate); err == nil {
			return false, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return false, err
		}
	}
	sealed, err := s.Cipher.EncryptAadhaar(su.Aadhaar)
	if err != nil {
		return false, err
	}
	u := &bridge.User{
		FullName:         strings.TrimSpace(su.FullName),
		Role:             bridge.ParseRole(su.Role),
		Phone:            phone,
		Email:            su.Email,
		Bio:              su.Bio,
		AadhaarEncrypted: sealed,
		AadhaarHash:      s.Cipher.AadhaarHash(su.Aadhaar),
		Verified:         true,
		CreatedAt:        s.now(),
	}
	if su.Password != "" {
		if u.PasswordHash, err = secure.HashPassword(su.Password); err != nil {
			return false, err
		}
	}
	if err := s.Store.Users().Create(ctx, u); err != nil {
		return false, err
	}
	return true, s.saveProfile(ctx, u, su)
}

func (s *Seeder) saveProfile(ctx context.Context, u *bridge.User, su SeedUser) error {
	profiles := s.Store.Profiles()
	switch u.Role {
	case bridge.RoleAthlete:
		p := &bridge.AthleteProfile{UserID: u.ID, State: su.State, District: su.District, Height: su.Height, Weight: su.Weight}
		if su.Sport != "" {
			if sp, err := s.Store.Sports().GetByName(ctx, su.Sport); err == nil {
				p.SportID = &sp.ID
			}
		}
		return profiles.SaveAthlete(ctx, p)
	case bridge.RoleCoach:
		return profiles.SaveCoach(ctx, &bridge.CoachProfile{
			UserID: u.ID, Specialization: su.Specialization, Authority: su.Authority,
			ExperienceYears: su.ExperienceYears, State: su.State, District: su.District,
		})
	case bridge.RoleSponsor:
		return profiles.SaveSponsor(ctx, &bridge.SponsorProfile{
			UserID: u.ID, CompanyName: su.CompanyName, Industry: su.Industry,
			Website: su.Website, BudgetRange: su.BudgetRange,
		})
	}
	return nil
}
