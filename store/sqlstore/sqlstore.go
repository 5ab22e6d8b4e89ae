// Package sqlstore implements store.Store on sqlx for postgres and sqlite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/hackcelestial/sports-bridge/constants"
	logger "github.com/hackcelestial/sports-bridge/log"
	"github.com/hackcelestial/sports-bridge/store"
)

var log = logger.Get()
var storeLogger = log.WithField("prefix", "SQL STORE")

const (
	pqUniqueViolation = "23505"
	sqliteConstraint  = 19
)

// Store is a store.Store over a single sqlx connection pool.
type Store struct {
	db     *sqlx.DB
	driver string
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn using driver ("postgres" or "sqlite").
func Open(driver, dsn string, maxOpen int) (*Store, error) {
	switch driver {
	case constants.DriverPostgres, constants.DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == constants.DriverSQLite {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	storeLogger.Infof("Connected to %s", driver)
	return New(db), nil
}

// New wraps an existing connection. The dialect is taken from db.DriverName().
func New(db *sqlx.DB) *Store {
	return &Store{db: db, driver: db.DriverName()}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Users() store.UserRepository { return userRepo{s} }
func (s *Store) Profiles() store.ProfileRepository { return profileRepo{s} }
func (s *Store) Sports() store.SportRepository { return sportRepo{s} }
func (s *Store) Posts() store.PostRepository { return postRepo{s} }
func (s *Store) Likes() store.LikeRepository { return likeRepo{s} }
func (s *Store) Invitations() store.InvitationRepository { return invitationRepo{s} }
func (s *Store) Coaching() store.CoachingRepository { return coachingRepo{s} }
func (s *Store) DailyLogs() store.DailyLogRepository { return dailyLogRepo{s} }
func (s *Store) Achievements() store.AchievementRepository { return achievementRepo{s} }
func (s *Store) Sponsorships() store.SponsorshipRepository { return sponsorshipRepo{s} }
func (s *Store) Notifications() store.NotificationRepository { return notificationRepo{s} }
func (s *Store) Reports() store.ReportRepository { return reportRepo{s} }
func (s *Store) ChatRooms() store.ChatRoomRepository { return chatRoomRepo{s} }
func (s *Store) ChatMessages() store.ChatMessageRepository { return chatMessageRepo{s} }

// q rebinds a query written with ? placeholders for the active driver.
func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

// insert runs an INSERT ... RETURNING id statement.
func (s *Store) insert(ctx context.Context, ext sqlx.QueryerContext, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := ext.QueryRowxContext(ctx, s.q(query), args...).Scan(&id); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (s *Store) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return translate(s.db.GetContext(ctx, dest, s.q(query), args...))
}

func (s *Store) sel(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return translate(s.db.SelectContext(ctx, dest, s.q(query), args...))
}

// exec fails with store.ErrNotFound when no row was touched.
func (s *Store) exec(ctx context.Context, query string, args ...interface{}) error {
	return affected(s.db.ExecContext(ctx, s.q(query), args...))
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) tx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			storeLogger.WithField("error", rbErr).Error("Rollback failed")
		}
		return err
	}
	return tx.Commit()
}

// in expands a "IN (?)" query for a slice argument and rebinds it.
func (s *Store) in(query string, args ...interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return s.q(query), args, nil
}

// likeEscape is appended to every "LIKE ?" so patterns built by like match literally.
const likeEscape = ` ESCAPE '\'`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// like builds a case-insensitive "contains" pattern with LIKE wildcards escaped.
func like(query string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(strings.TrimSpace(query))) + "%"
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pqErr.Constraint)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		// extended codes keep the primary code in the low byte
		if liteErr.Code()&0xff == sqliteConstraint && strings.Contains(liteErr.Error(), "UNIQUE") {
			return fmt.Errorf("%w: %v", store.ErrDuplicate, liteErr)
		}
	}
	return err
}
