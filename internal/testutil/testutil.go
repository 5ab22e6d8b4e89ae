// Package testutil builds throwaway stores for service tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/constants"
	"github.com/hackcelestial/sports-bridge/store/sqlstore"
)

// NewStore opens a migrated sqlite database in the test's temp dir.
func NewStore(t testing.TB) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(constants.DriverSQLite, filepath.Join(t.TempDir(), "bridge.db"), 0)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

// AddUser inserts a verified user.
func AddUser(t testing.TB, s *sqlstore.Store, name string, role bridge.Role, phone string) *bridge.User {
	t.Helper()
	u := &bridge.User{
		FullName:    name,
		Role:        role,
		Phone:       phone,
		AadhaarHash: "hash-" + phone,
		Verified:    true,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

// AddPost inserts a post by author.
func AddPost(t testing.TB, s *sqlstore.Store, author *bridge.User, title string, kind bridge.PostType) *bridge.Post {
	t.Helper()
	p := &bridge.Post{UserID: author.ID, Title: title, Description: "about " + title, PostType: kind, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Posts().Create(context.Background(), p))
	return p
}

// AssignCoach makes coach the athlete's active coach.
func AssignCoach(t testing.TB, s *sqlstore.Store, athleteID, coachID int64) {
	t.Helper()
	_, err := s.Coaching().Assign(context.Background(), athleteID, coachID, time.Now().UTC())
	require.NoError(t, err)
}
