package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/constants"
	sberrors "github.com/hackcelestial/sports-bridge/error"
)

// AdminStats summarises the platform for operators.
type AdminStats struct {
	UsersByRole         map[bridge.Role]int64             `json:"usersByRole"`
	Posts               int64                             `json:"posts"`
	InvitationsByStatus map[bridge.InvitationStatus]int64 `json:"invitationsByStatus"`
}

func adminFail(w http.ResponseWriter, r *http.Request, httpErr *bridge.HttpError) {
	sberrors.HandleHttpError(constants.AdminLogTag, httpErr, w, r)
}

func adminOK(w http.ResponseWriter, r *http.Request, data interface{}) {
	sberrors.WriteOK(constants.AdminLogTag, data, w, r)
}

func (s *server) HandleListReports(w http.ResponseWriter, r *http.Request) {
	onlyOpen, _ := strconv.ParseBool(r.URL.Query().Get("open"))
	list, httpErr := s.b.Reports.List(r.Context(), onlyOpen)
	if httpErr != nil {
		adminFail(w, r, httpErr)
		return
	}
	adminOK(w, r, list)
}

func (s *server) HandleResolveReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		sberrors.HandleError(constants.AdminLogTag, "Could not retrieve ID", err, http.StatusBadRequest, w, r)
		return
	}
	var req struct {
		Conclusion string `json:"conclusion"`
	}
	if err := decodeJSON(r, &req); err != nil {
		sberrors.HandleError(constants.AdminLogTag, "Invalid request body", err, http.StatusBadRequest, w, r)
		return
	}
	rep, httpErr := s.b.Reports.Resolve(r.Context(), nil, id, req.Conclusion)
	if httpErr != nil {
		adminFail(w, r, httpErr)
		return
	}
	adminOK(w, r, rep)
}

func (s *server) HandleAddSport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		sberrors.HandleError(constants.AdminLogTag, "Invalid request body", err, http.StatusBadRequest, w, r)
		return
	}
	sp, httpErr := s.b.Accounts.AddSport(r.Context(), req.Name, req.Description)
	if httpErr != nil {
		adminFail(w, r, httpErr)
		return
	}
	adminOK(w, r, sp)
}

func (s *server) HandleBackup(w http.ResponseWriter, r *http.Request) {
	if err := backupStore(r.Context(), s.b); err != nil {
		sberrors.HandleError(constants.AdminLogTag, "Backup failed", err, http.StatusInternalServerError, w, r)
		return
	}
	adminOK(w, r, map[string]string{"message": "Backup written"})
}

func (s *server) HandleCleanupInvitations(w http.ResponseWriter, r *http.Request) {
	n, err := s.b.Invitations.Cleanup(r.Context(), time.Now().UTC(), s.b.Retention())
	if err != nil {
		sberrors.HandleError(constants.AdminLogTag, "Cleanup failed", err, http.StatusInternalServerError, w, r)
		return
	}
	adminOK(w, r, map[string]int64{"deleted": n})
}

func (s *server) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var stats AdminStats
	var err error
	if stats.UsersByRole, err = s.b.Store.Users().CountByRole(ctx); err != nil {
		sberrors.HandleError(constants.AdminLogTag, "Could not count users", err, http.StatusInternalServerError, w, r)
		return
	}
	if stats.Posts, err = s.b.Store.Posts().Count(ctx); err != nil {
		sberrors.HandleError(constants.AdminLogTag, "Could not count posts", err, http.StatusInternalServerError, w, r)
		return
	}
	if stats.InvitationsByStatus, err = s.b.Store.Invitations().CountByStatus(ctx); err != nil {
		sberrors.HandleError(constants.AdminLogTag, "Could not count invitations", err, http.StatusInternalServerError, w, r)
		return
	}
	adminOK(w, r, stats)
}
