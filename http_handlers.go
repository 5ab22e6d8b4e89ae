package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/hackcelestial/sports-bridge/accounts"
	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/constants"
	sberrors "github.com/hackcelestial/sports-bridge/error"
	"github.com/hackcelestial/sports-bridge/feed"
	"github.com/hackcelestial/sports-bridge/initializer"
	"github.com/hackcelestial/sports-bridge/reports"
	"github.com/hackcelestial/sports-bridge/sponsorship"
	"github.com/hackcelestial/sports-bridge/training"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type server struct {
	b       *initializer.Bridge
	limiter *ipLimiter
}

func fail(w http.ResponseWriter, r *http.Request, httpErr *bridge.HttpError) {
	sberrors.HandleHttpError(constants.HandlerLogTag, httpErr, w, r)
}

func ok(w http.ResponseWriter, r *http.Request, data interface{}) {
	sberrors.WriteOK(constants.HandlerLogTag, data, w, r)
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	sberrors.HandleError(constants.HandlerLogTag, msg, err, http.StatusBadRequest, w, r)
}

// Returns the numeric path variable name
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	if raw == "" {
		return 0, errors.New("no " + name + " detected")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

// formFile opens the named multipart file, or returns nil when the field is absent.
func (s *server) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, error) {
	limit := s.b.Uploads.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, err
	}
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	return f, err
}

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	sberrors.WriteJSON(constants.HandlerLogTag, http.StatusOK, map[string]string{"status": "ok"}, w, r)
}

// Auth

func (s *server) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req accounts.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	started, httpErr := s.b.Accounts.Signup(r.Context(), req, clientIP(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	s.b.Metrics.Event("otp_sent")
	ok(w, r, started)
}

func (s *server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req accounts.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	started, httpErr := s.b.Accounts.Login(r.Context(), req, clientIP(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	s.b.Metrics.Event("otp_sent")
	ok(w, r, started)
}

func (s *server) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	tok, httpErr := s.b.Accounts.Verify(r.Context(), req.Phone, req.OTP)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	s.b.Metrics.Event("otp_verified")
	ok(w, r, tok)
}

func (s *server) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	if httpErr := s.b.Accounts.SetPassword(r.Context(), userFrom(r), req.Password); httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, map[string]string{"message": "Password set"})
}

func (s *server) HandlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	tok, httpErr := s.b.Accounts.PasswordLogin(r.Context(), req.Phone, req.Password)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, tok)
}

func (s *server) HandleSessionAttach(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	if err := s.b.Sessions.Attach(w, r, u.ID); err != nil {
		fail(w, r, bridge.Internal("Could not start session", err))
		return
	}
	ok(w, r, u.Summary())
}

func (s *server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.b.Sessions.Clear(w, r); err != nil {
		fail(w, r, bridge.Internal("Could not clear session", err))
		return
	}
	ok(w, r, map[string]string{"message": "Logged out"})
}

// HandlePeekOTP exposes live codes while developing. It is a 404 otherwise.
func (s *server) HandlePeekOTP(w http.ResponseWriter, r *http.Request) {
	if !s.b.Conf.DevMode {
		http.NotFound(w, r)
		return
	}
	phone := r.URL.Query().Get("phone")
	ok(w, r, map[string]string{"phone": phone, "otp": s.b.Accounts.PeekOTP(r.Context(), phone)})
}

// Users

func (s *server) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, httpErr := s.b.Accounts.Profile(r.Context(), userFrom(r).ID)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, p)
}

func (s *server) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch accounts.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	p, httpErr := s.b.Accounts.UpdateProfile(r.Context(), userFrom(r), patch)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, p)
}

func (s *server) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	f, err := s.formFile(w, r, "image")
	if err != nil {
		badRequest(w, r, "Invalid upload", err)
		return
	}
	if f == nil {
		badRequest(w, r, "Missing image", nil)
		return
	}
	defer f.Close()
	url, httpErr := s.b.Accounts.SetAvatar(r.Context(), userFrom(r), f)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, map[string]string{"profilePicUrl": url})
}

func (s *server) HandleUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	p, httpErr := s.b.Accounts.PublicProfile(r.Context(), id)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, p)
}

func (s *server) HandleSports(w http.ResponseWriter, r *http.Request) {
	sports, httpErr := s.b.Accounts.Sports(r.Context())
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, sports)
}

// Posts

func (s *server) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req feed.CreateRequest
	var image io.Reader
	if isMultipart(r) {
		f, err := s.formFile(w, r, "image")
		if err != nil {
			badRequest(w, r, "Invalid upload", err)
			return
		}
		if f != nil {
			defer f.Close()
			image = f
		}
		req = feed.CreateRequest{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			PostType:    r.FormValue("postType"),
		}
	} else if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}

	post, httpErr := s.b.Feed.Create(r.Context(), userFrom(r), req, image)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	s.b.Metrics.Event("post_created")
	sberrors.WriteJSON(constants.HandlerLogTag, http.StatusCreated, sberrors.APIOKMessage{Status: "ok", Data: post}, w, r)
}

func (s *server) HandleFeed(w http.ResponseWriter, r *http.Request) {
	page, httpErr := s.b.Feed.Feed(r.Context(), userFrom(r), queryInt(r, "page", 0), queryInt(r, "size", constants.DefaultPageLen))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, page)
}

func (s *server) HandleSearchPosts(w http.ResponseWriter, r *http.Request) {
	posts, httpErr := s.b.Feed.Search(r.Context(), userFrom(r), r.URL.Query().Get("query"))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, posts)
}

func (s *server) HandleFilterPosts(w http.ResponseWriter, r *http.Request) {
	posts, httpErr := s.b.Feed.Filter(r.Context(), userFrom(r), r.URL.Query().Get("type"))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, posts)
}

func (s *server) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	post, httpErr := s.b.Feed.Get(r.Context(), userFrom(r), id)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, post)
}

func (s *server) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	if httpErr := s.b.Feed.Delete(r.Context(), userFrom(r), id); httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, map[string]string{"message": "Post deleted"})
}

func (s *server) HandleLike(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	res, httpErr := s.b.Feed.ToggleLike(r.Context(), userFrom(r), id)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, res)
}

func (s *server) HandleGlobalSearch(w http.ResponseWriter, r *http.Request) {
	res, httpErr := s.b.Feed.GlobalSearch(r.Context(), r.URL.Query().Get("query"))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, res)
}

// Invitations

func (s *server) HandleSendInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostID  int64  `json:"postId"`
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	inv, httpErr := s.b.Invitations.Send(r.Context(), userFrom(r), req.PostID, req.Message)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	s.b.Metrics.Event("invitation_sent")
	ok(w, r, inv)
}

// statusParam reads status from the query string, a JSON body or a form, in that order.
func statusParam(r *http.Request) string {
	if v := r.URL.Query().Get("status"); v != "" {
		return v
	}
	if isJSON(r) {
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(r, &body); err == nil {
			return body.Status
		}
		return ""
	}
	return r.FormValue("status")
}

func (s *server) HandleRespondInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	res, httpErr := s.b.Invitations.Respond(r.Context(), userFrom(r), id, statusParam(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	s.b.Metrics.Event("invitation_" + strings.ToLower(string(res.Status)))
	ok(w, r, res)
}

func (s *server) HandleConfirmInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("forceAccept"))
	if isJSON(r) {
		var body struct {
			ForceAccept bool `json:"forceAccept"`
		}
		if err := decodeJSON(r, &body); err != nil {
			badRequest(w, r, "Invalid request body", err)
			return
		}
		force = force || body.ForceAccept
	}
	res, httpErr := s.b.Invitations.Confirm(r.Context(), userFrom(r), id, force)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, res)
}

func (s *server) HandleSentInvitations(w http.ResponseWriter, r *http.Request) {
	list, httpErr := s.b.Invitations.Sent(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, list)
}

func (s *server) HandleReceivedInvitations(w http.ResponseWriter, r *http.Request) {
	list, httpErr := s.b.Invitations.Received(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, list)
}

func (s *server) HandlePendingInvitations(w http.ResponseWriter, r *http.Request) {
	list, httpErr := s.b.Invitations.Pending(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, list)
}

// Coaching

func (s *server) HandleMyCoach(w http.ResponseWriter, r *http.Request) {
	res, httpErr := s.b.Coaching.MyCoach(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, res)
}

func (s *server) HandleMyAthletes(w http.ResponseWriter, r *http.Request) {
	res, httpErr := s.b.Coaching.MyAthletes(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, res)
}

func (s *server) HandleCoachProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	res, httpErr := s.b.Coaching.CoachProfile(r.Context(), id)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, res)
}

func (s *server) HandleEndCoaching(w http.ResponseWriter, r *http.Request) {
	if httpErr := s.b.Coaching.End(r.Context(), userFrom(r)); httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, map[string]string{"message": "Coaching relationship ended"})
}

// Training

func (s *server) HandleCreateLog(w http.ResponseWriter, r *http.Request) {
	var req training.LogRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	l, httpErr := s.b.Training.CreateLog(r.Context(), userFrom(r), req)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, l)
}

func (s *server) HandleMyLogs(w http.ResponseWriter, r *http.Request) {
	logs, httpErr := s.b.Training.MyLogs(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, logs)
}

func (s *server) HandleTodayLogs(w http.ResponseWriter, r *http.Request) {
	today, httpErr := s.b.Training.Today(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, today)
}

func (s *server) HandleTrainingStats(w http.ResponseWriter, r *http.Request) {
	stats, httpErr := s.b.Training.Stats(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, stats)
}

func (s *server) HandleChartData(w http.ResponseWriter, r *http.Request) {
	data, httpErr := s.b.Training.ChartData(r.Context(), userFrom(r), queryInt(r, "days", training.DefaultChartDays))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, data)
}

func (s *server) HandleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	if httpErr := s.b.Training.DeleteLog(r.Context(), userFrom(r), id); httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, map[string]string{"message": "Log deleted"})
}

// HandleAddAchievement accepts JSON, or a multipart form with an optional certificate file.
func (s *server) HandleAddAchievement(w http.ResponseWriter, r *http.Request) {
	var req training.AchievementRequest
	var certificate io.Reader
	if isMultipart(r) {
		f, err := s.formFile(w, r, "certificate")
		if err != nil {
			badRequest(w, r, "Invalid upload", err)
			return
		}
		if f != nil {
			defer f.Close()
			certificate = f
		}
		req = training.AchievementRequest{
			Title:           r.FormValue("title"),
			Description:     r.FormValue("description"),
			CompetitionName: r.FormValue("competitionName"),
			AchievementDate: r.FormValue("achievementDate"),
		}
		if rank, err := strconv.Atoi(r.FormValue("rankPosition")); err == nil {
			req.RankPosition = &rank
		}
	} else if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}

	a, httpErr := s.b.Training.AddAchievement(r.Context(), userFrom(r), req, certificate)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, a)
}

func (s *server) HandleMyAchievements(w http.ResponseWriter, r *http.Request) {
	list, httpErr := s.b.Training.MyAchievements(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, list)
}

func (s *server) HandleUserAchievements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	list, httpErr := s.b.Training.AchievementsOf(r.Context(), id)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, list)
}

func (s *server) HandleDeleteAchievement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	if httpErr := s.b.Training.DeleteAchievement(r.Context(), userFrom(r), id); httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, map[string]string{"message": "Achievement deleted"})
}

// Sponsorships

func (s *server) HandleOffer(w http.ResponseWriter, r *http.Request) {
	var req sponsorship.OfferRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	v, httpErr := s.b.Sponsorship.Offer(r.Context(), userFrom(r), req)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	s.b.Metrics.Event("sponsorship_offered")
	ok(w, r, v)
}

func (s *server) HandleRespondSponsorship(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	v, httpErr := s.b.Sponsorship.Respond(r.Context(), userFrom(r), id, statusParam(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, v)
}

func (s *server) HandleAthleteSponsorships(w http.ResponseWriter, r *http.Request) {
	res, httpErr := s.b.Sponsorship.ForAthlete(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, res)
}

func (s *server) HandleSponsorSponsorships(w http.ResponseWriter, r *http.Request) {
	res, httpErr := s.b.Sponsorship.ForSponsor(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, res)
}

func (s *server) HandleExportSponsorships(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if httpErr := s.b.Sponsorship.Export(r.Context(), userFrom(r), &buf); httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="sponsorships.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

func (s *server) HandleGetSponsorship(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	v, httpErr := s.b.Sponsorship.Get(r.Context(), userFrom(r), id)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, v)
}

// Notifications

func (s *server) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	list, httpErr := s.b.Notify.List(r.Context(), u)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, map[string]interface{}{
		"notifications": list,
		"unreadCount":   s.b.Notify.UnreadCount(r.Context(), u.ID),
	})
}

func (s *server) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, "Could not retrieve ID", err)
		return
	}
	if httpErr := s.b.Notify.MarkRead(r.Context(), userFrom(r), id); httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, map[string]string{"message": "Marked as read"})
}

func (s *server) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, httpErr := s.b.Notify.MarkAllRead(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, map[string]int64{"updated": n})
}

// Chat

func (s *server) HandleChatRooms(w http.ResponseWriter, r *http.Request) {
	rooms, httpErr := s.b.Chat.Rooms(r.Context(), userFrom(r))
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, rooms)
}

func (s *server) HandleChatMessages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "roomId")
	if err != nil {
		badRequest(w, r, "Could not retrieve room ID", err)
		return
	}
	msgs, httpErr := s.b.Chat.Messages(r.Context(), userFrom(r), id)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	ok(w, r, msgs)
}

func (s *server) HandleSendChatMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "roomId")
	if err != nil {
		badRequest(w, r, "Could not retrieve room ID", err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	m, httpErr := s.b.Chat.Send(r.Context(), userFrom(r), id, req.Content)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	s.b.Metrics.Event("chat_message_sent")
	ok(w, r, m)
}

// Reports

func (s *server) HandleFileReport(w http.ResponseWriter, r *http.Request) {
	var req reports.FileRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, "Invalid request body", err)
		return
	}
	rep, httpErr := s.b.Reports.File(r.Context(), userFrom(r), req)
	if httpErr != nil {
		fail(w, r, httpErr)
		return
	}
	s.b.Metrics.Event("report_filed")
	ok(w, r, rep)
}

// HandleAI forwards to the configured AI service.
func (s *server) HandleAI(w http.ResponseWriter, r *http.Request) {
	s.b.AI.Forward(w, r, userFrom(r))
}
