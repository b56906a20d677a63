// Package httpapi exposes the portal over a JSON REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iseage/signup/internal/app"
	"github.com/iseage/signup/internal/app/metrics"
	"github.com/iseage/signup/internal/auth"
	"github.com/iseage/signup/internal/directory"
	domainbroadcast "github.com/iseage/signup/internal/domain/broadcast"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	"github.com/iseage/signup/internal/domain/settings"
	"github.com/iseage/signup/internal/domain/team"
	"github.com/iseage/signup/internal/logging"
	"github.com/iseage/signup/internal/services/accounts"
	"github.com/iseage/signup/internal/services/broadcast"
	"github.com/iseage/signup/internal/services/teams"
	"github.com/iseage/signup/internal/storage"
)

// Handler bundles the HTTP endpoints for the portal services.
type Handler struct {
	app *app.Application
	log *logging.Logger
}

// NewHandler returns the portal's HTTP handler with authentication,
// rate limiting on the public endpoints, and metrics instrumentation
// applied.
func NewHandler(application *app.Application, log *logging.Logger) http.Handler {
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	h := &Handler{app: application, log: log}

	limiter := newRateLimiter(5, 10)
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", h.healthz)
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/signup", limiter.wrap(http.HandlerFunc(h.signup)))
	mux.Handle("/signup/", limiter.wrap(http.HandlerFunc(h.signup)))
	mux.Handle("/login", limiter.wrap(http.HandlerFunc(h.login)))
	mux.Handle("/password/forgot", limiter.wrap(http.HandlerFunc(h.forgotPassword)))

	mux.HandleFunc("/me", h.authed(h.me))
	mux.HandleFunc("/password", h.authed(h.changePassword))
	mux.HandleFunc("/teams", h.authed(h.teams))
	mux.HandleFunc("/teams/", h.authed(h.teamResources))
	mux.HandleFunc("/team/leave", h.authed(h.leaveTeam))
	mux.HandleFunc("/team/disband", h.authed(h.disbandTeam))
	mux.HandleFunc("/team/stepdown", h.authed(h.stepDown))
	mux.HandleFunc("/team/captain-request", h.authed(h.requestPromotion))
	mux.HandleFunc("/team/approve", h.authed(h.approveJoin))
	mux.HandleFunc("/team/promote", h.authed(h.promote))
	mux.HandleFunc("/checkin", h.authed(h.checkIn))
	mux.HandleFunc("/lookingforteam", h.authed(h.lookingForTeam))
	mux.HandleFunc("/archive", h.authed(h.archive))
	mux.HandleFunc("/archive/", h.authed(h.archive))

	mux.HandleFunc("/admin/settings", h.admin(h.adminSettings))
	mux.HandleFunc("/admin/participants", h.admin(h.adminParticipants))
	mux.HandleFunc("/admin/participants/", h.admin(h.adminParticipantActions))
	mux.HandleFunc("/admin/broadcast", h.admin(h.adminBroadcast))
	mux.HandleFunc("/admin/reset", h.admin(h.adminReset))
	mux.HandleFunc("/admin/reconcile", h.admin(h.adminReconcile))

	return metrics.InstrumentHandler(mux)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// signup provisions a new account. The path selects the account type:
// /signup for blue, /signup/red and /signup/green for auxiliary roles.
func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	accType := accounts.Blue
	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/signup"), "/") {
	case "":
	case "red":
		accType = accounts.Red
	case "green":
		accType = accounts.Green
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var payload struct {
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user, err := h.app.Accounts.CreateAccount(r.Context(), accounts.SignupRequest{
		Username:  payload.Username,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Type:      accType,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	metrics.RecordSignup(string(accType))
	writeJSON(w, http.StatusCreated, userView(user))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	user, token, err := h.app.Auth.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userView(user),
	})
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// Unknown addresses get the same response as known ones so the
	// endpoint cannot be used to enumerate accounts.
	if err := h.app.Accounts.ResetPassword(r.Context(), payload.Email); err != nil && !errors.Is(err, storage.ErrNotFound) {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.New == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("new_password is required"))
		return
	}
	claims := claimsFrom(r.Context())
	if err := h.app.Accounts.UpdatePassword(r.Context(), claims.Subject, payload.Current, payload.New); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user, pt, err := h.currentParticipant(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        userView(user),
		"participant": participantView(pt),
	})
}

func (h *Handler) teams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := h.app.Teams.ListTeams(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		views := make([]map[string]any, 0, len(list))
		for _, t := range list {
			views = append(views, teamView(t))
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var payload struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(payload.Name) == "" {
			writeError(w, http.StatusBadRequest, fmt.Errorf("name is required"))
			return
		}
		_, pt, err := h.currentParticipant(r)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		created, err := h.app.Teams.CreateTeam(r.Context(), pt.ID, strings.TrimSpace(payload.Name))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		metrics.RecordTeamEvent("create")
		writeJSON(w, http.StatusCreated, teamView(created))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) teamResources(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/teams"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	teamID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.teamDetail(w, r, teamID)
		return
	}

	if len(parts) == 2 && parts[1] == "join" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, pt, err := h.currentParticipant(r)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		joined, err := h.app.Teams.JoinTeam(r.Context(), pt.ID, teamID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		status := "requested"
		if joined {
			status = "joined"
			metrics.RecordTeamEvent("join")
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) teamDetail(w http.ResponseWriter, r *http.Request, teamID string) {
	ctx := r.Context()
	members, err := h.app.Teams.TeamMembers(ctx, teamID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	memberViews := make([]map[string]any, 0, len(members))
	for _, m := range members {
		memberViews = append(memberViews, participantView(m))
	}

	resp := map[string]any{"members": memberViews}

	// Captains of this team also see the pending join requests.
	_, pt, err := h.currentParticipant(r)
	if err == nil && pt.Captain && pt.TeamID == teamID {
		requests, err := h.app.Teams.JoinRequests(ctx, teamID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		reqViews := make([]map[string]any, 0, len(requests))
		for _, q := range requests {
			reqViews = append(reqViews, participantView(q))
		}
		resp["join_requests"] = reqViews
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) leaveTeam(w http.ResponseWriter, r *http.Request) {
	h.participantAction(w, r, "leave", h.app.Teams.LeaveTeam)
}

func (h *Handler) disbandTeam(w http.ResponseWriter, r *http.Request) {
	h.participantAction(w, r, "disband", h.app.Teams.DisbandTeam)
}

func (h *Handler) stepDown(w http.ResponseWriter, r *http.Request) {
	h.participantAction(w, r, "stepdown", h.app.Teams.StepDown)
}

func (h *Handler) requestPromotion(w http.ResponseWriter, r *http.Request) {
	h.participantAction(w, r, "captain-request", h.app.Teams.RequestPromotion)
}

// participantAction runs a bodyless POST against the caller's own
// participant record.
func (h *Handler) participantAction(w http.ResponseWriter, r *http.Request, event string, fn func(ctx context.Context, participantID string) error) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, pt, err := h.currentParticipant(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := fn(r.Context(), pt.ID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	metrics.RecordTeamEvent(event)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// approveJoin and promote are captain operations targeting a teammate.
func (h *Handler) approveJoin(w http.ResponseWriter, r *http.Request) {
	h.captainAction(w, r, "approve", h.app.Teams.ApproveJoin)
}

func (h *Handler) promote(w http.ResponseWriter, r *http.Request) {
	h.captainAction(w, r, "promote", h.app.Teams.PromoteToCaptain)
}

func (h *Handler) captainAction(w http.ResponseWriter, r *http.Request, event string, fn func(ctx context.Context, captainID, targetID string) error) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.ParticipantID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("participant_id is required"))
		return
	}
	_, pt, err := h.currentParticipant(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := fn(r.Context(), pt.ID, payload.ParticipantID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	metrics.RecordTeamEvent(event)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	_, pt, err := h.currentParticipant(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	switch r.Method {
	case http.MethodPost:
		err = h.app.Teams.CheckIn(r.Context(), pt.ID)
	case http.MethodDelete:
		err = h.app.Teams.UndoCheckIn(r.Context(), pt.ID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) lookingForTeam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Looking bool `json:"looking"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	_, pt, err := h.currentParticipant(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := h.app.Teams.SetLookingForTeam(r.Context(), pt.ID, payload.Looking); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	claims := claimsFrom(r.Context())
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/archive"), "/")

	if id == "" {
		list, err := h.app.Broadcast.VisibleArchive(r.Context(), claims.Subject)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		views := make([]map[string]any, 0, len(list))
		for _, m := range list {
			views = append(views, archiveView(m))
		}
		writeJSON(w, http.StatusOK, views)
		return
	}

	m, err := h.app.Broadcast.GetArchived(r.Context(), claims.Subject, id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, archiveView(m))
}

func (h *Handler) adminSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		gs, err := h.app.Settings.Current(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, settingsView(gs))

	case http.MethodPatch:
		var payload map[string]any
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		for name, raw := range payload {
			value, err := coerceSetting(name, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			if err := h.app.Settings.Set(r.Context(), name, value); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
		gs, err := h.app.Settings.Current(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, settingsView(gs))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) adminParticipants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pts, err := h.app.Teams.ListParticipants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]map[string]any, 0, len(pts))
	for _, pt := range pts {
		views = append(views, participantView(pt))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) adminParticipantActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/admin/participants"), "/"), "/")
	if len(parts) != 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := parts[0]

	var err error
	switch parts[1] {
	case "approve":
		err = h.app.Teams.Approve(r.Context(), id)
	case "unapprove":
		err = h.app.Teams.Unapprove(r.Context(), id)
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) adminBroadcast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Subject  string `json:"subject"`
		Content  string `json:"content"`
		Audience string `json:"audience"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Subject == "" || payload.Content == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("subject and content are required"))
		return
	}
	claims := claimsFrom(r.Context())
	archived, err := h.app.Broadcast.Send(r.Context(), claims.Subject, payload.Subject,
		payload.Content, domainbroadcast.Audience(payload.Audience))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	metrics.RecordBroadcast()
	writeJSON(w, http.StatusCreated, archiveView(archived))
}

func (h *Handler) adminReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// Resets are irreversible; require explicit confirmation.
	var payload struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !payload.Confirm {
		writeError(w, http.StatusBadRequest, fmt.Errorf("confirm must be true"))
		return
	}
	if err := h.app.Maintenance.ResetCompetition(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) adminReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.app.Maintenance.ReconcileDirectory(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// currentParticipant resolves the authenticated user's records.
func (h *Handler) currentParticipant(r *http.Request) (identity.User, participant.Participant, error) {
	claims := claimsFrom(r.Context())
	return h.app.Teams.Lookup(r.Context(), claims.Subject)
}

func userView(u identity.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"staff":      u.IsStaff,
		"superuser":  u.IsSuperuser,
	}
}

func participantView(p participant.Participant) map[string]any {
	return map[string]any{
		"id":                p.ID,
		"user_id":           p.UserID,
		"team_id":           p.TeamID,
		"requested_team_id": p.RequestedTeamID,
		"captain":           p.Captain,
		"requests_captain":  p.RequestsCaptain,
		"checked_in":        p.CheckedIn,
		"looking_for_team":  p.LookingForTeam,
		"red":               p.IsRed,
		"green":             p.IsGreen,
		"approved":          p.Approved,
	}
}

func teamView(t team.Team) map[string]any {
	return map[string]any{
		"id":                  t.ID,
		"number":              t.Number,
		"name":                t.Name,
		"looking_for_members": t.LookingForMembers,
	}
}

func archiveView(m domainbroadcast.ArchivedEmail) map[string]any {
	return map[string]any{
		"id":       m.ID,
		"subject":  m.Subject,
		"content":  m.Content,
		"audience": string(m.Audience),
		"sent_at":  m.SentAt.Format(time.RFC3339),
	}
}

func settingsView(gs settings.GlobalSettings) map[string]any {
	view := map[string]any{
		settings.NumberOfTeams:         gs.NumberOfTeams,
		settings.MaxTeamSize:           gs.MaxTeamSize,
		settings.AdministratorBindDN:   gs.AdministratorBindDN,
		settings.DocumentationURL:      gs.DocumentationURL,
		settings.CompetitionName:       gs.CompetitionName,
		settings.EnableAccountCreation: gs.EnableAccountCreation,
		settings.EnableRed:             gs.EnableRed,
		settings.EnableGreen:           gs.EnableGreen,
	}
	// The bind password never leaves the server.
	if gs.CheckInDate != nil {
		view[settings.CheckInDate] = gs.CheckInDate.Format(time.RFC3339)
	}
	if gs.CompetitionDate != nil {
		view[settings.CompetitionDate] = gs.CompetitionDate.Format(time.RFC3339)
	}
	return view
}

// coerceSetting converts a decoded JSON value into the type the
// settings service expects for the named setting.
func coerceSetting(name string, raw any) (any, error) {
	switch name {
	case settings.NumberOfTeams, settings.MaxTeamSize:
		f, ok := raw.(float64)
		if !ok || f != float64(int(f)) {
			return nil, fmt.Errorf("setting %q wants an integer", name)
		}
		return int(f), nil
	case settings.CheckInDate, settings.CompetitionDate:
		if raw == nil {
			return nil, nil
		}
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("setting %q wants an RFC 3339 timestamp", name)
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("setting %q: %w", name, err)
		}
		return ts, nil
	}
	return raw, nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, teams.ErrTeamExists),
		errors.Is(err, teams.ErrOutOfTeamNumbers),
		errors.Is(err, directory.ErrUsernameExists),
		errors.Is(err, directory.ErrDuplicateName),
		errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidLogin), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, teams.ErrNotCaptain),
		errors.Is(err, accounts.ErrPasswordMismatch),
		errors.Is(err, accounts.ErrSignupClosed),
		errors.Is(err, broadcast.ErrNotInAudience):
		return http.StatusForbidden
	case errors.Is(err, teams.ErrOnlyRemainingCaptain),
		errors.Is(err, teams.ErrTeamFull),
		errors.Is(err, teams.ErrNoTeam),
		errors.Is(err, teams.ErrHasTeam),
		errors.Is(err, teams.ErrNoSuchRequest),
		errors.Is(err, teams.ErrRedGreen),
		errors.Is(err, teams.ErrNotRedGreen),
		errors.Is(err, teams.ErrCheckInClosed),
		errors.Is(err, broadcast.ErrInvalidAudience):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeJSON(body io.ReadCloser, dst any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
