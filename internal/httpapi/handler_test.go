package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iseage/signup/internal/app"
	"github.com/iseage/signup/internal/config"
	"github.com/iseage/signup/internal/directory"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/mail"
	"github.com/iseage/signup/internal/storage/memory"
)

type captureSender struct {
	msgs []mail.Message
}

func (c *captureSender) Send(_ context.Context, m mail.Message) error {
	c.msgs = append(c.msgs, m)
	return nil
}

type fixture struct {
	app     *app.Application
	handler http.Handler
	store   *memory.Store
	dir     *directory.Fake
	names   directory.Names
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	store := memory.New()
	dir := directory.NewFake()
	application, err := app.New(cfg, app.Stores{
		Users:        store,
		Participants: store,
		Teams:        store,
		Settings:     store,
		Archive:      store,
	}, dir, &captureSender{}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	return &fixture{
		app:     application,
		handler: NewHandler(application, nil),
		store:   store,
		dir:     dir,
		names:   directory.NewNames(cfg.Directory),
		cfg:     cfg,
	}
}

func marshal(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(data)
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, marshal(t, body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

// signupAndLogin provisions an account through the API and returns a
// session token with the user ID.
func (f *fixture) signupAndLogin(t *testing.T, username, first, last string) (token, userID string) {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/signup", "", map[string]string{
		"username":   username,
		"first_name": first,
		"last_name":  last,
		"email":      username + "@example.org",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d body %s", username, resp.Code, resp.Body.String())
	}

	dn := f.names.UserDN(first, last, false, false)
	password := f.dir.Password(dn)
	f.dir.SetCredential(f.names.BindName(username), password)

	resp = f.do(t, http.MethodPost, "/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, resp.Code, resp.Body.String())
	}
	var payload struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	return payload.Token, payload.User.ID
}

// adminToken seeds a superuser directly and issues its token.
func (f *fixture) adminToken(t *testing.T) string {
	t.Helper()
	u, err := f.store.CreateUser(context.Background(), identity.User{
		Username:    "root",
		FirstName:   "Root",
		LastName:    "Admin",
		Email:       "root@example.org",
		IsSuperuser: true,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	token, err := f.app.Auth.IssueToken(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestSignupLoginAndTeamLifecycle(t *testing.T) {
	f := newFixture(t)

	aliceToken, _ := f.signupAndLogin(t, "alice", "Alice", "Tester")
	bobToken, _ := f.signupAndLogin(t, "bob", "Bob", "Tester")

	// Alice creates a team.
	resp := f.do(t, http.MethodPost, "/teams", aliceToken, map[string]string{"name": "Defenders"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create team: status %d body %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID     string `json:"id"`
		Number int    `json:"number"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal team: %v", err)
	}
	if created.Number != 1 {
		t.Fatalf("expected team number 1, got %d", created.Number)
	}

	// Duplicate name conflicts.
	resp = f.do(t, http.MethodPost, "/teams", bobToken, map[string]string{"name": "Defenders"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate team name: status %d", resp.Code)
	}

	// Bob joins the open team.
	resp = f.do(t, http.MethodPost, "/teams/"+created.ID+"/join", bobToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("join: status %d body %s", resp.Code, resp.Body.String())
	}
	var join struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &join); err != nil {
		t.Fatalf("unmarshal join: %v", err)
	}
	if join.Status != "joined" {
		t.Fatalf("expected immediate join, got %q", join.Status)
	}

	// The roster shows both members; Alice as captain sees no requests.
	resp = f.do(t, http.MethodGet, "/teams/"+created.ID, aliceToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("detail: status %d", resp.Code)
	}
	var detail struct {
		Members []map[string]any `json:"members"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &detail); err != nil {
		t.Fatalf("unmarshal detail: %v", err)
	}
	if len(detail.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(detail.Members))
	}

	// Bob leaves again.
	resp = f.do(t, http.MethodPost, "/team/leave", bobToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("leave: status %d body %s", resp.Code, resp.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	if resp := f.do(t, http.MethodGet, "/teams", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
	if resp := f.do(t, http.MethodGet, "/teams", "garbage-token", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp.Code)
	}
}

func TestAdminEndpointsRequireSuperuser(t *testing.T) {
	f := newFixture(t)

	aliceToken, _ := f.signupAndLogin(t, "alice", "Alice", "Tester")
	if resp := f.do(t, http.MethodGet, "/admin/settings", aliceToken, nil); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for regular user, got %d", resp.Code)
	}

	admin := f.adminToken(t)
	if resp := f.do(t, http.MethodGet, "/admin/settings", admin, nil); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.Code)
	}
}

func TestAdminSettingsPatch(t *testing.T) {
	f := newFixture(t)
	admin := f.adminToken(t)

	resp := f.do(t, http.MethodPatch, "/admin/settings", admin, map[string]any{
		"max_team_size":           6,
		"competition_name":        "Fall CDC",
		"enable_account_creation": false,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("patch: status %d body %s", resp.Code, resp.Body.String())
	}
	var view map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal settings: %v", err)
	}
	if view["max_team_size"] != float64(6) || view["competition_name"] != "Fall CDC" {
		t.Fatalf("settings not applied: %v", view)
	}
	if _, leaked := view["administrator_bind_pw"]; leaked {
		t.Fatal("bind password leaked through the settings view")
	}

	// Signup now closed.
	resp = f.do(t, http.MethodPost, "/signup", "", map[string]string{
		"username": "late", "first_name": "Late", "last_name": "Comer",
		"email": "late@example.org",
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with signup disabled, got %d", resp.Code)
	}
}

func TestBroadcastAndArchive(t *testing.T) {
	f := newFixture(t)
	admin := f.adminToken(t)
	aliceToken, _ := f.signupAndLogin(t, "alice", "Alice", "Tester")

	resp := f.do(t, http.MethodPost, "/admin/broadcast", admin, map[string]string{
		"subject":  "Downtime",
		"content":  "Network down at noon.",
		"audience": "everyone",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("broadcast: status %d body %s", resp.Code, resp.Body.String())
	}

	resp = f.do(t, http.MethodGet, "/archive", aliceToken, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("archive: status %d", resp.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal archive: %v", err)
	}
	if len(list) != 1 || list[0]["subject"] != "Downtime" {
		t.Fatalf("unexpected archive: %v", list)
	}

	resp = f.do(t, http.MethodPost, "/admin/broadcast", admin, map[string]string{
		"subject": "x", "content": "y", "audience": "martians",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown audience, got %d", resp.Code)
	}
}

func TestCompetitionResetRequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	admin := f.adminToken(t)
	f.signupAndLogin(t, "alice", "Alice", "Tester")

	if resp := f.do(t, http.MethodPost, "/admin/reset", admin, map[string]any{"confirm": false}); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without confirmation, got %d", resp.Code)
	}
	if resp := f.do(t, http.MethodPost, "/admin/reset", admin, map[string]any{"confirm": true}); resp.Code != http.StatusOK {
		t.Fatalf("reset: status %d", resp.Code)
	}

	users, err := f.store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || !users[0].IsSuperuser {
		t.Fatalf("expected only the superuser after reset, got %d users", len(users))
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	if resp := f.do(t, http.MethodGet, "/healthz", "", nil); resp.Code != http.StatusOK {
		t.Fatalf("healthz: status %d", resp.Code)
	}
}

func TestRateLimitOnLogin(t *testing.T) {
	f := newFixture(t)

	var limited bool
	for i := 0; i < 30; i++ {
		resp := f.do(t, http.MethodPost, "/login", "", map[string]string{
			"username": fmt.Sprintf("user%d", i), "password": "x",
		})
		if resp.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected the login endpoint to rate limit")
	}
}
