package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/iseage/signup/internal/config"
	"github.com/iseage/signup/internal/directory"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	gsettings "github.com/iseage/signup/internal/domain/settings"
	"github.com/iseage/signup/internal/mail"
	"github.com/iseage/signup/internal/services/settings"
	"github.com/iseage/signup/internal/storage"
	"github.com/iseage/signup/internal/storage/memory"
)

func identityUser(username string) identity.User {
	first := strings.ToUpper(username[:1]) + username[1:]
	return identity.User{
		Username:  username,
		FirstName: first,
		LastName:  "Tester",
		Email:     username + "@example.org",
	}
}

func participantFor(userID string) participant.Participant {
	return participant.Participant{UserID: userID}
}

type captureSender struct {
	msgs []mail.Message
}

func (c *captureSender) Send(_ context.Context, m mail.Message) error {
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *captureSender) bySubject(subject string) []mail.Message {
	var out []mail.Message
	for _, m := range c.msgs {
		if m.Subject == subject {
			out = append(out, m)
		}
	}
	return out
}

type env struct {
	store    *memory.Store
	dir      *directory.Fake
	sender   *captureSender
	settings *settings.Service
	svc      *Service
	names    directory.Names
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Default()
	store := memory.New()
	dir := directory.NewFake()
	sender := &captureSender{}
	ss := settings.New(store, cfg.Defaults, nil)
	names := directory.NewNames(cfg.Directory)
	svc := New(Deps{
		Users:        store,
		Participants: store,
		Teams:        store,
		Settings:     ss,
		Directory:    dir,
		Names:        names,
		Notifier:     mail.NewNotifier(sender, nil),
		SMTP:         cfg.SMTP,
		Logger:       nil,
	})
	return &env{store: store, dir: dir, sender: sender, settings: ss, svc: svc, names: names}
}

// addParticipant creates a user and blue participant, returning the
// participant ID.
func (e *env) addParticipant(t *testing.T, username string) string {
	t.Helper()
	ctx := context.Background()
	u, err := e.store.CreateUser(ctx, identityUser(username))
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	pt, err := e.store.CreateParticipant(ctx, participantFor(u.ID))
	if err != nil {
		t.Fatalf("create participant %s: %v", username, err)
	}
	return pt.ID
}

func (e *env) teamOf(t *testing.T, participantID string) string {
	t.Helper()
	pt, err := e.store.GetParticipant(context.Background(), participantID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	return pt.TeamID
}

func TestCreateTeamAssignsLowestFreeNumber(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for i, want := range []int{1, 2, 3} {
		id := e.addParticipant(t, fmt.Sprintf("captain%d", i))
		created, err := e.svc.CreateTeam(ctx, id, fmt.Sprintf("Team %d", i))
		if err != nil {
			t.Fatalf("CreateTeam: %v", err)
		}
		if created.Number != want {
			t.Fatalf("expected number %d, got %d", want, created.Number)
		}
		if !created.LookingForMembers {
			t.Fatal("new team should be looking for members")
		}
	}
}

func TestCreateTeamReusesFreedNumber(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.addParticipant(t, "alice")
	b := e.addParticipant(t, "bob")
	if _, err := e.svc.CreateTeam(ctx, a, "First"); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	second, err := e.svc.CreateTeam(ctx, b, "Second")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	// Alice disbands; her number 1 returns to the pool.
	if err := e.svc.DisbandTeam(ctx, a); err != nil {
		t.Fatalf("DisbandTeam: %v", err)
	}
	if second.Number != 2 {
		t.Fatalf("setup: second team got number %d", second.Number)
	}

	c := e.addParticipant(t, "carol")
	third, err := e.svc.CreateTeam(ctx, c, "Third")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if third.Number != 1 {
		t.Fatalf("expected freed number 1, got %d", third.Number)
	}
}

func TestCreateTeamDuplicateName(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.addParticipant(t, "alice")
	b := e.addParticipant(t, "bob")
	if _, err := e.svc.CreateTeam(ctx, a, "Defenders"); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if _, err := e.svc.CreateTeam(ctx, b, "Defenders"); !errors.Is(err, ErrTeamExists) {
		t.Fatalf("expected ErrTeamExists, got %v", err)
	}
}

func TestCreateTeamPoolExhausted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if err := e.settings.Set(ctx, gsettings.NumberOfTeams, 1); err != nil {
		t.Fatalf("Set: %v", err)
	}

	a := e.addParticipant(t, "alice")
	b := e.addParticipant(t, "bob")
	if _, err := e.svc.CreateTeam(ctx, a, "First"); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if _, err := e.svc.CreateTeam(ctx, b, "Second"); !errors.Is(err, ErrOutOfTeamNumbers) {
		t.Fatalf("expected ErrOutOfTeamNumbers, got %v", err)
	}
}

func TestCreateTeamSyncsDirectoryAndMails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, a, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	groupDN := e.names.TeamGroupDN(created.Number)
	userDN := e.names.UserDN("Alice", "Tester", false, false)
	if !e.dir.HasMember(groupDN, userDN) {
		t.Fatalf("captain missing from %s", groupDN)
	}
	if got := e.sender.bySubject(mail.SubjectTeamCreated); len(got) != 1 {
		t.Fatalf("expected one team-created mail, got %d", len(got))
	}
}

func TestJoinOpenTeam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	joiner := e.addParticipant(t, "bob")
	joined, err := e.svc.JoinTeam(ctx, joiner, created.ID)
	if err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	if !joined {
		t.Fatal("expected immediate join on an open team")
	}
	if e.teamOf(t, joiner) != created.ID {
		t.Fatal("participant not on the team")
	}
	if !e.dir.HasMember(e.names.TeamGroupDN(created.Number), e.names.UserDN("Bob", "Tester", false, false)) {
		t.Fatal("joiner missing from the team group")
	}
	if got := e.sender.bySubject(mail.SubjectMemberJoined); len(got) != 1 {
		t.Fatalf("expected captain notification, got %d", len(got))
	}
	if got := e.sender.bySubject(mail.SubjectAddedToTeam); len(got) != 1 {
		t.Fatalf("expected joiner notification, got %d", len(got))
	}
}

func TestJoinClosedTeamFilesRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	created.LookingForMembers = false
	if _, err := e.store.UpdateTeam(ctx, created); err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}

	joiner := e.addParticipant(t, "bob")
	joined, err := e.svc.JoinTeam(ctx, joiner, created.ID)
	if err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	if joined {
		t.Fatal("closed team should take a request, not a join")
	}
	if e.teamOf(t, joiner) != "" {
		t.Fatal("requester must not be on the team yet")
	}
	reqs, err := e.svc.JoinRequests(ctx, created.ID)
	if err != nil {
		t.Fatalf("JoinRequests: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected one pending request, got %d", len(reqs))
	}
	if got := e.sender.bySubject(mail.SubjectJoinRequested); len(got) != 1 {
		t.Fatalf("expected captain request mail, got %d", len(got))
	}
}

func TestApproveJoin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	created.LookingForMembers = false
	if _, err := e.store.UpdateTeam(ctx, created); err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}

	joiner := e.addParticipant(t, "bob")
	if _, err := e.svc.JoinTeam(ctx, joiner, created.ID); err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	if err := e.svc.ApproveJoin(ctx, capt, joiner); err != nil {
		t.Fatalf("ApproveJoin: %v", err)
	}
	if e.teamOf(t, joiner) != created.ID {
		t.Fatal("approved requester not on the team")
	}

	// No request left to approve twice.
	if err := e.svc.ApproveJoin(ctx, capt, joiner); !errors.Is(err, ErrNoSuchRequest) {
		t.Fatalf("expected ErrNoSuchRequest, got %v", err)
	}
}

func TestApproveJoinWrongTeam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	if _, err := e.svc.CreateTeam(ctx, capt, "Defenders"); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	other := e.addParticipant(t, "mallory")
	otherTeam, err := e.svc.CreateTeam(ctx, other, "Raiders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	otherTeam.LookingForMembers = false
	if _, err := e.store.UpdateTeam(ctx, otherTeam); err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}

	joiner := e.addParticipant(t, "bob")
	if _, err := e.svc.JoinTeam(ctx, joiner, otherTeam.ID); err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	if err := e.svc.ApproveJoin(ctx, capt, joiner); !errors.Is(err, ErrNoSuchRequest) {
		t.Fatalf("expected ErrNoSuchRequest for another team's request, got %v", err)
	}
}

func TestJoinFullTeam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if err := e.settings.Set(ctx, gsettings.MaxTeamSize, 2); err != nil {
		t.Fatalf("Set: %v", err)
	}

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	second := e.addParticipant(t, "bob")
	if _, err := e.svc.JoinTeam(ctx, second, created.ID); err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}

	// Capacity reached: the team stops advertising.
	got, err := e.store.GetTeam(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if got.LookingForMembers {
		t.Fatal("full team still looking for members")
	}

	third := e.addParticipant(t, "carol")
	if _, err := e.svc.JoinTeam(ctx, third, created.ID); !errors.Is(err, ErrTeamFull) {
		t.Fatalf("expected ErrTeamFull, got %v", err)
	}
}

func TestJoinPreconditions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	if _, err := e.svc.JoinTeam(ctx, capt, created.ID); !errors.Is(err, ErrHasTeam) {
		t.Fatalf("expected ErrHasTeam, got %v", err)
	}

	red, err := e.store.CreateUser(ctx, identityUser("redone"))
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	redPt := participantFor(red.ID)
	redPt.IsRed = true
	rp, err := e.store.CreateParticipant(ctx, redPt)
	if err != nil {
		t.Fatalf("CreateParticipant: %v", err)
	}
	if _, err := e.svc.JoinTeam(ctx, rp.ID, created.ID); !errors.Is(err, ErrRedGreen) {
		t.Fatalf("expected ErrRedGreen, got %v", err)
	}
}

func TestStepDownLastCaptain(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := e.svc.StepDown(ctx, capt); !errors.Is(err, ErrOnlyRemainingCaptain) {
		t.Fatalf("expected ErrOnlyRemainingCaptain, got %v", err)
	}

	// Promote a second captain, then stepping down works.
	mate := e.addParticipant(t, "bob")
	if _, err := e.svc.JoinTeam(ctx, mate, created.ID); err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	if err := e.svc.RequestPromotion(ctx, mate); err != nil {
		t.Fatalf("RequestPromotion: %v", err)
	}
	if err := e.svc.PromoteToCaptain(ctx, capt, mate); err != nil {
		t.Fatalf("PromoteToCaptain: %v", err)
	}
	if err := e.svc.StepDown(ctx, capt); err != nil {
		t.Fatalf("StepDown: %v", err)
	}

	pt, err := e.store.GetParticipant(ctx, capt)
	if err != nil {
		t.Fatalf("GetParticipant: %v", err)
	}
	if pt.Captain {
		t.Fatal("captain flag survived step down")
	}
	if got := e.sender.bySubject(mail.SubjectSteppedDown); len(got) != 1 {
		t.Fatalf("expected step-down mail to remaining captain, got %d", len(got))
	}
}

func TestPromoteRequiresRequest(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	mate := e.addParticipant(t, "bob")
	if _, err := e.svc.JoinTeam(ctx, mate, created.ID); err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	if err := e.svc.PromoteToCaptain(ctx, capt, mate); !errors.Is(err, ErrNoSuchRequest) {
		t.Fatalf("expected ErrNoSuchRequest without a pending request, got %v", err)
	}
	if err := e.svc.PromoteToCaptain(ctx, mate, capt); !errors.Is(err, ErrNotCaptain) {
		t.Fatalf("expected ErrNotCaptain for non-captain, got %v", err)
	}
}

func TestLeaveTeamDeletesEmptyTeam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := e.svc.LeaveTeam(ctx, capt); err != nil {
		t.Fatalf("LeaveTeam: %v", err)
	}
	if _, err := e.store.GetTeam(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected empty team deleted, got %v", err)
	}
	if e.dir.HasMember(e.names.TeamGroupDN(created.Number), e.names.UserDN("Alice", "Tester", false, false)) {
		t.Fatal("leaver still in the directory group")
	}
}

func TestLeaveTeamNotifiesCaptains(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	mate := e.addParticipant(t, "bob")
	if _, err := e.svc.JoinTeam(ctx, mate, created.ID); err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	if err := e.svc.LeaveTeam(ctx, mate); err != nil {
		t.Fatalf("LeaveTeam: %v", err)
	}
	if got := e.sender.bySubject(mail.SubjectMemberLeft); len(got) != 1 {
		t.Fatalf("expected member-left mail, got %d", len(got))
	}
	if _, err := e.store.GetTeam(ctx, created.ID); err != nil {
		t.Fatalf("team with remaining members must survive: %v", err)
	}
}

func TestDisbandTeamCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	mate := e.addParticipant(t, "bob")
	if _, err := e.svc.JoinTeam(ctx, mate, created.ID); err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	created.LookingForMembers = false
	if _, err := e.store.UpdateTeam(ctx, created); err != nil {
		t.Fatalf("UpdateTeam: %v", err)
	}
	requester := e.addParticipant(t, "carol")
	if _, err := e.svc.JoinTeam(ctx, requester, created.ID); err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}

	if err := e.svc.DisbandTeam(ctx, mate); !errors.Is(err, ErrNotCaptain) {
		t.Fatalf("expected ErrNotCaptain for member disband, got %v", err)
	}
	if err := e.svc.DisbandTeam(ctx, capt); err != nil {
		t.Fatalf("DisbandTeam: %v", err)
	}

	if _, err := e.store.GetTeam(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected team deleted, got %v", err)
	}
	for _, id := range []string{capt, mate, requester} {
		pt, err := e.store.GetParticipant(ctx, id)
		if err != nil {
			t.Fatalf("GetParticipant: %v", err)
		}
		if pt.TeamID != "" || pt.RequestedTeamID != "" || pt.Captain {
			t.Fatalf("participant %s kept team state: %+v", id, pt)
		}
	}
	if members := e.dir.Members(e.names.TeamGroupDN(created.Number)); len(members) != 0 {
		t.Fatalf("directory group still has members: %v", members)
	}
	got := e.sender.bySubject(mail.SubjectTeamDisbanded)
	if len(got) != 1 {
		t.Fatalf("expected one disband mail, got %d", len(got))
	}
	if len(got[0].BCC) != 2 {
		t.Fatalf("expected both former members on BCC, got %v", got[0].BCC)
	}
}

func TestDirectoryFailureKeepsLocalState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	e.dir.FailWith("AddMember", errors.New("directory offline"))
	joiner := e.addParticipant(t, "bob")
	if _, err := e.svc.JoinTeam(ctx, joiner, created.ID); err == nil {
		t.Fatal("expected directory error to surface")
	}
	// Local membership committed despite the directory failure.
	if e.teamOf(t, joiner) != created.ID {
		t.Fatal("local join rolled back on directory failure")
	}
}

func TestSetLookingForTeam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	free := e.addParticipant(t, "alice")
	if err := e.svc.SetLookingForTeam(ctx, free, true); err != nil {
		t.Fatalf("SetLookingForTeam: %v", err)
	}
	pt, err := e.store.GetParticipant(ctx, free)
	if err != nil {
		t.Fatalf("GetParticipant: %v", err)
	}
	if !pt.LookingForTeam {
		t.Fatal("flag not set")
	}

	capt := e.addParticipant(t, "bob")
	if _, err := e.svc.CreateTeam(ctx, capt, "Defenders"); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := e.svc.SetLookingForTeam(ctx, capt, true); !errors.Is(err, ErrHasTeam) {
		t.Fatalf("expected ErrHasTeam, got %v", err)
	}
}

func TestJoiningClearsLookingForTeam(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	capt := e.addParticipant(t, "alice")
	created, err := e.svc.CreateTeam(ctx, capt, "Defenders")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	joiner := e.addParticipant(t, "bob")
	if err := e.svc.SetLookingForTeam(ctx, joiner, true); err != nil {
		t.Fatalf("SetLookingForTeam: %v", err)
	}
	if _, err := e.svc.JoinTeam(ctx, joiner, created.ID); err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	pt, err := e.store.GetParticipant(ctx, joiner)
	if err != nil {
		t.Fatalf("GetParticipant: %v", err)
	}
	if pt.LookingForTeam {
		t.Fatal("looking-for-team flag survived the join")
	}
}

func TestCheckInGating(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	pt := e.addParticipant(t, "alice")
	if err := e.svc.CheckIn(ctx, pt); !errors.Is(err, ErrCheckInClosed) {
		t.Fatalf("expected ErrCheckInClosed with no date, got %v", err)
	}

	past := time.Now().Add(-time.Hour)
	if err := e.settings.Set(ctx, gsettings.CheckInDate, past); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := e.svc.CheckIn(ctx, pt); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	got, err := e.store.GetParticipant(ctx, pt)
	if err != nil {
		t.Fatalf("GetParticipant: %v", err)
	}
	if !got.CheckedIn {
		t.Fatal("check-in flag not set")
	}

	if err := e.svc.UndoCheckIn(ctx, pt); err != nil {
		t.Fatalf("UndoCheckIn: %v", err)
	}
	got, _ = e.store.GetParticipant(ctx, pt)
	if got.CheckedIn {
		t.Fatal("check-in flag survived undo")
	}
}

func TestApproveMovesDirectoryGroups(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.store.CreateUser(ctx, identityUser("redone"))
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	rp := participantFor(u.ID)
	rp.IsRed = true
	pt, err := e.store.CreateParticipant(ctx, rp)
	if err != nil {
		t.Fatalf("CreateParticipant: %v", err)
	}
	dn := e.names.UserDN(u.FirstName, u.LastName, true, false)
	if err := e.dir.AddMember(ctx, dn, e.names.RedGroupDN(true)); err != nil {
		t.Fatalf("seed pending group: %v", err)
	}

	if err := e.svc.Approve(ctx, pt.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if e.dir.HasMember(e.names.RedGroupDN(true), dn) {
		t.Fatal("still in pending group after approval")
	}
	if !e.dir.HasMember(e.names.RedGroupDN(false), dn) {
		t.Fatal("missing from active group after approval")
	}

	if err := e.svc.Unapprove(ctx, pt.ID); err != nil {
		t.Fatalf("Unapprove: %v", err)
	}
	if !e.dir.HasMember(e.names.RedGroupDN(true), dn) {
		t.Fatal("missing from pending group after unapproval")
	}

	blue := e.addParticipant(t, "bluey")
	if err := e.svc.Approve(ctx, blue); !errors.Is(err, ErrNotRedGreen) {
		t.Fatalf("expected ErrNotRedGreen, got %v", err)
	}
}
