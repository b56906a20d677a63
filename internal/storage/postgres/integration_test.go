package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	"github.com/iseage/signup/internal/domain/team"
	"github.com/iseage/signup/internal/storage"
)

// TestStoreIntegration exercises the store against a live database.
// Point TEST_POSTGRES_DSN at a scratch database to enable it.
func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := New(db)

	username := "it-" + uuid.NewString()[:8]
	u, err := store.CreateUser(ctx, identity.User{Username: username, Email: username + "@example.org"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := store.CreateUser(ctx, identity.User{Username: username}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	tm, err := store.CreateTeam(ctx, team.Team{Number: 9000 + int(uuid.New().ID()%1000), Name: "it-" + uuid.NewString()[:8], LookingForMembers: true})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	p, err := store.CreateParticipant(ctx, participant.Participant{UserID: u.ID})
	if err != nil {
		t.Fatalf("create participant: %v", err)
	}

	p.TeamID = tm.ID
	p.Captain = true
	if _, err := store.UpdateParticipant(ctx, p, storage.FieldTeam, storage.FieldCaptain); err != nil {
		t.Fatalf("update participant: %v", err)
	}

	members, err := store.ListTeamMembers(ctx, tm.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 || !members[0].Captain {
		t.Fatalf("unexpected members: %+v", members)
	}

	// Deleting the user cascades to its participant.
	if err := store.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := store.GetParticipant(ctx, p.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected participant gone after user delete, got %v", err)
	}
	if err := store.DeleteTeam(ctx, tm.ID); err != nil {
		t.Fatalf("delete team: %v", err)
	}
}
