// Package postgres implements the storage interfaces on PostgreSQL.
// Uniqueness is enforced by the schema; unique-violation errors from the
// driver are translated to storage.ErrConflict so services can retry
// their read-check-write sequences.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/iseage/signup/internal/domain/broadcast"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	"github.com/iseage/signup/internal/domain/settings"
	"github.com/iseage/signup/internal/domain/team"
	"github.com/iseage/signup/internal/storage"
)

// Store is the PostgreSQL persistence layer.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ParticipantStore = (*Store)(nil)
var _ storage.TeamStore = (*Store)(nil)
var _ storage.SettingsStore = (*Store)(nil)
var _ storage.ArchiveStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const uniqueViolation = "23505"

// translate maps driver errors onto the storage sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, storage.ErrConflict)
	}
	return fmt.Errorf("%s: %v", what, err)
}

// --- UserStore ---------------------------------------------------------------

type userRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Email        string    `db:"email"`
	IsStaff      bool      `db:"is_staff"`
	IsSuperuser  bool      `db:"is_superuser"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) domain() identity.User {
	return identity.User(r)
}

const userColumns = `id, username, first_name, last_name, email, is_staff, is_superuser, password_hash, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u identity.User) (identity.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.IsStaff, u.IsSuperuser, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return identity.User{}, translate(err, "create user")
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u identity.User) (identity.User, error) {
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, first_name = $3, last_name = $4, email = $5,
		    is_staff = $6, is_superuser = $7, password_hash = $8, updated_at = $9
		WHERE id = $1
	`, u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.IsStaff, u.IsSuperuser, u.PasswordHash, u.UpdatedAt)
	if err != nil {
		return identity.User{}, translate(err, "update user")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return identity.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (identity.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id)
	if err != nil {
		return identity.User{}, translate(err, "user "+id)
	}
	return row.domain(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (identity.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)
	`, username)
	if err != nil {
		return identity.User{}, translate(err, "user "+username)
	}
	return row.domain(), nil
}

func (s *Store) ListUsersByEmail(ctx context.Context, email string) ([]identity.User, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) ORDER BY created_at
	`, email)
	if err != nil {
		return nil, translate(err, "list users by email")
	}
	result := make([]identity.User, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.domain())
	}
	return result, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]identity.User, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+` FROM users ORDER BY created_at
	`)
	if err != nil {
		return nil, translate(err, "list users")
	}
	result := make([]identity.User, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.domain())
	}
	return result, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete user")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- ParticipantStore --------------------------------------------------------

type participantRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	TeamID          string    `db:"team_id"`
	RequestedTeamID string    `db:"requested_team_id"`
	Captain         bool      `db:"captain"`
	RequestsCaptain bool      `db:"requests_captain"`
	CheckedIn       bool      `db:"checked_in"`
	LookingForTeam  bool      `db:"looking_for_team"`
	IsRed           bool      `db:"is_red"`
	IsGreen         bool      `db:"is_green"`
	Approved        bool      `db:"approved"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r participantRow) domain() participant.Participant {
	return participant.Participant(r)
}

const participantColumns = `id, user_id, team_id, requested_team_id, captain, requests_captain, checked_in, looking_for_team, is_red, is_green, approved, created_at, updated_at`

func (s *Store) CreateParticipant(ctx context.Context, p participant.Participant) (participant.Participant, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (`+participantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.ID, p.UserID, p.TeamID, p.RequestedTeamID, p.Captain, p.RequestsCaptain,
		p.CheckedIn, p.LookingForTeam, p.IsRed, p.IsGreen, p.Approved, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return participant.Participant{}, translate(err, "create participant")
	}
	return p, nil
}

// participantFieldValue picks the partial-save value for a field name.
// The field names double as column names.
func participantFieldValue(p participant.Participant, field string) (any, error) {
	switch field {
	case storage.FieldTeam:
		return p.TeamID, nil
	case storage.FieldRequestedTeam:
		return p.RequestedTeamID, nil
	case storage.FieldCaptain:
		return p.Captain, nil
	case storage.FieldRequestsCaptain:
		return p.RequestsCaptain, nil
	case storage.FieldCheckedIn:
		return p.CheckedIn, nil
	case storage.FieldLookingForTeam:
		return p.LookingForTeam, nil
	case storage.FieldApproved:
		return p.Approved, nil
	default:
		return nil, fmt.Errorf("unknown participant field %q", field)
	}
}

func (s *Store) UpdateParticipant(ctx context.Context, p participant.Participant, fields ...string) (participant.Participant, error) {
	if len(fields) == 0 {
		fields = []string{
			storage.FieldTeam, storage.FieldRequestedTeam, storage.FieldCaptain,
			storage.FieldRequestsCaptain, storage.FieldCheckedIn,
			storage.FieldLookingForTeam, storage.FieldApproved,
		}
	}

	args := []any{p.ID}
	set := ""
	for _, f := range fields {
		v, err := participantFieldValue(p, f)
		if err != nil {
			return participant.Participant{}, err
		}
		args = append(args, v)
		set += fmt.Sprintf("%s = $%d, ", f, len(args))
	}
	args = append(args, time.Now().UTC())
	set += fmt.Sprintf("updated_at = $%d", len(args))

	var row participantRow
	err := s.db.GetContext(ctx, &row,
		`UPDATE participants SET `+set+` WHERE id = $1 RETURNING `+participantColumns,
		args...)
	if err != nil {
		return participant.Participant{}, translate(err, "participant "+p.ID)
	}
	return row.domain(), nil
}

func (s *Store) GetParticipant(ctx context.Context, id string) (participant.Participant, error) {
	var row participantRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+participantColumns+` FROM participants WHERE id = $1
	`, id)
	if err != nil {
		return participant.Participant{}, translate(err, "participant "+id)
	}
	return row.domain(), nil
}

func (s *Store) GetParticipantByUserID(ctx context.Context, userID string) (participant.Participant, error) {
	var row participantRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+participantColumns+` FROM participants WHERE user_id = $1
	`, userID)
	if err != nil {
		return participant.Participant{}, translate(err, "participant for user "+userID)
	}
	return row.domain(), nil
}

func (s *Store) ListParticipants(ctx context.Context) ([]participant.Participant, error) {
	return s.selectParticipants(ctx, `
		SELECT `+participantColumns+` FROM participants ORDER BY created_at
	`)
}

func (s *Store) ListTeamMembers(ctx context.Context, teamID string) ([]participant.Participant, error) {
	return s.selectParticipants(ctx, `
		SELECT `+participantColumns+` FROM participants
		WHERE team_id = $1 AND team_id <> '' ORDER BY created_at
	`, teamID)
}

func (s *Store) ListJoinRequests(ctx context.Context, teamID string) ([]participant.Participant, error) {
	return s.selectParticipants(ctx, `
		SELECT `+participantColumns+` FROM participants
		WHERE requested_team_id = $1 AND requested_team_id <> '' ORDER BY created_at
	`, teamID)
}

func (s *Store) selectParticipants(ctx context.Context, query string, args ...any) ([]participant.Participant, error) {
	var rows []participantRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate(err, "list participants")
	}
	result := make([]participant.Participant, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.domain())
	}
	return result, nil
}

func (s *Store) DeleteParticipant(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete participant")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- TeamStore ---------------------------------------------------------------

type teamRow struct {
	ID                string    `db:"id"`
	Number            int       `db:"number"`
	Name              string    `db:"name"`
	LookingForMembers bool      `db:"looking_for_members"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r teamRow) domain() team.Team {
	return team.Team(r)
}

const teamColumns = `id, number, name, looking_for_members, created_at, updated_at`

func (s *Store) CreateTeam(ctx context.Context, t team.Team) (team.Team, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (`+teamColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ID, t.Number, t.Name, t.LookingForMembers, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return team.Team{}, translate(err, "create team")
	}
	return t, nil
}

func (s *Store) UpdateTeam(ctx context.Context, t team.Team) (team.Team, error) {
	t.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE teams
		SET number = $2, name = $3, looking_for_members = $4, updated_at = $5
		WHERE id = $1
	`, t.ID, t.Number, t.Name, t.LookingForMembers, t.UpdatedAt)
	if err != nil {
		return team.Team{}, translate(err, "update team")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return team.Team{}, fmt.Errorf("team %s: %w", t.ID, storage.ErrNotFound)
	}
	return t, nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (team.Team, error) {
	var row teamRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+teamColumns+` FROM teams WHERE id = $1
	`, id)
	if err != nil {
		return team.Team{}, translate(err, "team "+id)
	}
	return row.domain(), nil
}

func (s *Store) GetTeamByName(ctx context.Context, name string) (team.Team, error) {
	var row teamRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+teamColumns+` FROM teams WHERE name = $1
	`, name)
	if err != nil {
		return team.Team{}, translate(err, "team "+name)
	}
	return row.domain(), nil
}

func (s *Store) ListTeams(ctx context.Context) ([]team.Team, error) {
	var rows []teamRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+teamColumns+` FROM teams ORDER BY number
	`)
	if err != nil {
		return nil, translate(err, "list teams")
	}
	result := make([]team.Team, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.domain())
	}
	return result, nil
}

func (s *Store) ListTeamNumbers(ctx context.Context) ([]int, error) {
	var numbers []int
	err := s.db.SelectContext(ctx, &numbers, `
		SELECT number FROM teams ORDER BY number
	`)
	if err != nil {
		return nil, translate(err, "list team numbers")
	}
	return numbers, nil
}

func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete team")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("team %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// --- SettingsStore -----------------------------------------------------------

type settingsRow struct {
	ID                    string     `db:"id"`
	NumberOfTeams         int        `db:"number_of_teams"`
	MaxTeamSize           int        `db:"max_team_size"`
	AdministratorBindDN   string     `db:"administrator_bind_dn"`
	AdministratorBindPW   string     `db:"administrator_bind_pw"`
	CheckInDate           *time.Time `db:"check_in_date"`
	DocumentationURL      string     `db:"documentation_url"`
	CompetitionName       string     `db:"competition_name"`
	CompetitionDate       *time.Time `db:"competition_date"`
	EnableAccountCreation bool       `db:"enable_account_creation"`
	EnableRed             bool       `db:"enable_red"`
	EnableGreen           bool       `db:"enable_green"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

func (r settingsRow) domain() settings.GlobalSettings {
	return settings.GlobalSettings(r)
}

const settingsColumns = `id, number_of_teams, max_team_size, administrator_bind_dn, administrator_bind_pw, check_in_date, documentation_url, competition_name, competition_date, enable_account_creation, enable_red, enable_green, updated_at`

func (s *Store) GetSettings(ctx context.Context) (settings.GlobalSettings, error) {
	var row settingsRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+settingsColumns+` FROM global_settings LIMIT 1
	`)
	if err != nil {
		return settings.GlobalSettings{}, translate(err, "global settings")
	}
	return row.domain(), nil
}

func (s *Store) SaveSettings(ctx context.Context, gs settings.GlobalSettings) (settings.GlobalSettings, error) {
	if gs.ID == "" {
		gs.ID = uuid.NewString()
	}
	gs.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO global_settings (`+settingsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			number_of_teams = EXCLUDED.number_of_teams,
			max_team_size = EXCLUDED.max_team_size,
			administrator_bind_dn = EXCLUDED.administrator_bind_dn,
			administrator_bind_pw = EXCLUDED.administrator_bind_pw,
			check_in_date = EXCLUDED.check_in_date,
			documentation_url = EXCLUDED.documentation_url,
			competition_name = EXCLUDED.competition_name,
			competition_date = EXCLUDED.competition_date,
			enable_account_creation = EXCLUDED.enable_account_creation,
			enable_red = EXCLUDED.enable_red,
			enable_green = EXCLUDED.enable_green,
			updated_at = EXCLUDED.updated_at
	`, gs.ID, gs.NumberOfTeams, gs.MaxTeamSize, gs.AdministratorBindDN, gs.AdministratorBindPW,
		gs.CheckInDate, gs.DocumentationURL, gs.CompetitionName, gs.CompetitionDate,
		gs.EnableAccountCreation, gs.EnableRed, gs.EnableGreen, gs.UpdatedAt)
	if err != nil {
		return settings.GlobalSettings{}, translate(err, "save settings")
	}
	return gs, nil
}

// --- ArchiveStore ------------------------------------------------------------

type archivedEmailRow struct {
	ID       string             `db:"id"`
	Subject  string             `db:"subject"`
	Content  string             `db:"content"`
	Audience broadcast.Audience `db:"audience"`
	SenderID string             `db:"sender_id"`
	SentAt   time.Time          `db:"sent_at"`
}

func (r archivedEmailRow) domain() broadcast.ArchivedEmail {
	return broadcast.ArchivedEmail(r)
}

const archiveColumns = `id, subject, content, audience, sender_id, sent_at`

func (s *Store) CreateArchivedEmail(ctx context.Context, m broadcast.ArchivedEmail) (broadcast.ArchivedEmail, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.SentAt.IsZero() {
		m.SentAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO archived_emails (`+archiveColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.Subject, m.Content, string(m.Audience), m.SenderID, m.SentAt)
	if err != nil {
		return broadcast.ArchivedEmail{}, translate(err, "create archived email")
	}
	return m, nil
}

func (s *Store) GetArchivedEmail(ctx context.Context, id string) (broadcast.ArchivedEmail, error) {
	var row archivedEmailRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+archiveColumns+` FROM archived_emails WHERE id = $1
	`, id)
	if err != nil {
		return broadcast.ArchivedEmail{}, translate(err, "archived email "+id)
	}
	return row.domain(), nil
}

func (s *Store) ListArchivedEmails(ctx context.Context) ([]broadcast.ArchivedEmail, error) {
	var rows []archivedEmailRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+archiveColumns+` FROM archived_emails ORDER BY sent_at
	`)
	if err != nil {
		return nil, translate(err, "list archived emails")
	}
	result := make([]broadcast.ArchivedEmail, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.domain())
	}
	return result, nil
}

func (s *Store) DeleteArchivedEmails(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM archived_emails`); err != nil {
		return translate(err, "delete archived emails")
	}
	return nil
}
