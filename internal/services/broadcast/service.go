// Package broadcast sends audience-targeted bulk email and maintains
// the archive participants can browse.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iseage/signup/internal/config"
	domain "github.com/iseage/signup/internal/domain/broadcast"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	"github.com/iseage/signup/internal/logging"
	"github.com/iseage/signup/internal/mail"
	"github.com/iseage/signup/internal/storage"
)

var (
	// ErrInvalidAudience is returned for unknown audience tags.
	ErrInvalidAudience = errors.New("unknown audience")
	// ErrNotInAudience is returned when a participant asks for an
	// archived email outside their audiences.
	ErrNotInAudience = errors.New("email is outside your audience")
)

// Deps are the collaborators the broadcast service needs.
type Deps struct {
	Users        storage.UserStore
	Participants storage.ParticipantStore
	Archive      storage.ArchiveStore
	Sender       mail.Sender
	SMTP         config.SMTP
	Logger       *logging.Logger
}

// Service resolves audiences, dispatches broadcasts, and guards the
// archive.
type Service struct {
	users        storage.UserStore
	participants storage.ParticipantStore
	archive      storage.ArchiveStore
	sender       mail.Sender
	smtp         config.SMTP
	log          *logging.Logger
}

// New constructs a broadcast service. A nil logger gets a default.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.NewDefault("broadcast")
	}
	return &Service{
		users:        d.Users,
		participants: d.Participants,
		archive:      d.Archive,
		sender:       d.Sender,
		smtp:         d.SMTP,
		log:          d.Logger,
	}
}

// Send mails every non-superuser account matching the audience and
// archives the message. Recipients ride on BCC; the visible To is the
// portal's own address. The sender's name is appended as a signature.
// A relay failure is logged, the archive row is still written.
func (s *Service) Send(ctx context.Context, senderUserID, subject, content string, audience domain.Audience) (domain.ArchivedEmail, error) {
	if !audience.Valid() {
		return domain.ArchivedEmail{}, ErrInvalidAudience
	}
	from, err := s.users.GetUser(ctx, senderUserID)
	if err != nil {
		return domain.ArchivedEmail{}, fmt.Errorf("get sender: %w", err)
	}

	recipients, err := s.resolve(ctx, audience)
	if err != nil {
		return domain.ArchivedEmail{}, err
	}
	body := content + "\n\n" + from.FullName()

	if len(recipients) > 0 {
		msg := mail.Message{
			Subject: subject,
			Body:    body,
			To:      []string{s.smtp.FromAddr},
			BCC:     recipients,
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			s.log.Errorf("broadcast %q to %d recipients failed: %v", subject, len(recipients), err)
		} else {
			s.log.Infof("broadcast %q sent to %d recipients", subject, len(recipients))
		}
	}

	archived, err := s.archive.CreateArchivedEmail(ctx, domain.ArchivedEmail{
		Subject:  subject,
		Content:  body,
		Audience: audience,
		SenderID: from.ID,
		SentAt:   time.Now(),
	})
	if err != nil {
		return domain.ArchivedEmail{}, fmt.Errorf("archive broadcast: %w", err)
	}
	return archived, nil
}

// resolve returns the email addresses in the audience, excluding
// superusers.
func (s *Service) resolve(ctx context.Context, audience domain.Audience) ([]string, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var out []string
	for _, u := range users {
		if u.IsSuperuser {
			continue
		}
		pt, err := s.participants.GetParticipantByUserID(ctx, u.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("get participant for %s: %w", u.Username, err)
		}
		if audience.Matches(pt) {
			out = append(out, u.Email)
		}
	}
	return out, nil
}

// VisibleArchive lists the archived broadcasts the user may read.
func (s *Service) VisibleArchive(ctx context.Context, userID string) ([]domain.ArchivedEmail, error) {
	user, pt, err := s.loadReader(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := s.archive.ListArchivedEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	var visible []domain.ArchivedEmail
	for _, m := range all {
		if m.Audience.Contains(user, pt) {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

// GetArchived returns one archived broadcast, enforcing audience
// visibility.
func (s *Service) GetArchived(ctx context.Context, userID, emailID string) (domain.ArchivedEmail, error) {
	user, pt, err := s.loadReader(ctx, userID)
	if err != nil {
		return domain.ArchivedEmail{}, err
	}
	m, err := s.archive.GetArchivedEmail(ctx, emailID)
	if err != nil {
		return domain.ArchivedEmail{}, fmt.Errorf("get archived email: %w", err)
	}
	if !m.Audience.Contains(user, pt) {
		return domain.ArchivedEmail{}, ErrNotInAudience
	}
	return m, nil
}

func (s *Service) loadReader(ctx context.Context, userID string) (identity.User, participant.Participant, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return identity.User{}, participant.Participant{}, fmt.Errorf("get user: %w", err)
	}
	pt, err := s.participants.GetParticipantByUserID(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return identity.User{}, participant.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return user, pt, nil
}
