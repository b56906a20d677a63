package broadcast

import (
	"testing"

	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
)

func TestMatches(t *testing.T) {
	blueTeamed := participant.Participant{TeamID: "t1"}
	blueFree := participant.Participant{}
	redApproved := participant.Participant{IsRed: true, Approved: true}
	redPending := participant.Participant{IsRed: true}
	green := participant.Participant{IsGreen: true}

	cases := []struct {
		audience Audience
		pt       participant.Participant
		want     bool
	}{
		{AudienceEveryone, blueFree, true},
		{AudienceEveryone, redPending, true},
		{AudienceAll, blueFree, true},
		{AudienceAll, redPending, false},
		{AudienceWithTeam, blueTeamed, true},
		{AudienceWithTeam, blueFree, false},
		{AudienceNoTeam, blueFree, true},
		{AudienceNoTeam, blueTeamed, false},
		{AudienceRedAll, redPending, true},
		{AudienceRedAll, green, false},
		{AudienceRedApproved, redApproved, true},
		{AudienceRedApproved, redPending, false},
		{AudienceGreenAll, green, true},
		{AudienceGreenApproved, green, false},
	}
	for _, tc := range cases {
		if got := tc.audience.Matches(tc.pt); got != tc.want {
			t.Errorf("%s.Matches(%+v) = %v, want %v", tc.audience, tc.pt, got, tc.want)
		}
	}
}

func TestContainsOverridesForStaff(t *testing.T) {
	staff := identity.User{IsStaff: true}
	pt := participant.Participant{}

	if !AudienceRedApproved.Contains(staff, pt) {
		t.Fatal("staff must be able to read every audience")
	}
	if AudienceRedApproved.Matches(pt) {
		t.Fatal("the participant predicate must not inherit the staff override")
	}
}

func TestValid(t *testing.T) {
	for _, a := range Audiences() {
		if !a.Valid() {
			t.Errorf("audience %s reported invalid", a)
		}
	}
	if Audience("martians").Valid() {
		t.Fatal("unknown audience reported valid")
	}
}
