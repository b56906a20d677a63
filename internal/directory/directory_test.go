package directory

import (
	"testing"

	"github.com/iseage/signup/internal/config"
)

func testNames() Names {
	return NewNames(config.Default().Directory)
}

func TestUserDNByRole(t *testing.T) {
	names := testNames()

	cases := []struct {
		isRed, isGreen bool
		want           string
	}{
		{false, false, "CN=Alice Tester,OU=CDCUsers,DC=iseage,DC=org"},
		{true, false, "CN=Alice Tester,OU=RedTeam,DC=iseage,DC=org"},
		{false, true, "CN=Alice Tester,OU=GreenTeam,DC=iseage,DC=org"},
	}
	for _, tc := range cases {
		got := names.UserDN("Alice", "Tester", tc.isRed, tc.isGreen)
		if got != tc.want {
			t.Fatalf("UserDN(red=%v, green=%v) = %q, want %q", tc.isRed, tc.isGreen, got, tc.want)
		}
	}
}

func TestTeamGroupDN(t *testing.T) {
	names := testNames()

	got := names.TeamGroupDN(7)
	want := "CN=CDC Team 7,OU=CDCUsers,DC=iseage,DC=org"
	if got != want {
		t.Fatalf("TeamGroupDN(7) = %q, want %q", got, want)
	}
}

func TestPendingGroupDNs(t *testing.T) {
	names := testNames()

	if got := names.RedGroupDN(true); got != "CN=RedPending,OU=RedTeam,DC=iseage,DC=org" {
		t.Fatalf("pending red group: %q", got)
	}
	if got := names.RedGroupDN(false); got != "CN=Red,OU=RedTeam,DC=iseage,DC=org" {
		t.Fatalf("active red group: %q", got)
	}
	if got := names.GreenGroupDN(true); got != "CN=GreenPending,OU=GreenTeam,DC=iseage,DC=org" {
		t.Fatalf("pending green group: %q", got)
	}
}

func TestBindNameAndUPN(t *testing.T) {
	names := testNames()

	if got := names.UPN("alice"); got != "alice@iseage.org" {
		t.Fatalf("UPN: %q", got)
	}
	if got := names.BindName("alice"); got != "alice@ISEAGE" {
		t.Fatalf("BindName: %q", got)
	}
}
