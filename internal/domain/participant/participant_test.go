package participant

import "testing"

func TestJoinTeamClearsRequestAndLookingFlag(t *testing.T) {
	p := Participant{RequestedTeamID: "t1", LookingForTeam: true}
	p.JoinTeam("t2")

	if p.TeamID != "t2" || p.RequestedTeamID != "" || p.LookingForTeam {
		t.Fatalf("unexpected state after join: %+v", p)
	}
}

func TestLeaveTeamClearsCaptainState(t *testing.T) {
	p := Participant{TeamID: "t1", Captain: true, RequestsCaptain: true}
	p.LeaveTeam()

	if p.TeamID != "" || p.Captain || p.RequestsCaptain {
		t.Fatalf("unexpected state after leave: %+v", p)
	}
}

func TestRequestTeamPreconditions(t *testing.T) {
	p := Participant{TeamID: "t1"}
	if p.RequestTeam("t2") {
		t.Fatal("a teamed participant must not be able to request another team")
	}

	red := Participant{IsRed: true}
	if red.RequestTeam("t1") {
		t.Fatal("red participants must not be able to request a team")
	}

	free := Participant{}
	if !free.RequestTeam("t1") || free.RequestedTeamID != "t1" {
		t.Fatalf("expected request recorded, got %+v", free)
	}
}

func TestPromoteClearsPendingRequest(t *testing.T) {
	p := Participant{RequestsCaptain: true}
	if !p.Promote() {
		t.Fatal("expected promotion to succeed")
	}
	if !p.Captain || p.RequestsCaptain {
		t.Fatalf("unexpected state after promote: %+v", p)
	}
	if p.Promote() {
		t.Fatal("promoting a captain again must be a no-op")
	}
}

func TestDemoteOnlyAffectsCaptains(t *testing.T) {
	p := Participant{}
	if p.Demote() {
		t.Fatal("demoting a non-captain must be a no-op")
	}

	capt := Participant{Captain: true}
	if !capt.Demote() || capt.Captain {
		t.Fatalf("unexpected state after demote: %+v", capt)
	}
}

func TestIsRedGreen(t *testing.T) {
	if (Participant{}).IsRedGreen() {
		t.Fatal("blue participant reported as red/green")
	}
	if !(Participant{IsRed: true}).IsRedGreen() || !(Participant{IsGreen: true}).IsRedGreen() {
		t.Fatal("red/green participant not reported")
	}
}
