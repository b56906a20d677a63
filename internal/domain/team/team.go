// Package team defines the competition team record.
package team

import "time"

// Team is a competition team. Number is unique among live teams and is
// assigned from the pool 1..number_of_teams at creation time. When the
// roster reaches max_team_size the LookingForMembers flag is flipped off
// rather than rejecting the add outright.
type Team struct {
	ID                string
	Number            int
	Name              string
	LookingForMembers bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
