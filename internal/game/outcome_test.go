package game

import "testing"

func testPlayer(id UserID, role Role, status LifeStatus, tasks ...bool) *Player {
	p := newPlayer(id, playerName(id))
	p.Role = role
	p.Status = status
	for i, done := range tasks {
		p.Tasks = append(p.Tasks, Task{Name: taskCatalog[i], Done: done})
	}
	return p
}

func TestCheckOutcome(t *testing.T) {
	tests := []struct {
		name    string
		players []*Player
		want    Winner
	}{
		{
			name: "impostor ejected",
			players: []*Player{
				testPlayer(1, RoleImpostor, StatusEjected),
				testPlayer(2, RoleCrewmate, StatusAlive, false),
				testPlayer(3, RoleCrewmate, StatusAlive, false),
			},
			want: WinnerCrewmates,
		},
		{
			name: "parity",
			players: []*Player{
				testPlayer(1, RoleImpostor, StatusAlive),
				testPlayer(2, RoleCrewmate, StatusAlive, false),
				testPlayer(3, RoleCrewmate, StatusKilled, false),
			},
			want: WinnerImpostors,
		},
		{
			name: "dead crewmates still count for tasks",
			players: []*Player{
				testPlayer(1, RoleImpostor, StatusAlive, false),
				testPlayer(2, RoleCrewmate, StatusAlive, true),
				testPlayer(3, RoleCrewmate, StatusAlive, true),
				testPlayer(4, RoleCrewmate, StatusKilled, true, false),
			},
			want: WinnerNone,
		},
		{
			name: "fake tasks never count",
			players: []*Player{
				testPlayer(1, RoleImpostor, StatusAlive, false, false),
				testPlayer(2, RoleCrewmate, StatusAlive, true),
				testPlayer(3, RoleCrewmate, StatusAlive, true),
			},
			want: WinnerCrewmates,
		},
		{
			name: "game continues",
			players: []*Player{
				testPlayer(1, RoleImpostor, StatusAlive),
				testPlayer(2, RoleCrewmate, StatusAlive, true),
				testPlayer(3, RoleCrewmate, StatusAlive, false),
			},
			want: WinnerNone,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := checkOutcome(tc.players).winner; got != tc.want {
				t.Fatalf("winner = %s, want %s", got, tc.want)
			}
		})
	}
}
