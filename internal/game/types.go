package game

import "strconv"

const (
	MinPlayers = 4
	MaxPlayers = 15
)

// UserID is the transport-supplied player identifier.
type UserID int64

func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func parseUserID(raw string) (UserID, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(value), nil
}

type Role int

const (
	RoleNone Role = iota
	RoleCrewmate
	RoleImpostor
)

func (r Role) String() string {
	switch r {
	case RoleCrewmate:
		return "crewmate"
	case RoleImpostor:
		return "impostor"
	default:
		return "none"
	}
}

type LifeStatus int

const (
	StatusAlive LifeStatus = iota
	StatusKilled
	StatusEjected
)

func (s LifeStatus) String() string {
	switch s {
	case StatusKilled:
		return "killed"
	case StatusEjected:
		return "ejected"
	default:
		return "alive"
	}
}

type PhaseKind string

const (
	PhaseLobby      PhaseKind = "lobby"
	PhaseSetup      PhaseKind = "setup"
	PhaseActive     PhaseKind = "active"
	PhaseDiscussion PhaseKind = "discussion"
	PhaseGameOver   PhaseKind = "game_over"
)

type Winner int

const (
	WinnerNone Winner = iota
	WinnerCrewmates
	WinnerImpostors
)

func (w Winner) String() string {
	switch w {
	case WinnerCrewmates:
		return "crewmates"
	case WinnerImpostors:
		return "impostors"
	default:
		return "none"
	}
}
