package game

import (
	"fmt"
	"strconv"
	"strings"
)

type ActionKind string

const (
	ActStart         ActionKind = "start"
	ActSettings      ActionKind = "settings"
	ActNewGame       ActionKind = "new_game"
	ActTask          ActionKind = "task"
	ActKill          ActionKind = "kill"
	ActSelfReport    ActionKind = "dead"
	ActSabotage      ActionKind = "sabotage"
	ActFix           ActionKind = "fix"
	ActScan          ActionKind = "scan"
	ActReport        ActionKind = "report"
	ActEmergency     ActionKind = "emergency_meeting"
	ActVote          ActionKind = "vote"
	ActConfirmTask   ActionKind = "confirm_task"
	ActConfirmRepair ActionKind = "confirm_sabotage"
)

type SabotageKind string

const (
	SabotageLights  SabotageKind = "lights"
	SabotageReactor SabotageKind = "reactor"
)

const reactorLocations = 2

// Action is a parsed action token.
type Action struct {
	Kind     ActionKind
	Target   UserID
	Skip     bool
	Index    int
	Sabotage SabotageKind
	Knob     Knob
	Value    int
	Photo    string
}

// ParseAction turns an inbound token such as "vote:42" or "fix:reactor:2"
// into an Action. Confirmation actions are not reachable from tokens.
func ParseAction(token string) (Action, error) {
	parts := strings.Split(strings.TrimSpace(token), ":")
	kind := ActionKind(strings.ToLower(parts[0]))
	args := parts[1:]
	bad := func() (Action, error) {
		return Action{}, fmt.Errorf("%w: %q", ErrMalformedAction, token)
	}
	act := Action{Kind: kind}
	switch kind {
	case ActStart, ActNewGame, ActReport, ActEmergency, ActSelfReport:
		if len(args) != 0 {
			return bad()
		}
	case ActKill, ActScan:
		if len(args) != 1 {
			return bad()
		}
		id, err := parseUserID(args[0])
		if err != nil {
			return bad()
		}
		act.Target = id
	case ActVote:
		if len(args) != 1 {
			return bad()
		}
		if args[0] == "skip" {
			act.Skip = true
			break
		}
		id, err := parseUserID(args[0])
		if err != nil {
			return bad()
		}
		act.Target = id
	case ActTask:
		if len(args) != 1 {
			return bad()
		}
		index, err := strconv.Atoi(args[0])
		if err != nil || index < 0 {
			return bad()
		}
		act.Index = index
	case ActSabotage:
		if len(args) != 1 {
			return bad()
		}
		act.Sabotage = SabotageKind(args[0])
		if act.Sabotage != SabotageLights && act.Sabotage != SabotageReactor {
			return bad()
		}
	case ActFix:
		if len(args) == 1 && args[0] == string(SabotageLights) {
			act.Sabotage = SabotageLights
			break
		}
		if len(args) != 2 || args[0] != string(SabotageReactor) {
			return bad()
		}
		location, err := strconv.Atoi(args[1])
		if err != nil || location < 1 || location > reactorLocations {
			return bad()
		}
		act.Sabotage = SabotageReactor
		act.Index = location - 1
	case ActSettings:
		if len(args) != 2 {
			return bad()
		}
		value, err := strconv.Atoi(args[1])
		if err != nil {
			return bad()
		}
		act.Knob = Knob(args[0])
		act.Value = value
	default:
		return bad()
	}
	return act, nil
}

func voteToken(target UserID) string {
	return fmt.Sprintf("%s:%s", ActVote, target)
}
