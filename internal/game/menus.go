package game

import (
	"fmt"
	"strings"
)

func activeBriefing(s *Session, p *Player) (string, *Menu) {
	var b strings.Builder
	menu := &Menu{}
	switch {
	case !p.Alive():
		b.WriteString("You are a ghost. You can still finish your tasks.")
	case p.IsImpostor():
		b.WriteString("Play! Kill, sabotage and blend in.")
	default:
		b.WriteString("Play! Finish your tasks and watch your back.")
	}
	for i, task := range p.Tasks {
		if task.Done {
			continue
		}
		menu.addRow(Button{Label: task.Name, Action: fmt.Sprintf("%s:%d", ActTask, i)})
	}
	if !p.Alive() {
		return b.String(), menu
	}
	if p.IsImpostor() {
		var row []Button
		for _, other := range s.alive() {
			if other.IsImpostor() {
				continue
			}
			row = append(row, Button{Label: "Kill " + other.Name, Action: fmt.Sprintf("%s:%s", ActKill, other.ID)})
		}
		menu.addRow(row...)
		menu.addRow(
			Button{Label: "Sabotage lights", Action: fmt.Sprintf("%s:%s", ActSabotage, SabotageLights)},
			Button{Label: "Sabotage reactor", Action: fmt.Sprintf("%s:%s", ActSabotage, SabotageReactor)},
		)
	} else {
		menu.addRow(Button{Label: "I was killed", Action: string(ActSelfReport)})
	}
	menu.addRow(
		Button{Label: "Report body", Action: string(ActReport)},
		Button{Label: "Emergency meeting", Action: string(ActEmergency)},
	)
	return b.String(), menu
}

func ballotMenu(voter *Player, candidates []*Player) *Menu {
	menu := &Menu{}
	for _, candidate := range candidates {
		if candidate.ID == voter.ID {
			continue
		}
		menu.addRow(Button{Label: candidate.Name, Action: voteToken(candidate.ID)})
	}
	menu.addRow(Button{Label: "Skip", Action: fmt.Sprintf("%s:skip", ActVote)})
	return menu
}
