package game

// outcome is the result of a win-condition check.
type outcome struct {
	winner Winner
	reason string
}

func (o outcome) decided() bool {
	return o.winner != WinnerNone
}

// taskProgress sums real task completion over every crewmate, alive or not.
// Impostor tasks are fake and never count.
func taskProgress(players []*Player) (done, total int) {
	for _, p := range players {
		if p.Role != RoleCrewmate {
			continue
		}
		done += p.CompletedTasks()
		total += len(p.Tasks)
	}
	return done, total
}

func checkOutcome(players []*Player) outcome {
	aliveImpostors, aliveCrew := 0, 0
	for _, p := range players {
		if !p.Alive() {
			continue
		}
		switch p.Role {
		case RoleImpostor:
			aliveImpostors++
		case RoleCrewmate:
			aliveCrew++
		}
	}
	if aliveImpostors == 0 {
		return outcome{winner: WinnerCrewmates, reason: "every impostor is gone"}
	}
	if aliveImpostors >= aliveCrew {
		return outcome{winner: WinnerImpostors, reason: "the impostors outnumber the crew"}
	}
	if done, total := taskProgress(players); total == 0 || done == total {
		return outcome{winner: WinnerCrewmates, reason: "all tasks are complete"}
	}
	return outcome{}
}
