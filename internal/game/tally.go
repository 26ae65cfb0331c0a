package game

type ballot struct {
	target UserID
	skip   bool
}

// Tally is the outcome of a vote. Skip competes like any other option: a tie
// at the top, including a tie with skip, ejects nobody.
type Tally struct {
	Counts   map[UserID]int
	Skips    int
	Ejected  UserID
	Ejection bool
	Tie      bool
}

func tallyVotes(votes map[UserID]ballot) Tally {
	t := Tally{Counts: make(map[UserID]int)}
	for _, b := range votes {
		if b.skip {
			t.Skips++
			continue
		}
		t.Counts[b.target]++
	}
	top := t.Skips
	for _, n := range t.Counts {
		if n > top {
			top = n
		}
	}
	if top == 0 {
		return t
	}
	var leaders []UserID
	for target, n := range t.Counts {
		if n == top {
			leaders = append(leaders, target)
		}
	}
	contenders := len(leaders)
	if t.Skips == top {
		contenders++
	}
	if contenders > 1 {
		t.Tie = true
		return t
	}
	if len(leaders) == 0 {
		return t
	}
	t.Ejected = leaders[0]
	t.Ejection = true
	return t
}
