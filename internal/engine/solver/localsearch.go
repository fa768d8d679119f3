package solver

import (
	"context"
	"math/rand"
	"time"
)

const tabuLength = 7

// move is one neighborhood step: retime or re-room a section, or swap the
// times or rooms of two sections.
type move struct {
	kind     int
	section  int
	other    int
	slot     int
	room     int
	prevSlot int
	prevRoom int
}

const (
	moveRetime = iota
	moveReroom
	moveSwapTimes
	moveSwapRooms
)

// tabuMemory is a short ring of recently reversed (section, slot) pairs.
type tabuMemory struct {
	ring [tabuLength]int64
	next int
}

func tabuKey(section, slot int) int64 {
	return int64(section)<<20 | int64(slot)
}

func (t *tabuMemory) contains(key int64) bool {
	for _, k := range t.ring {
		if k == key {
			return true
		}
	}
	return false
}

func (t *tabuMemory) push(key int64) {
	t.ring[t.next] = key
	t.next = (t.next + 1) % tabuLength
}

// localSearch improves the seed by steepest-of-random-sample hill climbing
// with short-term tabu memory to avoid cycling.
func localSearch(ctx context.Context, p *problem, st *state, rng *rand.Rand, deadline time.Time, unimproved time.Duration) *state {
	best := st.clone()
	bestScore := best.score()
	current := st
	currentScore := bestScore
	var tabu tabuMemory
	lastImprovement := time.Now()

	for {
		if ctx.Err() != nil || time.Now().After(deadline) {
			return best
		}
		if best.feasible() && time.Since(lastImprovement) > unimproved {
			return best
		}

		mv, ok := randomMove(p, current, rng)
		if !ok {
			return best
		}
		key := tabuKey(mv.section, mv.slot)
		apply(current, mv)
		score := current.score()

		if tabu.contains(key) && score >= bestScore {
			revert(current, mv)
			continue
		}
		if score <= currentScore {
			currentScore = score
			tabu.push(tabuKey(mv.section, mv.prevSlot))
			if score < bestScore {
				best = current.clone()
				bestScore = score
				lastImprovement = time.Now()
			}
			continue
		}
		revert(current, mv)
	}
}

// randomMove draws one applicable neighborhood move.
func randomMove(p *problem, st *state, rng *rand.Rand) (move, bool) {
	placed := placedSections(st)
	if len(placed) == 0 {
		return move{}, false
	}

	for attempt := 0; attempt < 20; attempt++ {
		si := placed[rng.Intn(len(placed))]
		pl := st.assign[si]

		switch rng.Intn(4) {
		case moveRetime:
			slot := rng.Intn(len(p.grid))
			if slot == pl.slot {
				continue
			}
			st.unplace(si)
			ok := st.feasibleAt(si, slot, pl.room, pl.teacher)
			st.place(si, pl.slot, pl.room, pl.teacher)
			if !ok {
				continue
			}
			return move{kind: moveRetime, section: si, slot: slot, room: pl.room, prevSlot: pl.slot, prevRoom: pl.room}, true

		case moveReroom:
			rooms := p.sections[si].CandidateRooms
			if len(rooms) < 2 {
				continue
			}
			room := rooms[rng.Intn(len(rooms))]
			if room == pl.room {
				continue
			}
			st.unplace(si)
			ok := st.feasibleAt(si, pl.slot, room, pl.teacher)
			st.place(si, pl.slot, pl.room, pl.teacher)
			if !ok {
				continue
			}
			return move{kind: moveReroom, section: si, slot: pl.slot, room: room, prevSlot: pl.slot, prevRoom: pl.room}, true

		case moveSwapTimes:
			oi := sameTeacherPeer(st, placed, si, rng)
			if oi < 0 {
				continue
			}
			return move{kind: moveSwapTimes, section: si, other: oi, slot: st.assign[oi].slot, prevSlot: pl.slot}, true

		case moveSwapRooms:
			oi := placed[rng.Intn(len(placed))]
			if oi == si {
				continue
			}
			if !roomAllowed(p, si, st.assign[oi].room) || !roomAllowed(p, oi, pl.room) {
				continue
			}
			return move{kind: moveSwapRooms, section: si, other: oi, room: st.assign[oi].room, prevSlot: pl.slot, prevRoom: pl.room}, true
		}
	}
	return move{}, false
}

func apply(st *state, mv move) {
	switch mv.kind {
	case moveRetime:
		pl := st.assign[mv.section]
		st.unplace(mv.section)
		st.place(mv.section, mv.slot, pl.room, pl.teacher)
	case moveReroom:
		pl := st.assign[mv.section]
		st.unplace(mv.section)
		st.place(mv.section, pl.slot, mv.room, pl.teacher)
	case moveSwapTimes:
		a, b := st.assign[mv.section], st.assign[mv.other]
		st.unplace(mv.section)
		st.unplace(mv.other)
		st.place(mv.section, b.slot, a.room, a.teacher)
		st.place(mv.other, a.slot, b.room, b.teacher)
	case moveSwapRooms:
		a, b := st.assign[mv.section], st.assign[mv.other]
		st.unplace(mv.section)
		st.unplace(mv.other)
		st.place(mv.section, a.slot, b.room, a.teacher)
		st.place(mv.other, b.slot, a.room, b.teacher)
	}
}

func revert(st *state, mv move) {
	switch mv.kind {
	case moveRetime:
		pl := st.assign[mv.section]
		st.unplace(mv.section)
		st.place(mv.section, mv.prevSlot, pl.room, pl.teacher)
	case moveReroom:
		pl := st.assign[mv.section]
		st.unplace(mv.section)
		st.place(mv.section, pl.slot, mv.prevRoom, pl.teacher)
	case moveSwapTimes, moveSwapRooms:
		apply(st, mv)
	}
}

func placedSections(st *state) []int {
	var placed []int
	for si, pl := range st.assign {
		if pl.slot >= 0 {
			placed = append(placed, si)
		}
	}
	return placed
}

func sameTeacherPeer(st *state, placed []int, si int, rng *rand.Rand) int {
	teacher := st.assign[si].teacher
	if teacher < 0 {
		return -1
	}
	var peers []int
	for _, oi := range placed {
		if oi != si && st.assign[oi].teacher == teacher {
			peers = append(peers, oi)
		}
	}
	if len(peers) == 0 {
		return -1
	}
	return peers[rng.Intn(len(peers))]
}

func roomAllowed(p *problem, si, room int) bool {
	for _, r := range p.sections[si].CandidateRooms {
		if r == room {
			return true
		}
	}
	return false
}
