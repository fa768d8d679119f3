package solver

import (
	"math"
)

const hardPenalty = 10000.0

// placement fixes one section to a grid slot, room, and teacher.
// slot == -1 means unplaced.
type placement struct {
	slot    int
	room    int
	teacher int
}

// state is a mutable candidate solution with occupancy indexes kept in sync.
type state struct {
	p      *problem
	assign []placement

	teacherAt []int // teacher*len(grid)+slot -> count
	roomAt    []int // room*len(grid)+slot -> count
	atSlot    [][]int
}

func newState(p *problem) *state {
	st := &state{
		p:         p,
		assign:    make([]placement, len(p.sections)),
		teacherAt: make([]int, len(p.teachers)*len(p.grid)),
		roomAt:    make([]int, len(p.rooms)*len(p.grid)),
		atSlot:    make([][]int, len(p.grid)),
	}
	for i := range st.assign {
		st.assign[i] = placement{slot: -1, room: -1, teacher: -1}
	}
	return st
}

func (st *state) clone() *state {
	dup := &state{
		p:         st.p,
		assign:    append([]placement(nil), st.assign...),
		teacherAt: append([]int(nil), st.teacherAt...),
		roomAt:    append([]int(nil), st.roomAt...),
		atSlot:    make([][]int, len(st.atSlot)),
	}
	for i, sections := range st.atSlot {
		dup.atSlot[i] = append([]int(nil), sections...)
	}
	return dup
}

func (st *state) place(si, slot, room, teacher int) {
	st.assign[si] = placement{slot: slot, room: room, teacher: teacher}
	if teacher >= 0 {
		st.teacherAt[teacher*len(st.p.grid)+slot]++
	}
	st.roomAt[room*len(st.p.grid)+slot]++
	st.atSlot[slot] = append(st.atSlot[slot], si)
}

func (st *state) unplace(si int) {
	pl := st.assign[si]
	if pl.slot < 0 {
		return
	}
	if pl.teacher >= 0 {
		st.teacherAt[pl.teacher*len(st.p.grid)+pl.slot]--
	}
	st.roomAt[pl.room*len(st.p.grid)+pl.slot]--
	sections := st.atSlot[pl.slot]
	for i, other := range sections {
		if other == si {
			st.atSlot[pl.slot] = append(sections[:i], sections[i+1:]...)
			break
		}
	}
	st.assign[si] = placement{slot: -1, room: -1, teacher: -1}
}

// feasibleAt reports whether placing the section introduces a hard violation.
func (st *state) feasibleAt(si, slot, room, teacher int) bool {
	if teacher >= 0 {
		if st.teacherAt[teacher*len(st.p.grid)+slot] > 0 {
			return false
		}
		if st.p.teacherBlocked[teacher*len(st.p.grid)+slot] {
			return false
		}
	}
	if st.roomAt[room*len(st.p.grid)+slot] >= st.p.roomLimit[room] {
		return false
	}
	course := st.p.sections[si].CourseIdx
	for _, other := range st.atSlot[slot] {
		if st.p.coursesShareStudents(course, st.p.sections[other].CourseIdx) {
			return false
		}
	}
	return true
}

// hardViolations counts unplaced sections plus occupancy breaches.
func (st *state) hardViolations() int {
	violations := 0
	for _, pl := range st.assign {
		if pl.slot < 0 {
			violations++
			continue
		}
		if pl.teacher >= 0 && st.p.teacherBlocked[pl.teacher*len(st.p.grid)+pl.slot] {
			violations++
		}
	}
	nGrid := len(st.p.grid)
	for t := 0; t < len(st.p.teachers); t++ {
		for s := 0; s < nGrid; s++ {
			if c := st.teacherAt[t*nGrid+s]; c > 1 {
				violations += c - 1
			}
		}
	}
	for r := 0; r < len(st.p.rooms); r++ {
		for s := 0; s < nGrid; s++ {
			if c := st.roomAt[r*nGrid+s]; c > st.p.roomLimit[r] {
				violations += c - st.p.roomLimit[r]
			}
		}
	}
	for slot := range st.atSlot {
		sections := st.atSlot[slot]
		for i := 0; i < len(sections); i++ {
			for j := i + 1; j < len(sections); j++ {
				if st.p.coursesShareStudents(st.p.sections[sections[i]].CourseIdx, st.p.sections[sections[j]].CourseIdx) {
					violations++
				}
			}
		}
	}
	return violations
}

// softPenalty evaluates the weighted soft-constraint sum.
func (st *state) softPenalty() float64 {
	w := st.p.cfg.Weights
	penalty := 0.0
	nGrid := len(st.p.grid)
	periodsPerDay := st.p.periodsPerDay
	if periodsPerDay == 0 {
		return 0
	}
	nDays := len(st.p.cfg.Weekdays)

	// Teacher workload balance: variance of placed periods across teachers.
	loads := make([]int, len(st.p.teachers))
	active := 0
	total := 0
	for t := range st.p.teachers {
		for s := 0; s < nGrid; s++ {
			loads[t] += st.teacherAt[t*nGrid+s]
		}
		if loads[t] > 0 {
			active++
			total += loads[t]
		}
	}
	if active > 1 {
		mean := float64(total) / float64(active)
		variance := 0.0
		for _, load := range loads {
			if load > 0 {
				variance += (float64(load) - mean) * (float64(load) - mean)
			}
		}
		penalty += w.WorkloadBalance * variance / float64(active)
	}

	// Per-teacher, per-day structure: idle gaps, lunch, building moves.
	for t := range st.p.teachers {
		for d := 0; d < nDays; d++ {
			first, last, count := -1, -1, 0
			lunchFree := false
			prevRoom := -1
			for pp := 0; pp < periodsPerDay; pp++ {
				slot := d*periodsPerDay + pp
				busy := st.teacherAt[t*nGrid+slot] > 0
				g := st.p.grid[slot]
				overlapsLunch := g.StartMin < st.p.cfg.LunchWindowEndMin && st.p.cfg.LunchWindowStartMin < g.EndMin
				if !busy {
					if overlapsLunch {
						lunchFree = true
					}
					prevRoom = -1
					continue
				}
				if first < 0 {
					first = pp
				}
				last = pp
				count++
				room := st.teacherRoomAt(t, slot)
				if prevRoom >= 0 && room >= 0 && st.p.rooms[prevRoom].Building != st.p.rooms[room].Building {
					penalty += w.BuildingMoves
				}
				prevRoom = room
			}
			if count == 0 {
				continue
			}
			penalty += w.StudentGaps * float64(last-first+1-count)
			if count >= 5 && !lunchFree {
				penalty += w.LunchBreak
			}
		}
	}

	// Planning-period preference and morning placement.
	for si, pl := range st.assign {
		if pl.slot < 0 {
			continue
		}
		g := st.p.grid[pl.slot]
		if pl.teacher >= 0 {
			teacher := st.p.teachers[pl.teacher]
			if teacher.PlanningDay != nil && *teacher.PlanningDay == g.Day &&
				teacher.PlanningStartMin != nil && teacher.PlanningEndMin != nil &&
				g.StartMin < *teacher.PlanningEndMin && *teacher.PlanningStartMin < g.EndMin {
				penalty += w.Preferences
			}
		}
		if st.p.sections[si].Advanced && (g.Period < 1 || g.Period > 3) {
			penalty += w.MorningPlacement
		}
	}

	// Sessions of one course on the same day should sit adjacent, and
	// ideally not on the same day at all.
	byCourseDay := make(map[int][]int)
	for si, pl := range st.assign {
		if pl.slot < 0 {
			continue
		}
		key := st.p.sections[si].CourseIdx*nDays + st.p.grid[pl.slot].DayIdx
		byCourseDay[key] = append(byCourseDay[key], st.p.grid[pl.slot].Period)
	}
	for _, periods := range byCourseDay {
		if len(periods) < 2 {
			continue
		}
		penalty += w.StudentGaps * float64(len(periods)-1)
		spread := maxOf(periods) - minOf(periods)
		if spread > len(periods)-1 {
			penalty += w.SubjectGrouping * float64(spread-(len(periods)-1))
		}
	}
	return penalty
}

func (st *state) teacherRoomAt(teacher, slot int) int {
	for _, si := range st.atSlot[slot] {
		if st.assign[si].teacher == teacher {
			return st.assign[si].room
		}
	}
	return -1
}

func (st *state) score() float64 {
	return float64(st.hardViolations())*hardPenalty + st.softPenalty()
}

func (st *state) feasible() bool {
	return st.hardViolations() == 0
}

func minOf(xs []int) int {
	m := math.MaxInt
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []int) int {
	m := math.MinInt
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
