package solver

import (
	"context"
	"sort"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/conflict"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// severityWeight prices oracle conflicts for greedy placement choices.
var severityWeight = map[models.ConflictSeverity]float64{
	models.SeverityCritical: 1000,
	models.SeverityHigh:     100,
	models.SeverityMedium:   20,
	models.SeverityLow:      5,
	models.SeverityInfo:     1,
}

// greedySeed deterministically places sections in descending criticality
// order, choosing for each the feasible (time, room) pair with the lowest
// marginal penalty as priced by the conflict detector's per-slot oracle.
func greedySeed(ctx context.Context, p *problem, det *conflict.Detector, scheduleID string) *state {
	st := newState(p)

	order := make([]int, len(p.sections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := p.sections[order[a]], p.sections[order[b]]
		la := p.courses[sa.CourseIdx].RequiresLab
		lb := p.courses[sb.CourseIdx].RequiresLab
		if la != lb {
			return la
		}
		if len(sa.CandidateRooms) != len(sb.CandidateRooms) {
			return len(sa.CandidateRooms) < len(sb.CandidateRooms)
		}
		if sa.Enrollment != sb.Enrollment {
			return sa.Enrollment > sb.Enrollment
		}
		if sa.CourseID != sb.CourseID {
			return sa.CourseID < sb.CourseID
		}
		return sa.Session < sb.Session
	})

	for _, si := range order {
		if ctx.Err() != nil {
			return st
		}
		placeGreedy(p, st, det, scheduleID, si)
	}
	return st
}

func placeGreedy(p *problem, st *state, det *conflict.Detector, scheduleID string, si int) {
	sec := p.sections[si]
	existing := p.materialize(scheduleID, st)

	teachers := sec.CandidateTeachers
	if sec.Teacher >= 0 {
		teachers = []int{sec.Teacher}
	}
	if len(teachers) == 0 || len(sec.CandidateRooms) == 0 {
		return
	}

	bestSlot, bestRoom, bestTeacher := -1, -1, -1
	bestCost := 0.0
	baseSoft := st.softPenalty()

	for _, teacher := range teachers {
		for slot := range p.grid {
			for _, room := range sec.CandidateRooms {
				if !st.feasibleAt(si, slot, room, teacher) {
					continue
				}
				cost := oracleCost(det, p, scheduleID, sec, slot, room, teacher, existing)
				st.place(si, slot, room, teacher)
				cost += st.softPenalty() - baseSoft
				st.unplace(si)

				if bestSlot < 0 || cost < bestCost {
					bestSlot, bestRoom, bestTeacher, bestCost = slot, room, teacher, cost
				}
			}
		}
	}
	if bestSlot >= 0 {
		st.place(si, bestSlot, bestRoom, bestTeacher)
	}
}

func oracleCost(det *conflict.Detector, p *problem, scheduleID string, sec section, slot, room, teacher int, existing []models.ScheduleSlot) float64 {
	g := p.grid[slot]
	candidate := models.ScheduleSlot{
		ScheduleID: scheduleID,
		CourseID:   sec.CourseID,
		TeacherID:  p.teachers[teacher].ID,
		RoomID:     p.rooms[room].ID,
		DayOfWeek:  g.Day,
		StartMin:   g.StartMin,
		EndMin:     g.EndMin,
	}
	cost := 0.0
	for _, c := range det.DetectForSlot(scheduleID, candidate, existing, p.inv) {
		cost += severityWeight[c.Severity]
	}
	return cost
}
