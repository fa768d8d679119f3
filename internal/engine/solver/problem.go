package solver

import (
	"sort"
	"strings"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/inventory"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/subject"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// gridSlot is one discrete (day, period) cell of the weekly time grid.
type gridSlot struct {
	Day      string
	DayIdx   int
	Period   int
	StartMin int
	EndMin   int
}

// section is one weekly session of a course to be placed.
type section struct {
	CourseID   string
	CourseIdx  int
	Session    int
	Enrollment int
	Advanced   bool

	// Teacher is fixed when >= 0; otherwise the solver chooses from
	// candidateTeachers.
	Teacher           int
	CandidateTeachers []int
	CandidateRooms    []int
}

// problem is the immutable search space built once per solve.
type problem struct {
	cfg models.SchedulerConfiguration
	inv *inventory.Inventory

	grid     []gridSlot
	teachers []models.Teacher
	rooms    []models.Room
	courses  []models.Course
	sections []section

	periodsPerDay int
	roomLimit     []int

	// teacherBlocked[t*len(grid)+g] marks grid cells the SIS availability
	// windows close for a teacher.
	teacherBlocked []bool

	// sharedStudents[a*len(courses)+b] counts students enrolled in both.
	sharedStudents map[int]int
	teacherIdx     map[string]int
	roomIdx        map[string]int
	courseIdx      map[string]int
}

// buildGrid derives the discrete weekly time slots from the configuration.
func buildGrid(cfg models.SchedulerConfiguration) []gridSlot {
	var grid []gridSlot
	step := cfg.PeriodMinutes + cfg.PassingMinutes
	for dayIdx, day := range cfg.Weekdays {
		for period := 0; ; period++ {
			start := cfg.EarliestStartMin + period*step
			end := start + cfg.PeriodMinutes
			if end > cfg.LatestEndMin {
				break
			}
			grid = append(grid, gridSlot{Day: day, DayIdx: dayIdx, Period: period, StartMin: start, EndMin: end})
		}
	}
	return grid
}

// advancedCourse reports whether a course belongs in the mid-morning band.
func advancedCourse(course models.Course) bool {
	name := strings.ToLower(course.Name)
	return strings.Contains(name, " ap") || strings.HasPrefix(name, "ap ") ||
		strings.Contains(name, "honors") || strings.Contains(name, "advanced") ||
		course.Priority() >= 8
}

func buildProblem(cfg models.SchedulerConfiguration, inv *inventory.Inventory) *problem {
	p := &problem{
		cfg:            cfg,
		inv:            inv,
		grid:           buildGrid(cfg),
		teachers:       inv.Teachers,
		rooms:          inv.SchedulableRooms(),
		periodsPerDay:  cfg.PeriodsPerDay(),
		sharedStudents: make(map[int]int),
		teacherIdx:     make(map[string]int),
		roomIdx:        make(map[string]int),
		courseIdx:      make(map[string]int),
	}
	for i := range p.teachers {
		p.teacherIdx[p.teachers[i].ID] = i
	}
	p.teacherBlocked = make([]bool, len(p.teachers)*len(p.grid))
	for ti := range p.teachers {
		for gi, g := range p.grid {
			if inv.TeacherUnavailable(p.teachers[ti].ID, g.Day, g.StartMin, g.EndMin) {
				p.teacherBlocked[ti*len(p.grid)+gi] = true
			}
		}
	}
	p.roomLimit = make([]int, len(p.rooms))
	for i := range p.rooms {
		p.roomIdx[p.rooms[i].ID] = i
		p.roomLimit[i] = p.rooms[i].ConcurrentLimit()
	}

	p.courses = inv.ActiveCourses()
	sort.Slice(p.courses, func(i, j int) bool { return p.courses[i].ID < p.courses[j].ID })
	for i := range p.courses {
		p.courseIdx[p.courses[i].ID] = i
	}

	for ci := range p.courses {
		course := &p.courses[ci]
		enrollment := inv.ActiveEnrollmentCount(course.ID)

		teacher := -1
		var candidates []int
		if course.TeacherID != nil && *course.TeacherID != "" {
			if idx, ok := p.teacherIdx[*course.TeacherID]; ok {
				teacher = idx
			}
		}
		if teacher < 0 {
			for ti := range p.teachers {
				if !p.teachers[ti].Active {
					continue
				}
				if subject.BestMatch(p.teachers[ti].CertifiedSubjects, course.Subject) != subject.MatchNone {
					candidates = append(candidates, ti)
				}
			}
		}

		rooms := p.candidateRooms(*course, enrollment)
		advanced := advancedCourse(*course)
		for s := 0; s < course.Sessions(); s++ {
			p.sections = append(p.sections, section{
				CourseID:          course.ID,
				CourseIdx:         ci,
				Session:           s,
				Enrollment:        enrollment,
				Advanced:          advanced,
				Teacher:           teacher,
				CandidateTeachers: candidates,
				CandidateRooms:    rooms,
			})
		}
	}

	p.indexSharedStudents()
	return p
}

// candidateRooms filters rooms by capacity and type requirements.
func (p *problem) candidateRooms(course models.Course, enrollment int) []int {
	var out []int
	for ri := range p.rooms {
		room := &p.rooms[ri]
		if room.Capacity < enrollment {
			continue
		}
		if course.RequiresLab && !room.Type.IsLab() {
			continue
		}
		if course.RequiredRoomType != nil && room.Type != *course.RequiredRoomType {
			continue
		}
		out = append(out, ri)
	}
	return out
}

// indexSharedStudents precomputes, per course pair, how many students are
// enrolled in both. Two sections of such a pair must never share a grid slot.
func (p *problem) indexSharedStudents() {
	byStudent := make(map[string][]int)
	for _, enr := range p.inv.Enrollments {
		if !enr.Active {
			continue
		}
		if ci, ok := p.courseIdx[enr.CourseID]; ok {
			byStudent[enr.StudentID] = append(byStudent[enr.StudentID], ci)
		}
	}
	n := len(p.courses)
	for _, courses := range byStudent {
		for i := 0; i < len(courses); i++ {
			for j := i + 1; j < len(courses); j++ {
				a, b := courses[i], courses[j]
				if a > b {
					a, b = b, a
				}
				if a != b {
					p.sharedStudents[a*n+b]++
				}
			}
		}
	}
}

func (p *problem) coursesShareStudents(a, b int) bool {
	if a == b {
		return false
	}
	if a > b {
		a, b = b, a
	}
	return p.sharedStudents[a*len(p.courses)+b] > 0
}

// materialize converts an assignment into persistable schedule slots.
func (p *problem) materialize(scheduleID string, st *state) []models.ScheduleSlot {
	var slots []models.ScheduleSlot
	for si, pl := range st.assign {
		if pl.slot < 0 {
			continue
		}
		sec := p.sections[si]
		g := p.grid[pl.slot]
		teacherID := ""
		if pl.teacher >= 0 {
			teacherID = p.teachers[pl.teacher].ID
		}
		slots = append(slots, models.ScheduleSlot{
			ScheduleID: scheduleID,
			CourseID:   sec.CourseID,
			TeacherID:  teacherID,
			RoomID:     p.rooms[pl.room].ID,
			DayOfWeek:  g.Day,
			StartMin:   g.StartMin,
			EndMin:     g.EndMin,
		})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].CourseID != slots[j].CourseID {
			return slots[i].CourseID < slots[j].CourseID
		}
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return models.WeekdayIndex(slots[i].DayOfWeek) < models.WeekdayIndex(slots[j].DayOfWeek)
		}
		return slots[i].StartMin < slots[j].StartMin
	})
	return slots
}
