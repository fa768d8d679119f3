package inventory

import (
	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// Inventory is an immutable snapshot of the cached SIS entities a single
// engine task operates over. Build once per task; safe for concurrent reads.
type Inventory struct {
	Teachers    []models.Teacher
	Courses     []models.Course
	Rooms       []models.Room
	Students    []models.Student
	Enrollments []models.Enrollment

	teacherByID       map[string]*models.Teacher
	courseByID        map[string]*models.Course
	roomByID          map[string]*models.Room
	studentByID       map[string]*models.Student
	activeByCourse    map[string][]models.Enrollment
	coursesPerTeacher map[string][]*models.Course
	availability      map[string][]models.TeacherAvailability
}

// New builds an inventory with lookup indexes pre-materialized.
func New(teachers []models.Teacher, courses []models.Course, rooms []models.Room, students []models.Student, enrollments []models.Enrollment) *Inventory {
	inv := &Inventory{
		Teachers:    teachers,
		Courses:     courses,
		Rooms:       rooms,
		Students:    students,
		Enrollments: enrollments,

		teacherByID:       make(map[string]*models.Teacher, len(teachers)),
		courseByID:        make(map[string]*models.Course, len(courses)),
		roomByID:          make(map[string]*models.Room, len(rooms)),
		studentByID:       make(map[string]*models.Student, len(students)),
		activeByCourse:    make(map[string][]models.Enrollment),
		coursesPerTeacher: make(map[string][]*models.Course),
	}
	for i := range teachers {
		inv.teacherByID[teachers[i].ID] = &teachers[i]
	}
	for i := range courses {
		course := &courses[i]
		inv.courseByID[course.ID] = course
		if course.TeacherID != nil && *course.TeacherID != "" {
			inv.coursesPerTeacher[*course.TeacherID] = append(inv.coursesPerTeacher[*course.TeacherID], course)
		}
	}
	for i := range rooms {
		inv.roomByID[rooms[i].ID] = &rooms[i]
	}
	for i := range students {
		inv.studentByID[students[i].ID] = &students[i]
	}
	for _, enr := range enrollments {
		if enr.Active {
			inv.activeByCourse[enr.CourseID] = append(inv.activeByCourse[enr.CourseID], enr)
		}
	}
	return inv
}

// WithAvailability attaches SIS availability windows and returns the
// inventory for chaining.
func (inv *Inventory) WithAvailability(windows []models.TeacherAvailability) *Inventory {
	inv.availability = make(map[string][]models.TeacherAvailability, len(windows))
	for _, w := range windows {
		inv.availability[w.TeacherID] = append(inv.availability[w.TeacherID], w)
	}
	return inv
}

// TeacherUnavailable reports whether the interval overlaps a window the SIS
// marked unavailable for the teacher.
func (inv *Inventory) TeacherUnavailable(teacherID, day string, startMin, endMin int) bool {
	for _, w := range inv.availability[teacherID] {
		if w.Available || w.DayOfWeek != day {
			continue
		}
		if startMin < w.EndMin && w.StartMin < endMin {
			return true
		}
	}
	return false
}

// TeacherByID returns the teacher or nil.
func (inv *Inventory) TeacherByID(id string) *models.Teacher {
	return inv.teacherByID[id]
}

// CourseByID returns the course or nil.
func (inv *Inventory) CourseByID(id string) *models.Course {
	return inv.courseByID[id]
}

// RoomByID returns the room or nil.
func (inv *Inventory) RoomByID(id string) *models.Room {
	return inv.roomByID[id]
}

// StudentByID returns the student or nil.
func (inv *Inventory) StudentByID(id string) *models.Student {
	return inv.studentByID[id]
}

// ActiveEnrollments returns active enrollments for a course.
func (inv *Inventory) ActiveEnrollments(courseID string) []models.Enrollment {
	return inv.activeByCourse[courseID]
}

// ActiveEnrollmentCount falls back to the cached course enrollment figure
// when no enrollment tuples were loaded.
func (inv *Inventory) ActiveEnrollmentCount(courseID string) int {
	if enrs, ok := inv.activeByCourse[courseID]; ok && len(enrs) > 0 {
		return len(enrs)
	}
	if course := inv.courseByID[courseID]; course != nil {
		return course.Enrollment
	}
	return 0
}

// CoursesBoundTo returns courses currently bound to a teacher.
func (inv *Inventory) CoursesBoundTo(teacherID string) []*models.Course {
	return inv.coursesPerTeacher[teacherID]
}

// ActiveCourses returns active courses only.
func (inv *Inventory) ActiveCourses() []models.Course {
	result := make([]models.Course, 0, len(inv.Courses))
	for _, course := range inv.Courses {
		if course.Active {
			result = append(result, course)
		}
	}
	return result
}

// SchedulableRooms returns rooms the solver may use.
func (inv *Inventory) SchedulableRooms() []models.Room {
	result := make([]models.Room, 0, len(inv.Rooms))
	for _, room := range inv.Rooms {
		if room.Schedulable() {
			result = append(result, room)
		}
	}
	return result
}
