package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/inventory"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/k12-scheduler-api/pkg/errors"
)

func mathCourse(id, name string, sessions int) models.Course {
	return models.Course{ID: id, Code: id, Name: name, Subject: "Math", SessionsPerWeek: sessions, Active: true}
}

func TestAssignSequenceReuse(t *testing.T) {
	courses := []models.Course{
		{ID: "c-eng9", Name: "English 9", Subject: "English", SessionsPerWeek: 1, Active: true},
		{ID: "c-eng10", Name: "English 10", Subject: "English", SessionsPerWeek: 1, Active: true},
	}
	teachers := []models.Teacher{
		{ID: "t1", FullName: "Ms. Austen", CertifiedSubjects: []string{"English"}, Active: true},
		{ID: "t2", FullName: "Mr. Orwell", CertifiedSubjects: []string{"English"}, Active: true},
	}
	inv := inventory.New(teachers, courses, nil, nil, nil)

	result := New(models.DefaultSchedulerConfiguration()).Assign(inv)

	require.Len(t, result.Assignments, 2)
	require.Empty(t, result.Failures)
	assert.Equal(t, result.Assignments[0].TeacherID, result.Assignments[1].TeacherID,
		"consecutive levels of one sequence go to one teacher")
	assert.Equal(t, "c-eng9", result.Assignments[0].CourseID, "lower level assigned first")
	assert.Equal(t, float64(2), result.Workloads[result.Assignments[0].TeacherID])
}

func TestAssignSequenceFallsOverWhenFull(t *testing.T) {
	cfg := models.DefaultSchedulerConfiguration()
	cfg.Thresholds = models.WorkloadThresholds{Optimal: 3, Warning: 4, HardCap: 5}

	courses := []models.Course{
		{ID: "c-eng9", Name: "English 9", Subject: "English", SessionsPerWeek: 5, Active: true},
		{ID: "c-eng10", Name: "English 10", Subject: "English", SessionsPerWeek: 5, Active: true},
	}
	teachers := []models.Teacher{
		{ID: "t1", FullName: "Ms. Austen", CertifiedSubjects: []string{"English"}, Active: true},
		{ID: "t2", FullName: "Mr. Orwell", CertifiedSubjects: []string{"English"}, Active: true},
	}
	inv := inventory.New(teachers, courses, nil, nil, nil)

	result := New(cfg).Assign(inv)

	require.Len(t, result.Assignments, 2)
	assert.NotEqual(t, result.Assignments[0].TeacherID, result.Assignments[1].TeacherID,
		"sequence continuity yields when the prior teacher has no headroom")
}

func TestAssignNoCertifiedTeacher(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Name: "French I", Subject: "French", SessionsPerWeek: 5, Active: true},
	}
	teachers := []models.Teacher{
		{ID: "t1", FullName: "Mr. Euler", CertifiedSubjects: []string{"Math"}, Active: true},
	}
	inv := inventory.New(teachers, courses, nil, nil, nil)

	result := New(models.DefaultSchedulerConfiguration()).Assign(inv)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, appErrors.ErrNoCertifiedTeacher.Code, result.Failures[0].Code)
	assert.Contains(t, result.Failures[0].Reason, "French")
}

func TestAssignTeachersAtCapacity(t *testing.T) {
	teacherID := "t1"
	courses := make([]models.Course, 0, 7)
	for i := 0; i < 6; i++ {
		c := mathCourse(fmt.Sprintf("bound-%d", i), "Geometry Section", 1)
		c.TeacherID = &teacherID
		courses = append(courses, c)
	}
	courses = append(courses, mathCourse("c-new", "Algebra", 1))
	teachers := []models.Teacher{
		{ID: teacherID, FullName: "Mr. Euler", CertifiedSubjects: []string{"Math"}, Active: true},
	}
	inv := inventory.New(teachers, courses, nil, nil, nil)

	result := New(models.DefaultSchedulerConfiguration()).Assign(inv)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, appErrors.ErrTeachersAtCapacity.Code, result.Failures[0].Code)
	assert.Contains(t, result.Failures[0].Reason, "all 1 certified")
	assert.Empty(t, result.Assignments)
}

func TestAssignPrefersExactCertification(t *testing.T) {
	courses := []models.Course{
		{ID: "c1", Name: "Biology", Subject: "Biology", SessionsPerWeek: 5, Active: true},
	}
	teachers := []models.Teacher{
		{ID: "t1", FullName: "Dr. Grey", CertifiedSubjects: []string{"Science"}, Active: true},
		{ID: "t2", FullName: "Dr. Yang", CertifiedSubjects: []string{"Biology"}, Active: true},
	}
	inv := inventory.New(teachers, courses, nil, nil, nil)

	result := New(models.DefaultSchedulerConfiguration()).Assign(inv)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "t2", result.Assignments[0].TeacherID)
	assert.True(t, result.Assignments[0].Exact)
	assert.Equal(t, float64(150), result.Assignments[0].Score)
}

func TestAssignDeterministic(t *testing.T) {
	courses := []models.Course{
		mathCourse("c3", "Calculus", 2),
		mathCourse("c1", "Algebra", 2),
		mathCourse("c2", "Geometry", 2),
	}
	teachers := []models.Teacher{
		{ID: "t2", FullName: "Ms. Noether", CertifiedSubjects: []string{"Math"}, Active: true},
		{ID: "t1", FullName: "Mr. Euler", CertifiedSubjects: []string{"Math"}, Active: true},
	}
	m := New(models.DefaultSchedulerConfiguration())

	first := m.Assign(inventory.New(teachers, courses, nil, nil, nil))
	second := m.Assign(inventory.New(teachers, courses, nil, nil, nil))
	assert.Equal(t, first, second)
}

func TestAssignNeverExceedsHardCap(t *testing.T) {
	courses := make([]models.Course, 0, 20)
	for i := 0; i < 20; i++ {
		courses = append(courses, mathCourse(fmt.Sprintf("c-%02d", i), fmt.Sprintf("Seminar %c", 'a'+i), 1))
	}
	teachers := []models.Teacher{
		{ID: "t1", FullName: "Mr. Euler", CertifiedSubjects: []string{"Math"}, Active: true},
		{ID: "t2", FullName: "Ms. Noether", CertifiedSubjects: []string{"Math"}, Active: true},
	}
	cfg := models.DefaultSchedulerConfiguration()
	inv := inventory.New(teachers, courses, nil, nil, nil)

	result := New(cfg).Assign(inv)

	assert.Len(t, result.Assignments, 12)
	assert.Len(t, result.Failures, 8)
	for id, load := range result.Workloads {
		assert.LessOrEqual(t, load, cfg.Thresholds.HardCap, "teacher %s over cap", id)
	}
}

func TestSequenceKey(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"English 9", "english|english"},
		{"English 10", "english|english"},
		{"Algebra II", "english|algebra"},
		{"Chemistry Honors", "english|chemistry"},
		{"Spanish III AP", "english|spanish"},
		{"World History", "english|world history"},
	}
	for _, tc := range cases {
		got := SequenceKey(models.Course{Name: tc.name, Subject: "English"})
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestCourseLevelOrdering(t *testing.T) {
	assert.Less(t,
		courseLevel(models.Course{Name: "French I"}),
		courseLevel(models.Course{Name: "French II"}))
	assert.Less(t,
		courseLevel(models.Course{Name: "English 9"}),
		courseLevel(models.Course{Name: "English 10"}))
	assert.Less(t,
		courseLevel(models.Course{Name: "Biology Intro"}),
		courseLevel(models.Course{Name: "Biology Honors"}))
}
