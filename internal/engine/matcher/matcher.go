package matcher

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/noah-isme/k12-scheduler-api/internal/engine/inventory"
	"github.com/noah-isme/k12-scheduler-api/internal/engine/subject"
	"github.com/noah-isme/k12-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/k12-scheduler-api/pkg/errors"
)

const (
	scoreExactCertification  = 100
	scoreFamilyCertification = 75

	bonusNoLoad       = 50
	bonusBelowOptimal = 45
	bonusAtOptimal    = 20
	bonusNearCap      = 5
)

// Assignment binds one course to one teacher.
type Assignment struct {
	CourseID  string  `json:"course_id"`
	TeacherID string  `json:"teacher_id"`
	Score     float64 `json:"score"`
	Exact     bool    `json:"exact_certification"`
	Sequence  string  `json:"sequence,omitempty"`
}

// Failure records one course the matcher declined to bind.
type Failure struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	Code       string `json:"code"`
	Reason     string `json:"reason"`
}

// Result is the full outcome of a matching run. Successful bindings stand
// even when other courses fail; nothing is rolled back.
type Result struct {
	Assignments []Assignment       `json:"assignments"`
	Failures    []Failure          `json:"failures"`
	Workloads   map[string]float64 `json:"workloads"`
}

// Matcher binds unassigned courses to certified teachers under workload caps.
// A single invocation is serial; the mutex serializes concurrent callers
// sharing one instance.
type Matcher struct {
	cfg models.SchedulerConfiguration
	mu  sync.Mutex
}

// New builds a matcher for the given configuration.
func New(cfg models.SchedulerConfiguration) *Matcher {
	return &Matcher{cfg: cfg}
}

// Assign binds every unassigned active course it can. Deterministic given
// identical inventory content and ordering.
func (m *Matcher) Assign(inv *inventory.Inventory) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	workloads := make(map[string]float64, len(inv.Teachers))
	for _, teacher := range inv.Teachers {
		var load float64
		for _, course := range inv.CoursesBoundTo(teacher.ID) {
			load += m.cfg.CourseWorkload(*course)
		}
		workloads[teacher.ID] = load
	}

	ordered := orderCourses(unassignedCourses(inv))
	sequenceTeacher := make(map[string]string)

	result := Result{Workloads: workloads}
	for _, entry := range ordered {
		course := entry.course
		weight := m.cfg.CourseWorkload(course)

		// A partially assigned sequence stays with its teacher when headroom allows.
		if prior, ok := sequenceTeacher[entry.sequenceKey]; ok {
			if workloads[prior]+weight <= m.cfg.Thresholds.HardCap {
				workloads[prior] += weight
				result.Assignments = append(result.Assignments, Assignment{
					CourseID:  course.ID,
					TeacherID: prior,
					Score:     m.scoreCandidate(*inv.TeacherByID(prior), course, workloads[prior]-weight),
					Exact:     bestLevel(inv.TeacherByID(prior), course) == subject.MatchExact,
					Sequence:  entry.sequenceKey,
				})
				continue
			}
		}

		best, certified := m.pickCandidate(inv, course, weight, workloads)
		if best == nil {
			failure := Failure{CourseID: course.ID, CourseName: course.Name}
			if certified == 0 {
				failure.Code = appErrors.ErrNoCertifiedTeacher.Code
				failure.Reason = fmt.Sprintf("no teacher certified for %s", course.Subject)
			} else {
				failure.Code = appErrors.ErrTeachersAtCapacity.Code
				failure.Reason = fmt.Sprintf("all %d certified teachers are at capacity", certified)
			}
			result.Failures = append(result.Failures, failure)
			continue
		}

		workloads[best.ID] += weight
		if entry.inSequence {
			sequenceTeacher[entry.sequenceKey] = best.ID
		}
		result.Assignments = append(result.Assignments, Assignment{
			CourseID:  course.ID,
			TeacherID: best.ID,
			Score:     m.scoreCandidate(*best, course, workloads[best.ID]-weight),
			Exact:     bestLevel(best, course) == subject.MatchExact,
			Sequence:  entry.sequenceKey,
		})
	}
	return result
}

// pickCandidate returns the highest-scoring teacher with headroom, plus how
// many certified candidates existed at all.
func (m *Matcher) pickCandidate(inv *inventory.Inventory, course models.Course, weight float64, workloads map[string]float64) (*models.Teacher, int) {
	var best *models.Teacher
	var bestScore float64
	certified := 0

	for i := range inv.Teachers {
		teacher := &inv.Teachers[i]
		if !teacher.Active {
			continue
		}
		if subject.BestMatch(teacher.CertifiedSubjects, course.Subject) == subject.MatchNone {
			continue
		}
		certified++

		load := workloads[teacher.ID]
		if load >= m.cfg.Thresholds.HardCap || load+weight > m.cfg.Thresholds.HardCap {
			continue
		}

		score := m.scoreCandidate(*teacher, course, load)
		if best == nil || score > bestScore {
			best, bestScore = teacher, score
			continue
		}
		if score == bestScore {
			// Ties: lowest current workload, then stable identifier order.
			if load < workloads[best.ID] || (load == workloads[best.ID] && teacher.ID < best.ID) {
				best = teacher
			}
		}
	}
	return best, certified
}

// scoreCandidate combines certification and workload scores for a pairing.
func (m *Matcher) scoreCandidate(teacher models.Teacher, course models.Course, load float64) float64 {
	var score float64
	switch subject.BestMatch(teacher.CertifiedSubjects, course.Subject) {
	case subject.MatchExact:
		score = scoreExactCertification
	case subject.MatchFamily:
		score = scoreFamilyCertification
	default:
		return 0
	}

	t := m.cfg.Thresholds
	switch {
	case load == 0:
		score += bonusNoLoad
	case load < t.Optimal:
		score += bonusBelowOptimal
	case load == t.Optimal:
		score += bonusAtOptimal
	case load < t.HardCap:
		score += bonusNearCap
	}
	return score
}

func bestLevel(teacher *models.Teacher, course models.Course) subject.MatchLevel {
	if teacher == nil {
		return subject.MatchNone
	}
	return subject.BestMatch(teacher.CertifiedSubjects, course.Subject)
}

// --- Course ordering & sequences ---

type orderedCourse struct {
	course      models.Course
	sequenceKey string
	inSequence  bool
	level       int
}

// levelSuffix strips trailing level indicators from a course name.
var levelSuffix = regexp.MustCompile(`(?i)\s+(\d+|[ivx]+|ap|honors|intro|advanced)$`)

var levelKeywords = map[string]int{
	"intro":    0,
	"ap":       90,
	"honors":   91,
	"advanced": 92,
}

var romanValues = map[string]int{
	"i": 1, "ii": 2, "iii": 3, "iv": 4, "v": 5,
	"vi": 6, "vii": 7, "viii": 8, "ix": 9, "x": 10,
}

// SequenceKey derives the sequence grouping key for a course: subject plus
// the course name minus trailing level indicators.
func SequenceKey(course models.Course) string {
	name := strings.TrimSpace(course.Name)
	for {
		stripped := levelSuffix.ReplaceAllString(name, "")
		if stripped == name {
			break
		}
		name = stripped
	}
	return strings.ToLower(strings.TrimSpace(course.Subject)) + "|" + strings.ToLower(name)
}

// courseLevel extracts a sortable level from the trailing indicator.
func courseLevel(course models.Course) int {
	match := levelSuffix.FindStringSubmatch(strings.TrimSpace(course.Name))
	if match == nil {
		return 1
	}
	token := strings.ToLower(match[1])
	if n, err := strconv.Atoi(token); err == nil {
		return n
	}
	if n, ok := romanValues[token]; ok {
		return n
	}
	if n, ok := levelKeywords[token]; ok {
		return n
	}
	return 1
}

func unassignedCourses(inv *inventory.Inventory) []models.Course {
	var result []models.Course
	for _, course := range inv.ActiveCourses() {
		if course.TeacherID == nil || *course.TeacherID == "" {
			result = append(result, course)
		}
	}
	return result
}

// orderCourses partitions courses into sequences and singletons, emitting
// sequence members first. Within each group: priority, then level, then id.
func orderCourses(courses []models.Course) []orderedCourse {
	groups := make(map[string][]models.Course)
	for _, course := range courses {
		key := SequenceKey(course)
		groups[key] = append(groups[key], course)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sequences, singletons []orderedCourse
	for _, key := range keys {
		group := groups[key]
		entries := make([]orderedCourse, 0, len(group))
		for _, course := range group {
			entries = append(entries, orderedCourse{
				course:      course,
				sequenceKey: key,
				inSequence:  len(group) > 1,
				level:       courseLevel(course),
			})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].course.Priority() != entries[j].course.Priority() {
				return entries[i].course.Priority() > entries[j].course.Priority()
			}
			if entries[i].level != entries[j].level {
				return entries[i].level < entries[j].level
			}
			return entries[i].course.ID < entries[j].course.ID
		})
		if len(group) > 1 {
			sequences = append(sequences, entries...)
		} else {
			singletons = append(singletons, entries...)
		}
	}
	return append(sequences, singletons...)
}
