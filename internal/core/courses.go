package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownCourse is returned for course IDs that are not registered.
var ErrUnknownCourse = errors.New("unknown course")

// CourseID identifies a vocabulary course.
type CourseID string

const (
	CourseCSAT         CourseID = "CSAT"
	CourseIELTS        CourseID = "IELTS"
	CourseTOEFL        CourseID = "TOEFL"
	CourseTOEIC        CourseID = "TOEIC"
	CourseCollocations CourseID = "COLLOCATIONS"
)

// Course describes one vocabulary course.
type Course struct {
	ID    CourseID `json:"id"`
	Label string   `json:"label"`
	// IsCollocation fixes the record kind of every day in the course.
	IsCollocation bool `json:"isCollocation"`
	// Order is the display position on the dashboard.
	Order int `json:"order"`
}

// Kind returns the record kind stored in the course.
func (c Course) Kind() Kind {
	if c.IsCollocation {
		return KindCollocation
	}
	return KindStandard
}

// KindOverride returns the override to pass to the parser for uploads into
// this course.
func (c Course) KindOverride() *bool {
	return Bool(c.IsCollocation)
}

var (
	courses   = make(map[CourseID]Course)
	coursesMu sync.RWMutex
)

func init() {
	RegisterCourse(Course{ID: CourseCSAT, Label: "CSAT", Order: 1})
	RegisterCourse(Course{ID: CourseIELTS, Label: "IELTS", Order: 2})
	RegisterCourse(Course{ID: CourseTOEFL, Label: "TOEFL", Order: 3})
	RegisterCourse(Course{ID: CourseTOEIC, Label: "TOEIC", Order: 4})
	RegisterCourse(Course{ID: CourseCollocations, Label: "Collocations", IsCollocation: true, Order: 5})
}

// RegisterCourse adds a course to the registry.
// Panics if a course with the same ID is already registered.
func RegisterCourse(c Course) {
	coursesMu.Lock()
	defer coursesMu.Unlock()

	if _, exists := courses[c.ID]; exists {
		panic(fmt.Sprintf("course already registered: %s", c.ID))
	}
	courses[c.ID] = c
}

// GetCourse returns a course by ID. Lookup is case-insensitive.
func GetCourse(id string) (Course, bool) {
	coursesMu.RLock()
	defer coursesMu.RUnlock()

	c, ok := courses[CourseID(strings.ToUpper(strings.TrimSpace(id)))]
	return c, ok
}

// LookupCourse is GetCourse returning ErrUnknownCourse when absent.
func LookupCourse(id string) (Course, error) {
	c, ok := GetCourse(id)
	if !ok {
		return Course{}, fmt.Errorf("%w: %q", ErrUnknownCourse, id)
	}
	return c, nil
}

// Courses returns all registered courses in display order.
func Courses() []Course {
	coursesMu.RLock()
	defer coursesMu.RUnlock()

	result := make([]Course, 0, len(courses))
	for _, c := range courses {
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// CourseCount returns the number of registered courses.
func CourseCount() int {
	coursesMu.RLock()
	defer coursesMu.RUnlock()
	return len(courses)
}
