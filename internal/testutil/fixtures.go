package testutil

import (
	"sync"

	"github.com/atlanticdynamic/pcstate/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Employee field indices.
const (
	EmployeeName = iota
	EmployeeSalary
	EmployeeSkills
)

// EmployeeClass describes Employee.
var EmployeeClass = model.NewClass(
	"Employee",
	func() model.Instance { return &Employee{} },
	model.FieldOf[string]("name"),
	model.FieldOf[int]("salary"),
	model.FieldOf[*model.TrackedSlice[string]]("skills"),
)

// Employee is a managed class used by tests.
type Employee struct {
	mu     sync.Mutex
	Name   string
	Salary int
	Skills *model.TrackedSlice[string]

	PreDeleteCalls int
}

// NewEmployee returns an employee with the given values.
func NewEmployee(name string, salary int, skills ...string) *Employee {
	return &Employee{
		Name:   name,
		Salary: salary,
		Skills: model.NewTrackedSlice(skills...),
	}
}

// Class implements model.Instance
func (e *Employee) Class() *model.Class {
	return EmployeeClass
}

// ProvideField implements model.Instance
func (e *Employee) ProvideField(i int) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch i {
	case EmployeeName:
		return e.Name
	case EmployeeSalary:
		return e.Salary
	case EmployeeSkills:
		return e.Skills
	default:
		return nil
	}
}

// ReplaceField implements model.Instance
func (e *Employee) ReplaceField(i int, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch i {
	case EmployeeName:
		e.Name, _ = v.(string)
	case EmployeeSalary:
		e.Salary, _ = v.(int)
	case EmployeeSkills:
		e.Skills, _ = v.(*model.TrackedSlice[string])
	}
}

// PreDelete implements model.PreDeleter
func (e *Employee) PreDelete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.PreDeleteCalls++
}

// Handle pairs an instance with an object ID so store implementations can
// be tested without a state manager.
type Handle struct {
	ID uuid.UUID
	model.Instance
}

// NewHandle wraps inst with a fresh ID.
func NewHandle(inst model.Instance) *Handle {
	return &Handle{ID: uuid.Must(uuid.NewV6()), Instance: inst}
}

// ObjectID returns the handle's ID.
func (h *Handle) ObjectID() uuid.UUID {
	return h.ID
}
