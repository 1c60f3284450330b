package forest

import "maps"

// Vacant slot placeholders written by ReplaceData.
const (
	VacantTitle      = "Vacant Position"
	VacantDepartment = "Unassigned"
)

// Employee is the payload occupying a chart slot. The schema is fixed:
// required fields are named, anything free-form goes into Extra.
//
// Level is advisory metadata for visual styling. Layout depth is derived
// from the edge structure, never from Level, and Level stays with the
// slot (not the payload) across ReplaceData and SwapData.
type Employee struct {
	Name       string            `json:"name"`
	Title      string            `json:"title"`
	Department string            `json:"department"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Level      int               `json:"level"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Vacant returns the sentinel payload for a slot whose occupant was moved
// away: empty name and contact, placeholder title and department, and the
// slot's own level preserved.
func Vacant(level int) Employee {
	return Employee{
		Title:      VacantTitle,
		Department: VacantDepartment,
		Level:      level,
	}
}

// IsVacant reports whether the payload is the vacant sentinel.
func (e Employee) IsVacant() bool {
	return e.Name == "" && e.Title == VacantTitle
}

// Clone returns a deep copy of the payload (Extra map included).
func (e Employee) Clone() Employee {
	c := e
	if e.Extra != nil {
		c.Extra = maps.Clone(e.Extra)
	}
	return c
}

// Partial describes a field-level merge for Update. Nil pointers leave
// the corresponding field untouched; Extra entries are merged key by key.
type Partial struct {
	Name       *string           `json:"name,omitempty"`
	Title      *string           `json:"title,omitempty"`
	Department *string           `json:"department,omitempty"`
	Email      *string           `json:"email,omitempty"`
	Phone      *string           `json:"phone,omitempty"`
	Level      *int              `json:"level,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

func (p Partial) apply(e *Employee) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Department != nil {
		e.Department = *p.Department
	}
	if p.Email != nil {
		e.Email = *p.Email
	}
	if p.Phone != nil {
		e.Phone = *p.Phone
	}
	if p.Level != nil {
		e.Level = *p.Level
	}
	if len(p.Extra) > 0 {
		if e.Extra == nil {
			e.Extra = make(map[string]string, len(p.Extra))
		}
		maps.Copy(e.Extra, p.Extra)
	}
}
