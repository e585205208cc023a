package model

import "strings"

// PrimaryCategory is the Level-1 classification label.
type PrimaryCategory string

const (
	PrimaryGeneralInfo PrimaryCategory = "informacion_general"
	PrimaryOther       PrimaryCategory = "otro"
)

// SubCategory is the Level-2 classification label, only produced on the
// general information branch.
type SubCategory string

const (
	SubCalendar   SubCategory = "calendario"
	SubOfficeInfo SubCategory = "despacho"
	SubUnknown    SubCategory = "desconocido"
)

// Label is implemented by the closed label enumerations.
type Label interface {
	~string
	Valid() bool
}

func (c PrimaryCategory) Valid() bool {
	return c == PrimaryGeneralInfo || c == PrimaryOther
}

func (c SubCategory) Valid() bool {
	return c == SubCalendar || c == SubOfficeInfo || c == SubUnknown
}

// PrimarySchema is the structured output schema requested from the Level-1 classifier.
var PrimarySchema = LabelSchema{
	Name:   "DecisionMaestra",
	Field:  "categoria",
	Labels: []string{string(PrimaryGeneralInfo), string(PrimaryOther)},
}

// SubSchema is the structured output schema requested from the Level-2 classifier.
var SubSchema = LabelSchema{
	Name:   "DecisionInfoGeneral",
	Field:  "tipo",
	Labels: []string{string(SubCalendar), string(SubOfficeInfo), string(SubUnknown)},
}

// LabelSchema describes a single-field object whose value is drawn from Labels.
type LabelSchema struct {
	Name   string
	Field  string
	Labels []string
}

// Allows reports whether v is one of the schema labels.
func (s LabelSchema) Allows(v string) bool {
	for _, l := range s.Labels {
		if l == v {
			return true
		}
	}
	return false
}

// ParseLabel normalises raw into L, reporting false when it is outside the enumeration.
func ParseLabel[L Label](raw string) (L, bool) {
	l := L(strings.ToLower(strings.TrimSpace(raw)))
	if !l.Valid() {
		var zero L
		return zero, false
	}
	return l, true
}

// Classification is the outcome of one classification step. A non-nil Err
// means the classifier failed and Label holds the level's default.
type Classification[L Label] struct {
	Label L
	Raw   string
	Err   error
}

// Degraded reports whether the label is a fallback rather than a classifier answer.
func (c Classification[L]) Degraded() bool {
	return c.Err != nil
}

func Classified[L Label](label L, raw string) Classification[L] {
	return Classification[L]{Label: label, Raw: raw}
}

func Fallback[L Label](label L, raw string, err error) Classification[L] {
	return Classification[L]{Label: label, Raw: raw, Err: err}
}
