package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Assignment is one parsed "id=value" setting.
type Assignment struct {
	ID    string
	Value float64
}

// Assignments collects repeated -p id=value flags. It implements flag.Value.
type Assignments []Assignment

func (a *Assignments) String() string {
	if a == nil {
		return ""
	}
	parts := make([]string, len(*a))
	for i, x := range *a {
		parts[i] = x.ID + "=" + strconv.FormatFloat(x.Value, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (a *Assignments) Set(s string) error {
	x, err := ParseAssignment(s)
	if err != nil {
		return err
	}
	*a = append(*a, x)
	return nil
}

// Apply stores every assignment into v in order.
func (a Assignments) Apply(v *Values) error {
	for _, x := range a {
		if err := v.Set(x.ID, x.Value); err != nil {
			return err
		}
	}
	return nil
}

// ParseAssignment parses "id=value". Parameters with named choices also
// accept the choice name, in any case.
func ParseAssignment(s string) (Assignment, error) {
	id, raw, ok := strings.Cut(s, "=")
	id, raw = strings.TrimSpace(id), strings.TrimSpace(raw)
	if !ok || id == "" || raw == "" {
		return Assignment{}, fmt.Errorf("params: %q: want id=value", s)
	}
	p, found := Lookup(id)
	if !found {
		return Assignment{}, fmt.Errorf("params: unknown parameter %q (known: %s)", id, strings.Join(IDs(), ", "))
	}
	for i, c := range p.Choices {
		if strings.EqualFold(c, raw) {
			return Assignment{ID: id, Value: float64(i)}, nil
		}
	}
	x, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Assignment{}, fmt.Errorf("params: %s: %w", id, err)
	}
	return Assignment{ID: id, Value: x}, nil
}
