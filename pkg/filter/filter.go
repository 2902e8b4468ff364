// Package filter implements the recursive boolean filter tree evaluated
// against a card's property values, and its interpreter.
//
// The tree is an explicit tagged union: a node is either a Group
// (and/or over child nodes) or a Clause (a typed leaf condition). The
// kind is decided at construction and at decode time, never by structural
// inspection of live values.
package filter

import (
	"github.com/goccy/go-json"
)

// Operation combines the children of a group.
type Operation string

const (
	And Operation = "and"
	Or  Operation = "or"
)

// Condition is the comparison applied by a leaf clause.
type Condition string

const (
	Includes      Condition = "includes"
	NotIncludes   Condition = "notIncludes"
	IsEmpty       Condition = "isEmpty"
	IsNotEmpty    Condition = "isNotEmpty"
	IsSet         Condition = "isSet"
	IsNotSet      Condition = "isNotSet"
	Is            Condition = "is"
	Contains      Condition = "contains"
	NotContains   Condition = "notContains"
	StartsWith    Condition = "startsWith"
	NotStartsWith Condition = "notStartsWith"
	EndsWith      Condition = "endsWith"
	NotEndsWith   Condition = "notEndsWith"
	IsBefore      Condition = "isBefore"
	IsAfter       Condition = "isAfter"
)

// Node is one element of a filter tree: a *Group or a *Clause.
type Node interface {
	isFilterNode()
}

// Clause is a leaf condition on a single card property. PropertyID may
// also be "title" or the id of a synthetic property (createdBy,
// updatedBy, createdTime, updatedTime).
type Clause struct {
	PropertyID string    `json:"propertyId"`
	Condition  Condition `json:"condition"`
	Values     []string  `json:"values"`
}

func (*Clause) isFilterNode() {}

// NewClause returns a clause with every default explicit.
func NewClause(c Clause) *Clause {
	if c.Condition == "" {
		c.Condition = Includes
	}
	c.Values = append([]string{}, c.Values...)

	return &c
}

// ClausesEqual reports value equality of two clauses.
func ClausesEqual(a, b *Clause) bool {
	if a.PropertyID != b.PropertyID || a.Condition != b.Condition || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return false
		}
	}

	return true
}

// Group combines child nodes with a boolean operation. An empty group
// matches every card.
type Group struct {
	Operation Operation `json:"operation"`
	Filters   []Node    `json:"filters"`
}

func (*Group) isFilterNode() {}

// NewGroup returns a group with every default explicit. Any operation
// other than "or" normalizes to "and".
func NewGroup(g Group) *Group {
	if g.Operation != Or {
		g.Operation = And
	}
	if g.Filters == nil {
		g.Filters = []Node{}
	}

	return &g
}

// wireNode mirrors the stored wire shape, where groups and clauses are
// distinguished only by key presence. Decoding resolves the ambiguity
// once, here; the rest of the package works on the tagged union.
type wireNode struct {
	Operation  *Operation        `json:"operation,omitempty"`
	Filters    []json.RawMessage `json:"filters,omitempty"`
	PropertyID *string           `json:"propertyId,omitempty"`
	Condition  Condition         `json:"condition,omitempty"`
	Values     []string          `json:"values,omitempty"`
}

// UnmarshalJSON decodes the structural wire format into the typed tree.
// Child objects carrying an "operation" key decode as nested groups,
// everything else as clauses.
func (g *Group) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	op := And
	if w.Operation != nil {
		op = *w.Operation
	}
	group := NewGroup(Group{Operation: op})

	for _, raw := range w.Filters {
		var childWire wireNode
		if err := json.Unmarshal(raw, &childWire); err != nil {
			return err
		}

		if childWire.Operation != nil {
			var child Group
			if err := json.Unmarshal(raw, &child); err != nil {
				return err
			}
			group.Filters = append(group.Filters, &child)
			continue
		}

		propertyID := ""
		if childWire.PropertyID != nil {
			propertyID = *childWire.PropertyID
		}
		group.Filters = append(group.Filters, NewClause(Clause{
			PropertyID: propertyID,
			Condition:  childWire.Condition,
			Values:     childWire.Values,
		}))
	}

	*g = *group

	return nil
}

// FromMap decodes a filter tree kept as raw wire data (for example a view
// block's filter field). A nil input yields an empty "and" group.
func FromMap(raw map[string]any) (*Group, error) {
	if raw == nil {
		return NewGroup(Group{}), nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	var g Group
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}

	return &g, nil
}

// ToMap encodes the tree back to the raw wire shape stored in view
// fields.
func (g *Group) ToMap() (map[string]any, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	return raw, nil
}
