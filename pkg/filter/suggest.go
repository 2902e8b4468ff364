package filter

import (
	"github.com/openboards/boardkit/pkg/model"
)

// PropertiesThatMeetGroup returns property values a new card should be
// given so it satisfies the group and stays visible in the filtered view.
// Only top-level clauses are considered. For an "or" group meeting the
// first clause suffices; for "and" every clause contributes.
func (e *Evaluator) PropertiesThatMeetGroup(g *Group, templates []model.PropertyTemplate) map[string]string {
	result := map[string]string{}
	if g == nil {
		return result
	}

	clauses := make([]*Clause, 0, len(g.Filters))
	for _, node := range g.Filters {
		if c, ok := node.(*Clause); ok {
			clauses = append(clauses, c)
		}
	}
	if len(clauses) == 0 {
		return result
	}

	if g.Operation == Or {
		id, value, ok := e.propertyThatMeetsClause(clauses[0], templates)
		if ok {
			result[id] = value
		}
		return result
	}

	for _, clause := range clauses {
		id, value, ok := e.propertyThatMeetsClause(clause, templates)
		if ok {
			result[id] = value
		}
	}

	return result
}

// propertyThatMeetsClause picks a value satisfying the clause, when one
// can be chosen. Clauses on synthetic or unknown properties, and
// conditions with no constructive value, yield nothing.
func (e *Evaluator) propertyThatMeetsClause(c *Clause, templates []model.PropertyTemplate) (id, value string, ok bool) {
	template := findTemplate(templates, c.PropertyID)
	if template == nil {
		e.log.Error().
			Str("propertyId", c.PropertyID).
			Msg("cannot find template for filter clause")
		return c.PropertyID, "", false
	}

	if template.Type == model.PropertyTypeCreatedBy || template.Type == model.PropertyTypeUpdatedBy {
		return c.PropertyID, "", false
	}

	switch c.Condition {
	case Includes:
		if len(c.Values) == 0 {
			return c.PropertyID, "", false
		}
		return c.PropertyID, c.Values[0], true
	case IsNotEmpty:
		if template.Type == model.PropertyTypeSelect && len(template.Options) > 0 {
			return c.PropertyID, template.Options[0].ID, true
		}
		return c.PropertyID, "", false
	default:
		return c.PropertyID, "", false
	}
}
