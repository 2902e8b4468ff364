package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/openboards/boardkit/pkg/model"
)

// halfDay is the tolerance window applied to createdTime and updatedTime
// comparisons, in milliseconds. A day picker yields noon timestamps, so a
// card matches "is <day>" when it falls within twelve hours either side.
const halfDay = int64(12 * time.Hour / time.Millisecond)

// PropertyTitle is the pseudo property id addressing the card title.
const PropertyTitle = "title"

// DateProperty is a parsed date property value. From and To are epoch
// milliseconds; nil means unset. An empty DateProperty never matches a
// date comparison.
type DateProperty struct {
	From *int64 `json:"from,omitempty"`
	To   *int64 `json:"to,omitempty"`
}

// ParseDateProperty interprets the stored string form of a date value.
// A small numeric string is a day of the current month, a large one is an
// epoch millisecond timestamp (createdTime and updatedTime arrive this
// way), and anything else is tried as a JSON {from, to} object.
// Unparsable input yields the empty DateProperty.
func ParseDateProperty(value string) DateProperty {
	if value == "" {
		return DateProperty{}
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		var from int64
		if n >= 1 && n <= 31 {
			now := time.Now()
			day := time.Date(now.Year(), now.Month(), int(n),
				now.Hour(), now.Minute(), now.Second(), 0, time.Local)
			from = day.UnixMilli()
		} else {
			from = n
		}
		return DateProperty{From: &from}
	}

	var parsed DateProperty
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return DateProperty{}
	}

	return parsed
}

// Evaluator decides whether cards match filter trees. The zero value is
// usable and logs nowhere.
type Evaluator struct {
	log zerolog.Logger
}

// NewEvaluator returns an evaluator reporting contract violations, such
// as unknown conditions, to log.
func NewEvaluator(log zerolog.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// Apply returns the cards matching the filter tree, preserving order.
func (e *Evaluator) Apply(g *Group, templates []model.PropertyTemplate, cards []model.Block) []model.Block {
	out := make([]model.Block, 0, len(cards))
	for _, card := range cards {
		if e.GroupMet(g, templates, card) {
			out = append(out, card)
		}
	}

	return out
}

// GroupMet reports whether the card matches the group. An empty group is
// vacuously met. Evaluation short-circuits on the first decisive child.
func (e *Evaluator) GroupMet(g *Group, templates []model.PropertyTemplate, card model.Block) bool {
	if len(g.Filters) == 0 {
		return true
	}

	if g.Operation == Or {
		for _, node := range g.Filters {
			if e.nodeMet(node, templates, card) {
				return true
			}
		}
		return false
	}

	for _, node := range g.Filters {
		if !e.nodeMet(node, templates, card) {
			return false
		}
	}

	return true
}

func (e *Evaluator) nodeMet(node Node, templates []model.PropertyTemplate, card model.Block) bool {
	switch n := node.(type) {
	case *Group:
		return e.GroupMet(n, templates, card)
	case *Clause:
		return e.ClauseMet(n, templates, card)
	default:
		e.log.Error().Type("node", node).Msg("unknown filter node kind")
		return true
	}
}

// ClauseMet reports whether the card satisfies a single clause.
func (e *Evaluator) ClauseMet(c *Clause, templates []model.PropertyTemplate, card model.Block) bool {
	value := model.CardProperties(card)[c.PropertyID]
	if c.PropertyID == PropertyTitle {
		value = strings.ToLower(card.Title)
	}

	template := findTemplate(templates, c.PropertyID)

	var dateValue *DateProperty
	if template != nil && template.Type == model.PropertyTypeDate {
		parsed := ParseDateProperty(stringValue(value))
		dateValue = &parsed
	}

	// Synthetic properties have no stored value on the card.
	if !truthy(value) && template != nil {
		switch template.Type {
		case model.PropertyTypeCreatedBy:
			value = card.CreatedBy
		case model.PropertyTypeUpdatedBy:
			value = card.ModifiedBy
		case model.PropertyTypeCreatedTime:
			value = strconv.FormatInt(card.CreateAt, 10)
			parsed := ParseDateProperty(stringValue(value))
			dateValue = &parsed
		case model.PropertyTypeUpdatedTime:
			value = strconv.FormatInt(card.UpdateAt, 10)
			parsed := ParseDateProperty(stringValue(value))
			dateValue = &parsed
		}
	}

	switch c.Condition {
	case Includes:
		if len(c.Values) == 0 {
			return true
		}
		return includesMatch(c.Values, value)

	case NotIncludes:
		if len(c.Values) == 0 {
			return true
		}
		return !includesMatch(c.Values, value)

	case IsEmpty:
		return isEmptyValue(value)

	case IsNotEmpty:
		return isNotEmptyValue(value)

	case IsSet:
		return truthy(value)

	case IsNotSet:
		return !truthy(value)

	case Is:
		if len(c.Values) == 0 {
			return true
		}
		if dateValue != nil {
			target := parseMillis(c.Values[0])
			if isTimestampTemplate(template) {
				if dateValue.From == nil {
					return false
				}
				return *dateValue.From > target-halfDay && *dateValue.From < target+halfDay
			}
			if dateValue.From != nil && dateValue.To != nil {
				return *dateValue.From <= target && *dateValue.To >= target
			}
			return dateValue.From != nil && *dateValue.From == target
		}
		return strings.ToLower(c.Values[0]) == stringValue(value)

	case Contains:
		if len(c.Values) == 0 {
			return true
		}
		return containsMatch(value, strings.ToLower(c.Values[0]))

	case NotContains:
		if len(c.Values) == 0 {
			return true
		}
		return !containsMatch(value, strings.ToLower(c.Values[0]))

	case StartsWith:
		if len(c.Values) == 0 {
			return true
		}
		return strings.HasPrefix(stringValue(value), strings.ToLower(c.Values[0]))

	case NotStartsWith:
		if len(c.Values) == 0 {
			return true
		}
		return !strings.HasPrefix(stringValue(value), strings.ToLower(c.Values[0]))

	case EndsWith:
		if len(c.Values) == 0 {
			return true
		}
		return strings.HasSuffix(stringValue(value), strings.ToLower(c.Values[0]))

	case NotEndsWith:
		if len(c.Values) == 0 {
			return true
		}
		return !strings.HasSuffix(stringValue(value), strings.ToLower(c.Values[0]))

	case IsBefore:
		if len(c.Values) == 0 {
			return true
		}
		if dateValue == nil || dateValue.From == nil {
			return false
		}
		target := parseMillis(c.Values[0])
		if isTimestampTemplate(template) {
			return *dateValue.From < target-halfDay
		}
		return *dateValue.From < target

	case IsAfter:
		if len(c.Values) == 0 {
			return true
		}
		if dateValue == nil {
			return false
		}
		target := parseMillis(c.Values[0])
		if isTimestampTemplate(template) {
			if dateValue.From == nil {
				return false
			}
			return *dateValue.From > target+halfDay
		}
		if dateValue.To != nil {
			return *dateValue.To > target
		}
		return dateValue.From != nil && *dateValue.From > target

	default:
		// Fail open so a malformed stored filter never blanks the board.
		e.log.Error().
			Str("condition", string(c.Condition)).
			Str("propertyId", c.PropertyID).
			Msg("invalid filter condition")
		return true
	}
}

func findTemplate(templates []model.PropertyTemplate, id string) *model.PropertyTemplate {
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i]
		}
	}

	return nil
}

func isTimestampTemplate(t *model.PropertyTemplate) bool {
	return t != nil && (t.Type == model.PropertyTypeCreatedTime || t.Type == model.PropertyTypeUpdatedTime)
}

func parseMillis(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// includesMatch tests the filter values against a single value or, for
// multi-select properties, against the value list. The comparison is
// exact: option ids are never case-folded.
func includesMatch(filterValues []string, value any) bool {
	if items, ok := stringsValue(value); ok {
		for _, fv := range filterValues {
			for _, item := range items {
				if item == fv {
					return true
				}
			}
		}
		return false
	}

	s := stringValue(value)
	for _, fv := range filterValues {
		if fv == s {
			return true
		}
	}

	return false
}

// containsMatch is a substring test for strings and an exact membership
// test for value lists.
func containsMatch(value any, needle string) bool {
	if items, ok := stringsValue(value); ok {
		for _, item := range items {
			if item == needle {
				return true
			}
		}
		return false
	}

	return strings.Contains(stringValue(value), needle)
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringsValue(v any) ([]string, bool) {
	switch items := v.(type) {
	case []string:
		return items, true
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// truthy mirrors loose boolean conversion of property values: nil, the
// empty string, false and numeric zero are false, everything else
// (including an empty list) is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

// isEmptyValue reports emptiness by length for strings and lists. Unset
// values are empty; set values without a length are neither empty nor
// non-empty.
func isEmptyValue(v any) bool {
	if items, ok := stringsValue(v); ok {
		return len(items) == 0
	}
	if !truthy(v) {
		return true
	}
	if s, ok := v.(string); ok {
		return len(s) == 0
	}

	return false
}

func isNotEmptyValue(v any) bool {
	if items, ok := stringsValue(v); ok {
		return len(items) > 0
	}
	if s, ok := v.(string); ok {
		return len(s) > 0
	}

	return false
}
