package model

import (
	"sort"
	"strings"
	"unicode"
)

// ViewType selects how a board view renders its cards.
type ViewType string

const (
	ViewTypeBoard    ViewType = "board"
	ViewTypeTable    ViewType = "table"
	ViewTypeGallery  ViewType = "gallery"
	ViewTypeCalendar ViewType = "calendar"
)

// Field keys of view blocks. Views are blocks with Type == TypeView and
// these keys in Fields.
const (
	FieldViewType              = "viewType"
	FieldGroupByID             = "groupById"
	FieldDateDisplayPropertyID = "dateDisplayPropertyId"
	FieldSortOptions           = "sortOptions"
	FieldVisiblePropertyIDs    = "visiblePropertyIds"
	FieldVisibleOptionIDs      = "visibleOptionIds"
	FieldHiddenOptionIDs       = "hiddenOptionIds"
	FieldCollapsedOptionIDs    = "collapsedOptionIds"
	FieldFilter                = "filter"
	FieldCardOrder             = "cardOrder"
	FieldColumnWidths          = "columnWidths"
	FieldColumnCalculations    = "columnCalculations"
	FieldKanbanCalculations    = "kanbanCalculations"
	FieldDefaultTemplateID     = "defaultTemplateId"
)

// SortOption is one entry of a view's sort order.
type SortOption struct {
	PropertyID string `json:"propertyId"`
	Reversed   bool   `json:"reversed"`
}

// NewBoardView returns a fully populated view block from a partial one.
// Every list- or map-valued field is copied and normalized so the result
// never aliases the input block's fields.
func NewBoardView(b Block) Block {
	fields := b.Fields
	b.Type = TypeView
	view := NewBlock(b)

	viewType, _ := fields[FieldViewType].(string)
	if viewType == "" {
		viewType = string(ViewTypeBoard)
	}

	view.Fields = map[string]any{
		FieldViewType:              viewType,
		FieldGroupByID:             stringField(fields, FieldGroupByID),
		FieldDateDisplayPropertyID: stringField(fields, FieldDateDisplayPropertyID),
		FieldSortOptions:           sortOptionsField(fields),
		FieldVisiblePropertyIDs:    StringsField(fields, FieldVisiblePropertyIDs),
		FieldVisibleOptionIDs:      StringsField(fields, FieldVisibleOptionIDs),
		FieldHiddenOptionIDs:       StringsField(fields, FieldHiddenOptionIDs),
		FieldCollapsedOptionIDs:    StringsField(fields, FieldCollapsedOptionIDs),
		FieldFilter:                filterField(fields),
		FieldCardOrder:             StringsField(fields, FieldCardOrder),
		FieldColumnWidths:          mapField(fields, FieldColumnWidths),
		FieldColumnCalculations:    mapField(fields, FieldColumnCalculations),
		FieldKanbanCalculations:    mapField(fields, FieldKanbanCalculations),
		FieldDefaultTemplateID:     stringField(fields, FieldDefaultTemplateID),
	}

	return view
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// StringsField returns a copied []string for a field that may arrive as
// []string or, after JSON decoding, as []any.
func StringsField(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func mapField(fields map[string]any, key string) map[string]any {
	m, _ := fields[key].(map[string]any)
	return copyFields(m)
}

func sortOptionsField(fields map[string]any) []SortOption {
	switch v := fields[FieldSortOptions].(type) {
	case []SortOption:
		return append([]SortOption{}, v...)
	case []any:
		out := make([]SortOption, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			propertyID, _ := m["propertyId"].(string)
			reversed, _ := m["reversed"].(bool)
			out = append(out, SortOption{PropertyID: propertyID, Reversed: reversed})
		}
		return out
	default:
		return []SortOption{}
	}
}

// filterField keeps the filter as raw wire data. The filter package owns
// parsing it into a typed tree.
func filterField(fields map[string]any) map[string]any {
	f, ok := fields[FieldFilter].(map[string]any)
	if !ok {
		return map[string]any{"operation": "and", "filters": []any{}}
	}

	return copyFields(f)
}

// SortBoardViewsAlphabetically orders views by title, ignoring a leading
// emoji so "🚚 Orders" sorts under O. Returns a new slice.
func SortBoardViewsAlphabetically(views []Block) []Block {
	type titled struct {
		view  Block
		title string
	}

	stripped := make([]titled, 0, len(views))
	for _, v := range views {
		stripped = append(stripped, titled{view: v, title: stripLeadingEmoji(v.Title)})
	}
	sort.SliceStable(stripped, func(i, j int) bool {
		return stripped[i].title < stripped[j].title
	})

	out := make([]Block, 0, len(stripped))
	for _, t := range stripped {
		out = append(out, t.view)
	}

	return out
}

func stripLeadingEmoji(title string) string {
	runes := []rune(title)
	i := 0
	for i < len(runes) && isEmojiRune(runes[i]) {
		i++
	}

	return strings.TrimLeft(string(runes[i:]), " ")
}

func isEmojiRune(r rune) bool {
	if unicode.Is(unicode.So, r) || unicode.Is(unicode.Sk, r) {
		return true
	}
	// Variation selectors and zero-width joiner glue emoji sequences.
	return r == 0xFE0F || r == 0x200D || (r >= 0x1F000 && r <= 0x1FAFF)
}
