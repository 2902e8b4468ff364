package model

// Field keys of card blocks.
const (
	FieldIcon         = "icon"
	FieldProperties   = "properties"
	FieldContentOrder = "contentOrder"
	FieldIsTemplate   = "isTemplate"
)

// NewCard returns a fully populated card block from a partial one. The
// content order is normalized: nils are dropped, nested groups (side by
// side content) are copied, and everything else is kept as a plain id.
func NewCard(b Block) Block {
	fields := b.Fields
	b.Type = TypeCard
	card := NewBlock(b)

	card.Fields = map[string]any{
		FieldIcon:         stringField(fields, FieldIcon),
		FieldProperties:   mapField(fields, FieldProperties),
		FieldContentOrder: normalizeContentOrder(fields[FieldContentOrder]),
		FieldIsTemplate:   boolField(fields, FieldIsTemplate),
	}

	return card
}

func boolField(fields map[string]any, key string) bool {
	v, _ := fields[key].(bool)
	return v
}

// CardProperties returns the card's property value map. The returned map
// aliases the block's fields; callers that mutate must work on a NewCard
// copy.
func CardProperties(card Block) map[string]any {
	props, _ := card.Fields[FieldProperties].(map[string]any)
	return props
}

// normalizeContentOrder copies a content order list. Entries are either a
// block id or a nested list of block ids representing a side-by-side
// content group.
func normalizeContentOrder(v any) []any {
	items, ok := v.([]any)
	if !ok {
		return []any{}
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		switch entry := item.(type) {
		case string:
			out = append(out, entry)
		case []string:
			out = append(out, append([]string{}, entry...))
		case []any:
			group := make([]string, 0, len(entry))
			for _, id := range entry {
				if s, ok := id.(string); ok {
					group = append(group, s)
				}
			}
			out = append(out, group)
		}
	}

	return out
}
