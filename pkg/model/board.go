package model

import (
	"sort"
	"time"
)

// BoardType controls who can find a board.
type BoardType string

const (
	BoardTypeOpen    BoardType = "O"
	BoardTypePrivate BoardType = "P"
)

// BoardRole is the minimum role required to access a board.
type BoardRole string

const (
	BoardRoleNone      BoardRole = ""
	BoardRoleViewer    BoardRole = "viewer"
	BoardRoleCommenter BoardRole = "commenter"
	BoardRoleEditor    BoardRole = "editor"
	BoardRoleAdmin     BoardRole = "admin"
)

// PropertyType is the value type of a card property column.
type PropertyType string

const (
	PropertyTypeText        PropertyType = "text"
	PropertyTypeNumber      PropertyType = "number"
	PropertyTypeSelect      PropertyType = "select"
	PropertyTypeMultiSelect PropertyType = "multiSelect"
	PropertyTypeDate        PropertyType = "date"
	PropertyTypePerson      PropertyType = "person"
	PropertyTypeMultiPerson PropertyType = "multiPerson"
	PropertyTypeFile        PropertyType = "file"
	PropertyTypeCheckbox    PropertyType = "checkbox"
	PropertyTypeURL         PropertyType = "url"
	PropertyTypeEmail       PropertyType = "email"
	PropertyTypePhone       PropertyType = "phone"
	PropertyTypeCreatedTime PropertyType = "createdTime"
	PropertyTypeCreatedBy   PropertyType = "createdBy"
	PropertyTypeUpdatedTime PropertyType = "updatedTime"
	PropertyTypeUpdatedBy   PropertyType = "updatedBy"
	PropertyTypeUnknown     PropertyType = "unknown"
)

// PropertyOption is one enumerated value of a select-like property.
type PropertyOption struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Color string `json:"color"`
}

// PropertyTemplate is a user-defined typed column definition for cards.
// Identity is by ID.
type PropertyTemplate struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Type    PropertyType     `json:"type"`
	Options []PropertyOption `json:"options"`
}

func (p PropertyTemplate) clone() PropertyTemplate {
	p.Options = append([]PropertyOption{}, p.Options...)
	return p
}

// Board is the top-level container of blocks.
type Board struct {
	ID              string             `json:"id"`
	TeamID          string             `json:"teamId"`
	ChannelID       string             `json:"channelId"`
	CreatedBy       string             `json:"createdBy"`
	ModifiedBy      string             `json:"modifiedBy"`
	Type            BoardType          `json:"type"`
	MinimumRole     BoardRole          `json:"minimumRole"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Icon            string             `json:"icon"`
	ShowDescription bool               `json:"showDescription"`
	IsTemplate      bool               `json:"isTemplate"`
	TemplateVersion int                `json:"templateVersion"`
	Properties      map[string]any     `json:"properties"`
	CardProperties  []PropertyTemplate `json:"cardProperties"`
	CreateAt        int64              `json:"createAt"`
	UpdateAt        int64              `json:"updateAt"`
	DeleteAt        int64              `json:"deleteAt"`
}

// NewBoard returns a fully populated board from a partial one. A board
// created without card properties always gets a "Status" select property,
// so freshly created boards are usable for kanban grouping immediately.
func NewBoard(b Board) Board {
	now := time.Now().UnixMilli()

	if b.ID == "" {
		b.ID = NewID(IDTypeBoard)
	}
	if b.Type == "" {
		b.Type = BoardTypePrivate
	}
	if b.Properties == nil {
		b.Properties = map[string]any{}
	} else {
		b.Properties = copyFields(b.Properties)
	}

	if len(b.CardProperties) == 0 {
		b.CardProperties = []PropertyTemplate{{
			ID:      NewID(IDTypeBlock),
			Name:    "Status",
			Type:    PropertyTypeSelect,
			Options: []PropertyOption{},
		}}
	} else {
		props := make([]PropertyTemplate, 0, len(b.CardProperties))
		for _, p := range b.CardProperties {
			props = append(props, p.clone())
		}
		b.CardProperties = props
	}

	if b.CreateAt == 0 {
		b.CreateAt = now
	}
	if b.UpdateAt == 0 {
		b.UpdateAt = now
	}

	return b
}

// BoardPatch is a partial update for a board. Applying it sets every
// non-nil scalar and every key in UpdatedProperties, removes every key in
// DeletedProperties, replaces every template named in
// UpdatedCardProperties and drops every id in DeletedCardProperties.
type BoardPatch struct {
	Type                  *BoardType         `json:"type,omitempty"`
	MinimumRole           *BoardRole         `json:"minimumRole,omitempty"`
	ChannelID             *string            `json:"channelId,omitempty"`
	Title                 *string            `json:"title,omitempty"`
	Description           *string            `json:"description,omitempty"`
	Icon                  *string            `json:"icon,omitempty"`
	ShowDescription       *bool              `json:"showDescription,omitempty"`
	UpdatedProperties     map[string]any     `json:"updatedProperties,omitempty"`
	DeletedProperties     []string           `json:"deletedProperties,omitempty"`
	UpdatedCardProperties []PropertyTemplate `json:"updatedCardProperties,omitempty"`
	DeletedCardProperties []string           `json:"deletedCardProperties,omitempty"`
}

// Apply merges the patch into a copy of the board and returns it.
// Updated card properties keep their position when the id already exists
// and are appended otherwise.
func (p *BoardPatch) Apply(b Board) Board {
	if p.Type != nil {
		b.Type = *p.Type
	}
	if p.MinimumRole != nil {
		b.MinimumRole = *p.MinimumRole
	}
	if p.ChannelID != nil {
		b.ChannelID = *p.ChannelID
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Icon != nil {
		b.Icon = *p.Icon
	}
	if p.ShowDescription != nil {
		b.ShowDescription = *p.ShowDescription
	}

	props := copyFields(b.Properties)
	for k, v := range p.UpdatedProperties {
		props[k] = v
	}
	for _, k := range p.DeletedProperties {
		delete(props, k)
	}
	b.Properties = props

	cardProps := make([]PropertyTemplate, 0, len(b.CardProperties))
	for _, t := range b.CardProperties {
		cardProps = append(cardProps, t.clone())
	}
	for _, updated := range p.UpdatedCardProperties {
		replaced := false
		for i, existing := range cardProps {
			if existing.ID == updated.ID {
				cardProps[i] = updated.clone()
				replaced = true
				break
			}
		}
		if !replaced {
			cardProps = append(cardProps, updated.clone())
		}
	}
	for _, id := range p.DeletedCardProperties {
		for i, existing := range cardProps {
			if existing.ID == id {
				cardProps = append(cardProps[:i], cardProps[i+1:]...)
				break
			}
		}
	}
	b.CardProperties = cardProps

	return b
}

// PropertyEqual reports whether two property templates are equal for
// patch purposes: same scalar fields, same option count, and for every
// option in a an option in b with the same id and identical scalars.
// Option order is deliberately not compared, so reordering options
// without changing them produces no patch.
func PropertyEqual(a, b PropertyTemplate) bool {
	if a.ID != b.ID || a.Name != b.Name || a.Type != b.Type {
		return false
	}
	if len(a.Options) != len(b.Options) {
		return false
	}

	for _, opt := range a.Options {
		var match *PropertyOption
		for i := range b.Options {
			if b.Options[i].ID == opt.ID {
				match = &b.Options[i]
				break
			}
		}
		if match == nil || *match != opt {
			return false
		}
	}

	return true
}

func propertyIDsMissingFrom(from, in []PropertyTemplate) []string {
	var missing []string
	for _, p := range from {
		if findProperty(in, p.ID) == nil {
			missing = append(missing, p.ID)
		}
	}

	return missing
}

func findProperty(props []PropertyTemplate, id string) *PropertyTemplate {
	for i := range props {
		if props[i].ID == id {
			return &props[i]
		}
	}

	return nil
}

// CardPropertiesPatches diffs two card property lists into a forward and
// an inverse patch carrying only the card property portions.
func CardPropertiesPatches(newProps, oldProps []PropertyTemplate) (forward, inverse *BoardPatch) {
	forward = &BoardPatch{
		DeletedCardProperties: propertyIDsMissingFrom(oldProps, newProps),
	}
	inverse = &BoardPatch{
		DeletedCardProperties: propertyIDsMissingFrom(newProps, oldProps),
	}

	for _, p := range newProps {
		old := findProperty(oldProps, p.ID)
		if old == nil || !PropertyEqual(p, *old) {
			forward.UpdatedCardProperties = append(forward.UpdatedCardProperties, p.clone())
		}
	}
	for _, p := range oldProps {
		updated := findProperty(newProps, p.ID)
		if updated == nil || !PropertyEqual(p, *updated) {
			inverse.UpdatedCardProperties = append(inverse.UpdatedCardProperties, p.clone())
		}
	}

	return forward, inverse
}

// DiffBoards computes the forward patch that turns oldBoard into newBoard
// and the inverse patch that restores oldBoard again.
func DiffBoards(newBoard, oldBoard Board) (forward, inverse *BoardPatch) {
	forward = &BoardPatch{UpdatedProperties: map[string]any{}}
	inverse = &BoardPatch{UpdatedProperties: map[string]any{}}

	if newBoard.Type != oldBoard.Type {
		forward.Type = &newBoard.Type
		inverse.Type = &oldBoard.Type
	}
	if newBoard.MinimumRole != oldBoard.MinimumRole {
		forward.MinimumRole = &newBoard.MinimumRole
		inverse.MinimumRole = &oldBoard.MinimumRole
	}
	if newBoard.ChannelID != oldBoard.ChannelID {
		forward.ChannelID = &newBoard.ChannelID
		inverse.ChannelID = &oldBoard.ChannelID
	}
	if newBoard.Title != oldBoard.Title {
		forward.Title = &newBoard.Title
		inverse.Title = &oldBoard.Title
	}
	if newBoard.Description != oldBoard.Description {
		forward.Description = &newBoard.Description
		inverse.Description = &oldBoard.Description
	}
	if newBoard.Icon != oldBoard.Icon {
		forward.Icon = &newBoard.Icon
		inverse.Icon = &oldBoard.Icon
	}
	if newBoard.ShowDescription != oldBoard.ShowDescription {
		forward.ShowDescription = &newBoard.ShowDescription
		inverse.ShowDescription = &oldBoard.ShowDescription
	}

	for k, v := range newBoard.Properties {
		old, ok := oldBoard.Properties[k]
		if !ok {
			forward.UpdatedProperties[k] = v
			inverse.DeletedProperties = append(inverse.DeletedProperties, k)
			continue
		}
		if !valueEqual(old, v) {
			forward.UpdatedProperties[k] = v
			inverse.UpdatedProperties[k] = old
		}
	}
	for k, v := range oldBoard.Properties {
		if _, ok := newBoard.Properties[k]; !ok {
			forward.DeletedProperties = append(forward.DeletedProperties, k)
			inverse.UpdatedProperties[k] = v
		}
	}

	sort.Strings(forward.DeletedProperties)
	sort.Strings(inverse.DeletedProperties)

	cardForward, cardInverse := CardPropertiesPatches(newBoard.CardProperties, oldBoard.CardProperties)
	forward.UpdatedCardProperties = cardForward.UpdatedCardProperties
	forward.DeletedCardProperties = cardForward.DeletedCardProperties
	inverse.UpdatedCardProperties = cardInverse.UpdatedCardProperties
	inverse.DeletedCardProperties = cardInverse.DeletedCardProperties

	return forward, inverse
}
