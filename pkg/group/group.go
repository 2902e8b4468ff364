// Package group partitions cards into the column groups a board view
// displays, keyed by a grouping property.
package group

import (
	"github.com/openboards/boardkit/pkg/model"
)

// Group is one displayed column: the option it represents and the cards
// that belong to it, in input order.
type Group struct {
	Option model.PropertyOption `json:"option"`
	Cards  []model.Block        `json:"cards"`
}

// Result splits groups into the visible and the hidden set.
type Result struct {
	Visible []Group
	Hidden  []Group
}

// VisibleAndHiddenGroups partitions cards by the grouping property.
//
// Person-like properties (person, createdBy, updatedBy) group by the
// resolved user id, one group per distinct id in first-seen card order;
// a group is hidden when its id appears in hiddenOptionIDs. Every other
// property groups by declared option: visible groups are the empty
// "no value" bucket (unless claimed by either id list), then
// visibleOptionIDs in order, then the remaining declared options in
// declaration order.
func VisibleAndHiddenGroups(cards []model.Block, visibleOptionIDs, hiddenOptionIDs []string, property *model.PropertyTemplate) Result {
	if property != nil && isPersonType(property.Type) {
		return personGroups(cards, property, hiddenOptionIDs)
	}

	return optionGroups(cards, visibleOptionIDs, hiddenOptionIDs, property)
}

func isPersonType(t model.PropertyType) bool {
	return t == model.PropertyTypePerson ||
		t == model.PropertyTypeCreatedBy ||
		t == model.PropertyTypeUpdatedBy
}

func personGroups(cards []model.Block, property *model.PropertyTemplate, hiddenOptionIDs []string) Result {
	byKey := map[string][]model.Block{}
	order := []string{}

	for _, card := range cards {
		var key string
		switch property.Type {
		case model.PropertyTypeCreatedBy:
			key = card.CreatedBy
		case model.PropertyTypeUpdatedBy:
			key = card.ModifiedBy
		default:
			key, _ = model.CardProperties(card)[property.ID].(string)
		}

		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], card)
	}

	result := Result{Visible: []Group{}, Hidden: []Group{}}
	for _, key := range order {
		g := Group{
			Option: model.PropertyOption{ID: key, Value: key},
			Cards:  byKey[key],
		}
		if contains(hiddenOptionIDs, key) {
			result.Hidden = append(result.Hidden, g)
		} else {
			result.Visible = append(result.Visible, g)
		}
	}

	return result
}

func optionGroups(cards []model.Block, visibleOptionIDs, hiddenOptionIDs []string, property *model.PropertyTemplate) Result {
	var unassigned []string
	if property != nil {
		for _, option := range property.Options {
			if !contains(visibleOptionIDs, option.ID) && !contains(hiddenOptionIDs, option.ID) {
				unassigned = append(unassigned, option.ID)
			}
		}
	}

	allVisible := append(append([]string{}, visibleOptionIDs...), unassigned...)
	if !contains(allVisible, "") && !contains(hiddenOptionIDs, "") {
		allVisible = append([]string{""}, allVisible...)
	}

	return Result{
		Visible: groupCardsByOptions(cards, allVisible, property),
		Hidden:  groupCardsByOptions(cards, hiddenOptionIDs, property),
	}
}

func groupCardsByOptions(cards []model.Block, optionIDs []string, property *model.PropertyTemplate) []Group {
	groups := []Group{}

	for _, optionID := range optionIDs {
		if optionID == "" {
			groups = append(groups, Group{
				Option: model.PropertyOption{ID: "", Value: noValueLabel(property)},
				Cards:  noValueCards(cards, property),
			})
			continue
		}

		// Ids of options that no longer exist produce no group at all.
		option := findOption(property, optionID)
		if option == nil {
			continue
		}

		g := Group{Option: *option, Cards: []model.Block{}}
		for _, card := range cards {
			if model.CardProperties(card)[property.ID] == optionID {
				g.Cards = append(g.Cards, card)
			}
		}
		groups = append(groups, g)
	}

	return groups
}

// noValueCards collects cards whose grouping value is unset or points at
// an option that is no longer declared.
func noValueCards(cards []model.Block, property *model.PropertyTemplate) []model.Block {
	out := []model.Block{}
	for _, card := range cards {
		var value string
		if property != nil {
			value, _ = model.CardProperties(card)[property.ID].(string)
		}
		if value == "" || findOption(property, value) == nil {
			out = append(out, card)
		}
	}

	return out
}

func noValueLabel(property *model.PropertyTemplate) string {
	name := ""
	if property != nil {
		name = property.Name
	}

	return "No " + name
}

func findOption(property *model.PropertyTemplate, id string) *model.PropertyOption {
	if property == nil {
		return nil
	}
	for i := range property.Options {
		if property.Options[i].ID == id {
			return &property.Options[i]
		}
	}

	return nil
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}

	return false
}
