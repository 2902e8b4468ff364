package filter_test

import (
	"strconv"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboards/boardkit/pkg/filter"
	"github.com/openboards/boardkit/pkg/model"
)

func testTemplates() []model.PropertyTemplate {
	return []model.PropertyTemplate{
		{
			ID:   "prop-status",
			Name: "Status",
			Type: model.PropertyTypeSelect,
			Options: []model.PropertyOption{
				{ID: "opt-open", Value: "Open"},
				{ID: "opt-done", Value: "Done"},
			},
		},
		{ID: "prop-tags", Name: "Tags", Type: model.PropertyTypeMultiSelect},
		{ID: "prop-notes", Name: "Notes", Type: model.PropertyTypeText},
		{ID: "prop-due", Name: "Due", Type: model.PropertyTypeDate},
		{ID: "prop-created", Name: "Created", Type: model.PropertyTypeCreatedTime},
		{ID: "prop-author", Name: "Author", Type: model.PropertyTypeCreatedBy},
	}
}

func testCard(props map[string]any) model.Block {
	return model.NewCard(model.Block{
		ID:        "c1",
		BoardID:   "b1",
		Title:     "Launch Checklist",
		CreatedBy: "user-1",
		Fields:    map[string]any{model.FieldProperties: props},
	})
}

func clause(propertyID string, condition filter.Condition, values ...string) *filter.Clause {
	return filter.NewClause(filter.Clause{PropertyID: propertyID, Condition: condition, Values: values})
}

func TestFromMapTaggedUnion(t *testing.T) {
	raw := map[string]any{
		"operation": "or",
		"filters": []any{
			map[string]any{"propertyId": "prop-status", "condition": "includes", "values": []any{"opt-open"}},
			map[string]any{
				"operation": "and",
				"filters": []any{
					map[string]any{"propertyId": "title", "condition": "contains", "values": []any{"launch"}},
				},
			},
		},
	}

	g, err := filter.FromMap(raw)
	require.NoError(t, err)

	assert.Equal(t, filter.Or, g.Operation)
	require.Len(t, g.Filters, 2)

	c, ok := g.Filters[0].(*filter.Clause)
	require.True(t, ok)
	assert.Equal(t, filter.Includes, c.Condition)
	assert.Equal(t, []string{"opt-open"}, c.Values)

	nested, ok := g.Filters[1].(*filter.Group)
	require.True(t, ok)
	assert.Equal(t, filter.And, nested.Operation)
	require.Len(t, nested.Filters, 1)

	// The wire shape survives a round trip.
	back, err := g.ToMap()
	require.NoError(t, err)
	wantJSON, err := json.Marshal(raw)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestFromMapNil(t *testing.T) {
	g, err := filter.FromMap(nil)
	require.NoError(t, err)
	assert.Equal(t, filter.And, g.Operation)
	assert.Empty(t, g.Filters)
}

func TestGroupMetVacuousTruth(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	card := testCard(nil)

	for _, op := range []filter.Operation{filter.And, filter.Or} {
		g := filter.NewGroup(filter.Group{Operation: op})
		assert.True(t, e.GroupMet(g, nil, card), "operation %q", op)
	}
}

func TestGroupMetShortCircuit(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	card := testCard(map[string]any{"prop-status": "opt-open"})
	templates := testTemplates()

	failing := clause("prop-status", filter.Includes, "opt-done")
	passing := clause("prop-status", filter.Includes, "opt-open")

	andGroup := filter.NewGroup(filter.Group{Operation: filter.And, Filters: []filter.Node{failing, passing}})
	assert.False(t, e.GroupMet(andGroup, templates, card))

	orGroup := filter.NewGroup(filter.Group{Operation: filter.Or, Filters: []filter.Node{passing, failing}})
	assert.True(t, e.GroupMet(orGroup, templates, card))

	nested := filter.NewGroup(filter.Group{
		Operation: filter.Or,
		Filters: []filter.Node{
			failing,
			filter.NewGroup(filter.Group{Operation: filter.And, Filters: []filter.Node{passing}}),
		},
	})
	assert.True(t, e.GroupMet(nested, templates, card))
}

func TestClauseIncludes(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	templates := testTemplates()

	card := testCard(map[string]any{
		"prop-status": "opt-open",
		"prop-tags":   []string{"tag-a", "tag-b"},
	})

	assert.True(t, e.ClauseMet(clause("prop-status", filter.Includes, "opt-open"), templates, card))
	assert.False(t, e.ClauseMet(clause("prop-status", filter.Includes, "opt-done"), templates, card))

	// Option id comparison is exact, not case-folded.
	assert.False(t, e.ClauseMet(clause("prop-status", filter.Includes, "Opt-Open"), templates, card))

	// Multi-select values match by membership.
	assert.True(t, e.ClauseMet(clause("prop-tags", filter.Includes, "tag-b"), templates, card))
	assert.False(t, e.ClauseMet(clause("prop-tags", filter.Includes, "tag-z"), templates, card))

	assert.False(t, e.ClauseMet(clause("prop-status", filter.NotIncludes, "opt-open"), templates, card))
	assert.True(t, e.ClauseMet(clause("prop-status", filter.NotIncludes, "opt-done"), templates, card))

	// No values means the clause is ignored.
	assert.True(t, e.ClauseMet(clause("prop-status", filter.Includes), templates, card))
	assert.True(t, e.ClauseMet(clause("prop-status", filter.NotIncludes), templates, card))
}

func TestClauseEmptinessAndSet(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	templates := testTemplates()

	card := testCard(map[string]any{
		"prop-status": "opt-open",
		"prop-tags":   []string{},
		"prop-notes":  "",
	})

	assert.False(t, e.ClauseMet(clause("prop-status", filter.IsEmpty), templates, card))
	assert.True(t, e.ClauseMet(clause("prop-status", filter.IsNotEmpty), templates, card))

	// An empty list is empty but still "set".
	assert.True(t, e.ClauseMet(clause("prop-tags", filter.IsEmpty), templates, card))
	assert.False(t, e.ClauseMet(clause("prop-tags", filter.IsNotEmpty), templates, card))
	assert.True(t, e.ClauseMet(clause("prop-tags", filter.IsSet), templates, card))

	assert.True(t, e.ClauseMet(clause("prop-notes", filter.IsEmpty), templates, card))
	assert.False(t, e.ClauseMet(clause("prop-notes", filter.IsSet), templates, card))
	assert.True(t, e.ClauseMet(clause("prop-notes", filter.IsNotSet), templates, card))

	// A property that was never written behaves like an empty one.
	assert.True(t, e.ClauseMet(clause("prop-missing", filter.IsEmpty), templates, card))
	assert.False(t, e.ClauseMet(clause("prop-missing", filter.IsNotEmpty), templates, card))
}

func TestClauseTitleConditions(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	card := testCard(nil) // title "Launch Checklist"

	assert.True(t, e.ClauseMet(clause("title", filter.Is, "Launch Checklist"), nil, card))
	assert.True(t, e.ClauseMet(clause("title", filter.Contains, "CHECK"), nil, card))
	assert.False(t, e.ClauseMet(clause("title", filter.NotContains, "check"), nil, card))
	assert.True(t, e.ClauseMet(clause("title", filter.StartsWith, "Launch"), nil, card))
	assert.False(t, e.ClauseMet(clause("title", filter.NotStartsWith, "launch"), nil, card))
	assert.True(t, e.ClauseMet(clause("title", filter.EndsWith, "list"), nil, card))
	assert.True(t, e.ClauseMet(clause("title", filter.NotEndsWith, "launch"), nil, card))

	// No values means vacuously met.
	assert.True(t, e.ClauseMet(clause("title", filter.Contains), nil, card))
}

func TestClauseCreatedByFallback(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	templates := testTemplates()
	card := testCard(nil)

	assert.True(t, e.ClauseMet(clause("prop-author", filter.Includes, "user-1"), templates, card))
	assert.False(t, e.ClauseMet(clause("prop-author", filter.Includes, "user-2"), templates, card))
}

func TestClauseCreatedTimeHalfDayWindow(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	templates := testTemplates()

	const halfDay = int64(12 * 60 * 60 * 1000)
	const noon = int64(1756728000000)

	card := testCard(nil)
	card.CreateAt = noon

	is := func(v int64) bool {
		return e.ClauseMet(clause("prop-created", filter.Is, strconv.FormatInt(v, 10)), templates, card)
	}
	before := func(v int64) bool {
		return e.ClauseMet(clause("prop-created", filter.IsBefore, strconv.FormatInt(v, 10)), templates, card)
	}
	after := func(v int64) bool {
		return e.ClauseMet(clause("prop-created", filter.IsAfter, strconv.FormatInt(v, 10)), templates, card)
	}

	assert.True(t, is(noon))
	assert.True(t, is(noon+halfDay-1))
	assert.True(t, is(noon-halfDay+1))
	// Window boundaries are exclusive.
	assert.False(t, is(noon+halfDay))
	assert.False(t, is(noon-halfDay))

	assert.True(t, before(noon+halfDay+1))
	assert.False(t, before(noon+halfDay))
	assert.False(t, before(noon))

	assert.True(t, after(noon-halfDay-1))
	assert.False(t, after(noon-halfDay))
	assert.False(t, after(noon))
}

func TestClauseDateRange(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	templates := testTemplates()

	const day = int64(24 * 60 * 60 * 1000)
	from := int64(1756728000000)
	to := from + 7*day

	card := testCard(map[string]any{
		"prop-due": `{"from":` + strconv.FormatInt(from, 10) + `,"to":` + strconv.FormatInt(to, 10) + `}`,
	})

	is := func(v int64) bool {
		return e.ClauseMet(clause("prop-due", filter.Is, strconv.FormatInt(v, 10)), templates, card)
	}

	// Range test is inclusive at both ends.
	assert.True(t, is(from))
	assert.True(t, is(to))
	assert.True(t, is(from+day))
	assert.False(t, is(from-1))
	assert.False(t, is(to+1))

	assert.True(t, e.ClauseMet(clause("prop-due", filter.IsAfter, strconv.FormatInt(to-1, 10)), templates, card))
	assert.False(t, e.ClauseMet(clause("prop-due", filter.IsAfter, strconv.FormatInt(to, 10)), templates, card))
	assert.True(t, e.ClauseMet(clause("prop-due", filter.IsBefore, strconv.FormatInt(from+1, 10)), templates, card))
	assert.False(t, e.ClauseMet(clause("prop-due", filter.IsBefore, strconv.FormatInt(from, 10)), templates, card))

	// A card with no date value never matches date comparisons.
	blank := testCard(nil)
	assert.False(t, e.ClauseMet(clause("prop-due", filter.Is, "12345"), templates, blank))
	assert.False(t, e.ClauseMet(clause("prop-due", filter.IsBefore, "12345"), templates, blank))
	assert.False(t, e.ClauseMet(clause("prop-due", filter.IsAfter, "12345"), templates, blank))
}

func TestClauseUnknownConditionFailsOpen(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	card := testCard(nil)

	assert.True(t, e.ClauseMet(clause("prop-status", "sometimes"), testTemplates(), card))
}

func TestParseDateProperty(t *testing.T) {
	empty := filter.ParseDateProperty("")
	assert.Nil(t, empty.From)
	assert.Nil(t, empty.To)

	garbage := filter.ParseDateProperty("not a date")
	assert.Nil(t, garbage.From)

	ts := filter.ParseDateProperty("1756728000000")
	require.NotNil(t, ts.From)
	assert.EqualValues(t, 1756728000000, *ts.From)
	assert.Nil(t, ts.To)

	ranged := filter.ParseDateProperty(`{"from":100,"to":200}`)
	require.NotNil(t, ranged.From)
	require.NotNil(t, ranged.To)
	assert.EqualValues(t, 100, *ranged.From)
	assert.EqualValues(t, 200, *ranged.To)

	// A small number is a day of the current month.
	dayOfMonth := filter.ParseDateProperty("15")
	require.NotNil(t, dayOfMonth.From)
	assert.Greater(t, *dayOfMonth.From, int64(0))
}

func TestApplyKeepsOrder(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	templates := testTemplates()

	open1 := testCard(map[string]any{"prop-status": "opt-open"})
	open1.ID = "c-open-1"
	done := testCard(map[string]any{"prop-status": "opt-done"})
	done.ID = "c-done"
	open2 := testCard(map[string]any{"prop-status": "opt-open"})
	open2.ID = "c-open-2"

	g := filter.NewGroup(filter.Group{Filters: []filter.Node{
		clause("prop-status", filter.Includes, "opt-open"),
	}})

	matched := e.Apply(g, templates, []model.Block{open1, done, open2})
	require.Len(t, matched, 2)
	assert.Equal(t, "c-open-1", matched[0].ID)
	assert.Equal(t, "c-open-2", matched[1].ID)
}

func TestPropertiesThatMeetGroup(t *testing.T) {
	e := filter.NewEvaluator(zerolog.Nop())
	templates := testTemplates()

	andGroup := filter.NewGroup(filter.Group{Operation: filter.And, Filters: []filter.Node{
		clause("prop-status", filter.Includes, "opt-done"),
		clause("prop-notes", filter.IsEmpty),
		clause("prop-author", filter.Includes, "user-1"),
	}})
	got := e.PropertiesThatMeetGroup(andGroup, templates)
	assert.Equal(t, map[string]string{"prop-status": "opt-done"}, got)

	orGroup := filter.NewGroup(filter.Group{Operation: filter.Or, Filters: []filter.Node{
		clause("prop-status", filter.IsNotEmpty),
		clause("prop-notes", filter.Includes, "whatever"),
	}})
	got = e.PropertiesThatMeetGroup(orGroup, templates)
	assert.Equal(t, map[string]string{"prop-status": "opt-open"}, got)

	assert.Empty(t, e.PropertiesThatMeetGroup(nil, templates))
	assert.Empty(t, e.PropertiesThatMeetGroup(filter.NewGroup(filter.Group{}), templates))
}
