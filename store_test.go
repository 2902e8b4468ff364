package boardkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboards/boardkit/pkg/model"
)

func TestStoreApplyAndTombstones(t *testing.T) {
	store := NewMemStore()

	store.ApplyBoard(model.Board{ID: "board-1", Title: "Roadmap"})
	store.ApplyBlock(model.Block{ID: "card-1", BoardID: "board-1", Type: model.TypeCard})

	board, ok := store.Board("board-1")
	require.True(t, ok)
	assert.Equal(t, "Roadmap", board.Title)

	// A tombstone removes the entity.
	store.ApplyBlock(model.Block{ID: "card-1", BoardID: "board-1", DeleteAt: 1})
	_, ok = store.Block("card-1")
	assert.False(t, ok)

	store.ApplyMember(model.BoardMember{BoardID: "board-1", UserID: "user-1"})
	store.ApplyBoard(model.Board{ID: "board-1", DeleteAt: 1})
	_, ok = store.Board("board-1")
	assert.False(t, ok)
	_, ok = store.Member("board-1", "user-1")
	assert.False(t, ok)
}

func TestStoreCollectionsAreTypedAndOrdered(t *testing.T) {
	store := NewMemStore()

	store.ApplyBlocks([]model.Block{
		{ID: "card-b", BoardID: "board-1", Type: model.TypeCard},
		{ID: "card-a", BoardID: "board-1", Type: model.TypeCard},
		{ID: "view-1", BoardID: "board-1", Type: model.TypeView},
		{ID: "card-z", BoardID: "board-2", Type: model.TypeCard},
		{ID: "text-1", BoardID: "board-1", ParentID: "card-a", Type: model.TypeText},
	})

	cards := store.CardsForBoard("board-1")
	require.Len(t, cards, 2)
	assert.Equal(t, "card-a", cards[0].ID)
	assert.Equal(t, "card-b", cards[1].ID)

	views := store.ViewsForBoard("board-1")
	require.Len(t, views, 1)
	assert.Equal(t, "view-1", views[0].ID)

	assert.Len(t, store.BlocksForBoard("board-1"), 4)

	children := store.BlocksWithParent("card-a")
	require.Len(t, children, 1)
	assert.Equal(t, "text-1", children[0].ID)
}

func TestStoreUsersAndMembers(t *testing.T) {
	store := NewMemStore()

	store.PutUser(model.User{ID: "user-1", Username: "alice"})
	user, ok := store.User("user-1")
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username)

	member := model.BoardMember{BoardID: "board-1", UserID: "user-1", SchemeAdmin: true}
	store.ApplyMember(member)
	got, ok := store.Member("board-1", "user-1")
	require.True(t, ok)
	assert.True(t, got.SchemeAdmin)

	store.RemoveMember(member)
	_, ok = store.Member("board-1", "user-1")
	assert.False(t, ok)
}
