// The [boardkit] package is the client core for a collaborative boards
// server: the REST client, the local entity store, the update feed and
// the undoable mutation layer on top of them.
//
// # Client and Feed
//
// [Client] talks to the boards REST API. [Feed] subscribes to the
// websocket update stream and keeps a [MemStore] current, coalescing
// bursts of updates into single change notifications.
//
// # Mutations and Undo
//
// Every state-changing user action goes through [Mutator]. Each mutation
// records a forward and inverse action pair in an undo history, so
// calling [Mutator.Undo] and [Mutator.Redo] walks edits back and forth,
// including composite edits grouped with [Mutator.PerformAsUndoGroup].
// The history itself lives in [github.com/openboards/boardkit/pkg/undo].
//
// # Views
//
// Card visibility and ordering are computed client-side:
// [github.com/openboards/boardkit/pkg/filter] interprets a view's filter
// tree against card property values, and
// [github.com/openboards/boardkit/pkg/group] buckets the surviving cards
// into kanban columns.
package boardkit
