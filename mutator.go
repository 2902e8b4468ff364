package boardkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/openboards/boardkit/pkg/filter"
	"github.com/openboards/boardkit/pkg/model"
	"github.com/openboards/boardkit/pkg/undo"
)

// Hooks carry caller-supplied side effects executed inside a recorded
// operation: AfterRedo after the forward action succeeds, BeforeUndo
// before the inverse action runs. Both receive the operation's threaded
// value.
type Hooks struct {
	AfterRedo  func(ctx context.Context, value any) error
	BeforeUndo func(ctx context.Context, value any) error
}

func (h Hooks) afterRedo(ctx context.Context, value any) error {
	if h.AfterRedo == nil {
		return nil
	}
	return h.AfterRedo(ctx, value)
}

func (h Hooks) beforeUndo(ctx context.Context, value any) error {
	if h.BeforeUndo == nil {
		return nil
	}
	return h.BeforeUndo(ctx, value)
}

// Mutator is the facade every state-changing user action flows through.
// Each method snapshots before/after state, builds a forward and inverse
// action pair, and records it in the undo history while executing the
// forward action.
//
// Mutator methods do not write to the store except where noted (board
// membership keeps a local users cache current).
type Mutator struct {
	client  RemoteClient
	store   *MemStore
	history *undo.Manager
	log     zerolog.Logger

	groupMu sync.Mutex
	groupID string
}

// NewMutator wires a mutator to its collaborators. The store may be nil
// when the caller manages entities itself.
func NewMutator(client RemoteClient, store *MemStore, history *undo.Manager, log zerolog.Logger) *Mutator {
	return &Mutator{
		client:  client,
		store:   store,
		history: history,
		log:     log,
	}
}

// History exposes the undo manager for cursor queries and undo/redo.
func (m *Mutator) History() *undo.Manager {
	return m.history
}

// Undo reverts the latest recorded operation or group.
func (m *Mutator) Undo(ctx context.Context) error {
	return m.history.Undo(ctx)
}

// Redo re-executes the most recently undone operation or group.
func (m *Mutator) Redo(ctx context.Context) error {
	return m.history.Redo(ctx)
}

// CanUndo reports whether an operation is available to undo.
func (m *Mutator) CanUndo() bool {
	return m.history.CanUndo()
}

// CanRedo reports whether an undone operation is available to redo.
func (m *Mutator) CanRedo() bool {
	return m.history.CanRedo()
}

// UndoDescription names the operation Undo would revert.
func (m *Mutator) UndoDescription() (string, bool) {
	return m.history.UndoDescription()
}

// RedoDescription names the operation Redo would re-execute.
func (m *Mutator) RedoDescription() (string, bool) {
	return m.history.RedoDescription()
}

func (m *Mutator) startUndoGroup() string {
	m.groupMu.Lock()
	defer m.groupMu.Unlock()

	if m.groupID != "" {
		m.log.Error().Msg("undo history does not support nested groups")
		return ""
	}
	m.groupID = uuid.NewString()

	return m.groupID
}

func (m *Mutator) endUndoGroup(groupID string) {
	m.groupMu.Lock()
	defer m.groupMu.Unlock()

	if m.groupID != groupID {
		m.log.Error().Msg("mismatched groupId, undo history does not support nested groups")
		return
	}
	m.groupID = ""
}

func (m *Mutator) currentGroupID() string {
	m.groupMu.Lock()
	defer m.groupMu.Unlock()

	return m.groupID
}

// PerformAsUndoGroup runs actions with every recorded operation tagged by
// one shared group id, so the whole batch undoes as a single step. Errors
// from actions are logged, not returned: a partial failure mid-group must
// never leave the group marker open.
func (m *Mutator) PerformAsUndoGroup(ctx context.Context, actions func(ctx context.Context) error) {
	groupID := m.startUndoGroup()

	if err := actions(ctx); err != nil {
		m.log.Error().Err(err).Msg("undo group action failed")
	}

	if groupID != "" {
		m.endUndoGroup(groupID)
	}
}

func (m *Mutator) perform(ctx context.Context, redo undo.RedoFunc, undoFn undo.UndoFunc, description string) (any, error) {
	return m.history.Perform(ctx, undo.NewCommand(redo, undoFn), description, m.currentGroupID())
}

// UpdateBlock records and applies the diff between two snapshots of one
// block.
func (m *Mutator) UpdateBlock(ctx context.Context, boardID string, newBlock, oldBlock model.Block, description string) error {
	updatePatch, undoPatch := model.DiffBlocks(newBlock, oldBlock)

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBlock(ctx, boardID, newBlock.ID, updatePatch)
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBlock(ctx, boardID, oldBlock.ID, undoPatch)
		},
		description)

	return err
}

// UpdateBlocks records pairwise diffs of many blocks as one operation.
// The patches are sent concurrently; the batch fails as a whole if any
// single patch fails, though already-dispatched patches are not rolled
// back.
func (m *Mutator) UpdateBlocks(ctx context.Context, boardID string, newBlocks, oldBlocks []model.Block, description string) error {
	if len(newBlocks) != len(oldBlocks) {
		return fmt.Errorf("%w: new=%d old=%d", model.ErrLengthMismatch, len(newBlocks), len(oldBlocks))
	}

	updatePatches := make([]*model.BlockPatch, 0, len(newBlocks))
	undoPatches := make([]*model.BlockPatch, 0, len(newBlocks))
	for i := range newBlocks {
		updatePatch, undoPatch := model.DiffBlocks(newBlocks[i], oldBlocks[i])
		updatePatches = append(updatePatches, updatePatch)
		undoPatches = append(undoPatches, undoPatch)
	}

	patchAll := func(ctx context.Context, patches []*model.BlockPatch) error {
		g, ctx := errgroup.WithContext(ctx)
		for i, patch := range patches {
			blockID := newBlocks[i].ID
			patch := patch
			g.Go(func() error {
				return m.client.PatchBlock(ctx, boardID, blockID, patch)
			})
		}
		return g.Wait()
	}

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, patchAll(ctx, updatePatches)
		},
		func(ctx context.Context, value any) error {
			return patchAll(ctx, undoPatches)
		},
		description)

	return err
}

// InsertBlock creates a block and records its deletion as the inverse.
// The returned block carries the server-assigned fields, and the inverse
// deletes by that id, never the client-side guess.
func (m *Mutator) InsertBlock(ctx context.Context, boardID string, block model.Block, description string, hooks Hooks) (model.Block, error) {
	value, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			created, err := m.client.InsertBlock(ctx, boardID, block)
			if err != nil {
				return nil, err
			}
			if len(created) == 0 {
				return nil, fmt.Errorf("insert block: empty response for board %s", boardID)
			}
			if m.store != nil {
				m.store.ApplyBlocks(created)
			}
			if err := hooks.afterRedo(ctx, created[0]); err != nil {
				return nil, err
			}
			return created[0], nil
		},
		func(ctx context.Context, value any) error {
			created, ok := value.(model.Block)
			if !ok {
				return fmt.Errorf("insert block undo: unexpected value %T", value)
			}
			if err := hooks.beforeUndo(ctx, created); err != nil {
				return err
			}
			return m.client.DeleteBlock(ctx, boardID, created.ID)
		},
		description)
	if err != nil {
		return model.Block{}, err
	}

	return value.(model.Block), nil
}

// InsertBlocks creates many blocks as one operation; the inverse deletes
// all created blocks concurrently.
func (m *Mutator) InsertBlocks(ctx context.Context, boardID string, blocks []model.Block, sourceBoardID, description string, hooks Hooks) ([]model.Block, error) {
	value, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			created, err := m.client.InsertBlocks(ctx, boardID, blocks, sourceBoardID)
			if err != nil {
				return nil, err
			}
			if m.store != nil {
				m.store.ApplyBlocks(created)
			}
			if err := hooks.afterRedo(ctx, created); err != nil {
				return nil, err
			}
			return created, nil
		},
		func(ctx context.Context, value any) error {
			created, ok := value.([]model.Block)
			if !ok {
				return fmt.Errorf("insert blocks undo: unexpected value %T", value)
			}
			if err := hooks.beforeUndo(ctx, created); err != nil {
				return err
			}
			g, ctx := errgroup.WithContext(ctx)
			for _, block := range created {
				blockID := block.ID
				g.Go(func() error {
					return m.client.DeleteBlock(ctx, boardID, blockID)
				})
			}
			return g.Wait()
		},
		description)
	if err != nil {
		return nil, err
	}

	return value.([]model.Block), nil
}

// DeleteBlock soft-deletes a block; the inverse undeletes it.
func (m *Mutator) DeleteBlock(ctx context.Context, block model.Block, description string, hooks Hooks) error {
	if description == "" {
		description = "delete " + string(block.Type)
	}

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			if err := m.client.DeleteBlock(ctx, block.BoardID, block.ID); err != nil {
				return nil, err
			}
			return nil, hooks.afterRedo(ctx, block)
		},
		func(ctx context.Context, value any) error {
			if err := hooks.beforeUndo(ctx, block); err != nil {
				return err
			}
			return m.client.UndeleteBlock(ctx, block.BoardID, block.ID)
		},
		description)

	return err
}

// UpdateBoard records and applies the diff between two snapshots of one
// board.
func (m *Mutator) UpdateBoard(ctx context.Context, newBoard, oldBoard model.Board, description string) error {
	updatePatch, undoPatch := model.DiffBoards(newBoard, oldBoard)

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBoard(ctx, newBoard.ID, updatePatch)
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBoard(ctx, oldBoard.ID, undoPatch)
		},
		description)

	return err
}

// DeleteBoard soft-deletes a board; the inverse undeletes it.
func (m *Mutator) DeleteBoard(ctx context.Context, board model.Board, description string, hooks Hooks) error {
	if description == "" {
		description = "delete board"
	}

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			if err := m.client.DeleteBoard(ctx, board.ID); err != nil {
				return nil, err
			}
			return nil, hooks.afterRedo(ctx, board)
		},
		func(ctx context.Context, value any) error {
			if err := hooks.beforeUndo(ctx, board); err != nil {
				return err
			}
			return m.client.UndeleteBoard(ctx, board.ID)
		},
		description)

	return err
}

// CreateBoardsAndBlocks atomically creates a board bundle; the inverse
// deletes every created board and block by server-assigned id.
func (m *Mutator) CreateBoardsAndBlocks(ctx context.Context, bab model.BoardsAndBlocks, description string, hooks Hooks) (*model.BoardsAndBlocks, error) {
	if description == "" {
		description = "add"
	}

	value, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			created, err := m.client.CreateBoardsAndBlocks(ctx, bab)
			if err != nil {
				return nil, err
			}
			if m.store != nil {
				for _, board := range created.Boards {
					m.store.ApplyBoard(board)
				}
				m.store.ApplyBlocks(created.Blocks)
			}
			if err := hooks.afterRedo(ctx, created); err != nil {
				return nil, err
			}
			return created, nil
		},
		func(ctx context.Context, value any) error {
			created, ok := value.(*model.BoardsAndBlocks)
			if !ok {
				return fmt.Errorf("create boards and blocks undo: unexpected value %T", value)
			}
			if err := hooks.beforeUndo(ctx, created); err != nil {
				return err
			}
			boardIDs := make([]string, 0, len(created.Boards))
			for _, board := range created.Boards {
				boardIDs = append(boardIDs, board.ID)
			}
			blockIDs := make([]string, 0, len(created.Blocks))
			for _, block := range created.Blocks {
				blockIDs = append(blockIDs, block.ID)
			}
			return m.client.DeleteBoardsAndBlocks(ctx, boardIDs, blockIDs)
		},
		description)
	if err != nil {
		return nil, err
	}

	return value.(*model.BoardsAndBlocks), nil
}

// AddEmptyBoard creates a board with one default board view, returning
// the created bundle.
func (m *Mutator) AddEmptyBoard(ctx context.Context, teamID string, hooks Hooks) (*model.BoardsAndBlocks, error) {
	board := model.NewBoard(model.Board{TeamID: teamID})

	view := model.NewBoardView(model.Block{
		BoardID:  board.ID,
		ParentID: board.ID,
		Title:    "Board view",
	})

	return m.CreateBoardsAndBlocks(ctx, model.BoardsAndBlocks{
		Boards: []model.Board{board},
		Blocks: []model.Block{view},
	}, "add board", hooks)
}

// AddEmptyBoardTemplate creates a board template with one default view.
func (m *Mutator) AddEmptyBoardTemplate(ctx context.Context, teamID string, hooks Hooks) (*model.BoardsAndBlocks, error) {
	board := model.NewBoard(model.Board{TeamID: teamID, IsTemplate: true})

	view := model.NewBoardView(model.Block{
		BoardID:  board.ID,
		ParentID: board.ID,
		Title:    "Board view",
	})

	return m.CreateBoardsAndBlocks(ctx, model.BoardsAndBlocks{
		Boards: []model.Board{board},
		Blocks: []model.Block{view},
	}, "add board template", hooks)
}

// AddBoardFromTemplate stamps a new board out of a board template.
func (m *Mutator) AddBoardFromTemplate(ctx context.Context, templateBoardID string, hooks Hooks) (*model.BoardsAndBlocks, error) {
	return m.DuplicateBoard(ctx, templateBoardID, false, "new board from template", hooks)
}

// ChangeBlockTitle retitles a block.
func (m *Mutator) ChangeBlockTitle(ctx context.Context, boardID, blockID, oldTitle, newTitle, description string) error {
	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBlock(ctx, boardID, blockID, &model.BlockPatch{Title: &newTitle})
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBlock(ctx, boardID, blockID, &model.BlockPatch{Title: &oldTitle})
		},
		description)

	return err
}

// ChangeBoardTitle retitles a board.
func (m *Mutator) ChangeBoardTitle(ctx context.Context, boardID, oldTitle, newTitle, description string) error {
	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBoard(ctx, boardID, &model.BoardPatch{Title: &newTitle})
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBoard(ctx, boardID, &model.BoardPatch{Title: &oldTitle})
		},
		description)

	return err
}

// ChangeBoardIcon swaps a board's icon.
func (m *Mutator) ChangeBoardIcon(ctx context.Context, boardID, oldIcon, icon string) error {
	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBoard(ctx, boardID, &model.BoardPatch{Icon: &icon})
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBoard(ctx, boardID, &model.BoardPatch{Icon: &oldIcon})
		},
		"change board icon")

	return err
}

// ChangeBoardDescription rewrites a board's description.
func (m *Mutator) ChangeBoardDescription(ctx context.Context, boardID, oldDescription, description string) error {
	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBoard(ctx, boardID, &model.BoardPatch{Description: &description})
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBoard(ctx, boardID, &model.BoardPatch{Description: &oldDescription})
		},
		"change board description")

	return err
}

// ShowBoardDescription toggles the description header of a board.
func (m *Mutator) ShowBoardDescription(ctx context.Context, boardID string, oldShow, show bool) error {
	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBoard(ctx, boardID, &model.BoardPatch{ShowDescription: &show})
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBoard(ctx, boardID, &model.BoardPatch{ShowDescription: &oldShow})
		},
		"show/hide board description")

	return err
}

// ChangeBlockIcon swaps a card's icon field.
func (m *Mutator) ChangeBlockIcon(ctx context.Context, boardID, blockID, oldIcon, icon string) error {
	return m.changeBlockField(ctx, boardID, blockID, model.FieldIcon, oldIcon, icon, "change icon")
}

// ChangeCardContentOrder rewrites a card's content order.
func (m *Mutator) ChangeCardContentOrder(ctx context.Context, boardID, cardID string, oldOrder, newOrder []any, description string) error {
	if description == "" {
		description = "reorder"
	}

	return m.changeBlockField(ctx, boardID, cardID, model.FieldContentOrder, oldOrder, newOrder, description)
}

// ChangePropertyValue sets one property value on a card.
func (m *Mutator) ChangePropertyValue(ctx context.Context, card model.Block, propertyID string, value any, description string) error {
	if description == "" {
		description = "change property"
	}

	oldProps := model.CardProperties(card)
	newProps := map[string]any{}
	for k, v := range oldProps {
		newProps[k] = v
	}
	if value == nil {
		delete(newProps, propertyID)
	} else {
		newProps[propertyID] = value
	}

	return m.changeBlockField(ctx, card.BoardID, card.ID, model.FieldProperties, oldProps, newProps, description)
}

func (m *Mutator) changeBlockField(ctx context.Context, boardID, blockID, key string, oldValue, newValue any, description string) error {
	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBlock(ctx, boardID, blockID, &model.BlockPatch{
				UpdatedFields: map[string]any{key: newValue},
			})
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBlock(ctx, boardID, blockID, &model.BlockPatch{
				UpdatedFields: map[string]any{key: oldValue},
			})
		},
		description)

	return err
}

// Board membership. These also keep the local users cache current, since
// person-valued grouping needs the member's user record.

// CreateBoardMember adds a member to a board; the inverse removes it.
func (m *Mutator) CreateBoardMember(ctx context.Context, member model.BoardMember, description string) error {
	if description == "" {
		description = "create board member"
	}

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			created, err := m.client.CreateBoardMember(ctx, member)
			if err != nil {
				return nil, err
			}
			if m.store != nil {
				m.store.ApplyMember(*created)
				if user, err := m.client.GetUser(ctx, created.UserID); err == nil {
					m.store.PutUser(*user)
				}
			}
			return *created, nil
		},
		func(ctx context.Context, value any) error {
			created, ok := value.(model.BoardMember)
			if !ok {
				return fmt.Errorf("create board member undo: unexpected value %T", value)
			}
			if err := m.client.DeleteBoardMember(ctx, created); err != nil {
				return err
			}
			if m.store != nil {
				m.store.RemoveMember(created)
			}
			return nil
		},
		description)

	return err
}

// UpdateBoardMember replaces a board membership; the inverse restores
// the previous one.
func (m *Mutator) UpdateBoardMember(ctx context.Context, newMember, oldMember model.BoardMember) error {
	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			updated, err := m.client.UpdateBoardMember(ctx, newMember)
			if err != nil {
				return nil, err
			}
			if m.store != nil {
				m.store.ApplyMember(*updated)
			}
			return nil, nil
		},
		func(ctx context.Context, value any) error {
			restored, err := m.client.UpdateBoardMember(ctx, oldMember)
			if err != nil {
				return err
			}
			if m.store != nil {
				m.store.ApplyMember(*restored)
			}
			return nil
		},
		"update board member")

	return err
}

// DeleteBoardMember removes a member; the inverse re-creates the
// membership.
func (m *Mutator) DeleteBoardMember(ctx context.Context, member model.BoardMember, description string) error {
	if description == "" {
		description = "delete board member"
	}

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			if err := m.client.DeleteBoardMember(ctx, member); err != nil {
				return nil, err
			}
			if m.store != nil {
				m.store.RemoveMember(member)
			}
			return nil, nil
		},
		func(ctx context.Context, value any) error {
			created, err := m.client.CreateBoardMember(ctx, member)
			if err != nil {
				return err
			}
			if m.store != nil {
				m.store.ApplyMember(*created)
			}
			return nil
		},
		description)

	return err
}

// Property templates.

// InsertPropertyTemplate adds a card property to the board at index (-1
// appends). On a table view the new column is also made visible, in one
// composite patch. Returns the new template's id.
func (m *Mutator) InsertPropertyTemplate(ctx context.Context, board model.Board, activeView model.Block, index int, template *model.PropertyTemplate) (string, error) {
	newTemplate := model.PropertyTemplate{
		ID:      model.NewID(model.IDTypeBlock),
		Name:    "New Property",
		Type:    model.PropertyTypeText,
		Options: []model.PropertyOption{},
	}
	if template != nil {
		newTemplate = *template
	}

	newBoard := model.NewBoard(board)
	newBoard.CardProperties = insertTemplateAt(cloneTemplates(board.CardProperties), newTemplate, index)

	if viewType(activeView) != model.ViewTypeTable {
		return newTemplate.ID, m.UpdateBoard(ctx, newBoard, board, "add property")
	}

	newActiveView := model.NewBoardView(activeView)
	visible := model.StringsField(newActiveView.Fields, model.FieldVisiblePropertyIDs)
	viewIndex := len(visible)
	if index > 0 && index <= len(visible) {
		viewIndex = index
	}
	visible = append(visible[:viewIndex:viewIndex], append([]string{newTemplate.ID}, visible[viewIndex:]...)...)
	newActiveView.Fields[model.FieldVisiblePropertyIDs] = visible

	return newTemplate.ID, m.patchBoardsAndBlocks(ctx,
		newBoard, board,
		[]string{activeView.ID}, []model.Block{newActiveView}, []model.Block{activeView},
		"add column")
}

// DuplicatePropertyTemplate copies a card property next to the original.
// On a table view the copy is appended to the visible columns.
func (m *Mutator) DuplicatePropertyTemplate(ctx context.Context, board model.Board, activeView model.Block, propertyID string) error {
	newBoard := model.NewBoard(board)

	index := -1
	for i := range newBoard.CardProperties {
		if newBoard.CardProperties[i].ID == propertyID {
			index = i
			break
		}
	}
	if index == -1 {
		m.log.Error().Str("propertyId", propertyID).Msg("cannot find template to duplicate")
		return fmt.Errorf("cannot find template with id %s", propertyID)
	}

	src := newBoard.CardProperties[index]
	copied := model.PropertyTemplate{
		ID:      model.NewID(model.IDTypeBlock),
		Name:    src.Name + " copy",
		Type:    src.Type,
		Options: append([]model.PropertyOption{}, src.Options...),
	}
	newBoard.CardProperties = insertTemplateAt(newBoard.CardProperties, copied, index+1)

	if viewType(activeView) != model.ViewTypeTable {
		return m.UpdateBoard(ctx, newBoard, board, "duplicate property")
	}

	newActiveView := model.NewBoardView(activeView)
	visible := model.StringsField(newActiveView.Fields, model.FieldVisiblePropertyIDs)
	newActiveView.Fields[model.FieldVisiblePropertyIDs] = append(visible, copied.ID)

	return m.patchBoardsAndBlocks(ctx,
		newBoard, board,
		[]string{activeView.ID}, []model.Block{newActiveView}, []model.Block{activeView},
		"duplicate column")
}

// ChangePropertyTemplateOrder moves a card property to destIndex.
func (m *Mutator) ChangePropertyTemplateOrder(ctx context.Context, board model.Board, propertyID string, destIndex int) error {
	srcIndex := -1
	for i := range board.CardProperties {
		if board.CardProperties[i].ID == propertyID {
			srcIndex = i
			break
		}
	}
	if srcIndex == -1 {
		return fmt.Errorf("cannot find template with id %s", propertyID)
	}

	reordered := append([]model.PropertyTemplate{}, board.CardProperties...)
	moved := reordered[srcIndex]
	reordered = append(reordered[:srcIndex], reordered[srcIndex+1:]...)
	reordered = insertTemplateAt(reordered, moved, destIndex)

	newBoard := model.NewBoard(board)
	newBoard.CardProperties = reordered

	// Diffing ignores pure reorders, so replace the list wholesale.
	forward, inverse := model.CardPropertiesPatches(newBoard.CardProperties, board.CardProperties)
	forward.UpdatedCardProperties = cloneTemplates(newBoard.CardProperties)
	inverse.UpdatedCardProperties = cloneTemplates(board.CardProperties)

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBoard(ctx, board.ID, forward)
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBoard(ctx, board.ID, inverse)
		},
		"reorder properties")

	return err
}

// DeleteProperty removes a card property from the board, from every view
// showing it and from every card holding a value for it, atomically.
func (m *Mutator) DeleteProperty(ctx context.Context, board model.Board, views, cards []model.Block, propertyID string) error {
	newBoard := model.NewBoard(board)
	kept := make([]model.PropertyTemplate, 0, len(newBoard.CardProperties))
	for _, template := range newBoard.CardProperties {
		if template.ID != propertyID {
			kept = append(kept, template)
		}
	}
	newBoard.CardProperties = kept

	var oldBlocks, changedBlocks []model.Block
	var changedBlockIDs []string

	for _, view := range views {
		visible := model.StringsField(view.Fields, model.FieldVisiblePropertyIDs)
		if !containsString(visible, propertyID) {
			continue
		}
		newView := model.NewBoardView(view)
		filtered := make([]string, 0, len(visible))
		for _, id := range visible {
			if id != propertyID {
				filtered = append(filtered, id)
			}
		}
		newView.Fields[model.FieldVisiblePropertyIDs] = filtered

		oldBlocks = append(oldBlocks, view)
		changedBlocks = append(changedBlocks, newView)
		changedBlockIDs = append(changedBlockIDs, view.ID)
	}

	for _, card := range cards {
		props := model.CardProperties(card)
		if props[propertyID] == nil {
			continue
		}
		newCard := model.NewCard(card)
		delete(model.CardProperties(newCard), propertyID)

		oldBlocks = append(oldBlocks, card)
		changedBlocks = append(changedBlocks, newCard)
		changedBlockIDs = append(changedBlockIDs, card.ID)
	}

	return m.patchBoardsAndBlocks(ctx,
		newBoard, board,
		changedBlockIDs, changedBlocks, oldBlocks,
		"delete property")
}

// UpdateBoardCardProperties replaces the board's card property list.
func (m *Mutator) UpdateBoardCardProperties(ctx context.Context, boardID string, oldProperties, newProperties []model.PropertyTemplate, description string) error {
	if description == "" {
		description = "update card properties"
	}

	forward, inverse := model.CardPropertiesPatches(newProperties, oldProperties)

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBoard(ctx, boardID, forward)
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBoard(ctx, boardID, inverse)
		},
		description)

	return err
}

// InsertPropertyOption adds an option to a select-like property.
func (m *Mutator) InsertPropertyOption(ctx context.Context, board model.Board, template model.PropertyTemplate, option model.PropertyOption, description string) error {
	newProperties := cloneTemplates(board.CardProperties)
	target := findTemplateIn(newProperties, template.ID)
	if target == nil {
		return fmt.Errorf("cannot find template with id %s", template.ID)
	}
	target.Options = append(target.Options, option)

	return m.UpdateBoardCardProperties(ctx, board.ID, board.CardProperties, newProperties, description)
}

// DeletePropertyOption removes an option from a select-like property.
func (m *Mutator) DeletePropertyOption(ctx context.Context, board model.Board, template model.PropertyTemplate, option model.PropertyOption) error {
	newProperties := cloneTemplates(board.CardProperties)
	target := findTemplateIn(newProperties, template.ID)
	if target == nil {
		return fmt.Errorf("cannot find template with id %s", template.ID)
	}
	kept := make([]model.PropertyOption, 0, len(target.Options))
	for _, o := range target.Options {
		if o.ID != option.ID {
			kept = append(kept, o)
		}
	}
	target.Options = kept

	return m.UpdateBoardCardProperties(ctx, board.ID, board.CardProperties, newProperties, "delete option")
}

// ChangePropertyOptionValue renames an option.
func (m *Mutator) ChangePropertyOptionValue(ctx context.Context, board model.Board, template model.PropertyTemplate, option model.PropertyOption, value string) error {
	return m.changePropertyOption(ctx, board, template.ID, option.ID, "rename option", func(o *model.PropertyOption) {
		o.Value = value
	})
}

// ChangePropertyOptionColor recolors an option.
func (m *Mutator) ChangePropertyOptionColor(ctx context.Context, board model.Board, template model.PropertyTemplate, option model.PropertyOption, color string) error {
	return m.changePropertyOption(ctx, board, template.ID, option.ID, "change option color", func(o *model.PropertyOption) {
		o.Color = color
	})
}

// ChangePropertyOptionOrder moves an option to destIndex within its
// property. Option order does not take part in template diffing, so the
// patch replaces the whole template on both sides.
func (m *Mutator) ChangePropertyOptionOrder(ctx context.Context, board model.Board, template model.PropertyTemplate, option model.PropertyOption, destIndex int) error {
	srcIndex := -1
	for i := range template.Options {
		if template.Options[i].ID == option.ID {
			srcIndex = i
			break
		}
	}
	if srcIndex == -1 {
		return fmt.Errorf("cannot find option with id %s", option.ID)
	}
	if destIndex < 0 || destIndex >= len(template.Options) {
		destIndex = len(template.Options) - 1
	}

	reordered := append([]model.PropertyOption{}, template.Options...)
	moved := reordered[srcIndex]
	reordered = append(reordered[:srcIndex], reordered[srcIndex+1:]...)
	reordered = append(reordered[:destIndex], append([]model.PropertyOption{moved}, reordered[destIndex:]...)...)

	newTemplate := template
	newTemplate.Options = reordered
	oldTemplate := template
	oldTemplate.Options = append([]model.PropertyOption{}, template.Options...)

	forward := &model.BoardPatch{UpdatedCardProperties: []model.PropertyTemplate{newTemplate}}
	inverse := &model.BoardPatch{UpdatedCardProperties: []model.PropertyTemplate{oldTemplate}}

	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBoard(ctx, board.ID, forward)
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBoard(ctx, board.ID, inverse)
		},
		"reorder options")

	return err
}

func (m *Mutator) changePropertyOption(ctx context.Context, board model.Board, templateID, optionID, description string, mutate func(*model.PropertyOption)) error {
	newProperties := cloneTemplates(board.CardProperties)
	target := findTemplateIn(newProperties, templateID)
	if target == nil {
		return fmt.Errorf("cannot find template with id %s", templateID)
	}
	for i := range target.Options {
		if target.Options[i].ID == optionID {
			mutate(&target.Options[i])
			break
		}
	}

	return m.UpdateBoardCardProperties(ctx, board.ID, board.CardProperties, newProperties, description)
}

// ChangePropertyTypeAndName retypes and renames a card property,
// converting every affected card's stored value. Conversions between
// select-like and plain types map option ids to option values and back,
// minting new options as needed; values that cannot convert are dropped.
func (m *Mutator) ChangePropertyTypeAndName(ctx context.Context, board model.Board, cards []model.Block, template model.PropertyTemplate, newType model.PropertyType, newName string) error {
	if template.Type == newType && template.Name == newName {
		return nil
	}

	newBoard := model.NewBoard(board)
	newTemplate := findTemplateIn(newBoard.CardProperties, template.ID)
	if newTemplate == nil {
		return fmt.Errorf("cannot find template with id %s", template.ID)
	}

	if template.Type != newType {
		newTemplate.Options = []model.PropertyOption{}
	}
	newTemplate.Type = newType
	newTemplate.Name = newName

	var oldBlocks, newBlocks []model.Block
	var newBlockIDs []string

	if template.Type != newType {
		isNewSelect := newType == model.PropertyTypeSelect || newType == model.PropertyTypeMultiSelect
		wasSelect := template.Type == model.PropertyTypeSelect || template.Type == model.PropertyTypeMultiSelect

		switch {
		case wasSelect:
			for _, card := range cards {
				oldValue := firstPropertyValue(card, template.ID)
				if oldValue == "" {
					continue
				}

				option := findOptionIn(template.Options, oldValue)
				newCard := model.NewCard(card)
				props := model.CardProperties(newCard)

				switch {
				case option == nil:
					// Stale option reference, drop the value.
					delete(props, template.ID)
				case isNewSelect:
					if newType == model.PropertyTypeMultiSelect {
						props[template.ID] = []string{option.ID}
					} else {
						props[template.ID] = option.ID
					}
				default:
					props[template.ID] = option.Value
				}

				oldBlocks = append(oldBlocks, card)
				newBlocks = append(newBlocks, newCard)
				newBlockIDs = append(newBlockIDs, card.ID)
			}
			if isNewSelect {
				newTemplate.Options = append([]model.PropertyOption{}, template.Options...)
			}

		case isNewSelect:
			for _, card := range cards {
				oldValue, _ := model.CardProperties(card)[template.ID].(string)
				if oldValue == "" {
					continue
				}

				option := findOptionByValue(newTemplate.Options, oldValue)
				if option == nil {
					newTemplate.Options = append(newTemplate.Options, model.PropertyOption{
						ID:    model.NewID(model.IDTypeNone),
						Value: oldValue,
						Color: "propColorDefault",
					})
					option = &newTemplate.Options[len(newTemplate.Options)-1]
				}

				newCard := model.NewCard(card)
				props := model.CardProperties(newCard)
				if newType == model.PropertyTypeMultiSelect {
					props[template.ID] = []string{option.ID}
				} else {
					props[template.ID] = option.ID
				}

				oldBlocks = append(oldBlocks, card)
				newBlocks = append(newBlocks, newCard)
				newBlockIDs = append(newBlockIDs, card.ID)
			}
		}
	}

	if len(newBlockIDs) == 0 {
		return m.UpdateBoard(ctx, newBoard, board, "change property name")
	}

	return m.patchBoardsAndBlocks(ctx,
		newBoard, board,
		newBlockIDs, newBlocks, oldBlocks,
		"change property type and name")
}

func (m *Mutator) patchBoardsAndBlocks(ctx context.Context, newBoard, oldBoard model.Board, changedBlockIDs []string, changedBlocks, oldBlocks []model.Block, description string) error {
	updatePatch, undoPatch, err := model.DiffBoardsAndBlocks(newBoard, oldBoard, changedBlockIDs, changedBlocks, oldBlocks)
	if err != nil {
		return err
	}

	_, err = m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.PatchBoardsAndBlocks(ctx, updatePatch)
		},
		func(ctx context.Context, value any) error {
			return m.client.PatchBoardsAndBlocks(ctx, undoPatch)
		},
		description)

	return err
}

// View field mutations. Each records a single-field block patch on the
// view.

// ChangeViewSortOptions rewrites a view's sort order.
func (m *Mutator) ChangeViewSortOptions(ctx context.Context, boardID, viewID string, oldSortOptions, sortOptions []model.SortOption) error {
	return m.changeBlockField(ctx, boardID, viewID, model.FieldSortOptions, oldSortOptions, sortOptions, "sort")
}

// ChangeViewFilter replaces a view's filter tree.
func (m *Mutator) ChangeViewFilter(ctx context.Context, boardID, viewID string, oldFilter, newFilter *filter.Group) error {
	oldRaw, err := oldFilter.ToMap()
	if err != nil {
		return err
	}
	newRaw, err := newFilter.ToMap()
	if err != nil {
		return err
	}

	return m.changeBlockField(ctx, boardID, viewID, model.FieldFilter, oldRaw, newRaw, "filter")
}

// ChangeViewGroupByID switches the property a board view groups by.
func (m *Mutator) ChangeViewGroupByID(ctx context.Context, boardID, viewID, oldGroupByID, groupByID string) error {
	return m.changeBlockField(ctx, boardID, viewID, model.FieldGroupByID, oldGroupByID, groupByID, "group by")
}

// ChangeViewDateDisplayPropertyID switches the date property a calendar
// view displays.
func (m *Mutator) ChangeViewDateDisplayPropertyID(ctx context.Context, boardID, viewID, oldPropertyID, propertyID string) error {
	return m.changeBlockField(ctx, boardID, viewID, model.FieldDateDisplayPropertyID, oldPropertyID, propertyID, "display by")
}

// ChangeViewVisibleProperties rewrites which properties a view shows.
func (m *Mutator) ChangeViewVisibleProperties(ctx context.Context, boardID, viewID string, oldIDs, newIDs []string, description string) error {
	if description == "" {
		description = "show / hide property"
	}

	return m.changeBlockField(ctx, boardID, viewID, model.FieldVisiblePropertyIDs, oldIDs, newIDs, description)
}

// ChangeViewVisibleOptionIDs rewrites a view's visible column options.
func (m *Mutator) ChangeViewVisibleOptionIDs(ctx context.Context, boardID, viewID string, oldIDs, newIDs []string, description string) error {
	if description == "" {
		description = "reorder"
	}

	return m.changeBlockField(ctx, boardID, viewID, model.FieldVisibleOptionIDs, oldIDs, newIDs, description)
}

// ChangeViewHiddenOptionIDs rewrites a view's hidden column options.
func (m *Mutator) ChangeViewHiddenOptionIDs(ctx context.Context, boardID, viewID string, oldIDs, newIDs []string) error {
	return m.changeBlockField(ctx, boardID, viewID, model.FieldHiddenOptionIDs, oldIDs, newIDs, "reorder")
}

// ChangeViewKanbanCalculations rewrites a view's kanban calculations.
func (m *Mutator) ChangeViewKanbanCalculations(ctx context.Context, boardID, viewID string, oldValue, newValue map[string]any) error {
	return m.changeBlockField(ctx, boardID, viewID, model.FieldKanbanCalculations, oldValue, newValue, "updated kanban calculations")
}

// ChangeViewColumnCalculations rewrites a table view's column
// calculations.
func (m *Mutator) ChangeViewColumnCalculations(ctx context.Context, boardID, viewID string, oldValue, newValue map[string]any) error {
	return m.changeBlockField(ctx, boardID, viewID, model.FieldColumnCalculations, oldValue, newValue, "updated column calculations")
}

// ChangeViewCardOrder rewrites the manual card order of a view.
func (m *Mutator) ChangeViewCardOrder(ctx context.Context, boardID, viewID string, oldOrder, newOrder []string, description string) error {
	if description == "" {
		description = "reorder"
	}

	return m.changeBlockField(ctx, boardID, viewID, model.FieldCardOrder, oldOrder, newOrder, description)
}

// SetDefaultTemplate marks a card template as the view's default.
func (m *Mutator) SetDefaultTemplate(ctx context.Context, boardID, viewID, oldTemplateID, templateID string) error {
	return m.changeBlockField(ctx, boardID, viewID, model.FieldDefaultTemplateID, oldTemplateID, templateID, "set default template")
}

// ClearDefaultTemplate clears the view's default card template.
func (m *Mutator) ClearDefaultTemplate(ctx context.Context, boardID, viewID, oldTemplateID string) error {
	return m.changeBlockField(ctx, boardID, viewID, model.FieldDefaultTemplateID, oldTemplateID, "", "set default template")
}

// HideViewColumns moves options to the view's hidden set. No-op when all
// of them are already hidden.
func (m *Mutator) HideViewColumns(ctx context.Context, boardID string, view model.Block, columnOptionIDs []string) error {
	hidden := model.StringsField(view.Fields, model.FieldHiddenOptionIDs)
	allHidden := true
	for _, id := range columnOptionIDs {
		if !containsString(hidden, id) {
			allHidden = false
			break
		}
	}
	if allHidden {
		return nil
	}

	newView := model.NewBoardView(view)
	visible := model.StringsField(newView.Fields, model.FieldVisibleOptionIDs)
	kept := make([]string, 0, len(visible))
	for _, id := range visible {
		if !containsString(columnOptionIDs, id) {
			kept = append(kept, id)
		}
	}
	newView.Fields[model.FieldVisibleOptionIDs] = kept
	newView.Fields[model.FieldHiddenOptionIDs] = append(hidden, columnOptionIDs...)

	return m.UpdateBlock(ctx, boardID, newView, view, "hide column")
}

// HideViewColumn hides a single column option.
func (m *Mutator) HideViewColumn(ctx context.Context, boardID string, view model.Block, columnOptionID string) error {
	return m.HideViewColumns(ctx, boardID, view, []string{columnOptionID})
}

// UnhideViewColumns moves options back to the end of the visible set.
// No-op when all of them are already visible.
func (m *Mutator) UnhideViewColumns(ctx context.Context, boardID string, view model.Block, columnOptionIDs []string) error {
	visible := model.StringsField(view.Fields, model.FieldVisibleOptionIDs)
	allVisible := true
	for _, id := range columnOptionIDs {
		if !containsString(visible, id) {
			allVisible = false
			break
		}
	}
	if allVisible {
		return nil
	}

	newView := model.NewBoardView(view)
	hidden := model.StringsField(newView.Fields, model.FieldHiddenOptionIDs)
	keptHidden := make([]string, 0, len(hidden))
	for _, id := range hidden {
		if !containsString(columnOptionIDs, id) {
			keptHidden = append(keptHidden, id)
		}
	}
	newView.Fields[model.FieldHiddenOptionIDs] = keptHidden

	keptVisible := make([]string, 0, len(visible)+len(columnOptionIDs))
	for _, id := range visible {
		if !containsString(columnOptionIDs, id) {
			keptVisible = append(keptVisible, id)
		}
	}
	newView.Fields[model.FieldVisibleOptionIDs] = append(keptVisible, columnOptionIDs...)

	return m.UpdateBlock(ctx, boardID, newView, view, "show column")
}

// UnhideViewColumn unhides a single column option.
func (m *Mutator) UnhideViewColumn(ctx context.Context, boardID string, view model.Block, columnOptionID string) error {
	return m.UnhideViewColumns(ctx, boardID, view, []string{columnOptionID})
}

// Duplication.

// duplicatedCard is the value threaded from a card duplication to its
// undo.
type duplicatedCard struct {
	Blocks []model.Block
	RootID string
}

// DuplicateCard copies a card with its content blocks. A card stamped
// from a template gets an empty title; a template stamped from a card is
// retitled; a like-for-like copy is suffixed. The inverse deletes the
// duplicated root.
func (m *Mutator) DuplicateCard(ctx context.Context, boardID, cardID string, fromTemplate, asTemplate bool, propertyOverrides map[string]any, description string, hooks Hooks) ([]model.Block, string, error) {
	if description == "" {
		description = "duplicate card"
	}

	value, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			blocks, err := m.client.DuplicateBlock(ctx, boardID, cardID, asTemplate)
			if err != nil {
				return nil, err
			}
			if len(blocks) == 0 {
				return nil, fmt.Errorf("unable to duplicate card %s", cardID)
			}

			root := blocks[0]
			switch {
			case asTemplate == fromTemplate:
				root.Title += " copy"
			case asTemplate:
				root.Title = "New card template"
			default:
				root.Title = ""
			}

			props := map[string]any{}
			for k, v := range model.CardProperties(root) {
				props[k] = v
			}
			for k, v := range propertyOverrides {
				props[k] = v
			}

			patch := &model.BlockPatch{
				Title: &root.Title,
				UpdatedFields: map[string]any{
					model.FieldIcon:       root.Fields[model.FieldIcon],
					model.FieldProperties: props,
				},
			}
			if err := m.client.PatchBlock(ctx, root.BoardID, root.ID, patch); err != nil {
				return nil, err
			}

			if m.store != nil {
				m.store.ApplyBlocks(blocks)
			}
			if err := hooks.afterRedo(ctx, root.ID); err != nil {
				return nil, err
			}
			return duplicatedCard{Blocks: blocks, RootID: root.ID}, nil
		},
		func(ctx context.Context, value any) error {
			dup, ok := value.(duplicatedCard)
			if !ok {
				return fmt.Errorf("duplicate card undo: unexpected value %T", value)
			}
			if err := hooks.beforeUndo(ctx, dup); err != nil {
				return err
			}
			return m.client.DeleteBlock(ctx, dup.Blocks[0].BoardID, dup.RootID)
		},
		description)
	if err != nil {
		return nil, "", err
	}

	dup := value.(duplicatedCard)

	return dup.Blocks, dup.RootID, nil
}

// DuplicateBoard copies a board with all its blocks. The inverse deletes
// every created board and block concurrently.
func (m *Mutator) DuplicateBoard(ctx context.Context, boardID string, asTemplate bool, description string, hooks Hooks) (*model.BoardsAndBlocks, error) {
	if description == "" {
		description = "duplicate board"
	}

	value, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			bundle, err := m.client.DuplicateBoard(ctx, boardID, asTemplate)
			if err != nil {
				return nil, err
			}
			if m.store != nil {
				for _, board := range bundle.Boards {
					m.store.ApplyBoard(board)
				}
				m.store.ApplyBlocks(bundle.Blocks)
			}
			var rootBoardID string
			if len(bundle.Boards) > 0 {
				rootBoardID = bundle.Boards[0].ID
			}
			if err := hooks.afterRedo(ctx, rootBoardID); err != nil {
				return nil, err
			}
			return bundle, nil
		},
		func(ctx context.Context, value any) error {
			bundle, ok := value.(*model.BoardsAndBlocks)
			if !ok {
				return fmt.Errorf("duplicate board undo: unexpected value %T", value)
			}
			if err := hooks.beforeUndo(ctx, bundle); err != nil {
				return err
			}
			g, ctx := errgroup.WithContext(ctx)
			for _, block := range bundle.Blocks {
				block := block
				g.Go(func() error {
					return m.client.DeleteBlock(ctx, block.BoardID, block.ID)
				})
			}
			for _, board := range bundle.Boards {
				board := board
				g.Go(func() error {
					return m.client.DeleteBoard(ctx, board.ID)
				})
			}
			return g.Wait()
		},
		description)
	if err != nil {
		return nil, err
	}

	return value.(*model.BoardsAndBlocks), nil
}

// FollowBlock subscribes a user to a block; the inverse unsubscribes.
func (m *Mutator) FollowBlock(ctx context.Context, blockID, blockType, userID string) error {
	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.FollowBlock(ctx, blockID, blockType, userID)
		},
		func(ctx context.Context, value any) error {
			return m.client.UnfollowBlock(ctx, blockID, userID)
		},
		"follow block")

	return err
}

// UnfollowBlock unsubscribes a user from a block; the inverse
// resubscribes.
func (m *Mutator) UnfollowBlock(ctx context.Context, blockID, blockType, userID string) error {
	_, err := m.perform(ctx,
		func(ctx context.Context) (any, error) {
			return nil, m.client.UnfollowBlock(ctx, blockID, userID)
		},
		func(ctx context.Context, value any) error {
			return m.client.FollowBlock(ctx, blockID, blockType, userID)
		},
		"unfollow block")

	return err
}

// Sidebar categories are pure pass-through: no undo involvement.

func (m *Mutator) CreateCategory(ctx context.Context, category model.Category) error {
	_, err := m.client.CreateSidebarCategory(ctx, category)
	return err
}

func (m *Mutator) UpdateCategory(ctx context.Context, category model.Category) error {
	_, err := m.client.UpdateSidebarCategory(ctx, category)
	return err
}

func (m *Mutator) DeleteCategory(ctx context.Context, categoryID string) error {
	return m.client.DeleteSidebarCategory(ctx, categoryID)
}

func (m *Mutator) MoveBoardToCategory(ctx context.Context, boardID, toCategoryID, fromCategoryID string) error {
	return m.client.MoveBoardToCategory(ctx, boardID, toCategoryID, fromCategoryID)
}

// Helpers.

func viewType(view model.Block) model.ViewType {
	vt, _ := view.Fields[model.FieldViewType].(string)
	return model.ViewType(vt)
}

func insertTemplateAt(templates []model.PropertyTemplate, template model.PropertyTemplate, index int) []model.PropertyTemplate {
	if index < 0 || index > len(templates) {
		index = len(templates)
	}

	out := make([]model.PropertyTemplate, 0, len(templates)+1)
	out = append(out, templates[:index]...)
	out = append(out, template)
	out = append(out, templates[index:]...)

	return out
}

func cloneTemplates(templates []model.PropertyTemplate) []model.PropertyTemplate {
	out := make([]model.PropertyTemplate, 0, len(templates))
	for _, t := range templates {
		t.Options = append([]model.PropertyOption{}, t.Options...)
		out = append(out, t)
	}

	return out
}

func findTemplateIn(templates []model.PropertyTemplate, id string) *model.PropertyTemplate {
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i]
		}
	}

	return nil
}

func findOptionIn(options []model.PropertyOption, id string) *model.PropertyOption {
	for i := range options {
		if options[i].ID == id {
			return &options[i]
		}
	}

	return nil
}

func findOptionByValue(options []model.PropertyOption, value string) *model.PropertyOption {
	for i := range options {
		if options[i].Value == value {
			return &options[i]
		}
	}

	return nil
}

// firstPropertyValue resolves a select-like property value to a single
// option id: multi-select values contribute their first element.
func firstPropertyValue(card model.Block, propertyID string) string {
	switch v := model.CardProperties(card)[propertyID].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []any:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s
		}
	}

	return ""
}

func containsString(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}

	return false
}
