package model

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when a batch diff is called with block id,
// new block and old block slices of different lengths. Proceeding would
// pair patches with the wrong blocks, so the diff fails fast instead.
var ErrLengthMismatch = errors.New("mismatched lengths of block ids and blocks")

// BoardsAndBlocks bundles boards with blocks for the atomic
// create/delete endpoints.
type BoardsAndBlocks struct {
	Boards []Board `json:"boards"`
	Blocks []Block `json:"blocks"`
}

// BoardsAndBlocksPatch batches one or more board patches with parallel
// block patches so a composite mutation is applied atomically server-side.
// BlockIDs[i] pairs with BlockPatches[i], BoardIDs[i] with BoardPatches[i].
type BoardsAndBlocksPatch struct {
	BlockIDs     []string      `json:"blockIds"`
	BlockPatches []*BlockPatch `json:"blockPatches"`
	BoardIDs     []string      `json:"boardIds"`
	BoardPatches []*BoardPatch `json:"boardPatches"`
}

// DiffBoardsAndBlocks batches one board diff with pairwise block diffs,
// preserving the input order of changedBlockIDs. The three block slices
// must have equal length.
func DiffBoardsAndBlocks(
	newBoard, oldBoard Board,
	changedBlockIDs []string,
	newBlocks, oldBlocks []Block,
) (forward, inverse *BoardsAndBlocksPatch, err error) {
	if len(changedBlockIDs) != len(newBlocks) || len(newBlocks) != len(oldBlocks) {
		return nil, nil, fmt.Errorf("%w: ids=%d new=%d old=%d",
			ErrLengthMismatch, len(changedBlockIDs), len(newBlocks), len(oldBlocks))
	}

	forward = &BoardsAndBlocksPatch{
		BlockIDs: append([]string{}, changedBlockIDs...),
		BoardIDs: []string{newBoard.ID},
	}
	inverse = &BoardsAndBlocksPatch{
		BlockIDs: append([]string{}, changedBlockIDs...),
		BoardIDs: []string{newBoard.ID},
	}

	for i := range newBlocks {
		blockForward, blockInverse := DiffBlocks(newBlocks[i], oldBlocks[i])
		forward.BlockPatches = append(forward.BlockPatches, blockForward)
		inverse.BlockPatches = append(inverse.BlockPatches, blockInverse)
	}

	boardForward, boardInverse := DiffBoards(newBoard, oldBoard)
	forward.BoardPatches = []*BoardPatch{boardForward}
	inverse.BoardPatches = []*BoardPatch{boardInverse}

	return forward, inverse, nil
}
