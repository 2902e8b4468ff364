package boardkit

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openboards/boardkit/pkg/model"
)

// MemStore keeps the entities a client session displays. It is hydrated
// from an initial load and kept current by applying feed updates; deleted
// entities arrive as tombstones (DeleteAt set) and are dropped.
//
// MemStore is safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	boards  map[string]model.Board
	blocks  map[string]model.Block
	members map[string]map[string]model.BoardMember
	users   map[string]model.User
}

func NewMemStore() *MemStore {
	return &MemStore{
		boards:  map[string]model.Board{},
		blocks:  map[string]model.Block{},
		members: map[string]map[string]model.BoardMember{},
		users:   map[string]model.User{},
	}
}

// ApplyBoard upserts a board, or removes it when the board is a
// tombstone.
func (s *MemStore) ApplyBoard(board model.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if board.DeleteAt > 0 {
		delete(s.boards, board.ID)
		delete(s.members, board.ID)
		return
	}
	s.boards[board.ID] = board
}

// ApplyBlock upserts a block, or removes it when the block is a
// tombstone.
func (s *MemStore) ApplyBlock(block model.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if block.DeleteAt > 0 {
		delete(s.blocks, block.ID)
		return
	}
	s.blocks[block.ID] = block
}

// ApplyBlocks applies a batch of candidate blocks.
func (s *MemStore) ApplyBlocks(blocks []model.Block) {
	for _, block := range blocks {
		s.ApplyBlock(block)
	}
}

// ApplyMember upserts a board membership. A membership with no scheme
// role left is treated as removed.
func (s *MemStore) ApplyMember(member model.BoardMember) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.members[member.BoardID]
	if !ok {
		byUser = map[string]model.BoardMember{}
		s.members[member.BoardID] = byUser
	}
	byUser[member.UserID] = member
}

// RemoveMember drops a board membership.
func (s *MemStore) RemoveMember(member model.BoardMember) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.members[member.BoardID], member.UserID)
}

// PutUser caches a user record.
func (s *MemStore) PutUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = user
}

// Board returns a board by id.
func (s *MemStore) Board(id string) (model.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	board, ok := s.boards[id]
	return board, ok
}

// Block returns a block by id.
func (s *MemStore) Block(id string) (model.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, ok := s.blocks[id]
	return block, ok
}

// User returns a cached user by id.
func (s *MemStore) User(id string) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	return user, ok
}

// Member returns a board membership.
func (s *MemStore) Member(boardID, userID string) (model.BoardMember, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.members[boardID][userID]
	return member, ok
}

// BlocksForBoard returns the board's blocks ordered by id for
// deterministic iteration.
func (s *MemStore) BlocksForBoard(boardID string) []model.Block {
	return s.blocksMatching(func(b model.Block) bool {
		return b.BoardID == boardID
	})
}

// CardsForBoard returns the board's card blocks ordered by id.
func (s *MemStore) CardsForBoard(boardID string) []model.Block {
	return s.blocksMatching(func(b model.Block) bool {
		return b.BoardID == boardID && b.Type == model.TypeCard
	})
}

// ViewsForBoard returns the board's view blocks ordered by id.
func (s *MemStore) ViewsForBoard(boardID string) []model.Block {
	return s.blocksMatching(func(b model.Block) bool {
		return b.BoardID == boardID && b.Type == model.TypeView
	})
}

// BlocksWithParent returns the direct children of a block ordered by id.
func (s *MemStore) BlocksWithParent(parentID string) []model.Block {
	return s.blocksMatching(func(b model.Block) bool {
		return b.ParentID == parentID
	})
}

func (s *MemStore) blocksMatching(match func(model.Block) bool) []model.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Block{}
	for _, block := range s.blocks {
		if match(block) {
			out = append(out, block)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// HydrateBoard loads a board, its blocks and its members into the store
// in one concurrent fetch. Called before opening the feed so updates
// land on a complete snapshot.
func (s *MemStore) HydrateBoard(ctx context.Context, client RemoteClient, boardID string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		board, err := client.GetBoard(ctx, boardID)
		if err != nil {
			return err
		}
		s.ApplyBoard(*board)
		return nil
	})
	g.Go(func() error {
		blocks, err := client.GetBlocksForBoard(ctx, boardID)
		if err != nil {
			return err
		}
		s.ApplyBlocks(blocks)
		return nil
	})
	g.Go(func() error {
		members, err := client.GetBoardMembers(ctx, boardID)
		if err != nil {
			return err
		}
		for _, member := range members {
			s.ApplyMember(member)
		}
		return nil
	})

	return g.Wait()
}

// Boards returns all boards ordered by id.
func (s *MemStore) Boards() []model.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Board{}
	for _, board := range s.boards {
		out = append(out, board)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}
