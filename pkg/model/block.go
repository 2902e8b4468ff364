// Package model defines the canonical entity shapes of the board
// application (blocks, boards, views, cards) and the patch builder that
// computes forward and inverse patches between two revisions of an entity.
//
// All diff functions are pure: they operate on caller-owned snapshots and
// never mutate their inputs. Callers are expected to pass normalized
// entities (built through the New* constructors, which copy slices and
// maps), so value comparison of field maps is well defined.
package model

import (
	"reflect"
	"sort"
	"time"
)

// BlockType identifies the variant of a Block. The set is closed: anything
// the client does not recognize decodes as TypeUnknown.
type BlockType string

const (
	TypeText       BlockType = "text"
	TypeImage      BlockType = "image"
	TypeDivider    BlockType = "divider"
	TypeCheckbox   BlockType = "checkbox"
	TypeH1         BlockType = "h1"
	TypeH2         BlockType = "h2"
	TypeH3         BlockType = "h3"
	TypeListItem   BlockType = "list-item"
	TypeAttachment BlockType = "attachment"
	TypeQuote      BlockType = "quote"
	TypeVideo      BlockType = "video"
	TypeBoard      BlockType = "board"
	TypeView       BlockType = "view"
	TypeCard       BlockType = "card"
	TypeComment    BlockType = "comment"
	TypeUnknown    BlockType = "unknown"
)

// ContentBlockTypes lists the block types that can appear in a card's
// content order.
var ContentBlockTypes = []BlockType{
	TypeText,
	TypeImage,
	TypeDivider,
	TypeCheckbox,
	TypeH1,
	TypeH2,
	TypeH3,
	TypeListItem,
	TypeAttachment,
	TypeQuote,
	TypeVideo,
}

// Block is the generic versioned content entity. Boards aside, every
// entity in the system (views, cards, comments, card content) is a block
// with a different Type and a type-dependent Fields map.
//
// DeleteAt == 0 means the block is live; a nonzero value is the tombstone
// timestamp. Tombstoned blocks are excluded from active collections but
// still flow through patch and merge logic.
type Block struct {
	ID         string         `json:"id"`
	Schema     int64          `json:"schema"`
	BoardID    string         `json:"boardId"`
	ParentID   string         `json:"parentId"`
	CreatedBy  string         `json:"createdBy"`
	ModifiedBy string         `json:"modifiedBy"`
	Type       BlockType      `json:"type"`
	Fields     map[string]any `json:"fields"`
	Title      string         `json:"title"`
	CreateAt   int64          `json:"createAt"`
	UpdateAt   int64          `json:"updateAt"`
	DeleteAt   int64          `json:"deleteAt"`
	Limited    bool           `json:"limited"`
}

// NewBlock returns a fully populated block from a partial one. Every
// default is explicit: missing ids are generated from the block type,
// timestamps default to now, Fields is copied so the result never aliases
// the input.
func NewBlock(b Block) Block {
	now := time.Now().UnixMilli()

	if b.Type == "" {
		b.Type = TypeUnknown
	}
	if b.ID == "" {
		b.ID = NewID(blockTypeToIDType(b.Type))
	}
	b.Schema = 1
	b.Fields = copyFields(b.Fields)
	if b.CreateAt == 0 {
		b.CreateAt = now
	}
	if b.UpdateAt == 0 {
		b.UpdateAt = now
	}

	return b
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}

	return out
}

// BlockPatch is a partial update for a block: set every pointer field and
// every key in UpdatedFields, then remove every key named in
// DeletedFields.
type BlockPatch struct {
	ParentID      *string        `json:"parentId,omitempty"`
	Schema        *int64         `json:"schema,omitempty"`
	Type          *BlockType     `json:"type,omitempty"`
	Title         *string        `json:"title,omitempty"`
	UpdatedFields map[string]any `json:"updatedFields,omitempty"`
	DeletedFields []string       `json:"deletedFields,omitempty"`
}

// Apply merges the patch into a copy of the block and returns it.
func (p *BlockPatch) Apply(b Block) Block {
	if p.ParentID != nil {
		b.ParentID = *p.ParentID
	}
	if p.Schema != nil {
		b.Schema = *p.Schema
	}
	if p.Type != nil {
		b.Type = *p.Type
	}
	if p.Title != nil {
		b.Title = *p.Title
	}

	fields := copyFields(b.Fields)
	for k, v := range p.UpdatedFields {
		fields[k] = v
	}
	for _, k := range p.DeletedFields {
		delete(fields, k)
	}
	b.Fields = fields

	return b
}

// DiffBlocks computes the forward patch that turns oldBlock into newBlock
// and the inverse patch that restores oldBlock again. Both blocks must be
// revisions of the same logical entity.
//
// Top-level scalars are included only when they differ. Field values are
// compared by value; entities built through the constructors hold
// normalized (copied) slices and maps, so the comparison is exact.
func DiffBlocks(newBlock, oldBlock Block) (forward, inverse *BlockPatch) {
	forward = &BlockPatch{UpdatedFields: map[string]any{}}
	inverse = &BlockPatch{UpdatedFields: map[string]any{}}

	if newBlock.ParentID != oldBlock.ParentID {
		forward.ParentID = &newBlock.ParentID
		inverse.ParentID = &oldBlock.ParentID
	}
	if newBlock.Schema != oldBlock.Schema {
		forward.Schema = &newBlock.Schema
		inverse.Schema = &oldBlock.Schema
	}
	if newBlock.Type != oldBlock.Type {
		forward.Type = &newBlock.Type
		inverse.Type = &oldBlock.Type
	}
	if newBlock.Title != oldBlock.Title {
		forward.Title = &newBlock.Title
		inverse.Title = &oldBlock.Title
	}

	for k, v := range newBlock.Fields {
		old, ok := oldBlock.Fields[k]
		if !ok {
			// Added in new: forward sets it, inverse removes it.
			forward.UpdatedFields[k] = v
			inverse.DeletedFields = append(inverse.DeletedFields, k)
			continue
		}
		if !valueEqual(old, v) {
			forward.UpdatedFields[k] = v
			inverse.UpdatedFields[k] = old
		}
	}
	for k, v := range oldBlock.Fields {
		if _, ok := newBlock.Fields[k]; !ok {
			// Removed in new: forward deletes it, inverse restores it.
			forward.DeletedFields = append(forward.DeletedFields, k)
			inverse.UpdatedFields[k] = v
		}
	}

	// Map iteration order is randomized; keep patches deterministic.
	sort.Strings(forward.DeletedFields)
	sort.Strings(inverse.DeletedFields)

	return forward, inverse
}

// valueEqual compares two field values. Scalars compare directly; slices
// and nested maps compare by structure, which keeps patches minimal when
// constructors hand us fresh copies of unchanged collections.
func valueEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
