package boardkit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/openboards/boardkit/pkg/model"
)

// RemoteClient is the remote data surface the mutation layer depends on.
// Client is the HTTP implementation; tests substitute an in-process fake.
type RemoteClient interface {
	GetBoard(ctx context.Context, boardID string) (*model.Board, error)
	GetBlocksForBoard(ctx context.Context, boardID string) ([]model.Block, error)

	PatchBlock(ctx context.Context, boardID, blockID string, patch *model.BlockPatch) error
	PatchBlocks(ctx context.Context, blockIDs []string, patches []*model.BlockPatch) error
	PatchBoard(ctx context.Context, boardID string, patch *model.BoardPatch) error
	PatchBoardsAndBlocks(ctx context.Context, patch *model.BoardsAndBlocksPatch) error

	InsertBlock(ctx context.Context, boardID string, block model.Block) ([]model.Block, error)
	InsertBlocks(ctx context.Context, boardID string, blocks []model.Block, sourceBoardID string) ([]model.Block, error)
	DeleteBlock(ctx context.Context, boardID, blockID string) error
	UndeleteBlock(ctx context.Context, boardID, blockID string) error

	CreateBoard(ctx context.Context, board model.Board) (*model.Board, error)
	DeleteBoard(ctx context.Context, boardID string) error
	UndeleteBoard(ctx context.Context, boardID string) error
	DuplicateBoard(ctx context.Context, boardID string, asTemplate bool) (*model.BoardsAndBlocks, error)
	DuplicateBlock(ctx context.Context, boardID, blockID string, asTemplate bool) ([]model.Block, error)

	CreateBoardsAndBlocks(ctx context.Context, bab model.BoardsAndBlocks) (*model.BoardsAndBlocks, error)
	DeleteBoardsAndBlocks(ctx context.Context, boardIDs, blockIDs []string) error

	GetUser(ctx context.Context, userID string) (*model.User, error)
	GetBoardMembers(ctx context.Context, boardID string) ([]model.BoardMember, error)
	CreateBoardMember(ctx context.Context, member model.BoardMember) (*model.BoardMember, error)
	UpdateBoardMember(ctx context.Context, member model.BoardMember) (*model.BoardMember, error)
	DeleteBoardMember(ctx context.Context, member model.BoardMember) error

	FollowBlock(ctx context.Context, blockID, blockType, subscriberID string) error
	UnfollowBlock(ctx context.Context, blockID, subscriberID string) error

	GetSidebarCategories(ctx context.Context) ([]model.Category, error)
	CreateSidebarCategory(ctx context.Context, category model.Category) (*model.Category, error)
	UpdateSidebarCategory(ctx context.Context, category model.Category) (*model.Category, error)
	DeleteSidebarCategory(ctx context.Context, categoryID string) error
	MoveBoardToCategory(ctx context.Context, boardID, toCategoryID, fromCategoryID string) error
}

// Client talks to the boards server REST API. All request and response
// bodies are JSON; non-2xx responses surface as *APIError.
//
// Client instances are safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	teamID     string
	token      string
	httpClient *http.Client
}

var _ RemoteClient = (*Client)(nil)

// NewClient creates a boards API client for the given configuration. The
// server URL must include the protocol and host without a trailing slash.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL: cfg.ServerURL,
		teamID:  cfg.TeamID,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken replaces the authentication token used for new requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) teamPath() string {
	return "/api/v2/teams/" + url.PathEscape(c.teamID)
}

func boardPath(boardID string) string {
	return "/api/v2/boards/" + url.PathEscape(boardID)
}

func blockPath(boardID, blockID string) string {
	return boardPath(boardID) + "/blocks/" + url.PathEscape(blockID)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	return decodeResponse(resp, target)
}

// GetBoard retrieves a board by id.
func (c *Client) GetBoard(ctx context.Context, boardID string) (*model.Board, error) {
	var board model.Board
	if err := c.do(ctx, http.MethodGet, boardPath(boardID), nil, &board); err != nil {
		return nil, err
	}

	return &board, nil
}

// GetBlocksForBoard retrieves every block of a board, including views,
// cards and their content.
func (c *Client) GetBlocksForBoard(ctx context.Context, boardID string) ([]model.Block, error) {
	var blocks []model.Block
	if err := c.do(ctx, http.MethodGet, boardPath(boardID)+"/blocks?all=true", nil, &blocks); err != nil {
		return nil, err
	}

	return blocks, nil
}

// PatchBlock applies a partial update to one block.
func (c *Client) PatchBlock(ctx context.Context, boardID, blockID string, patch *model.BlockPatch) error {
	return c.do(ctx, http.MethodPatch, blockPath(boardID, blockID), patch, nil)
}

// blockPatchBatch is the wire shape of the team-level batch patch.
type blockPatchBatch struct {
	BlockIDs     []string            `json:"block_ids"`
	BlockPatches []*model.BlockPatch `json:"block_patches"`
}

// PatchBlocks applies patches[i] to the block blockIDs[i] in one request.
func (c *Client) PatchBlocks(ctx context.Context, blockIDs []string, patches []*model.BlockPatch) error {
	if len(blockIDs) != len(patches) {
		return fmt.Errorf("%w: ids=%d patches=%d", model.ErrLengthMismatch, len(blockIDs), len(patches))
	}

	body := blockPatchBatch{BlockIDs: blockIDs, BlockPatches: patches}

	return c.do(ctx, http.MethodPatch, c.teamPath()+"/blocks", body, nil)
}

// PatchBoard applies a partial update to one board.
func (c *Client) PatchBoard(ctx context.Context, boardID string, patch *model.BoardPatch) error {
	return c.do(ctx, http.MethodPatch, boardPath(boardID), patch, nil)
}

// PatchBoardsAndBlocks applies a composite patch touching boards and
// blocks in one atomic request.
func (c *Client) PatchBoardsAndBlocks(ctx context.Context, patch *model.BoardsAndBlocksPatch) error {
	return c.do(ctx, http.MethodPatch, "/api/v2/boards-and-blocks", patch, nil)
}

// InsertBlock creates one block on the board and returns the created
// entities with server-assigned fields.
func (c *Client) InsertBlock(ctx context.Context, boardID string, block model.Block) ([]model.Block, error) {
	return c.InsertBlocks(ctx, boardID, []model.Block{block}, "")
}

// InsertBlocks creates blocks on the board. A non-empty sourceBoardID
// tells the server to rewrite file references copied from that board.
func (c *Client) InsertBlocks(ctx context.Context, boardID string, blocks []model.Block, sourceBoardID string) ([]model.Block, error) {
	path := boardPath(boardID) + "/blocks"
	if sourceBoardID != "" {
		path += "?sourceBoardID=" + url.QueryEscape(sourceBoardID)
	}

	var created []model.Block
	if err := c.do(ctx, http.MethodPost, path, blocks, &created); err != nil {
		return nil, err
	}

	return created, nil
}

// DeleteBlock soft-deletes a block.
func (c *Client) DeleteBlock(ctx context.Context, boardID, blockID string) error {
	return c.do(ctx, http.MethodDelete, blockPath(boardID, blockID), nil, nil)
}

// UndeleteBlock restores a soft-deleted block.
func (c *Client) UndeleteBlock(ctx context.Context, boardID, blockID string) error {
	return c.do(ctx, http.MethodPost, blockPath(boardID, blockID)+"/undelete", nil, nil)
}

// CreateBoard creates a board and returns it with server-assigned fields.
func (c *Client) CreateBoard(ctx context.Context, board model.Board) (*model.Board, error) {
	var created model.Board
	if err := c.do(ctx, http.MethodPost, "/api/v2/boards", board, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// DeleteBoard soft-deletes a board.
func (c *Client) DeleteBoard(ctx context.Context, boardID string) error {
	return c.do(ctx, http.MethodDelete, boardPath(boardID), nil, nil)
}

// UndeleteBoard restores a soft-deleted board.
func (c *Client) UndeleteBoard(ctx context.Context, boardID string) error {
	return c.do(ctx, http.MethodPost, boardPath(boardID)+"/undelete", nil, nil)
}

// DuplicateBoard copies a board with all its blocks, optionally as a
// template, returning the new bundle.
func (c *Client) DuplicateBoard(ctx context.Context, boardID string, asTemplate bool) (*model.BoardsAndBlocks, error) {
	path := boardPath(boardID) + "/duplicate"
	if asTemplate {
		path += "?asTemplate=true"
	}

	var bundle model.BoardsAndBlocks
	if err := c.do(ctx, http.MethodPost, path, nil, &bundle); err != nil {
		return nil, err
	}

	return &bundle, nil
}

// DuplicateBlock copies a block subtree within its board, returning the
// new blocks.
func (c *Client) DuplicateBlock(ctx context.Context, boardID, blockID string, asTemplate bool) ([]model.Block, error) {
	path := blockPath(boardID, blockID) + "/duplicate"
	if asTemplate {
		path += "?asTemplate=true"
	}

	var blocks []model.Block
	if err := c.do(ctx, http.MethodPost, path, nil, &blocks); err != nil {
		return nil, err
	}

	return blocks, nil
}

// CreateBoardsAndBlocks atomically creates boards with their blocks.
func (c *Client) CreateBoardsAndBlocks(ctx context.Context, bab model.BoardsAndBlocks) (*model.BoardsAndBlocks, error) {
	var created model.BoardsAndBlocks
	if err := c.do(ctx, http.MethodPost, "/api/v2/boards-and-blocks", bab, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// deleteBoardsAndBlocksBody is the wire shape of the atomic delete.
type deleteBoardsAndBlocksBody struct {
	Boards []string `json:"boards"`
	Blocks []string `json:"blocks"`
}

// DeleteBoardsAndBlocks atomically deletes boards with their blocks.
func (c *Client) DeleteBoardsAndBlocks(ctx context.Context, boardIDs, blockIDs []string) error {
	body := deleteBoardsAndBlocksBody{Boards: boardIDs, Blocks: blockIDs}

	return c.do(ctx, http.MethodDelete, "/api/v2/boards-and-blocks", body, nil)
}

// GetUser retrieves a user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/v2/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// GetBoardMembers lists the memberships of a board.
func (c *Client) GetBoardMembers(ctx context.Context, boardID string) ([]model.BoardMember, error) {
	var members []model.BoardMember
	if err := c.do(ctx, http.MethodGet, boardPath(boardID)+"/members", nil, &members); err != nil {
		return nil, err
	}

	return members, nil
}

// subscription is the wire shape of a block-change subscription.
type subscription struct {
	BlockType      string `json:"blockType"`
	BlockID        string `json:"blockId"`
	SubscriberType string `json:"subscriberType"`
	SubscriberID   string `json:"subscriberId"`
}

// FollowBlock subscribes a user to change notifications for a block.
func (c *Client) FollowBlock(ctx context.Context, blockID, blockType, subscriberID string) error {
	body := subscription{
		BlockType:      blockType,
		BlockID:        blockID,
		SubscriberType: "user",
		SubscriberID:   subscriberID,
	}

	return c.do(ctx, http.MethodPost, "/api/v2/subscriptions", body, nil)
}

// UnfollowBlock removes a user's change subscription for a block.
func (c *Client) UnfollowBlock(ctx context.Context, blockID, subscriberID string) error {
	path := "/api/v2/subscriptions/" + url.PathEscape(blockID) + "/" + url.PathEscape(subscriberID)

	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func memberPath(member model.BoardMember) string {
	return boardPath(member.BoardID) + "/members/" + url.PathEscape(member.UserID)
}

// CreateBoardMember adds a user to a board.
func (c *Client) CreateBoardMember(ctx context.Context, member model.BoardMember) (*model.BoardMember, error) {
	var created model.BoardMember
	if err := c.do(ctx, http.MethodPost, boardPath(member.BoardID)+"/members", member, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// UpdateBoardMember replaces a board membership.
func (c *Client) UpdateBoardMember(ctx context.Context, member model.BoardMember) (*model.BoardMember, error) {
	var updated model.BoardMember
	if err := c.do(ctx, http.MethodPut, memberPath(member), member, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteBoardMember removes a user from a board.
func (c *Client) DeleteBoardMember(ctx context.Context, member model.BoardMember) error {
	return c.do(ctx, http.MethodDelete, memberPath(member), nil, nil)
}

// GetSidebarCategories lists the caller's sidebar categories for the
// configured team.
func (c *Client) GetSidebarCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.do(ctx, http.MethodGet, c.teamPath()+"/categories", nil, &categories); err != nil {
		return nil, err
	}

	return categories, nil
}

// CreateSidebarCategory creates a sidebar category.
func (c *Client) CreateSidebarCategory(ctx context.Context, category model.Category) (*model.Category, error) {
	var created model.Category
	if err := c.do(ctx, http.MethodPost, c.teamPath()+"/categories", category, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// UpdateSidebarCategory updates a sidebar category.
func (c *Client) UpdateSidebarCategory(ctx context.Context, category model.Category) (*model.Category, error) {
	var updated model.Category
	if err := c.do(ctx, http.MethodPut, c.teamPath()+"/categories/"+url.PathEscape(category.ID), category, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteSidebarCategory deletes a sidebar category.
func (c *Client) DeleteSidebarCategory(ctx context.Context, categoryID string) error {
	return c.do(ctx, http.MethodDelete, c.teamPath()+"/categories/"+url.PathEscape(categoryID), nil, nil)
}

// MoveBoardToCategory moves a board between sidebar categories. An empty
// fromCategoryID means the board was uncategorized.
func (c *Client) MoveBoardToCategory(ctx context.Context, boardID, toCategoryID, fromCategoryID string) error {
	path := c.teamPath() + "/categories/" + url.PathEscape(toCategoryID) + "/boards/" + url.PathEscape(boardID)
	body := map[string]string{"fromCategoryID": fromCategoryID}

	return c.do(ctx, http.MethodPost, path, body, nil)
}
