package boardkit

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboards/boardkit/pkg/model"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   []byte
}

// recordingServer captures every request and answers with the canned
// status and body.
func recordingServer(status int, response any) (*httptest.Server, *[]recordedRequest) {
	requests := &[]recordedRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*requests = append(*requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			body:   body,
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if response != nil {
			_ = json.NewEncoder(w).Encode(response)
		}
	}))

	return srv, requests
}

func clientFor(srv *httptest.Server) *Client {
	return NewClient(Config{
		ServerURL: srv.URL,
		Token:     "token-1",
		TeamID:    "team-1",
	})
}

func TestGetBoard(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, model.Board{ID: "board-1", Title: "Roadmap"})
	defer srv.Close()

	board, err := clientFor(srv).GetBoard(context.Background(), "board-1")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", board.Title)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/api/v2/boards/board-1", req.path)
	assert.Equal(t, "Bearer token-1", req.auth)
}

func TestGetBlocksForBoardRequestsAll(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, []model.Block{{ID: "card-1"}})
	defer srv.Close()

	blocks, err := clientFor(srv).GetBlocksForBoard(context.Background(), "board-1")
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	req := (*requests)[0]
	assert.Equal(t, "/api/v2/boards/board-1/blocks", req.path)
	assert.Equal(t, "all=true", req.query)
}

func TestPatchBlock(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, nil)
	defer srv.Close()

	title := "renamed"
	err := clientFor(srv).PatchBlock(context.Background(), "board-1", "card-1", &model.BlockPatch{Title: &title})
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPatch, req.method)
	assert.Equal(t, "/api/v2/boards/board-1/blocks/card-1", req.path)
	assert.JSONEq(t, `{"title":"renamed"}`, string(req.body))
}

func TestPatchBlocksBatch(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, nil)
	defer srv.Close()

	title := "renamed"
	client := clientFor(srv)

	err := client.PatchBlocks(context.Background(),
		[]string{"card-1"}, []*model.BlockPatch{{Title: &title}})
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "/api/v2/teams/team-1/blocks", req.path)
	assert.JSONEq(t, `{"block_ids":["card-1"],"block_patches":[{"title":"renamed"}]}`, string(req.body))

	err = client.PatchBlocks(context.Background(), []string{"card-1", "card-2"}, []*model.BlockPatch{{Title: &title}})
	require.ErrorIs(t, err, model.ErrLengthMismatch)
}

func TestInsertBlocksWithSource(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, []model.Block{{ID: "srv-1"}})
	defer srv.Close()

	created, err := clientFor(srv).InsertBlocks(context.Background(), "board-1",
		[]model.Block{{Type: model.TypeCard}}, "board-0")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created[0].ID)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/v2/boards/board-1/blocks", req.path)
	assert.Equal(t, "sourceBoardID=board-0", req.query)
}

func TestUndeleteBlock(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, nil)
	defer srv.Close()

	err := clientFor(srv).UndeleteBlock(context.Background(), "board-1", "card-1")
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/v2/boards/board-1/blocks/card-1/undelete", req.path)
}

func TestDuplicateBoardAsTemplate(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, model.BoardsAndBlocks{
		Boards: []model.Board{{ID: "srv-1"}},
	})
	defer srv.Close()

	bundle, err := clientFor(srv).DuplicateBoard(context.Background(), "board-1", true)
	require.NoError(t, err)
	require.Len(t, bundle.Boards, 1)

	req := (*requests)[0]
	assert.Equal(t, "/api/v2/boards/board-1/duplicate", req.path)
	assert.Equal(t, "asTemplate=true", req.query)
}

func TestDeleteBoardsAndBlocks(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, nil)
	defer srv.Close()

	err := clientFor(srv).DeleteBoardsAndBlocks(context.Background(),
		[]string{"board-1"}, []string{"card-1", "view-1"})
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodDelete, req.method)
	assert.Equal(t, "/api/v2/boards-and-blocks", req.path)
	assert.JSONEq(t, `{"boards":["board-1"],"blocks":["card-1","view-1"]}`, string(req.body))
}

func TestBoardMemberPaths(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, model.BoardMember{BoardID: "board-1", UserID: "user-1"})
	defer srv.Close()

	client := clientFor(srv)
	member := model.BoardMember{BoardID: "board-1", UserID: "user-1", SchemeEditor: true}

	_, err := client.CreateBoardMember(context.Background(), member)
	require.NoError(t, err)
	_, err = client.UpdateBoardMember(context.Background(), member)
	require.NoError(t, err)
	err = client.DeleteBoardMember(context.Background(), member)
	require.NoError(t, err)

	require.Len(t, *requests, 3)
	assert.Equal(t, "/api/v2/boards/board-1/members", (*requests)[0].path)
	assert.Equal(t, "/api/v2/boards/board-1/members/user-1", (*requests)[1].path)
	assert.Equal(t, http.MethodPut, (*requests)[1].method)
	assert.Equal(t, "/api/v2/boards/board-1/members/user-1", (*requests)[2].path)
	assert.Equal(t, http.MethodDelete, (*requests)[2].method)
}

func TestMoveBoardToCategory(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, nil)
	defer srv.Close()

	err := clientFor(srv).MoveBoardToCategory(context.Background(), "board-1", "cat-2", "cat-1")
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, "/api/v2/teams/team-1/categories/cat-2/boards/board-1", req.path)
	assert.JSONEq(t, `{"fromCategoryID":"cat-1"}`, string(req.body))
}

func TestFollowAndUnfollowBlock(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, nil)
	defer srv.Close()

	client := clientFor(srv)
	require.NoError(t, client.FollowBlock(context.Background(), "card-1", "card", "user-1"))
	require.NoError(t, client.UnfollowBlock(context.Background(), "card-1", "user-1"))

	require.Len(t, *requests, 2)
	assert.Equal(t, http.MethodPost, (*requests)[0].method)
	assert.Equal(t, "/api/v2/subscriptions", (*requests)[0].path)
	assert.JSONEq(t,
		`{"blockType":"card","blockId":"card-1","subscriberType":"user","subscriberId":"user-1"}`,
		string((*requests)[0].body))
	assert.Equal(t, http.MethodDelete, (*requests)[1].method)
	assert.Equal(t, "/api/v2/subscriptions/card-1/user-1", (*requests)[1].path)
}

func TestGetBoardMembers(t *testing.T) {
	srv, requests := recordingServer(http.StatusOK, []model.BoardMember{{BoardID: "board-1", UserID: "user-1"}})
	defer srv.Close()

	members, err := clientFor(srv).GetBoardMembers(context.Background(), "board-1")
	require.NoError(t, err)
	require.Len(t, members, 1)

	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/api/v2/boards/board-1/members", req.path)
}

func TestErrorResponsesSurfaceAsAPIError(t *testing.T) {
	srv, _ := recordingServer(http.StatusNotFound, nil)
	defer srv.Close()

	_, err := clientFor(srv).GetBoard(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.True(t, IsNotFound(err))
}
