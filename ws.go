package boardkit

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/openboards/boardkit/pkg/model"
)

// Feed actions, mirrored from the boards server websocket protocol.
const (
	actionAuth            = "AUTH"
	actionSubscribeTeam   = "SUBSCRIBE_TEAM"
	actionUnsubscribeTeam = "UNSUBSCRIBE_TEAM"
	actionUpdateBoard     = "UPDATE_BOARD"
	actionUpdateBlock     = "UPDATE_BLOCK"
	actionUpdateMember    = "UPDATE_MEMBER"
	actionDeleteMember    = "UPDATE_MEMBER_DELETE"
)

const (
	// feedFlushInterval is how long updates are coalesced before they are
	// applied to the store in one batch.
	feedFlushInterval = 100 * time.Millisecond
	// feedReconnectDelay is the pause before redialing a dropped feed.
	feedReconnectDelay = 3 * time.Second
)

// feedMessage is the envelope every feed frame carries. Exactly one of
// the payload fields is set, selected by Action.
type feedMessage struct {
	Action string             `json:"action,omitempty"`
	TeamID string             `json:"teamId,omitempty"`
	Token  string             `json:"token,omitempty"`
	Block  *model.Block       `json:"block,omitempty"`
	Board  *model.Board       `json:"board,omitempty"`
	Member *model.BoardMember `json:"member,omitempty"`
}

// StoreUpdater receives the entity updates a feed decodes. *MemStore
// implements it.
type StoreUpdater interface {
	ApplyBoard(board model.Board)
	ApplyBlock(block model.Block)
	ApplyMember(member model.BoardMember)
	RemoveMember(member model.BoardMember)
}

// Feed keeps a store current by subscribing to the boards server update
// stream. Incoming updates are buffered briefly and applied as a batch,
// so a burst of frames triggers one change notification instead of
// dozens. A dropped connection is redialed until Close.
type Feed struct {
	url    string
	token  string
	teamID string

	store StoreUpdater
	log   zerolog.Logger

	// OnChange, when set before Open, runs after each applied batch.
	OnChange func()

	conn     *gorilla.Conn
	connLock sync.Mutex

	bufLock sync.Mutex
	pending []feedMessage
	timer   *time.Timer

	close     chan struct{}
	closeOnce sync.Once
}

// NewFeed prepares a feed for the team in cfg. Open must be called to
// start receiving updates.
func NewFeed(cfg Config, store StoreUpdater, log zerolog.Logger) *Feed {
	url := cfg.WebsocketURL
	if url == "" {
		url = strings.Replace(cfg.ServerURL, "http", "ws", 1)
	}

	return &Feed{
		url:    strings.TrimSuffix(url, "/") + "/ws",
		token:  cfg.Token,
		teamID: cfg.TeamID,
		store:  store,
		log:    log,
		close:  make(chan struct{}),
	}
}

// Open dials the feed, authenticates, subscribes to the team and starts
// the read loop.
func (f *Feed) Open(ctx context.Context) error {
	if err := f.dial(ctx); err != nil {
		return err
	}

	go f.readLoop()

	return nil
}

func (f *Feed) dial(ctx context.Context) error {
	dialer := gorilla.DefaultDialer
	dialer.EnableCompression = true

	conn, resp, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return statusFromResponse(resp, err)
	}

	f.connLock.Lock()
	f.conn = conn
	f.connLock.Unlock()

	if f.token != "" {
		if err := f.write(feedMessage{Action: actionAuth, Token: f.token}); err != nil {
			return err
		}
	}

	return f.write(feedMessage{Action: actionSubscribeTeam, TeamID: f.teamID})
}

// Close unsubscribes and tears the connection down. It is safe to call
// more than once.
func (f *Feed) Close() error {
	f.closeOnce.Do(func() { close(f.close) })

	f.connLock.Lock()
	conn := f.conn
	f.connLock.Unlock()
	if conn == nil {
		return nil
	}

	_ = f.write(feedMessage{Action: actionUnsubscribeTeam, TeamID: f.teamID})
	_ = conn.WriteMessage(gorilla.CloseMessage,
		gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""))

	return conn.Close()
}

func (f *Feed) write(msg feedMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	f.connLock.Lock()
	defer f.connLock.Unlock()

	return f.conn.WriteMessage(gorilla.TextMessage, data)
}

func (f *Feed) readLoop() {
	for {
		f.connLock.Lock()
		conn := f.conn
		f.connLock.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-f.close:
				return
			default:
			}

			f.log.Warn().Err(err).Msg("feed connection lost, reconnecting")
			if !f.redial() {
				return
			}
			continue
		}

		var msg feedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			f.log.Error().Err(err).Msg("cannot parse feed message")
			continue
		}
		f.enqueue(msg)
	}
}

func (f *Feed) redial() bool {
	for {
		select {
		case <-f.close:
			return false
		case <-time.After(feedReconnectDelay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), feedReconnectDelay)
		err := f.dial(ctx)
		cancel()
		if err == nil {
			return true
		}
		f.log.Warn().Err(err).Msg("feed redial failed")
	}
}

// enqueue buffers one update and arms the flush timer on the first
// update of a batch.
func (f *Feed) enqueue(msg feedMessage) {
	f.bufLock.Lock()
	defer f.bufLock.Unlock()

	f.pending = append(f.pending, msg)
	if f.timer == nil {
		f.timer = time.AfterFunc(feedFlushInterval, f.flush)
	}
}

// flush applies every buffered update to the store and fires OnChange
// once.
func (f *Feed) flush() {
	f.bufLock.Lock()
	batch := f.pending
	f.pending = nil
	f.timer = nil
	f.bufLock.Unlock()

	if len(batch) == 0 {
		return
	}

	for _, msg := range batch {
		f.apply(msg)
	}

	if f.OnChange != nil {
		f.OnChange()
	}
}

func (f *Feed) apply(msg feedMessage) {
	switch msg.Action {
	case actionUpdateBlock:
		if msg.Block != nil {
			f.store.ApplyBlock(*msg.Block)
		}
	case actionUpdateBoard:
		if msg.Board != nil {
			f.store.ApplyBoard(*msg.Board)
		}
	case actionUpdateMember:
		if msg.Member != nil {
			f.store.ApplyMember(*msg.Member)
		}
	case actionDeleteMember:
		if msg.Member != nil {
			f.store.RemoveMember(*msg.Member)
		}
	default:
		f.log.Debug().Str("action", msg.Action).Msg("ignoring feed message")
	}
}

// statusFromResponse maps a failed websocket upgrade to an APIError so
// callers can use the same error helpers for REST and feed failures.
func statusFromResponse(resp *http.Response, err error) error {
	if resp == nil {
		return err
	}

	return &APIError{StatusCode: resp.StatusCode, Body: err.Error()}
}
