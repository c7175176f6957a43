// Package gateway bridges browser websockets to the game client: one
// connection gets one demo wallet, a lobby client, and, once seated, a
// game client whose reconciled state is pushed as JSON frames.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/htvnhe/fhe-poker/client"
	"github.com/htvnhe/fhe-poker/fhe"
	"github.com/htvnhe/fhe-poker/history"
	"github.com/htvnhe/fhe-poker/holdem"
	"github.com/htvnhe/fhe-poker/ledger"
	"github.com/htvnhe/fhe-poker/wallet"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: Restrict in production
	},
}

// Config wires the gateway's collaborators.
type Config struct {
	Ledger    ledger.Ledger
	Transport fhe.Transport
	Contract  wallet.Address
	ChainID   uint64
	History   history.Service
	// ClientOptions tunes poll cadence, mainly for tests.
	ClientOptions client.Options
}

// Gateway manages WebSocket connections.
type Gateway struct {
	cfg Config

	mu          sync.RWMutex
	connections map[string]*Connection
}

func New(cfg Config) *Gateway {
	return &Gateway{
		cfg:         cfg,
		connections: make(map[string]*Connection),
	}
}

// RegisterRoutes attaches the websocket and health endpoints.
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", g.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

// Connection represents one WebSocket client with its session wallet.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Gateway *Gateway

	ctx    context.Context
	cancel context.CancelFunc

	w     *wallet.Wallet
	relay *fhe.Relayer
	lobby *client.LobbyClient

	gameMu     sync.Mutex
	game       *client.GameClient
	gameCancel context.CancelFunc
	prevPhase  holdem.Phase
}

// HandleWebSocket upgrades the request and spins up the session.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	// Demo wallet per connection; a production gateway would bind the
	// browser's own wallet instead.
	sw, err := wallet.Generate(g.cfg.ChainID)
	if err != nil {
		log.Printf("[Gateway] wallet: %v", err)
		conn.Close()
		return
	}
	relay := fhe.NewRelayer(g.cfg.Transport, fhe.Config{ChainID: g.cfg.ChainID})

	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		ID:      uuid.NewString(),
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Gateway: g,
		ctx:     ctx,
		cancel:  cancel,
		w:       sw,
		relay:   relay,
		lobby:   client.NewLobbyClient(g.cfg.Ledger, relay, relay, sw, g.cfg.Contract, g.cfg.ClientOptions),
	}
	if err := relay.Init(ctx, sw); err != nil {
		log.Printf("[Gateway] adapter init for %s: %v", c.ID, err)
	}

	g.mu.Lock()
	g.connections[c.ID] = c
	g.mu.Unlock()
	log.Printf("[Gateway] Client connected: %s (%s), total: %d", c.ID, sw.Address(), len(g.connections))

	go c.lobby.Run(ctx)
	go c.readPump()
	go c.writePump()

	c.push(ServerFrame{Type: FrameHello, Address: string(sw.Address())})
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}
		c.handleFrame(message)
	}
}

func (c *Connection) handleFrame(data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.sendError(1, "invalid message format")
		return
	}

	switch frame.Type {
	case FrameListTables:
		c.lobby.Refresh(c.ctx)
		c.push(ServerFrame{Type: FrameTables, Tables: toWireTables(c.lobby.Tables())})

	case FrameCreateTable:
		id, err := c.lobby.CreateTable(c.ctx, frame.SmallBlind, frame.BigBlind)
		if err != nil {
			c.sendError(2, err.Error())
			return
		}
		c.push(ServerFrame{Type: FrameCreateTable, TableID: uint64(id)})

	case FrameJoinTable:
		if err := c.lobby.Join(c.ctx, ledger.TableID(frame.TableID), frame.BuyIn); err != nil {
			c.sendError(3, err.Error())
		}

	case FrameEnterTable:
		c.handleEnter(ledger.TableID(frame.TableID))

	case FrameStartGame:
		c.withGame(4, func(gc *client.GameClient) error { return gc.Start(c.ctx) })

	case FrameAction:
		c.handleAction(frame.Action)

	case FrameReveal:
		c.withGame(6, func(gc *client.GameClient) error { return gc.Reveal(c.ctx) })

	case FrameLeaveTable:
		c.handleLeave()

	case FrameHistory:
		recs, err := c.Gateway.cfg.History.ListRecent(c.ctx, frame.TableID, frame.Limit)
		if err != nil {
			c.sendError(7, err.Error())
			return
		}
		c.push(ServerFrame{Type: FrameHistory, TableID: frame.TableID, Records: recs})

	default:
		log.Printf("[Gateway] Unknown frame type: %q", frame.Type)
	}
}

func (c *Connection) handleEnter(id ledger.TableID) {
	gc, err := c.lobby.Enter(c.ctx, id)
	if err != nil {
		c.sendError(4, err.Error())
		return
	}

	c.gameMu.Lock()
	if c.gameCancel != nil {
		c.gameCancel()
		c.game.Close()
	}
	gameCtx, gameCancel := context.WithCancel(c.ctx)
	c.game = gc
	c.gameCancel = gameCancel
	c.prevPhase = holdem.PhaseWaiting
	c.gameMu.Unlock()

	gc.OnUpdate(func(st client.State) {
		c.pushState(st)
	})
	go gc.Run(gameCtx)
	log.Printf("[Gateway] %s entered table %d", c.ID, id)
}

func (c *Connection) handleAction(action string) {
	c.withGame(5, func(gc *client.GameClient) error {
		switch action {
		case "fold":
			return gc.Fold(c.ctx)
		case "check":
			return gc.Check(c.ctx)
		case "call":
			return gc.Call(c.ctx)
		case "raise":
			return gc.Raise(c.ctx)
		default:
			return holdem.ErrInvalidState("unknown action " + action)
		}
	})
}

func (c *Connection) handleLeave() {
	c.gameMu.Lock()
	gc, cancel := c.game, c.gameCancel
	c.game, c.gameCancel = nil, nil
	c.gameMu.Unlock()
	if gc == nil {
		return
	}
	cancel()
	if err := gc.Leave(c.ctx); err != nil {
		c.sendError(8, err.Error())
	}
}

func (c *Connection) withGame(code int, fn func(*client.GameClient) error) {
	c.gameMu.Lock()
	gc := c.game
	c.gameMu.Unlock()
	if gc == nil {
		c.sendError(code, "not at a table")
		return
	}
	if err := fn(gc); err != nil {
		c.sendError(code, err.Error())
	}
}

// pushState forwards the reconciled state and records the hand when it
// settles. Only the winning seat's connection writes the record, so a
// hand lands in history once.
func (c *Connection) pushState(st client.State) {
	c.gameMu.Lock()
	prev := c.prevPhase
	c.prevPhase = st.Phase
	c.gameMu.Unlock()

	if st.Phase == holdem.PhaseFinished && prev != holdem.PhaseFinished &&
		st.WinnerSeat != ledger.NoSeat && st.WinnerSeat == st.MySeat && c.Gateway.cfg.History != nil {
		winnerAddr := ""
		if st.WinnerSeat < len(st.Addresses) {
			winnerAddr = string(st.Addresses[st.WinnerSeat])
		}
		_, err := c.Gateway.cfg.History.RecordHand(c.ctx, history.HandRecord{
			TableID:    uint64(st.TableID),
			WinnerSeat: st.WinnerSeat,
			WinnerAddr: winnerAddr,
			Pot:        st.Pot,
		})
		if err != nil {
			log.Printf("[Gateway] record hand: %v", err)
		}
	}

	c.push(ServerFrame{Type: FrameState, TableID: uint64(st.TableID), State: toWireState(st)})
}

func (c *Connection) push(frame ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[Gateway] marshal frame: %v", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		// Drop if buffer full
	}
}

func (c *Connection) sendError(code int, msg string) {
	c.push(ServerFrame{Type: FrameError, Code: code, Message: msg})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	c.cancel()
	c.gameMu.Lock()
	if c.game != nil {
		c.game.Close()
	}
	c.gameMu.Unlock()
	c.relay.Dispose()

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.connections, c.ID)
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, len(g.connections))
}
