package gateway

import (
	"github.com/htvnhe/fhe-poker/client"
	"github.com/htvnhe/fhe-poker/history"
	"github.com/htvnhe/fhe-poker/ledger"
)

// Inbound frame types.
const (
	FrameListTables  = "listTables"
	FrameCreateTable = "createTable"
	FrameJoinTable   = "joinTable"
	FrameEnterTable  = "enterTable"
	FrameStartGame   = "startGame"
	FrameAction      = "action"
	FrameReveal      = "reveal"
	FrameLeaveTable  = "leaveTable"
	FrameHistory     = "history"
)

// Outbound frame types.
const (
	FrameHello  = "hello"
	FrameTables = "tables"
	FrameState  = "state"
	FrameError  = "error"
)

type ClientFrame struct {
	Type       string `json:"type"`
	TableID    uint64 `json:"tableId,omitempty"`
	SmallBlind uint64 `json:"smallBlind,omitempty"`
	BigBlind   uint64 `json:"bigBlind,omitempty"`
	BuyIn      uint64 `json:"buyIn,omitempty"`
	Action     string `json:"action,omitempty"` // fold | check | call | raise
	Limit      int    `json:"limit,omitempty"`
}

type ServerFrame struct {
	Type    string               `json:"type"`
	Address string               `json:"address,omitempty"`
	Tables  []WireTable          `json:"tables,omitempty"`
	TableID uint64               `json:"tableId,omitempty"`
	State   *WireState           `json:"state,omitempty"`
	Records []history.HandRecord `json:"records,omitempty"`
	Code    int                  `json:"code,omitempty"`
	Message string               `json:"message,omitempty"`
}

type WireTable struct {
	ID          uint64 `json:"id"`
	Phase       string `json:"phase"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	SmallBlind  uint64 `json:"smallBlind"`
	BigBlind    uint64 `json:"bigBlind"`
}

type WireState struct {
	TableID      uint64   `json:"tableId"`
	Phase        string   `json:"phase"`
	Pot          uint64   `json:"pot"`
	CurBet       uint64   `json:"curBet"`
	SmallBlind   uint64   `json:"smallBlind"`
	BigBlind     uint64   `json:"bigBlind"`
	Addresses    []string `json:"addresses"`
	Bets         []uint64 `json:"bets"`
	Folded       []bool   `json:"folded"`
	Community    []uint8  `json:"community"` // 0 = undealt slot
	MySeat       int      `json:"mySeat"`
	MyTurn       bool     `json:"myTurn"`
	CurrentActor int      `json:"currentActor"`
	HoleCards    []uint8  `json:"holeCards"` // decrypted locally, only pushed to the owner
	RaiseAmount  uint64   `json:"raiseAmount"`
	WinnerSeat   int      `json:"winnerSeat"`
	Revealed     []bool   `json:"revealed"`
}

func toWireTables(in []ledger.TableInfo) []WireTable {
	out := make([]WireTable, 0, len(in))
	for _, t := range in {
		out = append(out, WireTable{
			ID:          uint64(t.ID),
			Phase:       t.Phase.String(),
			PlayerCount: t.PlayerCount,
			MaxPlayers:  t.MaxPlayers,
			SmallBlind:  t.SmallBlind,
			BigBlind:    t.BigBlind,
		})
	}
	return out
}

func toWireState(st client.State) *WireState {
	out := &WireState{
		TableID:      uint64(st.TableID),
		Phase:        st.Phase.String(),
		Pot:          st.Pot,
		CurBet:       st.CurBet,
		SmallBlind:   st.SmallBlind,
		BigBlind:     st.BigBlind,
		Bets:         st.Bets,
		Folded:       st.Folded,
		MySeat:       st.MySeat,
		MyTurn:       st.MyTurn,
		CurrentActor: st.CurrentActor,
		RaiseAmount:  st.CurBet + 2*st.BigBlind,
		WinnerSeat:   st.WinnerSeat,
		Revealed:     st.Revealed,
	}
	for _, a := range st.Addresses {
		out.Addresses = append(out.Addresses, string(a))
	}
	for _, c := range st.Community {
		out.Community = append(out.Community, uint8(c))
	}
	for _, c := range st.HoleCards {
		out.HoleCards = append(out.HoleCards, uint8(c))
	}
	return out
}
