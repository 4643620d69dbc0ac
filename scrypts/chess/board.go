package chess

import (
	"fmt"

	"github.com/atomledger/atomengine/model"
)

const BoardParticleType model.ParticleType = "chess.board"

type GameState string

const (
	GameStateInitial  GameState = "initial"
	GameStateActive   GameState = "active"
	GameStateWhiteWon GameState = "whiteWon"
	GameStateBlackWon GameState = "blackWon"
	GameStateDraw     GameState = "draw"
)

func (s GameState) Valid() bool {
	switch s {
	case GameStateInitial, GameStateActive, GameStateWhiteWon, GameStateBlackWon, GameStateDraw:
		return true
	default:
		return false
	}
}

func (s GameState) IsFinal() bool {
	return s != GameStateActive && s != GameStateInitial
}

// BoardParticle is the position of one game after LastMove, given in UCI notation.
// An initial board is virtually UP, the first move consumes it.
type BoardParticle struct {
	BoardFen      string        `json:"boardFen"`
	GameState     GameState     `json:"gameState"`
	GameAddress   model.Address `json:"gameAddress"`
	WhiteAddress  model.Address `json:"whiteAddress"`
	BlackAddress  model.Address `json:"blackAddress"`
	GameID        string        `json:"gameId"`
	Nonce         int64         `json:"nonce"`
	LastMoveWhite bool          `json:"lastMoveWhite"`
	LastMove      string        `json:"lastMove"`
}

func (p *BoardParticle) ParticleType() model.ParticleType {
	return BoardParticleType
}

func (p *BoardParticle) String() string {
	return fmt.Sprintf("BoardParticle{boardState='%s', gameAddress=%s, whiteAddress=%s, blackAddress=%s, gameId=%s, nonce=%d, lastMoveWhite=%t}",
		p.BoardFen, p.GameAddress, p.WhiteAddress, p.BlackAddress, p.GameID, p.Nonce, p.LastMoveWhite)
}
