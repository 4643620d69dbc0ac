// Package chess registers chess games played move by move on the ledger. Every move
// consumes the previous board and creates the next one; the rules are checked with
// github.com/notnil/chess.
package chess

import (
	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/notnil/chess"
)

// StartingFen is the board every game starts from.
const StartingFen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type Scrypt struct{}

func (Scrypt) Name() string {
	return "chess"
}

func (Scrypt) Main(sys atomos.SysCalls) error {
	if err := sys.RegisterParticle(atomos.ParticleDefinition{
		Type:        BoardParticleType,
		Factory:     func() model.Particle { return &BoardParticle{} },
		StaticCheck: staticCheck,
		Virtualize: func(p model.Particle) bool {
			return p.(*BoardParticle).GameState == GameStateInitial
		},
	}); err != nil {
		return err
	}

	token := constraintmachine.NewTransitionToken(BoardParticleType, constraintmachine.VoidUsedType, BoardParticleType, constraintmachine.VoidUsedType)

	return sys.CreateTransition(token, MoveProcedure())
}

// MoveProcedure plays output.LastMove on the input board. The player to move signs.
func MoveProcedure() *constraintmachine.Procedure {
	return &constraintmachine.Procedure{
		PreconditionF: func(input model.Particle, _ constraintmachine.UsedData, output model.Particle, _ constraintmachine.UsedData) error {
			in, out := input.(*BoardParticle), output.(*BoardParticle)

			if err := checkSameGame(in, out); err != nil {
				return err
			}

			if err := checkTurn(in, out); err != nil {
				return err
			}

			return checkMoveAllowed(in, out)
		},
		InputWitness: func(input model.Particle, witness constraintmachine.WitnessData) error {
			in := input.(*BoardParticle)

			player := in.WhiteAddress
			if nextSide(in) == chess.Black {
				player = in.BlackAddress
			}

			if !witness.IsSignedBy(player) {
				return errors.NewProcedureError("move in game %s not signed by %s", in.GameID, player)
			}

			return nil
		},
	}
}

func staticCheck(p model.Particle) error {
	board, ok := p.(*BoardParticle)
	if !ok || board == nil {
		return errors.NewStatelessError("particle is not a chess board")
	}

	if !board.GameState.Valid() {
		return errors.NewStatelessError("unknown game state %q", board.GameState)
	}

	if board.GameAddress.IsZero() || board.WhiteAddress.IsZero() || board.BlackAddress.IsZero() {
		return errors.NewStatelessError("board of game %s is missing an address", board.GameID)
	}

	return checkBoardFormat(board.BoardFen)
}

func checkBoardFormat(fen string) error {
	game, err := loadGame(fen)
	if err != nil {
		return errors.NewStatelessError("could not parse board '%s'", fen, err)
	}

	if parsed := game.Position().String(); parsed != fen {
		return errors.NewStatelessError("parsed board state does not equal given: '%s' != '%s'", parsed, fen)
	}

	return nil
}

func loadGame(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}

	return chess.NewGame(opt), nil
}

func nextSide(board *BoardParticle) chess.Color {
	if board.LastMoveWhite {
		return chess.Black
	}

	return chess.White
}

func checkSameGame(in, out *BoardParticle) error {
	switch {
	case in.GameAddress != out.GameAddress:
		return errors.NewProcedureError("boards have different addresses: %s vs %s", in.GameAddress, out.GameAddress)
	case in.GameID != out.GameID:
		return errors.NewProcedureError("boards have different ids: %s vs %s", in.GameID, out.GameID)
	case in.WhiteAddress != out.WhiteAddress:
		return errors.NewProcedureError("boards have different white address: %s vs %s", in.WhiteAddress, out.WhiteAddress)
	case in.BlackAddress != out.BlackAddress:
		return errors.NewProcedureError("boards have different black address: %s vs %s", in.BlackAddress, out.BlackAddress)
	}

	return nil
}

// checkTurn applies to the first move as well: an initial board has white to move.
func checkTurn(in, out *BoardParticle) error {
	if in.GameState.IsFinal() {
		return errors.NewProcedureError("game already ended: %s", in.GameState)
	}

	side := nextSide(in)
	if out.LastMoveWhite != (side == chess.White) {
		return errors.NewProcedureError("side %s cannot move twice", side.Name())
	}

	return nil
}

func checkMoveAllowed(in, out *BoardParticle) error {
	game, err := loadGame(in.BoardFen)
	if err != nil {
		return errors.NewProcedureError("unable to verify move '%s' from '%s'", out.LastMove, in.BoardFen, err)
	}

	side := nextSide(in)
	if turn := game.Position().Turn(); turn != side {
		return errors.NewProcedureError("board '%s' has %s to move, not %s", in.BoardFen, turn.Name(), side.Name())
	}

	move, err := chess.UCINotation{}.Decode(game.Position(), out.LastMove)
	if err != nil {
		return errors.NewProcedureError("move %s is not allowed on '%s'", out.LastMove, in.BoardFen, err)
	}

	if err = game.Move(move); err != nil {
		return errors.NewProcedureError("move %s is not allowed on '%s'", out.LastMove, in.BoardFen, err)
	}

	if next := game.Position().String(); next != out.BoardFen {
		return errors.NewProcedureError("input board with move does not equal next board: '%s' + '%s' != '%s'", in.BoardFen, out.LastMove, out.BoardFen)
	}

	if state := stateOf(game); state != out.GameState {
		return errors.NewProcedureError("next game state does not equal claimed next state: %s != %s", state, out.GameState)
	}

	return nil
}

func stateOf(game *chess.Game) GameState {
	switch game.Outcome() {
	case chess.WhiteWon:
		return GameStateWhiteWon
	case chess.BlackWon:
		return GameStateBlackWon
	case chess.Draw:
		return GameStateDraw
	default:
		return GameStateActive
	}
}
