package errors

import (
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// SpinConflictErrData describes an atom losing a spin claim to an already committed atom.
type SpinConflictErrData struct {
	ParticleHash      string `json:"particleHash"`
	Spin              string `json:"spin"`
	AtomID            string `json:"atomId"`
	ConflictingAtomID string `json:"conflictingAtomId"`
}

func (e *SpinConflictErrData) Error() string {
	return fmt.Sprintf("particle %s spin %s of atom %s already claimed by atom %s", e.ParticleHash, e.Spin, e.AtomID, e.ConflictingAtomID)
}

func (e *SpinConflictErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

func (e *SpinConflictErrData) GetData(key string) interface{} {
	switch key {
	case "particleHash":
		return e.ParticleHash
	case "spin":
		return e.Spin
	case "atomId":
		return e.AtomID
	case "conflictingAtomId":
		return e.ConflictingAtomID
	}

	return nil
}

func (e *SpinConflictErrData) SetData(string, interface{}) {}

func NewSpinConflictError(particleHash chainhash.Hash, spin string, atomID, conflictingAtomID chainhash.Hash) error {
	data := &SpinConflictErrData{
		ParticleHash:      particleHash.String(),
		Spin:              spin,
		AtomID:            atomID.String(),
		ConflictingAtomID: conflictingAtomID.String(),
	}

	return NewWithData(ERR_CONFLICT, data.Error(), data)
}
