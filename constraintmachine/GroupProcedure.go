package constraintmachine

import "github.com/atomledger/atomengine/model"

// IndexedParticle is a claim together with its position in the group.
type IndexedParticle struct {
	Index int
	model.SpunParticle
}

// GroupView is what a group procedure sees of one particle group: the claims left over
// by pairwise dispatch, and the full group for side-effect constraints.
type GroupView struct {
	Index     int
	Remaining []IndexedParticle
	Group     model.ParticleGroup
}

// GroupProcedure validates claims across a whole group rather than pair by pair.
type GroupProcedure interface {
	Name() string
	// Governs reports whether claims of type t are left to this procedure.
	Governs(t model.ParticleType) bool
	Validate(view GroupView, witness WitnessData) *CMError
}
