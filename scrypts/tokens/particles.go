package tokens

import (
	"github.com/atomledger/atomengine/model"
	"github.com/holiman/uint256"
)

const (
	DefinitionParticleType    model.ParticleType = "tokens.definition"
	TransferrableParticleType model.ParticleType = "tokens.transferrable"
)

// DefinitionParticle creates a token type named by its RRI. The owner of the RRI
// may mint any supply of it.
type DefinitionParticle struct {
	RRI         model.RRI `json:"rri"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

func NewDefinitionParticle(rri model.RRI, name, description string) *DefinitionParticle {
	return &DefinitionParticle{RRI: rri, Name: name, Description: description}
}

func (p *DefinitionParticle) ParticleType() model.ParticleType {
	return DefinitionParticleType
}

// TransferrableParticle is an amount of one token type held by an address.
type TransferrableParticle struct {
	Address            model.Address `json:"address"`
	TokenDefinitionRef model.RRI     `json:"tokenDefinitionReference"`
	Amount             *uint256.Int  `json:"amount"`
	Nonce              uint64        `json:"nonce"`
}

func NewTransferrableParticle(address model.Address, token model.RRI, amount *uint256.Int, nonce uint64) *TransferrableParticle {
	return &TransferrableParticle{Address: address, TokenDefinitionRef: token, Amount: amount, Nonce: nonce}
}

func (p *TransferrableParticle) ParticleType() model.ParticleType {
	return TransferrableParticleType
}
