package atomos

import (
	"context"
	"testing"

	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/ulogger"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	coinType   model.ParticleType = "test.coin"
	issuerType model.ParticleType = "test.issuer"
)

type coinParticle struct {
	Owner  model.Address `json:"owner"`
	Amount *uint256.Int  `json:"amount"`
	Nonce  uint64        `json:"nonce"`
}

func (p *coinParticle) ParticleType() model.ParticleType { return coinType }

type issuerParticle struct {
	Owner model.Address `json:"owner"`
	Name  string        `json:"name"`
}

func (p *issuerParticle) ParticleType() model.ParticleType { return issuerType }

type coinScrypt struct{}

func (coinScrypt) Name() string { return "coins" }

func (coinScrypt) Main(sys SysCalls) error {
	if err := sys.RegisterParticle(ParticleDefinition{
		Type:    coinType,
		Factory: func() model.Particle { return &coinParticle{} },
	}); err != nil {
		return err
	}

	if err := sys.RegisterParticle(ParticleDefinition{
		Type:    issuerType,
		Factory: func() model.Particle { return &issuerParticle{} },
	}); err != nil {
		return err
	}

	issue := constraintmachine.NewTransitionToken(RRIParticleType, constraintmachine.VoidUsedType, issuerType, constraintmachine.VoidUsedType)
	if err := sys.CreateTransition(issue, &constraintmachine.Procedure{
		PreconditionF: func(input model.Particle, _ constraintmachine.UsedData, output model.Particle, _ constraintmachine.UsedData) error {
			if input.(*RRIParticle).RRI.Address != output.(*issuerParticle).Owner {
				return errors.NewProcedureError("issuer must own the rri")
			}

			return nil
		},
		InputWitness: RRIOwnerSignature(),
	}); err != nil {
		return err
	}

	return sys.CreateFungibleTransition(FungibleTransition{
		ParticleType: coinType,
		Amount: func(p model.Particle) *uint256.Int {
			return p.(*coinParticle).Amount
		},
		Formulas: map[model.ParticleType]FungibleFormula{
			coinType: {
				Witness: constraintmachine.SignedBy(func(p model.Particle) model.Address {
					return p.(*coinParticle).Owner
				}),
			},
		},
		InitialWith: &InitialWithConstraint{
			ParticleType: issuerType,
			Check: func(output, other model.Particle, _ constraintmachine.WitnessData) error {
				if output.(*coinParticle).Owner != other.(*issuerParticle).Owner {
					return errors.NewProcedureError("issuer does not own the coin")
				}

				return nil
			},
		},
	})
}

type emptyReader struct{}

func (emptyReader) Exists(context.Context, model.SpunParticle) (bool, error) {
	return false, nil
}

func newKey(t *testing.T, seed byte) *bec.PrivateKey {
	t.Helper()

	b := make([]byte, 32)
	b[0] = 0x02
	b[31] = seed

	key, _ := bec.PrivateKeyFromBytes(b)
	require.NotNil(t, key)

	return key
}

func buildMachine(t *testing.T) (*constraintmachine.ConstraintMachine, *model.Codec) {
	t.Helper()

	os := New(ulogger.TestLogger{})
	require.NoError(t, os.Load(coinScrypt{}))

	cm, codec, err := os.Build()
	require.NoError(t, err)

	return cm, codec
}

func coin(owner model.Address, amount uint64, nonce uint64) *coinParticle {
	return &coinParticle{Owner: owner, Amount: uint256.NewInt(amount), Nonce: nonce}
}

func TestRegistry(t *testing.T) {
	os := New(ulogger.TestLogger{})
	require.NoError(t, os.Load(coinScrypt{}))
	assert.Equal(t, []string{"coins"}, os.Scrypts())

	err := os.Load(coinScrypt{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))

	err = os.CreateTransition(constraintmachine.NewTransitionToken("unknown", constraintmachine.VoidUsedType, coinType, constraintmachine.VoidUsedType),
		&constraintmachine.Procedure{})
	require.Error(t, err)

	err = os.RegisterParticle(ParticleDefinition{Type: "no.factory"})
	require.Error(t, err)

	_, _, err = os.Build()
	require.NoError(t, err)

	require.Error(t, os.Load(coinScrypt{}))
	require.Error(t, os.RegisterParticle(ParticleDefinition{Type: "late", Factory: func() model.Particle { return &issuerParticle{} }}))

	_, _, err = os.Build()
	require.Error(t, err)
}

func TestFungibleOutputWithoutAmountMapper(t *testing.T) {
	_, err := NewFungibleProcedure(map[model.ParticleType]FungibleTransition{
		coinType: {
			ParticleType: coinType,
			Amount:       func(model.Particle) *uint256.Int { return uint256.NewInt(1) },
			Formulas:     map[model.ParticleType]FungibleFormula{issuerType: {}},
		},
	})
	require.Error(t, err)
}

func TestFungibleMatching(t *testing.T) {
	cm, _ := buildMachine(t)
	key := newKey(t, 1)
	owner := model.AddressFromPublicKey(key.PubKey())

	ten := coin(owner, 10, 1)
	six := coin(owner, 6, 2)
	four := coin(owner, 4, 3)

	tests := []struct {
		name    string
		group   model.ParticleGroup
		sign    bool
		code    constraintmachine.CMErrorCode
		pointer constraintmachine.DataPointer
	}{
		{"split 6 then 4", model.NewParticleGroup(model.Down(ten), model.Up(six), model.Up(four)), true, "", constraintmachine.DataPointer{}},
		{"split 4 then 6", model.NewParticleGroup(model.Down(ten), model.Up(four), model.Up(six)), true, "", constraintmachine.DataPointer{}},
		{"merge", model.NewParticleGroup(model.Down(six), model.Down(four), model.Up(ten)), true, "", constraintmachine.DataPointer{}},
		{"input exceeds outputs", model.NewParticleGroup(model.Down(ten), model.Up(six)), true,
			constraintmachine.ErrCodeFungibleInputUnmatched, constraintmachine.PointerToParticle(0, 0)},
		{"outputs exceed input", model.NewParticleGroup(model.Down(six), model.Up(ten)), true,
			constraintmachine.ErrCodeFungibleOutputUnmatched, constraintmachine.PointerToParticle(0, 1)},
		{"input declared after outputs it should fund", model.NewParticleGroup(model.Up(six), model.Up(four), model.Down(ten)), true,
			constraintmachine.ErrCodeFungibleInputUnmatched, constraintmachine.PointerToParticle(0, 2)},
		{"unsigned input", model.NewParticleGroup(model.Down(ten), model.Up(six), model.Up(four)), false,
			constraintmachine.ErrCodeFungibleInputUnmatched, constraintmachine.PointerToParticle(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atom := model.NewAtom("", tt.group)
			if tt.sign {
				require.NoError(t, atom.Sign(key))
			}

			cmErr := cm.Validate(context.Background(), emptyReader{}, atom, constraintmachine.PermissionLevelUser)
			if tt.code == "" {
				assert.Nil(t, cmErr)
				return
			}

			require.NotNil(t, cmErr)
			assert.Equal(t, tt.code, cmErr.Code)
			assert.Equal(t, tt.pointer, cmErr.Pointer)
		})
	}
}

func TestFungibleInitialSupply(t *testing.T) {
	cm, _ := buildMachine(t)
	key := newKey(t, 1)
	owner := model.AddressFromPublicKey(key.PubKey())
	stranger := model.AddressFromPublicKey(newKey(t, 2).PubKey())

	rri := NewRRIParticle(model.NewRRI(owner, "gold"))
	issuer := &issuerParticle{Owner: owner, Name: "gold"}

	validate := func(groups ...model.ParticleGroup) *constraintmachine.CMError {
		atom := model.NewAtom("", groups...)
		require.NoError(t, atom.Sign(key))

		return cm.Validate(context.Background(), emptyReader{}, atom, constraintmachine.PermissionLevelUser)
	}

	t.Run("justified by issuer", func(t *testing.T) {
		assert.Nil(t, validate(model.NewParticleGroup(model.Down(rri), model.Up(issuer), model.Up(coin(owner, 100, 1)))))
	})

	t.Run("issuer of another owner", func(t *testing.T) {
		cmErr := validate(model.NewParticleGroup(model.Down(rri), model.Up(issuer), model.Up(coin(stranger, 100, 1))))
		require.NotNil(t, cmErr)
		assert.Equal(t, constraintmachine.ErrCodeFungibleOutputUnmatched, cmErr.Code)
	})

	t.Run("one issuer justifies one output", func(t *testing.T) {
		cmErr := validate(model.NewParticleGroup(model.Down(rri), model.Up(issuer), model.Up(coin(owner, 100, 1)), model.Up(coin(owner, 5, 2))))
		require.NotNil(t, cmErr)
		assert.Equal(t, constraintmachine.ErrCodeFungibleOutputUnmatched, cmErr.Code)
	})

	t.Run("rri of another owner", func(t *testing.T) {
		other := NewRRIParticle(model.NewRRI(stranger, "gold"))

		cmErr := validate(model.NewParticleGroup(model.Down(other), model.Up(issuer), model.Up(coin(owner, 100, 1))))
		require.NotNil(t, cmErr)
		assert.Equal(t, constraintmachine.ErrCodeTransitionPreconditionFailed, cmErr.Code)
	})

	t.Run("issuer in another group", func(t *testing.T) {
		cmErr := validate(model.NewParticleGroup(model.Down(rri), model.Up(issuer)), model.NewParticleGroup(model.Up(coin(owner, 100, 1))))
		require.NotNil(t, cmErr)
		assert.Equal(t, constraintmachine.ErrCodeFungibleOutputUnmatched, cmErr.Code)
		assert.Equal(t, constraintmachine.PointerToParticle(1, 0), cmErr.Pointer)
	})
}

func TestRRIParticle(t *testing.T) {
	cm, codec := buildMachine(t)
	owner := model.AddressFromPublicKey(newKey(t, 1).PubKey())

	rri := NewRRIParticle(model.NewRRI(owner, "gold"))
	store := cm.VirtualStore(emptyReader{})

	spin, err := store.GetSpin(context.Background(), rri)
	require.NoError(t, err)
	assert.Equal(t, model.SpinUp, spin)

	spin, err = store.GetSpin(context.Background(), &RRIParticle{RRI: rri.RRI, Nonce: 1})
	require.NoError(t, err)
	assert.Equal(t, model.SpinNeutral, spin)

	got, ok := RRIOf(rri)
	require.True(t, ok)
	assert.Equal(t, "gold", got.Name)

	_, ok = RRIOf(&issuerParticle{})
	assert.False(t, ok)

	t.Run("invalid name", func(t *testing.T) {
		atom := model.NewAtom("", model.NewParticleGroup(model.Down(NewRRIParticle(model.NewRRI(owner, "not a name")))))

		cmErr := cm.Validate(context.Background(), emptyReader{}, atom, constraintmachine.PermissionLevelUser)
		require.NotNil(t, cmErr)
		assert.Equal(t, constraintmachine.ErrCodeInvalidParticle, cmErr.Code)
	})

	t.Run("codec", func(t *testing.T) {
		atom := model.NewAtom("reserve", model.NewParticleGroup(model.Down(rri), model.Up(coin(owner, 1, 1))))

		b, err := codec.EncodeAtom(atom)
		require.NoError(t, err)

		decoded, err := codec.DecodeAtom(b)
		require.NoError(t, err)
		assert.Equal(t, atom.ID(), decoded.ID())
		assert.Equal(t, rri, decoded.Groups[0].Particles[0].Particle)
	})
}
