package cru

import (
	"context"
	"testing"

	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/ulogger"
	bec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWitness struct {
	mock.Mock
}

func (m *mockWitness) IsSignedBy(address model.Address) bool {
	return m.Called(address).Bool(0)
}

// reader holds the claims of previously committed versions.
type reader map[string]bool

func (r reader) Exists(_ context.Context, sp model.SpunParticle) (bool, error) {
	return r[sp.String()], nil
}

func newKey(t *testing.T) *bec.PrivateKey {
	t.Helper()

	key, err := bec.NewPrivateKey()
	require.NoError(t, err)

	return key
}

func record(address model.Address, serialno int64) *DataParticle {
	return NewDataParticle(model.NewRRI(address, "TEST"), serialno, make([]byte, 10))
}

func TestStaticCheckRequiresAddress(t *testing.T) {
	err := staticCheck(&DataParticle{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rri")
}

func TestUpdateWithMismatchingRRIs(t *testing.T) {
	input := record(model.AddressFromPublicKey(newKey(t).PubKey()), 0)
	output := record(model.AddressFromPublicKey(newKey(t).PubKey()), 1)

	err := UpdateProcedure().Precondition(input, nil, output, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RRIs do not match")
}

func TestUpdateSerialno(t *testing.T) {
	address := model.AddressFromPublicKey(newKey(t).PubKey())

	tests := []struct {
		name   string
		input  int64
		output int64
		valid  bool
	}{
		{"equal", 0, 0, false},
		{"skipped", 0, 2, false},
		{"decreasing", 1, 0, false},
		{"next", 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := UpdateProcedure().Precondition(record(address, tt.input), nil, record(address, tt.output), nil)
			if tt.valid {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), "serialno")
		})
	}
}

func TestUpdateWithoutSignature(t *testing.T) {
	input := record(model.AddressFromPublicKey(newKey(t).PubKey()), 0)

	witness := &mockWitness{}
	witness.On("IsSignedBy", input.RRI.Address).Return(false)

	err := UpdateProcedure().InputWitnessValidator(input, witness)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed")
	witness.AssertExpectations(t)
}

func TestRecordLifecycle(t *testing.T) {
	cmos := atomos.New(ulogger.TestLogger{})
	require.NoError(t, cmos.Load(Scrypt{}))

	cm, codec, err := cmos.Build()
	require.NoError(t, err)

	key := newKey(t)
	owner := model.AddressFromPublicKey(key.PubKey())
	rri := model.NewRRI(owner, "profile")

	first := NewDataParticle(rri, 0, []byte("hello"))
	second := NewDataParticle(rri, 1, []byte("world"))

	t.Run("create from rri", func(t *testing.T) {
		atom := model.NewAtom("", model.NewParticleGroup(model.Down(atomos.NewRRIParticle(rri)), model.Up(first)))
		require.NoError(t, atom.Sign(key))

		assert.Nil(t, cm.Validate(context.Background(), reader{}, atom, constraintmachine.PermissionLevelUser))
	})

	t.Run("create with serialno 1", func(t *testing.T) {
		atom := model.NewAtom("", model.NewParticleGroup(model.Down(atomos.NewRRIParticle(rri)), model.Up(second)))
		require.NoError(t, atom.Sign(key))

		cmErr := cm.Validate(context.Background(), reader{}, atom, constraintmachine.PermissionLevelUser)
		require.NotNil(t, cmErr)
		assert.Equal(t, constraintmachine.ErrCodeTransitionPreconditionFailed, cmErr.Code)
	})

	t.Run("create for another address", func(t *testing.T) {
		other := NewDataParticle(model.NewRRI(model.AddressFromPublicKey(newKey(t).PubKey()), "profile"), 0, nil)

		atom := model.NewAtom("", model.NewParticleGroup(model.Down(atomos.NewRRIParticle(rri)), model.Up(other)))
		require.NoError(t, atom.Sign(key))

		cmErr := cm.Validate(context.Background(), reader{}, atom, constraintmachine.PermissionLevelUser)
		require.NotNil(t, cmErr)
		assert.Equal(t, constraintmachine.ErrCodeTransitionPreconditionFailed, cmErr.Code)
	})

	t.Run("update signed by owner", func(t *testing.T) {
		atom := model.NewAtom("", model.NewParticleGroup(model.Down(first), model.Up(second)))
		require.NoError(t, atom.Sign(key))

		committed := reader{model.Up(first).String(): true}
		assert.Nil(t, cm.Validate(context.Background(), committed, atom, constraintmachine.PermissionLevelUser))
	})

	t.Run("update signed by stranger", func(t *testing.T) {
		atom := model.NewAtom("", model.NewParticleGroup(model.Down(first), model.Up(second)))
		require.NoError(t, atom.Sign(newKey(t)))

		cmErr := cm.Validate(context.Background(), reader{}, atom, constraintmachine.PermissionLevelUser)
		require.NotNil(t, cmErr)
		assert.Equal(t, constraintmachine.ErrCodeWitnessError, cmErr.Code)
	})

	t.Run("codec", func(t *testing.T) {
		atom := model.NewAtom("", model.NewParticleGroup(model.Down(first), model.Up(second)))

		b, err := codec.EncodeAtom(atom)
		require.NoError(t, err)

		decoded, err := codec.DecodeAtom(b)
		require.NoError(t, err)
		assert.Equal(t, second, decoded.Groups[0].Particles[1].Particle)
	})
}

// impostor reports the cru type without being a DataParticle.
type impostor struct {
	X int `json:"x"`
}

func (impostor) ParticleType() model.ParticleType { return ParticleType }

func TestStaticCheckRejectsForeignParticle(t *testing.T) {
	cmos := atomos.New(ulogger.TestLogger{})
	require.NoError(t, cmos.Load(Scrypt{}))

	cm, _, err := cmos.Build()
	require.NoError(t, err)

	atom := model.NewAtom("", model.NewParticleGroup(model.Up(impostor{X: 1})))

	var cmErr *constraintmachine.CMError

	require.NotPanics(t, func() {
		cmErr = cm.Validate(context.Background(), reader{}, atom, constraintmachine.PermissionLevelUser)
	})
	require.NotNil(t, cmErr)
	assert.Equal(t, constraintmachine.ErrCodeInvalidParticle, cmErr.Code)

	assert.Error(t, staticCheck((*DataParticle)(nil)))
}
