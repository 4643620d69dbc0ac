package memory

import (
	"context"
	"net/http"
	"testing"

	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteParticle struct {
	Text string `json:"text"`
}

func (p *noteParticle) ParticleType() model.ParticleType { return "test.note" }

func TestStoreAndDelete(t *testing.T) {
	ctx := context.Background()
	m := New()

	a := &noteParticle{Text: "a"}
	b := &noteParticle{Text: "b"}

	atom := model.NewAtom("first", model.NewParticleGroup(model.Down(a), model.Up(b)))
	require.NoError(t, m.StoreAtom(ctx, atom))
	assert.Equal(t, 1, m.Len())

	for _, sp := range []model.SpunParticle{model.Down(a), model.Up(b)} {
		exists, err := m.Exists(ctx, sp)
		require.NoError(t, err)
		assert.True(t, exists)

		found, err := m.GetAtomContaining(ctx, sp)
		require.NoError(t, err)
		assert.Equal(t, atom.ID(), found.ID())
	}

	exists, err := m.Exists(ctx, model.Up(a))
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := m.GetAtomContaining(ctx, model.Up(a))
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, m.DeleteAtom(ctx, atom))
	assert.Equal(t, 0, m.Len())

	exists, err = m.Exists(ctx, model.Down(a))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreConflict(t *testing.T) {
	ctx := context.Background()
	m := New()

	a := &noteParticle{Text: "a"}

	first := model.NewAtom("first", model.NewParticleGroup(model.Down(a), model.Up(&noteParticle{Text: "b"})))
	second := model.NewAtom("second", model.NewParticleGroup(model.Down(a), model.Up(&noteParticle{Text: "c"})))

	require.NoError(t, m.StoreAtom(ctx, first))

	err := m.StoreAtom(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	var data *errors.SpinConflictErrData
	require.True(t, errors.AsData(err, &data))
	assert.Equal(t, first.ID().String(), data.ConflictingAtomID)
	assert.Equal(t, "DOWN", data.Spin)

	// nothing of the rejected atom is kept
	exists, err := m.Exists(ctx, model.Up(&noteParticle{Text: "c"}))
	require.NoError(t, err)
	assert.False(t, exists)

	err = m.StoreAtom(ctx, first)
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))
}

func TestHealth(t *testing.T) {
	code, _, err := New().Health(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
}
