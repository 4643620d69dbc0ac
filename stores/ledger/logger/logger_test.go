package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/stores/ledger/memory"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteParticle struct {
	Text string `json:"text"`
}

func (p *noteParticle) ParticleType() model.ParticleType { return "test.note" }

func TestLoggerDelegatesAndLogs(t *testing.T) {
	var buf bytes.Buffer

	log := ulogger.New("ledger", ulogger.WithLevel("DEBUG"), ulogger.WithWriter(&buf))
	store := New(log, memory.New())
	ctx := context.Background()

	atom := model.NewAtom("", model.NewParticleGroup(model.Up(&noteParticle{Text: "a"})))
	require.NoError(t, store.StoreAtom(ctx, atom))

	exists, err := store.Exists(ctx, model.Up(&noteParticle{Text: "a"}))
	require.NoError(t, err)
	assert.True(t, exists)

	found, err := store.GetAtomContaining(ctx, model.Up(&noteParticle{Text: "a"}))
	require.NoError(t, err)
	assert.Equal(t, atom.ID(), found.ID())

	require.NoError(t, store.DeleteAtom(ctx, atom))
	require.NoError(t, store.Close(ctx))

	out := buf.String()
	assert.Contains(t, out, "[LedgerStore][logger][StoreAtom] atom "+atom.ID().String())
	assert.Contains(t, out, "[LedgerStore][logger][Exists]")
	assert.Contains(t, out, "[LedgerStore][logger][DeleteAtom]")
	assert.Contains(t, out, "called from")
}
