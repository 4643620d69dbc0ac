package system

import (
	"context"
	"testing"

	"github.com/atomledger/atomengine/atomos"
	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyReader struct{}

func (emptyReader) Exists(context.Context, model.SpunParticle) (bool, error) {
	return false, nil
}

func buildMachine(t *testing.T) *constraintmachine.ConstraintMachine {
	t.Helper()

	cmos := atomos.New(ulogger.TestLogger{})
	require.NoError(t, cmos.Load(Scrypt{}))

	cm, _, err := cmos.Build()
	require.NoError(t, err)

	return cm
}

func advance(from, to *Particle) *model.Atom {
	return model.NewAtom("", model.NewParticleGroup(model.Down(from), model.Up(to)))
}

func TestGenesisIsVirtual(t *testing.T) {
	cm := buildMachine(t)
	store := cm.VirtualStore(emptyReader{})

	spin, err := store.GetSpin(context.Background(), &Particle{})
	require.NoError(t, err)
	assert.Equal(t, model.SpinUp, spin)

	spin, err = store.GetSpin(context.Background(), &Particle{Epoch: 0, View: 1})
	require.NoError(t, err)
	assert.Equal(t, model.SpinNeutral, spin)
}

func TestStaticCheck(t *testing.T) {
	tests := []struct {
		name     string
		particle *Particle
		message  string
	}{
		{"negative epoch", &Particle{Epoch: -1}, "epoch"},
		{"negative view", &Particle{View: -1}, "view"},
		{"negative timestamp", &Particle{Timestamp: -1}, "timestamp"},
		{"valid", &Particle{Epoch: 1, View: 2, Timestamp: 3}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := staticCheck(tt.particle)
			if tt.message == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestAdvance(t *testing.T) {
	cm := buildMachine(t)

	tests := []struct {
		name  string
		from  *Particle
		to    *Particle
		level constraintmachine.PermissionLevel
		code  constraintmachine.CMErrorCode
	}{
		{"next view", &Particle{}, &Particle{View: 1, Timestamp: 10}, constraintmachine.PermissionLevelSystem, ""},
		{"next epoch", &Particle{}, &Particle{Epoch: 1, Timestamp: 10}, constraintmachine.PermissionLevelSystem, ""},
		{"same view", &Particle{Epoch: 1, View: 3}, &Particle{Epoch: 1, View: 3, Timestamp: 5}, constraintmachine.PermissionLevelSystem,
			constraintmachine.ErrCodeTransitionPreconditionFailed},
		{"skipped epoch", &Particle{}, &Particle{Epoch: 2}, constraintmachine.PermissionLevelSystem,
			constraintmachine.ErrCodeTransitionPreconditionFailed},
		{"user permission", &Particle{}, &Particle{View: 1}, constraintmachine.PermissionLevelUser,
			constraintmachine.ErrCodeInvalidExecutionPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmErr := cm.Validate(context.Background(), emptyReader{}, advance(tt.from, tt.to), tt.level)
			if tt.code == "" {
				assert.Nil(t, cmErr)
				return
			}

			require.NotNil(t, cmErr)
			assert.Equal(t, tt.code, cmErr.Code)
		})
	}
}

type impostor struct {
	View int64 `json:"view"`
}

func (impostor) ParticleType() model.ParticleType { return ParticleType }

func TestStaticCheckRejectsForeignParticle(t *testing.T) {
	cm := buildMachine(t)

	atom := model.NewAtom("", model.NewParticleGroup(model.Up(impostor{View: 1})))

	var cmErr *constraintmachine.CMError

	require.NotPanics(t, func() {
		cmErr = cm.Validate(context.Background(), emptyReader{}, atom, constraintmachine.PermissionLevelSystem)
	})
	require.NotNil(t, cmErr)
	assert.Equal(t, constraintmachine.ErrCodeInvalidParticle, cmErr.Code)

	assert.Error(t, staticCheck((*Particle)(nil)))
}
