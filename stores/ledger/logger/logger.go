// Package logger wraps a ledger.Store and logs every call at debug level with the
// call sites that issued it. The factory applies it when the store URL carries logger=true.
package logger

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/stores/ledger"
	"github.com/atomledger/atomengine/ulogger"
)

type Logger struct {
	logger ulogger.Logger
	store  ledger.Store
}

func New(logger ulogger.Logger, store ledger.Store) *Logger {
	return &Logger{
		logger: logger,
		store:  store,
	}
}

func caller() string {
	var callers []string

	for i := 0; i < 5; i++ {
		pc, file, line, ok := runtime.Caller(2 + i)
		if !ok {
			break
		}

		folders := strings.Split(file, string(filepath.Separator))
		for len(folders) > 1 && (folders[0] == "github.com" || folders[0] == "atomledger" || folders[0] == "atomengine") {
			folders = folders[1:]
		}

		funcPaths := strings.Split(runtime.FuncForPC(pc).Name(), "/")

		callers = append(callers, fmt.Sprintf("called from %s: %s:%d", funcPaths[len(funcPaths)-1], filepath.Join(folders...), line))
	}

	return strings.Join(callers, ",")
}

func (l *Logger) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	l.logger.Debugf("[LedgerStore][logger][Health] : %s", caller())
	return l.store.Health(ctx, checkLiveness)
}

func (l *Logger) Exists(ctx context.Context, sp model.SpunParticle) (bool, error) {
	exists, err := l.store.Exists(ctx, sp)
	l.logger.Debugf("[LedgerStore][logger][Exists] claim %s, exists %t, err %v : %s", sp, exists, err, caller())

	return exists, err
}

func (l *Logger) GetAtomContaining(ctx context.Context, sp model.SpunParticle) (*model.Atom, error) {
	atom, err := l.store.GetAtomContaining(ctx, sp)

	atomID := "<none>"
	if atom != nil {
		atomID = atom.ID().String()
	}

	l.logger.Debugf("[LedgerStore][logger][GetAtomContaining] claim %s, atom %s, err %v : %s", sp, atomID, err, caller())

	return atom, err
}

func (l *Logger) StoreAtom(ctx context.Context, atom *model.Atom) error {
	err := l.store.StoreAtom(ctx, atom)
	l.logger.Debugf("[LedgerStore][logger][StoreAtom] atom %s, claims %d, err %v : %s", atom.ID(), len(ledger.Claims(atom)), err, caller())

	return err
}

func (l *Logger) DeleteAtom(ctx context.Context, atom *model.Atom) error {
	err := l.store.DeleteAtom(ctx, atom)
	l.logger.Debugf("[LedgerStore][logger][DeleteAtom] atom %s, err %v : %s", atom.ID(), err, caller())

	return err
}

func (l *Logger) Close(ctx context.Context) error {
	err := l.store.Close(ctx)
	l.logger.Debugf("[LedgerStore][logger][Close] err %v : %s", err, caller())

	return err
}
