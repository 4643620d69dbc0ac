// Package events publishes the outcome of every submitted atom to Kafka as JSON.
package events

import (
	"time"

	"github.com/atomledger/atomengine/constraintmachine"
	"github.com/atomledger/atomengine/model"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/atomledger/atomengine/util/kafka"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type EventType string

const (
	EventCMSuccess              EventType = "cm_success"
	EventCMError                EventType = "cm_error"
	EventStateStore             EventType = "state_store"
	EventStateConflict          EventType = "state_conflict"
	EventStateMissingDependency EventType = "state_missing_dependency"
	EventCommitError            EventType = "commit_error"
)

// AtomEvent is the message published for one outcome.
type AtomEvent struct {
	Type              EventType `json:"type"`
	AtomID            string    `json:"atomId"`
	Timestamp         time.Time `json:"timestamp"`
	Claim             string    `json:"claim,omitempty"`
	ConflictingAtomID string    `json:"conflictingAtomId,omitempty"`
	ErrorCode         string    `json:"errorCode,omitempty"`
	ErrorPointer      string    `json:"errorPointer,omitempty"`
	Message           string    `json:"message,omitempty"`
}

// KafkaListener is an engine listener. Publishing failures are logged and never reach
// the engine.
type KafkaListener struct {
	logger   ulogger.Logger
	producer kafka.KafkaProducerI
	now      func() time.Time
}

func NewKafkaListener(logger ulogger.Logger, producer kafka.KafkaProducerI) *KafkaListener {
	initPrometheusMetrics()

	return &KafkaListener{
		logger:   logger,
		producer: producer,
		now:      time.Now,
	}
}

func (k *KafkaListener) OnCMSuccess(atom *model.Atom) {
	k.publish(atom, AtomEvent{Type: EventCMSuccess})
}

func (k *KafkaListener) OnCMError(atom *model.Atom, cmErr *constraintmachine.CMError) {
	k.publish(atom, AtomEvent{
		Type:         EventCMError,
		ErrorCode:    string(cmErr.Code),
		ErrorPointer: cmErr.Pointer.String(),
		Message:      cmErr.Message,
	})
}

func (k *KafkaListener) OnStateStore(atom *model.Atom) {
	k.publish(atom, AtomEvent{Type: EventStateStore})
}

func (k *KafkaListener) OnStateConflict(atom *model.Atom, claim model.SpunParticle, conflictingAtom *model.Atom) {
	event := AtomEvent{Type: EventStateConflict, Claim: claim.String()}
	if conflictingAtom != nil {
		event.ConflictingAtomID = conflictingAtom.ID().String()
	}

	k.publish(atom, event)
}

func (k *KafkaListener) OnStateMissingDependency(atom *model.Atom, claim model.SpunParticle) {
	k.publish(atom, AtomEvent{Type: EventStateMissingDependency, Claim: claim.String()})
}

func (k *KafkaListener) OnCommitError(atom *model.Atom, err error) {
	k.publish(atom, AtomEvent{Type: EventCommitError, Message: err.Error()})
}

func (k *KafkaListener) publish(atom *model.Atom, event AtomEvent) {
	id := atom.ID()

	event.AtomID = id.String()
	event.Timestamp = k.now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		k.logger.Errorf("[KafkaListener] failed to encode %s event for atom %s: %v", event.Type, id, err)
		return
	}

	if err = k.producer.Send(id[:], data); err != nil {
		prometheusEventsPublishErrors.Inc()
		k.logger.Errorf("[KafkaListener] failed to publish %s event for atom %s: %v", event.Type, id, err)

		return
	}

	prometheusEventsPublished.WithLabelValues(string(event.Type)).Inc()
}

// Close closes the producer.
func (k *KafkaListener) Close() error {
	return k.producer.Close()
}
