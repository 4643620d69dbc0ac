// Package inmemorykafka is a single process stand-in for a Kafka cluster, used by the
// memory:// producer scheme and by tests.
package inmemorykafka

import (
	"errors" // nolint:depguard
	"sync"

	"github.com/IBM/sarama"
)

var errNotSupported = errors.New("not supported by the in-memory producer")

// Message is a record appended to a topic.
type Message struct {
	Topic  string
	Key    []byte
	Value  []byte
	Offset int64
}

// InMemoryBroker keeps every produced message per topic.
type InMemoryBroker struct {
	mu     sync.RWMutex
	topics map[string][]*Message
}

func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		topics: make(map[string][]*Message),
	}
}

var (
	sharedBroker *InMemoryBroker
	brokerOnce   sync.Once
)

// GetSharedBroker returns the broker shared by every memory:// producer of the process.
func GetSharedBroker() *InMemoryBroker {
	brokerOnce.Do(func() {
		sharedBroker = NewInMemoryBroker()
	})

	return sharedBroker
}

// Produce appends a message to topic and returns its offset.
func (b *InMemoryBroker) Produce(topic string, key, value []byte) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	offset := int64(len(b.topics[topic]))
	b.topics[topic] = append(b.topics[topic], &Message{
		Topic:  topic,
		Key:    key,
		Value:  value,
		Offset: offset,
	})

	return offset
}

// Messages returns a copy of the messages of topic in offset order.
func (b *InMemoryBroker) Messages(topic string) []*Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]*Message(nil), b.topics[topic]...)
}

func (b *InMemoryBroker) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	topics := make([]string, 0, len(b.topics))
	for topic := range b.topics {
		topics = append(topics, topic)
	}

	return topics
}

// InMemorySyncProducer implements sarama.SyncProducer on a broker. Transactions are
// not supported.
type InMemorySyncProducer struct {
	broker *InMemoryBroker
}

func NewInMemorySyncProducer(broker *InMemoryBroker) sarama.SyncProducer {
	return &InMemorySyncProducer{broker: broker}
}

// SendMessage always reports partition 0.
func (p *InMemorySyncProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	var (
		key, value []byte
		err        error
	)

	if msg.Key != nil {
		if key, err = msg.Key.Encode(); err != nil {
			return 0, 0, err
		}
	}

	if msg.Value != nil {
		if value, err = msg.Value.Encode(); err != nil {
			return 0, 0, err
		}
	}

	return 0, p.broker.Produce(msg.Topic, key, value), nil
}

func (p *InMemorySyncProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	for _, msg := range msgs {
		if _, _, err := p.SendMessage(msg); err != nil {
			return err
		}
	}

	return nil
}

func (p *InMemorySyncProducer) Close() error {
	return nil
}

func (p *InMemorySyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnFlagReady
}

func (p *InMemorySyncProducer) IsTransactional() bool {
	return false
}

func (p *InMemorySyncProducer) BeginTxn() error {
	return errNotSupported
}

func (p *InMemorySyncProducer) CommitTxn() error {
	return errNotSupported
}

func (p *InMemorySyncProducer) AbortTxn() error {
	return errNotSupported
}

func (p *InMemorySyncProducer) AddOffsetsToTxn(map[string][]*sarama.PartitionOffsetMetadata, string) error {
	return errNotSupported
}

func (p *InMemorySyncProducer) AddMessageToTxn(*sarama.ConsumerMessage, string, *string) error {
	return errNotSupported
}
