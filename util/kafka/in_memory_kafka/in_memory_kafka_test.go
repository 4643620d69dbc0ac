package inmemorykafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncProducer(t *testing.T) {
	broker := NewInMemoryBroker()
	producer := NewInMemorySyncProducer(broker)

	for i, value := range []string{"first", "second"} {
		partition, offset, err := producer.SendMessage(&sarama.ProducerMessage{
			Topic: "atoms",
			Key:   sarama.StringEncoder("key"),
			Value: sarama.StringEncoder(value),
		})
		require.NoError(t, err)
		assert.Equal(t, int32(0), partition)
		assert.Equal(t, int64(i), offset)
	}

	messages := broker.Messages("atoms")
	require.Len(t, messages, 2)
	assert.Equal(t, []byte("key"), messages[0].Key)
	assert.Equal(t, []byte("second"), messages[1].Value)
	assert.Equal(t, []string{"atoms"}, broker.Topics())

	assert.Empty(t, broker.Messages("other"))
	assert.False(t, producer.IsTransactional())
	require.Error(t, producer.BeginTxn())
	require.NoError(t, producer.Close())
}

func TestSharedBroker(t *testing.T) {
	assert.Same(t, GetSharedBroker(), GetSharedBroker())
}
