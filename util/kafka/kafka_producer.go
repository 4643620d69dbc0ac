package kafka

import (
	"encoding/binary"
	"net/url"
	"strings"

	"github.com/IBM/sarama"
	"github.com/atomledger/atomengine/errors"
	"github.com/atomledger/atomengine/ulogger"
	"github.com/atomledger/atomengine/util"
	inmemorykafka "github.com/atomledger/atomengine/util/kafka/in_memory_kafka"
)

/**
kafka-topics.sh --list --bootstrap-server localhost:9092

kafka-console-consumer.sh --topic atom-events --bootstrap-server localhost:9092 --from-beginning
*/

const memoryScheme = "memory"

type KafkaProducerI interface {
	Send(key []byte, data []byte) error
	Close() error
}

type SyncKafkaProducer struct {
	Producer   sarama.SyncProducer
	Topic      string
	Partitions int32
}

func (k *SyncKafkaProducer) Close() error {
	if err := k.Producer.Close(); err != nil {
		return errors.NewServiceError("failed to close Kafka producer", err)
	}

	return nil
}

// Send routes the message to a partition chosen from the first 4 bytes of key, so all
// events of one atom stay ordered.
func (k *SyncKafkaProducer) Send(key []byte, data []byte) error {
	var partition int32

	if k.Partitions > 1 && len(key) >= 4 {
		partition = int32(binary.LittleEndian.Uint32(key) % uint32(k.Partitions))
	}

	if _, _, err := k.Producer.SendMessage(&sarama.ProducerMessage{
		Topic:     k.Topic,
		Key:       sarama.ByteEncoder(key),
		Value:     sarama.ByteEncoder(data),
		Partition: partition,
	}); err != nil {
		return errors.NewKafkaError("failed to send message to topic %s", k.Topic, err)
	}

	return nil
}

// NewKafkaProducer connects a producer to the topic named by the URL path, creating the
// topic when needed. memory:///topic produces to the process wide in-memory broker.
//
//	kafka://host1:9092,host2:9092/atom-events?partitions=4&replication=1&retention=600000
func NewKafkaProducer(logger ulogger.Logger, kafkaURL *url.URL) (KafkaProducerI, error) {
	topic := strings.TrimPrefix(kafkaURL.Path, "/")
	if topic == "" {
		return nil, errors.NewConfigurationError("kafka url %s has no topic", kafkaURL)
	}

	if kafkaURL.Scheme == memoryScheme {
		logger.Infof("[Kafka] using in-memory producer for topic %s", topic)

		return &SyncKafkaProducer{
			Producer:   inmemorykafka.NewInMemorySyncProducer(inmemorykafka.GetSharedBroker()),
			Topic:      topic,
			Partitions: 1,
		}, nil
	}

	brokersURL := strings.Split(kafkaURL.Host, ",")

	config := sarama.NewConfig()
	config.Version = sarama.V2_1_0_0

	clusterAdmin, err := sarama.NewClusterAdmin(brokersURL, config)
	if err != nil {
		return nil, errors.NewServiceError("error while creating cluster admin", err)
	}

	defer func() {
		_ = clusterAdmin.Close()
	}()

	partitions := util.GetQueryParamInt(kafkaURL, "partitions", 1)
	replicationFactor := util.GetQueryParamInt(kafkaURL, "replication", 1)
	retentionPeriod := util.GetQueryParam(kafkaURL, "retention", "600000") // 10 minutes

	if err = clusterAdmin.CreateTopic(topic, &sarama.TopicDetail{
		NumPartitions:     int32(partitions),
		ReplicationFactor: int16(replicationFactor),
		ConfigEntries: map[string]*string{
			"retention.ms": &retentionPeriod,
		},
	}, false); err != nil && !errors.Is(err, sarama.ErrTopicAlreadyExists) {
		return nil, errors.NewServiceError("unable to create topic %s", topic, err)
	}

	flushBytes := util.GetQueryParamInt(kafkaURL, "flush_bytes", 1024)

	producer, err := ConnectProducer(brokersURL, topic, int32(partitions), flushBytes)
	if err != nil {
		return nil, errors.NewServiceError("unable to connect to kafka", err)
	}

	logger.Infof("[Kafka] producing to topic %s on %s", topic, kafkaURL.Host)

	return producer, nil
}

func ConnectProducer(brokersURL []string, topic string, partitions int32, flushBytes ...int) (KafkaProducerI, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Partitioner = sarama.NewManualPartitioner

	flush := 16 * 1024
	if len(flushBytes) > 0 {
		flush = flushBytes[0]
	}

	config.Producer.Flush.Bytes = flush

	conn, err := sarama.NewSyncProducer(brokersURL, config)
	if err != nil {
		return nil, err
	}

	return &SyncKafkaProducer{
		Producer:   conn,
		Partitions: partitions,
		Topic:      topic,
	}, nil
}
