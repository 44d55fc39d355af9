package kafka_client

import "github.com/spacesedan/moodscope/config"

type KafkaConfig struct {
	Broker          string
	GroupID         string
	Topic           string
	TransactionalID string
}

func GetKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Broker:          config.GetEnv("KAFKA_BROKER", "localhost:29092"),
		GroupID:         config.GetEnv("KAFKA_CONSUMER_GROUP_ID", "moodscope-dataset-writer"),
		Topic:           config.GetEnv("KAFKA_TOPIC", KAFKA_TOPIC_PATIENT_POSTS),
		TransactionalID: config.GetEnv("KAFKA_TRANSACTIONAL_ID", "moodscope-scraper-1"),
	}
}
