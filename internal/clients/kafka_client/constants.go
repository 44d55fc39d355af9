package kafka_client

import "time"

const (
	KAFKA_TOPIC_PATIENT_POSTS = "patient-posts" // scraped subreddit posts bound for the dataset store
)

const (
	MAX_RETRIES  = 5
	RETRY_DELAY  = 2 * time.Second
	POLL_TIMEOUT = time.Second
)
