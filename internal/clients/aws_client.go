package clients

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spacesedan/moodscope/config"
)

var (
	awsCfg   aws.Config
	awsOnce  sync.Once
	endpoint string
)

func GetAWSConfig() aws.Config {
	awsOnce.Do(func() {
		endpoint = config.GetEnv("AWS_ENDPOINT", "")
		region := config.GetEnv("AWS_REGION", "us-west-2")

		slog.Info("[AWSClient] Initializing AWS Config...",
			slog.String("region", region),
			slog.String("endpoint", endpoint))
		cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(region))
		if err != nil {
			slog.Error("[AWSClient] Failed to load AWS config")
			panic(err)
		}

		awsCfg = cfg
		slog.Info("[AWSClient] AWS Config Initialized")
	})

	return awsCfg
}

// GetDynamoDBClient honors AWS_ENDPOINT for DynamoDB Local.
func GetDynamoDBClient() *dynamodb.Client {
	return dynamodb.NewFromConfig(GetAWSConfig(), func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}
