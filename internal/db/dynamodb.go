package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/moodscope/internal/metrics"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/spacesedan/moodscope/internal/sentiment"
)

const (
	DATASET_TABLE_NAME = "PatientPosts"
	maxBatchSize       = 25
	maxBatchRetries    = 3
)

var ErrUnprocessedItems = errors.New("items left unprocessed after retries")

// DynamoAPI is the subset of the DynamoDB client the dataset store uses.
type DynamoAPI interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DatasetStore keeps scraped posts keyed by (author_key, post_id).
type DatasetStore struct {
	client  DynamoAPI
	table   string
	backoff time.Duration
}

func NewDatasetStore(client DynamoAPI, table string) *DatasetStore {
	if table == "" {
		table = DATASET_TABLE_NAME
	}
	return &DatasetStore{client: client, table: table, backoff: 500 * time.Millisecond}
}

// PutPosts batch-writes posts 25 at a time, retrying unprocessed items with
// exponential backoff.
func (s *DatasetStore) PutPosts(ctx context.Context, posts []models.DatasetPost) error {
	for i := 0; i < len(posts); i += maxBatchSize {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		end := min(i+maxBatchSize, len(posts))
		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, p := range posts[i:end] {
			p.AuthorKey = models.AuthorKey(p.Author)
			item, err := attributevalue.MarshalMap(p)
			if err != nil {
				return fmt.Errorf("[DynamoDB] Failed to marshal post %s: %w", p.PostID, err)
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.batchWrite(ctx, writeRequests); err != nil {
			return err
		}
		metrics.AddDatasetPostsWritten(len(writeRequests))
	}

	slog.Info("[DynamoDB] Successfully stored dataset posts", slog.Int("count", len(posts)))
	return nil
}

func (s *DatasetStore) batchWrite(ctx context.Context, writeRequests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{s.table: writeRequests},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write posts: %w", err)
	}

	backoff := s.backoff
	for retry := 0; len(out.UnprocessedItems[s.table]) > 0 && retry < maxBatchRetries; retry++ {
		slog.Warn("[DynamoDB] Retrying unprocessed items...",
			slog.Int("retry_attempt", retry+1),
			slog.Int("remaining_items", len(out.UnprocessedItems[s.table])))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to retry batch write: %w", err)
		}
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		slog.Error("[DynamoDB] Some items were not written even after retries",
			slog.Int("remaining_items", remaining))
		return fmt.Errorf("[DynamoDB] %d %w", remaining, ErrUnprocessedItems)
	}
	return nil
}

// AuthorPosts returns every stored post by author, newest first. The lookup
// is case-insensitive.
func (s *DatasetStore) AuthorPosts(ctx context.Context, author string) ([]models.DatasetPost, error) {
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("author_key = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: models.AuthorKey(author)},
		},
	})

	var posts []models.DatasetPost
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Query for %s failed: %w", author, err)
		}
		var page []models.DatasetPost
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("[DynamoDB] Unable to unmarshal posts for %s: %w", author, err)
		}
		posts = append(posts, page...)
	}

	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedUTC > posts[j].CreatedUTC })
	return posts, nil
}

// AuthorSummaries scans the projected author and sentiment columns and
// aggregates them per author_key, sorted by author.
func (s *DatasetStore) AuthorSummaries(ctx context.Context) ([]models.PatientSummary, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:            aws.String(s.table),
		ProjectionExpression: aws.String("author_key, author, vader_compound"),
	})

	type agg struct {
		author string
		count  int
		sum    float64
	}
	byKey := map[string]*agg{}
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for authors failed: %w", err)
		}
		var page []models.DatasetPost
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("[DynamoDB] Unable to unmarshal author page: %w", err)
		}
		for _, p := range page {
			key := p.AuthorKey
			if key == "" {
				key = models.AuthorKey(p.Author)
			}
			a, ok := byKey[key]
			if !ok {
				a = &agg{author: p.Author}
				byKey[key] = a
			}
			a.count++
			a.sum += p.VaderCompound
		}
	}

	summaries := make([]models.PatientSummary, 0, len(byKey))
	for _, a := range byKey {
		avg := a.sum / float64(a.count)
		summaries = append(summaries, models.PatientSummary{
			Author:          a.author,
			PostCount:       a.count,
			AvgCompound:     avg,
			DominantEmotion: DominantEmotionFor(avg),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return strings.ToLower(summaries[i].Author) < strings.ToLower(summaries[j].Author)
	})

	slog.Info("[DynamoDB] Successfully aggregated authors", slog.Int("count", len(summaries)))
	return summaries, nil
}

var searchLabels = map[string]string{
	"positive": "happy",
	"negative": "sad",
	"neutral":  "calm",
}

// DominantEmotionFor maps an average compound score onto the coarse search
// labels happy, sad and calm.
func DominantEmotionFor(avgCompound float64) string {
	return searchLabels[sentiment.LabelFor(avgCompound)]
}
