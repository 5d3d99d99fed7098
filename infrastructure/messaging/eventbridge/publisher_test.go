package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphdiff/domain/events"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*eventbridge.PutEventsOutput)
	return out, args.Error(1)
}

func savedEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewComparisonSaved("id", "A", "B", 0.5, 3, "memory", time.Unix(0, 0))
	}
	return out
}

func TestPublisher_BatchesByTen(t *testing.T) {
	// Arrange
	ctx := context.Background()
	client := new(mockClient)
	var sizes []int
	client.On("PutEvents", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			sizes = append(sizes, len(args.Get(1).(*eventbridge.PutEventsInput).Entries))
		}).
		Return(&eventbridge.PutEventsOutput{}, nil)
	publisher := NewPublisher(client, "bus", zap.NewNop())

	// Act
	err := publisher.Publish(ctx, savedEvents(23))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 3}, sizes)
}

func TestPublisher_EntryShape(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	var entry types.PutEventsRequestEntry
	client.On("PutEvents", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*eventbridge.PutEventsInput).Entries[0]
		}).
		Return(&eventbridge.PutEventsOutput{}, nil)

	require.NoError(t, NewPublisher(client, "bus", zap.NewNop()).Publish(ctx, savedEvents(1)))

	assert.Equal(t, "bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, Source, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeComparisonSaved, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "id", detail["comparison_id"])
	assert.Equal(t, "memory", detail["backend"])
}

func TestPublisher_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("client error", func(t *testing.T) {
		client := new(mockClient)
		client.On("PutEvents", ctx, mock.Anything).Return(nil, errors.New("network"))

		err := NewPublisher(client, "bus", zap.NewNop()).Publish(ctx, savedEvents(1))
		assert.Error(t, err)
	})

	t.Run("failed entries", func(t *testing.T) {
		client := new(mockClient)
		client.On("PutEvents", ctx, mock.Anything).Return(&eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("ThrottlingException")}},
		}, nil)

		err := NewPublisher(client, "bus", zap.NewNop()).Publish(ctx, savedEvents(1))
		assert.ErrorContains(t, err, "1 events failed")
	})

	t.Run("nothing to send", func(t *testing.T) {
		client := new(mockClient)
		require.NoError(t, NewPublisher(client, "bus", zap.NewNop()).Publish(ctx, nil))
		client.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
	})
}
