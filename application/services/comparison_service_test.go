package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphdiff/application/commands"
	commandbus "graphdiff/application/commands/bus"
	"graphdiff/application/queries"
	querybus "graphdiff/application/queries/bus"
	"graphdiff/domain/comparison"
	"graphdiff/domain/core/aggregates"
	"graphdiff/domain/merging"
	"graphdiff/pkg/errors"
)

type mockQueries struct {
	mock.Mock
}

func (m *mockQueries) Ask(ctx context.Context, query querybus.Query) (interface{}, error) {
	args := m.Called(ctx, query)
	return args.Get(0), args.Error(1)
}

type mockCommands struct {
	mock.Mock
}

func (m *mockCommands) Send(ctx context.Context, cmd commandbus.Command) error {
	return m.Called(ctx, cmd).Error(0)
}

const fixedID = "0b8a3a59-0d4e-4b53-9d1f-6d1f1d3c1c11"

func newService(q *mockQueries, c *mockCommands, timeout time.Duration) *ComparisonService {
	s := NewComparisonService(q, c, timeout, zap.NewNop())
	s.newID = func() string { return fixedID }
	return s
}

func computed() *comparison.Result {
	return &comparison.Result{
		Version1:  comparison.GraphVersion{Name: "a"},
		Version2:  comparison.GraphVersion{Name: "b"},
		CreatedAt: "2024-01-01T00:00:00.000Z",
	}
}

func TestCompare_WithoutSave(t *testing.T) {
	// Arrange
	q, c := new(mockQueries), new(mockCommands)
	q.On("Ask", mock.Anything, mock.AnythingOfType("queries.CompareGraphsQuery")).Return(computed(), nil)
	service := newService(q, c, time.Second)

	// Act
	outcome, err := service.Compare(context.Background(), CompareRequest{Name1: "a", Name2: "b"})

	// Assert
	require.NoError(t, err)
	assert.Empty(t, outcome.ComparisonID)
	assert.Empty(t, outcome.Warnings)
	c.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestCompare_SaveAssignsID(t *testing.T) {
	q, c := new(mockQueries), new(mockCommands)
	q.On("Ask", mock.Anything, mock.Anything).Return(computed(), nil)
	c.On("Send", mock.Anything, mock.MatchedBy(func(cmd commandbus.Command) bool {
		save, ok := cmd.(commands.SaveComparisonCommand)
		return ok && save.ComparisonID == fixedID
	})).Return(nil)

	outcome, err := newService(q, c, time.Second).Compare(context.Background(), CompareRequest{Save: true})

	require.NoError(t, err)
	assert.Equal(t, fixedID, outcome.ComparisonID)
	assert.Empty(t, outcome.Warnings)
	c.AssertExpectations(t)
}

func TestCompare_SaveFailureBecomesWarning(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		warning string
	}{
		{"store error", errors.NewStoreError("put", stderrors.New("disk full")), "comparison was not saved: "},
		{"timeout", context.DeadlineExceeded, "comparison was not saved: store operation timed out"},
		{"unknown", stderrors.New("boom"), "comparison was not saved: store unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, c := new(mockQueries), new(mockCommands)
			q.On("Ask", mock.Anything, mock.Anything).Return(computed(), nil)
			c.On("Send", mock.Anything, mock.Anything).Return(tt.err)

			outcome, err := newService(q, c, time.Second).Compare(context.Background(), CompareRequest{Save: true})

			require.NoError(t, err)
			require.NotNil(t, outcome.Result)
			assert.Empty(t, outcome.ComparisonID)
			require.Len(t, outcome.Warnings, 1)
			assert.Contains(t, outcome.Warnings[0], tt.warning)
		})
	}
}

func TestCompare_SaveUsesStoreTimeout(t *testing.T) {
	q, c := new(mockQueries), new(mockCommands)
	q.On("Ask", mock.Anything, mock.Anything).Return(computed(), nil)
	c.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded)

	start := time.Now()
	outcome, err := newService(q, c, 20*time.Millisecond).Compare(context.Background(), CompareRequest{Save: true})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, []string{"comparison was not saved: store operation timed out"}, outcome.Warnings)
}

func TestCompare_ComputeErrorIsReturned(t *testing.T) {
	q, c := new(mockQueries), new(mockCommands)
	q.On("Ask", mock.Anything, mock.Anything).Return(nil, errors.NewValidationError("too many nodes"))

	outcome, err := newService(q, c, time.Second).Compare(context.Background(), CompareRequest{Save: true})

	assert.Nil(t, outcome)
	assert.True(t, errors.IsValidation(err))
	c.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestService_QueryPassThrough(t *testing.T) {
	ctx := context.Background()
	q, c := new(mockQueries), new(mockCommands)
	merged := &merging.Result{MergeStrategy: merging.StrategyUnion}
	q.On("Ask", ctx, queries.MergeGraphsQuery{Strategy: "union"}).Return(merged, nil)
	q.On("Ask", ctx, queries.ListComparisonsQuery{Page: 1, PageSize: 10}).
		Return(&queries.ListComparisonsResult{Page: 1, PageSize: 10}, nil)
	q.On("Ask", ctx, queries.GetComparisonQuery{ComparisonID: fixedID}).Return("not a result", nil)
	c.On("Send", ctx, commands.DeleteComparisonCommand{ComparisonID: fixedID}).Return(nil)
	service := newService(q, c, time.Second)

	got, err := service.Merge(ctx, aggregates.Snapshot{}, aggregates.Snapshot{}, "union")
	require.NoError(t, err)
	assert.Same(t, merged, got)

	page, err := service.ListComparisons(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, page.PageSize)

	_, err = service.GetComparison(ctx, fixedID)
	assert.Error(t, err)

	require.NoError(t, service.DeleteComparison(ctx, fixedID))
}
