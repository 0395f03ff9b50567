package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shashiranjanraj/apotek/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type sourceMock struct{ mock.Mock }

func (m *sourceMock) FetchPending(ctx context.Context, limit int) ([]models.OutboxRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.OutboxRecord), args.Error(1)
}

func (m *sourceMock) MarkSent(ctx context.Context, id uint, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *sourceMock) MarkFailed(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type publisherMock struct{ mock.Mock }

func (m *publisherMock) Publish(ctx context.Context, topic, key string, value []byte) error {
	return m.Called(ctx, topic, key, value).Error(0)
}

func records() []models.OutboxRecord {
	return []models.OutboxRecord{
		{ID: 1, EventID: "e1", Topic: "apotek.sales", Key: "transaction-1", Payload: `{"transaction_id":1}`},
		{ID: 2, EventID: "e2", Topic: "apotek.sales", Key: "transaction-2", Payload: `{"transaction_id":2}`},
	}
}

func TestTickPublishesAndMarksSent(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	src, pub := &sourceMock{}, &publisherMock{}
	src.On("FetchPending", mock.Anything, 50).Return(records(), nil)
	pub.On("Publish", mock.Anything, "apotek.sales", "transaction-1", []byte(`{"transaction_id":1}`)).Return(nil)
	pub.On("Publish", mock.Anything, "apotek.sales", "transaction-2", []byte(`{"transaction_id":2}`)).Return(nil)
	src.On("MarkSent", mock.Anything, uint(1), at).Return(nil)
	src.On("MarkSent", mock.Anything, uint(2), at).Return(nil)

	r := NewRelay(src, pub, 50)
	r.now = func() time.Time { return at }

	require.NoError(t, r.Tick(context.Background()))
	src.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestTickStopsAtFirstFailure(t *testing.T) {
	src, pub := &sourceMock{}, &publisherMock{}
	src.On("FetchPending", mock.Anything, 100).Return(records(), nil)
	pub.On("Publish", mock.Anything, "apotek.sales", "transaction-1", mock.Anything).Return(errors.New("broker down"))
	src.On("MarkFailed", mock.Anything, uint(1)).Return(nil)

	err := NewRelay(src, pub, 0).Tick(context.Background())
	assert.EqualError(t, err, "broker down")

	pub.AssertNumberOfCalls(t, "Publish", 1)
	src.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything)
	src.AssertExpectations(t)
}
