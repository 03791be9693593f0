package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pharm-courses/auth-service/internal/models"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, mandatory, immediate, msg).Error(0)
}

type MockAck struct {
	mock.Mock
}

func (m *MockAck) Ack(multiple bool) error {
	return m.Called(multiple).Error(0)
}

func (m *MockAck) Nack(multiple, requeue bool) error {
	return m.Called(multiple, requeue).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestPublisher_PublishVerificationMail(t *testing.T) {
	ch := new(MockChannel)
	mail := models.VerificationMail{UserID: "u1", Email: "x@y.com", URL: "https://site/verify?token=abc", Attempts: 1}

	var published amqp.Publishing
	ch.On("Publish", Exchange, VerificationRoutingKey, false, false, mock.AnythingOfType("amqp.Publishing")).
		Run(func(args mock.Arguments) { published = args.Get(4).(amqp.Publishing) }).
		Return(nil).Once()

	err := NewPublisher(ch, 0).PublishVerificationMail(context.Background(), mail)
	require.NoError(t, err)

	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, amqp.Persistent, published.DeliveryMode)
	assert.Empty(t, published.Expiration)

	var got models.VerificationMail
	require.NoError(t, json.Unmarshal(published.Body, &got))
	assert.Equal(t, mail, got)
	ch.AssertExpectations(t)
}

func TestPublisher_DelaysRetries(t *testing.T) {
	tests := []struct {
		attempts       int
		wantExpiration string
	}{
		{attempts: 1, wantExpiration: "30000"},
		{attempts: 2, wantExpiration: "60000"},
		{attempts: 3, wantExpiration: "120000"},
		{attempts: 4, wantExpiration: "240000"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempts), func(t *testing.T) {
			ch := new(MockChannel)
			var published amqp.Publishing
			ch.On("Publish", Exchange, DelayRoutingKey, false, false, mock.AnythingOfType("amqp.Publishing")).
				Run(func(args mock.Arguments) { published = args.Get(4).(amqp.Publishing) }).
				Return(nil).Once()

			mail := models.VerificationMail{UserID: "u1", Attempts: tt.attempts}
			require.NoError(t, NewPublisher(ch, 30*time.Second).PublishVerificationMail(context.Background(), mail))

			assert.Equal(t, tt.wantExpiration, published.Expiration)
			ch.AssertExpectations(t)
		})
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Duration
		attempts int
		want     time.Duration
	}{
		{name: "disabled", base: 0, attempts: 3, want: 0},
		{name: "first retry", base: time.Minute, attempts: 1, want: time.Minute},
		{name: "zero attempts", base: time.Minute, attempts: 0, want: time.Minute},
		{name: "doubles", base: time.Minute, attempts: 3, want: 4 * time.Minute},
		{name: "capped", base: time.Minute, attempts: 20, want: MaxRetryDelay},
		{name: "base above cap", base: 2 * time.Hour, attempts: 1, want: MaxRetryDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RetryDelay(tt.base, tt.attempts))
		})
	}
}

func TestPublisher_PublishError(t *testing.T) {
	ch := new(MockChannel)
	ch.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed")).Once()

	err := NewPublisher(ch, time.Second).PublishVerificationMail(context.Background(), models.VerificationMail{})
	assert.ErrorContains(t, err, "channel closed")
}

func TestPublisher_CanceledContext(t *testing.T) {
	ch := new(MockChannel)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPublisher(ch, time.Second).PublishVerificationMail(ctx, models.VerificationMail{})
	assert.ErrorIs(t, err, context.Canceled)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettle(t *testing.T) {
	t.Run("ack on success", func(t *testing.T) {
		ack := new(MockAck)
		ack.On("Ack", false).Return(nil).Once()

		settle(context.Background(), ack, []byte("ok"), newNoopLogger(), func(_ context.Context, body []byte) error {
			assert.Equal(t, "ok", string(body))
			return nil
		})
		ack.AssertExpectations(t)
	})

	t.Run("nack with requeue on error", func(t *testing.T) {
		ack := new(MockAck)
		ack.On("Nack", false, true).Return(nil).Once()

		settle(context.Background(), ack, []byte("bad"), newNoopLogger(), func(context.Context, []byte) error {
			return errors.New("fail")
		})
		ack.AssertExpectations(t)
		ack.AssertNotCalled(t, "Ack", mock.Anything)
	})
}
