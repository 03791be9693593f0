package smtp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect(ctx context.Context) (Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	return m.Called().Error(0)
}

func (m *MockSMTPClient) Quit() error {
	return m.Called().Error(0)
}

type bufferWriter struct {
	strings.Builder
	closed bool
}

func (b *bufferWriter) Close() error {
	b.closed = true
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testMessage() Message {
	return Message{
		From:    "onboarding@resend.dev",
		To:      []string{"x@y.com"},
		Subject: "Підтвердження електронної пошти",
		HTML:    `<p><a href="https://site/verify?token=abc">link</a></p>`,
	}
}

func TestMailer_Send_Success(t *testing.T) {
	transport := new(MockTransport)
	client := new(MockSMTPClient)
	writer := &bufferWriter{}

	transport.On("Connect", mock.Anything).Return(client, nil).Once()
	client.On("Mail", "onboarding@resend.dev").Return(nil).Once()
	client.On("Rcpt", "x@y.com").Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	err := NewMailer(transport, newNoopLogger()).Send(context.Background(), testMessage())
	require.NoError(t, err)

	assert.True(t, writer.closed)
	body := writer.String()
	assert.Contains(t, body, "To: x@y.com")
	assert.Contains(t, body, "Content-Type: text/html")
	assert.Contains(t, body, "Subject: =?UTF-8?q?")
	assert.Contains(t, body, `href="https://site/verify?token=abc"`)

	transport.AssertExpectations(t)
	client.AssertExpectations(t)
}

func TestMailer_Send_FallsBackToSMTPUser(t *testing.T) {
	transport := new(MockTransport)
	client := new(MockSMTPClient)

	transport.On("GetSMTPUser").Return("noreply@pharm.zt.ua")
	transport.On("Connect", mock.Anything).Return(client, nil).Once()
	client.On("Mail", "noreply@pharm.zt.ua").Return(errors.New("rejected")).Once()
	client.On("Close").Return(nil).Once()

	msg := testMessage()
	msg.From = ""
	err := NewMailer(transport, newNoopLogger()).Send(context.Background(), msg)
	assert.ErrorContains(t, err, "rejected")

	client.AssertExpectations(t)
}

func TestMailer_Send_ConnectError(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Connect", mock.Anything).Return(nil, errors.New("connection error")).Once()

	err := NewMailer(transport, newNoopLogger()).Send(context.Background(), testMessage())
	assert.ErrorContains(t, err, "connection error")

	transport.AssertExpectations(t)
}

func TestMailer_Send_RcptError(t *testing.T) {
	transport := new(MockTransport)
	client := new(MockSMTPClient)

	transport.On("Connect", mock.Anything).Return(client, nil).Once()
	client.On("Mail", mock.Anything).Return(nil).Once()
	client.On("Rcpt", "x@y.com").Return(errors.New("no such user")).Once()
	client.On("Close").Return(nil).Once()

	err := NewMailer(transport, newNoopLogger()).Send(context.Background(), testMessage())
	assert.ErrorContains(t, err, "no such user")

	client.AssertNotCalled(t, "Data")
}
