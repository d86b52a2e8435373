package testutils

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/i474232898/weather-provider-gateway/internal/transport"
	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

// MockClient is a testify mock of transport.Client.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Execute(ctx context.Context, req transport.Request) (transport.Response, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(transport.Response), args.Error(1)
}

// Resource matches requests for the given resource path.
func Resource(path string) interface{} {
	return mock.MatchedBy(func(r transport.Request) bool { return r.Resource == path })
}

// OK is a successful response carrying body.
func OK(body string) transport.Response {
	return transport.Response{Success: true, Body: body, StatusCode: http.StatusOK}
}

// Status is an unsuccessful response.
func Status(code int, msg string) transport.Response {
	return transport.Response{StatusCode: code, ErrorMessage: msg}
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock { return &Clock{now: start} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockResolver is a testify mock of a coordinate resolver.
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, text string) (weather.Coordinates, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(weather.Coordinates), args.Error(1)
}
