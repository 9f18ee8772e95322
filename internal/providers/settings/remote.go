package settings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/infrastructure/resilience"
)

// RemoteOptions configures a RemoteStore.
type RemoteOptions struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *zap.Logger
	// Breaker overrides the default circuit breaker.
	Breaker *resilience.Breaker
}

// RemoteStore reads and writes options through a note server's HTTP API:
// GET {base}/options/{name} and PUT {base}/options with a {name: value} body.
type RemoteStore struct {
	client  *resty.Client
	breaker *resilience.Breaker
	logger  *zap.Logger
}

type optionResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewRemote creates a remote store. Transport-level retries are handled by
// retryablehttp; the breaker stops hammering a server that keeps failing.
func NewRemote(opts RemoteOptions) *RemoteStore {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 200 * time.Millisecond
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 2 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = retryLogger{opts.Logger.Sugar()}

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "trilium-tabs/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	if opts.Token != "" {
		client.SetHeader("Authorization", opts.Token)
	}

	breaker := opts.Breaker
	if breaker == nil {
		breaker = resilience.New("settings-remote", resilience.Settings{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsFailure: func(err error) bool {
				return err != nil && !errors.Is(err, ErrNotFound)
			},
			OnStateChange: func(name string, from, to resilience.State) {
				opts.Logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return &RemoteStore{client: client, breaker: breaker, logger: opts.Logger}
}

func (r *RemoteStore) Get(ctx context.Context, key string) (string, error) {
	return resilience.Call(ctx, r.breaker, func(ctx context.Context) (string, error) {
		var body optionResponse
		resp, err := r.client.R().
			SetContext(ctx).
			SetPathParam("name", key).
			SetResult(&body).
			Get("/options/{name}")
		if err != nil {
			return "", fmt.Errorf("failed to fetch option %s: %w", key, err)
		}
		if resp.StatusCode() == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		if resp.IsError() {
			return "", fmt.Errorf("failed to fetch option %s: status %d", key, resp.StatusCode())
		}
		return body.Value, nil
	})
}

func (r *RemoteStore) Put(ctx context.Context, key, value string) error {
	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		resp, err := r.client.R().
			SetContext(ctx).
			SetBody(map[string]string{key: value}).
			Put("/options")
		if err != nil {
			return fmt.Errorf("failed to store option %s: %w", key, err)
		}
		if resp.IsError() {
			return fmt.Errorf("failed to store option %s: status %d", key, resp.StatusCode())
		}
		return nil
	})
}

// BreakerState reports the remote circuit state.
func (r *RemoteStore) BreakerState() resilience.State {
	return r.breaker.State()
}

func (r *RemoteStore) Close() error {
	r.client.GetClient().CloseIdleConnections()
	return nil
}

// retryLogger adapts zap to retryablehttp.LeveledLogger.
type retryLogger struct {
	l *zap.SugaredLogger
}

func (r retryLogger) Error(msg string, kv ...interface{}) { r.l.Errorw(msg, kv...) }
func (r retryLogger) Info(msg string, kv ...interface{})  { r.l.Debugw(msg, kv...) }
func (r retryLogger) Debug(msg string, kv ...interface{}) { r.l.Debugw(msg, kv...) }
func (r retryLogger) Warn(msg string, kv ...interface{})  { r.l.Warnw(msg, kv...) }
