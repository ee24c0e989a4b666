package awso

import (
	"context"
	"errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"
	"sync"
)

// Error codes AWS uses when the credentials a client was built with have lapsed.
var expiredCodes = map[string]bool{
	"ExpiredToken":          true,
	"ExpiredTokenException": true,
	"RequestExpired":        true,
}

// IsExpired reports whether err is an AWS API error caused by stale credentials.
func IsExpired(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && expiredCodes[apiErr.ErrorCode()]
}

type loadConfigFunc func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error)

// ClientProvider builds a client lazily and caches it until Invalidate is called.
type ClientProvider[T any] struct {
	region      string
	buildClient func(cfg aws.Config) T
	loadConfig  loadConfigFunc

	mu     sync.Mutex
	client T
	built  bool
}

func NewClientProvider[T any](region string, buildClient func(cfg aws.Config) T) *ClientProvider[T] {
	return &ClientProvider[T]{
		region:      region,
		buildClient: buildClient,
		loadConfig:  config.LoadDefaultConfig,
	}
}

func (cp *ClientProvider[T]) Client(ctx context.Context) (T, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if !cp.built {
		cfg, err := cp.loadConfig(ctx, config.WithRegion(cp.region))
		if err != nil {
			var zero T
			return zero, err
		}
		cp.client = cp.buildClient(cfg)
		cp.built = true
	}
	return cp.client, nil
}

// Invalidate drops the cached client so the next Client call reloads credentials.
func (cp *ClientProvider[T]) Invalidate() {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	var zero T
	cp.client = zero
	cp.built = false
}
