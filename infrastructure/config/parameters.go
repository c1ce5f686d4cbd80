package config

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"
)

// SSMAPI is the subset of the SSM client used for parameter lookups.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParameterStore reads deployment parameters from SSM Parameter Store under
// the /<project>/<environment>/ prefix.
type ParameterStore struct {
	client SSMAPI
	logger *zap.Logger
}

// NewParameterStore creates a parameter store reader
func NewParameterStore(client SSMAPI, logger *zap.Logger) *ParameterStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParameterStore{client: client, logger: logger}
}

// Get fetches one decrypted parameter value
func (p *ParameterStore) Get(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return *out.Parameter.Value, nil
}

// ResolveEndpoints fills endpoints left unset by the environment from the
// parameter store. Endpoints already present in the environment win.
func (c *Config) ResolveEndpoints(ctx context.Context, params *ParameterStore) error {
	prefix := fmt.Sprintf("/%s/%s", c.ProjectName, c.Environment)

	if c.CacheEndpoint == "" {
		endpoint, err := params.Get(ctx, prefix+"/redis/endpoint")
		if err != nil {
			return err
		}
		c.CacheEndpoint = endpoint

		if port, err := params.Get(ctx, prefix+"/redis/port"); err == nil {
			if n, convErr := strconv.Atoi(port); convErr == nil {
				c.CachePort = n
			}
		}
		params.logger.Info("resolved cache endpoint from parameter store",
			zap.String("endpoint", c.CacheEndpoint),
			zap.Int("port", c.CachePort),
		)
	}

	if c.SearchEndpoint == "" {
		endpoint, err := params.Get(ctx, prefix+"/opensearch/endpoint")
		if err != nil {
			return err
		}
		c.SearchEndpoint = normalizeEndpoint(endpoint)
		params.logger.Info("resolved search endpoint from parameter store",
			zap.String("endpoint", c.SearchEndpoint),
		)
	}

	return nil
}
