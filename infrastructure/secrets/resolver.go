// Package secrets resolves the cache AUTH token from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

// tokenField is the key carrying the AUTH token inside the secret's JSON
// document.
const tokenField = "auth-token"

// SecretsManagerAPI is the subset of the Secrets Manager client we use.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver fetches the cache AUTH token. An empty secret name means no auth
// is configured, which resolves to "absent" rather than an error so the
// client skips the AUTH step entirely.
type Resolver struct {
	client     SecretsManagerAPI
	secretName string
	logger     *zap.Logger
}

// NewResolver creates a resolver for the given secret name
func NewResolver(client SecretsManagerAPI, secretName string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client:     client,
		secretName: secretName,
		logger:     logger,
	}
}

// ResolveToken fetches and parses the secret. ok=false means no auth is
// configured; an error means auth is configured but the token could not be
// obtained.
func (r *Resolver) ResolveToken(ctx context.Context) (string, bool, error) {
	if r.secretName == "" {
		return "", false, nil
	}

	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(r.secretName),
	})
	if err != nil {
		return "", false, fmt.Errorf("get secret %s: %w", r.secretName, err)
	}
	if out.SecretString == nil {
		return "", false, fmt.Errorf("secret %s has no string payload", r.secretName)
	}

	var doc map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &doc); err != nil {
		return "", false, fmt.Errorf("parse secret %s: %w", r.secretName, err)
	}

	token, found := doc[tokenField]
	if !found || token == "" {
		return "", false, fmt.Errorf("secret %s missing %q field", r.secretName, tokenField)
	}

	r.logger.Debug("resolved cache auth token", zap.String("secret", r.secretName))
	return token, true, nil
}
