// internal/infra/secrets/store.go
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"workqueue-lambdas/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// API is the subset of the Secrets Manager client used here.
type API interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type credentials struct {
	Token string `json:"token"`
}

// Store reads token secrets from AWS Secrets Manager.
type Store struct {
	client API
}

func NewStore(client API) *Store {
	return &Store{client: client}
}

// GetToken fetches the current version of secretID and returns its token.
func (s *Store) GetToken(ctx context.Context, secretID string) (string, error) {
	if secretID == "" {
		return "", fmt.Errorf("%w: no secret id configured", domain.ErrSecretUnavailable)
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve secret: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("%w: secret %s has no string value", domain.ErrSecretUnavailable, secretID)
	}

	var creds credentials
	if err := json.Unmarshal([]byte(*out.SecretString), &creds); err != nil {
		return "", fmt.Errorf("failed to parse credentials: %w", err)
	}
	if creds.Token == "" {
		return "", fmt.Errorf("%w: secret %s has an empty token", domain.ErrSecretUnavailable, secretID)
	}
	return creds.Token, nil
}
