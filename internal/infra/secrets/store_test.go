package secrets

import (
	"context"
	"errors"
	"testing"

	"workqueue-lambdas/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	value *string
	err   error
	input *secretsmanager.GetSecretValueInput
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.value}, nil
}

func TestGetToken(t *testing.T) {
	api := &fakeSecrets{value: aws.String(`{"token":"s3cr3t"}`)}

	token, err := NewStore(api).GetToken(context.Background(), "arn:influx")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", token)
	assert.Equal(t, "arn:influx", aws.ToString(api.input.SecretId))
	assert.Equal(t, "AWSCURRENT", aws.ToString(api.input.VersionStage))
}

func TestGetTokenFailures(t *testing.T) {
	tests := []struct {
		name     string
		secretID string
		api      *fakeSecrets
		is       error
	}{
		{"no id", "", &fakeSecrets{}, domain.ErrSecretUnavailable},
		{"binary secret", "arn", &fakeSecrets{}, domain.ErrSecretUnavailable},
		{"empty token", "arn", &fakeSecrets{value: aws.String(`{"user":"x"}`)}, domain.ErrSecretUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(tt.api).GetToken(context.Background(), tt.secretID)
			assert.ErrorIs(t, err, tt.is)
		})
	}

	_, err := NewStore(&fakeSecrets{value: aws.String(`not json`)}).GetToken(context.Background(), "arn")
	assert.ErrorContains(t, err, "failed to parse credentials")

	denied := errors.New("AccessDenied")
	_, err = NewStore(&fakeSecrets{err: denied}).GetToken(context.Background(), "arn")
	assert.ErrorIs(t, err, denied)
}
