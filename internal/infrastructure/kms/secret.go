// Package kms resolves secrets that are stored encrypted under an AWS KMS key.
package kms

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

type decrypter interface {
	Decrypt(ctx context.Context, in *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

func NewClient(awsCfg aws.Config, endpoint *string) *kms.Client {
	var opts []func(*kms.Options)
	if endpoint != nil {
		opts = append(opts, func(o *kms.Options) { o.BaseEndpoint = endpoint })
	}
	return kms.NewFromConfig(awsCfg, opts...)
}

// DecryptSecret decrypts a base64 ciphertext blob and returns the plaintext.
func DecryptSecret(ctx context.Context, client decrypter, ciphertextB64 string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	out, err := client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
	if err != nil {
		return "", fmt.Errorf("kms decrypt: %w", err)
	}
	if len(out.Plaintext) == 0 {
		return "", fmt.Errorf("kms decrypt: empty plaintext")
	}
	return string(out.Plaintext), nil
}
