package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// NewClient creates a DynamoDB client. A non-nil endpoint (LocalStack)
// redirects all traffic to the local instance.
func NewClient(awsCfg aws.Config, endpoint *string) *dynamodb.Client {
	var clientOpts []func(*dynamodb.Options)
	if endpoint != nil {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = endpoint
		})
	}
	return dynamodb.NewFromConfig(awsCfg, clientOpts...)
}
