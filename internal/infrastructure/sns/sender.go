package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/property-listing-api/internal/domain"
)

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ListingPublisher announces listing events on an SNS topic.
type ListingPublisher struct {
	client   publisher
	topicARN string
}

func NewClient(awsCfg aws.Config, endpoint *string) *sns.Client {
	var opts []func(*sns.Options)
	if endpoint != nil {
		opts = append(opts, func(o *sns.Options) { o.BaseEndpoint = endpoint })
	}
	return sns.NewFromConfig(awsCfg, opts...)
}

func NewListingPublisher(client publisher, topicARN string) *ListingPublisher {
	return &ListingPublisher{client: client, topicARN: topicARN}
}

func (p *ListingPublisher) PublishListing(ctx context.Context, ev domain.ListingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal listing event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String("listing.created"),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String("listing.created")},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
