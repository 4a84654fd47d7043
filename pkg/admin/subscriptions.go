package admin

import (
	"context"
	"encoding/xml"
	"time"

	"github.com/mqforge/busadmin/pkg/atom"
	"github.com/mqforge/busadmin/pkg/paging"
)

const resourceSubscriptions = "subscriptions"

// SubscriptionProperties is the configuration of a subscription on a topic.
type SubscriptionProperties struct {
	TopicName        string
	SubscriptionName string

	LockDuration                              time.Duration
	RequiresSession                           bool
	DefaultMessageTimeToLive                  time.Duration
	DeadLetteringOnMessageExpiration          bool
	DeadLetteringOnFilterEvaluationExceptions bool
	MaxDeliveryCount                          int32
	EnableBatchedOperations                   bool
	Status                                    EntityStatus
	ForwardTo                                 string
	ForwardDeadLetteredMessagesTo             string
	AutoDeleteOnIdle                          time.Duration
}

// SubscriptionRuntimeProperties are the read-only operational metrics of a
// subscription.
type SubscriptionRuntimeProperties struct {
	TopicName        string
	SubscriptionName string

	ActiveMessageCount             int64
	DeadLetterMessageCount         int64
	TransferMessageCount           int64
	TransferDeadLetterMessageCount int64
	TotalMessageCount              int64

	CreatedAt  time.Time
	UpdatedAt  time.Time
	AccessedAt time.Time
}

type subscriptionDescriptionXML struct {
	XMLName xml.Name `xml:"SubscriptionDescription"`

	LockDuration                              string           `xml:"LockDuration,omitempty"`
	RequiresSession                           bool             `xml:"RequiresSession"`
	DefaultMessageTimeToLive                  string           `xml:"DefaultMessageTimeToLive,omitempty"`
	DeadLetteringOnMessageExpiration          bool             `xml:"DeadLetteringOnMessageExpiration"`
	DeadLetteringOnFilterEvaluationExceptions bool             `xml:"DeadLetteringOnFilterEvaluationExceptions"`
	MaxDeliveryCount                          int32            `xml:"MaxDeliveryCount,omitempty"`
	EnableBatchedOperations                   bool             `xml:"EnableBatchedOperations"`
	Status                                    string           `xml:"Status,omitempty"`
	ForwardTo                                 string           `xml:"ForwardTo,omitempty"`
	ForwardDeadLetteredMessagesTo             string           `xml:"ForwardDeadLetteredMessagesTo,omitempty"`
	AutoDeleteOnIdle                          string           `xml:"AutoDeleteOnIdle,omitempty"`
	MessageCount                              int64            `xml:"MessageCount,omitempty"`
	CountDetails                              *countDetailsXML `xml:"CountDetails,omitempty"`
	CreatedAt                                 *time.Time       `xml:"CreatedAt,omitempty"`
	UpdatedAt                                 *time.Time       `xml:"UpdatedAt,omitempty"`
	AccessedAt                                *time.Time       `xml:"AccessedAt,omitempty"`
}

func subscriptionToXML(p *SubscriptionProperties) subscriptionDescriptionXML {
	return subscriptionDescriptionXML{
		LockDuration:                     durToXML(p.LockDuration),
		RequiresSession:                  p.RequiresSession,
		DefaultMessageTimeToLive:         durToXML(p.DefaultMessageTimeToLive),
		DeadLetteringOnMessageExpiration: p.DeadLetteringOnMessageExpiration,
		DeadLetteringOnFilterEvaluationExceptions: p.DeadLetteringOnFilterEvaluationExceptions,
		MaxDeliveryCount:              p.MaxDeliveryCount,
		EnableBatchedOperations:       p.EnableBatchedOperations,
		Status:                        string(p.Status),
		ForwardTo:                     p.ForwardTo,
		ForwardDeadLetteredMessagesTo: p.ForwardDeadLetteredMessagesTo,
		AutoDeleteOnIdle:              durToXML(p.AutoDeleteOnIdle),
	}
}

func parseSubscriptionEntry(topicName string, entry *atom.Entry) (SubscriptionProperties, error) {
	var desc subscriptionDescriptionXML
	if err := unmarshalContent(entry, &desc); err != nil {
		return SubscriptionProperties{}, err
	}
	return SubscriptionProperties{
		TopicName:                        topicName,
		SubscriptionName:                 entryName(entry),
		LockDuration:                     durFromXML(desc.LockDuration),
		RequiresSession:                  desc.RequiresSession,
		DefaultMessageTimeToLive:         durFromXML(desc.DefaultMessageTimeToLive),
		DeadLetteringOnMessageExpiration: desc.DeadLetteringOnMessageExpiration,
		DeadLetteringOnFilterEvaluationExceptions: desc.DeadLetteringOnFilterEvaluationExceptions,
		MaxDeliveryCount:              desc.MaxDeliveryCount,
		EnableBatchedOperations:       desc.EnableBatchedOperations,
		Status:                        EntityStatus(desc.Status),
		ForwardTo:                     desc.ForwardTo,
		ForwardDeadLetteredMessagesTo: desc.ForwardDeadLetteredMessagesTo,
		AutoDeleteOnIdle:              durFromXML(desc.AutoDeleteOnIdle),
	}, nil
}

func parseSubscriptionRuntimeEntry(topicName string, entry *atom.Entry) (SubscriptionRuntimeProperties, error) {
	var desc subscriptionDescriptionXML
	if err := unmarshalContent(entry, &desc); err != nil {
		return SubscriptionRuntimeProperties{}, err
	}
	props := SubscriptionRuntimeProperties{
		TopicName:         topicName,
		SubscriptionName:  entryName(entry),
		TotalMessageCount: desc.MessageCount,
		CreatedAt:         timeVal(desc.CreatedAt),
		UpdatedAt:         timeVal(desc.UpdatedAt),
		AccessedAt:        timeVal(desc.AccessedAt),
	}
	if cd := desc.CountDetails; cd != nil {
		props.ActiveMessageCount = cd.ActiveMessageCount
		props.DeadLetterMessageCount = cd.DeadLetterMessageCount
		props.TransferMessageCount = cd.TransferMessageCount
		props.TransferDeadLetterMessageCount = cd.TransferDeadLetterMessageCount
	}
	return props, nil
}

func subscriptionPath(topicName, subscriptionName string) string {
	return "/" + topicName + "/Subscriptions/" + subscriptionName
}

func subscriptionsPath(topicName string) string {
	return "/" + topicName + "/Subscriptions"
}

// GetSubscription reads a subscription description.
func (c *Client) GetSubscription(ctx context.Context, topicName, subscriptionName string) (*SubscriptionProperties, error) {
	entry, err := c.getEntity(ctx, subscriptionPath(topicName, subscriptionName), resourceSubscriptions)
	if err != nil {
		return nil, err
	}
	props, err := parseSubscriptionEntry(topicName, entry)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

// GetSubscriptionRuntimeProperties reads a subscription's operational
// metrics.
func (c *Client) GetSubscriptionRuntimeProperties(ctx context.Context, topicName, subscriptionName string) (*SubscriptionRuntimeProperties, error) {
	entry, err := c.getEntity(ctx, subscriptionPath(topicName, subscriptionName), resourceSubscriptions)
	if err != nil {
		return nil, err
	}
	props, err := parseSubscriptionRuntimeEntry(topicName, entry)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

// CreateSubscription creates a subscription on a topic. properties may be nil
// for server defaults.
func (c *Client) CreateSubscription(ctx context.Context, topicName, subscriptionName string, properties *SubscriptionProperties) (*SubscriptionProperties, error) {
	if properties == nil {
		properties = &SubscriptionProperties{}
	}
	properties.TopicName = topicName
	properties.SubscriptionName = subscriptionName
	return c.upsertSubscription(ctx, properties, false)
}

// UpdateSubscription replaces a subscription's description. The subscription
// must exist.
func (c *Client) UpdateSubscription(ctx context.Context, properties *SubscriptionProperties) (*SubscriptionProperties, error) {
	return c.upsertSubscription(ctx, properties, true)
}

func (c *Client) upsertSubscription(ctx context.Context, properties *SubscriptionProperties, update bool) (*SubscriptionProperties, error) {
	desc := subscriptionToXML(properties)
	payload, err := xml.Marshal(&desc)
	if err != nil {
		return nil, err
	}

	path := subscriptionPath(properties.TopicName, properties.SubscriptionName)
	entry, err := c.putEntity(ctx, path, resourceSubscriptions, payload, update)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return properties, nil
	}
	created, err := parseSubscriptionEntry(properties.TopicName, entry)
	if err != nil {
		return nil, err
	}
	if created.SubscriptionName == "" {
		created.SubscriptionName = properties.SubscriptionName
	}
	return &created, nil
}

// DeleteSubscription removes a subscription and its rules.
func (c *Client) DeleteSubscription(ctx context.Context, topicName, subscriptionName string) error {
	return c.deleteEntity(ctx, subscriptionPath(topicName, subscriptionName), resourceSubscriptions)
}

// ListSubscriptions returns a flat iterator over a topic's subscription
// descriptions.
func (c *Client) ListSubscriptions(topicName string, opts *ListOptions) (*paging.Items[SubscriptionProperties], error) {
	return listItems(c, subscriptionsPath(topicName), resourceSubscriptions, decodeSubscription(topicName), opts)
}

// ListSubscriptionsByPage returns a page iterator over a topic's subscription
// descriptions.
func (c *Client) ListSubscriptionsByPage(topicName string, opts *ListOptions) (*paging.Pager[SubscriptionProperties], error) {
	return listPager(c, subscriptionsPath(topicName), resourceSubscriptions, decodeSubscription(topicName), opts)
}

// ListSubscriptionsRuntimeProperties returns a flat iterator over a topic's
// subscription runtime metrics.
func (c *Client) ListSubscriptionsRuntimeProperties(topicName string, opts *ListOptions) (*paging.Items[SubscriptionRuntimeProperties], error) {
	return listItems(c, subscriptionsPath(topicName), resourceSubscriptions, decodeSubscriptionRuntime(topicName), opts)
}

// ListSubscriptionsRuntimePropertiesByPage is the page-mode variant of
// ListSubscriptionsRuntimeProperties.
func (c *Client) ListSubscriptionsRuntimePropertiesByPage(topicName string, opts *ListOptions) (*paging.Pager[SubscriptionRuntimeProperties], error) {
	return listPager(c, subscriptionsPath(topicName), resourceSubscriptions, decodeSubscriptionRuntime(topicName), opts)
}

func decodeSubscription(topicName string) func(*atom.Entry) (SubscriptionProperties, bool) {
	return func(entry *atom.Entry) (SubscriptionProperties, bool) {
		props, err := parseSubscriptionEntry(topicName, entry)
		return props, err == nil
	}
}

func decodeSubscriptionRuntime(topicName string) func(*atom.Entry) (SubscriptionRuntimeProperties, bool) {
	return func(entry *atom.Entry) (SubscriptionRuntimeProperties, bool) {
		props, err := parseSubscriptionRuntimeEntry(topicName, entry)
		return props, err == nil
	}
}
