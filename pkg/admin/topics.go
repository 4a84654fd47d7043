package admin

import (
	"context"
	"encoding/xml"
	"time"

	"github.com/mqforge/busadmin/pkg/atom"
	"github.com/mqforge/busadmin/pkg/paging"
)

const (
	resourceTopics   = "topics"
	collectionTopics = "/$Resources/Topics"
)

// TopicProperties is the configuration of a topic.
type TopicProperties struct {
	Name string

	MaxSizeInMegabytes                  int32
	RequiresDuplicateDetection          bool
	DefaultMessageTimeToLive            time.Duration
	DuplicateDetectionHistoryTimeWindow time.Duration
	EnableBatchedOperations             bool
	Status                              EntityStatus
	AutoDeleteOnIdle                    time.Duration
	SupportOrdering                     bool
	EnablePartitioning                  bool
}

// TopicRuntimeProperties are the read-only operational metrics of a topic.
type TopicRuntimeProperties struct {
	Name string

	SubscriptionCount     int32
	ScheduledMessageCount int64
	SizeInBytes           int64

	CreatedAt  time.Time
	UpdatedAt  time.Time
	AccessedAt time.Time
}

type topicDescriptionXML struct {
	XMLName xml.Name `xml:"TopicDescription"`

	MaxSizeInMegabytes                  int32            `xml:"MaxSizeInMegabytes,omitempty"`
	RequiresDuplicateDetection          bool             `xml:"RequiresDuplicateDetection"`
	DefaultMessageTimeToLive            string           `xml:"DefaultMessageTimeToLive,omitempty"`
	DuplicateDetectionHistoryTimeWindow string           `xml:"DuplicateDetectionHistoryTimeWindow,omitempty"`
	EnableBatchedOperations             bool             `xml:"EnableBatchedOperations"`
	Status                              string           `xml:"Status,omitempty"`
	AutoDeleteOnIdle                    string           `xml:"AutoDeleteOnIdle,omitempty"`
	SupportOrdering                     bool             `xml:"SupportOrdering"`
	EnablePartitioning                  bool             `xml:"EnablePartitioning"`
	SubscriptionCount                   int32            `xml:"SubscriptionCount,omitempty"`
	SizeInBytes                         int64            `xml:"SizeInBytes,omitempty"`
	CountDetails                        *countDetailsXML `xml:"CountDetails,omitempty"`
	CreatedAt                           *time.Time       `xml:"CreatedAt,omitempty"`
	UpdatedAt                           *time.Time       `xml:"UpdatedAt,omitempty"`
	AccessedAt                          *time.Time       `xml:"AccessedAt,omitempty"`
}

func topicToXML(p *TopicProperties) topicDescriptionXML {
	return topicDescriptionXML{
		MaxSizeInMegabytes:                  p.MaxSizeInMegabytes,
		RequiresDuplicateDetection:          p.RequiresDuplicateDetection,
		DefaultMessageTimeToLive:            durToXML(p.DefaultMessageTimeToLive),
		DuplicateDetectionHistoryTimeWindow: durToXML(p.DuplicateDetectionHistoryTimeWindow),
		EnableBatchedOperations:             p.EnableBatchedOperations,
		Status:                              string(p.Status),
		AutoDeleteOnIdle:                    durToXML(p.AutoDeleteOnIdle),
		SupportOrdering:                     p.SupportOrdering,
		EnablePartitioning:                  p.EnablePartitioning,
	}
}

func parseTopicEntry(entry *atom.Entry) (TopicProperties, error) {
	var desc topicDescriptionXML
	if err := unmarshalContent(entry, &desc); err != nil {
		return TopicProperties{}, err
	}
	return TopicProperties{
		Name:                                entryName(entry),
		MaxSizeInMegabytes:                  desc.MaxSizeInMegabytes,
		RequiresDuplicateDetection:          desc.RequiresDuplicateDetection,
		DefaultMessageTimeToLive:            durFromXML(desc.DefaultMessageTimeToLive),
		DuplicateDetectionHistoryTimeWindow: durFromXML(desc.DuplicateDetectionHistoryTimeWindow),
		EnableBatchedOperations:             desc.EnableBatchedOperations,
		Status:                              EntityStatus(desc.Status),
		AutoDeleteOnIdle:                    durFromXML(desc.AutoDeleteOnIdle),
		SupportOrdering:                     desc.SupportOrdering,
		EnablePartitioning:                  desc.EnablePartitioning,
	}, nil
}

func parseTopicRuntimeEntry(entry *atom.Entry) (TopicRuntimeProperties, error) {
	var desc topicDescriptionXML
	if err := unmarshalContent(entry, &desc); err != nil {
		return TopicRuntimeProperties{}, err
	}
	props := TopicRuntimeProperties{
		Name:              entryName(entry),
		SubscriptionCount: desc.SubscriptionCount,
		SizeInBytes:       desc.SizeInBytes,
		CreatedAt:         timeVal(desc.CreatedAt),
		UpdatedAt:         timeVal(desc.UpdatedAt),
		AccessedAt:        timeVal(desc.AccessedAt),
	}
	if desc.CountDetails != nil {
		props.ScheduledMessageCount = desc.CountDetails.ScheduledMessageCount
	}
	return props, nil
}

// GetTopic reads a topic description.
func (c *Client) GetTopic(ctx context.Context, topicName string) (*TopicProperties, error) {
	entry, err := c.getEntity(ctx, "/"+topicName, resourceTopics)
	if err != nil {
		return nil, err
	}
	props, err := parseTopicEntry(entry)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

// GetTopicRuntimeProperties reads a topic's operational metrics.
func (c *Client) GetTopicRuntimeProperties(ctx context.Context, topicName string) (*TopicRuntimeProperties, error) {
	entry, err := c.getEntity(ctx, "/"+topicName, resourceTopics)
	if err != nil {
		return nil, err
	}
	props, err := parseTopicRuntimeEntry(entry)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

// CreateTopic creates a topic. properties may be nil for server defaults.
func (c *Client) CreateTopic(ctx context.Context, topicName string, properties *TopicProperties) (*TopicProperties, error) {
	if properties == nil {
		properties = &TopicProperties{}
	}
	properties.Name = topicName
	return c.upsertTopic(ctx, properties, false)
}

// UpdateTopic replaces a topic's description. The topic must exist.
func (c *Client) UpdateTopic(ctx context.Context, properties *TopicProperties) (*TopicProperties, error) {
	return c.upsertTopic(ctx, properties, true)
}

func (c *Client) upsertTopic(ctx context.Context, properties *TopicProperties, update bool) (*TopicProperties, error) {
	desc := topicToXML(properties)
	payload, err := xml.Marshal(&desc)
	if err != nil {
		return nil, err
	}

	entry, err := c.putEntity(ctx, "/"+properties.Name, resourceTopics, payload, update)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return properties, nil
	}
	created, err := parseTopicEntry(entry)
	if err != nil {
		return nil, err
	}
	if created.Name == "" {
		created.Name = properties.Name
	}
	return &created, nil
}

// DeleteTopic removes a topic and its subscriptions.
func (c *Client) DeleteTopic(ctx context.Context, topicName string) error {
	return c.deleteEntity(ctx, "/"+topicName, resourceTopics)
}

// ListTopics returns a flat iterator over all topic descriptions.
func (c *Client) ListTopics(opts *ListOptions) (*paging.Items[TopicProperties], error) {
	return listItems(c, collectionTopics, resourceTopics, decodeTopic, opts)
}

// ListTopicsByPage returns a page iterator over topic descriptions.
func (c *Client) ListTopicsByPage(opts *ListOptions) (*paging.Pager[TopicProperties], error) {
	return listPager(c, collectionTopics, resourceTopics, decodeTopic, opts)
}

// ListTopicsRuntimeProperties returns a flat iterator over topic runtime
// metrics.
func (c *Client) ListTopicsRuntimeProperties(opts *ListOptions) (*paging.Items[TopicRuntimeProperties], error) {
	return listItems(c, collectionTopics, resourceTopics, decodeTopicRuntime, opts)
}

// ListTopicsRuntimePropertiesByPage is the page-mode variant of
// ListTopicsRuntimeProperties.
func (c *Client) ListTopicsRuntimePropertiesByPage(opts *ListOptions) (*paging.Pager[TopicRuntimeProperties], error) {
	return listPager(c, collectionTopics, resourceTopics, decodeTopicRuntime, opts)
}

func decodeTopic(entry *atom.Entry) (TopicProperties, bool) {
	props, err := parseTopicEntry(entry)
	return props, err == nil
}

func decodeTopicRuntime(entry *atom.Entry) (TopicRuntimeProperties, bool) {
	props, err := parseTopicRuntimeEntry(entry)
	return props, err == nil
}
