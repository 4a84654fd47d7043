package admin

import (
	"context"
	"encoding/xml"
	"time"

	"github.com/mqforge/busadmin/pkg/atom"
	"github.com/mqforge/busadmin/pkg/paging"
)

const resourceQueues = "queues"

// QueueProperties is the configuration of a queue.
type QueueProperties struct {
	Name string

	LockDuration                        time.Duration
	MaxSizeInMegabytes                  int32
	RequiresDuplicateDetection          bool
	RequiresSession                     bool
	DefaultMessageTimeToLive            time.Duration
	DeadLetteringOnMessageExpiration    bool
	DuplicateDetectionHistoryTimeWindow time.Duration
	MaxDeliveryCount                    int32
	EnableBatchedOperations             bool
	Status                              EntityStatus
	ForwardTo                           string
	AutoDeleteOnIdle                    time.Duration
	EnablePartitioning                  bool
}

// QueueRuntimeProperties are the read-only operational metrics of a queue.
type QueueRuntimeProperties struct {
	Name string

	ActiveMessageCount             int64
	DeadLetterMessageCount         int64
	ScheduledMessageCount          int64
	TransferMessageCount           int64
	TransferDeadLetterMessageCount int64
	TotalMessageCount              int64
	SizeInBytes                    int64

	CreatedAt  time.Time
	UpdatedAt  time.Time
	AccessedAt time.Time
}

// queueDescriptionXML is the wire shape of a queue description. Description
// and runtime fields travel in the same element; the two public shapes are
// projections of it.
type queueDescriptionXML struct {
	XMLName xml.Name `xml:"QueueDescription"`

	LockDuration                        string           `xml:"LockDuration,omitempty"`
	MaxSizeInMegabytes                  int32            `xml:"MaxSizeInMegabytes,omitempty"`
	RequiresDuplicateDetection          bool             `xml:"RequiresDuplicateDetection"`
	RequiresSession                     bool             `xml:"RequiresSession"`
	DefaultMessageTimeToLive            string           `xml:"DefaultMessageTimeToLive,omitempty"`
	DeadLetteringOnMessageExpiration    bool             `xml:"DeadLetteringOnMessageExpiration"`
	DuplicateDetectionHistoryTimeWindow string           `xml:"DuplicateDetectionHistoryTimeWindow,omitempty"`
	MaxDeliveryCount                    int32            `xml:"MaxDeliveryCount,omitempty"`
	EnableBatchedOperations             bool             `xml:"EnableBatchedOperations"`
	Status                              string           `xml:"Status,omitempty"`
	ForwardTo                           string           `xml:"ForwardTo,omitempty"`
	AutoDeleteOnIdle                    string           `xml:"AutoDeleteOnIdle,omitempty"`
	EnablePartitioning                  bool             `xml:"EnablePartitioning"`
	SizeInBytes                         int64            `xml:"SizeInBytes,omitempty"`
	MessageCount                        int64            `xml:"MessageCount,omitempty"`
	CountDetails                        *countDetailsXML `xml:"CountDetails,omitempty"`
	CreatedAt                           *time.Time       `xml:"CreatedAt,omitempty"`
	UpdatedAt                           *time.Time       `xml:"UpdatedAt,omitempty"`
	AccessedAt                          *time.Time       `xml:"AccessedAt,omitempty"`
}

func queueToXML(p *QueueProperties) queueDescriptionXML {
	return queueDescriptionXML{
		LockDuration:                        durToXML(p.LockDuration),
		MaxSizeInMegabytes:                  p.MaxSizeInMegabytes,
		RequiresDuplicateDetection:          p.RequiresDuplicateDetection,
		RequiresSession:                     p.RequiresSession,
		DefaultMessageTimeToLive:            durToXML(p.DefaultMessageTimeToLive),
		DeadLetteringOnMessageExpiration:    p.DeadLetteringOnMessageExpiration,
		DuplicateDetectionHistoryTimeWindow: durToXML(p.DuplicateDetectionHistoryTimeWindow),
		MaxDeliveryCount:                    p.MaxDeliveryCount,
		EnableBatchedOperations:             p.EnableBatchedOperations,
		Status:                              string(p.Status),
		ForwardTo:                           p.ForwardTo,
		AutoDeleteOnIdle:                    durToXML(p.AutoDeleteOnIdle),
		EnablePartitioning:                  p.EnablePartitioning,
	}
}

// parseQueueEntry decodes a queue description from a feed entry.
func parseQueueEntry(entry *atom.Entry) (QueueProperties, error) {
	var desc queueDescriptionXML
	if err := unmarshalContent(entry, &desc); err != nil {
		return QueueProperties{}, err
	}
	return QueueProperties{
		Name:                                entryName(entry),
		LockDuration:                        durFromXML(desc.LockDuration),
		MaxSizeInMegabytes:                  desc.MaxSizeInMegabytes,
		RequiresDuplicateDetection:          desc.RequiresDuplicateDetection,
		RequiresSession:                     desc.RequiresSession,
		DefaultMessageTimeToLive:            durFromXML(desc.DefaultMessageTimeToLive),
		DeadLetteringOnMessageExpiration:    desc.DeadLetteringOnMessageExpiration,
		DuplicateDetectionHistoryTimeWindow: durFromXML(desc.DuplicateDetectionHistoryTimeWindow),
		MaxDeliveryCount:                    desc.MaxDeliveryCount,
		EnableBatchedOperations:             desc.EnableBatchedOperations,
		Status:                              EntityStatus(desc.Status),
		ForwardTo:                           desc.ForwardTo,
		AutoDeleteOnIdle:                    durFromXML(desc.AutoDeleteOnIdle),
		EnablePartitioning:                  desc.EnablePartitioning,
	}, nil
}

// parseQueueRuntimeEntry decodes the runtime projection of a queue entry.
func parseQueueRuntimeEntry(entry *atom.Entry) (QueueRuntimeProperties, error) {
	var desc queueDescriptionXML
	if err := unmarshalContent(entry, &desc); err != nil {
		return QueueRuntimeProperties{}, err
	}
	props := QueueRuntimeProperties{
		Name:              entryName(entry),
		TotalMessageCount: desc.MessageCount,
		SizeInBytes:       desc.SizeInBytes,
		CreatedAt:         timeVal(desc.CreatedAt),
		UpdatedAt:         timeVal(desc.UpdatedAt),
		AccessedAt:        timeVal(desc.AccessedAt),
	}
	if cd := desc.CountDetails; cd != nil {
		props.ActiveMessageCount = cd.ActiveMessageCount
		props.DeadLetterMessageCount = cd.DeadLetterMessageCount
		props.ScheduledMessageCount = cd.ScheduledMessageCount
		props.TransferMessageCount = cd.TransferMessageCount
		props.TransferDeadLetterMessageCount = cd.TransferDeadLetterMessageCount
	}
	return props, nil
}

// GetQueue reads a queue description.
func (c *Client) GetQueue(ctx context.Context, queueName string) (*QueueProperties, error) {
	entry, err := c.getEntity(ctx, "/"+queueName, resourceQueues)
	if err != nil {
		return nil, err
	}
	props, err := parseQueueEntry(entry)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

// GetQueueRuntimeProperties reads a queue's operational metrics.
func (c *Client) GetQueueRuntimeProperties(ctx context.Context, queueName string) (*QueueRuntimeProperties, error) {
	entry, err := c.getEntity(ctx, "/"+queueName, resourceQueues)
	if err != nil {
		return nil, err
	}
	props, err := parseQueueRuntimeEntry(entry)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

// CreateQueue creates a queue. properties may be nil for server defaults.
func (c *Client) CreateQueue(ctx context.Context, queueName string, properties *QueueProperties) (*QueueProperties, error) {
	if properties == nil {
		properties = &QueueProperties{}
	}
	properties.Name = queueName
	return c.upsertQueue(ctx, properties, false)
}

// UpdateQueue replaces a queue's description. The queue must exist.
func (c *Client) UpdateQueue(ctx context.Context, properties *QueueProperties) (*QueueProperties, error) {
	return c.upsertQueue(ctx, properties, true)
}

func (c *Client) upsertQueue(ctx context.Context, properties *QueueProperties, update bool) (*QueueProperties, error) {
	desc := queueToXML(properties)
	payload, err := xml.Marshal(&desc)
	if err != nil {
		return nil, err
	}

	entry, err := c.putEntity(ctx, "/"+properties.Name, resourceQueues, payload, update)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return properties, nil
	}
	created, err := parseQueueEntry(entry)
	if err != nil {
		return nil, err
	}
	if created.Name == "" {
		created.Name = properties.Name
	}
	return &created, nil
}

// DeleteQueue removes a queue.
func (c *Client) DeleteQueue(ctx context.Context, queueName string) error {
	return c.deleteEntity(ctx, "/"+queueName, resourceQueues)
}

// ListQueues returns a flat iterator over all queue descriptions.
func (c *Client) ListQueues(opts *ListOptions) (*paging.Items[QueueProperties], error) {
	return listItems(c, collectionQueues, resourceQueues, decodeQueue, opts)
}

// ListQueuesByPage returns a page iterator over queue descriptions,
// resumable from a continuation token.
func (c *Client) ListQueuesByPage(opts *ListOptions) (*paging.Pager[QueueProperties], error) {
	return listPager(c, collectionQueues, resourceQueues, decodeQueue, opts)
}

// ListQueuesRuntimeProperties returns a flat iterator over queue runtime
// metrics.
func (c *Client) ListQueuesRuntimeProperties(opts *ListOptions) (*paging.Items[QueueRuntimeProperties], error) {
	return listItems(c, collectionQueues, resourceQueues, decodeQueueRuntime, opts)
}

// ListQueuesRuntimePropertiesByPage is the page-mode variant of
// ListQueuesRuntimeProperties.
func (c *Client) ListQueuesRuntimePropertiesByPage(opts *ListOptions) (*paging.Pager[QueueRuntimeProperties], error) {
	return listPager(c, collectionQueues, resourceQueues, decodeQueueRuntime, opts)
}

const collectionQueues = "/$Resources/Queues"

func decodeQueue(entry *atom.Entry) (QueueProperties, bool) {
	props, err := parseQueueEntry(entry)
	return props, err == nil
}

func decodeQueueRuntime(entry *atom.Entry) (QueueRuntimeProperties, bool) {
	props, err := parseQueueRuntimeEntry(entry)
	return props, err == nil
}
