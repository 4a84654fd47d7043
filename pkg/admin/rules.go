package admin

import (
	"context"
	"encoding/xml"

	"github.com/mqforge/busadmin/pkg/atom"
	"github.com/mqforge/busadmin/pkg/paging"
)

const resourceRules = "rules"

// RuleProperties is a subscription rule: a filter deciding which messages the
// subscription receives, plus an optional action applied to matches.
type RuleProperties struct {
	TopicName        string
	SubscriptionName string
	Name             string

	Filter RuleFilter

	// Action is a SQL-like expression applied to matching messages, empty for
	// none.
	Action string
}

// FilterType discriminates the rule filter variants.
type FilterType string

const (
	// FilterSQL matches messages against a SQL-like expression over message
	// properties.
	FilterSQL FilterType = "SqlFilter"

	// FilterCorrelation matches messages whose system properties equal the
	// filter's set fields.
	FilterCorrelation FilterType = "CorrelationFilter"

	// FilterTrue matches every message.
	FilterTrue FilterType = "TrueFilter"

	// FilterFalse matches no message.
	FilterFalse FilterType = "FalseFilter"
)

// RuleFilter describes a rule's match condition. Type selects the variant;
// SQLExpression applies to FilterSQL, the remaining fields to
// FilterCorrelation.
type RuleFilter struct {
	Type FilterType

	SQLExpression string

	CorrelationID string
	MessageID     string
	To            string
	ReplyTo       string
	Subject       string
}

type ruleDescriptionXML struct {
	XMLName xml.Name `xml:"RuleDescription"`

	Filter ruleFilterXML  `xml:"Filter"`
	Action *ruleActionXML `xml:"Action,omitempty"`
	Name   string         `xml:"Name,omitempty"`
}

type ruleFilterXML struct {
	Type          string `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr"`
	SQLExpression string `xml:"SqlExpression,omitempty"`
	CorrelationID string `xml:"CorrelationId,omitempty"`
	MessageID     string `xml:"MessageId,omitempty"`
	To            string `xml:"To,omitempty"`
	ReplyTo       string `xml:"ReplyTo,omitempty"`
	Subject       string `xml:"Label,omitempty"`
}

type ruleActionXML struct {
	Type          string `xml:"http://www.w3.org/2001/XMLSchema-instance type,attr"`
	SQLExpression string `xml:"SqlExpression,omitempty"`
}

func ruleToXML(p *RuleProperties) ruleDescriptionXML {
	filterType := p.Filter.Type
	if filterType == "" {
		filterType = FilterTrue
	}
	desc := ruleDescriptionXML{
		Filter: ruleFilterXML{
			Type:          string(filterType),
			SQLExpression: p.Filter.SQLExpression,
			CorrelationID: p.Filter.CorrelationID,
			MessageID:     p.Filter.MessageID,
			To:            p.Filter.To,
			ReplyTo:       p.Filter.ReplyTo,
			Subject:       p.Filter.Subject,
		},
		Name: p.Name,
	}
	if p.Action != "" {
		desc.Action = &ruleActionXML{
			Type:          "SqlRuleAction",
			SQLExpression: p.Action,
		}
	}
	return desc
}

func parseRuleEntry(topicName, subscriptionName string, entry *atom.Entry) (RuleProperties, error) {
	var desc ruleDescriptionXML
	if err := unmarshalContent(entry, &desc); err != nil {
		return RuleProperties{}, err
	}
	props := RuleProperties{
		TopicName:        topicName,
		SubscriptionName: subscriptionName,
		Name:             desc.Name,
		Filter: RuleFilter{
			Type:          FilterType(desc.Filter.Type),
			SQLExpression: desc.Filter.SQLExpression,
			CorrelationID: desc.Filter.CorrelationID,
			MessageID:     desc.Filter.MessageID,
			To:            desc.Filter.To,
			ReplyTo:       desc.Filter.ReplyTo,
			Subject:       desc.Filter.Subject,
		},
	}
	if props.Name == "" {
		props.Name = entryName(entry)
	}
	if desc.Action != nil {
		props.Action = desc.Action.SQLExpression
	}
	return props, nil
}

func rulePath(topicName, subscriptionName, ruleName string) string {
	return subscriptionPath(topicName, subscriptionName) + "/Rules/" + ruleName
}

func rulesPath(topicName, subscriptionName string) string {
	return subscriptionPath(topicName, subscriptionName) + "/Rules"
}

// GetRule reads a subscription rule.
func (c *Client) GetRule(ctx context.Context, topicName, subscriptionName, ruleName string) (*RuleProperties, error) {
	entry, err := c.getEntity(ctx, rulePath(topicName, subscriptionName, ruleName), resourceRules)
	if err != nil {
		return nil, err
	}
	props, err := parseRuleEntry(topicName, subscriptionName, entry)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

// CreateRule adds a rule to a subscription. A nil filter type defaults to a
// match-all filter.
func (c *Client) CreateRule(ctx context.Context, topicName, subscriptionName string, properties *RuleProperties) (*RuleProperties, error) {
	if properties == nil {
		properties = &RuleProperties{}
	}
	properties.TopicName = topicName
	properties.SubscriptionName = subscriptionName
	return c.upsertRule(ctx, properties, false)
}

// UpdateRule replaces a rule's filter and action. The rule must exist.
func (c *Client) UpdateRule(ctx context.Context, properties *RuleProperties) (*RuleProperties, error) {
	return c.upsertRule(ctx, properties, true)
}

func (c *Client) upsertRule(ctx context.Context, properties *RuleProperties, update bool) (*RuleProperties, error) {
	desc := ruleToXML(properties)
	payload, err := xml.Marshal(&desc)
	if err != nil {
		return nil, err
	}

	path := rulePath(properties.TopicName, properties.SubscriptionName, properties.Name)
	entry, err := c.putEntity(ctx, path, resourceRules, payload, update)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return properties, nil
	}
	created, err := parseRuleEntry(properties.TopicName, properties.SubscriptionName, entry)
	if err != nil {
		return nil, err
	}
	if created.Name == "" {
		created.Name = properties.Name
	}
	return &created, nil
}

// DeleteRule removes a rule from a subscription.
func (c *Client) DeleteRule(ctx context.Context, topicName, subscriptionName, ruleName string) error {
	return c.deleteEntity(ctx, rulePath(topicName, subscriptionName, ruleName), resourceRules)
}

// ListRules returns a flat iterator over a subscription's rules.
func (c *Client) ListRules(topicName, subscriptionName string, opts *ListOptions) (*paging.Items[RuleProperties], error) {
	return listItems(c, rulesPath(topicName, subscriptionName), resourceRules, decodeRule(topicName, subscriptionName), opts)
}

// ListRulesByPage returns a page iterator over a subscription's rules.
func (c *Client) ListRulesByPage(topicName, subscriptionName string, opts *ListOptions) (*paging.Pager[RuleProperties], error) {
	return listPager(c, rulesPath(topicName, subscriptionName), resourceRules, decodeRule(topicName, subscriptionName), opts)
}

func decodeRule(topicName, subscriptionName string) func(*atom.Entry) (RuleProperties, bool) {
	return func(entry *atom.Entry) (RuleProperties, bool) {
		props, err := parseRuleEntry(topicName, subscriptionName, entry)
		return props, err == nil
	}
}
