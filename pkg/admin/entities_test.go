package admin

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/mqforge/busadmin/pkg/atom"
)

func entryWithContent(name, payload string) *atom.Entry {
	return &atom.Entry{
		ID:    "https://ns.example.net/" + name,
		Title: name,
		Content: &atom.Content{
			Type: "application/xml",
			Body: []byte(payload),
		},
	}
}

func TestParseQueueEntry(t *testing.T) {
	payload := `<QueueDescription>
		<LockDuration>PT1M</LockDuration>
		<MaxSizeInMegabytes>1024</MaxSizeInMegabytes>
		<RequiresDuplicateDetection>true</RequiresDuplicateDetection>
		<RequiresSession>false</RequiresSession>
		<DefaultMessageTimeToLive>P14D</DefaultMessageTimeToLive>
		<DeadLetteringOnMessageExpiration>true</DeadLetteringOnMessageExpiration>
		<DuplicateDetectionHistoryTimeWindow>PT10M</DuplicateDetectionHistoryTimeWindow>
		<MaxDeliveryCount>10</MaxDeliveryCount>
		<Status>SendDisabled</Status>
		<ForwardTo>other-queue</ForwardTo>
	</QueueDescription>`

	props, err := parseQueueEntry(entryWithContent("orders", payload))
	if err != nil {
		t.Fatalf("parseQueueEntry() error = %v", err)
	}

	if props.Name != "orders" {
		t.Errorf("Name = %q, want orders", props.Name)
	}
	if props.LockDuration != time.Minute {
		t.Errorf("LockDuration = %v, want 1m", props.LockDuration)
	}
	if props.MaxSizeInMegabytes != 1024 {
		t.Errorf("MaxSizeInMegabytes = %d, want 1024", props.MaxSizeInMegabytes)
	}
	if !props.RequiresDuplicateDetection {
		t.Error("RequiresDuplicateDetection = false, want true")
	}
	if props.DefaultMessageTimeToLive != 14*24*time.Hour {
		t.Errorf("DefaultMessageTimeToLive = %v, want 336h", props.DefaultMessageTimeToLive)
	}
	if props.DuplicateDetectionHistoryTimeWindow != 10*time.Minute {
		t.Errorf("DuplicateDetectionHistoryTimeWindow = %v, want 10m", props.DuplicateDetectionHistoryTimeWindow)
	}
	if props.Status != StatusSendDisabled {
		t.Errorf("Status = %q, want SendDisabled", props.Status)
	}
	if props.ForwardTo != "other-queue" {
		t.Errorf("ForwardTo = %q, want other-queue", props.ForwardTo)
	}
}

func TestParseQueueEntry_NoContent(t *testing.T) {
	_, err := parseQueueEntry(&atom.Entry{Title: "orders"})
	if err == nil {
		t.Error("expected error for entry without content")
	}
}

func TestParseQueueRuntimeEntry(t *testing.T) {
	payload := `<QueueDescription>
		<SizeInBytes>4096</SizeInBytes>
		<MessageCount>42</MessageCount>
		<CountDetails>
			<ActiveMessageCount>30</ActiveMessageCount>
			<DeadLetterMessageCount>10</DeadLetterMessageCount>
			<ScheduledMessageCount>2</ScheduledMessageCount>
			<TransferMessageCount>0</TransferMessageCount>
			<TransferDeadLetterMessageCount>0</TransferDeadLetterMessageCount>
		</CountDetails>
		<CreatedAt>2026-01-10T08:00:00Z</CreatedAt>
		<AccessedAt>2026-02-01T12:30:00Z</AccessedAt>
	</QueueDescription>`

	props, err := parseQueueRuntimeEntry(entryWithContent("orders", payload))
	if err != nil {
		t.Fatalf("parseQueueRuntimeEntry() error = %v", err)
	}

	if props.TotalMessageCount != 42 {
		t.Errorf("TotalMessageCount = %d, want 42", props.TotalMessageCount)
	}
	if props.ActiveMessageCount != 30 {
		t.Errorf("ActiveMessageCount = %d, want 30", props.ActiveMessageCount)
	}
	if props.DeadLetterMessageCount != 10 {
		t.Errorf("DeadLetterMessageCount = %d, want 10", props.DeadLetterMessageCount)
	}
	if props.SizeInBytes != 4096 {
		t.Errorf("SizeInBytes = %d, want 4096", props.SizeInBytes)
	}
	if props.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want parsed timestamp")
	}
	if !props.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should stay zero when absent")
	}
}

func TestQueueToXML_OmitsUnsetDurations(t *testing.T) {
	desc := queueToXML(&QueueProperties{
		Name:         "orders",
		LockDuration: 30 * time.Second,
	})
	payload, err := xml.Marshal(&desc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	body := string(payload)
	if !strings.Contains(body, "<LockDuration>PT30S</LockDuration>") {
		t.Errorf("payload missing LockDuration: %s", body)
	}
	if strings.Contains(body, "DefaultMessageTimeToLive") {
		t.Errorf("payload should omit unset DefaultMessageTimeToLive: %s", body)
	}
	if strings.Contains(body, "CreatedAt") {
		t.Errorf("payload should never carry server timestamps: %s", body)
	}
}

func TestParseTopicEntry(t *testing.T) {
	payload := `<TopicDescription>
		<MaxSizeInMegabytes>2048</MaxSizeInMegabytes>
		<RequiresDuplicateDetection>true</RequiresDuplicateDetection>
		<SupportOrdering>true</SupportOrdering>
		<Status>Active</Status>
	</TopicDescription>`

	props, err := parseTopicEntry(entryWithContent("events", payload))
	if err != nil {
		t.Fatalf("parseTopicEntry() error = %v", err)
	}
	if props.Name != "events" {
		t.Errorf("Name = %q, want events", props.Name)
	}
	if props.MaxSizeInMegabytes != 2048 {
		t.Errorf("MaxSizeInMegabytes = %d, want 2048", props.MaxSizeInMegabytes)
	}
	if !props.SupportOrdering {
		t.Error("SupportOrdering = false, want true")
	}
	if props.Status != StatusActive {
		t.Errorf("Status = %q, want Active", props.Status)
	}
}

func TestParseTopicRuntimeEntry(t *testing.T) {
	payload := `<TopicDescription>
		<SubscriptionCount>3</SubscriptionCount>
		<SizeInBytes>8192</SizeInBytes>
		<CountDetails><ScheduledMessageCount>7</ScheduledMessageCount></CountDetails>
	</TopicDescription>`

	props, err := parseTopicRuntimeEntry(entryWithContent("events", payload))
	if err != nil {
		t.Fatalf("parseTopicRuntimeEntry() error = %v", err)
	}
	if props.SubscriptionCount != 3 {
		t.Errorf("SubscriptionCount = %d, want 3", props.SubscriptionCount)
	}
	if props.ScheduledMessageCount != 7 {
		t.Errorf("ScheduledMessageCount = %d, want 7", props.ScheduledMessageCount)
	}
}

func TestParseSubscriptionEntry(t *testing.T) {
	payload := `<SubscriptionDescription>
		<LockDuration>PT45S</LockDuration>
		<RequiresSession>true</RequiresSession>
		<DeadLetteringOnMessageExpiration>true</DeadLetteringOnMessageExpiration>
		<MaxDeliveryCount>5</MaxDeliveryCount>
		<ForwardDeadLetteredMessagesTo>dead-letters</ForwardDeadLetteredMessagesTo>
	</SubscriptionDescription>`

	props, err := parseSubscriptionEntry("events", entryWithContent("audit", payload))
	if err != nil {
		t.Fatalf("parseSubscriptionEntry() error = %v", err)
	}
	if props.TopicName != "events" || props.SubscriptionName != "audit" {
		t.Errorf("identity = %q/%q, want events/audit", props.TopicName, props.SubscriptionName)
	}
	if props.LockDuration != 45*time.Second {
		t.Errorf("LockDuration = %v, want 45s", props.LockDuration)
	}
	if !props.RequiresSession {
		t.Error("RequiresSession = false, want true")
	}
	if props.MaxDeliveryCount != 5 {
		t.Errorf("MaxDeliveryCount = %d, want 5", props.MaxDeliveryCount)
	}
	if props.ForwardDeadLetteredMessagesTo != "dead-letters" {
		t.Errorf("ForwardDeadLetteredMessagesTo = %q, want dead-letters", props.ForwardDeadLetteredMessagesTo)
	}
}

func TestParseRuleEntry_Variants(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    RuleFilter
		action  string
	}{
		{
			name: "sql filter with action",
			payload: `<RuleDescription>
				<Filter><SqlExpression>priority &gt; 3</SqlExpression></Filter>
				<Action><SqlExpression>SET handled = 1</SqlExpression></Action>
				<Name>high-priority</Name>
			</RuleDescription>`,
			want:   RuleFilter{SQLExpression: "priority > 3"},
			action: "SET handled = 1",
		},
		{
			name: "correlation filter",
			payload: `<RuleDescription>
				<Filter><CorrelationId>order-saga</CorrelationId><Label>created</Label></Filter>
				<Name>by-correlation</Name>
			</RuleDescription>`,
			want: RuleFilter{CorrelationID: "order-saga", Subject: "created"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, err := parseRuleEntry("events", "audit", entryWithContent("rule", tt.payload))
			if err != nil {
				t.Fatalf("parseRuleEntry() error = %v", err)
			}
			if props.Filter.SQLExpression != tt.want.SQLExpression {
				t.Errorf("SQLExpression = %q, want %q", props.Filter.SQLExpression, tt.want.SQLExpression)
			}
			if props.Filter.CorrelationID != tt.want.CorrelationID {
				t.Errorf("CorrelationID = %q, want %q", props.Filter.CorrelationID, tt.want.CorrelationID)
			}
			if props.Filter.Subject != tt.want.Subject {
				t.Errorf("Subject = %q, want %q", props.Filter.Subject, tt.want.Subject)
			}
			if props.Action != tt.action {
				t.Errorf("Action = %q, want %q", props.Action, tt.action)
			}
		})
	}
}

func TestRuleToXML_DefaultsToTrueFilter(t *testing.T) {
	desc := ruleToXML(&RuleProperties{Name: "catch-all"})
	payload, err := xml.Marshal(&desc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(payload), "TrueFilter") {
		t.Errorf("payload missing TrueFilter default: %s", payload)
	}
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		name  string
		entry atom.Entry
		want  string
	}{
		{"title wins", atom.Entry{Title: "orders", ID: "https://ns.example.net/other"}, "orders"},
		{"id fallback", atom.Entry{ID: "https://ns.example.net/topics/events"}, "events"},
		{"empty entry", atom.Entry{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryName(&tt.entry); got != tt.want {
				t.Errorf("entryName() = %q, want %q", got, tt.want)
			}
		})
	}
}
