package topic

import (
	"fmt"
)

// Topic segments published by a panel.
// Structure: {root}/panel/{deviceID}/{suffix}
const (
	// SuffixFrame carries the last committed display frame (retained).
	SuffixFrame = "frame"

	// SuffixStatus carries the online flag, also used as the Last Will.
	SuffixStatus = "status"
)

// TopicBuilder constructs the topic strings a panel publishes to.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "transitpanel/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: root}
}

// Frame returns the topic a device publishes its rendered frame to.
func (b *TopicBuilder) Frame(deviceID string) string {
	return b.build(deviceID, SuffixFrame)
}

// Status returns the topic a device publishes its online flag to.
func (b *TopicBuilder) Status(deviceID string) string {
	return b.build(deviceID, SuffixStatus)
}

func (b *TopicBuilder) build(id, suffix string) string {
	return fmt.Sprintf("%s/panel/%s/%s", b.root, id, suffix)
}
