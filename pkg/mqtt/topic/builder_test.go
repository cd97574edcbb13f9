package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicBuilder(t *testing.T) {
	b := NewTopicBuilder("transitpanel/v1")

	assert.Equal(t, "transitpanel/v1/panel/kitchen/frame", b.Frame("kitchen"))
	assert.Equal(t, "transitpanel/v1/panel/kitchen/status", b.Status("kitchen"))
}
