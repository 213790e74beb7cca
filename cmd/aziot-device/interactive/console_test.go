package interactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocRIDSkipsTwinSnapshotID(t *testing.T) {
	var c Console
	assert.Equal(t, uint32(2), c.allocRID())
	assert.Equal(t, uint32(3), c.allocRID())
	assert.Equal(t, uint32(4), c.allocRID())
}
