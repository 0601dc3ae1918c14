package intutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMax(t *testing.T) {
	assert.Equal(t, -4, Min(3, -4, 0))
	assert.Equal(t, 3, Max(3, -4, 0))
	assert.Equal(t, 7, Min(7))
	assert.Equal(t, 7, Max(7))
}
