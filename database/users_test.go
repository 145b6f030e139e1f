package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLikePattern(t *testing.T) {
	assert.Equal(t, `50\% off`, escapeLikePattern("50% off"))
	assert.Equal(t, `snake\_case`, escapeLikePattern("snake_case"))
	assert.Equal(t, `back\\slash`, escapeLikePattern(`back\slash`))
	assert.Equal(t, "plain", escapeLikePattern("plain"))
}
