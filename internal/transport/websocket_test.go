package transport

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?sessionid=abc&token=xyz&sessionid=ignored", nil)

	query := flattenQuery(r)

	assert.Equal(t, "abc", query["sessionid"])
	assert.Equal(t, "xyz", query["token"])
}

func TestFlattenQueryEmpty(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)

	assert.Empty(t, flattenQuery(r))
}
