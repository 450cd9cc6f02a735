package client

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConnection(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		password      string
		authenticated bool
	}{
		{"both present", "tom", "cat", true},
		{"missing password", "tom", "", false},
		{"missing username", "", "cat", false},
		{"both missing", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := NewConnection("https://cb.example.com/cb/api/v3", tt.username, tt.password)

			assert.Equal(t, "https://cb.example.com/cb/api/v3", conn.BaseURL)
			assert.Equal(t, tt.authenticated, conn.Authenticated())
			if tt.authenticated {
				assert.Equal(t, BasicAuth{Username: tt.username, Password: tt.password}, conn.Credentials)
			} else {
				assert.Equal(t, Anonymous{}, conn.Credentials)
			}
		})
	}
}

func TestBasicAuth_HeaderValue(t *testing.T) {
	assert.Equal(t, "Basic dG9tOmNhdA==", BasicAuth{Username: "tom", Password: "cat"}.HeaderValue())
}

func TestApplyHeaders(t *testing.T) {
	t.Run("basic auth", func(t *testing.T) {
		h := http.Header{}
		NewConnection("http://x", "tom", "cat").applyHeaders(h)

		assert.Equal(t, "Basic dG9tOmNhdA==", h.Get("Authorization"))
		assert.Equal(t, "application/json", h.Get("Accept"))
		assert.Equal(t, "application/json", h.Get("Content-Type"))
	})

	t.Run("anonymous", func(t *testing.T) {
		h := http.Header{}
		NewConnection("http://x", "", "").applyHeaders(h)
		assert.Empty(t, h)
	})

	t.Run("nil credentials", func(t *testing.T) {
		h := http.Header{}
		Connection{BaseURL: "http://x"}.applyHeaders(h)
		assert.Empty(t, h)
		assert.False(t, Connection{}.Authenticated())
	})
}

func TestBasicAuth_FormattingHidesPassword(t *testing.T) {
	auth := BasicAuth{Username: "tom", Password: "s3cret"}

	for _, out := range []string{
		fmt.Sprintf("%v", auth),
		fmt.Sprintf("%+v", auth),
		fmt.Sprintf("%#v", auth),
		fmt.Sprintf("%s", auth),
	} {
		assert.NotContains(t, out, "s3cret")
		assert.Contains(t, out, "tom")
	}
}
