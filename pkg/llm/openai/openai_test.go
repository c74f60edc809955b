package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestNewClient_Options(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "")
	c, err := NewClient("sk-test")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = NewClient("sk-test", WithModel("gpt-4o"), WithBaseURL("http://localhost:8080/v1/"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.Model())
	assert.Equal(t, "http://localhost:8080/v1", c.BaseURL())

	t.Setenv("OPENAI_BASE_URL", "http://env.example/v1")
	c, err = NewClient("sk-test")
	require.NoError(t, err)
	assert.Equal(t, "http://env.example/v1", c.BaseURL())
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"{\"email\":\"a@b.com\"}"}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient("sk-test", WithBaseURL(srv.URL), WithModel("gpt-test"))
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), "fill the form")
	require.NoError(t, err)
	assert.Equal(t, `{"email":"a@b.com"}`, resp.Text())
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-test", gotBody["model"])

	msgs, ok := gotBody["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]interface{})
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "fill the form", first["content"])
}

func TestGenerate_StatusErrorCarriesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached"}}`)
	}))
	defer srv.Close()

	c, err := NewClient("sk-test", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c, _ := NewClient("sk-test", WithBaseURL(srv.URL))
	resp, err := c.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, resp.Candidates)
}

func TestFactory(t *testing.T) {
	f := Factory(WithModel("m"))
	c, err := f(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "m", c.Model())

	_, err = f(context.Background(), "")
	assert.Error(t, err)
}
