package cluster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clusterpulse/internal/config"
)

func TestBuildRestConfig(t *testing.T) {
	cl := config.Cluster{
		Name:   "prod-eu",
		APIURL: "https://api.prod.example.com:6443",
		Token:  "sha256~secret",
	}

	cfg := BuildRestConfig(cl, 30*time.Second, true)
	assert.Equal(t, "https://api.prod.example.com:6443", cfg.Host)
	assert.Equal(t, "sha256~secret", cfg.BearerToken)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.TLSClientConfig.Insecure)
}

func TestRestTransportGetJSON(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"metadata":{"name":"system:admin"}}`))
	}))
	defer srv.Close()

	tr, err := New(config.Cluster{Name: "test", APIURL: srv.URL, Token: "tok"}, 5*time.Second, false)
	require.NoError(t, err)

	user, err := tr.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "system:admin", user)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, PathWhoAmI, gotPath)
}

func TestRestTransportGetJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"kind":"Status","message":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr, err := New(config.Cluster{Name: "test", APIURL: srv.URL, Token: "bad"}, 5*time.Second, false)
	require.NoError(t, err)

	_, err = tr.Probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), PathWhoAmI)
}

func TestMockTransport(t *testing.T) {
	m := NewMockTransport()
	m.Responses["/api/v1/nodes"] = map[string]interface{}{
		"items": []map[string]interface{}{
			{"metadata": map[string]interface{}{"name": "n1"}},
		},
	}

	var out struct {
		Items []struct {
			Metadata struct {
				Name string `json:"name"`
			} `json:"metadata"`
		} `json:"items"`
	}
	require.NoError(t, m.GetJSON(context.Background(), "/api/v1/nodes", &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "n1", out.Items[0].Metadata.Name)
	assert.Equal(t, []string{"/api/v1/nodes"}, m.GetCalls)

	err := m.GetJSON(context.Background(), "/api/v1/namespaces", &out)
	assert.Error(t, err)
}
