// Package cluster implements the transport used to reach one monitored
// cluster: authenticated JSON GETs against its API server plus a
// connectivity probe. The collector depends only on the Transport interface,
// never on transport details.
package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	"k8s.io/client-go/rest"

	"github.com/ppiankov/clusterpulse/internal/config"
)

// PathWhoAmI is the OpenShift identity endpoint used as the connectivity
// probe: it verifies both reachability and that the bearer token is accepted.
const PathWhoAmI = "/apis/user.openshift.io/v1/users/~"

// Transport is the access the collector needs to one cluster.
// Implementations must be safe for concurrent use.
type Transport interface {
	// GetJSON performs an authenticated GET of an absolute API path and
	// decodes the JSON response into out.
	GetJSON(ctx context.Context, path string, out interface{}) error

	// Probe verifies connectivity and auth, returning the authenticated
	// username.
	Probe(ctx context.Context) (string, error)
}

// BuildRestConfig builds a rest config for a remote cluster reached by API
// URL and bearer token. No kubeconfig is involved: the monitor always talks
// to clusters it is not running in.
func BuildRestConfig(cl config.Cluster, timeout time.Duration, insecureTLS bool) *rest.Config {
	return &rest.Config{
		Host:            cl.APIURL,
		BearerToken:     cl.Token,
		Timeout:         timeout,
		TLSClientConfig: rest.TLSClientConfig{Insecure: insecureTLS},
	}
}

// Connect builds a Transport per configured cluster, keyed by name.
// Any build failure fails the whole call: the monitor never starts
// with a partial fleet view.
func Connect(clusters []config.Cluster, timeout time.Duration, insecureTLS bool) (map[string]Transport, error) {
	transports := make(map[string]Transport, len(clusters))
	for _, cl := range clusters {
		t, err := New(cl, timeout, insecureTLS)
		if err != nil {
			return nil, err
		}
		transports[cl.Name] = t
	}
	return transports, nil
}

type restTransport struct {
	cluster string
	client  rest.Interface
}

// New builds a Transport for one cluster. The timeout bounds every request
// independently.
func New(cl config.Cluster, timeout time.Duration, insecureTLS bool) (Transport, error) {
	cfg := BuildRestConfig(cl, timeout, insecureTLS)
	cfg.NegotiatedSerializer = serializer.NewCodecFactory(runtime.NewScheme()).WithoutConversion()

	rc, err := rest.UnversionedRESTClientFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("build rest client for %s: %w", cl.Name, err)
	}
	return &restTransport{cluster: cl.Name, client: rc}, nil
}

func (t *restTransport) GetJSON(ctx context.Context, path string, out interface{}) error {
	raw, err := t.client.Get().AbsPath(path).DoRaw(ctx)
	if err != nil {
		return fmt.Errorf("get %s from %s: %w", path, t.cluster, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s from %s: %w", path, t.cluster, err)
	}
	return nil
}

func (t *restTransport) Probe(ctx context.Context) (string, error) {
	var user struct {
		Metadata metav1.ObjectMeta `json:"metadata"`
	}
	if err := t.GetJSON(ctx, PathWhoAmI, &user); err != nil {
		return "", err
	}
	if user.Metadata.Name == "" {
		return "unknown", nil
	}
	return user.Metadata.Name, nil
}
