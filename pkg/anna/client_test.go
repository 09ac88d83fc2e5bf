package anna

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfig_Defaults(t *testing.T) {
	c := NewClient(Config{Host: "192.168.1.20", Password: "abcdefgh"})
	cfg := c.Config()

	assert.Equal(t, DefaultUsername, cfg.Username)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "http://192.168.1.20:80", cfg.BaseURL())
}

func TestConfig_BaseURL_IPv6(t *testing.T) {
	cfg := Config{Host: "fe80::1", Port: 8080}
	assert.Equal(t, "http://[fe80::1]:8080", cfg.BaseURL())
}

func TestClient_Ping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"gateway up", http.StatusNotFound, false},
		{"ok is unexpected", http.StatusOK, true},
		{"unauthorized", http.StatusUnauthorized, true},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, PingPath, r.URL.Path)
				w.WriteHeader(tt.status)
			})

			err := client.Ping(context.Background())
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConnectionError(err))
		})
	}
}

func TestClient_BasicAuth(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "smile", user)
		assert.Equal(t, "abcdefgh", pass)
		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, client.Ping(context.Background()))
}

func TestClient_DomainObjects(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DomainObjectsPath, r.URL.Path)
		_, _ = io.WriteString(w, currentDomainObjects)
	})

	doc, err := client.DomainObjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Current, Detect(doc))
}

func TestClient_DomainObjects_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := client.DomainObjects(context.Background())
		assert.True(t, IsConnectionError(err))

		var gwErr *GatewayError
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, http.StatusUnauthorized, gwErr.StatusCode)
		assert.False(t, gwErr.Retryable)
	})

	t.Run("malformed body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<domain_objects><appliance>")
		})
		_, err := client.DomainObjects(context.Background())
		assert.True(t, IsParseError(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		_, err := client.DomainObjects(context.Background())
		assert.True(t, IsConnectionError(err))
		assert.True(t, IsRetryable(err))
	})
}

func TestClient_Timeout(t *testing.T) {
	done := make(chan struct{})
	_, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-done
	})
	defer close(done)

	cfg := configFor(t, server.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := NewClient(cfg)

	err := client.Ping(context.Background())
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, NetworkErrorTimeout, gwErr.NetworkSubtype)
}

func TestClient_SetTemperature(t *testing.T) {
	var gotPath, gotType, gotBody string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	})

	_, err := client.SetTemperature(context.Background(), currentDoc(t), 20.5)
	require.NoError(t, err)

	assert.Equal(t, "/core/locations;id=loc-living/thermostat;id=tf-living", gotPath)
	assert.Equal(t, "text/xml", gotType)
	assert.Equal(t, "<thermostat_functionality><setpoint>20.5</setpoint></thermostat_functionality>", gotBody)
}

func TestClient_SetPreset_Current(t *testing.T) {
	var mu sync.Mutex
	var requests []string
	var putBody string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		requests = append(requests, r.Method+" "+r.URL.Path)

		switch {
		case r.Method == http.MethodGet && r.URL.Path == LocationsPath:
			_, _ = io.WriteString(w, locationsDocument)
		case r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			putBody = string(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	_, err := client.SetPreset(context.Background(), currentDoc(t), "away")
	require.NoError(t, err)

	assert.Equal(t, []string{"GET /core/locations", "PUT /core/locations;id=loc-living"}, requests)
	assert.Equal(t,
		`<locations><location id="loc-living"><name>Living room</name><type>building</type><preset>away</preset></location></locations>`,
		putBody)
}

func TestClient_SetPreset_LegacyUnknown(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	_, err := client.SetPreset(context.Background(), legacyDoc(t), "vacation")
	assert.ErrorIs(t, err, ErrPresetNotFound)
}

func TestClient_Submit_Rejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "<error>invalid setpoint</error>")
	})

	req, err := RulePresetRequest("rule-away")
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), req)
	require.Error(t, err)
	assert.True(t, IsCommandFailed(err))

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	assert.Equal(t, "<error>invalid setpoint</error>", gwErr.Body)
}

func TestClient_Submit_RejectsNonPut(t *testing.T) {
	client := NewClient(Config{Host: "127.0.0.1"})
	_, err := client.Submit(context.Background(), &Request{Method: http.MethodGet, Path: "/"})
	assert.Error(t, err)
}

func TestClient_Status(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, legacyDomainObjects)
	})

	s, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Legacy, s.Generation)
	assert.Equal(t, map[string]float64{"home": 20, "away": 17}, s.Presets)
}

// recordingTransport answers every request with a fixed status and body
type recordingTransport struct {
	status int
	body   string
	calls  []string
}

func (r *recordingTransport) Get(ctx context.Context, path string) (int, []byte, error) {
	r.calls = append(r.calls, "GET "+path)
	return r.status, []byte(r.body), nil
}

func (r *recordingTransport) Put(ctx context.Context, path, contentType string, body []byte) (int, []byte, error) {
	r.calls = append(r.calls, "PUT "+path)
	return r.status, nil, nil
}

func TestClient_WithTransport(t *testing.T) {
	tr := &recordingTransport{status: http.StatusOK, body: legacyDomainObjects}
	client := NewClient(Config{Host: "gateway.invalid"}, WithTransport(tr))

	doc, err := client.DomainObjects(context.Background())
	require.NoError(t, err)

	_, err = client.SetTemperature(context.Background(), doc, 19)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /core/domain_objects",
		"PUT /core/appliances;id=app-legacy-thermostat/thermostat",
	}, tr.calls)
}

func TestClient_WithHTTPClient(t *testing.T) {
	var seen bool
	_, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Test") == "1"
		w.WriteHeader(http.StatusNotFound)
	})

	hc := &http.Client{Transport: headerTransport{base: http.DefaultTransport}}
	client := NewClient(configFor(t, server.URL), WithHTTPClient(hc))

	require.NoError(t, client.Ping(context.Background()))
	assert.True(t, seen)
}

type headerTransport struct {
	base http.RoundTripper
}

func (h headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("X-Test", "1")
	return h.base.RoundTrip(r)
}

func TestClient_LogsExchanges(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	_, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client := NewClient(configFor(t, server.URL), WithLogger(zap.New(core)))

	require.NoError(t, client.Ping(context.Background()))

	entries := logs.FilterMessage("Gateway request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, PingPath, fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}
