package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/inventory/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:      baseURL + "/",
		MachineID:    "M1",
		MachineKey:   "K1",
		IntegratorID: "I1",
	}, zap.NewNop())
}

func TestClient_ExecuteBuildsRequest(t *testing.T) {
	var (
		gotMethod, gotPath, gotBody string
		gotHeaders                  http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotHeaders = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Item":{"Id":"R1","CategoryName":"Shoes"}}`))
	}))
	defer srv.Close()

	payload := `{"Description":"Zapato rojo","Price":10}`
	resp, err := newTestClient(srv.URL).Execute(context.Background(), domain.Request{
		Method:   "put",
		Resource: "inventoryitem",
		RemoteID: "R1",
		Body:     url.QueryEscape(payload),
		Headers:  map[string]string{"X-Extra": "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/inventoryitem/R1", gotPath)
	assert.Equal(t, payload, gotBody)
	assert.Equal(t, "M1", gotHeaders.Get("MachineId"))
	assert.Equal(t, "K1", gotHeaders.Get("MachineKey"))
	assert.Equal(t, "I1", gotHeaders.Get("IntegratorId"))
	assert.Equal(t, "1", gotHeaders.Get("X-Extra"))

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "R1", domain.ItemString(resp.Item(), "Id"))
}

func TestClient_RequestHeadersWinOnCollision(t *testing.T) {
	var machineID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		machineID = r.Header.Get("MachineId")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Execute(context.Background(), domain.Request{
		Method:   http.MethodGet,
		Resource: "category",
		Headers:  map[string]string{"machineid": "override"},
	})

	require.NoError(t, err)
	assert.Equal(t, "override", machineID)
}

func TestClient_ErrorStatusIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>error</html>"))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Execute(context.Background(), domain.Request{Method: "POST", Resource: "inventoryitem"})

	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Nil(t, resp.Body, "un cuerpo no JSON se devuelve como nil")
}

func TestClient_NonObjectJSONIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Execute(context.Background(), domain.Request{Method: "GET", Resource: "category"})

	require.NoError(t, err)
	assert.Nil(t, resp.Body)
}

// 2^53+1 no es representable como float64.
func TestClient_LargeNumericIDIsNotRounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Item":{"Id":9007199254740993}}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Execute(context.Background(), domain.Request{Method: "POST", Resource: "inventoryitem"})

	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", domain.ItemString(resp.Item(), "Id"))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := newTestClient(base).Execute(context.Background(), domain.Request{Method: "GET", Resource: "category"})

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_UndecodableBodyIsTransportError(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").Execute(context.Background(), domain.Request{
		Method: "POST", Resource: "category", Body: "%zz",
	})

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_RequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RequestTimeout: 50 * time.Millisecond}, zap.NewNop())
	_, err := c.Execute(context.Background(), domain.Request{Method: "GET", Resource: "category"})

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_ConnectTimeout(t *testing.T) {
	// 10.255.255.1 no es enrutable: el dial se queda colgado hasta el timeout.
	c := NewClient(Config{
		BaseURL:        "http://10.255.255.1:81",
		ConnectTimeout: 100 * time.Millisecond,
		RequestTimeout: 10 * time.Second,
	}, zap.NewNop())

	start := time.Now()
	_, err := c.Execute(context.Background(), domain.Request{Method: "GET", Resource: "category"})

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Less(t, time.Since(start), 5*time.Second, "debe cortar el timeout de conexión, no el total")
}

// La verificación TLS solo se aplica cuando la petición es segura: contra un
// certificado autofirmado, Secure=true falla y Secure=false funciona.
func TestClient_TLSVerificationFollowsSecureFlag(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.Execute(context.Background(), domain.Request{Method: "GET", Resource: "category", Secure: true})
	assert.ErrorIs(t, err, domain.ErrTransport)

	resp, err := c.Execute(context.Background(), domain.Request{Method: "GET", Resource: "category", Secure: false})
	require.NoError(t, err)
	assert.Equal(t, true, resp.Body["ok"])
}

func TestClient_URL(t *testing.T) {
	c := newTestClient("https://api.example.com/v1")

	assert.Equal(t, "https://api.example.com/v1/category", c.URL("category", ""))
	assert.Equal(t, "https://api.example.com/v1/inventoryitem/a%20b", c.URL("/inventoryitem/", "a b"))
}
