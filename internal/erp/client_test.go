package erp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeERP answers XML-RPC calls with canned method responses, keyed by the
// method name found in the request body.
type fakeERP struct {
	responses map[string]string
	calls     []string
	block     chan struct{}
}

func newFakeERP() *fakeERP {
	return &fakeERP{responses: make(map[string]string)}
}

func (f *fakeERP) respond(method, valueXML string) {
	f.responses[method] = fmt.Sprintf(
		`<?xml version="1.0"?><methodResponse><params><param><value>%s</value></param></params></methodResponse>`,
		valueXML)
}

func (f *fakeERP) respondFault(method string, code int, msg string) {
	f.responses[method] = fmt.Sprintf(
		`<?xml version="1.0"?><methodResponse><fault><value><struct>`+
			`<member><name>faultCode</name><value><int>%d</int></value></member>`+
			`<member><name>faultString</name><value><string>%s</string></value></member>`+
			`</struct></value></fault></methodResponse>`, code, msg)
}

func (f *fakeERP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	if f.block != nil {
		<-f.block
	}
	for method, response := range f.responses {
		if strings.Contains(string(body), "<methodName>"+method+"</methodName>") ||
			strings.Contains(string(body), "<string>"+method+"</string>") {
			f.calls = append(f.calls, method)
			w.Header().Set("Content-Type", "text/xml")
			fmt.Fprint(w, response)
			return
		}
	}
	http.Error(w, "no canned response", http.StatusInternalServerError)
}

func newTestClient(t *testing.T, fake *fakeERP) (*XMLRPCClient, *httptest.Server) {
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewXMLRPCClient(Options{
		URL:      server.URL,
		Database: "rental",
		Username: "sync@example.com",
		APIKey:   "key",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return client, server
}

func TestAuthenticateStoresSession(t *testing.T) {
	fake := newFakeERP()
	fake.respond("authenticate", "<int>2</int>")
	fake.respond("create", "<int>77</int>")
	client, _ := newTestClient(t, fake)

	require.NoError(t, client.Authenticate(context.Background()))

	id, err := client.Create(context.Background(), "product.template", Record{"name": "Crane"})
	require.NoError(t, err)
	require.Equal(t, int64(77), id)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	fake := newFakeERP()
	// Odoo answers false, not a fault, on bad credentials.
	fake.respond("authenticate", "<boolean>0</boolean>")
	client, _ := newTestClient(t, fake)

	err := client.Authenticate(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Contains(t, authErr.Error(), "invalid credentials")
}

func TestCallsRequireAuthentication(t *testing.T) {
	fake := newFakeERP()
	client, _ := newTestClient(t, fake)

	_, err := client.Create(context.Background(), "product.template", Record{"name": "Crane"})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Empty(t, fake.calls)
}

func TestSearchReadDecodesRecords(t *testing.T) {
	fake := newFakeERP()
	fake.respond("authenticate", "<int>2</int>")
	fake.respond("search_read", `<array><data><value><struct>`+
		`<member><name>id</name><value><int>88</int></value></member>`+
		`<member><name>name</name><value><string>Crane</string></value></member>`+
		`<member><name>list_price</name><value><double>120.5</double></value></member>`+
		`</struct></value></data></array>`)
	client, _ := newTestClient(t, fake)
	require.NoError(t, client.Authenticate(context.Background()))

	records, err := client.SearchRead(context.Background(), "product.template", []any{}, []string{"name"})

	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(88), records[0].Int("id"))
	require.Equal(t, "Crane", records[0].Str("name"))
	require.Equal(t, "120.5", records[0].Decimal("list_price").String())
}

func TestReadMissingRecordReturnsNotFound(t *testing.T) {
	fake := newFakeERP()
	fake.respond("authenticate", "<int>2</int>")
	fake.respond("read", `<array><data></data></array>`)
	client, _ := newTestClient(t, fake)
	require.NoError(t, client.Authenticate(context.Background()))

	_, err := client.Read(context.Background(), "res.partner", 41, []string{"name"})

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, int64(41), notFound.RemoteID)
}

func TestCreateFaultSurfacesAsWriteError(t *testing.T) {
	fake := newFakeERP()
	fake.respond("authenticate", "<int>2</int>")
	fake.respondFault("create", 1, "ValidationError: missing name")
	client, _ := newTestClient(t, fake)
	require.NoError(t, client.Authenticate(context.Background()))

	_, err := client.Create(context.Background(), "product.template", Record{})

	var writeErr *RemoteWriteError
	require.ErrorAs(t, err, &writeErr)
	require.Contains(t, writeErr.Error(), "ValidationError")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fake := newFakeERP()
	fake.respond("authenticate", "<int>2</int>")
	fake.respondFault("create", 1, "ValidationError: missing name")

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewXMLRPCClient(Options{
		URL:             server.URL,
		Database:        "rental",
		Username:        "sync@example.com",
		APIKey:          "key",
		Timeout:         5 * time.Second,
		BreakerFailures: 2,
	})
	require.NoError(t, err)
	require.NoError(t, client.Authenticate(context.Background()))

	for i := 0; i < 2; i++ {
		_, err = client.Create(context.Background(), "product.template", Record{})
		require.Error(t, err)
	}
	callsBeforeOpen := len(fake.calls)

	// Third attempt fails fast without reaching the server.
	_, err = client.Create(context.Background(), "product.template", Record{})
	require.Error(t, err)
	require.Len(t, fake.calls, callsBeforeOpen)
}

func TestCallHonorsContextCancellation(t *testing.T) {
	fake := newFakeERP()
	fake.respond("authenticate", "<int>2</int>")
	fake.block = make(chan struct{})
	defer close(fake.block)
	client, _ := newTestClient(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Authenticate(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), context.DeadlineExceeded.Error()))
}
