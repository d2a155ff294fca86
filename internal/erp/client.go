package erp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"erp-sync/pkg/log"
)

const (
	commonEndpoint = "/xmlrpc/2/common"
	objectEndpoint = "/xmlrpc/2/object"
)

// Options carries everything needed to reach one ERP tenant.
type Options struct {
	URL             string
	Database        string
	Username        string
	APIKey          string
	Version         string
	Timeout         time.Duration
	BreakerFailures uint32
}

// XMLRPCClient talks to an Odoo-style ERP over its two XML-RPC endpoints:
// /xmlrpc/2/common for authentication and /xmlrpc/2/object for execute_kw.
// Calls go through a circuit breaker so a dead ERP fails fast instead of
// holding a whole run hostage; an open breaker still surfaces as an ordinary
// per-call error.
type XMLRPCClient struct {
	opts    Options
	common  *xmlrpc.Client
	object  *xmlrpc.Client
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger

	mu  sync.Mutex
	uid int64
}

var _ Client = (*XMLRPCClient)(nil)

func NewXMLRPCClient(opts Options) (*XMLRPCClient, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
	}

	common, err := xmlrpc.NewClient(opts.URL+commonEndpoint, transport)
	if err != nil {
		return nil, fmt.Errorf("failed to create common endpoint client: %w", err)
	}
	object, err := xmlrpc.NewClient(opts.URL+objectEndpoint, transport)
	if err != nil {
		return nil, fmt.Errorf("failed to create object endpoint client: %w", err)
	}

	threshold := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "erp-xmlrpc",
		Timeout: opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	logger := log.Logger.With().Str("component", "erp_client").Str("url", opts.URL)
	if opts.Version != "" {
		logger = logger.Str("erp_version", opts.Version)
	}

	return &XMLRPCClient{
		opts:    opts,
		common:  common,
		object:  object,
		breaker: breaker,
		logger:  logger.Logger(),
	}, nil
}

func (c *XMLRPCClient) Authenticate(ctx context.Context) error {
	logger := c.logger.With().Str("operation", "authenticate").Str("database", c.opts.Database).Logger()

	var reply any
	args := []any{c.opts.Database, c.opts.Username, c.opts.APIKey, map[string]any{}}
	if err := c.call(ctx, c.common, "authenticate", args, &reply); err != nil {
		logger.Error().Err(err).Msg("Authentication call failed")
		return &AuthError{Reason: "authenticate call failed", Err: err}
	}

	uid := Record{"uid": reply}.Int("uid")
	if uid == 0 {
		// The ERP answers false, not a fault, on bad credentials.
		logger.Error().Msg("ERP rejected credentials")
		return &AuthError{Reason: "invalid credentials"}
	}

	c.mu.Lock()
	c.uid = uid
	c.mu.Unlock()

	logger.Debug().Int64("uid", uid).Msg("Authenticated with ERP")
	return nil
}

func (c *XMLRPCClient) Search(ctx context.Context, model string, domain []any) ([]int64, error) {
	var reply any
	err := c.executeKw(ctx, model, "search", []any{domain}, nil, &reply)
	if err != nil {
		return nil, fmt.Errorf("search on %s failed: %w", model, err)
	}

	raw, _ := reply.([]any)
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, Record{"id": v}.Int("id"))
	}
	return ids, nil
}

func (c *XMLRPCClient) SearchRead(ctx context.Context, model string, domain []any, fields []string) ([]Record, error) {
	kwargs := map[string]any{
		"domain": domain,
		"fields": fields,
		"order":  "id asc",
	}

	var reply any
	err := c.executeKw(ctx, model, "search_read", []any{}, kwargs, &reply)
	if err != nil {
		return nil, fmt.Errorf("search_read on %s failed: %w", model, err)
	}
	return coerceRecords(reply), nil
}

func (c *XMLRPCClient) Read(ctx context.Context, model string, id int64, fields []string) (Record, error) {
	kwargs := map[string]any{"fields": fields}

	var reply any
	err := c.executeKw(ctx, model, "read", []any{[]int64{id}}, kwargs, &reply)
	if err != nil {
		return nil, fmt.Errorf("read on %s failed: %w", model, err)
	}

	records := coerceRecords(reply)
	if len(records) == 0 {
		return nil, &NotFoundError{Model: model, RemoteID: id}
	}
	return records[0], nil
}

func (c *XMLRPCClient) Create(ctx context.Context, model string, fields Record) (int64, error) {
	var reply any
	err := c.executeKw(ctx, model, "create", []any{map[string]any(fields)}, nil, &reply)
	if err != nil {
		return 0, &RemoteWriteError{Model: model, Op: "create", Err: err}
	}

	id := Record{"id": reply}.Int("id")
	if id == 0 {
		return 0, &RemoteWriteError{Model: model, Op: "create", Err: fmt.Errorf("no record id returned")}
	}
	return id, nil
}

func (c *XMLRPCClient) Update(ctx context.Context, model string, id int64, fields Record) error {
	var reply any
	err := c.executeKw(ctx, model, "write", []any{[]int64{id}, map[string]any(fields)}, nil, &reply)
	if err != nil {
		return &RemoteWriteError{Model: model, Op: "write", Err: err}
	}
	return nil
}

// executeKw frames a call to the object endpoint the way the protocol
// expects: database, session uid, key, model, method, args, kwargs.
func (c *XMLRPCClient) executeKw(ctx context.Context, model, method string, args []any, kwargs map[string]any, reply any) error {
	c.mu.Lock()
	uid := c.uid
	c.mu.Unlock()
	if uid == 0 {
		return &AuthError{Reason: "not authenticated"}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	callArgs := []any{c.opts.Database, uid, c.opts.APIKey, model, method, args, kwargs}
	return c.call(ctx, c.object, "execute_kw", callArgs, reply)
}

// call runs one XML-RPC request through the breaker, bounded by the caller's
// context. The underlying transport does not support cancellation mid-flight,
// so a cancelled call is abandoned; its reply value is discarded by callers.
func (c *XMLRPCClient) call(ctx context.Context, endpoint *xmlrpc.Client, method string, args []any, reply any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.breaker.Execute(func() (any, error) {
			return nil, endpoint.Call(method, args, reply)
		})
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func coerceRecords(reply any) []Record {
	raw, _ := reply.([]any)
	records := make([]Record, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			records = append(records, Record(m))
		}
	}
	return records
}
