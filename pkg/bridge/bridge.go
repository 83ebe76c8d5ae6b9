// Package bridge exposes registered reactive objects to external UIs over
// HTTP and WebSocket. It consumes only the public core contract: the
// property-map serialization for snapshots and patches, and the aggregate
// change signal for live updates.
//
// All object access runs on the bridge's own loop, which acts as the model
// execution context; HTTP handlers post work onto it and wait.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/cuekit-dev/cuekit/pkg/props"
	"github.com/cuekit-dev/cuekit/pkg/signal"
)

// Default tracer name for bridge spans.
const defaultTracerName = "cuekit/bridge"

// Bridge publishes registered objects and fans their change signals out to
// connected WebSocket clients.
type Bridge struct {
	logger  *slog.Logger
	loop    *signal.Loop
	tracer  trace.Tracer
	metrics *metrics

	mu      sync.RWMutex
	objects map[string]props.Holder
	subs    map[string]*signal.Subscription
	clients map[*client]struct{}

	router chi.Router
}

// Option configures a Bridge.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	tracerName string
	namespace  string
}

// WithLogger sets the bridge logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRegisterer sets the Prometheus registerer for bridge metrics.
// Defaults to prometheus.DefaultRegisterer. A nil registerer disables
// metrics collection.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = r
	}
}

// WithTracerName sets the OpenTelemetry tracer name.
func WithTracerName(name string) Option {
	return func(c *config) {
		c.tracerName = name
	}
}

// WithNamespace sets the metrics namespace. Defaults to "cuekit".
func WithNamespace(namespace string) Option {
	return func(c *config) {
		c.namespace = namespace
	}
}

// New creates a bridge. Run must be called for object access and change
// fan-out to make progress.
func New(opts ...Option) *Bridge {
	cfg := config{
		logger:     slog.Default(),
		registerer: prometheus.DefaultRegisterer,
		tracerName: defaultTracerName,
		namespace:  "cuekit",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bridge{
		logger:  cfg.logger,
		loop:    signal.NewLoop(),
		tracer:  otel.Tracer(cfg.tracerName),
		metrics: newMetrics(cfg.registerer, cfg.namespace),
		objects: make(map[string]props.Holder),
		subs:    make(map[string]*signal.Subscription),
		clients: make(map[*client]struct{}),
	}
	b.router = b.newRouter()
	return b
}

// Run pumps the bridge loop until ctx is done. Change deliveries, snapshot
// reads, and patch application all execute here.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("bridge running")
	defer b.logger.Info("bridge stopped")
	return b.loop.Run(ctx)
}

// Loop returns the bridge's execution context. Objects registered with the
// bridge must only be mutated on this loop.
func (b *Bridge) Loop() *signal.Loop {
	return b.loop
}

// Register publishes obj under name and subscribes to its aggregate change
// signal. Registering a duplicate name fails.
func (b *Bridge) Register(name string, obj props.Holder) error {
	if obj == nil {
		return fmt.Errorf("bridge: nil object %q", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[name]; exists {
		return fmt.Errorf("bridge: object %q already registered", name)
	}
	b.objects[name] = obj

	objectName := name
	b.subs[name] = obj.PropertyChanged().Connect(func(change props.Change) {
		b.broadcast(objectName, change)
	}, signal.Queued(b.loop))

	b.metrics.objects().Inc()
	b.logger.Info("object registered", "object", name, "type", obj.Type().Name())
	return nil
}

// Deregister removes the object published under name and disconnects its
// change subscription. Unknown names are a no-op.
func (b *Bridge) Deregister(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.objects[name]
	if !ok {
		return
	}
	obj.PropertyChanged().Disconnect(b.subs[name])
	delete(b.objects, name)
	delete(b.subs, name)
	b.metrics.objects().Dec()
}

// Object returns the object registered under name, or nil.
func (b *Bridge) Object(name string) props.Holder {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.objects[name]
}

// ClientCount returns the number of connected WebSocket clients.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ObjectNames returns the registered object names, unordered.
func (b *Bridge) ObjectNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.objects))
	for name := range b.objects {
		names = append(names, name)
	}
	return names
}

// call posts fn to the bridge loop and waits for it, honoring ctx.
func (b *Bridge) call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !b.loop.Post(func() {
		defer close(done)
		fn()
	}) {
		return fmt.Errorf("bridge: loop closed")
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
