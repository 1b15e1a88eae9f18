package observability

import (
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-cart/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
)

// Options selects the adapters behind the cart service's telemetry.
type Options struct {
	// Service names the OTel tracer when Tracer is nil. Both empty means no tracing.
	Service string
	Tracer  observability.Tracer
	Logger  observability.Logger
	// Registry receives the standard cart metric set. Nil disables metrics.
	Registry prometrics.Registry
}

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

// New assembles the Observability handed to the engine, the persistence
// worker, the notice sink and the HTTP surface.
func New(opts Options) observability.Observability {
	p := &provider{
		tracer:  opts.Tracer,
		logger:  opts.Logger,
		metrics: observability.NopMetrics(),
	}
	if p.tracer == nil {
		p.tracer = observability.NopTracer()
		if opts.Service != "" {
			p.tracer = oteltrace.New(opts.Service)
		}
	}
	if p.logger == nil {
		p.logger = observability.NopLogger()
	}
	if opts.Registry != nil {
		p.metrics = prometrics.Standard(opts.Registry)
	}
	return p
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
