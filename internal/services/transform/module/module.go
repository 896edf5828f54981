// Package module provides the transform module implementation
package module

import (
	"flatlake/internal/modkit"

	"flatlake/internal/adapters/encode/parquetenc"
	"flatlake/internal/core/tabular"
	"flatlake/internal/services/transform/domain"
	"flatlake/internal/services/transform/repo"
	"flatlake/internal/services/transform/service"
)

// Ports defines the transform module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the transform module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
}

// assembler adapts the pure tabular package to the domain port
type assembler struct{}

func (assembler) Assemble(raw []byte, sep string) (*tabular.Batch, error) {
	return tabular.Assemble(raw, sep)
}

// New constructs the transform module
// It wires up the store ports and the service using config from deps.Cfg.
// Store collaborators default to deps.Blob; callers may inject their own via
// modkit.WithPorts(domain.StorePorts{...})
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("transform"),
	}, opts...)...)

	o := FromConfig(deps.Cfg)
	if err := o.Validate(); err != nil {
		panic(err)
	}

	sp := domain.StorePorts{Lister: deps.Blob, Reader: deps.Blob, Writer: deps.Blob}
	if b.Ports != nil {
		injected, ok := b.Ports.(domain.StorePorts)
		if !ok {
			panic("transform module: expected WithPorts(transform/domain.StorePorts)")
		}
		sp = injected
	}
	if sp.Lister == nil || sp.Reader == nil || sp.Writer == nil {
		panic("transform module requires a blob store or injected store ports")
	}

	svc := service.New(
		sp.Lister, sp.Reader, sp.Writer,
		assembler{}, parquetenc.New(),
		service.Config{
			SourceBucket:     o.SourceBucket,
			DestBucket:       o.DestBucket,
			Workers:          o.Workers,
			Separator:        o.Separator,
			PartitionTimeout: o.PartitionTimeout,
			ListTimeout:      o.ListTimeout,
			ReadTimeout:      o.ReadTimeout,
			EncodeTimeout:    o.EncodeTimeout,
			WriteTimeout:     o.WriteTimeout,
		},
	)

	// Ledger is opt-in and needs a live PG pool
	if o.Ledger && deps.PG != nil {
		svc.WithLedger(deps.PG, repo.NewPG())
	}

	m := &Module{deps: deps, name: b.Name}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
