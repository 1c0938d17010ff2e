// Package jit drives the front end and optimizer: it translates guest code
// into IR blocks, runs the pass pipeline and the HLE pass over them and keeps
// the finished blocks in a cache keyed by location.
package jit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/config"
	"github.com/colorfulnotion/a64jit/jit/hle"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/jit/opt"
	"github.com/colorfulnotion/a64jit/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/colorfulnotion/a64jit/jit"

// Stats are cumulative counters of a Compiler.
type Stats struct {
	Blocks        uint64 // blocks compiled
	CacheHits     uint64
	Faults        uint64 // compiled blocks ending in an exception trap
	HLERewrites   uint64
	Invalidations uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("blocks=%d hits=%d faults=%d hle=%d invalidated=%d",
		s.Blocks, s.CacheHits, s.Faults, s.HLERewrites, s.Invalidations)
}

type Option func(*Compiler)

// WithTracerProvider makes the compiler create its spans from tp instead of
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Compiler) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// WithFunctions sets the host function table consulted by the HLE pass.
func WithFunctions(functions hle.FunctionMap) Option {
	return func(c *Compiler) {
		c.functions = functions
	}
}

// Compiler is safe for concurrent use. Blocks it returns are shared and must
// be treated as read-only.
type Compiler struct {
	conf      *config.UserConfig
	functions hle.FunctionMap
	tracer    trace.Tracer

	mu     sync.RWMutex
	blocks map[uint64]*ir.Block

	compiled      atomic.Uint64
	hits          atomic.Uint64
	faults        atomic.Uint64
	hleRewrites   atomic.Uint64
	invalidations atomic.Uint64
}

func NewCompiler(conf *config.UserConfig, opts ...Option) (*Compiler, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	c := &Compiler{
		conf:      conf,
		functions: hle.Empty,
		tracer:    otel.Tracer(tracerName),
		blocks:    make(map[uint64]*ir.Block),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Compiler) Config() *config.UserConfig { return c.conf }

// GetBlock returns the cached block for loc, compiling it on a miss. When two
// goroutines miss on the same location concurrently both compile, and the
// first block published is the one every caller gets.
func (c *Compiler) GetBlock(ctx context.Context, loc a64.LocationDescriptor) *ir.Block {
	key := loc.UniqueHash()
	c.mu.RLock()
	block, ok := c.blocks[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return block
	}

	block = c.Compile(ctx, loc)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.blocks[key]; ok {
		return existing
	}
	c.blocks[key] = block
	return block
}

// Lookup returns the cached block for loc without compiling.
func (c *Compiler) Lookup(loc a64.LocationDescriptor) (*ir.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	block, ok := c.blocks[loc.UniqueHash()]
	return block, ok
}

// Compile translates and optimizes the block at loc without touching the
// cache.
func (c *Compiler) Compile(ctx context.Context, loc a64.LocationDescriptor) *ir.Block {
	ctx, span := c.tracer.Start(ctx, "jit.Compile", trace.WithAttributes(
		attribute.String("location", loc.String()),
	))
	defer span.End()

	block := c.translate(ctx, loc)
	c.optimize(ctx, block, "optimize")
	if c.conf.EnableHLE && c.hle(ctx, block) {
		c.optimize(ctx, block, "optimize.hle")
	}

	c.compiled.Add(1)
	if raisesException(block) {
		c.faults.Add(1)
		span.SetAttributes(attribute.Bool("fault", true))
	}
	span.SetAttributes(
		attribute.Int("instructions", block.Len()),
		attribute.Int64("cycles", int64(block.CycleCount())),
		attribute.String("terminal", block.Terminal().String()),
	)
	log.Debug(log.JIT, "Compile: block ready", "location", loc, "insts", block.Len(), "cycles", block.CycleCount(),
		"terminal", block.Terminal())
	return block
}

func (c *Compiler) translate(ctx context.Context, loc a64.LocationDescriptor) *ir.Block {
	_, span := c.tracer.Start(ctx, "jit.translate")
	defer span.End()
	return a64.Translate(loc, c.conf.ReadCode(), c.conf.TranslationOptions())
}

// optimize runs the pipeline; a verification failure is recorded on the span
// before the panic propagates.
func (c *Compiler) optimize(ctx context.Context, block *ir.Block, name string) {
	_, span := c.tracer.Start(ctx, "jit."+name)
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			log.Error(log.IROpt, "optimize: invalid block", "pass", name, "location", block.Location(), "err", r)
			recordStatus(span, fmt.Errorf("%v", r))
			panic(r)
		}
	}()
	opt.Optimize(block)
}

func (c *Compiler) hle(ctx context.Context, block *ir.Block) bool {
	_, span := c.tracer.Start(ctx, "jit.hle")
	defer span.End()
	rewritten := opt.A64HLEPass(block, c.conf, c.functions)
	span.SetAttributes(attribute.Bool("rewritten", rewritten))
	if rewritten {
		c.hleRewrites.Add(1)
		if t, ok := block.Terminal().(ir.CallHLEFunction); ok {
			span.SetAttributes(attribute.String("function", string(t.Function)))
		}
	}
	return rewritten
}

func recordStatus(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func raisesException(block *ir.Block) bool {
	for _, id := range block.Instructions() {
		if block.Inst(id).Opcode() == ir.OpA64ExceptionRaised {
			return true
		}
	}
	return false
}

// Invalidate drops the cached blocks whose guest code overlaps
// [start, end). It returns the number of blocks dropped.
func (c *Compiler) Invalidate(start, end uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, block := range c.blocks {
		first := a64.LocationFromIR(block.Location()).PC()
		last := a64.LocationFromIR(block.EndLocation()).PC()
		if first < end && start < last {
			delete(c.blocks, key)
			n++
		}
	}
	c.invalidations.Add(uint64(n))
	log.Debug(log.JIT, "Invalidate", "start", fmt.Sprintf("%#x", start), "end", fmt.Sprintf("%#x", end), "dropped", n)
	return n
}

// InvalidateLocation drops the block cached for loc, if any.
func (c *Compiler) InvalidateLocation(loc a64.LocationDescriptor) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := loc.UniqueHash()
	if _, ok := c.blocks[key]; !ok {
		return false
	}
	delete(c.blocks, key)
	c.invalidations.Add(1)
	return true
}

func (c *Compiler) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations.Add(uint64(len(c.blocks)))
	c.blocks = make(map[uint64]*ir.Block)
}

// Len returns the number of cached blocks.
func (c *Compiler) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

func (c *Compiler) Stats() Stats {
	return Stats{
		Blocks:        c.compiled.Load(),
		CacheHits:     c.hits.Load(),
		Faults:        c.faults.Load(),
		HLERewrites:   c.hleRewrites.Load(),
		Invalidations: c.invalidations.Load(),
	}
}
