package generator

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	// maxSafeInteger is the upper end of the unbounded number range.
	maxSafeInteger = 1<<53 - 1
	// Number bounds are clamped to [-2^61, 2^61] so the span always fits in
	// an int64. A range lying wholly past the clamp yields the clamped end.
	maxNumberBound = 1 << 61
	// ctx is polled once per this many records.
	cancelCheckInterval = 1024
)

var defaultDateMin = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Generator produces field values and records from a single random source.
// It is safe for concurrent use. Field calls are serialised on the source;
// record generation draws only a seed from it.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New returns a generator drawing from rng.
func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng, now: time.Now}
}

// NewSeeded returns a deterministic generator. Equal seeds yield equal output
// for equal inputs.
func NewSeeded(seed int64) *Generator {
	return New(rand.New(rand.NewSource(seed)))
}

// NewDefault returns a time-seeded generator.
func NewDefault() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// WithClock replaces the clock used as the default upper date bound.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.mu.Lock()
	g.now = now
	g.mu.Unlock()
	return g
}

type valueFunc func(g *Generator, opts *Options) any

var valueFuncs = map[DataType]valueFunc{
	TypeString:  (*Generator).stringValue,
	TypeNumber:  (*Generator).numberValue,
	TypeBoolean: (*Generator).booleanValue,
	TypeDate:    (*Generator).dateValue,
	TypeEmail:   (*Generator).emailValue,
	TypePhone:   (*Generator).phoneValue,
	TypeAddress: (*Generator).addressValue,
	TypeName:    (*Generator).nameValue,
	TypeCompany: (*Generator).companyValue,
	TypeURL:     (*Generator).urlValue,
	TypeUUID:    (*Generator).uuidValue,
	TypeColor:   (*Generator).colorValue,
	TypeAIText:  (*Generator).aiTextValue,
}

// Field returns one value for f, or nil when the null draw hits.
// It never fails; unknown data types produce a generic string.
func (g *Generator) Field(f FieldSpec) any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.field(f)
}

func (g *Generator) field(f FieldSpec) any {
	if g.isNull(f.Options) {
		return nil
	}
	fn, ok := valueFuncs[f.DataType]
	if !ok {
		return g.stringValue(nil)
	}
	return fn(g, f.Options)
}

func (g *Generator) isNull(opts *Options) bool {
	if opts == nil || opts.NullPercentage == nil {
		return false
	}
	p := *opts.NullPercentage
	return p > 0 && g.rng.Float64()*100 <= p
}

// Generate returns exactly count records (none when count is negative), each
// keyed by field name in declared order.
func (g *Generator) Generate(fields []FieldSpec, count int) []Record {
	records, _ := g.GenerateContext(context.Background(), fields, count)
	return records
}

// GenerateContext is Generate with cancellation. On cancel it returns ctx.Err().
// Records come from a child generator seeded from g, so g stays free for
// other callers while they are filled.
func (g *Generator) GenerateContext(ctx context.Context, fields []FieldSpec, count int) ([]Record, error) {
	if count < 0 {
		count = 0
	}
	out := make([]Record, count)

	if err := g.child().fill(ctx, out, fields); err != nil {
		return nil, err
	}
	return out, nil
}

// child returns a generator with its own source, seeded from g.
func (g *Generator) child() *Generator {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &Generator{rng: rand.New(rand.NewSource(g.rng.Int63())), now: g.now}
}

// fill writes one record per slot of out. The caller owns g.
func (g *Generator) fill(ctx context.Context, out []Record, fields []FieldSpec) error {
	for i := range out {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec := newRecord(len(fields))
		for _, f := range fields {
			rec.Set(f.Name, g.field(f))
		}
		out[i] = rec
	}
	return ctx.Err()
}

func (g *Generator) stringValue(opts *Options) any {
	if opts != nil && opts.Length != nil && *opts.Length > 0 {
		return g.letters(*opts.Length)
	}
	return g.sample(sampleLength)
}

func (g *Generator) numberValue(opts *Options) any {
	var (
		low, high     float64
		okLow, okHigh bool
	)
	if opts != nil {
		low, okLow = opts.Min.Float()
		high, okHigh = opts.Max.Float()
	}
	if !okLow || !okHigh {
		return g.rng.Int63n(maxSafeInteger + 1)
	}
	if low > high {
		low, high = high, low
	}
	low = clampBound(low)
	high = clampBound(high)

	lo, hi := math.Ceil(low), math.Floor(high)
	if lo > hi {
		return int64(math.Round(low))
	}
	return g.intBetween(int64(lo), int64(hi))
}

func clampBound(v float64) float64 {
	return math.Max(-maxNumberBound, math.Min(maxNumberBound, v))
}

func (g *Generator) intBetween(lo, hi int64) int64 {
	return lo + g.rng.Int63n(hi-lo+1)
}

func (g *Generator) booleanValue(*Options) any {
	return g.rng.Intn(2) == 1
}

func (g *Generator) dateValue(opts *Options) any {
	lo, hi := defaultDateMin, g.now()
	if opts != nil {
		if t, ok := opts.Min.Time(); ok {
			lo = t
		}
		if t, ok := opts.Max.Time(); ok {
			hi = t
		}
	}
	a, b := lo.UnixMilli(), hi.UnixMilli()
	if a > b {
		a, b = b, a
	}
	return time.UnixMilli(g.intBetween(a, b)).UTC()
}

func (g *Generator) emailValue(*Options) any   { return g.generateEmail() }
func (g *Generator) phoneValue(*Options) any   { return g.generatePhone() }
func (g *Generator) addressValue(*Options) any { return g.generateAddress() }
func (g *Generator) nameValue(*Options) any    { return g.generateName() }
func (g *Generator) companyValue(*Options) any { return g.generateCompany() }
func (g *Generator) urlValue(*Options) any     { return g.generateURL() }
func (g *Generator) uuidValue(*Options) any    { return g.generateUUID() }
func (g *Generator) colorValue(*Options) any   { return g.generateColor() }

// aiTextValue is placeholder prose; no model is called.
func (g *Generator) aiTextValue(*Options) any { return g.generateParagraphs() }
