package replay

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/rocketrl/internal/dynamo"
)

type Option func(*Buffer)

func WithSeed(seed uint64) Option {
	return func(b *Buffer) { b.src = dynamo.NewSource(seed) }
}

func WithSource(src rand.Source) Option {
	return func(b *Buffer) { b.src = src }
}

// Buffer is a ring of fixed-width records with a shuffled batch cursor. It is
// not safe for concurrent use.
type Buffer struct {
	data     []float64
	capacity int
	width    int

	size  int
	write int

	// perm is nil outside of a pass; permBuf keeps its backing array.
	perm    []int
	permBuf []int
	read    int

	src rand.Source
	rng *rand.Rand
}

// New allocates a buffer of capacity records, each width values wide.
func New(capacity, width int, opts ...Option) (*Buffer, error) {
	if capacity <= 0 || width <= 0 {
		return nil, dynamo.Errorf("new", dynamo.ErrInvalidArgument, "capacity and width must be positive, got %d×%d", capacity, width)
	}
	if capacity > math.MaxInt/width {
		return nil, dynamo.Errorf("new", dynamo.ErrAllocation, "%d×%d elements overflow", capacity, width)
	}

	data, err := allocate(capacity * width)
	if err != nil {
		return nil, err
	}

	b := &Buffer{
		data:     data,
		capacity: capacity,
		width:    width,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.src == nil {
		b.src = dynamo.NewSource(0)
	}
	b.rng = rand.New(b.src)
	return b, nil
}

func allocate(n int) (data []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, dynamo.Errorf("new", dynamo.ErrAllocation, "%v", r)
		}
	}()
	return make([]float64, n), nil
}

func (b *Buffer) Capacity() int { return b.capacity }
func (b *Buffer) Width() int    { return b.width }

// Len returns the number of stored records, at most Capacity.
func (b *Buffer) Len() int { return b.size }

// Remaining returns the rows not yet handed out in the current pass.
func (b *Buffer) Remaining() int {
	if b.perm == nil {
		return 0
	}
	return len(b.perm) - b.read
}

func (b *Buffer) row(i int) []float64 {
	return b.data[i*b.width : (i+1)*b.width]
}

// Append copies record into the next slot, evicting the oldest record once
// the buffer is full.
func (b *Buffer) Append(record []float64) error {
	if len(record) != b.width {
		return dynamo.Errorf("append", dynamo.ErrShapeMismatch, "got %d values, want %d", len(record), b.width)
	}
	copy(b.row(b.write), record)
	b.write = (b.write + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
	return nil
}

// Shuffle starts a new pass over the stored records, abandoning any pass in
// progress.
func (b *Buffer) Shuffle() error {
	if b.size == 0 {
		return &dynamo.OpError{Op: "shuffle", Err: dynamo.ErrEmptyBuffer}
	}
	if cap(b.permBuf) < b.size {
		b.permBuf = make([]int, b.size, b.capacity)
	}
	b.perm = b.permBuf[:b.size]
	for i := range b.perm {
		b.perm[i] = i
	}
	b.rng.Shuffle(len(b.perm), func(i, j int) {
		b.perm[i], b.perm[j] = b.perm[j], b.perm[i]
	})
	b.read = 0
	return nil
}

// Batch copies the next min(n, Remaining()) rows of the current pass into a
// freshly allocated matrix, starting a pass first if none is active.
func (b *Buffer) Batch(n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, dynamo.Errorf("batch", dynamo.ErrInvalidArgument, "batch size must be positive, got %d", n)
	}
	if b.size == 0 {
		return nil, &dynamo.OpError{Op: "batch", Err: dynamo.ErrEmptyBuffer}
	}
	if b.perm == nil {
		if err := b.Shuffle(); err != nil {
			return nil, err
		}
	}

	rows := min(n, len(b.perm)-b.read)
	out := make([]float64, rows*b.width)
	for i, slot := range b.perm[b.read : b.read+rows] {
		copy(out[i*b.width:(i+1)*b.width], b.row(slot))
	}

	b.read += rows
	if b.read == len(b.perm) {
		b.perm = nil
		b.read = 0
	}
	return mat.NewDense(rows, b.width, out), nil
}
