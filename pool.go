package http11

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sys/cpu"

	"github.com/valyala/bytebufferpool"
)

// DefaultBufferSize is the default capacity for pooled raw buffers used to
// stage Feed input.
const DefaultBufferSize = 4096

// PoolStrategy selects how GetRequestDecoder/GetResponseDecoder/GetBuffer
// pick a shard.
type PoolStrategy int

const (
	// PoolStrategyStandard uses a single sync.Pool (default).
	PoolStrategyStandard PoolStrategy = iota

	// PoolStrategyPerCPU shards across GOMAXPROCS sync.Pool instances,
	// round-robin by default, to cut contention under sustained
	// concurrent decode/encode workloads.
	PoolStrategyPerCPU
)

// poolStrategy is the global pool strategy setting.
var poolStrategy = PoolStrategyStandard

// SetPoolStrategy sets the pooling strategy globally. Call it before any
// pool operations for consistent behavior.
func SetPoolStrategy(strategy PoolStrategy) {
	poolStrategy = strategy
}

// ShardSelector picks a shard index in [0, numShards) for a per-CPU pool
// operation. The default is round-robin; WithHashedSharding builds one
// that instead keys off caller-supplied bytes.
type ShardSelector func(numShards int) int

var nextShard atomic.Uint64

func roundRobinSelector(numShards int) int {
	return int(nextShard.Add(1) % uint64(numShards))
}

// WithHashedSharding returns a ShardSelector that hashes key with blake2b
// and maps it onto a shard. Pooled decoders retrieved and returned with the
// same key (for example a connection's remote address) land on the same
// shard, which keeps a long-lived connection's decoder warm in the CPU-local
// pool it was first allocated from instead of bouncing across shards on
// every Get/Put the way round-robin does.
func WithHashedSharding(key []byte) ShardSelector {
	sum := blake2b.Sum256(key)
	h := uint64(sum[0]) | uint64(sum[1])<<8 | uint64(sum[2])<<16 | uint64(sum[3])<<24 |
		uint64(sum[4])<<32 | uint64(sum[5])<<40 | uint64(sum[6])<<48 | uint64(sum[7])<<56
	return func(numShards int) int {
		return int(h % uint64(numShards))
	}
}

// paddedShard wraps a sync.Pool with cache-line padding so adjacent shards
// in perCPUPool's backing slice don't false-share a cache line under
// concurrent Get/Put from different CPUs.
type paddedShard struct {
	pool sync.Pool
	_    cpu.CacheLinePad
}

// perCPUPool provides sharded object pooling to reduce lock contention.
// Only used when PoolStrategyPerCPU is enabled.
type perCPUPool[T any] struct {
	shards  []*paddedShard
	newFunc func() T
}

func newPerCPUPool[T any](newFunc func() T) *perCPUPool[T] {
	numCPU := runtime.GOMAXPROCS(0)
	if numCPU < 1 {
		numCPU = 1
	}
	shards := make([]*paddedShard, numCPU)
	for i := range shards {
		shards[i] = &paddedShard{pool: sync.Pool{New: func() interface{} { return newFunc() }}}
	}
	return &perCPUPool[T]{shards: shards, newFunc: newFunc}
}

// get retrieves an object using the round-robin selector.
func (p *perCPUPool[T]) get() T {
	return p.getWith(roundRobinSelector)
}

// getWith retrieves an object from the shard sel picks.
func (p *perCPUPool[T]) getWith(sel ShardSelector) T {
	shard := p.shards[sel(len(p.shards))]
	if obj := shard.pool.Get(); obj != nil {
		return obj.(T)
	}
	return p.newFunc()
}

func (p *perCPUPool[T]) put(obj T) {
	p.putWith(obj, roundRobinSelector)
}

func (p *perCPUPool[T]) putWith(obj T, sel ShardSelector) {
	shard := p.shards[sel(len(p.shards))]
	shard.pool.Put(obj)
}

// warmup pre-allocates objects across all shards.
func (p *perCPUPool[T]) warmup(countPerShard int) {
	for _, shard := range p.shards {
		objs := make([]T, countPerShard)
		for i := range objs {
			objs[i] = p.newFunc()
		}
		for i := range objs {
			shard.pool.Put(objs[i])
		}
	}
}

var (
	requestDecoderPoolStd = sync.Pool{
		New: func() interface{} { return &RequestDecoder{} },
	}
	responseDecoderPoolStd = sync.Pool{
		New: func() interface{} { return &ResponseDecoder{} },
	}
	bufferPoolStd = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 0, DefaultBufferSize)
			return &buf
		},
	}

	requestDecoderPoolPerCPU  = newPerCPUPool(func() *RequestDecoder { return &RequestDecoder{} })
	responseDecoderPoolPerCPU = newPerCPUPool(func() *ResponseDecoder { return &ResponseDecoder{} })
	bufferPoolPerCPU          = newPerCPUPool(func() *[]byte {
		buf := make([]byte, 0, DefaultBufferSize)
		return &buf
	})
)

// GetRequestDecoder retrieves a RequestDecoder from the pool, configured
// with limits and ready to parse a new request.
//
// IMPORTANT: call PutRequestDecoder when done to return it to the pool.
func GetRequestDecoder(limits Limits, shard ...ShardSelector) *RequestDecoder {
	var d *RequestDecoder
	if poolStrategy == PoolStrategyPerCPU {
		if len(shard) > 0 {
			d = requestDecoderPoolPerCPU.getWith(shard[0])
		} else {
			d = requestDecoderPoolPerCPU.get()
		}
	} else {
		d = requestDecoderPoolStd.Get().(*RequestDecoder)
	}
	d.Reset()
	d.limits = limits
	return d
}

// PutRequestDecoder returns a RequestDecoder to the pool. Safe to call with
// nil. After calling, the decoder must not be used again.
func PutRequestDecoder(d *RequestDecoder, shard ...ShardSelector) {
	if d == nil {
		return
	}
	d.Reset()
	if poolStrategy == PoolStrategyPerCPU {
		if len(shard) > 0 {
			requestDecoderPoolPerCPU.putWith(d, shard[0])
		} else {
			requestDecoderPoolPerCPU.put(d)
		}
		return
	}
	requestDecoderPoolStd.Put(d)
}

// GetResponseDecoder retrieves a ResponseDecoder from the pool, configured
// with limits and ready to parse a new response.
//
// IMPORTANT: call PutResponseDecoder when done to return it to the pool.
func GetResponseDecoder(limits Limits, shard ...ShardSelector) *ResponseDecoder {
	var d *ResponseDecoder
	if poolStrategy == PoolStrategyPerCPU {
		if len(shard) > 0 {
			d = responseDecoderPoolPerCPU.getWith(shard[0])
		} else {
			d = responseDecoderPoolPerCPU.get()
		}
	} else {
		d = responseDecoderPoolStd.Get().(*ResponseDecoder)
	}
	d.Reset()
	d.limits = limits
	return d
}

// PutResponseDecoder returns a ResponseDecoder to the pool. Safe to call
// with nil. After calling, the decoder must not be used again.
func PutResponseDecoder(d *ResponseDecoder, shard ...ShardSelector) {
	if d == nil {
		return
	}
	d.Reset()
	if poolStrategy == PoolStrategyPerCPU {
		if len(shard) > 0 {
			responseDecoderPoolPerCPU.putWith(d, shard[0])
		} else {
			responseDecoderPoolPerCPU.put(d)
		}
		return
	}
	responseDecoderPoolStd.Put(d)
}

// GetBuffer retrieves a zero-length, DefaultBufferSize-capacity byte slice,
// typically used to stage bytes read off a connection before handing them
// to Feed.
//
// IMPORTANT: call PutBuffer when done to return it to the pool.
func GetBuffer() []byte {
	var bufPtr *[]byte
	if poolStrategy == PoolStrategyPerCPU {
		bufPtr = bufferPoolPerCPU.get()
	} else {
		bufPtr = bufferPoolStd.Get().(*[]byte)
	}
	return (*bufPtr)[:0]
}

// PutBuffer returns a buffer obtained from GetBuffer to the pool. Buffers
// whose capacity shrank below DefaultBufferSize (the caller grew it and
// then re-sliced it smaller elsewhere) are dropped rather than pooled.
func PutBuffer(buf []byte) {
	if cap(buf) < DefaultBufferSize {
		return
	}
	buf = buf[:0]
	if poolStrategy == PoolStrategyPerCPU {
		bufferPoolPerCPU.put(&buf)
	} else {
		bufferPoolStd.Put(&buf)
	}
}

// GetEncodeBuffer retrieves a pooled bytebufferpool.ByteBuffer for use as
// the dst argument to EncodeRequest/EncodeResponse/EncodeChunk, the same
// way compression_codecs.go's outputQueue pools Compressor/Decompressor
// output.
//
// IMPORTANT: call PutEncodeBuffer when done to return it to the pool.
func GetEncodeBuffer() *bytebufferpool.ByteBuffer {
	return bytebufferpool.Get()
}

// PutEncodeBuffer returns a buffer obtained from GetEncodeBuffer to the
// pool. Safe to call with nil.
func PutEncodeBuffer(buf *bytebufferpool.ByteBuffer) {
	if buf == nil {
		return
	}
	bytebufferpool.Put(buf)
}

// WarmupPools pre-allocates objects in all pools, avoiding allocations
// during the first requests a server handles after startup. For
// PoolStrategyPerCPU, count is applied per shard.
func WarmupPools(count int) {
	if poolStrategy == PoolStrategyPerCPU {
		requestDecoderPoolPerCPU.warmup(count)
		responseDecoderPoolPerCPU.warmup(count)
		bufferPoolPerCPU.warmup(count)
		return
	}
	var reqs []*RequestDecoder
	var resps []*ResponseDecoder
	var bufs [][]byte
	for i := 0; i < count; i++ {
		reqs = append(reqs, GetRequestDecoder(Limits{}))
		resps = append(resps, GetResponseDecoder(Limits{}))
		bufs = append(bufs, GetBuffer())
	}
	for i := range reqs {
		PutRequestDecoder(reqs[i])
		PutResponseDecoder(resps[i])
		PutBuffer(bufs[i])
	}
}
