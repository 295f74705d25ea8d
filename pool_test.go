package http11

import "testing"

func TestGetPutRequestDecoder(t *testing.T) {
	SetPoolStrategy(PoolStrategyStandard)
	d := GetRequestDecoder(DefaultLimits())
	if d == nil {
		t.Fatal("GetRequestDecoder returned nil")
	}
	d.Feed([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))
	if _, _, err := d.DecodeHeaders(); err != nil {
		t.Fatalf("DecodeHeaders: %v", err)
	}
	PutRequestDecoder(d)

	d2 := GetRequestDecoder(DefaultLimits())
	if d2.Remaining() != nil {
		t.Errorf("reused decoder should be reset, Remaining = %v", d2.Remaining())
	}
	PutRequestDecoder(d2)
}

func TestPutRequestDecoderNilIsSafe(t *testing.T) {
	PutRequestDecoder(nil)
}

func TestGetPutResponseDecoder(t *testing.T) {
	SetPoolStrategy(PoolStrategyStandard)
	d := GetResponseDecoder(DefaultLimits())
	if d == nil {
		t.Fatal("GetResponseDecoder returned nil")
	}
	PutResponseDecoder(d)
	PutResponseDecoder(nil)
}

func TestGetPutBuffer(t *testing.T) {
	SetPoolStrategy(PoolStrategyStandard)
	buf := GetBuffer()
	if len(buf) != 0 {
		t.Errorf("GetBuffer len = %d, want 0", len(buf))
	}
	if cap(buf) < DefaultBufferSize {
		t.Errorf("GetBuffer cap = %d, want >= %d", cap(buf), DefaultBufferSize)
	}
	buf = append(buf, []byte("data")...)
	PutBuffer(buf)

	buf2 := GetBuffer()
	if len(buf2) != 0 {
		t.Errorf("buffer from pool should be re-sliced to zero length, got len %d", len(buf2))
	}
}

func TestPutBufferDropsUndersizedBuffer(t *testing.T) {
	small := make([]byte, 0, 10)
	PutBuffer(small) // should not panic; undersized buffers are dropped silently
}

func TestPerCPUPoolStrategy(t *testing.T) {
	SetPoolStrategy(PoolStrategyPerCPU)
	defer SetPoolStrategy(PoolStrategyStandard)

	d := GetRequestDecoder(DefaultLimits())
	if d == nil {
		t.Fatal("GetRequestDecoder (per-CPU) returned nil")
	}
	PutRequestDecoder(d)

	buf := GetBuffer()
	if cap(buf) < DefaultBufferSize {
		t.Errorf("per-CPU GetBuffer cap = %d", cap(buf))
	}
	PutBuffer(buf)
}

func TestWithHashedShardingIsDeterministic(t *testing.T) {
	sel := WithHashedSharding([]byte("connection-123"))
	first := sel(8)
	second := sel(8)
	if first != second {
		t.Errorf("WithHashedSharding selector not deterministic: %d != %d", first, second)
	}
	if first < 0 || first >= 8 {
		t.Errorf("shard index %d out of range [0,8)", first)
	}
}

func TestWithHashedShardingDiffersAcrossKeys(t *testing.T) {
	selA := WithHashedSharding([]byte("connection-a"))
	selB := WithHashedSharding([]byte("connection-b"))
	// Not guaranteed to differ for every pair of keys, but with 64 shards
	// and two distinct keys a collision is unlikely enough that if it
	// happens the selectors are still individually valid and deterministic.
	a := selA(64)
	b := selB(64)
	if a < 0 || a >= 64 || b < 0 || b >= 64 {
		t.Errorf("shard indices out of range: a=%d b=%d", a, b)
	}
}

func TestGetEncodeBufferPutEncodeBuffer(t *testing.T) {
	buf := GetEncodeBuffer()
	if buf == nil {
		t.Fatal("GetEncodeBuffer returned nil")
	}
	buf.Write([]byte("hello"))
	PutEncodeBuffer(buf)
	PutEncodeBuffer(nil)
}

func TestWarmupPoolsStandard(t *testing.T) {
	SetPoolStrategy(PoolStrategyStandard)
	WarmupPools(2)
}

func TestWarmupPoolsPerCPU(t *testing.T) {
	SetPoolStrategy(PoolStrategyPerCPU)
	defer SetPoolStrategy(PoolStrategyStandard)
	WarmupPools(2)
}
