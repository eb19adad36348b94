package otoout

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestBlockReaderCarriesPartialBlocks(t *testing.T) {
	calls := 0
	r := newBlockReader(func(out []float32, frames int) {
		for i := range out {
			out[i] = float32(calls*len(out) + i)
		}
		calls++
	}, 4, 2)

	var got []float32
	for _, size := range []int{12, 20, 4, 28} {
		p := make([]byte, size)
		n, err := r.Read(p)
		if err != nil || n != size {
			t.Fatalf("expected %d bytes, got %d (%v)", size, n, err)
		}
		for i := 0; i < n; i += 4 {
			got = append(got, math.Float32frombits(binary.LittleEndian.Uint32(p[i:])))
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 callbacks for 64 bytes of 8-sample blocks, got %d", calls)
	}
	for i, v := range got {
		if v != float32(i) {
			t.Fatalf("sample %d: expected %d, got %f", i, i, v)
		}
	}
}
