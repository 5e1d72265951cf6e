package conv

import (
	"testing"

	"github.com/cwbudde/algo-spatial/internal/testutil"
)

func BenchmarkPartitionedHRIR(b *testing.B) {
	benchmarkPartitioned(b, 256, 128)
}

func BenchmarkPartitionedReverbTail(b *testing.B) {
	benchmarkPartitioned(b, 48000, 128)
}

func benchmarkPartitioned(b *testing.B, kernelLen, blockSize int) {
	p, err := NewPartitioned(testutil.DeterministicNoise(1, 1, kernelLen), blockSize)
	if err != nil {
		b.Fatal(err)
	}
	src := testutil.DeterministicNoise(2, 1, blockSize)
	dst := make([]float64, blockSize)

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		_ = p.ProcessBlockTo(dst, src)
	}
}
