package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-spatial/dsp/core"
)

func ExampleApplyProcessorOptions() {
	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(44100),
		core.WithBlockSize(256),
	)

	fmt.Printf("sampleRate=%.0f blockSize=%d\n", cfg.SampleRate, cfg.BlockSize)

	// Output:
	// sampleRate=44100 blockSize=256
}

func ExampleMixRamp() {
	dst := make([]float64, 4)
	core.MixRamp(dst, []float64{1, 1, 1, 1}, make([]float64, 4), 0, 1)
	fmt.Println(dst)

	// Output:
	// [0.25 0.5 0.75 1]
}
