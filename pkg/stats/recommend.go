package stats

import "math"

// memorySteps are the fixed MiB sizes round_memory snaps up to before
// falling back to whole-GiB rounding.
var memorySteps = []float64{128, 256, 512, 1024, 2048}

// RoundMemory snaps mib up to the smallest of {128,256,512,1024,2048} that
// covers it, or, above 2048, up to the next whole GiB (1024 MiB). Ported
// literally from its round_memory policy; the literal seeds in
//  (RoundMemory(68)==128, RoundMemory(896)==1024,
// RoundMemory(3863)==4096, RoundMemory(12000)==12*1024) pin the behavior.
func RoundMemory(mib float64) float64 {
	for _, step := range memorySteps {
		if mib <= step {
			return step
		}
	}
	return math.Ceil(mib/1024) * 1024
}

// Recommendation is the report-only sizing suggestion from ;
// never persisted as part of the artifact's stable contract.
type Recommendation struct {
	CPU    float64
	Memory float64
	GPU    float64
	VRAM   float64
}

// Recommend computes the recommendation given the pid-tree means/maxes
// already folded into Stats. Memory stats are KiB; the recommended Memory
// is MiB.
func Recommend(s *Stats) Recommendation {
	rec := Recommendation{
		CPU:    math.Ceil(s.CPUUsage.Mean),
		Memory: RoundMemory(s.Memory.Max * 1.2 / 1024),
	}
	if s.GPUUsage.Mean > 0 {
		rec.GPU = math.Ceil(s.GPUUsage.Max)
	}
	if s.GPUVRAM.Max > 0 {
		rec.VRAM = math.Ceil(s.GPUVRAM.Max / 1024)
	}
	return rec
}
