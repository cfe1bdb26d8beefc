package coretest

import (
	"time"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
)

const SampleSource = "test"

// Samples returns n samples of one source, i-th sample has time
// of i-th second since epoch and data {"v": i}.
func Samples(n int) []core.Sample {
	samples := make([]core.Sample, n)
	for i := range samples {
		samples[i] = core.Sample{
			Source:    SampleSource,
			Timestamp: time.Unix(int64(i), 0),
			Data:      config.Document{"v": i},
		}
	}
	return samples
}
