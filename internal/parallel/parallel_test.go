package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForVisitsEveryIndexOnce(t *testing.T) {
	configs := map[string]Config{
		"serial":   {Enabled: false},
		"parallel": {Enabled: true, NumWorkers: 4, MinChunkSize: 1},
		"large":    {Enabled: true, NumWorkers: 3, MinChunkSize: 1000},
		"default":  DefaultConfig(),
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			const n = 257
			var hits [n]atomic.Int32
			For(n, func(i int) { hits[i].Add(1) }, cfg)
			for i := range hits {
				assert.Equal(t, int32(1), hits[i].Load(), "index %d", i)
			}
		})
	}
}

func TestForEmpty(t *testing.T) {
	called := false
	For(0, func(int) { called = true }, Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})
	assert.False(t, called)
}
