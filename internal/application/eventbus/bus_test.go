package eventbus_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelengine/assetpipe/internal/application/eventbus"
	"github.com/kestrelengine/assetpipe/internal/domain/asset"
)

func TestPump_DeliversInPublishOrder(t *testing.T) {
	// Arrange
	b := eventbus.New()
	var got []*asset.ID
	b.Subscribe(func(e eventbus.Event) {
		got = append(got, e.(eventbus.Loaded).ID)
	})

	a, c := asset.InternID("a"), asset.InternID("c")
	b.Publish(eventbus.Loaded{ID: a})
	b.Publish(eventbus.Loaded{ID: c})

	// Act
	delivered := b.Pump()

	// Assert
	assert.Equal(t, 2, delivered)
	assert.Equal(t, []*asset.ID{a, c}, got)
}

func TestPump_NothingQueuedDeliversNothing(t *testing.T) {
	b := eventbus.New()
	calls := 0
	b.Subscribe(func(eventbus.Event) { calls++ })

	assert.Equal(t, 0, b.Pump())
	assert.Equal(t, 0, calls)
}

func TestPublish_SafeFromManyGoroutines(t *testing.T) {
	b := eventbus.New()
	id := asset.InternID("x")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Publish(eventbus.FailedLoad{ID: id})
		}()
	}
	wg.Wait()

	assert.Equal(t, 32, b.Pump())
}
