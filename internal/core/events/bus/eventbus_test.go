package bus

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got Event
	_, err := b.Subscribe("nudge.applied", func(e Event) error {
		got = e
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("nudge.applied", "tester", 123, 0, nil)))
	require.NotNil(t, got)
	assert.Equal(t, 123, got.Data())
	assert.Equal(t, "tester", got.Source())
}

func TestDeliveryOrderFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		_, err := b.Subscribe("e", func(Event) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("e", "s", nil, 0, nil)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	_, _ = b.Subscribe("e", func(Event) error { return errA })
	_, _ = b.Subscribe("e", func(Event) error { return nil })
	_, _ = b.Subscribe("e", func(Event) error { return errB })

	err := b.Publish(NewEvent("e", "s", nil, 0, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestPublishAsyncReturnsErrorChannel(t *testing.T) {
	b := New()
	handlerErr := errors.New("fail")
	_, err := b.Subscribe("x", func(e Event) error { return handlerErr })
	require.NoError(t, err)

	select {
	case e := <-b.PublishAsync(NewEvent("x", "src", nil, 0, nil)):
		assert.ErrorIs(t, e, handlerErr)
	case <-time.After(time.Second):
		t.Fatal("async publish did not complete")
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	var calls int32
	sub, err := b.Subscribe("e", func(Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, "e", sub.EventType())

	require.NoError(t, b.Publish(NewEvent("e", "s", nil, 0, nil)))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	require.NoError(t, b.Publish(NewEvent("e", "s", nil, 0, nil)))

	assert.False(t, sub.IsActive())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.NoError(t, b.Unsubscribe(nil))
}

func TestSubscribeRejectsBadInput(t *testing.T) {
	b := New()
	_, err := b.Subscribe("", func(Event) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyEventType)
	_, err = b.Subscribe("e", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(e Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil, 0, nil))
	m := b.GetMetrics()
	assert.Zero(t, m.Published)
	assert.Equal(t, uint64(1), m.SubscribersActive)

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil, 0, nil))
	m2 := b.GetMetrics()
	assert.Equal(t, uint64(1), m2.Published)
	assert.Equal(t, uint64(1), m2.DeliveredHandlers)
	assert.Equal(t, 1, obs.publishCount)
	assert.Equal(t, 1, obs.deliveredCount)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil, 0, nil))
	assert.Equal(t, 1, obs.publishCount)
}

func TestLogObserverWarnsOnHandlerError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := New()
	b.AddObserver(NewLogObserver(log.FromZap(zap.New(core))))
	_, _ = b.Subscribe("e", func(Event) error { return errors.New("boom") })

	require.Error(t, b.Publish(NewEvent("e", "s", nil, 0, nil)))
	assert.Equal(t, 1, logs.FilterMessage("Event published").Len())
	warned := logs.FilterMessage("Event handler failed").All()
	require.Len(t, warned, 1)
	assert.Equal(t, zapcore.WarnLevel, warned[0].Level)
}

func BenchmarkPublishSingleSubscriber(b *testing.B) {
	bus := New()
	var c int64
	_, _ = bus.Subscribe("e", func(Event) error {
		atomic.AddInt64(&c, 1)
		return nil
	})
	evt := NewEvent("e", "bench", nil, 0, nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Publish(evt)
	}
}
