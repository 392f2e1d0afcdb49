package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BusTestSuite struct {
	suite.Suite
	bus *Bus[LoadInput]
}

func (s *BusTestSuite) SetupTest() {
	s.bus = &Bus[LoadInput]{}
}

func (s *BusTestSuite) TestPublishWithoutSubscribersIsNoop() {
	s.Equal(0, s.bus.Publish(LoadInput{Text: "lost"}))

	var got []string
	s.bus.Subscribe(func(p LoadInput) { got = append(got, p.Text) })

	s.Empty(got, "earlier payloads must not be delivered late")
	s.Equal(1, s.bus.Publish(LoadInput{Text: "now"}))
	s.Equal([]string{"now"}, got)
}

func (s *BusTestSuite) TestDeliversInSubscriptionOrder() {
	var order []int
	for i := 0; i < 3; i++ {
		s.bus.Subscribe(func(LoadInput) { order = append(order, i) })
	}

	s.Equal(3, s.bus.Publish(LoadInput{}))
	s.Equal([]int{0, 1, 2}, order)
}

func (s *BusTestSuite) TestUnsubscribeStopsDelivery() {
	calls := 0
	unsubscribe := s.bus.Subscribe(func(LoadInput) { calls++ })

	s.bus.Publish(LoadInput{})
	unsubscribe()
	unsubscribe()
	s.bus.Publish(LoadInput{})

	s.Equal(1, calls)
	s.Equal(0, s.bus.Len())
}

func (s *BusTestSuite) TestSelfUnsubscribeDuringDispatch() {
	var aCalls, bCalls, cCalls int
	var unsubscribeB func()

	s.bus.Subscribe(func(LoadInput) { aCalls++ })
	unsubscribeB = s.bus.Subscribe(func(LoadInput) {
		bCalls++
		unsubscribeB()
	})
	s.bus.Subscribe(func(LoadInput) { cCalls++ })

	s.Equal(3, s.bus.Publish(LoadInput{Text: "x"}))
	s.Equal(1, aCalls)
	s.Equal(1, bCalls)
	s.Equal(1, cCalls, "the handler after the removed one must still run")

	s.Equal(2, s.bus.Publish(LoadInput{Text: "y"}))
	s.Equal(2, aCalls)
	s.Equal(1, bCalls)
	s.Equal(2, cCalls)
}

func (s *BusTestSuite) TestUnsubscribeLaterHandlerDuringDispatch() {
	var secondCalls int
	var unsubscribeSecond func()

	s.bus.Subscribe(func(LoadInput) { unsubscribeSecond() })
	unsubscribeSecond = s.bus.Subscribe(func(LoadInput) { secondCalls++ })

	s.Equal(1, s.bus.Publish(LoadInput{}))
	s.Equal(0, secondCalls)
}

func (s *BusTestSuite) TestSubscribeDuringDispatchWaitsForNextPublish() {
	late := 0
	s.bus.Subscribe(func(LoadInput) {
		s.bus.Subscribe(func(LoadInput) { late++ })
	})

	s.bus.Publish(LoadInput{})
	s.Equal(0, late)
}

func TestBusTestSuite(t *testing.T) {
	suite.Run(t, new(BusTestSuite))
}

func TestBus_ConcurrentSubscribePublish(t *testing.T) {
	bus := &Bus[HistoryUpdated]{}
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsubscribe := bus.Subscribe(func(HistoryUpdated) {})
			unsubscribe()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(HistoryUpdated{ToolType: "essay"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, bus.Len())
}

func TestHub_EventClassesAreIndependent(t *testing.T) {
	hub := NewHub()

	var loads []string
	var updates []string
	hub.LoadInput.Subscribe(func(p LoadInput) { loads = append(loads, p.Text) })
	hub.HistoryUpdated.Subscribe(func(p HistoryUpdated) { updates = append(updates, p.ToolType) })

	hub.HistoryUpdated.Publish(HistoryUpdated{ToolType: "essay"})
	require.Empty(t, loads)
	assert.Equal(t, []string{"essay"}, updates)

	hub.LoadInput.Publish(LoadInput{Text: "Tema: IA"})
	assert.Equal(t, []string{"Tema: IA"}, loads)
}

func TestOr(t *testing.T) {
	assert.Same(t, Default, Or(nil))
	hub := NewHub()
	assert.Same(t, hub, Or(hub))
}
