package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/interfaces"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// Fanout delivers each order event to every sink. A failing sink does not
// stop delivery to the others.
type Fanout struct {
	sinks []interfaces.EventPublisher
}

// NewFanout builds a Fanout, skipping nil sinks
func NewFanout(sinks ...interfaces.EventPublisher) *Fanout {
	f := &Fanout{}
	for _, sink := range sinks {
		if sink != nil {
			f.sinks = append(f.sinks, sink)
		}
	}
	return f
}

// Publish sends event to all sinks and joins their errors
func (f *Fanout) Publish(ctx context.Context, event *models.OrderEvent) error {
	if event == nil {
		return fmt.Errorf("order event cannot be nil")
	}
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of sinks
func (f *Fanout) Len() int {
	return len(f.sinks)
}
