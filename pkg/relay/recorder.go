package relay

import (
	"context"

	"github.com/rs/zerolog"
)

// HistoryRecorder is the slice of the history store the recorder needs.
type HistoryRecorder interface {
	RecordSuccess(forwarderName string, sourceID, destID int64) error
	RecordFailure(forwarderName string, sourceID, destChannelID int64, reason string) error
}

// Recorder is the dedicated writer task: it consumes relay outcomes from
// the bus and records them in the history store. Persistence errors are
// logged and the stream continues; forwarding correctness takes priority
// over a local disk write.
type Recorder struct {
	bus   *OutcomeBus
	store HistoryRecorder
	log   zerolog.Logger
}

func NewRecorder(bus *OutcomeBus, store HistoryRecorder, log zerolog.Logger) *Recorder {
	return &Recorder{
		bus:   bus,
		store: store,
		log:   log.With().Str("component", "recorder").Logger(),
	}
}

// Run consumes outcomes until the bus is closed or the context is
// cancelled. Either way, events already buffered on the bus are drained
// and durably recorded before Run returns, so shutdown never abandons an
// accepted outcome mid-write.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case d := <-r.bus.deliveries:
			r.recordDelivery(d)
		case f := <-r.bus.failures:
			r.recordFailure(f)
		case <-r.bus.done:
			r.drain()
			return nil
		case <-ctx.Done():
			r.drain()
			return ctx.Err()
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case d := <-r.bus.deliveries:
			r.recordDelivery(d)
		case f := <-r.bus.failures:
			r.recordFailure(f)
		default:
			return
		}
	}
}

func (r *Recorder) recordDelivery(d Delivery) {
	if err := r.store.RecordSuccess(d.ForwarderName, d.SourceID, d.DestinationID); err != nil {
		r.log.Error().Err(err).
			Str("forwarder", d.ForwarderName).
			Int64("source_id", d.SourceID).
			Msg("recording delivery failed")
	}
}

func (r *Recorder) recordFailure(f Failure) {
	if err := r.store.RecordFailure(f.ForwarderName, f.SourceID, f.DestChannelID, f.Reason); err != nil {
		r.log.Error().Err(err).
			Str("forwarder", f.ForwarderName).
			Int64("source_id", f.SourceID).
			Msg("recording missed message failed")
	}
}
