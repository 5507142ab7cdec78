package broadcast

import (
	"context"

	"go.uber.org/multierr"
)

// Fanout sends every payload to all transports. A failing transport
// does not stop the others; errors are combined.
type Fanout struct {
	transports []Transport
}

// NewFanout creates a fanout over the given transports.
func NewFanout(transports ...Transport) *Fanout {
	return &Fanout{transports: transports}
}

// Send implements Transport.
func (f *Fanout) Send(ctx context.Context, topic string, payload []byte) error {
	var err error
	for _, t := range f.transports {
		err = multierr.Append(err, t.Send(ctx, topic, payload))
	}
	return err
}
