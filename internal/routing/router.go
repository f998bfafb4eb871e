package routing

import (
	"errors"
	"fmt"
)

// PortWriter delivers a value to a device inport over the transport
// appropriate for that device. Wiring provides an implementation that
// selects MQTT or IPC by the target's last-seen protocol.
type PortWriter interface {
	WritePort(deviceID, port string, value float64) error
}

// Router is the synchronous half of the routing engine: given one raw
// port value it finds every enabled matching connection, applies each
// connection's transform, and writes the result to the target inport.
type Router struct {
	matrix *Matrix
	writer PortWriter
	logger Logger
}

// NewRouter creates a synchronous router.
func NewRouter(matrix *Matrix, writer PortWriter) *Router {
	return &Router{
		matrix: matrix,
		writer: writer,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// Route delivers one port value through the matrix.
//
// Connections are evaluated independently: a failed delivery on one
// does not stop the others. The returned error joins the individual
// failures, for the caller's failure counter.
func (r *Router) Route(job Job) error {
	conns := r.matrix.ConnectionsFrom(Endpoint{DeviceID: job.DeviceID, Port: job.Port})
	if len(conns) == 0 {
		return nil
	}
	if r.writer == nil {
		return ErrNoPortWriter
	}

	var errs []error
	for _, c := range conns {
		value := c.Transform.Apply(job.Value)
		if err := r.writer.WritePort(c.Target.DeviceID, c.Target.Port, value); err != nil {
			r.logger.Warn("routed delivery failed",
				"connection_id", c.ID,
				"source", c.Source.String(),
				"target", c.Target.String(),
				"error", err)
			errs = append(errs, fmt.Errorf("connection %s: %w", c.ID, err))
			continue
		}
		r.logger.Debug("routed value delivered",
			"connection_id", c.ID,
			"source", c.Source.String(),
			"target", c.Target.String(),
			"value", value)
	}
	return errors.Join(errs...)
}
