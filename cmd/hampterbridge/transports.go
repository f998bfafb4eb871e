package main

import (
	"fmt"

	"github.com/Hampterlab/hampter-bridge/internal/command"
	"github.com/Hampterlab/hampter-bridge/internal/directory"
	"github.com/Hampterlab/hampter-bridge/internal/infrastructure/mqtt"
)

// deviceLookup is the directory projection the transport glue needs.
type deviceLookup interface {
	Get(id string) (directory.Device, bool)
}

// portWriter delivers routed values over the target device's last-seen
// transport: MQTT publish to the ports/set topic, or an IPC call.
type portWriter struct {
	devices deviceLookup
	mqtt    *mqtt.Client
	agent   command.Agent // may be nil
}

func (w *portWriter) WritePort(deviceID, port string, value float64) error {
	dev, ok := w.devices.Get(deviceID)
	if !ok {
		return fmt.Errorf("unknown target device %q", deviceID)
	}

	if dev.Protocol == directory.ProtocolIPC {
		if w.agent == nil {
			return fmt.Errorf("device %q uses ipc but no agent is configured", deviceID)
		}
		if !w.agent.SendPortSet(deviceID, port, value) {
			return fmt.Errorf("ipc port set to %q failed", deviceID)
		}
		return nil
	}
	return w.mqtt.PublishPortSet(deviceID, port, value)
}

// claimSender issues claim tokens over the device's last-seen transport.
//
// IPC devices never receive claims: commands on the local socket are
// unsigned, so there is no secret to establish. Unknown devices default
// to the MQTT claim topic; an announce is typically what triggers the
// claim, and the directory entry may not be visible yet.
type claimSender struct {
	devices deviceLookup
	mqtt    *mqtt.Client
	agent   command.Agent // reserved; claims are MQTT-only today
}

func (c *claimSender) SendClaim(deviceID, token string) error {
	if dev, ok := c.devices.Get(deviceID); ok && dev.Protocol == directory.ProtocolIPC {
		return nil
	}
	return c.mqtt.PublishClaim(deviceID, token)
}
