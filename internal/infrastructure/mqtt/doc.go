// Package mqtt wraps the Eclipse Paho client for the bridge.
//
// It owns the connection lifecycle (auto-reconnect, subscription
// restoration, LWT on the bridge status topic), the namespaced topic
// scheme, and the domain publish helpers the rest of the bridge uses:
// PublishCommand, PublishClaim, and PublishPortSet.
//
// Inbound messages are delivered to a MessageHandler registered via
// Subscribe or SubscribeInbound; handlers are wrapped with panic
// recovery so a single malformed message can never kill the receive
// loop.
package mqtt
