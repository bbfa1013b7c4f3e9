// Package messaging is a broker-agnostic publish/consume API with Kafka, NATS,
// NSQ, Google Pub/Sub and in-process drivers.
//
// Every driver acknowledges a delivery when the handler returns nil and asks
// for redelivery (where the broker supports it) when it returns an error.
// Handlers must therefore be idempotent.
package messaging
