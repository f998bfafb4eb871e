// Package routing implements the port routing engine: the connection
// matrix mapping device outports to device inports, the synchronous
// router that applies per-connection transforms and delivers values,
// and the asynchronous wrapper that decouples transport callbacks from
// delivery through a bounded queue and a fixed worker pool.
//
// Backpressure policy is drop-newest-with-counter: ingestion never
// blocks, and overload shows up in the stats rather than in latency on
// the transport receive loop.
package routing
