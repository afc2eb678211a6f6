// Package producer holds the built-in event sources that feed the hub: a
// periodic Ticker and an on-demand Command that publishes the output of a
// fixed subprocess.
//
// Producers depend only on Publisher, so they can be tested against any
// sink and never see subscribers.
package producer
