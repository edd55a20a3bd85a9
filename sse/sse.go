// Package sse decodes the gateway's server-sent-event wire format: a byte
// stream of newline-delimited lines where data-bearing lines carry a
// "data: " prefix. Decoding and interpretation are split so each can be
// tested against arbitrary transport fragmentation.
package sse
