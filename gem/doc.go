// Package gem provides functions for creating GEM (Generic Equipment Model) messages
// according to the SEMI E30 standard.
//
// It currently covers the stream 9 error reports sent by the equipment when it receives a
// message it cannot process, and ErrorReport, which picks the report for a dispatcher error.
package gem
