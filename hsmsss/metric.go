package hsmsss

import (
	"go.uber.org/atomic"
)

// ConnectionMetrics contains atomic metrics for a connection.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ConnectionMetrics struct {
	// LinktestSendCount indicates the number of linktest messages sent.
	LinktestSendCount atomic.Uint64
	// LinktestRecvCount indicates the number of linktest responses received.
	LinktestRecvCount atomic.Uint64
	// LinktestErrCount indicates the number of failed linktests.
	LinktestErrCount atomic.Uint64

	// DataMsgSendCount indicates the number of data messages sent.
	DataMsgSendCount atomic.Uint64
	// DataMsgRecvCount indicates the number of data messages received.
	DataMsgRecvCount atomic.Uint64
	// DataMsgErrCount indicates the number of invalid data messages, sent or received, and read errors.
	DataMsgErrCount atomic.Uint64
	// DataMsgRejectCount indicates the number of Reject.req messages sent.
	DataMsgRejectCount atomic.Uint64
	// DataMsgInflightCount indicates the number of data messages waiting for a reply.
	DataMsgInflightCount atomic.Int64

	// ConnRetryGauge indicates the number of connection retries since the last successful connect.
	ConnRetryGauge atomic.Uint32
}

func (m *ConnectionMetrics) incLinktestSendCount()    { m.LinktestSendCount.Inc() }
func (m *ConnectionMetrics) incLinktestRecvCount()    { m.LinktestRecvCount.Inc() }
func (m *ConnectionMetrics) incLinktestErrCount()     { m.LinktestErrCount.Inc() }
func (m *ConnectionMetrics) incDataMsgSendCount()     { m.DataMsgSendCount.Inc() }
func (m *ConnectionMetrics) incDataMsgRecvCount()     { m.DataMsgRecvCount.Inc() }
func (m *ConnectionMetrics) incDataMsgErrCount()      { m.DataMsgErrCount.Inc() }
func (m *ConnectionMetrics) incDataMsgRejectCount()   { m.DataMsgRejectCount.Inc() }
func (m *ConnectionMetrics) incDataMsgInflightCount() { m.DataMsgInflightCount.Inc() }
func (m *ConnectionMetrics) decDataMsgInflightCount() { m.DataMsgInflightCount.Dec() }
func (m *ConnectionMetrics) incConnRetryGauge()       { m.ConnRetryGauge.Inc() }
func (m *ConnectionMetrics) resetConnRetryGauge()     { m.ConnRetryGauge.Store(0) }
