// Package metrics writes value and pulse statistics to InfluxDB.
package metrics

import (
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/influxdata/influxdb-client-go/api/write"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/geiger-rng/internal/entropy"
)

// Measurement names.
const (
	MeasurementValue  = "geiger.value"
	MeasurementCounts = "geiger.counts"
)

// PointWriter is the part of the InfluxDB write API the sink needs.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Sink turns daemon data into InfluxDB points.
type Sink struct {
	w    PointWriter
	tags map[string]string
}

// NewSink creates a sink tagging every point with the source and width.
func NewSink(w PointWriter, source string, width int) *Sink {
	return &Sink{
		w: w,
		tags: map[string]string{
			"source": source,
			"width":  strconv.Itoa(width),
		},
	}
}

// Write records one completed value. Writes are asynchronous; it never fails.
func (s *Sink) Write(v entropy.Value) error {
	s.w.WritePoint(influxdb2.NewPoint(MeasurementValue,
		s.tags,
		map[string]interface{}{
			"number": v.Number,
			"ones":   v.Ones(),
		},
		v.Timestamp))
	return nil
}

// WriteCounts records extractor totals, typically on each heartbeat.
func (s *Sink) WriteCounts(c entropy.Counts, ts time.Time) {
	s.w.WritePoint(influxdb2.NewPoint(MeasurementCounts,
		s.tags,
		map[string]interface{}{
			"pulses": c.Pulses,
			"bits":   c.Bits,
			"ones":   c.Ones,
			"values": c.Values,
		},
		ts))
}

// Client owns an InfluxDB connection and its non-blocking write API.
type Client struct {
	client influxdb2.Client
	api    api.WriteAPI
}

// Dial creates a client for host writing into org/bucket.
// Asynchronous write errors are logged.
func Dial(host, token, org, bucket string) *Client {
	client := influxdb2.NewClient(host, token)
	writeAPI := client.WriteAPI(org, bucket)

	errs := writeAPI.Errors()
	go func() {
		for err := range errs {
			log.Warn().Err(err).Msg("influxdb: write failed")
		}
	}()

	return &Client{client: client, api: writeAPI}
}

// WritePoint queues a point.
func (c *Client) WritePoint(p *write.Point) {
	c.api.WritePoint(p)
}

// Close flushes pending points and releases the client.
func (c *Client) Close() {
	c.api.Flush()
	c.client.Close()
}
