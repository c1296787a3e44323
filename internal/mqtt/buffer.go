package mqtt

import "github.com/rs/zerolog/log"

// message is a formatted MQTT publish kept for replay after a reconnect.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox queues messages while the broker is unreachable. Once limit messages
// are queued, each new one evicts the oldest. Callers synchronize access.
type outbox struct {
	msgs    []message
	limit   int
	dropped int // evictions since the last take
}

func newOutbox(limit int) *outbox {
	return &outbox{msgs: make([]message, 0, limit), limit: limit}
}

func (o *outbox) add(m message) {
	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			log.Warn().Int("limit", o.limit).Msg("mqtt: outbox full, evicting oldest values")
		}
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:len(o.msgs)-1]
		o.dropped++
	}
	o.msgs = append(o.msgs, m)
}

// take hands over every queued message, oldest first, and resets the outbox.
func (o *outbox) take() []message {
	if len(o.msgs) == 0 {
		return nil
	}
	if o.dropped > 0 {
		log.Info().Int("evicted", o.dropped).Msg("mqtt: values lost while offline")
	}
	out := o.msgs
	o.msgs = make([]message, 0, o.limit)
	o.dropped = 0
	return out
}

func (o *outbox) size() int {
	return len(o.msgs)
}
