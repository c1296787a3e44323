package mqtt

import (
	"github.com/sweeney/geiger-rng/internal/entropy"
)

// FakePublisher is an in-memory Publisher. Successful publishes are kept
// alongside their formatted payloads so tests can check both.
type FakePublisher struct {
	Values   []entropy.Value
	Payloads [][]byte

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// Injected failures. A failed publish records nothing.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) Publish(v entropy.Value) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(v)
	if err != nil {
		return err
	}
	f.Values = append(f.Values, v)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}
