package mocks

import "sync"

// MockMessageQueue is a mock implementation of the MessageQueue interface
type MockMessageQueue struct {
	PublishFunc   func(subject string, data []byte) error
	SubscribeFunc func(subject string, handler func(data []byte) error) error

	mu        sync.Mutex
	published []PublishedMessage
}

type PublishedMessage struct {
	Subject string
	Data    []byte
}

func (m *MockMessageQueue) Publish(subject string, data []byte) error {
	m.mu.Lock()
	m.published = append(m.published, PublishedMessage{Subject: subject, Data: data})
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(subject, data)
	}
	return nil
}

func (m *MockMessageQueue) Subscribe(subject string, handler func(data []byte) error) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(subject, handler)
	}
	return nil
}

func (m *MockMessageQueue) Close() error { return nil }

// GetPublishedMessages returns a snapshot of everything published so far.
func (m *MockMessageQueue) GetPublishedMessages() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.published...)
}
