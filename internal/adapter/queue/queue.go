package queue

// MessageQueue is the event bus for session and banking audit events
// ("session.turn.recorded", "banking.executed", "security.alert").
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// Noop discards every event. Used when eventing is disabled in config.
type Noop struct{}

func NewNoop() MessageQueue { return Noop{} }

func (Noop) Publish(string, []byte) error                    { return nil }
func (Noop) Subscribe(string, func(data []byte) error) error { return nil }
func (Noop) Close() error                                    { return nil }
