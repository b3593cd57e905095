package sim

// SendError is returned when a port or connection cannot take a message
// right now. The sender keeps the message and retries after it is notified.
type SendError struct{}

// NewSendError creates a SendError
func NewSendError() *SendError {
	return &SendError{}
}

// A Connection moves messages between the ports plugged into it.
type Connection interface {
	Named
	Hookable

	PlugIn(port Port)

	// NotifySend tells the connection that a port has a message to forward.
	NotifySend()

	// NotifyAvailable tells the connection that port has room in its
	// incoming buffer again.
	NotifyAvailable(port Port)
}
