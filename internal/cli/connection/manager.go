package connection

// Manager tracks the connection the CLI is currently pointed at.
type Manager struct {
	current *Connection
}

// Connection holds the details of one sasmint-server endpoint.
type Connection struct {
	Name     string
	Server   string
	APIKeyID string
	APIKey   string
	TLS      bool
}

// NewManager creates an empty connection manager.
func NewManager() *Manager {
	return &Manager{}
}

// Connect sets conn as the current connection.
func (m *Manager) Connect(conn *Connection) error {
	m.current = conn
	return nil
}

// Disconnect clears the current connection.
func (m *Manager) Disconnect() {
	m.current = nil
}

// Current returns the current connection, or nil.
func (m *Manager) Current() *Connection {
	return m.current
}

// IsConnected reports whether a connection is set.
func (m *Manager) IsConnected() bool {
	return m.current != nil
}
