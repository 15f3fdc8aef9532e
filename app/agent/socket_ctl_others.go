//go:build !linux

package agent

// Socket options are linux only. Without SO_REUSEADDR a second local
// instance cannot bind the mdns port.
func controlSocket(_ SocketConfig) controlFunc {
	return nil
}
