package models

// StatsResponse reports engine-wide counters and host resource usage.
type StatsResponse struct {
	ConnectionsOpened int64   `json:"connections_opened"`
	ConnectionsClosed int64   `json:"connections_closed"`
	ActiveConnections int64   `json:"active_connections"`
	BytesSent         int64   `json:"bytes_sent"`
	BytesReceived     int64   `json:"bytes_received"`
	EventsDelivered   int64   `json:"events_delivered"`
	PollCalls         int64   `json:"poll_calls"`
	Errors            int64   `json:"errors"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	MemoryUsedPercent  float64 `json:"memory_used_percent"`
	CPUUsedPercent     float64 `json:"cpu_used_percent"`
}

// ConnectionResponse describes a single live connection for the
// /connections endpoint.
type ConnectionResponse struct {
	TraceID    string `json:"trace_id"`
	Transport  string `json:"transport"`
	Role       string `json:"role"`
	LocalAddr  string `json:"local_addr"`
	RemoteAddr string `json:"remote_addr"`
}

// ConnectionsResponse wraps the connection list with a count, matching
// the list-envelope shape used elsewhere in the API.
type ConnectionsResponse struct {
	Count       int                   `json:"count"`
	Connections []ConnectionResponse `json:"connections"`
}
