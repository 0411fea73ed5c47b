package fetalapi

// Connection is the online/offline indicator shown to the operator.
type Connection struct {
	Online bool   `json:"online"`
	Label  string `json:"label"`
	Class  string `json:"class"`
}

// ConnectionStatus describes the indicator for the given reachability.
func ConnectionStatus(online bool) Connection {
	if online {
		return Connection{Online: true, Label: "Sistema Online", Class: "status online"}
	}
	return Connection{Online: false, Label: "Sistema Offline", Class: "status offline"}
}
