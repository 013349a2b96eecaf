package pkg

// Structured log field keys shared across packages.
const (
	SessionId string = "session_id"
	PeerAddr  string = "peer"
	Verb      string = "verb"
)
