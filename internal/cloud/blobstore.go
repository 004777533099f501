package cloud

import (
	"context"
	"encoding/json"
)

// AccountStatus describes whether the user's cloud account can take
// requests right now.
type AccountStatus int

const (
	// StatusIndeterminate means the account state has not been checked yet.
	StatusIndeterminate AccountStatus = iota
	// StatusSignedIn means the service is reachable and the user is signed in.
	StatusSignedIn
	// StatusNotSignedIn means the service is reachable but no user is signed in.
	StatusNotSignedIn
	// StatusUnavailable means the service cannot be reached.
	StatusUnavailable
)

func (s AccountStatus) String() string {
	switch s {
	case StatusSignedIn:
		return "signed-in"
	case StatusNotSignedIn:
		return "not-signed-in"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "indeterminate"
	}
}

// MarshalJSON renders the status in its string form.
func (s AccountStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Blob is one serialized day record held in the cloud, addressed by the
// aggregate ID.
type Blob struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"record"`
}

// BlobStore is the remote persistence contract the sync service talks
// to. Upsert is create-or-replace; Delete of a missing key succeeds.
type BlobStore interface {
	Upsert(ctx context.Context, key string, data []byte) error
	FetchAll(ctx context.Context) ([]Blob, error)
	Delete(ctx context.Context, key string) error
	AccountStatus(ctx context.Context) AccountStatus
}
