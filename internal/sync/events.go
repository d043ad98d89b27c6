// Package sync drives the end-to-end catalog sync: verify the storefront
// connection, fetch and normalize the catalog, push the formatted content
// to the agent platform's knowledge base, and report progress as a strictly
// ordered event stream.
package sync

// EventType classifies a progress event.
type EventType string

const (
	EventProgress EventType = "progress"
	EventSuccess  EventType = "success"
	EventError    EventType = "error"
)

// Stage names the pipeline stage an event belongs to. Stages run strictly
// sequentially: connecting -> fetching -> preparing -> syncing -> done,
// or error from any stage.
type Stage string

const (
	StageConnecting Stage = "connecting"
	StageFetching   Stage = "fetching"
	StagePreparing  Stage = "preparing"
	StageSyncing    Stage = "syncing"
	StageDone       Stage = "done"
)

// Event is one discrete message describing sync pipeline advancement.
// Events in one run carry non-decreasing Progress values and end with
// exactly one terminal event (success or error).
type Event struct {
	Type     EventType `json:"type"`
	Stage    Stage     `json:"stage,omitempty"`
	Message  string    `json:"message"`
	Progress int       `json:"progress"`

	// Terminal success fields. ProductCount is never omitted: a zero-product
	// sync must report productCount 0 on the wire, not a missing key.
	ProductCount    int    `json:"productCount"`
	ShopName        string `json:"shopName,omitempty"`
	KnowledgeBaseID int    `json:"knowledgeBaseId,omitempty"`
	ReplicaUUID     string `json:"replicaUuid,omitempty"`
	UserID          string `json:"userId,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventSuccess || e.Type == EventError
}

// Result is the terminal outcome of one sync invocation. Not persisted by
// this system; persistence, if any, lives in the agent platform and the
// browser.
type Result struct {
	Success         bool   `json:"success"`
	ProductCount    int    `json:"productCount"`
	KnowledgeBaseID int    `json:"knowledgeBaseId,omitempty"`
	ReplicaUUID     string `json:"replicaUuid,omitempty"`
	UserID          string `json:"userId,omitempty"`
	Error           string `json:"error,omitempty"`
}

// ProgressFunc receives stage transitions during SyncProducts. It is never
// called after the terminal outcome is decided.
type ProgressFunc func(stage Stage, message string, progress int)
