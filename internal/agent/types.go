package agent

// Replica is a configured conversational agent instance on the platform,
// tied to a knowledge base.
type Replica struct {
	UUID             string   `json:"uuid"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Greeting         string   `json:"greeting,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// KnowledgeBasePayload is the unit of content pushed to a replica's
// knowledge base: the formatted catalog text plus derived facts.
type KnowledgeBasePayload struct {
	RawText        string   `json:"rawText"`
	GeneratedFacts []string `json:"generatedFacts,omitempty"`
}

// KnowledgeBaseEntry describes one ingested knowledge-base item.
type KnowledgeBaseEntry struct {
	ID     int    `json:"id"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Identifiers are the platform-assigned identifiers returned after a
// successful knowledge-base push. The chat UI uses them to address the
// created resource.
type Identifiers struct {
	KnowledgeBaseID int    `json:"knowledgeBaseId"`
	ReplicaUUID     string `json:"replicaUuid"`
	UserID          string `json:"userId"`
}
