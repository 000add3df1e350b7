// pkg/registry/schema.go
package registry

// ActivityRegistry lists the job activities a deployment serves. It is the
// JSON document written by `pumpsizer registry export`.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated,omitempty"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one task type: the schema its job variables must match
// and the error codes it may throw as BPMN errors.
type Activity struct {
	ID           string                 `json:"id"`
	TaskType     string                 `json:"taskType"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description,omitempty"`
	Version      string                 `json:"version"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`
	ErrorCodes   []string               `json:"errorCodes,omitempty"`
	Timeout      string                 `json:"timeout,omitempty"`
	Retries      int                    `json:"retries"`
}
