// Package workflow provides the Serverless Workflow document model along with the entry points
// that decode it from JSON or YAML, encode it back and materialize its external definitions.
package workflow

import (
	"github.com/speakeasy-api/serverlessworkflow/values"
)

// DefaultSpecVersion is the Serverless Workflow specification version this model describes.
const DefaultSpecVersion = "0.8"

// WorkflowDefinition is the root object of a Serverless Workflow document.
type WorkflowDefinition struct {
	// ID is the unique identifier of the workflow. Either ID or Key is expected.
	ID string `key:"id"`
	// Key is the domain specific identifier of the workflow.
	Key string `key:"key"`
	// Name is the human readable name of the workflow.
	Name string `key:"name"`
	// Description describes the purpose of the workflow.
	Description string `key:"description"`
	// Version is the version of the workflow definition.
	Version string `key:"version"`
	// SpecVersion is the Serverless Workflow specification release the document conforms to.
	SpecVersion string `key:"specVersion"`
	// Annotations are free-form tags used to categorize workflows.
	Annotations []string `key:"annotations"`
	// DataInputSchema describes the expected workflow input, inline or as a URI.
	DataInputSchema *values.OneOf[DataInputSchemaDefinition, string] `key:"dataInputSchema"`
	// Secrets lists the names of the secrets the workflow uses, inline or as a URI.
	Secrets *values.OneOf[[]string, string] `key:"secrets"`
	// Constants holds global constant values available to expressions, inline or as a URI.
	Constants *values.OneOf[values.Object, string] `key:"constants"`
	// Start defines the starting state, either by name or with a schedule.
	Start *values.OneOf[StartDefinition, string] `key:"start"`
	// ExpressionLang identifies the language runtime expressions are written in. Defaults to jq.
	ExpressionLang string `key:"expressionLang"`
	// Timeouts configures workflow wide timeouts, inline or as a URI.
	Timeouts *values.OneOf[WorkflowTimeouts, string] `key:"timeouts"`
	// KeepActive keeps the workflow instance alive until explicitly terminated.
	KeepActive bool `key:"keepActive"`
	// Metadata holds custom information about the workflow.
	Metadata map[string]string `key:"metadata"`
	// Events defines the events consumed and produced by the workflow, inline or as a URI.
	Events *values.OneOf[[]EventDefinition, string] `key:"events"`
	// Functions defines the functions invoked by the workflow, inline or as a URI.
	Functions *values.OneOf[[]FunctionDefinition, string] `key:"functions"`
	// AutoRetries enables automatic retries for failed actions.
	AutoRetries bool `key:"autoRetries"`
	// Retries defines the retry strategies actions can reference, inline or as a URI.
	Retries *values.OneOf[[]RetryDefinition, string] `key:"retries"`
	// Auth defines the authentication schemes functions can reference, inline or as a URI.
	Auth *values.OneOf[[]AuthenticationDefinition, string] `key:"auth"`
	// States are the workflow's states.
	States States `key:"states"`
}

// StartDefinition names the starting state and optionally when instances are created.
type StartDefinition struct {
	StateName string                          `key:"stateName"`
	Schedule  *values.OneOf[Schedule, string] `key:"schedule"`
}

// Schedule defines recurring workflow instance creation. The string form of a schedule is an
// ISO 8601 repeating interval.
type Schedule struct {
	Interval string                      `key:"interval"`
	Cron     *values.OneOf[Cron, string] `key:"cron"`
	Timezone string                      `key:"timezone"`
}

// Cron is a cron expression with an optional expiry.
type Cron struct {
	Expression string `key:"expression" required:"true"`
	ValidUntil string `key:"validUntil"`
}

// WorkflowTimeouts configures timeouts for the workflow and, by default, its states, actions and branches.
type WorkflowTimeouts struct {
	WorkflowExecTimeout *values.OneOf[WorkflowExecTimeout, string] `key:"workflowExecTimeout"`
	StateExecTimeout    *values.OneOf[StateExecTimeout, string]    `key:"stateExecTimeout"`
	ActionExecTimeout   string                                     `key:"actionExecTimeout"`
	BranchExecTimeout   string                                     `key:"branchExecTimeout"`
	EventTimeout        string                                     `key:"eventTimeout"`
}

// WorkflowExecTimeout bounds the total execution time of a workflow instance.
type WorkflowExecTimeout struct {
	// Duration is an ISO 8601 duration.
	Duration  string `key:"duration" required:"true"`
	Interrupt bool   `key:"interrupt"`
	// RunBefore names a state to run before the workflow is ended on timeout.
	RunBefore string `key:"runBefore"`
}

// StateExecTimeout bounds the execution time of a state.
type StateExecTimeout struct {
	Single string `key:"single"`
	Total  string `key:"total" required:"true"`
}

// DataInputSchemaDefinition references the JSON Schema the workflow input is validated against.
type DataInputSchemaDefinition struct {
	// Schema is the schema itself or a URI locating it.
	Schema                 *values.OneOf[values.Object, string] `key:"schema" required:"true"`
	FailOnValidationErrors *bool                                `key:"failOnValidationErrors"`
}

// FindFunction will return the first function with the matching name.
// Functions held as an unresolved URI are not searched.
func (w *WorkflowDefinition) FindFunction(name string) *FunctionDefinition {
	for i, fn := range w.Functions.LeftValue() {
		if fn.Name == name {
			return &w.Functions.LeftValue()[i]
		}
	}
	return nil
}

// FindEvent will return the first event with the matching name.
// Events held as an unresolved URI are not searched.
func (w *WorkflowDefinition) FindEvent(name string) *EventDefinition {
	for i, ev := range w.Events.LeftValue() {
		if ev.Name == name {
			return &w.Events.LeftValue()[i]
		}
	}
	return nil
}
