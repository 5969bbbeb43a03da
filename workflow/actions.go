package workflow

import (
	"github.com/speakeasy-api/serverlessworkflow/values"
)

// Action is a unit of work performed by a state: a function call, an event exchange or a subflow.
// Exactly one of FunctionRef, EventRef or SubFlowRef is expected.
type Action struct {
	ID          string                                   `key:"id"`
	Name        string                                   `key:"name"`
	FunctionRef *values.OneOf[FunctionReference, string] `key:"functionRef"`
	EventRef    *EventReference                          `key:"eventRef"`
	SubFlowRef  *values.OneOf[SubflowReference, string]  `key:"subFlowRef"`
	Sleep       *Sleep                                   `key:"sleep"`
	// RetryRef names the RetryDefinition applied when the action fails.
	RetryRef           string            `key:"retryRef"`
	NonRetryableErrors []string          `key:"nonRetryableErrors"`
	RetryableErrors    []string          `key:"retryableErrors"`
	ActionDataFilter   *ActionDataFilter `key:"actionDataFilter"`
	// Condition is an expression that must evaluate to true for the action to run.
	Condition string `key:"condition"`
}

// Invoke decides whether an action waits for its result.
type Invoke string

const (
	InvokeSync  Invoke = "sync"
	InvokeAsync Invoke = "async"
)

// FunctionReference invokes a FunctionDefinition by name.
type FunctionReference struct {
	RefName   string         `key:"refName" required:"true"`
	Arguments *values.Object `key:"arguments"`
	// SelectionSet is the GraphQL selection set of graphql functions.
	SelectionSet string `key:"selectionSet"`
	Invoke       Invoke `key:"invoke"`
}

// EventReference produces an event and optionally waits for a result event.
type EventReference struct {
	// TriggerEventRef names the event produced.
	TriggerEventRef string `key:"produceEventRef"`
	// ResultEventRef names the event waited for.
	ResultEventRef     string            `key:"consumeEventRef"`
	ResultEventTimeout string            `key:"consumeEventTimeout"`
	Data               values.Value      `key:"data"`
	ContextAttributes  map[string]string `key:"contextAttributes"`
	Invoke             Invoke            `key:"invoke"`
}

// SubflowReference invokes another workflow.
type SubflowReference struct {
	WorkflowID string `key:"workflowId" required:"true"`
	Version    string `key:"version"`
	Invoke     Invoke `key:"invoke"`
	// OnParentComplete is either terminate or continue.
	OnParentComplete string `key:"onParentComplete"`
}

// Sleep pauses before or after an action.
type Sleep struct {
	Before string `key:"before"`
	After  string `key:"after"`
}

// TransitionDefinition moves execution to another state.
type TransitionDefinition struct {
	NextState     string         `key:"nextState" required:"true"`
	ProduceEvents []ProduceEvent `key:"produceEvents"`
	Compensate    bool           `key:"compensate"`
}

// EndDefinition ends the workflow, optionally continuing as a new instance.
type EndDefinition struct {
	Terminate     bool                              `key:"terminate"`
	ProduceEvents []ProduceEvent                    `key:"produceEvents"`
	Compensate    bool                              `key:"compensate"`
	ContinueAs    *values.OneOf[ContinueAs, string] `key:"continueAs"`
}

// ContinueAs starts a new workflow instance when the current one ends.
type ContinueAs struct {
	WorkflowID          string                                     `key:"workflowId" required:"true"`
	Version             string                                     `key:"version"`
	Data                values.Value                               `key:"data"`
	WorkflowExecTimeout *values.OneOf[WorkflowExecTimeout, string] `key:"workflowExecTimeout"`
}

// ProduceEvent is an event produced on a transition or at the end of the workflow.
type ProduceEvent struct {
	EventRef          string            `key:"eventRef"`
	Data              values.Value      `key:"data"`
	ContextAttributes map[string]string `key:"contextAttributes"`
}

// ErrorHandler handles errors raised while executing a state.
type ErrorHandler struct {
	ErrorRef   string                                      `key:"errorRef"`
	ErrorRefs  []string                                    `key:"errorRefs"`
	Transition *values.OneOf[TransitionDefinition, string] `key:"transition"`
	End        *values.OneOf[EndDefinition, bool]          `key:"end"`
}

// StateDataFilter selects the state data passed into and out of a state.
type StateDataFilter struct {
	Input  string `key:"input"`
	Output string `key:"output"`
}

// EventDataFilter selects how event data is merged into the state data.
type EventDataFilter struct {
	UseData     *bool  `key:"useData"`
	Data        string `key:"data"`
	ToStateData string `key:"toStateData"`
}

// ActionDataFilter selects how action results are merged into the state data.
type ActionDataFilter struct {
	FromStateData string `key:"fromStateData"`
	UseResults    *bool  `key:"useResults"`
	Results       string `key:"results"`
	ToStateData   string `key:"toStateData"`
}
