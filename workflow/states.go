package workflow

import (
	"context"
	"strings"

	"github.com/speakeasy-api/serverlessworkflow/discriminator"
	"github.com/speakeasy-api/serverlessworkflow/marshaller"
	"github.com/speakeasy-api/serverlessworkflow/values"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

// StateType is the value of a state's "type" property.
type StateType string

const (
	StateTypeEvent     StateType = "event"
	StateTypeOperation StateType = "operation"
	StateTypeSwitch    StateType = "switch"
	StateTypeSleep     StateType = "sleep"
	StateTypeParallel  StateType = "parallel"
	StateTypeInject    StateType = "inject"
	StateTypeForEach   StateType = "foreach"
	StateTypeCallback  StateType = "callback"
)

// State is implemented by every workflow state. The concrete state is selected by the "type" property.
type State interface {
	discriminator.Discriminated
	// GetName returns the unique name of the state.
	GetName() string
}

// States is the list of states of a workflow.
type States []State

// Find will return the first state with the matching name.
func (s States) Find(name string) State {
	for _, state := range s {
		if state.GetName() == name {
			return state
		}
	}
	return nil
}

// BaseState holds the properties shared by all states.
type BaseState struct {
	// ID is an optional unique identifier of the state.
	ID   string `key:"id"`
	Name string `key:"name"`
	// Transition is the next state, by name or with a full definition. Mutually exclusive with End.
	Transition          *values.OneOf[TransitionDefinition, string] `key:"transition"`
	End                 *values.OneOf[EndDefinition, bool]          `key:"end"`
	OnErrors            []ErrorHandler                              `key:"onErrors"`
	CompensatedBy       string                                      `key:"compensatedBy"`
	UsedForCompensation bool                                        `key:"usedForCompensation"`
	StateDataFilter     *StateDataFilter                            `key:"stateDataFilter"`
	Metadata            map[string]string                           `key:"metadata"`
}

// GetName returns the unique name of the state.
func (b *BaseState) GetName() string {
	return b.Name
}

// IsEnd reports whether the workflow ends after this state.
func (b *BaseState) IsEnd() bool {
	if b.End == nil {
		return false
	}
	if b.End.IsRight() {
		return b.End.RightValue()
	}
	return b.End.IsLeft()
}

// EventState waits for one or more events and then performs actions.
type EventState struct {
	BaseState
	// Exclusive requires only one of the defined events to arrive. Defaults to true.
	Exclusive *bool               `key:"exclusive"`
	OnEvents  []OnEvents          `key:"onEvents"`
	Timeouts  *EventStateTimeouts `key:"timeouts"`
}

func (s *EventState) DiscriminatorValue() string { return string(StateTypeEvent) }

// OnEvents binds a set of events to the actions performed when they arrive.
type OnEvents struct {
	EventRefs       []string         `key:"eventRefs"`
	ActionMode      ActionMode       `key:"actionMode"`
	Actions         []Action         `key:"actions"`
	EventDataFilter *EventDataFilter `key:"eventDataFilter"`
}

// EventStateTimeouts configures the timeouts of an event state.
type EventStateTimeouts struct {
	StateExecTimeout  *values.OneOf[StateExecTimeout, string] `key:"stateExecTimeout"`
	ActionExecTimeout string                                  `key:"actionExecTimeout"`
	EventTimeout      string                                  `key:"eventTimeout"`
}

// ActionMode decides whether a list of actions runs in order or at once.
type ActionMode string

const (
	ActionModeSequential ActionMode = "sequential"
	ActionModeParallel   ActionMode = "parallel"
)

// OperationState performs a list of actions.
type OperationState struct {
	BaseState
	// ActionMode defaults to sequential.
	ActionMode ActionMode `key:"actionMode"`
	Actions    []Action   `key:"actions"`
}

func (s *OperationState) DiscriminatorValue() string { return string(StateTypeOperation) }

// SwitchState transitions to other states based on data or event conditions.
// Exactly one of DataConditions or EventConditions is expected.
type SwitchState struct {
	BaseState
	DataConditions   []DataCondition             `key:"dataConditions"`
	EventConditions  []EventCondition            `key:"eventConditions"`
	DefaultCondition *DefaultConditionDefinition `key:"defaultCondition"`
}

func (s *SwitchState) DiscriminatorValue() string { return string(StateTypeSwitch) }

// DataCondition is a switch branch selected by an expression evaluated against state data.
type DataCondition struct {
	Name       string                                      `key:"name"`
	Condition  string                                      `key:"condition"`
	Transition *values.OneOf[TransitionDefinition, string] `key:"transition"`
	End        *values.OneOf[EndDefinition, bool]          `key:"end"`
	Metadata   map[string]string                           `key:"metadata"`
}

// EventCondition is a switch branch selected by the arrival of an event.
type EventCondition struct {
	Name            string                                      `key:"name"`
	EventRef        string                                      `key:"eventRef"`
	Transition      *values.OneOf[TransitionDefinition, string] `key:"transition"`
	End             *values.OneOf[EndDefinition, bool]          `key:"end"`
	EventDataFilter *EventDataFilter                            `key:"eventDataFilter"`
	Metadata        map[string]string                           `key:"metadata"`
}

// DefaultConditionDefinition is taken when no switch condition matches.
type DefaultConditionDefinition struct {
	Transition *values.OneOf[TransitionDefinition, string] `key:"transition"`
	End        *values.OneOf[EndDefinition, bool]          `key:"end"`
}

// SleepState suspends the workflow for a duration.
type SleepState struct {
	BaseState
	// Duration is an ISO 8601 duration.
	Duration string `key:"duration"`
}

func (s *SleepState) DiscriminatorValue() string { return string(StateTypeSleep) }

// CompletionType decides when a parallel state is complete.
type CompletionType string

const (
	CompletionTypeAllOf   CompletionType = "allOf"
	CompletionTypeAtLeast CompletionType = "atLeast"
)

// ParallelState runs branches concurrently.
type ParallelState struct {
	BaseState
	Branches []Branch `key:"branches"`
	// CompletionType defaults to allOf.
	CompletionType CompletionType `key:"completionType"`
	// NumCompleted is the number of branches that must complete when CompletionType is atLeast.
	NumCompleted *values.OneOf[int, string] `key:"numCompleted"`
}

func (s *ParallelState) DiscriminatorValue() string { return string(StateTypeParallel) }

// Branch is one set of actions of a parallel state.
type Branch struct {
	Name       string     `key:"name"`
	Actions    []Action   `key:"actions"`
	ActionMode ActionMode `key:"actionMode"`
}

// InjectState merges static data into the state data.
type InjectState struct {
	BaseState
	Data values.Object `key:"data"`
}

func (s *InjectState) DiscriminatorValue() string { return string(StateTypeInject) }

// ForEachState runs actions for every element of a collection in the state data.
type ForEachState struct {
	BaseState
	InputCollection  string                     `key:"inputCollection"`
	OutputCollection string                     `key:"outputCollection"`
	IterationParam   string                     `key:"iterationParam"`
	BatchSize        *values.OneOf[int, string] `key:"batchSize"`
	Actions          []Action                   `key:"actions"`
	// Mode defaults to parallel.
	Mode ActionMode `key:"mode"`
}

func (s *ForEachState) DiscriminatorValue() string { return string(StateTypeForEach) }

// CallbackState performs an action and waits for an event signalling its completion.
type CallbackState struct {
	BaseState
	Action          Action           `key:"action"`
	EventRef        string           `key:"eventRef"`
	EventDataFilter *EventDataFilter `key:"eventDataFilter"`
}

func (s *CallbackState) DiscriminatorValue() string { return string(StateTypeCallback) }

// ExtensionState holds a state whose type is not one of the StateType constants. It is only produced
// when decoding routes unknown types to extensions, and re-encodes exactly as it was read.
type ExtensionState struct {
	Type string
	Name string
	// Raw is the full state object as it appeared in the document.
	Raw *yaml.Node
}

var _ discriminator.ExtensionVariant = (*ExtensionState)(nil)

func (s *ExtensionState) DiscriminatorValue() string         { return s.Type }
func (s *ExtensionState) SetDiscriminatorValue(value string) { s.Type = value }
func (s *ExtensionState) GetName() string                    { return s.Name }

func (s *ExtensionState) UnmarshalNode(_ context.Context, node *yaml.Node) error {
	node = yml.ResolveAlias(node)
	if node.Kind != yaml.MappingNode {
		return &marshaller.TypeMismatchError{Expected: "object", Got: yml.NodeKindToString(node.Kind), Line: node.Line, Column: node.Column}
	}

	s.Raw = node
	if _, name, ok := yml.GetMapElementNodes(node, "name"); ok {
		s.Name = name.Value
	}
	if _, typ, ok := yml.GetMapElementNodesFold(node, "type"); ok {
		s.Type = typ.Value
	}

	return nil
}

// MarshalNode returns a copy of the raw object without its type, which is written by the caller.
func (s *ExtensionState) MarshalNode(_ context.Context) (*yaml.Node, error) {
	out := yml.CreateMapNode()
	if s.Raw == nil {
		if s.Name != "" {
			out.Content = append(out.Content, yml.CreateStringNode("name"), yml.CreateStringNode(s.Name))
		}
		return out, nil
	}

	for i := 0; i+1 < len(s.Raw.Content); i += 2 {
		if strings.EqualFold(s.Raw.Content[i].Value, "type") {
			continue
		}
		out.Content = append(out.Content, s.Raw.Content[i], s.Raw.Content[i+1])
	}

	return out, nil
}
