package workflow_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/speakeasy-api/serverlessworkflow/discriminator"
	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/workflow"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapStates(states ...string) string {
	return `{"id":"wf","specVersion":"0.8","start":"s","states":[` + strings.Join(states, ",") + `]}`
}

func marshalJSON(t *testing.T, ctx context.Context, wf *workflow.WorkflowDefinition) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, workflow.Marshal(ctx, wf, &buf, yml.OutputFormatJSON))
	return buf.String()
}

func TestDeclare_ValidUniverse(t *testing.T) {
	t.Parallel()

	u := discriminator.NewUniverse()
	workflow.Declare(u)
	require.NoError(t, u.Validate())
	require.NoError(t, discriminator.DefaultUniverse().Validate())
}

func TestWorkflow_RoundTrip_StateTypes_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		state    string
		expected any
	}{
		{
			name:     "event",
			state:    `{"type":"event","name":"s","exclusive":true,"onEvents":[{"eventRefs":["order"],"actions":[{"functionRef":"f"}],"eventDataFilter":{"toStateData":"${ .order }"}}],"timeouts":{"eventTimeout":"PT1M"},"end":true}`,
			expected: &workflow.EventState{},
		},
		{
			name:     "operation",
			state:    `{"type":"operation","name":"s","actionMode":"parallel","actions":[{"name":"a","functionRef":{"refName":"f","arguments":{"z":1,"a":"x"}},"retryRef":"r"}],"transition":"next"}`,
			expected: &workflow.OperationState{},
		},
		{
			name:     "switch",
			state:    `{"type":"switch","name":"s","dataConditions":[{"condition":"${ .ok }","transition":{"nextState":"yes","produceEvents":[{"eventRef":"e","data":{"k":"v"}}]}}],"defaultCondition":{"end":{"terminate":true}}}`,
			expected: &workflow.SwitchState{},
		},
		{
			name:     "sleep",
			state:    `{"type":"sleep","name":"s","duration":"PT5S","end":true}`,
			expected: &workflow.SleepState{},
		},
		{
			name:     "parallel",
			state:    `{"type":"parallel","name":"s","branches":[{"name":"b1","actions":[{"subFlowRef":"child"}]},{"name":"b2","actions":[{"subFlowRef":{"workflowId":"child","version":"1.0"}}]}],"completionType":"atLeast","numCompleted":1,"end":true}`,
			expected: &workflow.ParallelState{},
		},
		{
			name:     "inject",
			state:    `{"type":"inject","name":"s","data":{"greeting":"hello","nested":{"list":[1,2.5,null,true]}},"end":true}`,
			expected: &workflow.InjectState{},
		},
		{
			name:     "foreach",
			state:    `{"type":"foreach","name":"s","inputCollection":"${ .items }","iterationParam":"item","batchSize":"${ .size }","actions":[{"sleep":{"before":"PT1S"},"functionRef":"f"}],"end":true}`,
			expected: &workflow.ForEachState{},
		},
		{
			name:     "callback",
			state:    `{"type":"callback","name":"s","action":{"eventRef":{"produceEventRef":"req","consumeEventRef":"res","data":"${ .payload }"}},"eventRef":"done","end":true}`,
			expected: &workflow.CallbackState{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			doc := wrapStates(tt.state)
			wf, err := workflow.Unmarshal(ctx, strings.NewReader(doc), workflow.WithSkipExternalDefinitions())
			require.NoError(t, err)
			require.Len(t, wf.States, 1)
			assert.IsType(t, tt.expected, wf.States[0])
			assert.Equal(t, "s", wf.States[0].GetName())

			assert.JSONEq(t, doc, marshalJSON(t, ctx, wf))
		})
	}
}

func TestWorkflow_Unmarshal_UnionArms_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	doc := `{
		"id": "wf",
		"start": {"stateName": "s", "schedule": {"cron": "0 * * * *"}},
		"timeouts": {"workflowExecTimeout": "PT1H"},
		"retries": [{"name": "r", "maxAttempts": 3, "multiplier": 1.5, "jitter": "PT0.1S"}],
		"states": [{"type": "sleep", "name": "s", "duration": "PT1S", "end": {"continueAs": "next"}}]
	}`

	wf, err := workflow.Unmarshal(ctx, strings.NewReader(doc), workflow.WithSkipExternalDefinitions())
	require.NoError(t, err)

	require.True(t, wf.Start.IsLeft())
	assert.Equal(t, "s", wf.Start.LeftValue().StateName)
	assert.Equal(t, "0 * * * *", wf.Start.LeftValue().Schedule.LeftValue().Cron.RightValue())

	require.True(t, wf.Timeouts.IsLeft())
	assert.Equal(t, "PT1H", wf.Timeouts.LeftValue().WorkflowExecTimeout.RightValue())

	retry := wf.Retries.LeftValue()[0]
	assert.Equal(t, 3, retry.MaxAttempts.LeftValue())
	assert.InDelta(t, 1.5, retry.Multiplier.LeftValue(), 0)
	assert.Equal(t, "PT0.1S", retry.Jitter.RightValue())

	sleep, ok := wf.States[0].(*workflow.SleepState)
	require.True(t, ok)
	assert.True(t, sleep.IsEnd())
	assert.Equal(t, "next", sleep.End.LeftValue().ContinueAs.RightValue())

	assert.JSONEq(t, doc, marshalJSON(t, ctx, wf))
}

func TestWorkflow_Unmarshal_UnknownStateType_Error(t *testing.T) {
	t.Parallel()

	_, err := workflow.Unmarshal(context.Background(), strings.NewReader(wrapStates(`{"type":"teleport","name":"s"}`)), workflow.WithSkipExternalDefinitions())
	require.Error(t, err)

	var unknown *errors.UnknownDiscriminatorError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "teleport", unknown.Value)
	assert.Equal(t, "type", unknown.Property)
	assert.Equal(t, []string{"callback", "event", "foreach", "inject", "operation", "parallel", "sleep", "switch"}, unknown.Accepted)
}

func TestWorkflow_Unmarshal_MissingStateType_Error(t *testing.T) {
	t.Parallel()

	_, err := workflow.Unmarshal(context.Background(), strings.NewReader(wrapStates(`{"name":"s","duration":"PT1S"}`)), workflow.WithSkipExternalDefinitions())

	var unknown *errors.UnknownDiscriminatorError
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, unknown.Value)
}

func TestWorkflow_Unmarshal_StateTypeCaseInsensitive_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	wf, err := workflow.Unmarshal(ctx, strings.NewReader(wrapStates(`{"Type":"SLEEP","name":"s","duration":"PT1S","end":true}`)), workflow.WithSkipExternalDefinitions())
	require.NoError(t, err)
	require.IsType(t, &workflow.SleepState{}, wf.States[0])

	assert.JSONEq(t, wrapStates(`{"type":"sleep","name":"s","duration":"PT1S","end":true}`), marshalJSON(t, ctx, wf))
}

func TestWorkflow_Unmarshal_ExtensionState_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache := discriminator.NewCache(discriminator.DefaultUniverse(), discriminator.WithUnknownValuePolicy(discriminator.RouteUnknownToExtension))
	ctx = discriminator.ContextWithCache(ctx, cache)

	state := `{"type":"teleport","name":"s","destination":{"planet":"mars"},"end":true}`
	doc := wrapStates(state, `{"type":"sleep","name":"t","duration":"PT1S","end":true}`)

	wf, err := workflow.Unmarshal(ctx, strings.NewReader(doc), workflow.WithSkipExternalDefinitions(), workflow.WithBindingCache(cache))
	require.NoError(t, err)

	ext, ok := wf.States[0].(*workflow.ExtensionState)
	require.True(t, ok)
	assert.Equal(t, "teleport", ext.DiscriminatorValue())
	assert.Equal(t, "s", ext.GetName())
	assert.IsType(t, &workflow.SleepState{}, wf.States[1])
	assert.Equal(t, ext, wf.States.Find("s"))

	assert.JSONEq(t, doc, marshalJSON(t, ctx, wf))
}

func TestWorkflow_Unmarshal_AuthSchemes_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	doc := `{
		"id": "wf",
		"auth": [
			{"name": "implicit", "properties": {"username": "u", "password": "p"}},
			{"name": "token", "scheme": "bearer", "properties": {"token": "${ .secrets.token }"}},
			{"name": "idp", "scheme": "oauth2", "properties": {"grantType": "clientCredentials", "clientId": "c", "scopes": ["a", "b"]}},
			{"name": "vault", "scheme": "basic", "properties": "basicSecret"}
		],
		"states": [{"type": "sleep", "name": "s", "duration": "PT1S", "end": true}]
	}`

	wf, err := workflow.Unmarshal(ctx, strings.NewReader(doc), workflow.WithSkipExternalDefinitions())
	require.NoError(t, err)

	auth := wf.Auth.LeftValue()
	require.Len(t, auth, 4)
	assert.IsType(t, &workflow.BasicAuthDefinition{}, auth[0])
	assert.IsType(t, &workflow.BearerAuthDefinition{}, auth[1])
	assert.IsType(t, &workflow.OAuth2AuthDefinition{}, auth[2])
	assert.Equal(t, "basicSecret", auth[3].(*workflow.BasicAuthDefinition).Properties.RightValue())

	// The default scheme is written explicitly.
	expected := strings.Replace(doc, `{"name": "implicit",`, `{"scheme": "basic", "name": "implicit",`, 1)
	assert.JSONEq(t, expected, marshalJSON(t, ctx, wf))
}

func TestWorkflow_Unmarshal_JSONAndYAML_Equal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	jsonDoc := `{
		"id": "greeting",
		"version": "1.0",
		"specVersion": "0.8",
		"start": "Greet",
		"constants": {"greeting": "Hello"},
		"functions": [{"name": "greetFunction", "operation": "file://myapis/greetingapis.json#greeting"}],
		"states": [
			{
				"name": "Greet",
				"type": "operation",
				"actions": [{"functionRef": {"refName": "greetFunction", "arguments": {"name": "${ .person.name }"}}}],
				"end": true
			}
		]
	}`

	yamlDoc := `
id: greeting
version: "1.0"
specVersion: "0.8"
start: Greet
constants:
  greeting: Hello
functions:
  - name: greetFunction
    operation: file://myapis/greetingapis.json#greeting
states:
  - name: Greet
    type: operation
    actions:
      - functionRef:
          refName: greetFunction
          arguments:
            name: ${ .person.name }
    end: true
`

	fromJSON, err := workflow.Unmarshal(ctx, strings.NewReader(jsonDoc), workflow.WithSkipExternalDefinitions())
	require.NoError(t, err)
	fromYAML, err := workflow.Unmarshal(ctx, strings.NewReader(yamlDoc), workflow.WithSkipExternalDefinitions())
	require.NoError(t, err)

	assert.Equal(t, fromJSON.ID, fromYAML.ID)
	assert.Equal(t, fromJSON.Functions.LeftValue(), fromYAML.Functions.LeftValue())
	assert.JSONEq(t, marshalJSON(t, ctx, fromJSON), marshalJSON(t, ctx, fromYAML))
}

func TestWorkflow_Marshal_YAML_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	wf, err := workflow.Unmarshal(ctx, strings.NewReader(wrapStates(`{"type":"sleep","name":"s","duration":"PT1S","end":true}`)), workflow.WithSkipExternalDefinitions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, workflow.Marshal(ctx, wf, &buf, yml.OutputFormatYAML))

	assert.Equal(t, `id: wf
specVersion: "0.8"
start: s
states:
  - type: sleep
    name: s
    end: true
    duration: PT1S
`, buf.String())

	again, err := workflow.Unmarshal(ctx, &buf, workflow.WithSkipExternalDefinitions())
	require.NoError(t, err)
	assert.Equal(t, "PT1S", again.States[0].(*workflow.SleepState).Duration)
}

func TestWorkflow_Marshal_FormatFromConfig_Success(t *testing.T) {
	t.Parallel()

	cfg := yml.GetDefaultConfig()
	cfg.OutputFormat = yml.OutputFormatJSON
	cfg.Indentation = 0
	ctx := yml.ContextWithConfig(context.Background(), cfg)

	wf := &workflow.WorkflowDefinition{
		ID: "wf",
		States: workflow.States{
			&workflow.SleepState{BaseState: workflow.BaseState{Name: "s"}, Duration: "PT1S"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, workflow.Marshal(ctx, wf, &buf, ""))
	assert.Equal(t, `{"id":"wf","states":[{"type":"sleep","name":"s","duration":"PT1S"}]}`+"\n", buf.String())
}

func TestWorkflow_Unmarshal_IncompleteDocument_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "no states", doc: `{"id":"wf"}`},
		{name: "sleep without duration", doc: wrapStates(`{"type":"sleep","name":"s"}`)},
		{name: "state without name", doc: wrapStates(`{"type":"sleep","duration":"PT1S"}`)},
		{name: "retry without maxAttempts", doc: `{"id":"wf","retries":[{"name":"r"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wf, err := workflow.Unmarshal(context.Background(), strings.NewReader(tt.doc), workflow.WithSkipExternalDefinitions())
			require.NoError(t, err)
			assert.NotNil(t, wf)
		})
	}
}

func TestWorkflow_Unmarshal_UnknownKeys_JSONAndYAMLEqual(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fromJSON, err := workflow.Unmarshal(ctx, strings.NewReader(`{"a":1,"b":2}`), workflow.WithSkipExternalDefinitions())
	require.NoError(t, err)

	fromYAML, err := workflow.Unmarshal(ctx, strings.NewReader("a: 1\nb: 2"), workflow.WithSkipExternalDefinitions())
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	assert.Equal(t, &workflow.WorkflowDefinition{}, fromJSON)
}

func TestWorkflow_Unmarshal_UnionArmMissingProperty_Error(t *testing.T) {
	t.Parallel()

	_, err := workflow.Unmarshal(context.Background(), strings.NewReader(wrapStates(`{"type":"sleep","name":"s","duration":"PT1S","transition":{}}`)), workflow.WithSkipExternalDefinitions())

	var decodeErr *errors.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "workflow.TransitionDefinition", decodeErr.Left)
}

func TestWorkflow_Unmarshal_InvalidUnion_Error(t *testing.T) {
	t.Parallel()

	_, err := workflow.Unmarshal(context.Background(), strings.NewReader(wrapStates(`{"type":"sleep","name":"s","duration":"PT1S","end":["x"]}`)), workflow.WithSkipExternalDefinitions())

	var decodeErr *errors.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "workflow.EndDefinition", decodeErr.Left)
	assert.Equal(t, "bool", decodeErr.Right)
}
