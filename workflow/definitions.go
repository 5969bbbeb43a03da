package workflow

import (
	"github.com/speakeasy-api/serverlessworkflow/discriminator"
	"github.com/speakeasy-api/serverlessworkflow/values"
)

// EventKind is the direction of an event relative to the workflow.
type EventKind string

const (
	EventKindConsumed EventKind = "consumed"
	EventKindProduced EventKind = "produced"
)

// EventDefinition describes a CloudEvent the workflow consumes or produces.
type EventDefinition struct {
	Name   string `key:"name"`
	Source string `key:"source"`
	Type   string `key:"type"`
	// Kind defaults to consumed.
	Kind        EventKind               `key:"kind"`
	Correlation []CorrelationDefinition `key:"correlation"`
	// DataOnly restricts event expressions to the event payload. Defaults to true.
	DataOnly *bool             `key:"dataOnly"`
	Metadata map[string]string `key:"metadata"`
}

// CorrelationDefinition correlates events to workflow instances by a CloudEvent context attribute.
type CorrelationDefinition struct {
	ContextAttributeName  string `key:"contextAttributeName"`
	ContextAttributeValue string `key:"contextAttributeValue"`
}

// FunctionType identifies how a function's operation is interpreted.
type FunctionType string

const (
	FunctionTypeREST       FunctionType = "rest"
	FunctionTypeAsyncAPI   FunctionType = "asyncapi"
	FunctionTypeRPC        FunctionType = "rpc"
	FunctionTypeGraphQL    FunctionType = "graphql"
	FunctionTypeOData      FunctionType = "odata"
	FunctionTypeExpression FunctionType = "expression"
	FunctionTypeCustom     FunctionType = "custom"
)

// FunctionDefinition describes a service operation or expression the workflow can invoke.
type FunctionDefinition struct {
	Name string `key:"name"`
	// Operation locates the operation, for example an OpenAPI document URI followed by #operationId.
	Operation string `key:"operation"`
	// Type defaults to rest.
	Type FunctionType `key:"type"`
	// AuthRef names the AuthenticationDefinition used when invoking the function.
	AuthRef  string            `key:"authRef"`
	Metadata map[string]string `key:"metadata"`
}

// RetryDefinition is a named retry strategy.
type RetryDefinition struct {
	Name string `key:"name"`
	// Delay is the ISO 8601 duration to wait before the first retry.
	Delay    string `key:"delay"`
	MaxDelay string `key:"maxDelay"`
	// Increment is added to the delay after each attempt.
	Increment   string                         `key:"increment"`
	Multiplier  *values.OneOf[float64, string] `key:"multiplier"`
	MaxAttempts *values.OneOf[int, string]     `key:"maxAttempts"`
	Jitter      *values.OneOf[float64, string] `key:"jitter"`
}

// AuthenticationDefinition is implemented by every authentication scheme a workflow can define.
// The scheme is written to and read from the "scheme" property; an absent scheme selects basic.
type AuthenticationDefinition interface {
	discriminator.Discriminated
	// GetName returns the unique name functions reference the definition by.
	GetName() string
}

const (
	AuthSchemeBasic  = "basic"
	AuthSchemeBearer = "bearer"
	AuthSchemeOAuth2 = "oauth2"
)

// BasicAuthDefinition authenticates with a username and password.
type BasicAuthDefinition struct {
	Name string `key:"name"`
	// Properties holds the credentials or the name of a secret containing them.
	Properties *values.OneOf[BasicAuthProperties, string] `key:"properties"`
}

var _ AuthenticationDefinition = (*BasicAuthDefinition)(nil)

func (a *BasicAuthDefinition) DiscriminatorValue() string { return AuthSchemeBasic }
func (a *BasicAuthDefinition) GetName() string            { return a.Name }

// BasicAuthProperties are the credentials of a basic authentication scheme.
type BasicAuthProperties struct {
	Username string            `key:"username" required:"true"`
	Password string            `key:"password" required:"true"`
	Metadata map[string]string `key:"metadata"`
}

// BearerAuthDefinition authenticates with a bearer token.
type BearerAuthDefinition struct {
	Name       string                                      `key:"name"`
	Properties *values.OneOf[BearerAuthProperties, string] `key:"properties"`
}

var _ AuthenticationDefinition = (*BearerAuthDefinition)(nil)

func (a *BearerAuthDefinition) DiscriminatorValue() string { return AuthSchemeBearer }
func (a *BearerAuthDefinition) GetName() string            { return a.Name }

// BearerAuthProperties holds a bearer token.
type BearerAuthProperties struct {
	Token    string            `key:"token" required:"true"`
	Metadata map[string]string `key:"metadata"`
}

// OAuth2AuthDefinition authenticates through an OAuth2 authorization server.
type OAuth2AuthDefinition struct {
	Name       string                                      `key:"name"`
	Properties *values.OneOf[OAuth2AuthProperties, string] `key:"properties"`
}

var _ AuthenticationDefinition = (*OAuth2AuthDefinition)(nil)

func (a *OAuth2AuthDefinition) DiscriminatorValue() string { return AuthSchemeOAuth2 }
func (a *OAuth2AuthDefinition) GetName() string            { return a.Name }

// GrantType is an OAuth2 grant type.
type GrantType string

const (
	GrantTypePassword          GrantType = "password"
	GrantTypeClientCredentials GrantType = "clientCredentials"
	GrantTypeTokenExchange     GrantType = "tokenExchange"
)

// OAuth2AuthProperties configures an OAuth2 token request.
type OAuth2AuthProperties struct {
	Authority        string            `key:"authority"`
	GrantType        GrantType         `key:"grantType" required:"true"`
	ClientID         string            `key:"clientId" required:"true"`
	ClientSecret     string            `key:"clientSecret"`
	Scopes           []string          `key:"scopes"`
	Username         string            `key:"username"`
	Password         string            `key:"password"`
	Audiences        []string          `key:"audiences"`
	SubjectToken     string            `key:"subjectToken"`
	RequestedSubject string            `key:"requestedSubject"`
	RequestedIssuer  string            `key:"requestedIssuer"`
	Metadata         map[string]string `key:"metadata"`
}
