package workflow

import (
	"github.com/speakeasy-api/serverlessworkflow/discriminator"
)

func init() {
	u := discriminator.DefaultUniverse()
	Declare(u)
	if err := u.Validate(); err != nil {
		panic(err)
	}
}

// Declare registers the workflow's abstract types and their variants in u.
// It runs against the default universe at init; call it to populate a universe built with
// discriminator.NewUniverse.
func Declare(u *discriminator.Universe) {
	discriminator.Declare[State](u, "type",
		discriminator.Variant(string(StateTypeEvent), func() *EventState { return &EventState{} }),
		discriminator.Variant(string(StateTypeOperation), func() *OperationState { return &OperationState{} }),
		discriminator.Variant(string(StateTypeSwitch), func() *SwitchState { return &SwitchState{} }),
		discriminator.Variant(string(StateTypeSleep), func() *SleepState { return &SleepState{} }),
		discriminator.Variant(string(StateTypeParallel), func() *ParallelState { return &ParallelState{} }),
		discriminator.Variant(string(StateTypeInject), func() *InjectState { return &InjectState{} }),
		discriminator.Variant(string(StateTypeForEach), func() *ForEachState { return &ForEachState{} }),
		discriminator.Variant(string(StateTypeCallback), func() *CallbackState { return &CallbackState{} }),
	)
	discriminator.DeclareExtension[State](u, func() *ExtensionState { return &ExtensionState{} })

	discriminator.Declare[AuthenticationDefinition](u, "scheme",
		discriminator.DefaultVariant(AuthSchemeBasic, func() *BasicAuthDefinition { return &BasicAuthDefinition{} }),
		discriminator.Variant(AuthSchemeBearer, func() *BearerAuthDefinition { return &BearerAuthDefinition{} }),
		discriminator.Variant(AuthSchemeOAuth2, func() *OAuth2AuthDefinition { return &OAuth2AuthDefinition{} }),
	)
}
