package jsonschema

import (
	"bytes"
	"fmt"

	jsValidator "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/json"
)

// ErrNotSelfContained is returned when a bundle still needs a document from outside itself.
const ErrNotSelfContained = errors.Error("bundle is not self-contained")

type offlineLoader struct{}

func (offlineLoader) Load(url string) (any, error) {
	return nil, ErrNotSelfContained.Wrap(fmt.Errorf("attempted to load %s", url))
}

// VerifySelfContained compiles the bundle with every external load refused, proving that all of its
// references resolve to documents embedded in it.
func VerifySelfContained(bundle *BundledSchema) error {
	if bundle == nil || bundle.Schema == nil {
		return errors.New("bundle is required")
	}

	buf := bytes.NewBuffer([]byte{})
	if err := json.YAMLToJSON(bundle.Schema, 0, buf); err != nil {
		return fmt.Errorf("bundle is not valid json: %w", err)
	}

	doc, err := jsValidator.UnmarshalJSON(buf)
	if err != nil {
		return fmt.Errorf("bundle is not valid json: %w", err)
	}

	c := jsValidator.NewCompiler()
	c.DefaultDraft(jsValidator.Draft2020)
	c.UseLoader(offlineLoader{})

	if err := c.AddResource(bundle.ID, doc); err != nil {
		return fmt.Errorf("failed to add bundle %s: %w", bundle.ID, err)
	}

	if _, err := c.Compile(bundle.ID); err != nil {
		if errors.Is(err, ErrNotSelfContained) {
			return err
		}
		return ErrNotSelfContained.Wrap(err)
	}

	return nil
}
