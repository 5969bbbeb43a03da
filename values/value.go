package values

import "gopkg.in/yaml.v3"

// Value represents a raw, free-form value in a workflow document such as injected state data
// or a function argument. It is kept as a node so key order survives a round trip.
type Value = *yaml.Node
