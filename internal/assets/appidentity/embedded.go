package appidentityassets

import _ "embed"

// YAML is the embedded application identity. Registering it at init time
// gives copied-out-of-repo binaries the same identity (binary name, env
// prefix, config name) as in-repo runs.
//
//go:embed app.yaml
var YAML []byte
