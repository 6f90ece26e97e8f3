package pattern

import "embed"

// builtinFS embeds the curated security pattern catalogue. Any caller
// catalogue is accepted equivalently; these are configuration data, not
// part of the engine contract.
//
//go:embed patterns/*.yml
var builtinFS embed.FS
