package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the option tree of an application.
// Options are populated from defaults, the config file, the environment and flags
// (in increasing precedence), then completed and validated before RunFunc runs.
type NamedFlagSetOptions interface {
	// Flags returns the flag sets, grouped by section for the help output.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields derived from other fields.
	Complete() error

	// Validate returns an aggregate of every configuration problem.
	Validate() error
}
