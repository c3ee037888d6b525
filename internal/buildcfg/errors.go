package buildcfg

import "fmt"

// ConfigurationError reports an environment override that is present but
// malformed. Only absence triggers a default; a present-but-invalid value is
// never silently substituted.
type ConfigurationError struct {
	Var    string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s value %q (%s): expected an integer between 0 and 65535", e.Var, e.Value, e.Reason)
}
