package options

// ConfigError reports an invalid sink or destination option set. It is
// fatal: a merge or transport initialization that returns it leaves no
// partial state behind.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid sink configuration: " + e.Reason
}
