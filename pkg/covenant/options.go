package covenant

import (
	"github.com/Mindburn-Labs/covenant/pkg/audit"
	"github.com/Mindburn-Labs/covenant/pkg/config"
)

// operationConfig carries the optional knobs shared by Verify, Countersign,
// and Deserialize: the numeric ceilings to enforce and where to send an
// audit record of the operation. Verify and Deserialize enforce the limits;
// Countersign does not read them. Verify and Countersign record an audit
// event; Deserialize records none.
type operationConfig struct {
	limits config.Limits
	logger audit.Logger
}

func defaultOperationConfig() operationConfig {
	return operationConfig{
		limits: config.Limits{
			MaxDocumentBytes: MaxDocumentBytes,
			MaxConstraints:   MaxConstraints,
			MaxChainDepth:    MaxChainDepth,
		},
		logger: audit.NopLogger{},
	}
}

// Option configures an optional parameter of a covenant operation.
type Option func(*operationConfig)

// WithLimits overrides the numeric ceilings an operation enforces. Absent
// this option, an operation uses the package's default limits (sourced from
// config.DefaultLimits()).
func WithLimits(limits config.Limits) Option {
	return func(c *operationConfig) { c.limits = limits }
}

// WithLogger directs Verify or Countersign to record an audit.Event on
// completion; Deserialize accepts the option but records nothing. A nil
// logger is ignored, so passing a possibly-nil value is safe.
func WithLogger(logger audit.Logger) Option {
	return func(c *operationConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
