package form

import (
	"go.uber.org/zap"

	"github.com/theflupke/formcheck/pkg/messages"
	"github.com/theflupke/formcheck/pkg/registry"
)

// Default discovery selectors. Fields selects candidate controls; Filter
// excludes the non-data-bearing input types even when Fields matches them.
const (
	DefaultFieldsSelector = "input, select, textarea"
	DefaultFilterSelector = "input[type=button], input[type=submit], input[type=reset], input[type=image]"
)

type config struct {
	fieldsSelector string
	filterSelector string
	labelPrefix    string
	catalog        messages.Catalog
	bundle         *messages.Bundle
	validatorOpts  map[string]registry.Options
	onValidate     func(*Report)
	onInvalidate   func(*Report)
	registry       *registry.Registry
	logger         *zap.Logger
	debug          bool
}

func defaultConfig() config {
	return config{
		fieldsSelector: DefaultFieldsSelector,
		filterSelector: DefaultFilterSelector,
		labelPrefix:    messages.DefaultAttrPrefix,
		registry:       registry.Default(),
		logger:         zap.NewNop(),
	}
}

// Option customises a form Validator.
type Option func(*config)

// WithFieldsSelector overrides which descendant elements are candidate
// fields.
func WithFieldsSelector(selector string) Option {
	return func(c *config) {
		if selector != "" {
			c.fieldsSelector = selector
		}
	}
}

// WithFilterSelector overrides the exclusion selector applied after field
// discovery.
func WithFilterSelector(selector string) Option {
	return func(c *config) {
		c.filterSelector = selector
	}
}

// WithErrorLabelPrefix overrides the attribute prefix used for inline
// per-field message overrides.
func WithErrorLabelPrefix(prefix string) Option {
	return func(c *config) {
		if prefix != "" {
			c.labelPrefix = prefix
		}
	}
}

// WithErrorMessages sets the global message catalog, including its "default"
// fallback entry.
func WithErrorMessages(catalog messages.Catalog) Option {
	return func(c *config) {
		c.catalog = catalog
	}
}

// WithMessageBundle supplies locale catalogs consulted by
// Field.ErrorMessages when a locale is requested.
func WithMessageBundle(bundle *messages.Bundle) Option {
	return func(c *config) {
		c.bundle = bundle
	}
}

// WithValidatorOptions forwards per-validator configuration, keyed by
// validator name, verbatim to that validator on every call.
func WithValidatorOptions(name string, opts registry.Options) Option {
	return func(c *config) {
		if c.validatorOpts == nil {
			c.validatorOpts = make(map[string]registry.Options)
		}
		c.validatorOpts[name] = opts
	}
}

// OnValidate registers a callback fired once per top-level Validate call that
// finds every field valid.
func OnValidate(fn func(*Report)) Option {
	return func(c *config) {
		c.onValidate = fn
	}
}

// OnInvalidate registers a callback fired once per top-level Validate call
// that finds at least one invalid field.
func OnInvalidate(fn func(*Report)) Option {
	return func(c *config) {
		c.onInvalidate = fn
	}
}

// WithRegistry overrides the process-wide validator registry for this form.
func WithRegistry(r *registry.Registry) Option {
	return func(c *config) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger installs a logger for debug output. The default is a no-op
// logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables debug logging of internal validator failures.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.debug = debug
	}
}
