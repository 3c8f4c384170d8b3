package conf

import "github.com/clinpipe/clinpipe/errors"

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	// Workers: 0 = use engine default, negative = invalid
	if c.Pipeline.Workers < 0 {
		return errors.Newf("pipeline.workers must be >= 0, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.DocWorkers < 0 {
		return errors.Newf("pipeline.doc_workers must be >= 0, got %d", c.Pipeline.DocWorkers)
	}

	// Timeouts: 0 = disabled, negative = invalid
	if c.Pipeline.OpTimeoutSeconds < 0 {
		return errors.Newf("pipeline.op_timeout_seconds must be >= 0, got %d", c.Pipeline.OpTimeoutSeconds)
	}
	if c.Pipeline.RunTimeoutSeconds < 0 {
		return errors.Newf("pipeline.run_timeout_seconds must be >= 0, got %d", c.Pipeline.RunTimeoutSeconds)
	}

	// Rate limit: 0 = unlimited, negative = invalid
	if c.Pipeline.RatePerSecond < 0 {
		return errors.Newf("pipeline.rate_per_second must be >= 0, got %f", c.Pipeline.RatePerSecond)
	}
	if c.Pipeline.RateBurst < 0 {
		return errors.Newf("pipeline.rate_burst must be >= 0, got %d", c.Pipeline.RateBurst)
	}

	if c.Pipeline.DeterministicIDs && c.Pipeline.IDNamespace == "" {
		return errors.New("pipeline.id_namespace cannot be empty when deterministic_ids is enabled")
	}

	return nil
}
