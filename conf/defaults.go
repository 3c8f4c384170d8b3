package conf

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	// Pipeline engine defaults
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.doc_workers", 2)
	v.SetDefault("pipeline.op_timeout_seconds", 60)
	v.SetDefault("pipeline.run_timeout_seconds", 1800)
	v.SetDefault("pipeline.rate_per_second", 0.0) // unlimited
	v.SetDefault("pipeline.rate_burst", 1)
	v.SetDefault("pipeline.deterministic_ids", false)
	v.SetDefault("pipeline.id_namespace", "clinpipe")

	// Provenance store defaults
	v.SetDefault("provenance.path", "clinpipe-prov.db")

	// Logging defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "everforest")
}

// BindEnvVars explicitly binds configuration that is commonly set per
// deployment to environment variables.
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("provenance.path", "CLINPIPE_PROVENANCE_PATH")
	v.BindEnv("pipeline.workers", "CLINPIPE_PIPELINE_WORKERS")
	v.BindEnv("pipeline.doc_workers", "CLINPIPE_PIPELINE_DOC_WORKERS")
	v.BindEnv("pipeline.deterministic_ids", "CLINPIPE_PIPELINE_DETERMINISTIC_IDS")
}
