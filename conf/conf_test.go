package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance without loading user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}

	if cfg.Pipeline.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.DocWorkers != 2 {
		t.Errorf("expected default doc_workers 2, got %d", cfg.Pipeline.DocWorkers)
	}
	if cfg.Provenance.Path != "clinpipe-prov.db" {
		t.Errorf("expected default provenance path 'clinpipe-prov.db', got %q", cfg.Provenance.Path)
	}
	if cfg.LogTheme() != "everforest" {
		t.Errorf("expected default log theme 'everforest', got %q", cfg.LogTheme())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clinpipe.toml")
	content := `
[pipeline]
workers = 8
deterministic_ids = true
id_namespace = "study-42"

[provenance]
path = "/var/lib/clinpipe/prov.db"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}

	if cfg.Pipeline.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Pipeline.Workers)
	}
	if !cfg.Pipeline.DeterministicIDs {
		t.Error("expected deterministic_ids true")
	}
	if cfg.Provenance.Path != "/var/lib/clinpipe/prov.db" {
		t.Errorf("unexpected provenance path %q", cfg.Provenance.Path)
	}
	// defaults still apply for unset values
	if cfg.Pipeline.DocWorkers != 2 {
		t.Errorf("expected default doc_workers 2, got %d", cfg.Pipeline.DocWorkers)
	}
}

func TestRunConfigConversion(t *testing.T) {
	cfg := &Config{
		Pipeline: PipelineConfig{
			Workers:           3,
			DocWorkers:        5,
			OpTimeoutSeconds:  30,
			RunTimeoutSeconds: 600,
			RatePerSecond:     2.5,
			RateBurst:         4,
			DeterministicIDs:  true,
			IDNamespace:       "ns",
		},
	}

	rc := cfg.RunConfig()
	if rc.Workers != 3 || rc.DocWorkers != 5 {
		t.Errorf("worker counts not carried over: %+v", rc)
	}
	if rc.OpTimeout != 30*time.Second {
		t.Errorf("expected op timeout 30s, got %v", rc.OpTimeout)
	}
	if rc.RunTimeout != 600*time.Second {
		t.Errorf("expected run timeout 600s, got %v", rc.RunTimeout)
	}
	if rc.RateLimit != 2.5 || rc.RateBurst != 4 {
		t.Errorf("rate limit not carried over: %+v", rc)
	}
	if !rc.DeterministicIDs || rc.IDNamespace != "ns" {
		t.Errorf("deterministic settings not carried over: %+v", rc)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "zero values are valid",
			config:  Config{},
			wantErr: false,
		},
		{
			name: "negative workers is invalid",
			config: Config{
				Pipeline: PipelineConfig{Workers: -1},
			},
			wantErr: true,
		},
		{
			name: "negative rate is invalid",
			config: Config{
				Pipeline: PipelineConfig{RatePerSecond: -1},
			},
			wantErr: true,
		},
		{
			name: "deterministic ids need a namespace",
			config: Config{
				Pipeline: PipelineConfig{DeterministicIDs: true},
			},
			wantErr: true,
		},
		{
			name: "deterministic ids with namespace",
			config: Config{
				Pipeline: PipelineConfig{DeterministicIDs: true, IDNamespace: "ns"},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clinpipe.toml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]interface{}
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("written default config is not valid TOML: %v", err)
	}
	if _, ok := parsed["pipeline"]; !ok {
		t.Error("default config missing [pipeline] section")
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() on written defaults failed: %v", err)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("expected workers 4 from written defaults, got %d", cfg.Pipeline.Workers)
	}
}

func TestWriteDefaultRotatesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clinpipe.toml")

	for i := 0; i < 3; i++ {
		if err := WriteDefault(path); err != nil {
			t.Fatalf("WriteDefault() iteration %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".back1"); err != nil {
		t.Errorf("expected .back1 after repeated writes: %v", err)
	}
	if _, err := os.Stat(path + ".back2"); err != nil {
		t.Errorf("expected .back2 after repeated writes: %v", err)
	}
}

func TestBackupFileDetection(t *testing.T) {
	if !isBackupFile("/home/u/.clinpipe/clinpipe.toml.back1") {
		t.Error("expected .back1 to be detected as backup")
	}
	if isBackupFile("/home/u/.clinpipe/clinpipe.toml") {
		t.Error("config file wrongly detected as backup")
	}
}
