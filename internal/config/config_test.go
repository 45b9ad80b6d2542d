package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPropertiesAppliesOverrides(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "parksim.properties")
	body := "# simulation overrides\n" +
		"fleet=6\n" +
		"seconds.per.floor=2.0\n" +
		"strategies=lobby,zone,dynamic\n" +
		"// comment line\n" +
		"classifier=kmeans\n" +
		"adaptive.long.wait=false\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write properties: %v", err)
	}

	cfg := &AppConfig{Fleet: 8, SecondsPerFloor: 1.5, Classifier: "rule", AdaptiveLW: true}
	if err := cfg.loadProperties(path); err != nil {
		t.Fatalf("loadProperties error: %v", err)
	}
	if got, want := cfg.Fleet, 6; got != want {
		t.Fatalf("fleet mismatch: got %d want %d", got, want)
	}
	if got, want := cfg.SecondsPerFloor, 2.0; got != want {
		t.Fatalf("seconds.per.floor mismatch: got %.1f want %.1f", got, want)
	}
	if len(cfg.Strategies) != 3 || cfg.Strategies[1] != "zone" {
		t.Fatalf("strategies mismatch: %v", cfg.Strategies)
	}
	if cfg.Classifier != "kmeans" {
		t.Fatalf("classifier mismatch: %q", cfg.Classifier)
	}
	if cfg.AdaptiveLW {
		t.Fatal("adaptive.long.wait=false not applied")
	}
}

func TestLoadPropertiesMissingFileIsOptional(t *testing.T) {
	cfg := &AppConfig{}
	if err := cfg.loadProperties(filepath.Join(t.TempDir(), "absent.properties")); err != nil {
		t.Fatalf("missing default properties should not error: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*AppConfig)
	}{
		{"zero fleet", func(c *AppConfig) { c.Fleet = 0 }},
		{"zero speed", func(c *AppConfig) { c.SecondsPerFloor = 0 }},
		{"inverted zones", func(c *AppConfig) { c.LobbyMax, c.MidMax = 8, 3 }},
		{"bad classifier", func(c *AppConfig) { c.Classifier = "gbdt" }},
		{"zero cadence", func(c *AppConfig) { c.DecisionMinutes = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &AppConfig{
				Fleet: 8, LobbyFloor: 1, LobbyMax: 3, MidMax: 8,
				SecondsPerFloor: 1.5, DoorTime: 8, DecisionMinutes: 5,
				Classifier: "rule",
			}
			tc.mod(cfg)
			if err := cfg.validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}
