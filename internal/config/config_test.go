package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QRGATE_ENV", "prod")
	t.Setenv("QRGATE_STATION_ID", "gate-1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.Store.Backend != StoreSQLite {
		t.Errorf("expected sqlite store, got %q", cfg.Store.Backend)
	}
	if cfg.Fanout.Backend != FanoutLocal {
		t.Errorf("expected local fanout, got %q", cfg.Fanout.Backend)
	}
	if cfg.InboxSize != 50 {
		t.Errorf("expected inbox size 50, got %d", cfg.InboxSize)
	}
	if cfg.AuditDenied {
		t.Error("denied scans should not be audited by default")
	}
	if cfg.StationID != "gate-1" {
		t.Errorf("expected station id gate-1, got %q", cfg.StationID)
	}
}

func TestLoad_YAMLThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qrgate.yaml")
	body := []byte(`
env: prod
httpAddr: ":9090"
auditDenied: true
refreshIntervalSeconds: 15
store:
  backend: redis
  redisAddr: "localhost:6379"
fanout:
  backend: redis
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QRGATE_HTTP_ADDR", ":7070")
	t.Setenv("QRGATE_ENV", "prod")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Errorf("env should override yaml addr, got %q", cfg.HTTPAddr)
	}
	if !cfg.AuditDenied {
		t.Error("expected auditDenied from yaml")
	}
	if cfg.RefreshIntervalSeconds != 15 {
		t.Errorf("expected refresh interval 15, got %d", cfg.RefreshIntervalSeconds)
	}
	if cfg.Fanout.RedisAddr != "localhost:6379" {
		t.Errorf("fanout should inherit the store redis addr, got %q", cfg.Fanout.RedisAddr)
	}
}

func TestLoad_UnknownEnvFallsBackToDev(t *testing.T) {
	t.Setenv("QRGATE_ENV", "staging")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "dev" {
		t.Errorf("expected dev, got %q", cfg.Env)
	}
}

func TestValidate_RejectsIncompleteBackends(t *testing.T) {
	cases := map[string]Config{
		"unknown store":  {Store: StoreConfig{Backend: "etcd"}, Fanout: FanoutConfig{Backend: FanoutLocal}},
		"redis store":    {Store: StoreConfig{Backend: StoreRedis}, Fanout: FanoutConfig{Backend: FanoutLocal}},
		"amqp fanout":    {Store: StoreConfig{Backend: StoreMemory}, Fanout: FanoutConfig{Backend: FanoutAMQP}},
		"unknown fanout": {Store: StoreConfig{Backend: StoreMemory}, Fanout: FanoutConfig{Backend: "kafka"}},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestGetenvInt_IgnoresGarbage(t *testing.T) {
	t.Setenv("QRGATE_TEST_INT", "abc")
	if got := getenvInt("QRGATE_TEST_INT", 7); got != 7 {
		t.Errorf("expected default 7, got %d", got)
	}
	t.Setenv("QRGATE_TEST_INT", "-3")
	if got := getenvInt("QRGATE_TEST_INT", 7); got != 7 {
		t.Errorf("negative values should fall back, got %d", got)
	}
	t.Setenv("QRGATE_TEST_INT", "12")
	if got := getenvInt("QRGATE_TEST_INT", 7); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestLoad_TimeZone(t *testing.T) {
	t.Setenv("QRGATE_STORE", "memory")
	t.Setenv("QRGATE_TIMEZONE", "America/Bogota")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Location().String(); got != "America/Bogota" {
		t.Errorf("expected America/Bogota, got %s", got)
	}

	t.Setenv("QRGATE_TIMEZONE", "Mars/Olympus_Mons")
	if _, err := Load(""); err == nil {
		t.Error("expected unknown zone to be rejected")
	}

	if (Config{}).Location() != time.Local {
		t.Error("empty zone should resolve to time.Local")
	}
}
