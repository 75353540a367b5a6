package config

import (
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := GetDefaultOptions()

	if opts.Data != "/var/opt/shelfmark" {
		t.Errorf("data not set, got: %s", opts.Data)
	}
	if opts.Port != 8080 {
		t.Errorf("port incorrect, got: %d", opts.Port)
	}
	if opts.LookupTimeout != 10 {
		t.Errorf("lookup_timeout incorrect, got: %d", opts.LookupTimeout)
	}
	if opts.GoogleBooksURL == "" || opts.OpenLibraryURL == "" {
		t.Error("metadata source urls not set")
	}
	if AuthEnabled() {
		t.Error("auth should be disabled without a password hash")
	}
}

func TestLoadConfigFile(t *testing.T) {
	opts, err := ParseFile("config_test.toml")
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}
	t.Logf(`Config
		Host: %s
		Port: %d
		LogLevel: %s
		LogFile: %s
		`, opts.Host, opts.Port, opts.LogLevel, opts.LogFile)
	if opts.Host != "127.0.0.1" {
		t.Errorf("host incorrect")
	}
	if opts.LogFile != "test.log" {
		t.Errorf("log_file incorrect")
	}
	if opts.Port != 2333 {
		t.Errorf("port incorrect")
	}
	if opts.LogLevel != "debug" {
		t.Errorf("log_level incorrect")
	}
	if opts.LookupTimeout != 5 {
		t.Errorf("lookup_timeout incorrect, got: %d", opts.LookupTimeout)
	}
}
