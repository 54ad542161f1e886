package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.GeneratePerMin = 600
	cfg.Server.GenerateBurst = 100
	cfg.Archive.UserAgent = "ficroll-test/1.0"
	cfg.Archive.HTTPTimeout = 5 * time.Second
	cfg.Archive.MaxRetries = 1
	cfg.Archive.BackoffBase = time.Millisecond
	cfg.Archive.RequestDelay = 0
	cfg.Cache.Path = ""
	cfg.Cache.IndexPath = ""
	cfg.Client.BaseURL = "http://127.0.0.1:0"
	cfg.Client.StatePath = ""
	cfg.Client.HTTPTimeout = 5 * time.Second
	cfg.Log.Level = "off"
	cfg.Log.File = ""
	return cfg
}
