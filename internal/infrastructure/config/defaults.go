package config

// SetDefaults fills in the worker count, shader cache path, shader source
// root and PID file path where LoadConfig's sources left them at their
// zero value. The pak settings have no defaults.
func SetDefaults(cfg *Config) {
	if cfg.Workers.Count == 0 {
		cfg.Workers.Count = 4
	}
	if cfg.Shaders.CachePath == "" {
		cfg.Shaders.CachePath = "./cache/shaders.bin"
	}
	if cfg.Shaders.SourceRoot == "" {
		cfg.Shaders.SourceRoot = "./shaders"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/assetpipe.pid"
	}
}
