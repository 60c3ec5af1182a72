// Package config provides loading and environment overlay for the gateway
// configuration. It exposes a Default() baseline that a JSON or YAML file and
// LORABRIDGE_* environment variables refine.
//
// Example:
//
//	cfg, err := config.Load("/etc/lorabridge.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
