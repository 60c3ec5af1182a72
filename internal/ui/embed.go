// Package ui contains the embedded dashboard assets.
package ui

import (
	"embed"
	"mime"
	"path"
)

//go:embed static/*
var assets embed.FS

// ContentSecurityPolicy is sent with every dashboard asset.
const ContentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline';"

// Asset returns the named file and its content type.
func Asset(name string) ([]byte, string, error) {
	b, err := assets.ReadFile(path.Join("static", name))
	if err != nil {
		return nil, "", err
	}
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return b, ct, nil
}
