package config

import (
	"fmt"
	"maps"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is a launch profile read from a YAML file.
//
// Example:
//
//	executable: java
//	args: ["-cp", "server.jar"]
//	entry_point: PolyglotLanguageServerLauncher
//	port: 2088
//	connect_timeout: 20s
type Profile struct {
	Executable     string            `yaml:"executable"`
	Args           []string          `yaml:"args"`
	EntryPoint     string            `yaml:"entry_point"`
	ConnectArgs    []string          `yaml:"connect_args"`
	Env            map[string]string `yaml:"env"`
	Cwd            string            `yaml:"cwd"`
	SearchPaths    []string          `yaml:"search_paths"`
	Host           string            `yaml:"host"`
	Port           int               `yaml:"port"`
	Ephemeral      bool              `yaml:"ephemeral"`
	ConnectTimeout time.Duration     `yaml:"connect_timeout"`
	GracePeriod    time.Duration     `yaml:"grace_period"`
	Handshake      bool              `yaml:"handshake"`
}

// LoadProfile reads and validates a launch profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	return ParseProfile(data)
}

// ParseProfile decodes a launch profile from YAML.
func ParseProfile(data []byte) (*Profile, error) {
	profile := &Profile{}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	if profile.Executable == "" {
		return nil, fmt.Errorf("parse profile: executable is required")
	}

	if profile.Port < 0 || profile.Port > 65535 {
		return nil, fmt.Errorf("parse profile: port %d out of range", profile.Port)
	}

	return profile, nil
}

// Apply copies the profile's non-zero fields onto the options.
func (p *Profile) Apply(o *Options) {
	o.Executable = p.Executable

	if p.Args != nil {
		o.Args = p.Args
	}

	if p.EntryPoint != "" {
		o.EntryPoint = p.EntryPoint
	}

	if p.ConnectArgs != nil {
		o.ConnectArgs = p.ConnectArgs
	}

	if len(p.Env) > 0 {
		env := make(map[string]string, len(o.Env)+len(p.Env))
		maps.Copy(env, o.Env)
		maps.Copy(env, p.Env)
		o.Env = env
	}

	if p.Cwd != "" {
		o.Cwd = p.Cwd
	}

	if p.SearchPaths != nil {
		o.SearchPaths = p.SearchPaths
	}

	if p.Host != "" {
		o.Host = p.Host
	}

	if p.Port != 0 {
		o.Port = p.Port
	}

	if p.Ephemeral {
		o.PortPolicy = PortEphemeral
	}

	if p.ConnectTimeout != 0 {
		o.ConnectTimeout = p.ConnectTimeout
	}

	if p.GracePeriod != 0 {
		o.GracePeriod = p.GracePeriod
	}

	if p.Handshake {
		o.Handshake = true
	}
}
