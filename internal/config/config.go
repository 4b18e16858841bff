// Package config loads session options from a YAML document, for embedders
// that would rather keep connection settings in a file than construct
// irc.Options literally in Go.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File mirrors irc.Options' YAML-facing subset. It is decoded on its own
// (rather than directly into irc.Options) so this package has no import
// dependency on the root package, and so Load can apply its own defaults
// before handing values off.
type File struct {
	Server      string   `yaml:"server"`
	Nick        string   `yaml:"nick"`
	Password    string   `yaml:"password"`
	UserName    string   `yaml:"userName"`
	RealName    string   `yaml:"realName"`
	Port        int      `yaml:"port"`
	Channels    []string `yaml:"channels"`
	Debug       bool     `yaml:"debug"`
	ShowErrors  bool     `yaml:"showErrors"`
	AutoRejoin  bool     `yaml:"autoRejoin"`
	AutoConnect bool     `yaml:"autoConnect"`

	RetryCount            *int `yaml:"retryCount"`
	RetryDelayMillis      int  `yaml:"retryDelay"`
	Secure                bool `yaml:"secure"`
	SelfSigned            bool `yaml:"selfSigned"`
	CertExpired           bool `yaml:"certExpired"`
	FloodProtection       bool `yaml:"floodProtection"`
	FloodProtectionMillis int  `yaml:"floodProtectionDelay"`
	SASL                  bool `yaml:"sasl"`

	Capabilities     []string `yaml:"capabilities"`
	StripColors      bool     `yaml:"stripColors"`
	ChannelPrefixes  string   `yaml:"channelPrefixes"`
	MessageSplit     int      `yaml:"messageSplit"`

	WebIRC struct {
		Pass string `yaml:"pass"`
		IP   string `yaml:"ip"`
		User string `yaml:"user"`
	} `yaml:"webirc"`
}

// Load reads and unmarshals path, then fills in the same defaults
// irc.DefaultOptions applies, so a caller gets fully-populated values
// regardless of which fields the YAML document omitted.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyDefaults(&f)
	return &f, nil
}

func applyDefaults(f *File) {
	if f.UserName == "" {
		f.UserName = "nodebot"
	}
	if f.RealName == "" {
		f.RealName = "nodeJS IRC client"
	}
	if f.Port == 0 {
		f.Port = 6667
	}
	if f.RetryDelayMillis == 0 {
		f.RetryDelayMillis = 2000
	}
	if f.FloodProtectionMillis == 0 {
		f.FloodProtectionMillis = 1000
	}
	if f.ChannelPrefixes == "" {
		f.ChannelPrefixes = "&#"
	}
	if f.MessageSplit == 0 {
		f.MessageSplit = 512
	}
}
