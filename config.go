package irc

import "github.com/birdwatch-irc/ircsession/internal/config"

// LoadOptions reads path as the YAML document internal/config.File
// describes and converts it into an Options value, for embedders who would
// rather keep connection settings in a file than construct Options as a Go
// struct literal. internal/config stays free of an import on this package
// so it can apply its own defaults independently; this function is the
// conversion step spec.md's ambient Config component calls for.
func LoadOptions(path string) (Options, error) {
	f, err := config.Load(path)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Server:   f.Server,
		Nick:     f.Nick,
		Password: f.Password,
		UserName: f.UserName,
		RealName: f.RealName,
		Port:     f.Port,

		Debug:      f.Debug,
		ShowErrors: f.ShowErrors,
		AutoRejoin: f.AutoRejoin,
		Channels:   f.Channels,

		RetryCount:   f.RetryCount,
		RetryDelayMS: f.RetryDelayMillis,

		Secure:      f.Secure,
		SelfSigned:  f.SelfSigned,
		CertExpired: f.CertExpired,

		FloodProtection:   f.FloodProtection,
		FloodProtectionMS: f.FloodProtectionMillis,

		SASL:         f.SASL,
		Capabilities: f.Capabilities,

		StripColors:     f.StripColors,
		ChannelPrefixes: f.ChannelPrefixes,
		MessageSplit:    f.MessageSplit,

		WebIRC: WebIRC{
			Pass: f.WebIRC.Pass,
			IP:   f.WebIRC.IP,
			User: f.WebIRC.User,
		},
	}, nil
}
