package irc

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/birdwatch-irc/ircsession/internal/metrics"
)

// WebIRC carries the three fields a WEBIRC PASS line needs. All three must
// be set for the client to send it; a partially-filled WebIRC is treated as
// unconfigured.
type WebIRC struct {
	Pass string
	IP   string
	User string
}

// Options configures a Client. Only Server and Nick are required; every
// other field has the default noted on it, matching the option table this
// library's behavior is specified against.
type Options struct {
	Server   string
	Nick     string
	Password string
	UserName string // default "nodebot"
	RealName string // default "nodeJS IRC client"
	Port     int    // default 6667

	LocalAddress string

	Debug      bool
	ShowErrors bool
	AutoRejoin bool

	// Channels is rejoined once the MOTD completes. It is also the set
	// CommandAPI.Join/Part keep in sync as the session joins and parts.
	Channels []string

	// RetryCount bounds reconnect attempts; nil means unbounded.
	RetryCount      *int
	RetryDelayMS    int // default 2000

	Secure      bool
	SelfSigned  bool
	CertExpired bool

	FloodProtection      bool
	FloodProtectionMS    int // default 1000

	SASL         bool
	Capabilities []string

	StripColors     bool
	ChannelPrefixes string // default "&#"
	MessageSplit    int    // default 512

	WebIRC WebIRC

	// DialFn, if set, replaces the default TCP/TLS dial with a caller-
	// supplied connection source. Grounded on the teacher's DialFn field;
	// irctest uses this to substitute an in-memory Server for a real socket.
	DialFn func() (Transport, error)

	// Logger receives every diagnostic message spec.md calls "log" or
	// "debug log". A nil Logger defaults to log.Default().
	Logger *log.Logger

	// MetricsRegisterer, if set, exposes Prometheus counters for this
	// session. Nil disables metrics without changing any other behavior.
	MetricsRegisterer prometheus.Registerer
}

// DefaultOptions returns an Options with every default from the
// configuration table applied, and Server/Nick left empty for the caller
// to fill in.
func DefaultOptions() Options {
	return Options{
		UserName:        "nodebot",
		RealName:        "nodeJS IRC client",
		Port:            6667,
		RetryDelayMS:    2000,
		FloodProtectionMS: 1000,
		ChannelPrefixes: "&#",
		MessageSplit:    512,
	}
}

func (o *Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

func (o *Options) metrics() *metrics.Metrics {
	return metrics.New(o.MetricsRegisterer)
}

func (o *Options) webircConfigured() bool {
	return o.WebIRC.Pass != "" && o.WebIRC.IP != "" && o.WebIRC.User != ""
}
