package irc

import "strings"

// UserEntry is one nick's membership record within a Channel.
type UserEntry struct {
	Username     string
	Host         string
	Away         bool
	Modes        map[byte]bool
	Account      string
	IsRegistered bool
}

// Channel is one joined (or being-joined) channel's state.
type Channel struct {
	Key        string // lowercase
	ServerName string // case as received from the server
	Users      map[string]*UserEntry
	Mode       string
	Topic      string
	TopicBy    string
	Created    string
}

// WhoisAccumulator collects RPL_WHOIS* fields for one nick until
// RPL_ENDOFWHOIS flushes them.
type WhoisAccumulator struct {
	Nick        string
	User        string
	Host        string
	RealName    string
	Server      string
	ServerInfo  string
	Idle        string
	Channels    []string
	Operator    bool
	Account     string
	AccountInfo string
	Away        string
}

// WhoState tracks one outstanding WHO exchange: rows accumulate in Data and
// the format string used to send the request is popped off Queue at
// RPL_ENDOFWHO.
type WhoState struct {
	Data  [][]string
	Queue []string
}

// ChannelModes is the CHANMODES=A,B,C,D breakdown from ISUPPORT.
type ChannelModes struct {
	A, B, C, D string
}

// Supported is the absorbed ISUPPORT (numeric 005) feature set.
type Supported struct {
	ChannelLength int
	ChannelTypes  string
	ChannelLimit  map[string]int
	ChannelModes  ChannelModes
	IdLength      map[string]string

	KickLength   string
	NickLength   int
	TopicLength  int
	Modes        int
	MaxList      map[string]int
	MaxTargets   map[string]int
	WHOX         bool
	UserModes    string
	Capabilities map[string]string
}

func newSupported(channelPrefixes string) *Supported {
	return &Supported{
		ChannelTypes: channelPrefixes,
		ChannelLimit: map[string]int{},
		IdLength:     map[string]string{},
		MaxList:      map[string]int{},
		MaxTargets:   map[string]int{},
		Capabilities: map[string]string{},
	}
}

// Session is the in-memory model of one connected session: own identity,
// joined channels, and everything absorbed from the server along the way.
// Every field here is per-instance, never package- or type-level state —
// spec.md calls out the JS original's prototype-shared maps as a latent bug
// and this rewrite avoids it by construction.
type Session struct {
	OwnNick       string
	HostMask      string
	MaxLineLength int

	Capabilities  map[string]bool
	PendingCapReq []string

	Chans     map[string]*Channel
	SyncChans map[string]int64 // channel -> unix ms

	MOTDBuffer string

	ChannelList []ChannelListEntry

	PrefixForMode map[byte]byte
	ModeForPrefix map[byte]byte

	WhoisData map[string]*WhoisAccumulator
	Who       map[string]*WhoState

	Supported *Supported
}

// ChannelListEntry is one row accumulated from RPL_LIST.
type ChannelListEntry struct {
	Name  string
	Users int
	Topic string
}

func newSession(channelPrefixes string) *Session {
	return &Session{
		Capabilities:  map[string]bool{},
		Chans:         map[string]*Channel{},
		SyncChans:     map[string]int64{},
		PrefixForMode: map[byte]byte{},
		ModeForPrefix: map[byte]byte{},
		WhoisData:     map[string]*WhoisAccumulator{},
		Who:           map[string]*WhoState{},
		Supported:     newSupported(channelPrefixes),
	}
}

func lower(s string) string { return strings.ToLower(s) }

// recomputeMaxLineLength maintains the invariant
// maxLineLength == 497 - len(ownNick) - len(hostMask).
func (s *Session) recomputeMaxLineLength() {
	s.MaxLineLength = 497 - len(s.OwnNick) - len(s.HostMask)
}

// ChanData returns the channel keyed by lower(name), creating a skeleton
// entry when create is true and none exists yet.
func (s *Session) ChanData(name string, create bool) *Channel {
	k := lower(name)
	ch, ok := s.Chans[k]
	if !ok {
		if !create {
			return nil
		}
		ch = &Channel{
			Key:        k,
			ServerName: name,
			Users:      map[string]*UserEntry{},
		}
		s.Chans[k] = ch
	}
	return ch
}

// NickInChannels enumerates channels containing nick. If remove is true,
// the membership is dropped as each channel is visited.
func (s *Session) NickInChannels(nick string, remove bool) []string {
	n := lower(nick)
	var out []string
	for key, ch := range s.Chans {
		if _, ok := ch.Users[n]; ok {
			out = append(out, key)
			if remove {
				delete(ch.Users, n)
			}
		}
	}
	return out
}

func (s *Session) userHasChanMode(u *UserEntry, mode byte) bool {
	if u == nil || u.Modes == nil {
		return false
	}
	return u.Modes[mode]
}

// nickHasChanMode looks up nick in channel ch and reports whether it holds
// mode. Unknown channel or nick returns false (with a debug log, per
// spec.md §4.4).
func (s *Session) nickHasChanMode(logger func(string, ...any), nick, ch string, mode byte) bool {
	c := s.ChanData(ch, false)
	if c == nil {
		logger("nickHasChanMode: unknown channel %s", ch)
		return false
	}
	u, ok := c.Users[lower(nick)]
	if !ok {
		logger("nickHasChanMode: unknown nick %s in %s", nick, ch)
		return false
	}
	return s.userHasChanMode(u, mode)
}

func (s *Session) haveOp(logger func(string, ...any), ch string) bool {
	return s.nickHasChanMode(logger, s.OwnNick, ch, 'o')
}

func (s *Session) haveVoice(logger func(string, ...any), ch string) bool {
	return s.nickHasChanMode(logger, s.OwnNick, ch, 'v')
}

// UsersWithChanMode returns the UserEntry values in ch that hold mode.
func (s *Session) UsersWithChanMode(mode byte, ch string) []*UserEntry {
	c := s.ChanData(ch, false)
	if c == nil {
		return nil
	}
	var out []*UserEntry
	for _, u := range c.Users {
		if s.userHasChanMode(u, mode) {
			out = append(out, u)
		}
	}
	return out
}

// NicksWithChanMode is UsersWithChanMode, returning nicks instead of
// entries.
func (s *Session) NicksWithChanMode(mode byte, ch string) []string {
	c := s.ChanData(ch, false)
	if c == nil {
		return nil
	}
	var out []string
	for nick, u := range c.Users {
		if s.userHasChanMode(u, mode) {
			out = append(out, nick)
		}
	}
	return out
}

// NicksInChannel lists nicks in ch, optionally filtered by withoutModes.
// When combined is true, a nick is excluded only if it holds ALL of
// withoutModes (AND); otherwise it is excluded if it holds ANY of them (OR).
func (s *Session) NicksInChannel(ch string, withoutModes []byte, combined bool) []string {
	c := s.ChanData(ch, false)
	if c == nil {
		return nil
	}
	var out []string
	for nick, u := range c.Users {
		if len(withoutModes) == 0 {
			out = append(out, nick)
			continue
		}
		if combined {
			all := true
			for _, m := range withoutModes {
				if !s.userHasChanMode(u, m) {
					all = false
					break
				}
			}
			if !all {
				out = append(out, nick)
			}
		} else {
			any := false
			for _, m := range withoutModes {
				if s.userHasChanMode(u, m) {
					any = true
					break
				}
			}
			if !any {
				out = append(out, nick)
			}
		}
	}
	return out
}
