package irc

import (
	"strconv"
	"strings"

	"github.com/birdwatch-irc/ircsession/internal/frame"
)

// handleFrame is the dispatch core: it mutates Session, emits domain
// events, and issues protocol responses for one parsed Frame. It runs only
// on the session's single logical goroutine (see concurrency notes on
// Client), so no locking is needed here.
func (c *Client) handleFrame(f frame.Frame) {
	c.metrics.FrameReceived()
	if f.CommandType == frame.Error {
		c.metrics.ProtocolError()
	}

	switch f.Command {
	case "rpl_welcome":
		c.onWelcome(f)
	case "rpl_myinfo":
		if len(f.Args) > 3 {
			c.session.Supported.UserModes = f.Args[3]
		}
	case "rpl_isupport":
		c.onISupport(f)
	case "err_nicknameinuse":
		c.onNickInUse(f)
	case "PING":
		if len(f.Args) > 0 {
			c.send(frame.Serialize("PONG", f.Args[0]))
		}
		c.events.Emit("ping", argAt(f.Args, 0))
	case "PONG":
		c.events.Emit("pong")
	case "NOTICE":
		c.onMessage(f, "notice")
	case "PRIVMSG":
		c.onMessage(f, "message")
	case "MODE":
		c.onMode(f)
	case "NICK":
		c.onNick(f)
	case "rpl_motdstart", "rpl_motd":
		if len(f.Args) > 0 {
			c.session.MOTDBuffer += f.Args[len(f.Args)-1] + "\n"
		}
	case "rpl_endofmotd", "err_nomotd":
		c.events.Emit("motd", c.session.MOTDBuffer)
		c.rejoinConfiguredChannels()
	case "rpl_topic":
		if ch := c.session.ChanData(argAt(f.Args, 1), true); ch != nil {
			ch.Topic = argAt(f.Args, len(f.Args)-1)
		}
	case "rpl_topicwhotime":
		if ch := c.session.ChanData(argAt(f.Args, 1), true); ch != nil {
			ch.TopicBy = argAt(f.Args, 2)
			c.events.Emit("topic", ch.ServerName, ch.Topic, ch.TopicBy, f)
		}
	case "TOPIC":
		if ch := c.session.ChanData(argAt(f.Args, 0), true); ch != nil {
			ch.Topic = argAt(f.Args, len(f.Args)-1)
			ch.TopicBy = f.Nick
		}
		c.events.Emit("topic", argAt(f.Args, 0), argAt(f.Args, len(f.Args)-1), f.Nick, f)
	case "rpl_channelmodeis":
		if ch := c.session.ChanData(argAt(f.Args, 1), true); ch != nil {
			ch.Mode = strings.Join(f.Args[2:], " ")
		}
	case "rpl_creationtime":
		if ch := c.session.ChanData(argAt(f.Args, 1), true); ch != nil {
			ch.Created = argAt(f.Args, 2)
		}
	case "JOIN":
		c.onJoin(f)
	case "PART":
		c.onPart(f)
	case "KICK":
		c.onKick(f)
	case "KILL":
		c.onKill(f)
	case "QUIT":
		c.onQuit(f)
	case "rpl_whoisuser", "rpl_whoisserver", "rpl_whoisoperator", "rpl_whoisidle",
		"rpl_whoischannels", "rpl_whoisaccount", "rpl_whoisactually", "rpl_whoissecure":
		c.onWhoisPart(f)
	case "rpl_away":
		c.onWhoisAway(f)
	case "rpl_endofwhois":
		c.onEndOfWhois(f)
	case "rpl_whoreply", "rpl_whospcrpl":
		c.onWhoReply(f)
	case "rpl_endofwho":
		c.onEndOfWho(f)
	case "rpl_liststart":
		c.session.ChannelList = nil
		c.events.Emit("channellist_start")
	case "rpl_list":
		c.onListItem(f)
	case "rpl_listend":
		c.events.Emit("channellist", c.session.ChannelList)
	case "INVITE":
		c.events.Emit("invite", argAt(f.Args, 1), f.Nick, f)
	case "CAP":
		c.onCAP(f)
	case "AUTHENTICATE":
		c.onAuthenticate(f)
	case "rpl_loggedin":
		c.logger().Printf("irc: logged in: %s", strings.Join(f.Args, " "))
	case "rpl_saslsuccess":
		c.events.Emit("sasl-authenticated")
		c.send(frame.Serialize("CAP", "END"))
		c.events.Emit("cap-end")
	case "err_saslfail", "err_sasltoolong", "err_saslaborted", "err_saslalready":
		c.events.Emit("sasl-authentication-failed")
		c.send(frame.Serialize("CAP", "END"))
		c.events.Emit("cap-end")
	case "ACCOUNT":
		c.onAccount(f)
	case "err_umodeunknownflag":
		c.logger().Printf("irc: unknown umode flag: %s", strings.Join(f.Args, " "))
	case "err_erroneusnickname":
		c.events.Emit("error", f)
	default:
		if f.CommandType == frame.Error {
			c.events.Emit("error", f)
		} else {
			c.logger().Printf("irc: unhandled %s %v", f.Command, f.Args)
		}
	}
}

func argAt(args []string, i int) string {
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}

func (c *Client) onWelcome(f frame.Frame) {
	if len(f.Args) == 0 {
		return
	}
	c.session.OwnNick = f.Args[0]
	if len(f.Args) > 1 {
		fields := strings.Fields(f.Args[len(f.Args)-1])
		if len(fields) > 0 {
			c.session.HostMask = fields[len(fields)-1]
		}
	}
	c.session.recomputeMaxLineLength()
	c.events.Emit("registered")
}

func (c *Client) onISupport(f frame.Frame) {
	// A leading client-nick argument, when the server sends one, matches no
	// token below and is ignored like any other unknown token.
	for _, tok := range f.Args {
		if tok == "" || strings.HasPrefix(tok, ":") {
			continue
		}
		name, value, _ := strings.Cut(tok, "=")
		name = strings.ToUpper(name)
		switch name {
		case "CHANLIMIT", "IDCHAN", "MAXLIST", "TARGMAX":
			for _, pair := range strings.Split(value, ",") {
				prefix, n, ok := strings.Cut(pair, ":")
				if !ok {
					continue
				}
				iv, err := strconv.Atoi(n)
				if err != nil {
					if name != "TARGMAX" {
						continue
					}
					iv = 0
				}
				switch name {
				case "CHANLIMIT", "IDCHAN":
					c.session.Supported.ChannelLimit[prefix] = iv
				case "MAXLIST":
					c.session.Supported.MaxList[prefix] = iv
				case "TARGMAX":
					c.session.Supported.MaxTargets[prefix] = iv
				}
			}
		case "CHANMODES":
			groups := strings.Split(value, ",")
			for len(groups) < 4 {
				groups = append(groups, "")
			}
			c.session.Supported.ChannelModes.A += groups[0]
			c.session.Supported.ChannelModes.B += groups[1]
			c.session.Supported.ChannelModes.C += groups[2]
			c.session.Supported.ChannelModes.D += groups[3]
		case "CHANTYPES":
			c.session.Supported.ChannelTypes = value
		case "CHANNELLEN":
			c.session.Supported.ChannelLength, _ = strconv.Atoi(value)
		case "NICKLEN":
			c.session.Supported.NickLength, _ = strconv.Atoi(value)
		case "TOPICLEN":
			c.session.Supported.TopicLength, _ = strconv.Atoi(value)
		case "MODES":
			c.session.Supported.Modes, _ = strconv.Atoi(value)
		case "KICKLEN":
			c.session.Supported.KickLength = value
		case "PREFIX":
			parsePrefix(value, c.session)
		case "WHOX":
			c.session.Supported.WHOX = true
		default:
			// unknown token: ignore
		}
	}
}

func parsePrefix(value string, s *Session) {
	if !strings.HasPrefix(value, "(") {
		return
	}
	end := strings.Index(value, ")")
	if end < 0 {
		return
	}
	modes := value[1:end]
	prefixes := value[end+1:]
	n := len(modes)
	if len(prefixes) < n {
		n = len(prefixes)
	}
	for i := 0; i < n; i++ {
		m, p := modes[i], prefixes[i]
		s.ModeForPrefix[p] = m
		s.PrefixForMode[m] = p
		s.Supported.ChannelModes.B += string(m)
	}
}

func (c *Client) onNickInUse(f frame.Frame) {
	c.nickInUseCounter++
	newNick := c.opt.Nick + strconv.Itoa(c.nickInUseCounter)
	c.send(frame.Serialize("NICK", newNick))
}

func (c *Client) onMessage(f frame.Frame, kind string) {
	if len(f.Args) < 2 {
		return
	}
	target, payload := f.Args[0], f.Args[len(f.Args)-1]
	if isCTCP(payload) {
		c.handleCTCP(f, payload[1:len(payload)-1], kind)
		return
	}
	c.events.Emit(kind, f.Nick, target, payload, f)
	if target != "" && strings.ContainsAny(string(target[0]), c.session.Supported.ChannelTypes) {
		c.events.Emit(kind+target, f.Nick, payload, f)
		c.events.Emit(kind+lower(target), f.Nick, payload, f)
	}
	if strings.EqualFold(target, c.session.OwnNick) {
		c.events.Emit("pm", f.Nick, payload, f)
	}
}

func (c *Client) handleCTCP(f frame.Frame, inner, kind string) {
	cmd, text := splitCTCP(inner)
	if cmd == "ACTION" {
		c.events.Emit("action", f.Nick, argAt(f.Args, 0), text, f)
		return
	}
	if kind == "notice" {
		c.events.Emit("ctcp-reply", f.Nick, cmd, text, f)
		return
	}
	c.events.Emit("ctcp", f.Nick, cmd, text, f)
	switch cmd {
	case "VERSION", "TIME", "PING", "CLIENTINFO":
		c.events.Emit("ctcp-"+strings.ToLower(cmd), f.Nick, text, f)
	}
}

func (c *Client) onMode(f frame.Frame) {
	if len(f.Args) < 2 {
		return
	}
	target := f.Args[0]
	modeStr := f.Args[1]
	rest := f.Args[2:]

	isChannel := strings.ContainsAny(string(target[0]), c.session.Supported.ChannelTypes)
	var sign byte = '+'
	argIdx := 0
	for i := 0; i < len(modeStr); i++ {
		ch := modeStr[i]
		if ch == '+' || ch == '-' {
			sign = ch
			continue
		}
		if p, ok := c.session.PrefixForMode[ch]; ok && isChannel {
			_ = p
			if argIdx >= len(rest) {
				continue
			}
			nick := rest[argIdx]
			argIdx++
			chd := c.session.ChanData(target, true)
			u, ok := chd.Users[lower(nick)]
			if !ok {
				u = &UserEntry{Modes: map[byte]bool{}}
				chd.Users[lower(nick)] = u
			}
			if u.Modes == nil {
				u.Modes = map[byte]bool{}
			}
			if sign == '+' {
				u.Modes[ch] = true
			} else {
				delete(u.Modes, ch)
			}
			evName := string(sign) + string(ch)
			c.events.Emit(evName, target, nick, f)
			if strings.EqualFold(nick, c.session.OwnNick) {
				c.events.Emit(string(sign)+"selfmode", target, f)
			}
			continue
		}
		if isChannel && strings.ContainsRune("bkl", rune(ch)) {
			var modeArg string
			if argIdx < len(rest) {
				modeArg = rest[argIdx]
				argIdx++
			}
			chd := c.session.ChanData(target, true)
			applyChanModeFlag(chd, sign, ch)
			c.events.Emit(string(sign)+string(ch), target, modeArg, f)
			continue
		}
	}
}

func applyChanModeFlag(ch *Channel, sign, flag byte) {
	has := strings.IndexByte(ch.Mode, flag) >= 0
	if sign == '+' && !has {
		ch.Mode += string(flag)
	} else if sign == '-' && has {
		ch.Mode = strings.Replace(ch.Mode, string(flag), "", 1)
	}
}

func (c *Client) onNick(f frame.Frame) {
	newNick := argAt(f.Args, 0)
	if strings.EqualFold(f.Nick, c.session.OwnNick) {
		c.session.OwnNick = newNick
		c.session.recomputeMaxLineLength()
		c.events.Emit("selfnick", f.Nick, newNick)
	}
	oldKey := lower(f.Nick)
	var channels []string
	for key, ch := range c.session.Chans {
		if u, ok := ch.Users[oldKey]; ok {
			delete(ch.Users, oldKey)
			ch.Users[lower(newNick)] = u
			channels = append(channels, key)
			c.events.Emit("nick"+ch.ServerName, f.Nick, newNick, f)
		}
	}
	c.events.Emit("nick", f.Nick, newNick, channels, f)
}

func (c *Client) onJoin(f frame.Frame) {
	chanName := argAt(f.Args, 0)
	ch := c.session.ChanData(chanName, true)
	self := strings.EqualFold(f.Nick, c.session.OwnNick)

	u := &UserEntry{Username: f.User, Host: f.Host, Modes: map[byte]bool{}}
	if c.session.Capabilities["extended-join"] && len(f.Args) >= 3 {
		account := f.Args[1]
		if account != "*" {
			u.Account = account
			u.IsRegistered = true
		}
	}
	ch.Users[lower(f.Nick)] = u

	if self {
		c.session.SyncChans[ch.ServerName] = nowMillis()
		c.send(frame.Serialize("MODE", ch.ServerName))
		whoFormat := "%cuhnfa"
		if !c.session.Supported.WHOX {
			whoFormat = ""
		}
		c.sendWhoRequest(ch.ServerName, whoFormat)
		c.events.Emit("selfjoin", ch.ServerName, f)
		c.events.Emit("selfjoin"+ch.ServerName, f)
	}
	c.events.Emit("join", ch.ServerName, f.Nick, f)
	c.events.Emit("join"+ch.ServerName, f.Nick, f)
}

func (c *Client) onPart(f frame.Frame) {
	chanName := argAt(f.Args, 0)
	ch := c.session.ChanData(chanName, false)
	c.events.Emit("part", chanName, f.Nick, f)
	c.events.Emit("part"+chanName, f.Nick, f)
	if ch == nil {
		return
	}
	if strings.EqualFold(f.Nick, c.session.OwnNick) {
		delete(c.session.Chans, ch.Key)
		c.events.Emit("selfpart", ch.ServerName, f)
	} else {
		delete(ch.Users, lower(f.Nick))
	}
}

func (c *Client) onKick(f frame.Frame) {
	chanName := argAt(f.Args, 0)
	target := argAt(f.Args, 1)
	ch := c.session.ChanData(chanName, false)
	c.events.Emit("kick", chanName, target, f.Nick, f)
	if ch == nil {
		return
	}
	if strings.EqualFold(target, c.session.OwnNick) {
		delete(c.session.Chans, ch.Key)
		c.events.Emit("selfkick", ch.ServerName, f)
		if c.opt.AutoRejoin {
			c.send(frame.Serialize("JOIN", ch.ServerName))
		}
	} else {
		delete(ch.Users, lower(target))
	}
}

func (c *Client) onKill(f frame.Frame) {
	target := argAt(f.Args, 0)
	channels := c.session.NickInChannels(target, true)
	for _, key := range channels {
		ch := c.session.Chans[key]
		c.events.Emit("kill"+ch.ServerName, target, f)
	}
	c.events.Emit("kill", target, channels, f)
}

func (c *Client) onQuit(f frame.Frame) {
	if strings.EqualFold(f.Nick, c.session.OwnNick) {
		return
	}
	reason := argAt(f.Args, 0)
	changingHost := reason == "Changing host"

	var channels []string
	for key, ch := range c.session.Chans {
		if _, ok := ch.Users[lower(f.Nick)]; ok {
			channels = append(channels, key)
		}
	}
	for _, key := range channels {
		ch := c.session.Chans[key]
		c.events.Emit("quit"+ch.ServerName, f.Nick, reason, f)
	}
	c.events.Emit("quit", f.Nick, reason, channels, f)

	if changingHost {
		return
	}
	for _, key := range channels {
		ch := c.session.Chans[key]
		delete(ch.Users, lower(f.Nick))
		c.events.Emit("realquit"+ch.ServerName, f.Nick, reason, f)
	}
	c.events.Emit("realquit", f.Nick, reason, channels, f)
}

func (c *Client) whois(nick string) *WhoisAccumulator {
	k := lower(nick)
	acc, ok := c.session.WhoisData[k]
	if !ok {
		acc = &WhoisAccumulator{Nick: nick}
		c.session.WhoisData[k] = acc
	}
	return acc
}

func (c *Client) onWhoisPart(f frame.Frame) {
	if len(f.Args) < 2 {
		return
	}
	nick := f.Args[1]
	acc := c.whois(nick)
	switch f.Command {
	case "rpl_whoisuser":
		if len(f.Args) >= 6 {
			acc.User, acc.Host, acc.RealName = f.Args[2], f.Args[3], f.Args[len(f.Args)-1]
		}
	case "rpl_whoisserver":
		if len(f.Args) >= 4 {
			acc.Server, acc.ServerInfo = f.Args[2], f.Args[3]
		}
	case "rpl_whoisoperator":
		acc.Operator = true
	case "rpl_whoisidle":
		if len(f.Args) >= 3 {
			acc.Idle = f.Args[2]
		}
	case "rpl_whoischannels":
		if len(f.Args) >= 3 {
			acc.Channels = strings.Fields(f.Args[len(f.Args)-1])
		}
	case "rpl_whoisaccount":
		if len(f.Args) >= 3 {
			acc.Account, acc.AccountInfo = f.Args[2], argAt(f.Args, 3)
		}
	case "rpl_whoisactually", "rpl_whoissecure":
		// informational only; already covered by Server/accumulator presence
	}
}

func (c *Client) onWhoisAway(f frame.Frame) {
	if len(f.Args) < 2 {
		return
	}
	nick := f.Args[1]
	if acc, ok := c.session.WhoisData[lower(nick)]; ok {
		acc.Away = argAt(f.Args, len(f.Args)-1)
	}
}

func (c *Client) onEndOfWhois(f frame.Frame) {
	if len(f.Args) < 2 {
		return
	}
	nick := f.Args[1]
	k := lower(nick)
	acc, ok := c.session.WhoisData[k]
	if !ok {
		acc = &WhoisAccumulator{}
	}
	acc.Nick = nick
	delete(c.session.WhoisData, k)
	c.events.Emit("whois", acc)
}

var whoxFieldNames = map[byte]string{
	't': "type", 'c': "channel", 'u': "username", 'i': "ip", 'h': "host",
	's': "server", 'n': "nick", 'f': "status", 'd': "hops", 'l': "idle",
	'a': "account", 'r': "realname",
}

func (c *Client) sendWhoRequest(target, format string) {
	st := c.session.Who[lower(target)]
	if st == nil {
		st = &WhoState{}
		c.session.Who[lower(target)] = st
	}
	st.Queue = append(st.Queue, format)
	if format == "" {
		c.send(frame.Serialize("WHO", target))
	} else {
		c.send(frame.Serialize("WHO", target, "%"+strings.TrimPrefix(format, "%")))
	}
}

func (c *Client) onWhoReply(f frame.Frame) {
	if len(f.Args) < 2 {
		return
	}
	target := f.Args[1]
	st := c.session.Who[lower(target)]
	if st == nil {
		st = &WhoState{}
		c.session.Who[lower(target)] = st
	}
	// keep everything but the leading "own nick" echo argument; the
	// channel itself stays in the row since the default letter table
	// maps 'c' to it.
	row := f.Args[1:]
	st.Data = append(st.Data, row)
}

func (c *Client) onEndOfWho(f frame.Frame) {
	if len(f.Args) < 2 {
		return
	}
	target := f.Args[1]
	key := lower(target)
	st := c.session.Who[key]
	if st == nil || len(st.Queue) == 0 {
		c.logger().Printf("irc: rpl_endofwho for %s with no outstanding WHO", target)
		c.events.Emit("who"+target, nil)
		c.events.Emit("who", target, nil)
		return
	}
	format := st.Queue[0]
	st.Queue = st.Queue[1:]
	rows := st.Data
	st.Data = nil

	var letters []byte
	if format == "" {
		letters = []byte{'c', 'u', 'h', 's', 'n', 'f', 'd', 'r'}
	} else {
		for i := 0; i < len(format); i++ {
			if _, ok := whoxFieldNames[format[i]]; ok {
				letters = append(letters, format[i])
			}
		}
	}

	results := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		r := row
		if format == "" && len(r) >= 7 {
			// rewrite: the 7th field ("0 Real Name") -> split hops/realname
			hopsReal := r[6]
			hops, real, _ := strings.Cut(hopsReal, " ")
			status := hops
			realname := real
			r = append(r[:6:6], status, realname)
		}
		if len(r) != len(letters) {
			c.logger().Printf("irc: who column mismatch for %s: got %d want %d, discarding batch", target, len(r), len(letters))
			results = results[:0]
			break
		}
		rec := map[string]string{}
		for i, l := range letters {
			rec[whoxFieldNames[l]] = r[i]
		}
		results = append(results, rec)
	}

	if ch := c.session.ChanData(target, false); ch != nil {
		newUsers := map[string]*UserEntry{}
		for _, rec := range results {
			nick := rec["nick"]
			if nick == "" {
				continue
			}
			u := &UserEntry{Username: rec["username"], Host: rec["host"], Modes: map[byte]bool{}}
			status := rec["status"]
			if status != "" {
				if status[0] == 'G' {
					u.Away = true
				}
				for i := 0; i < len(status); i++ {
					if m, ok := c.session.ModeForPrefix[status[i]]; ok {
						u.Modes[m] = true
					}
				}
			}
			if acct, ok := rec["account"]; ok {
				if acct == "0" {
					u.Account = ""
					u.IsRegistered = false
				} else if acct != "" {
					u.Account = acct
					u.IsRegistered = true
				}
			}
			newUsers[lower(nick)] = u
		}
		ch.Users = newUsers
	}

	c.events.Emit("who"+target, results)
	c.events.Emit("who", target, results)

	if syncStart, ok := c.session.SyncChans[target]; ok {
		_ = syncStart
		delete(c.session.SyncChans, target)
		c.events.Emit("joinsync", target)
	}
}

func (c *Client) onListItem(f frame.Frame) {
	if len(f.Args) < 3 {
		return
	}
	name := f.Args[1]
	users, _ := strconv.Atoi(f.Args[2])
	topic := argAt(f.Args, len(f.Args)-1)
	entry := ChannelListEntry{Name: name, Users: users, Topic: topic}
	c.session.ChannelList = append(c.session.ChannelList, entry)
	c.events.Emit("channellist_item", entry)
}

func (c *Client) onAccount(f frame.Frame) {
	account := argAt(f.Args, 0)
	for _, ch := range c.session.Chans {
		u, ok := ch.Users[lower(f.Nick)]
		if !ok {
			continue
		}
		if account == "*" {
			u.Account = ""
			u.IsRegistered = false
		} else {
			u.Account = account
			u.IsRegistered = true
		}
	}
}

func (c *Client) rejoinConfiguredChannels() {
	for _, ch := range c.opt.Channels {
		c.send(frame.Serialize("JOIN", ch))
	}
}
