package irc

import "testing"

func TestModeMerge(t *testing.T) {
	c := newTestClient()
	c.session.PrefixForMode['o'] = '@'
	c.session.PrefixForMode['v'] = '+'

	c.session.ChanData("#chan", true)
	feedFrame(c, ":srv MODE #chan +o alice")
	feedFrame(c, ":srv MODE #chan -o alice")
	feedFrame(c, ":srv MODE #chan +v alice")

	u := c.session.Chans["#chan"].Users["alice"]
	if u == nil {
		t.Fatal("expected alice to have a user entry")
	}
	if len(u.Modes) != 1 || !u.Modes['v'] {
		t.Fatalf("alice.modes = %v, want {v}", u.Modes)
	}
}

func TestNickInUseEscalation(t *testing.T) {
	c := newTestClient()
	c.opt.Nick = "nick"

	var sent []string
	c.sender = newDirectSender(func(b []byte) { sent = append(sent, string(b)) })

	feedFrame(c, ":srv 433 * nick :Nickname is already in use.")
	feedFrame(c, ":srv 433 * nick1 :Nickname is already in use.")
	feedFrame(c, ":srv 433 * nick2 :Nickname is already in use.")

	want := []string{"NICK nick1\r\n", "NICK nick2\r\n", "NICK nick3\r\n"}
	if len(sent) != 3 {
		t.Fatalf("sent = %v", sent)
	}
	for i, w := range want {
		if sent[i] != w {
			t.Errorf("sent[%d] = %q, want %q", i, sent[i], w)
		}
	}
}

func TestNickRekeyAcrossChannels(t *testing.T) {
	c := newTestClient()
	for _, ch := range []string{"#a", "#b"} {
		cd := c.session.ChanData(ch, true)
		cd.Users["old"] = &UserEntry{Username: "u", Host: "h", Modes: map[byte]bool{}}
	}

	feedFrame(c, ":old!u@h NICK :new")

	for _, ch := range []string{"#a", "#b"} {
		cd := c.session.Chans[ch]
		if _, ok := cd.Users["old"]; ok {
			t.Errorf("%s: old nick still present", ch)
		}
		if _, ok := cd.Users["new"]; !ok {
			t.Errorf("%s: new nick missing", ch)
		}
	}
}

func TestQuitChangingHostPreservesMembership(t *testing.T) {
	c := newTestClient()
	cd := c.session.ChanData("#chan", true)
	cd.Users["someone"] = &UserEntry{Modes: map[byte]bool{}}

	var realquit, quitStar bool
	c.events.On("realquit", func(args ...any) { realquit = true })
	c.events.On("quit", func(args ...any) { quitStar = true })

	feedFrame(c, ":someone!u@h QUIT :Changing host")

	if !quitStar {
		t.Error("expected quit event")
	}
	if realquit {
		t.Error("realquit should not fire for Changing host")
	}
	if _, ok := cd.Users["someone"]; !ok {
		t.Error("membership should be preserved for Changing host")
	}
}

func TestQuitOrdinaryRemovesMembership(t *testing.T) {
	c := newTestClient()
	cd := c.session.ChanData("#chan", true)
	cd.Users["someone"] = &UserEntry{Modes: map[byte]bool{}}

	var realquit bool
	c.events.On("realquit", func(args ...any) { realquit = true })

	feedFrame(c, ":someone!u@h QUIT :bye")

	if !realquit {
		t.Error("expected realquit for an ordinary quit")
	}
	if _, ok := cd.Users["someone"]; ok {
		t.Error("membership should be removed for an ordinary quit")
	}
}
