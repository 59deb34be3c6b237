package twitch

import "testing"

const taggedLine = `@badges=moderator/1,subscriber/12;bits=100;color=#FF4500;display-name=StreamFan;first-msg=1;id=msg-abc;reply-parent-msg-id=msg-parent;user-id=1234 :streamfan!streamfan@streamfan.tmi.twitch.tv PRIVMSG #coolchannel :!ai hello there`

func TestParseMessage_Tagged(t *testing.T) {
	ev, ok := ParseMessage(taggedLine)
	if !ok {
		t.Fatalf("expected a PRIVMSG")
	}
	if ev.UserID != "1234" || ev.Handle != "StreamFan" {
		t.Fatalf("unexpected identity: %q %q", ev.UserID, ev.Handle)
	}
	if ev.MessageID != "msg-abc" || ev.Channel != "coolchannel" {
		t.Fatalf("unexpected message meta: %q %q", ev.MessageID, ev.Channel)
	}
	if ev.Text != "!ai hello there" {
		t.Fatalf("unexpected text: %q", ev.Text)
	}
	if !ev.IsReply || ev.ParentMessageID != "msg-parent" {
		t.Fatalf("reply metadata missing: %+v", ev)
	}
	if ev.Bits != 100 {
		t.Fatalf("unexpected bits: %d", ev.Bits)
	}
	if ev.Moderator == nil || !*ev.Moderator {
		t.Fatalf("moderator badge not parsed")
	}
	if ev.Subscriber == nil || !*ev.Subscriber {
		t.Fatalf("subscriber badge not parsed")
	}
	if ev.VIP != nil {
		t.Fatalf("absent badge must stay nil, got %v", *ev.VIP)
	}
	if ev.FirstMessage == nil || !*ev.FirstMessage {
		t.Fatalf("first-msg flag not parsed")
	}
}

func TestParseMessage_PlainPrivmsg(t *testing.T) {
	ev, ok := ParseMessage(":nick!nick@host PRIVMSG #chan :hello world")
	if !ok {
		t.Fatalf("expected a PRIVMSG")
	}
	if ev.Handle != "nick" || ev.Text != "hello world" || ev.Channel != "chan" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.IsReply {
		t.Fatalf("plain message must not be a reply")
	}
}

func TestParseMessage_NonPrivmsg(t *testing.T) {
	for _, line := range []string{
		"PING :tmi.twitch.tv",
		":tmi.twitch.tv 001 bot :Welcome",
		":nick!nick@host JOIN #chan",
		"",
	} {
		if _, ok := ParseMessage(line); ok {
			t.Fatalf("expected not-a-message for %q", line)
		}
	}
}

func TestUnescapeTag(t *testing.T) {
	cases := map[string]string{
		`hello\sworld`: "hello world",
		`a\:b`:         "a;b",
		`back\\slash`:  `back\slash`,
		`plain`:        "plain",
	}
	for in, want := range cases {
		if got := unescapeTag(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}
