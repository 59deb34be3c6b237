package rabbitmq

import (
	"encoding/json"
	"testing"

	"github.com/glitchbyte/streambot/internal/twitch"
)

func TestDecodeEvent(t *testing.T) {
	highlighted := true
	body, err := json.Marshal(twitch.Event{
		UserID:          "1234",
		Handle:          "viewer",
		MessageID:       "m1",
		Channel:         "testchan",
		Text:            "!ai hello",
		IsReply:         true,
		ParentMessageID: "m0",
		Highlighted:     &highlighted,
		Bits:            50,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	ev, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.UserID != "1234" || ev.Handle != "viewer" || ev.Text != "!ai hello" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !ev.IsReply || ev.ParentMessageID != "m0" {
		t.Fatalf("reply metadata lost: %+v", ev)
	}
	if ev.Highlighted == nil || !*ev.Highlighted || ev.Bits != 50 {
		t.Fatalf("flags lost: %+v", ev)
	}
}

func TestDecodeEvent_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":    `{{`,
		"no identity": `{"channel": "testchan", "text": "hi"}`,
		"no handle":   `{"user_id": "1234", "text": "hi"}`,
	}
	for name, body := range cases {
		if _, err := DecodeEvent([]byte(body)); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}
