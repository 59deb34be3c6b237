package command

import (
	"reflect"
	"testing"
)

func testClassifier() *Classifier {
	return NewClassifier([]string{"assistant", "neko", "sage", "pirate", "hype"})
}

func TestClassify_ReplyAnchorWinsOverEverything(t *testing.T) {
	c := testClassifier()

	// even text that looks like another command stays a Chat when replying
	cmd := c.Classify("!fact", "parent-123")
	chat, ok := cmd.(Chat)
	if !ok {
		t.Fatalf("expected Chat, got %T", cmd)
	}
	if chat.AnchorMessageID != "parent-123" {
		t.Fatalf("unexpected anchor: %q", chat.AnchorMessageID)
	}
	if chat.Text != "!fact" {
		t.Fatalf("unexpected text: %q", chat.Text)
	}
}

func TestClassify_NonCommandsReturnNil(t *testing.T) {
	c := testClassifier()
	for _, text := range []string{
		"hello there",
		"what a great stream",
		"ai is cool but this is not a command",
		"ru how are you", // no bang
	} {
		if cmd := c.Classify(text, ""); cmd != nil {
			t.Fatalf("expected nil for %q, got %#v", text, cmd)
		}
	}
}

func TestClassify_ChangeRoleExactlyTwoParts(t *testing.T) {
	c := testClassifier()

	cmd := c.Classify("!ai neko", "")
	role, ok := cmd.(ChangeRole)
	if !ok {
		t.Fatalf("expected ChangeRole, got %T", cmd)
	}
	if role.Name != "neko" {
		t.Fatalf("unexpected role: %q", role.Name)
	}

	// with trailing text the persona is a per-message override instead
	cmd = c.Classify("!ai neko Привет", "")
	chat, ok := cmd.(Chat)
	if !ok {
		t.Fatalf("expected Chat, got %T", cmd)
	}
	if chat.Role != "neko" || chat.Text != "Привет" {
		t.Fatalf("unexpected chat: %+v", chat)
	}
}

func TestClassify_ChatTemperaturePercent(t *testing.T) {
	c := testClassifier()

	cmd := c.Classify("!ai 50 tell me a story", "")
	chat, ok := cmd.(Chat)
	if !ok {
		t.Fatalf("expected Chat, got %T", cmd)
	}
	if chat.Temperature != 1.0 {
		t.Fatalf("expected temperature 1.0, got %v", chat.Temperature)
	}
	if chat.Text != "tell me a story" {
		t.Fatalf("unexpected text: %q", chat.Text)
	}

	// 1% clamps up to 0.1, 100% maps to 2.0
	if got := c.Classify("!ai 1 hi", "").(Chat).Temperature; got != 0.1 {
		t.Fatalf("expected 0.1, got %v", got)
	}
	if got := c.Classify("!ai 100 hi", "").(Chat).Temperature; got != 2.0 {
		t.Fatalf("expected 2.0, got %v", got)
	}

	// persona and temperature together, either order of discovery
	chat = c.Classify("!ai sage 80 explain entropy", "").(Chat)
	if chat.Role != "sage" || chat.Temperature != 1.6 || chat.Text != "explain entropy" {
		t.Fatalf("unexpected chat: %+v", chat)
	}

	// out-of-range numbers stay in the text
	chat = c.Classify("!ai 150 is a number", "").(Chat)
	if chat.Temperature != 0 || chat.Text != "150 is a number" {
		t.Fatalf("unexpected chat: %+v", chat)
	}
}

func TestClassify_AIPrefixCaseAndAliases(t *testing.T) {
	c := testClassifier()
	for _, text := range []string{"!AI hello", "!Ai hello", "!ии привет", "!gpt hello"} {
		if _, ok := c.Classify(text, "").(Chat); !ok {
			t.Fatalf("expected Chat for %q", text)
		}
	}
	// prefix must be a whole token: !airhorn is a sound alert
	if _, ok := c.Classify("!airhorn", "").(SoundAlert); !ok {
		t.Fatalf("expected SoundAlert for !airhorn")
	}
}

func TestClassify_Translate(t *testing.T) {
	c := testClassifier()

	cmd := c.Classify("!ru hello world", "")
	tr, ok := cmd.(Translate)
	if !ok {
		t.Fatalf("expected Translate, got %T", cmd)
	}
	if tr.Lang != "ru" || tr.Text != "hello world" {
		t.Fatalf("unexpected translate: %+v", tr)
	}

	// bare prefix without a body falls through to the sound-alert catch-all
	if _, ok := c.Classify("!ru", "").(SoundAlert); !ok {
		t.Fatalf("expected SoundAlert for bare !ru")
	}
}

func TestClassify_SimpleCommands(t *testing.T) {
	c := testClassifier()

	cases := []struct {
		text string
		want Command
	}{
		{"!holiday", Holiday{}},
		{"!праздник", Holiday{}},
		{"!fact", Fact{}},
		{"!факт", Fact{}},
		{"!compliment", Compliment{}},
		{"!compliment @viewer42", Compliment{Target: "viewer42"}},
		{"!viewers", ViewerStats{Kind: "viewers"}},
		{"!silent", ViewerStats{Kind: "silent"}},
		{"!stats", ViewerStats{Kind: "stats"}},
		{"!engine gpt-4o", ChangeEngine{Name: "gpt-4o"}},
		{"!limit 5", SetReplyLimit{N: 5, Raw: "5"}},
		{"!limit eleven", SetReplyLimit{N: 0, Raw: "eleven"}},
		{"!drumroll", SoundAlert{Alias: "drumroll"}},
		{"!drum roll", SoundAlert{Alias: "drumroll"}},
	}
	for _, tc := range cases {
		got := c.Classify(tc.text, "")
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%q: expected %#v, got %#v", tc.text, tc.want, got)
		}
	}
}

func TestClassify_DecisionOrder(t *testing.T) {
	c := testClassifier()

	// viewer-stats name validation: unknown name degrades to sound alert
	if _, ok := c.Classify("!viewerstats", "").(SoundAlert); !ok {
		t.Fatalf("expected SoundAlert for unknown stats name")
	}

	// lone bang is nothing
	if cmd := c.Classify("!", ""); cmd != nil {
		t.Fatalf("expected nil for lone bang, got %#v", cmd)
	}
}
