package intent_test

import (
	"strings"
	"testing"
	"time"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/intent"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	d := intent.NewDetector()

	tests := []struct {
		name string
		text string
		want intent.Intent
	}{
		{name: "hello", text: "Hello there!", want: intent.Greeting},
		{name: "greeting phrase beats question", text: "How are you?", want: intent.Greeting},
		{name: "farewell", text: "Goodbye, friend", want: intent.Farewell},
		{name: "farewell phrase", text: "I must go now, take care", want: intent.Farewell},
		{name: "insult", text: "you are a pathetic fool", want: intent.Insult},
		{name: "hostile wins tie", text: "hey idiot", want: intent.Insult},
		{name: "threat", text: "Watch your back or I will kill you", want: intent.Threat},
		{name: "compliment", text: "Thank you, that was brilliant", want: intent.Compliment},
		{name: "question", text: "Where is the old tower?", want: intent.Question},
		{name: "request", text: "Could you help me find my way", want: intent.Request},
		{name: "trade", text: "How much for the sword? I have gold", want: intent.Trade},
		{name: "gossip", text: "Did you hear the rumors about Keith", want: intent.Gossip},
		{name: "apology", text: "I'm sorry, forgive me", want: intent.Apology},
		{name: "case folding", text: "HELLO", want: intent.Greeting},
		{name: "fullwidth normalised", text: "ｈｅｌｌｏ", want: intent.Greeting},
		{name: "apostrophe", text: "what's new", want: intent.Gossip},
		{name: "misspelled greeting", text: "helo", want: intent.Greeting},
		{name: "misspelled insult", text: "you patheitc cowrd", want: intent.Insult},
		{name: "gibberish", text: "zxqv plimb", want: intent.Unknown},
		{name: "empty", text: "", want: intent.Unknown},
		{name: "punctuation only", text: "!!! ... ,,,", want: intent.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := d.Detect(tt.text)
			if got.Intent != tt.want {
				t.Errorf("Detect(%q) = %q (matched %v), want %q", tt.text, got.Intent, got.Matched, tt.want)
			}
			if got.Pool != got.Intent.Pool() {
				t.Errorf("Pool = %q, want %q", got.Pool, got.Intent.Pool())
			}
			if got.Intent == intent.Unknown && got.Confidence != 0 {
				t.Errorf("unknown with confidence %v", got.Confidence)
			}
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("Confidence = %v out of range", got.Confidence)
			}
		})
	}
}

func TestDetectWithoutFuzzy(t *testing.T) {
	t.Parallel()

	d := intent.NewDetector(intent.WithFuzzy(false))
	if got := d.Detect("helo"); got.Intent != intent.Unknown {
		t.Errorf("Detect(helo) without fuzzy = %q, want unknown", got.Intent)
	}
}

func TestPoolMapping(t *testing.T) {
	t.Parallel()

	tests := map[intent.Intent]types.Pool{
		intent.Greeting: types.PoolGreeting,
		intent.Insult:   types.PoolTaunt,
		intent.Threat:   types.PoolThreat,
		intent.Trade:    types.PoolTrade,
		intent.Unknown:  types.PoolIdle,
	}
	for in, want := range tests {
		if got := in.Pool(); got != want {
			t.Errorf("%s.Pool() = %q, want %q", in, got, want)
		}
	}
}

func TestAdversarialInput(t *testing.T) {
	t.Parallel()

	d := intent.NewDetector()

	tests := []struct {
		name string
		text string
	}{
		{name: "one mebibyte of a", text: strings.Repeat("a", 1<<20)},
		{name: "long repeated word", text: strings.Repeat("hello ", 100_000)},
		{name: "repeated char under byte cap", text: "hell" + strings.Repeat("o", 200)},
		{name: "nested-quantifier bait", text: strings.Repeat("a", 60) + "!"},
		{name: "invalid utf8", text: "hello \xff\xfe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			start := time.Now()
			got := d.Detect(tt.text)
			if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
				t.Errorf("Detect took %v", elapsed)
			}
			if got.Intent != intent.Unknown {
				t.Errorf("Detect = %q, want unknown", got.Intent)
			}
		})
	}
}

func TestTokenCap(t *testing.T) {
	t.Parallel()

	// The greeting sits past the token cap and must not be seen.
	d := intent.NewDetector(intent.WithMaxTokens(4), intent.WithFuzzy(false))
	text := "one two three four hello"
	if got := d.Detect(text); got.Intent != intent.Unknown {
		t.Errorf("Detect = %q, want unknown", got.Intent)
	}
	if got := intent.NewDetector(intent.WithFuzzy(false)).Detect(text); got.Intent != intent.Greeting {
		t.Errorf("Detect without cap = %q, want greeting", got.Intent)
	}
}

func TestLongMixedInputIsLinear(t *testing.T) {
	t.Parallel()

	d := intent.NewDetector(intent.WithMaxInputBytes(1 << 16))
	words := []string{"abcdefghijkl", "zyxwvutsrqpo", "mnopqrstuvwx"}
	var b strings.Builder
	for b.Len() < 60_000 {
		b.WriteString(words[b.Len()%3])
		b.WriteByte(' ')
	}
	start := time.Now()
	_ = d.Detect(b.String())
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Detect took %v on a long mixed input", elapsed)
	}
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	d := intent.NewDetector()
	text := "hey, how much gold for the rumors? sorry"
	a := d.Detect(text)
	for i := 0; i < 20; i++ {
		b := d.Detect(text)
		if a.Intent != b.Intent || a.Confidence != b.Confidence || strings.Join(a.Matched, ",") != strings.Join(b.Matched, ",") {
			t.Fatalf("run %d differs: %+v vs %+v", i, a, b)
		}
	}
}
