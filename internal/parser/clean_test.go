package parser

import "testing"

func TestCleanCollapsesWhitespace(t *testing.T) {
	out := Clean("  hello   world\t again ")
	if out != "hello world again" {
		t.Fatalf("unexpected clean output: %q", out)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{"  a  b ", "plain", "x\n\ny", ""}
	for _, in := range inputs {
		once := Clean(in)
		if twice := Clean(once); twice != once {
			t.Fatalf("Clean not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestCleanDropsMediaPlaceholders(t *testing.T) {
	placeholders := []string{
		"<Media omitted>",
		"image omitted",
		"VIDEO OMITTED",
		"audio omitted",
		"document omitted",
		"location omitted",
	}
	for _, p := range placeholders {
		if out := Clean(p); out != "" {
			t.Fatalf("placeholder %q not dropped, got %q", p, out)
		}
	}
}
