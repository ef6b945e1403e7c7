package cache

import (
	"testing"

	"github.com/preciz/chunx"
)

func TestKeyIsDeterministic(t *testing.T) {
	cfg := chunx.Config{ChunkSize: 512, ChunkOverlap: 0.25}

	a := Key(chunx.StrategyToken, cfg, "some text")
	b := Key(chunx.StrategyToken, cfg, "some text")
	if a != b {
		t.Errorf("identical requests produced different keys: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
}

func TestKeyVariesWithInputs(t *testing.T) {
	cfg := chunx.Config{ChunkSize: 512, ChunkOverlap: 0.25}
	base := Key(chunx.StrategyToken, cfg, "some text")

	if Key(chunx.StrategyWord, cfg, "some text") == base {
		t.Error("different strategies produced the same key")
	}
	if Key(chunx.StrategyToken, cfg, "other text") == base {
		t.Error("different texts produced the same key")
	}

	altered := cfg
	altered.ChunkSize = 256
	if Key(chunx.StrategyToken, altered, "some text") == base {
		t.Error("different settings produced the same key")
	}
}
