package checksum

import "testing"

func TestSum_KnownVector(t *testing.T) {
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
}

func TestMatches(t *testing.T) {
	data := []byte("---\ntitle: x\n---\n")
	if !Matches(data, Sum(data)) {
		t.Error("digest of data should match")
	}
	if Matches(data, Sum([]byte("other"))) {
		t.Error("different digest should not match")
	}
	if Matches(nil, "") {
		t.Error("empty sum should never match")
	}
}
