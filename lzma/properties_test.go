package lzma

import "testing"

func TestPropertiesCode(t *testing.T) {
	for code := 0; code <= maxPropertyCode; code++ {
		p, err := PropertiesForCode(byte(code))
		if err != nil {
			t.Fatalf("PropertiesForCode(%d) error %s", code, err)
		}
		if err = p.Verify(); err != nil {
			t.Fatalf("%s: Verify error %s", p, err)
		}
		if c := p.Code(); c != byte(code) {
			t.Fatalf("%s: Code() = %d; want %d", p, c, code)
		}
	}
	if _, err := PropertiesForCode(maxPropertyCode + 1); err == nil {
		t.Fatalf("PropertiesForCode(%d) returned no error",
			maxPropertyCode+1)
	}
	p := Properties{LC: 9}
	if err := p.Verify(); err == nil {
		t.Fatalf("Verify accepted LC 9")
	}
}
