package domain

import "testing"

func FuzzParseDomainID(f *testing.F) {
	for _, seed := range []string{"", partnerUUID, "00000000-0000-0000-0000-000000000000", "{" + partnerUUID + "}", "\xff\xfe"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		d, err := ParseDomainID(in)
		if err != nil {
			return
		}
		if d.IsNil() {
			t.Fatalf("%q parsed to the nil id", in)
		}
		again, err := ParseDomainID(d.String())
		if err != nil || again != d {
			t.Fatalf("%q: canonical form %s does not parse back (%v)", in, d, err)
		}
	})
}
