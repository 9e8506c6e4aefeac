package areas

import "testing"

func TestResolveAreaCodeAliases(t *testing.T) {
	cases := []struct {
		name string
		code string
	}{
		{"Jumeirah Village Circle", "621"},
		{"JVC", "621"},
		{"Al Barsha South 4", "621"},
		{"  al barsha  south 4 ", "621"},
		{"Marsa Dubai", "392"},
		{"Dubai Marina", "392"},
		{"Madinat Al Mataar", "717"},
	}
	for _, c := range cases {
		code, ok := ResolveAreaCode(c.name)
		if !ok {
			t.Fatalf("expected %q to resolve", c.name)
		}
		if code != c.code {
			t.Fatalf("wrong code for %q: got=%s want=%s", c.name, code, c.code)
		}
	}
}

func TestResolveAreaCodeUnknown(t *testing.T) {
	if _, ok := ResolveAreaCode("Atlantis"); ok {
		t.Fatal("expected unknown area to fail resolution")
	}
	if _, ok := ResolveAreaCode(""); ok {
		t.Fatal("expected empty name to fail resolution")
	}
}

func TestRegistryAndCommunityNamesShareCode(t *testing.T) {
	for _, p := range profiles {
		regCode, ok := ResolveAreaCode(p.RegistryName)
		if !ok {
			t.Fatalf("registry name %q does not resolve", p.RegistryName)
		}
		comCode, ok := ResolveAreaCode(p.CommunityName)
		if !ok {
			t.Fatalf("community name %q does not resolve", p.CommunityName)
		}
		if regCode != comCode || regCode != p.AreaCode {
			t.Fatalf("alias mismatch for %s: registry=%s community=%s want=%s",
				p.CommunityName, regCode, comCode, p.AreaCode)
		}
	}
}

func TestProfileForExactCode(t *testing.T) {
	p, ok := ProfileFor("621")
	if !ok {
		t.Fatal("expected profile for 621")
	}
	if p.CommunityName != "Jumeirah Village Circle" {
		t.Fatalf("unexpected profile: %s", p.CommunityName)
	}
	if _, ok := ProfileFor("999"); ok {
		t.Fatal("expected no profile for unknown code")
	}
}

func TestNearestProfile(t *testing.T) {
	// Coordinates inside JVC should anchor to JVC itself.
	p, ok := NearestProfile(25.06, 55.21)
	if !ok {
		t.Fatal("expected an anchor profile")
	}
	if p.AreaCode != "621" {
		t.Fatalf("unexpected anchor: got=%s want=621", p.AreaCode)
	}
}
