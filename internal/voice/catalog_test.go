package voice

import (
	"errors"
	"strings"
	"testing"
)

func mustDefaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(DefaultIdentities...)
	if err != nil {
		t.Fatalf("NewCatalog(DefaultIdentities): %v", err)
	}
	return c
}

func TestNewCatalog_DefaultIdentities(t *testing.T) {
	t.Parallel()
	c := mustDefaultCatalog(t)
	if got := c.Default().Name; got != "Hope" {
		t.Errorf("Default().Name = %q, want Hope", got)
	}
	if n := len(c.All()); n != len(DefaultIdentities) {
		t.Errorf("len(All()) = %d, want %d", n, len(DefaultIdentities))
	}
}

func TestNewCatalog_DefaultFlagInvariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		voices []Identity
		want   string
	}{
		{
			name: "no default",
			voices: []Identity{
				{ID: "a", Name: "A", Gender: Female},
				{ID: "b", Name: "B", Gender: Male},
			},
			want: "no voice is flagged as default",
		},
		{
			name: "two defaults",
			voices: []Identity{
				{ID: "a", Name: "A", Gender: Female, Default: true},
				{ID: "b", Name: "B", Gender: Male, Default: true},
			},
			want: "2 voices are flagged as default",
		},
		{
			name:   "empty catalog",
			voices: nil,
			want:   "no voice is flagged as default",
		},
		{
			name: "duplicate name",
			voices: []Identity{
				{ID: "a", Name: "Hope", Default: true},
				{ID: "b", Name: "hope"},
			},
			want: "duplicate",
		},
		{
			name:   "missing id",
			voices: []Identity{{Name: "Hope", Default: true}},
			want:   "provider voice id is empty",
		},
		{
			name:   "invalid gender",
			voices: []Identity{{ID: "a", Name: "Hope", Gender: "robot", Default: true}},
			want:   "gender",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCatalog(tt.voices...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error %T is not a *ConfigError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestCatalog_VoiceID(t *testing.T) {
	t.Parallel()
	c := mustDefaultCatalog(t)

	carla, _ := c.Lookup("Carla")
	if got := c.VoiceID("cArLa"); got != carla.ID {
		t.Errorf("VoiceID(cArLa) = %q, want %q", got, carla.ID)
	}
	if got := c.VoiceID("Nobody"); got != c.Default().ID {
		t.Errorf("VoiceID(Nobody) = %q, want default %q", got, c.Default().ID)
	}
	if got := c.VoiceID(""); got != c.Default().ID {
		t.Errorf("VoiceID(\"\") = %q, want default %q", got, c.Default().ID)
	}
}

func TestCatalog_ByGender(t *testing.T) {
	t.Parallel()
	c := mustDefaultCatalog(t)

	males := c.ByGender(Male)
	if len(males) != 2 {
		t.Fatalf("ByGender(male) returned %d voices, want 2", len(males))
	}
	for _, v := range males {
		if v.Gender != Male {
			t.Errorf("voice %q has gender %q", v.Name, v.Gender)
		}
	}

	only, err := NewCatalog(Identity{ID: "x", Name: "Solo", Gender: Female, Default: true})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	got := only.ByGender(Male)
	if got == nil {
		t.Error("ByGender should return an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("ByGender(male) = %v, want empty", got)
	}
}

func TestCatalog_AllReturnsCopy(t *testing.T) {
	t.Parallel()
	c := mustDefaultCatalog(t)

	all := c.All()
	all[0].Name = "Mutated"

	if c.All()[0].Name == "Mutated" {
		t.Error("mutating All() result changed the catalog")
	}
}

func TestIdentity_HasTag(t *testing.T) {
	t.Parallel()
	id := Identity{Tags: []string{"Warm", "gentle"}}
	if !id.HasTag("warm") {
		t.Error("HasTag(warm) = false, want true")
	}
	if id.HasTag("bright") {
		t.Error("HasTag(bright) = true, want false")
	}
}
