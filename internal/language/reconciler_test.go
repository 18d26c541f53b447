package language

import (
	"context"
	"testing"

	"golang.org/x/oauth2"

	"github.com/siderealab/siderea/internal/common"
)

// fakeSession satisfies interfaces.SessionProvider for reconciler tests.
type fakeSession struct {
	verified bool
}

func (f *fakeSession) Token(ctx context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "test"}, nil
}

func (f *fakeSession) IsAuthenticated() bool {
	return true
}

func (f *fakeSession) EmailVerified() bool {
	return f.verified
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"en-US", "en"},
		{"en_GB", "en"},
		{"pt-BR", "pt"},
		{"PT", "pt"},
		{" es ", "es"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestObserveTriggersOncePerTransition(t *testing.T) {
	chartReloads := []string{}
	interpReloads := []string{}

	r := NewReconciler(&fakeSession{verified: true},
		func(ctx context.Context, lang string) error {
			chartReloads = append(chartReloads, lang)
			return nil
		},
		func(ctx context.Context, lang string) error {
			interpReloads = append(interpReloads, lang)
			return nil
		},
		common.GetLogger())

	ctx := context.Background()
	for _, lang := range []string{"en", "en", "pt", "pt", "en"} {
		r.Observe(ctx, lang)
	}

	// Exactly two transitions: en->pt and pt->en. The first observation and
	// the repeats trigger nothing.
	if len(chartReloads) != 2 || chartReloads[0] != "pt" || chartReloads[1] != "en" {
		t.Errorf("chart reloads = %v, want [pt en]", chartReloads)
	}
	if len(interpReloads) != 2 {
		t.Errorf("interpretation reloads = %v, want two", interpReloads)
	}
}

func TestObserveIgnoresRegionOnlyChanges(t *testing.T) {
	reloads := 0
	r := NewReconciler(&fakeSession{verified: true},
		func(ctx context.Context, lang string) error {
			reloads++
			return nil
		},
		nil,
		common.GetLogger())

	ctx := context.Background()
	r.Observe(ctx, "en-US")
	r.Observe(ctx, "en-GB")
	r.Observe(ctx, "en")

	if reloads != 0 {
		t.Errorf("region-only changes triggered %d reloads, want 0", reloads)
	}

	r.Observe(ctx, "pt-BR")
	if reloads != 1 {
		t.Errorf("reloads = %d after real transition, want 1", reloads)
	}
	if got := r.LastLoaded(SourceChart); got != "pt" {
		t.Errorf("LastLoaded(chart) = %q, want pt", got)
	}
}

func TestObserveGatesInterpretationsOnVerification(t *testing.T) {
	session := &fakeSession{verified: false}
	chartReloads := 0
	interpReloads := 0

	r := NewReconciler(session,
		func(ctx context.Context, lang string) error {
			chartReloads++
			return nil
		},
		func(ctx context.Context, lang string) error {
			interpReloads++
			return nil
		},
		common.GetLogger())

	ctx := context.Background()
	r.Observe(ctx, "en")
	r.Observe(ctx, "pt")

	if chartReloads != 1 {
		t.Errorf("chart reloads = %d, want 1", chartReloads)
	}
	if interpReloads != 0 {
		t.Errorf("interpretation reloads = %d for unverified account, want 0", interpReloads)
	}

	// Once verified, the next transition reloads interpretations too.
	session.verified = true
	r.Observe(ctx, "es")
	if interpReloads != 1 {
		t.Errorf("interpretation reloads = %d after verification, want 1", interpReloads)
	}
}

func TestObserveFirstLanguageRecordsWithoutReload(t *testing.T) {
	reloads := 0
	r := NewReconciler(&fakeSession{verified: true},
		func(ctx context.Context, lang string) error {
			reloads++
			return nil
		},
		nil,
		common.GetLogger())

	r.Observe(context.Background(), "pt-BR")

	if reloads != 0 {
		t.Errorf("first observation triggered %d reloads, want 0", reloads)
	}
	if got := r.LastLoaded(SourceChart); got != "pt" {
		t.Errorf("LastLoaded(chart) = %q, want pt", got)
	}
}

func TestReloadFailureIsSilent(t *testing.T) {
	r := NewReconciler(&fakeSession{verified: true},
		func(ctx context.Context, lang string) error {
			return context.DeadlineExceeded
		},
		nil,
		common.GetLogger())

	ctx := context.Background()
	r.Observe(ctx, "en")
	r.Observe(ctx, "pt")

	// Best-effort: the marker still advances so the failure is not retried
	// on the next unrelated observation.
	if got := r.LastLoaded(SourceChart); got != "pt" {
		t.Errorf("LastLoaded(chart) = %q, want pt", got)
	}
}
