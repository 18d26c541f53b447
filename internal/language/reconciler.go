// -----------------------------------------------------------------------
// Language Reconciliation - Re-fetch language-dependent content on change
// -----------------------------------------------------------------------

package language

import (
	"context"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/interfaces"
)

// Source identifies one language-dependent data source tracked by the
// reconciler.
type Source string

const (
	SourceChart           Source = "chart"
	SourceInterpretations Source = "interpretations"
)

// Normalize strips the region subtag from a language code so region-only
// changes do not spuriously trigger reloads. "en-US" and "en_GB" both
// normalize to "en".
func Normalize(code string) string {
	code = strings.TrimSpace(strings.ToLower(code))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		code = code[:idx]
	}
	return code
}

// ReloadFunc re-fetches one data source in the given language.
type ReloadFunc func(ctx context.Context, language string) error

// Reconciler watches the UI language signal for one chart view and triggers
// re-fetches of language-dependent server state at most once per distinct
// language transition.
//
// The reconciler is deliberately independent of the job poller: a language
// change never restarts an in-flight chart-generation poll.
type Reconciler struct {
	mu         sync.Mutex
	lastLoaded map[Source]string

	session               interfaces.SessionProvider
	reloadChart           ReloadFunc
	reloadInterpretations ReloadFunc
	logger                arbor.ILogger
}

// NewReconciler creates a reconciler for one chart view. The reload functions
// are best-effort: failures are logged and stale content from the previous
// language remains displayed.
func NewReconciler(session interfaces.SessionProvider, reloadChart, reloadInterpretations ReloadFunc, logger arbor.ILogger) *Reconciler {
	return &Reconciler{
		lastLoaded:            make(map[Source]string),
		session:               session,
		reloadChart:           reloadChart,
		reloadInterpretations: reloadInterpretations,
		logger:                logger,
	}
}

// Bind subscribes the reconciler to language-change events. Event payloads
// are the new language code.
func (r *Reconciler) Bind(events interfaces.EventService) error {
	return events.Subscribe(interfaces.EventLanguageChanged, func(ctx context.Context, event interfaces.Event) error {
		code, ok := event.Payload.(string)
		if !ok {
			return nil
		}
		r.Observe(ctx, code)
		return nil
	})
}

// Observe processes one observation of the current language. The first
// observed language is recorded without a reload, since content was just
// loaded in that language. Each subsequent distinct transition triggers the
// chart reload (always) and the interpretations reload (only when the
// account's email is verified).
//
// Markers are updated upon triggering, not upon completion, so a re-observed
// signal cannot duplicate an in-flight reload.
func (r *Reconciler) Observe(ctx context.Context, code string) {
	lang := Normalize(code)
	if lang == "" {
		return
	}

	r.mu.Lock()

	chartLast, seen := r.lastLoaded[SourceChart]
	if !seen {
		// Initial load already happened in this language.
		r.lastLoaded[SourceChart] = lang
		r.lastLoaded[SourceInterpretations] = lang
		r.mu.Unlock()
		return
	}

	reloadChart := chartLast != lang
	if reloadChart {
		r.lastLoaded[SourceChart] = lang
	}

	reloadInterps := r.lastLoaded[SourceInterpretations] != lang && r.session.EmailVerified()
	if reloadInterps {
		r.lastLoaded[SourceInterpretations] = lang
	}

	r.mu.Unlock()

	if reloadChart && r.reloadChart != nil {
		if err := r.reloadChart(ctx, lang); err != nil {
			r.logger.Warn().Err(err).Str("language", lang).Msg("Chart reload failed, keeping previous-language content")
		}
	}

	if reloadInterps && r.reloadInterpretations != nil {
		if err := r.reloadInterpretations(ctx, lang); err != nil {
			r.logger.Warn().Err(err).Str("language", lang).Msg("Interpretations reload failed, keeping previous-language content")
		}
	}
}

// LastLoaded returns the last language for which the given source was loaded,
// or empty when nothing has been observed yet.
func (r *Reconciler) LastLoaded(source Source) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLoaded[source]
}
