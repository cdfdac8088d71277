package notification

import "log/slog"

// ResolveOptions controls template resolution behavior.
type ResolveOptions struct {
	// StrictMode disables the canonical-language retry: if no requested
	// language matches, resolution fails even when an "en" template exists.
	StrictMode bool

	// IncludeMetadata additionally populates AvailableLanguages on the
	// result, which costs an extra store scan per resolution.
	IncludeMetadata bool
}

// Resolver selects the best-matching template for a channel, notification
// name, and ordered language preferences.
type Resolver struct {
	store TemplateStore
}

// NewResolver creates a new template resolver backed by the given store.
func NewResolver(store TemplateStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve tries each language preference in order and returns the first hit.
// When nothing matches, strict mode is off, and the canonical language was
// not already among the preferences, it retries with the canonical language
// and marks FallbackUsed on success.
//
// The order is deterministic: user-preferred languages first, canonical
// fallback last. Returns nil when the pair is unknown in every language.
func (r *Resolver) Resolve(channel Channel, name NotificationType, langPrefs []string, opts ResolveOptions) *ResolvedTemplate {
	if !r.store.Exists(channel, name) {
		return nil
	}

	var available []string
	if opts.IncludeMetadata {
		available = r.store.Languages(channel, name)
	}

	requested := ""
	if len(langPrefs) > 0 {
		requested = langPrefs[0]
	}

	canonicalTried := false
	for _, lang := range langPrefs {
		if lang == "" {
			continue
		}
		if lang == CanonicalLanguage {
			canonicalTried = true
		}
		tpl, err := r.store.Get(channel, name, lang)
		if err != nil {
			slog.Warn("template lookup failed, treating as miss",
				"channel", channel, "name", name, "language", lang, "error", err)
			continue
		}
		if tpl != nil {
			return &ResolvedTemplate{
				Template:           tpl,
				SelectedLanguage:   lang,
				RequestedLanguage:  requested,
				FallbackUsed:       false,
				AvailableLanguages: available,
			}
		}
	}

	if opts.StrictMode || canonicalTried {
		return nil
	}

	tpl, err := r.store.Get(channel, name, CanonicalLanguage)
	if err != nil {
		slog.Warn("canonical template lookup failed",
			"channel", channel, "name", name, "error", err)
		return nil
	}
	if tpl == nil {
		return nil
	}

	return &ResolvedTemplate{
		Template:           tpl,
		SelectedLanguage:   CanonicalLanguage,
		RequestedLanguage:  requested,
		FallbackUsed:       true,
		AvailableLanguages: available,
	}
}
