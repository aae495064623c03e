// Package summary implements the summary side of Protokoll: the per-meeting
// (template × language) variant mapping, the template loader and prompt
// construction, and the generation pipeline that drafts summaries in the
// canonical language and translates them on demand.
package summary

import (
	"encoding/json"
	"strings"
)

// CanonicalLanguage is the language every summary is first generated in.
// Translation always starts from the canonical text, so generation cost is
// paid once per template rather than once per (template, language) pair.
const CanonicalLanguage = "en"

// NoTemplateID is the sentinel template id that always means "no custom
// section scaffolding, use the model's built-in summary instructions".
const NoTemplateID = "default"

// legacyMigrationTemplateID receives legacy plain-text values when the
// record carries no template id of its own.
const legacyMigrationTemplateID = "standard"

// VariantSource says where a looked-up variant's text came from.
type VariantSource string

const (
	// SourceCanonical marks text generated in the canonical language.
	SourceCanonical VariantSource = "canonical"

	// SourceTranslated marks a real translation stored for the requested
	// language.
	SourceTranslated VariantSource = "translated"

	// SourceFallback marks canonical text returned because no translation
	// exists for the requested language yet.
	SourceFallback VariantSource = "fallback"
)

// Variant is one summary text resolved for a (template, language) lookup,
// discriminated by where it came from so callers can tell a real
// translation from a canonical fallback.
type Variant struct {
	Text   string        `json:"text"`
	Source VariantSource `json:"source"`
}

// Payload is the decoded per-meeting variant mapping: canonical entries
// keyed by template id, translations keyed by "templateID_lang". It is
// decoded once at the storage boundary and always re-encoded as structured
// JSON on write, so legacy plain-text records exist only transiently.
type Payload struct {
	variants map[string]string
}

// DecodePayload decodes a raw stored result. A JSON object becomes the
// mapping directly. Anything else — the legacy plain-text form, or empty —
// is migrated: non-empty text lands under migrateKey (the record's own
// template id; "standard" when the record has none).
func DecodePayload(raw, migrateKey string) Payload {
	p := Payload{variants: make(map[string]string)}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return p
	}

	if strings.HasPrefix(trimmed, "{") {
		var m map[string]string
		if err := json.Unmarshal([]byte(trimmed), &m); err == nil {
			for k, v := range m {
				p.variants[k] = v
			}
			return p
		}
	}

	if migrateKey == "" {
		migrateKey = legacyMigrationTemplateID
	}
	p.variants[migrateKey] = raw
	return p
}

// Encode serializes the mapping as a JSON object.
func (p Payload) Encode() (string, error) {
	data, err := json.Marshal(p.variants)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// TranslatedKey builds the mapping key for a translated variant.
func TranslatedKey(templateID, language string) string {
	return templateID + "_" + language
}

// Set stores text under key, overwriting any previous value.
func (p Payload) Set(key, text string) {
	p.variants[key] = text
}

// Get returns the raw value stored under key.
func (p Payload) Get(key string) (string, bool) {
	v, ok := p.variants[key]
	return v, ok
}

// Len returns the number of stored variants.
func (p Payload) Len() int {
	return len(p.variants)
}

// Lookup resolves a (template, language) pair to a Variant.
//
// Canonical-language lookups return the template's canonical entry or nil —
// never another template's text; nil tells the caller this template was
// never generated. Non-canonical lookups prefer the stored translation and
// otherwise fall back to the canonical entry with SourceFallback, since a
// partial answer beats none.
func (p Payload) Lookup(templateID, language string) *Variant {
	if language == "" || language == CanonicalLanguage {
		if text, ok := p.variants[templateID]; ok {
			return &Variant{Text: text, Source: SourceCanonical}
		}
		return nil
	}

	if text, ok := p.variants[TranslatedKey(templateID, language)]; ok {
		return &Variant{Text: text, Source: SourceTranslated}
	}
	if text, ok := p.variants[templateID]; ok {
		return &Variant{Text: text, Source: SourceFallback}
	}
	return nil
}

// CanonicalForTranslation resolves the canonical text a translation should
// start from, walking the compatibility chain templateID → "default" →
// "standard" for records written before template support. Returns ok=false
// when nothing in the chain exists.
func (p Payload) CanonicalForTranslation(templateID string) (text string, ok bool) {
	for _, key := range []string{templateID, NoTemplateID, legacyMigrationTemplateID} {
		if v, found := p.variants[key]; found {
			return v, true
		}
	}
	return "", false
}
