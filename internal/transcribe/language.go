package transcribe

import "strings"

// Language hints accepted from callers in addition to explicit codes. Both
// auto variants make the engine detect the language itself; auto-translate
// additionally tells the UI layer to offer translated summaries by default,
// which is of no concern to the engine call.
const (
	LanguageAuto          = "auto"
	LanguageAutoTranslate = "auto-translate"
)

// whisperLanguages maps the language codes understood by Whisper-family
// engines to their English display names. Used to validate explicit hints
// and to label detected languages.
var whisperLanguages = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"de": "German",
	"es": "Spanish",
	"ru": "Russian",
	"ko": "Korean",
	"fr": "French",
	"ja": "Japanese",
	"pt": "Portuguese",
	"tr": "Turkish",
	"pl": "Polish",
	"ca": "Catalan",
	"nl": "Dutch",
	"ar": "Arabic",
	"sv": "Swedish",
	"it": "Italian",
	"id": "Indonesian",
	"hi": "Hindi",
	"fi": "Finnish",
	"vi": "Vietnamese",
	"he": "Hebrew",
	"uk": "Ukrainian",
	"el": "Greek",
	"ms": "Malay",
	"cs": "Czech",
	"ro": "Romanian",
	"da": "Danish",
	"hu": "Hungarian",
	"ta": "Tamil",
	"no": "Norwegian",
	"th": "Thai",
	"ur": "Urdu",
	"hr": "Croatian",
	"bg": "Bulgarian",
	"lt": "Lithuanian",
	"la": "Latin",
	"mi": "Maori",
	"ml": "Malayalam",
	"cy": "Welsh",
	"sk": "Slovak",
	"te": "Telugu",
	"fa": "Persian",
	"lv": "Latvian",
	"bn": "Bengali",
	"sr": "Serbian",
	"az": "Azerbaijani",
	"sl": "Slovenian",
	"kn": "Kannada",
	"et": "Estonian",
	"mk": "Macedonian",
	"br": "Breton",
	"eu": "Basque",
	"is": "Icelandic",
	"hy": "Armenian",
	"ne": "Nepali",
	"mn": "Mongolian",
	"bs": "Bosnian",
	"kk": "Kazakh",
	"sq": "Albanian",
	"sw": "Swahili",
	"gl": "Galician",
	"mr": "Marathi",
	"pa": "Punjabi",
	"si": "Sinhala",
	"km": "Khmer",
	"sn": "Shona",
	"yo": "Yoruba",
	"so": "Somali",
	"af": "Afrikaans",
	"oc": "Occitan",
	"ka": "Georgian",
	"be": "Belarusian",
	"tg": "Tajik",
	"sd": "Sindhi",
	"gu": "Gujarati",
	"am": "Amharic",
	"yi": "Yiddish",
	"lo": "Lao",
	"uz": "Uzbek",
	"fo": "Faroese",
	"ht": "Haitian Creole",
	"ps": "Pashto",
	"tk": "Turkmen",
	"nn": "Nynorsk",
	"mt": "Maltese",
	"sa": "Sanskrit",
	"lb": "Luxembourgish",
	"my": "Myanmar",
	"bo": "Tibetan",
	"tl": "Tagalog",
	"mg": "Malagasy",
	"as": "Assamese",
	"tt": "Tatar",
	"haw": "Hawaiian",
	"ln": "Lingala",
	"ha": "Hausa",
	"ba": "Bashkir",
	"jw": "Javanese",
	"su": "Sundanese",
	"yue": "Cantonese",
}

// ResolveEngineLanguage maps a caller-supplied language hint to the value
// passed to the engine. Both auto variants and unknown codes resolve to ""
// (engine auto-detection); known explicit codes pass through lowercased.
func ResolveEngineLanguage(hint string) string {
	code := strings.ToLower(strings.TrimSpace(hint))
	switch code {
	case "", LanguageAuto, LanguageAutoTranslate:
		return ""
	}
	if _, ok := whisperLanguages[code]; ok {
		return code
	}
	return ""
}

// LanguageName returns the display name for a language code, or the code
// itself when unknown.
func LanguageName(code string) string {
	if name, ok := whisperLanguages[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
