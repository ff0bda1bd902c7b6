package validate

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	MsgQuestionRequired        = "Question is required"
	MsgCorrectAnswerRequired   = "Correct Answer is required"
	MsgIncorrectAnswerRequired = "Incorrect Answer is required"
	MsgAnswerRequired          = "Answer is required"
	MsgMinLength               = "Min length is %d letter"
)

var supported = []language.Tag{language.English, language.Spanish}

var matcher = language.NewMatcher(supported)

func init() {
	es := map[string]string{
		MsgQuestionRequired:        "La pregunta es obligatoria",
		MsgCorrectAnswerRequired:   "La respuesta correcta es obligatoria",
		MsgIncorrectAnswerRequired: "La respuesta incorrecta es obligatoria",
		MsgAnswerRequired:          "La respuesta es obligatoria",
		MsgMinLength:               "La longitud mínima es %d letra",
	}
	for k, v := range es {
		_ = message.SetString(language.Spanish, k, v)
	}
}

// MatchLocale picks the best supported locale for an Accept-Language
// header, falling back to def.
func MatchLocale(acceptLanguage string, def language.Tag) language.Tag {
	if acceptLanguage == "" {
		return def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return def
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return def
	}
	return supported[idx]
}

// ParseLocale parses a configured locale, defaulting to English.
func ParseLocale(s string) language.Tag {
	t, err := language.Parse(s)
	if err != nil {
		return language.English
	}
	_, idx, conf := matcher.Match(t)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}
