package site

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Text holds the interface strings of one locale.
type Text struct {
	Back         string
	NoPosts      string
	NotFound     string
	NotFoundHint string
	Error        string
	ToggleTheme  string
	Light        string
	Dark         string
}

type locale struct {
	tag    language.Tag
	months [12]string
	text   Text
}

var locales = []locale{
	{
		tag: language.English,
		months: [12]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
		text: Text{
			Back:         "Back to home",
			NoPosts:      "Nothing here yet.",
			NotFound:     "Page not found",
			NotFoundHint: "There is no post at this address.",
			Error:        "Something went wrong",
			ToggleTheme:  "Toggle theme",
			Light:        "Light",
			Dark:         "Dark",
		},
	},
	{
		tag: language.Russian,
		// Genitive forms, as used after a day number.
		months: [12]string{
			"января", "февраля", "марта", "апреля", "мая", "июня",
			"июля", "августа", "сентября", "октября", "ноября", "декабря",
		},
		text: Text{
			Back:         "На главную",
			NoPosts:      "Здесь пока пусто.",
			NotFound:     "Страница не найдена",
			NotFoundHint: "По этому адресу нет записи.",
			Error:        "Что-то пошло не так",
			ToggleTheme:  "Переключить тему",
			Light:        "Светлая",
			Dark:         "Тёмная",
		},
	},
}

var matcher = language.NewMatcher(func() []language.Tag {
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = l.tag
	}
	return tags
}())

// matchLocale picks the closest supported locale, falling back to
// English for anything unknown or unparseable.
func matchLocale(s string) *locale {
	tag, err := language.Parse(s)
	if err != nil {
		return &locales[0]
	}
	_, i, _ := matcher.Match(tag)
	return &locales[i]
}

// FormatDate renders t as "d MMMM, yyyy" in the given locale, e.g.
// "1 June, 2021" or "1 июня, 2021".
func FormatDate(locale string, t time.Time) string {
	return matchLocale(locale).formatDate(t)
}

func (l *locale) formatDate(t time.Time) string {
	return fmt.Sprintf("%d %s, %d", t.Day(), l.months[t.Month()-1], t.Year())
}
