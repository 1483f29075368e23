// Package i18n holds the user-facing texts of the raise-hand feature.
//
// Keys follow the RISE_HAND.* naming of the tabletop module's language
// files. English is the fallback for any language without a translation.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	NotifyAlreadyQueued = "RISE_HAND.Notify.AlreadyInQueue"
	NotifyAdded         = "RISE_HAND.Notify.Added"
	NotifyRemoved       = "RISE_HAND.Notify.Removed"
	NotifyCleared       = "RISE_HAND.Notify.Cleared"
	NotifyClearedRemote = "RISE_HAND.Notify.ClearedByGM"
	NotifyGivenWord     = "RISE_HAND.Notify.GivenWord"
	ChatRaised          = "RISE_HAND.Chat.Raised"
	ChatRaisedUrgent    = "RISE_HAND.Chat.RaisedUrgent"
	ChatLowered         = "RISE_HAND.Chat.Lowered"
	ChatGivenWord       = "RISE_HAND.Chat.GivenWord"
	ChatRemoved         = "RISE_HAND.Chat.Removed"
	ChatCleared         = "RISE_HAND.Chat.Cleared"
	QueueEmpty          = "RISE_HAND.Queue.Empty"
	QueuePosition       = "RISE_HAND.Queue.Position"
	QueueNotInQueue     = "RISE_HAND.Queue.NotInQueue"
	PriorityNormal      = "RISE_HAND.Priority.Normal"
	PriorityUrgent      = "RISE_HAND.Priority.Urgent"
	SpeakerAlias        = "RISE_HAND.Speaker"
)

var supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(supported)

var texts = map[language.Tag]map[string]string{
	language.English: {
		NotifyAlreadyQueued: "Already in queue",
		NotifyAdded:         "Added to queue",
		NotifyRemoved:       "Removed from queue",
		NotifyCleared:       "Queue cleared",
		NotifyClearedRemote: "Queue has been cleared",
		NotifyGivenWord:     "You have been given the word",
		ChatRaised:          "%s raised their hand",
		ChatRaisedUrgent:    "%s raised their hand (URGENT)",
		ChatLowered:         "%s lowered their hand",
		ChatGivenWord:       "%s was given the word",
		ChatRemoved:         "%s was removed from the queue",
		ChatCleared:         "Hand raise queue has been cleared",
		QueueEmpty:          "No one is waiting to speak",
		QueuePosition:       "Position in queue: %d",
		QueueNotInQueue:     "You are not in the queue",
		PriorityNormal:      "Normal",
		PriorityUrgent:      "Urgent",
		SpeakerAlias:        "Rise Hand System",
	},
	language.German: {
		NotifyAlreadyQueued: "Bereits in der Warteschlange",
		NotifyAdded:         "Zur Warteschlange hinzugefügt",
		NotifyRemoved:       "Aus der Warteschlange entfernt",
		NotifyCleared:       "Warteschlange geleert",
		NotifyClearedRemote: "Die Warteschlange wurde geleert",
		NotifyGivenWord:     "Du hast das Wort",
		ChatRaised:          "%s hat sich gemeldet",
		ChatRaisedUrgent:    "%s hat sich gemeldet (DRINGEND)",
		ChatLowered:         "%s hat die Hand gesenkt",
		ChatGivenWord:       "%s hat das Wort erhalten",
		ChatRemoved:         "%s wurde aus der Warteschlange entfernt",
		ChatCleared:         "Die Meldeliste wurde geleert",
		QueueEmpty:          "Niemand wartet auf das Wort",
		QueuePosition:       "Position in der Warteschlange: %d",
		QueueNotInQueue:     "Du bist nicht in der Warteschlange",
		PriorityNormal:      "Normal",
		PriorityUrgent:      "Dringend",
		SpeakerAlias:        "Rise Hand System",
	},
}

var cat = build()

func build() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range texts {
		for key, text := range msgs {
			if err := b.SetString(tag, key, text); err != nil {
				panic("i18n: " + key + ": " + err.Error())
			}
		}
	}
	return b
}

// Match maps a BCP 47 string onto a supported language. Anything unparsable
// or unsupported becomes English.
func Match(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

func NewPrinter(lang string) *message.Printer {
	return message.NewPrinter(Match(lang), message.Catalog(cat))
}
