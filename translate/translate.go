// Package translate renders user-visible messages through a locale-aware
// message printer.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	mutex   sync.RWMutex
	printer *message.Printer
)

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("collate: locale: %v", err)
	}

	Use(locales...)
}

// Use selects the printer language from an ordered list of preferred
// locales, falling back to en-US. It returns the matched language.
func Use(locales ...string) (tag language.Tag) {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	tag = message.MatchLanguage(locales...)

	mutex.Lock()
	printer = message.NewPrinter(tag)
	mutex.Unlock()

	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	mutex.RLock()
	defer mutex.RUnlock()

	return printer.Sprintf(key, args...)
}
