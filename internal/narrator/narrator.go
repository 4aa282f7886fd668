package narrator

import "log"

// Narrator receives plain-text announcements on attempt transitions so an
// accessibility layer (voice, haptics) can relay them. Implementations must
// not block.
type Narrator interface {
	Announce(text string)
}

// Log writes announcements to the process log; the default wiring when no
// accessibility service is attached.
type Log struct{}

func (Log) Announce(text string) {
	log.Printf("announce: %s", text)
}

// Nop discards announcements.
type Nop struct{}

func (Nop) Announce(string) {}
