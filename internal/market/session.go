// Package market knows the CME Globex trading calendar: whether the futures
// market is open at a given instant and which regional session is running.
package market

import "time"

type Session string

const (
	SessionAsia     Session = "Asia"
	SessionLondon   Session = "London"
	SessionNewYork  Session = "New York"
	SessionClosed   Session = "Closed"
	SessionMaintain Session = "Maintenance break"
)

// IsOpen reports whether CME Globex is trading at t. The market closes
// Friday 21:00 UTC, reopens Sunday 22:00 UTC, and pauses for a daily
// maintenance break 21:00–22:00 UTC on weekdays.
func IsOpen(t time.Time) bool {
	t = t.UTC()
	switch t.Weekday() {
	case time.Saturday:
		return false
	case time.Friday:
		return t.Hour() < 21
	case time.Sunday:
		return t.Hour() >= 22
	default:
		return t.Hour() != 21
	}
}

// Current names the session active at t, based on UTC hours: Asia from the
// 22:00 reopen, London from 07:00, New York from 13:00 until the 21:00 halt.
func Current(t time.Time) Session {
	t = t.UTC()
	if !IsOpen(t) {
		if wd := t.Weekday(); wd >= time.Monday && wd <= time.Thursday && t.Hour() == 21 {
			return SessionMaintain
		}
		return SessionClosed
	}

	switch h := t.Hour(); {
	case h >= 22 || h < 7:
		return SessionAsia
	case h < 13:
		return SessionLondon
	default:
		return SessionNewYork
	}
}
