package checkout

import (
	"fmt"
	"time"
)

const (
	WindowMorning = "Matin: 09h - 12h"
	WindowEvening = "Soir: 13h - 17h"

	// BookingDays is how many days ahead a delivery can be booked, starting tomorrow.
	BookingDays = 3

	dateLayout = "2006-01-02"
)

// Windows are the fixed delivery windows offered every day.
var Windows = []string{WindowMorning, WindowEvening}

var (
	frenchDays   = [...]string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}
	frenchMonths = [...]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."}
)

// DayLabel renders a date the way the storefront shows it: "Lundi 16 oct.".
func DayLabel(t time.Time) string {
	return fmt.Sprintf("%s %d %s", frenchDays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1])
}

// Day is one bookable delivery day.
type Day struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

// Slot is a delivery day paired with a window.
type Slot struct {
	Date   string `json:"date"`
	Day    string `json:"day"`
	Window string `json:"window"`
}

// String is the slot as stored on the order: "Lundi 16 oct. (Matin: 09h - 12h)".
func (s Slot) String() string {
	return fmt.Sprintf("%s (%s)", s.Day, s.Window)
}

// AvailableDays returns the BookingDays calendar days after now, in now's location.
func AvailableDays(now time.Time) []Day {
	days := make([]Day, 0, BookingDays)
	for i := 1; i <= BookingDays; i++ {
		d := now.AddDate(0, 0, i)
		days = append(days, Day{Date: d.Format(dateLayout), Label: DayLabel(d)})
	}
	return days
}

// AvailableSlots crosses AvailableDays with Windows.
func AvailableSlots(now time.Time) []Slot {
	slots := make([]Slot, 0, BookingDays*len(Windows))
	for _, d := range AvailableDays(now) {
		for _, w := range Windows {
			slots = append(slots, Slot{Date: d.Date, Day: d.Label, Window: w})
		}
	}
	return slots
}

// FindSlot returns the available slot for a date and window, if any.
func FindSlot(now time.Time, date, window string) (Slot, bool) {
	for _, s := range AvailableSlots(now) {
		if s.Date == date && s.Window == window {
			return s, true
		}
	}
	return Slot{}, false
}
