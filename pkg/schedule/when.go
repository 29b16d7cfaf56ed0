package schedule

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Preset is a named scheduling shortcut.
type Preset string

const (
	PresetInOneHour    Preset = "in-1h"
	PresetInThreeHours Preset = "in-3h"
	PresetTonight      Preset = "tonight"       // 22:00 local
	PresetEarlyMorning Preset = "early-morning" // 03:00 local
)

// Presets lists every preset in display order.
func Presets() []Preset {
	return []Preset{PresetInOneHour, PresetInThreeHours, PresetTonight, PresetEarlyMorning}
}

// Description returns a short human-readable explanation of the preset.
func (p Preset) Description() string {
	switch p {
	case PresetInOneHour:
		return "one hour from now"
	case PresetInThreeHours:
		return "three hours from now"
	case PresetTonight:
		return "today at 22:00, or tomorrow once passed"
	case PresetEarlyMorning:
		return "at the next 03:00"
	}
	return string(p)
}

// Resolve returns the UTC instant the preset denotes relative to now.
// Relative presets are plain offsets. Clock-time presets use now's location
// and roll over to the next day once the time has passed.
func (p Preset) Resolve(now time.Time) (time.Time, error) {
	switch p {
	case PresetInOneHour:
		return now.UTC().Add(time.Hour), nil
	case PresetInThreeHours:
		return now.UTC().Add(3 * time.Hour), nil
	case PresetTonight:
		return nextClock(now, 22, 0), nil
	case PresetEarlyMorning:
		return nextClock(now, 3, 0), nil
	}
	return time.Time{}, fmt.Errorf("unknown schedule preset %q", p)
}

// nextClock returns the next occurrence of hour:minute in now's location,
// strictly after now.
func nextClock(now time.Time, hour, minute int) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t.UTC()
}

var (
	relativePattern = regexp.MustCompile(`^in\s*(\d+)\s*([a-z]+)$`)
	clockPattern    = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)
)

var relativeUnits = map[string]time.Duration{
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
}

// ParseWhen turns a user-supplied time into a UTC instant. It accepts a
// preset name, a relative expression ("in 90m", "in 2 hours"), a local
// clock time ("22:30", rolling to tomorrow once passed) or an RFC 3339
// timestamp. Times not after now are rejected.
func ParseWhen(s string, now time.Time) (time.Time, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	if in == "" {
		return time.Time{}, fmt.Errorf("empty schedule time")
	}

	for _, p := range Presets() {
		if in == string(p) {
			return p.Resolve(now)
		}
	}

	if m := relativePattern.FindStringSubmatch(in); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("invalid schedule offset %q", s)
		}
		unit, ok := relativeUnits[m[2]]
		if !ok {
			return time.Time{}, fmt.Errorf("unknown time unit %q in %q", m[2], s)
		}
		if int64(n) > math.MaxInt64/int64(unit) {
			return time.Time{}, fmt.Errorf("schedule offset %q is too large", s)
		}
		return now.UTC().Add(time.Duration(n) * unit), nil
	}

	if m := clockPattern.FindStringSubmatch(in); m != nil {
		hour, _ := strconv.Atoi(m[1])   //nolint:errcheck
		minute, _ := strconv.Atoi(m[2]) //nolint:errcheck
		return nextClock(now, hour, minute), nil
	}

	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised schedule time %q (want a preset, \"in 2h\", HH:MM or RFC 3339)", s)
	}
	if !t.After(now) {
		return time.Time{}, fmt.Errorf("schedule time %s is in the past", t.Format(time.RFC3339))
	}
	return t.UTC(), nil
}
