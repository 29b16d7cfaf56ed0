package schedule

import (
	"testing"
	"time"
)

func TestPresetResolve(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name   string
		preset Preset
		now    time.Time
		want   time.Time
	}{
		{"in-1h", PresetInOneHour, time.Date(2024, 1, 1, 10, 15, 0, 0, loc), time.Date(2024, 1, 1, 16, 15, 0, 0, time.UTC)},
		{"in-3h", PresetInThreeHours, time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC)},
		{"tonight before", PresetTonight, time.Date(2024, 1, 1, 18, 0, 0, 0, loc), time.Date(2024, 1, 1, 22, 0, 0, 0, loc).UTC()},
		{"tonight passed", PresetTonight, time.Date(2024, 1, 1, 22, 30, 0, 0, loc), time.Date(2024, 1, 2, 22, 0, 0, 0, loc).UTC()},
		{"tonight exact", PresetTonight, time.Date(2024, 1, 1, 22, 0, 0, 0, loc), time.Date(2024, 1, 2, 22, 0, 0, 0, loc).UTC()},
		{"early-morning after midnight", PresetEarlyMorning, time.Date(2024, 1, 1, 1, 0, 0, 0, loc), time.Date(2024, 1, 1, 3, 0, 0, 0, loc).UTC()},
		{"early-morning evening", PresetEarlyMorning, time.Date(2024, 1, 1, 20, 0, 0, 0, loc), time.Date(2024, 1, 2, 3, 0, 0, 0, loc).UTC()},
		{"early-morning month end", PresetEarlyMorning, time.Date(2024, 1, 31, 4, 0, 0, 0, loc), time.Date(2024, 2, 1, 3, 0, 0, 0, loc).UTC()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.preset.Resolve(tt.now)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("Resolve() location = %v, want UTC", got.Location())
			}
		})
	}
}

func TestPresetUnknown(t *testing.T) {
	if _, err := Preset("someday").Resolve(time.Now()); err == nil {
		t.Error("Resolve() expected error for unknown preset")
	}
}

func TestParseWhen(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"tonight", time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC), false},
		{"  In-1H ", now.Add(time.Hour), false},
		{"in 90m", now.Add(90 * time.Minute), false},
		{"in 2 hours", now.Add(2 * time.Hour), false},
		{"in 1d", now.Add(24 * time.Hour), false},
		{"in 0m", time.Time{}, true},
		{"in 3 fortnights", time.Time{}, true},
		{"in 200000000 days", time.Time{}, true},
		{"in 153722867m", now.Add(153722867 * time.Minute), false},
		{"in 153722868m", time.Time{}, true},
		{"15:30", time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC), false},
		{"09:00", time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), false},
		{"24:00", time.Time{}, true},
		{"2024-03-11T08:00:00+01:00", time.Date(2024, 3, 11, 7, 0, 0, 0, time.UTC), false},
		{"2024-03-09T08:00:00Z", time.Time{}, true},
		{"", time.Time{}, true},
		{"soon", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWhen(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWhen(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseWhen(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
