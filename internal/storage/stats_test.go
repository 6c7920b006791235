package storage

import (
	"encoding/json"
	"testing"
	"time"
)

// TestStatsWireFormat pins the JSON field names clients depend on.
func TestStatsWireFormat(t *testing.T) {
	data, err := json.Marshal(Overview{ThisWeek: 2, ThisMonth: 5, Total: 40})
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]int64
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"workoutsThisWeek", "workoutsThisMonth", "totalWorkouts"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("overview JSON missing %q: %s", key, data)
		}
	}

	data, err = json.Marshal(HistoryPoint{Date: "2024-03-04", Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"date":"2024-03-04","count":2}`; string(data) != want {
		t.Errorf("history point JSON = %s, want %s", data, want)
	}
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		now  string
		want string
	}{
		{"2024-03-04T00:00:00Z", "2024-03-04"}, // a Monday maps to itself
		{"2024-03-06T15:30:00Z", "2024-03-04"},
		{"2024-03-10T23:59:59Z", "2024-03-04"}, // Sunday still belongs to Monday's week
		{"2024-03-11T00:00:00Z", "2024-03-11"},
	}
	for _, tt := range tests {
		now, err := time.Parse(time.RFC3339, tt.now)
		if err != nil {
			t.Fatal(err)
		}
		got := startOfWeek(now)
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("startOfWeek(%s) = %s, want %s", tt.now, got.Format("2006-01-02"), tt.want)
		}
		if got.Weekday() != time.Monday {
			t.Errorf("startOfWeek(%s) fell on %s", tt.now, got.Weekday())
		}
	}
}
