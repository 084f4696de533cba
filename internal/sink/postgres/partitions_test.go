package postgres

import "testing"

func TestValidPartitionName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"rib_elements_20260731", true},
		{"rib_elements_99991231", true},
		{"rib_elements_2026073", false},
		{"rib_elements_202607311", false},
		{"route_events_20260731", false},
		{"rib_elements_abcdefgh", false},
		{"rib_elements_20260731; DROP TABLE rib_elements", false},
	}

	for _, c := range cases {
		if got := validPartitionName.MatchString(c.name); got != c.want {
			t.Errorf("validPartitionName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
