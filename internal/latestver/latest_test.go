package latestver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		Input    string
		Expected []string
	}{
		{
			Input:    "1.2.312",
			Expected: []string{"1", "2", "312"},
		},
		{
			Input:    "10.0",
			Expected: []string{"10", "0"},
		},
		{
			Input:    "20",
			Expected: []string{"20"},
		},
		{
			Input:    "1.2.3-alpine",
			Expected: []string{"1", "2", "3", "alpine"},
		},
		{
			Input:    "latest",
			Expected: []string{"latest"},
		},
	}

	for _, test := range cases {
		t.Run(test.Input, func(t *testing.T) {
			assert.EqualValues(t, version(test.Expected), parse(test.Input))
		})
	}
}

func TestLatest(t *testing.T) {
	cases := []struct {
		Name     string
		Tags     []string
		Expected string
		Found    bool
	}{
		{
			Name:     "channels are skipped",
			Tags:     []string{"latest", "2.8.0", "experimental", "2.10.1"},
			Expected: "2.10.1",
			Found:    true,
		},
		{
			Name:     "numeric fields compare numerically",
			Tags:     []string{"1.9", "1.10"},
			Expected: "1.10",
			Found:    true,
		},
		{
			Name:     "prefixed versions",
			Tags:     []string{"v1.2", "v1.10"},
			Expected: "v1.10",
			Found:    true,
		},
		{
			Name:     "single candidate",
			Tags:     []string{"3.0.0"},
			Expected: "3.0.0",
			Found:    true,
		},
		{
			Name:  "only channels",
			Tags:  []string{"latest", "edge"},
			Found: false,
		},
		{
			Name:  "empty",
			Tags:  nil,
			Found: false,
		},
	}

	for _, test := range cases {
		t.Run(test.Name, func(t *testing.T) {
			latest, found := Latest(test.Tags)
			assert.Equal(t, test.Found, found)
			assert.Equal(t, test.Expected, latest)
		})
	}
}
