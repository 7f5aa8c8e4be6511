package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario, asserts its expectations, and compares
// the rendered text report against testdata/golden/{scenario.Name}.golden.
// Golden files pin the exact report wording; regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return nil, err
	}

	var rendered bytes.Buffer
	result.Report.RenderText(&rendered)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, rendered.Bytes())

	return result, nil
}
