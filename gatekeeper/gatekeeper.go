// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gatekeeper implements the runtime gatekeeper: it runs
// right after the upstream load, before any other stage, and refuses to
// proceed unless every optimizer name configured to run is a concrete
// allowlisted implementation and both constellations are present in the
// input arena. It does not check whether other subcomponents (phase
// analysis, trajectory prediction) are wired. It also rejects configuration that
// contains any of a broadened set of forbidden substrings associated with
// placeholder or mock implementations leaking into a production run.
package gatekeeper

import (
	"fmt"
	"strings"

	"github.com/luxfi/constellation/ids"
	"github.com/luxfi/constellation/optimizer"
	"github.com/luxfi/constellation/satellite"
)

// forbiddenSubstrings is intentionally broader than just "mock": any of
// these appearing in a configured algorithm name, index-store DSN, or
// output path indicates a placeholder slipped into a production
// configuration.
var forbiddenSubstrings = []string{
	"mock", "stub", "fake", "dummy", "placeholder", "todo", "notimplemented", "test_only",
	"simplified", "estimated", "arbitrary", "random_selection", "fixed_percentage",
}

// Report is the gatekeeper's verdict.
type Report struct {
	Allowed bool
	Reasons []string
}

// addReason appends a failure reason and marks the report as not allowed.
func (r *Report) addReason(format string, args ...interface{}) {
	r.Allowed = false
	r.Reasons = append(r.Reasons, fmt.Sprintf(format, args...))
}

// Input bundles what the gatekeeper inspects before a run starts.
type Input struct {
	ConfiguredAlgorithms []string
	Arena                *satellite.Arena
	IndexStoreDSN        string // empty when the index store is not configured
	OutputDir            string
}

// Check runs every gatekeeper rule and returns the aggregate verdict.
func Check(in Input) Report {
	report := Report{Allowed: true}

	checkAllowlistedAlgorithms(in, &report)
	checkBothConstellationsPresent(in, &report)
	checkForbiddenSubstrings(in, &report)

	return report
}

func checkAllowlistedAlgorithms(in Input, report *Report) {
	if len(in.ConfiguredAlgorithms) == 0 {
		report.addReason("no optimizer algorithms configured")
		return
	}
	for _, name := range in.ConfiguredAlgorithms {
		if _, ok := optimizer.Registry[name]; !ok {
			report.addReason("錯誤動態池規劃器: optimizer %q is not an allowlisted concrete implementation", name)
		}
	}
}

func checkBothConstellationsPresent(in Input, report *Report) {
	if in.Arena == nil {
		report.addReason("arena is nil")
		return
	}
	if len(in.Arena.ByConstellation(ids.ConstellationStarlink)) == 0 {
		report.addReason("no starlink satellites present in input")
	}
	if len(in.Arena.ByConstellation(ids.ConstellationOneWeb)) == 0 {
		report.addReason("no oneweb satellites present in input")
	}
}

func checkForbiddenSubstrings(in Input, report *Report) {
	haystacks := map[string]string{
		"index_store_dsn": in.IndexStoreDSN,
		"output_dir":      in.OutputDir,
	}
	for _, name := range in.ConfiguredAlgorithms {
		haystacks["algorithm:"+name] = name
	}

	for field, value := range haystacks {
		lower := strings.ToLower(value)
		for _, forbidden := range forbiddenSubstrings {
			if strings.Contains(lower, forbidden) {
				report.addReason("%s contains forbidden substring %q", field, forbidden)
			}
		}
	}
}
