// Package harness runs scaffold lifecycle scenarios end to end.
//
// A scenario creates one job, runs a sequence of lifecycle operations
// against a fresh in-memory store and checks the outcome of every step and
// the final set of models.
//
// # Scenario Format
//
//	name: two_revisions
//	description: "A draft superseded by a taller design, then published"
//	job: job-1
//	dimensions: { length_m: 10, height_m: 6, lift_m: 2 }
//	rules: |
//	  facts: height_m: <=30
//	steps:
//	  - op: draft
//	    expect: { version: "Rev A", load_class: "Class 3" }
//	  - op: supersede
//	    dimensions: { length_m: 20, height_m: 12, lift_m: 2 }
//	    expect: { version: "Rev B", load_class: "Class 4" }
//	  - op: publish
//	    revision: "Rev B"
//	    expect: { published: true }
//	assertions:
//	  - type: model_count
//	    count: 2
//	  - type: takeoff
//	    revision: "Rev B"
//	    item: STD
//	    qty: 120
//
// Steps without dimensions use the scenario's recorded job dimensions.
// publish and retakeoff target the latest model unless a revision is named.
//
// # Determinism
//
// Model ids come from testutil.SequentialIDs and timestamps from
// testutil.StepClock, so the same scenario always produces the same trace
// and snapshot. RunWithGolden compares that snapshot against
// testdata/golden/<name>.golden.
package harness
