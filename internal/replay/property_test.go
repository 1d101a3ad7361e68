package replay

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// sampleSpec is a generated (entity, offset) pair.
type sampleSpec struct {
	Entity int
	Offset int64
}

func genSamples() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 4),
		gen.Int64Range(0, 3600),
	).Map(func(vals []interface{}) sampleSpec {
		return sampleSpec{Entity: vals[0].(int), Offset: vals[1].(int64)}
	}))
}

func buildSource(specs []sampleSpec) DataSource {
	src := DataSource{StartTime: base, EndTime: base.Add(time.Hour)}
	for i, s := range specs {
		src.EntityHistory = append(src.EntityHistory, EntityPosition{
			EntityID:  fmt.Sprintf("ent-%d", s.Entity),
			CellIndex: fmt.Sprintf("sample-%d", i),
			Timestamp: base.Add(time.Duration(s.Offset) * time.Second),
		})
	}
	return src
}

// TestProperty_FrameDeterminism checks that two independent engines loaded
// with the same dataset return structurally equal frames.
func TestProperty_FrameDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("same dataset and timestamp yield equal frames", prop.ForAll(
		func(specs []sampleSpec, queryOffset int64) bool {
			src := buildSource(specs)
			ts := base.Add(time.Duration(queryOffset) * time.Second)

			a := NewEngine()
			a.LoadData(src)
			b := NewEngine()
			b.LoadData(src)

			fa := a.FrameAt(ts)
			a.ClearCache()
			fa2 := a.FrameAt(ts)

			ha, err := Fingerprint(fa)
			if err != nil {
				return false
			}
			hb, err := Fingerprint(b.FrameAt(ts))
			if err != nil {
				return false
			}
			return reflect.DeepEqual(fa, fa2) && ha == hb
		},
		genSamples(),
		gen.Int64Range(-60, 3700),
	))

	properties.TestingRun(t)
}

// TestProperty_LatestSampleLaw checks that each entity's position is the
// sample with the greatest timestamp <= T (last arrival on ties), and that
// entities with no such sample are absent.
func TestProperty_LatestSampleLaw(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("entity position is the latest sample at or before T", prop.ForAll(
		func(specs []sampleSpec, queryOffset int64) bool {
			src := buildSource(specs)
			ts := base.Add(time.Duration(queryOffset) * time.Second)

			e := NewEngine()
			e.LoadData(src)
			f := e.FrameAt(ts)

			expected := map[string]EntityPosition{}
			for _, s := range src.EntityHistory {
				if s.Timestamp.After(ts) {
					continue
				}
				cur, ok := expected[s.EntityID]
				if !ok || !s.Timestamp.Before(cur.Timestamp) {
					expected[s.EntityID] = s
				}
			}

			if len(f.Entities) != len(expected) {
				return false
			}
			for id, want := range expected {
				got, ok := f.FindEntity(id)
				if !ok || got.CellIndex != want.CellIndex {
					return false
				}
			}
			return true
		},
		genSamples(),
		gen.Int64Range(-60, 3700),
	))

	properties.TestingRun(t)
}
