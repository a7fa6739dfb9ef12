// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package scape

import (
	"encoding/json"
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

// testDraft returns a draft with one text widget per id, in order.
func testDraft(t *testing.T, ids ...string) *Draft {
	t.Helper()
	d := NewDraft()
	for _, id := range ids {
		w, err := NewWidget(WidgetText, "", TextPayload{Body: id})
		if err != nil {
			t.Fatalf("NewWidget: %v", err)
		}
		w.ID = id
		if err := d.Append(w); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return d
}

func order(d *Draft) []string {
	ids := make([]string, len(d.Widgets))
	for i, w := range d.Widgets {
		ids[i] = w.ID
	}
	return ids
}

// assertDense checks that positions are exactly 0..n-1 and match indices.
func assertDense(t *testing.T, d *Draft) {
	t.Helper()
	for i, w := range d.Widgets {
		if w.Position != i {
			t.Fatalf("widget %s at index %d has position %d", w.ID, i, w.Position)
		}
	}
}

func featureCount(d *Draft) int {
	n := 0
	for _, w := range d.Widgets {
		if w.IsFeature {
			n++
		}
	}
	return n
}

func TestNewDraft(t *testing.T) {
	d := NewDraft()
	if !d.IsNew() || d.ID != NewID {
		t.Errorf("id = %q, want %q", d.ID, NewID)
	}
	if !d.IsDraft {
		t.Error("new draft should be a draft")
	}
	if len(d.Widgets) != 0 {
		t.Errorf("expected no widgets, got %d", len(d.Widgets))
	}
}

func TestAppendAssignsPositions(t *testing.T) {
	d := testDraft(t, "A", "B", "C")
	assertDense(t, d)

	dup, _ := d.Widget("A")
	if err := d.Append(dup); !errors.Is(err, ErrDuplicateWidget) {
		t.Errorf("Append duplicate: got %v, want ErrDuplicateWidget", err)
	}
}

func TestRemove(t *testing.T) {
	d := testDraft(t, "A", "B", "C", "D")
	if err := d.Remove("B"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got, want := order(d), []string{"A", "C", "D"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	assertDense(t, d)

	if err := d.Remove("missing"); !errors.Is(err, ErrWidgetNotFound) {
		t.Errorf("Remove missing: got %v", err)
	}
}

func TestRemoveFeatureClearsPointer(t *testing.T) {
	d := testDraft(t, "A", "B")
	if err := d.SetFeature("B"); err != nil {
		t.Fatalf("SetFeature: %v", err)
	}
	if d.FeatureWidgetID() != "B" {
		t.Fatalf("feature = %q, want B", d.FeatureWidgetID())
	}
	if err := d.Remove("B"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if d.FeatureWidgetID() != "" {
		t.Errorf("feature = %q after removing it", d.FeatureWidgetID())
	}
}

func TestRemoveOnlyWidget(t *testing.T) {
	d := testDraft(t, "A")
	if err := d.Remove("A"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(d.Widgets) != 0 {
		t.Errorf("expected empty document, got %d widgets", len(d.Widgets))
	}
}

func TestMoveTo(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"first to last", 0, 2, []string{"B", "C", "A"}},
		{"last to first", 2, 0, []string{"C", "A", "B"}},
		{"adjacent down", 0, 1, []string{"B", "A", "C"}},
		{"adjacent up", 2, 1, []string{"A", "C", "B"}},
		{"past the end clamps", 0, 99, []string{"B", "C", "A"}},
		{"negative clamps", 2, -5, []string{"C", "A", "B"}},
		{"same index", 1, 1, []string{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDraft(t, "A", "B", "C")
			d.MoveTo(tt.from, tt.to)
			if got := order(d); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
			assertDense(t, d)
		})
	}
}

func TestMoveToSameIndexIsNoop(t *testing.T) {
	d := testDraft(t, "A", "B", "C")
	if err := d.SetFeature("B"); err != nil {
		t.Fatalf("SetFeature: %v", err)
	}
	before := d.Clone()
	d.MoveTo(1, 1)
	if !reflect.DeepEqual(before, d) {
		t.Errorf("MoveTo(1, 1) changed the document")
	}
}

func TestMoveWidgetsDoesNotMutateInput(t *testing.T) {
	d := testDraft(t, "A", "B", "C")
	in := d.Widgets
	out := MoveWidgets(in, 0, 2)
	if got := []string{in[0].ID, in[1].ID, in[2].ID}; !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("input reordered to %v", got)
	}
	if out[2].ID != "A" || out[2].Position != 2 {
		t.Errorf("out[2] = %s@%d, want A@2", out[2].ID, out[2].Position)
	}
}

func TestMoveStep(t *testing.T) {
	d := testDraft(t, "A", "B", "C")
	if err := d.MoveStep("C", -1); err != nil {
		t.Fatalf("MoveStep: %v", err)
	}
	if got, want := order(d), []string{"A", "C", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if err := d.MoveStep("A", -1); err != nil {
		t.Fatalf("MoveStep at top: %v", err)
	}
	if got, want := order(d), []string{"A", "C", "B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("moving the first widget up changed order to %v", got)
	}
	assertDense(t, d)
}

func TestSetFeatureToggle(t *testing.T) {
	d := testDraft(t, "A", "B", "C")

	if err := d.SetFeature("A"); err != nil {
		t.Fatalf("SetFeature: %v", err)
	}
	fw, _ := d.FeatureWidget()
	if fw.ID != "A" || fw.FeaturedCaption == nil || *fw.FeaturedCaption != "" {
		t.Errorf("feature = %+v, want A with empty caption", fw)
	}

	if err := d.SetFeature("C"); err != nil {
		t.Fatalf("SetFeature: %v", err)
	}
	if d.FeatureWidgetID() != "C" || featureCount(d) != 1 {
		t.Errorf("feature = %q (count %d), want C alone", d.FeatureWidgetID(), featureCount(d))
	}
	if a, _ := d.Widget("A"); a.FeaturedCaption != nil {
		t.Error("unfeatured widget kept its caption")
	}

	if err := d.SetFeature("C"); err != nil {
		t.Fatalf("SetFeature: %v", err)
	}
	if d.FeatureWidgetID() != "" {
		t.Errorf("second SetFeature should clear the feature, got %q", d.FeatureWidgetID())
	}
}

func TestSetCaption(t *testing.T) {
	d := testDraft(t, "A", "B")
	if err := d.SetCaption("A", "hi"); !errors.Is(err, ErrNotFeatured) {
		t.Errorf("caption on unfeatured widget: got %v", err)
	}
	d.SetFeature("A")
	if err := d.SetCaption("A", "hi"); err != nil {
		t.Fatalf("SetCaption: %v", err)
	}
	if fw, _ := d.FeatureWidget(); fw.Caption() != "hi" {
		t.Errorf("caption = %q, want hi", fw.Caption())
	}
}

func TestSetChannelAndPayload(t *testing.T) {
	d := testDraft(t, "A")
	if err := d.SetChannel("A", ChannelRed); err != nil {
		t.Fatalf("SetChannel: %v", err)
	}
	if err := d.SetChannel("A", Channel("pink")); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("SetChannel pink: got %v", err)
	}
	if err := d.SetPayload("A", TextPayload{Body: "new"}); err != nil {
		t.Fatalf("SetPayload: %v", err)
	}
	if err := d.SetPayload("A", ButtonPayload{}); !errors.Is(err, ErrPayloadMismatch) {
		t.Errorf("SetPayload mismatch: got %v", err)
	}
	w, _ := d.Widget("A")
	if w.Channel != ChannelRed || w.Data.(TextPayload).Body != "new" || w.Position != 0 {
		t.Errorf("widget = %+v", w)
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := testDraft(t, "A")
	d.Widgets[0].Data = GalleryPayload{Media: []MediaRef{"m1"}}
	d.SetFeature("A")
	d.SetCaption("A", "orig")

	c := d.Clone()
	c.Widgets[0].Data.(GalleryPayload).Media[0] = "changed"
	*c.Widgets[0].FeaturedCaption = "changed"
	c.Title = "changed"

	if d.Widgets[0].Data.(GalleryPayload).Media[0] != "m1" {
		t.Error("clone shares gallery media")
	}
	if d.Widgets[0].Caption() != "orig" {
		t.Error("clone shares caption")
	}
}

// TestOperationSequencesKeepInvariants applies random operation sequences
// and checks dense positions and a single feature widget after each step.
func TestOperationSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		d := NewDraft()
		for step := 0; step < 40; step++ {
			n := len(d.Widgets)
			switch op := rng.Intn(5); {
			case op == 0 || n == 0:
				w, err := NewWidget(AllWidgetTypes()[rng.Intn(len(AllWidgetTypes()))], "", nil)
				if err != nil {
					t.Fatalf("NewWidget: %v", err)
				}
				if err := d.Append(w); err != nil {
					t.Fatalf("Append: %v", err)
				}
			case op == 1:
				if err := d.Remove(d.Widgets[rng.Intn(n)].ID); err != nil {
					t.Fatalf("Remove: %v", err)
				}
			case op == 2:
				d.MoveTo(rng.Intn(n+2)-1, rng.Intn(n+2)-1)
			case op == 3:
				if err := d.SetFeature(d.Widgets[rng.Intn(n)].ID); err != nil {
					t.Fatalf("SetFeature: %v", err)
				}
			default:
				if err := d.MoveStep(d.Widgets[rng.Intn(n)].ID, rng.Intn(3)-1); err != nil {
					t.Fatalf("MoveStep: %v", err)
				}
			}
			assertDense(t, d)
			if c := featureCount(d); c > 1 {
				t.Fatalf("run %d step %d: %d feature widgets", run, step, c)
			}
		}
	}
}

func TestDraftJSONRoundTrip(t *testing.T) {
	d := testDraft(t, "A", "B", "C")
	d.ID = "2b7b0c54-4a8e-4a53-9bf6-0f4cbb0d9d01"
	d.Title = "My Scape"
	d.Description = "desc"
	d.Tagline = "tag"
	d.Banner = "media/banner.jpg"
	d.IsDraft = false
	d.SetFeature("B")
	d.SetCaption("B", "look")
	d.SetChannel("C", ChannelGreen)

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out Draft
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(d, &out) {
		t.Errorf("round trip mismatch:\n in=%+v\nout=%+v", d, &out)
	}

	var probe map[string]any
	json.Unmarshal(b, &probe)
	if probe["featureWidgetId"] != "B" {
		t.Errorf("featureWidgetId = %v, want B", probe["featureWidgetId"])
	}
}

func TestDraftUnmarshalNormalizesFeatures(t *testing.T) {
	raw := `{"id":"x","title":"t","widgets":[
		{"id":"a","type":"text","variant":"medium","channel":"neutral","position":5,"isFeature":true,"data":{"body":""}},
		{"id":"b","type":"text","variant":"medium","channel":"neutral","position":9,"isFeature":true,"featuredCaption":"x","data":{"body":""}}
	]}`
	var d Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	assertDense(t, &d)
	if featureCount(&d) != 1 || d.FeatureWidgetID() != "a" {
		t.Errorf("feature = %q (count %d), want a alone", d.FeatureWidgetID(), featureCount(&d))
	}
}
