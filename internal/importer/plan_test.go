package importer

import (
	"strings"
	"testing"

	"github.com/green-ecolution/demo-plugin/pkg/render"
)

func tree(lat, lon float64, year int32) *Tree {
	return &Tree{Area: "Mürwik", Street: "Osterallee", Number: "1", Latitude: lat, Longitude: lon, PlantingYear: year}
}

func TestNewPlan(t *testing.T) {
	existing := []Tree{
		{ID: 7, Latitude: 54.79, Longitude: 9.45, PlantingYear: 2004},
		{ID: 8, Latitude: 54.80, Longitude: 9.46, PlantingYear: 1990},
	}

	tests := []struct {
		name       string
		incoming   *Tree
		wantCreate int
		wantUpdate []TreeID
		wantDelete []TreeID
	}{
		{"unknown position is created", tree(54.81, 9.47, 2004), 1, nil, nil},
		{"same position and year is updated", tree(54.79, 9.45, 2004), 0, []TreeID{7}, nil},
		{"same position, new year replaces", tree(54.80, 9.46, 2021), 1, nil, []TreeID{8}},
		{"same latitude only is created", tree(54.79, 9.46, 2004), 1, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := NewPlan(existing, []*Tree{tt.incoming})

			if len(plan.Create) != tt.wantCreate {
				t.Errorf("Create = %d trees, want %d", len(plan.Create), tt.wantCreate)
			}
			if len(plan.Update) != len(tt.wantUpdate) {
				t.Fatalf("Update = %d trees, want %d", len(plan.Update), len(tt.wantUpdate))
			}
			for i, id := range tt.wantUpdate {
				if plan.Update[i].ID != id {
					t.Errorf("Update[%d].ID = %d, want %d", i, plan.Update[i].ID, id)
				}
			}
			if len(plan.Delete) != len(tt.wantDelete) {
				t.Fatalf("Delete = %v, want %v", plan.Delete, tt.wantDelete)
			}
			for i, id := range tt.wantDelete {
				if plan.Delete[i] != id {
					t.Errorf("Delete[%d] = %d, want %d", i, plan.Delete[i], id)
				}
			}
		})
	}
}

func TestNewPlanQueuesHoldOnlyPlannedTrees(t *testing.T) {
	existing := []Tree{{ID: 1, Latitude: 1, Longitude: 1, PlantingYear: 2000}}
	incoming := []*Tree{tree(1, 1, 2000), tree(2, 2, 2000), tree(3, 3, 2000)}

	plan := NewPlan(existing, incoming)

	if len(plan.Create) != 2 || len(plan.Update) != 1 || len(plan.Delete) != 0 {
		t.Fatalf("plan = %d/%d/%d, want 2/1/0", len(plan.Create), len(plan.Update), len(plan.Delete))
	}
	for _, c := range plan.Create {
		if c == nil {
			t.Fatal("Create holds a nil tree")
		}
	}
	if plan.Len() != 3 {
		t.Errorf("Len() = %d, want 3", plan.Len())
	}
}

func TestNewPlanDoesNotModifyIncoming(t *testing.T) {
	existing := []Tree{{ID: 42, Latitude: 1, Longitude: 1, PlantingYear: 2000}}
	incoming := tree(1, 1, 2000)

	plan := NewPlan(existing, []*Tree{incoming})

	if incoming.ID != 0 {
		t.Errorf("incoming.ID = %d, want 0", incoming.ID)
	}
	if plan.Update[0].ID != 42 || plan.Update[0].Street != "Osterallee" {
		t.Errorf("Update[0] = %+v", *plan.Update[0])
	}
}

func TestNewPlanFirstMatchWins(t *testing.T) {
	existing := []Tree{
		{ID: 1, Latitude: 1, Longitude: 1, PlantingYear: 1990},
		{ID: 2, Latitude: 1, Longitude: 1, PlantingYear: 2000},
	}

	plan := NewPlan(existing, []*Tree{tree(1, 1, 2000)})

	if len(plan.Delete) != 1 || plan.Delete[0] != 1 {
		t.Errorf("Delete = %v, want [1]", plan.Delete)
	}
	if len(plan.Create) != 1 || len(plan.Update) != 0 {
		t.Errorf("Create = %d, Update = %d; want 1, 0", len(plan.Create), len(plan.Update))
	}
}

func TestNewPlanEmpty(t *testing.T) {
	plan := NewPlan(nil, nil)
	if plan.Len() != 0 || plan.Create == nil || plan.Update == nil || plan.Delete == nil {
		t.Errorf("plan = %+v, want empty non-nil queues", plan)
	}
}

func TestPlanRender(t *testing.T) {
	existing := []Tree{
		{ID: 7, Latitude: 1, Longitude: 1, PlantingYear: 2004},
		{ID: 8, Latitude: 2, Longitude: 2, PlantingYear: 1990},
	}
	incoming := []*Tree{tree(1, 1, 2004), tree(2, 2, 2021), tree(3, 3, 2022)}
	incoming[2].Species = "Tilia cordata"

	html, err := render.NewRenderer(render.RendererConfig{OmitHydration: true}).RenderToString(NewPlan(existing, incoming).Render())
	if err != nil {
		t.Fatalf("RenderToString() error = %v", err)
	}

	for _, want := range []string{
		"2 to create, 1 to update, 1 to delete",
		`<ul data-queue="create">`,
		`<ul data-queue="update"><li>#7 Mürwik, Osterallee 1 (unknown species, 2004)</li></ul>`,
		`<ul data-queue="delete"><li>#8</li></ul>`,
		"Mürwik, Osterallee 1 (Tilia cordata, 2022)",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered plan missing %q:\n%s", want, html)
		}
	}
}

func TestPlanRenderOmitsEmptyQueues(t *testing.T) {
	html, err := render.NewRenderer(render.RendererConfig{}).RenderToString(NewPlan(nil, []*Tree{tree(1, 1, 2000)}).Render())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, `data-queue="create"`) || strings.Contains(html, `data-queue="update"`) || strings.Contains(html, `data-queue="delete"`) {
		t.Errorf("html = %s", html)
	}
}
