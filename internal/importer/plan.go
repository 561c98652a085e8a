package importer

// Plan is the outcome of matching imported trees against existing ones.
type Plan struct {
	// Create holds trees at positions no existing tree occupies, plus the
	// replacements for deleted trees.
	Create []*Tree `json:"create"`

	// Update holds trees matching an existing tree's position and planting
	// year. Each carries the existing tree's ID.
	Update []*Tree `json:"update"`

	// Delete lists existing trees replaced by a tree with a different
	// planting year at the same position.
	Delete []TreeID `json:"delete"`
}

// NewPlan matches incoming against existing by position. When several
// existing trees share a position the first one wins. Incoming trees are
// not modified; updates are copies carrying the existing ID.
func NewPlan(existing []Tree, incoming []*Tree) *Plan {
	p := &Plan{
		Create: []*Tree{},
		Update: []*Tree{},
		Delete: []TreeID{},
	}

	for _, tree := range incoming {
		match := -1
		for i := range existing {
			if samePosition(&existing[i], tree) {
				match = i
				break
			}
		}
		if match == -1 {
			p.Create = append(p.Create, tree)
			continue
		}

		old := existing[match]
		if old.PlantingYear == tree.PlantingYear {
			updated := *tree
			updated.ID = old.ID
			p.Update = append(p.Update, &updated)
		} else {
			p.Delete = append(p.Delete, old.ID)
			p.Create = append(p.Create, tree)
		}
	}

	return p
}

// Len returns the number of queued operations.
func (p *Plan) Len() int {
	return len(p.Create) + len(p.Update) + len(p.Delete)
}
