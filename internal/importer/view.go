package importer

import (
	"strconv"

	"github.com/green-ecolution/demo-plugin/pkg/vdom"
)

// Render implements vdom.Component: a summary line and one list per
// non-empty queue. Trees are keyed by position in the import file.
func (p *Plan) Render() *vdom.VNode {
	return vdom.Section(vdom.Class("import-plan"),
		vdom.P(vdom.AriaLive("polite"),
			vdom.Textf("%d to create, %d to update, %d to delete", len(p.Create), len(p.Update), len(p.Delete))),
		vdom.If(len(p.Create) > 0, treeList("create", p.Create)),
		vdom.If(len(p.Update) > 0, treeList("update", p.Update)),
		vdom.If(len(p.Delete) > 0, idList("delete", p.Delete)),
	)
}

func treeList(queue string, trees []*Tree) *vdom.VNode {
	items := make([]*vdom.VNode, len(trees))
	for i, t := range trees {
		label := t.String()
		if t.ID != 0 {
			label = "#" + strconv.Itoa(int(t.ID)) + " " + label
		}
		items[i] = vdom.Li(vdom.Key(queue+"-"+strconv.Itoa(i)), label)
	}
	return vdom.Ul(vdom.Data("queue", queue), items)
}

func idList(queue string, ids []TreeID) *vdom.VNode {
	items := make([]*vdom.VNode, len(ids))
	for i, id := range ids {
		items[i] = vdom.Li(vdom.Key(queue+"-"+strconv.Itoa(i)), vdom.Textf("#%d", id))
	}
	return vdom.Ul(vdom.Data("queue", queue), items)
}
