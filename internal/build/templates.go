package build

import "text/template"

type entryData struct {
	Name     string
	Version  string
	Manifest string // embedded manifest line
	Modules  []moduleRef
}

type moduleRef struct {
	Public string // JSON-quoted public path
	Chunk  string // JSON-quoted relative import path
}

type chunkData struct {
	Public  string
	Entry   string
	Version string
	Expose  string // JSON-quoted public path
	HTML    string // JSON-quoted initial HTML
}

var entryTemplate = template.Must(template.New("entry").Parse(`// {{.Name}} remote entry (demo-plugin {{.Version}})
{{.Manifest}}

const moduleMap = {
{{- range .Modules}}
  {{.Public}}: () => import({{.Chunk}}),
{{- end}}
};

let shareScope = null;

export function init(scope) {
  if (shareScope !== null) return;
  shareScope = scope || {};
}

export async function get(request) {
  const load = moduleMap[request];
  if (!load) {
    throw new Error("module " + request + " is not exposed by " + manifest.name);
  }
  const mod = await load();
  return () => mod;
}
`))

var chunkTemplate = template.Must(template.New("chunk").Parse(`// {{.Public}} -> {{.Entry}} (demo-plugin {{.Version}})
const expose = {{.Expose}};

export const html = {{.HTML}};

export function mount(el, options = {}) {
  el.innerHTML = html;

  const base = new URL(options.base || "../", import.meta.url);
  base.protocol = base.protocol === "https:" ? "wss:" : "ws:";
  const ws = new WebSocket(new URL("live?expose=" + encodeURIComponent(expose), base));

  ws.onmessage = (ev) => {
    const msg = JSON.parse(ev.data);
    if (msg.type === "render") {
      el.innerHTML = msg.html;
    }
  };

  const onEvent = (ev) => {
    const target = ev.target.closest("[data-on-" + ev.type + "]");
    if (!target || !el.contains(target) || ws.readyState !== WebSocket.OPEN) return;
    ws.send(JSON.stringify({ type: "event", hid: target.dataset.hid, event: "on" + ev.type }));
  };
  el.addEventListener("click", onEvent);

  return () => {
    el.removeEventListener("click", onEvent);
    ws.close();
    el.innerHTML = "";
  };
}

export default mount;
`))
