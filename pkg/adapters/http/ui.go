package http

// editorHTML is the single-page classroom editor. It drives the JSON API and
// previews diagrams client-side with mermaid.js; server-side rendering via
// the render endpoint remains the source of truth for exports.
const editorHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>Flowlab Studio</title>
<script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>
<style>
  * { box-sizing: border-box; }
  body { margin: 0; font-family: system-ui, sans-serif; background: #0f172a; color: #e2e8f0; }
  header { display: flex; align-items: center; gap: 1rem; padding: 0.6rem 1rem; background: #1e293b; }
  header h1 { font-size: 1rem; margin: 0; color: #38bdf8; }
  header select, header button { background: #334155; color: #e2e8f0; border: 1px solid #475569; border-radius: 4px; padding: 0.3rem 0.6rem; cursor: pointer; }
  header button:disabled { opacity: 0.4; cursor: default; }
  main { display: grid; grid-template-columns: 1fr 1fr; height: calc(100vh - 3.2rem); }
  #source { width: 100%; height: 100%; resize: none; border: 0; padding: 1rem; font-family: ui-monospace, monospace; font-size: 14px; background: #0f172a; color: #e2e8f0; outline: none; }
  #preview { overflow: auto; background: #f8fafc; padding: 1rem; }
  #hint { display: none; margin: 1rem; padding: 0.8rem 1rem; border-radius: 6px; background: #fef3c7; color: #92400e; font-size: 14px; }
</style>
</head>
<body>
<header>
  <h1>Flowlab</h1>
  <select id="templates"><option value="">Choose a starter...</option></select>
  <button id="undo" disabled>&#8630; Undo</button>
  <button id="redo" disabled>&#8631; Redo</button>
  <span style="flex:1"></span>
  <button data-format="svg">SVG</button>
  <button data-format="png">PNG</button>
  <button data-format="source">.mmd</button>
</header>
<main>
  <textarea id="source" spellcheck="false" placeholder="Type your diagram here, or choose a starter above."></textarea>
  <div>
    <div id="hint"></div>
    <div id="preview"></div>
  </div>
</main>
<script>
mermaid.initialize({ startOnLoad: false, theme: 'neutral' });

const source = document.getElementById('source');
const preview = document.getElementById('preview');
const hint = document.getElementById('hint');
const undoBtn = document.getElementById('undo');
const redoBtn = document.getElementById('redo');
const picker = document.getElementById('templates');

let sessionId = null;
let seq = 0;
let drawn = null;

async function api(path, opts) {
  const res = await fetch('/api' + path, opts);
  if (!res.ok) throw new Error(await res.text());
  return res.status === 204 ? null : res.json();
}

function show(view) {
  if (view.text !== source.value) source.value = view.text;
  undoBtn.disabled = !view.can_undo;
  redoBtn.disabled = !view.can_redo;
  draw(view.text);
}

async function draw(text) {
  if (text === drawn) return;
  drawn = text;
  const mine = ++seq;
  hint.style.display = 'none';
  if (!text.trim()) { preview.innerHTML = ''; return; }
  try {
    const { svg } = await mermaid.render('d' + mine, text);
    if (mine === seq) preview.innerHTML = svg;
  } catch (err) {
    // Keep the last good picture; the server render below brings the hint.
  }
  // Always render server-side as well, so exports have an image to hand out.
  const out = await api('/sessions/' + sessionId + '/render', { method: 'POST' });
  if (!out.ok && mine === seq) {
    hint.textContent = out.hint;
    hint.style.display = 'block';
  }
}

let timer = null;
source.addEventListener('input', () => {
  clearTimeout(timer);
  timer = setTimeout(async () => {
    const view = await api('/sessions/' + sessionId + '/edit', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({ text: source.value }),
    });
    show(view);
  }, 300);
});

picker.addEventListener('change', async () => {
  if (!picker.value) return;
  show(await api('/sessions/' + sessionId + '/template', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify({ name: picker.value }),
  }));
  picker.value = '';
});

undoBtn.addEventListener('click', async () => {
  show(await api('/sessions/' + sessionId + '/undo', { method: 'POST' }));
});
redoBtn.addEventListener('click', async () => {
  show(await api('/sessions/' + sessionId + '/redo', { method: 'POST' }));
});

document.querySelectorAll('[data-format]').forEach((btn) => {
  btn.addEventListener('click', () => {
    window.location = '/api/sessions/' + sessionId + '/export?format=' + btn.dataset.format;
  });
});

(async function init() {
  const tpls = await api('/templates');
  for (const t of tpls) {
    const opt = document.createElement('option');
    opt.value = t.name;
    opt.textContent = t.name + ' - ' + t.description;
    picker.appendChild(opt);
  }

  const view = await api('/sessions', { method: 'POST' });
  sessionId = view.id;
  show(view);

  // Follow server-side updates (another tab, the instructor's console).
  const events = new EventSource('/api/events?session_id=' + sessionId);
  events.onmessage = (ev) => show(JSON.parse(ev.data));
})();
</script>
</body>
</html>
`
