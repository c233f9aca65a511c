package conjurer

import (
	"encoding/json"
	"fmt"
)

// canvasLookup binds `canvas` to the first drawable canvas on the page.
const canvasLookup = `
let canvas = null;
for (const sel of ['#mainCanvas', '#card-canvas', '#canvas', 'canvas']) {
	const c = document.querySelector(sel);
	if (c && c.width > 0 && c.height > 0) { canvas = c; break; }
}
`

const fingerprintScript = `(() => {` + canvasLookup + `
	if (!canvas) return "";
	let data;
	try { data = canvas.toDataURL('image/png'); } catch (e) { return ""; }
	if (!data) return "";
	let hash = 0;
	for (let i = 0; i < data.length; i++) {
		hash = ((hash << 5) - hash) + data.charCodeAt(i);
		hash |= 0;
	}
	return hash.toString() + ":" + data.length;
})()`

const bitmapScript = `(() => {` + canvasLookup + `
	if (!canvas) return "";
	try { return canvas.toDataURL('image/png'); } catch (e) { return ""; }
})()`

const markStaleOptionsScript = `(() => {
	const sel = document.getElementById('import-index');
	if (sel && sel.options.length > 0) sel.options[0].dataset.cardcapStale = '1';
	return true;
})()`

// importOptionsScript resolves once the selector has been repopulated.
const importOptionsScript = `(() => {
	const sel = document.getElementById('import-index');
	if (!sel || sel.options.length === 0) return null;
	if (sel.options[0].dataset.cardcapStale === '1') return null;
	return Array.from(sel.options).map(o => ({text: o.text, value: o.value}));
})()`

func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func selectImportScript(token string) string {
	return fmt.Sprintf(`(() => {
	const sel = document.getElementById('import-index');
	if (!sel) return false;
	sel.value = %s;
	if (sel.value !== %s) return false;
	sel.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
})()`, jsString(token), jsString(token))
}

func setInputScript(id, value string) string {
	return fmt.Sprintf(`(() => {
	const el = document.getElementById(%s);
	if (!el) return false;
	el.value = %s;
	el.dispatchEvent(new Event('input', {bubbles: true}));
	return true;
})()`, jsString(id), jsString(value))
}

func selectFrameScript(frame string) string {
	return fmt.Sprintf(`(() => {
	const sel = document.getElementById('autoFrame');
	if (!sel) return "missing";
	if (sel.value === %s) return "unchanged";
	sel.value = %s;
	if (sel.value !== %s) return "unknown";
	sel.dispatchEvent(new Event('change', {bubbles: true}));
	return "changed";
})()`, jsString(frame), jsString(frame), jsString(frame))
}

// checkboxScript toggles the first matching checkbox, by id or by the text of
// its enclosing label.
func checkboxScript(ids []string, labelText string, enabled bool) string {
	idsJSON, _ := json.Marshal(ids)
	return fmt.Sprintf(`(() => {
	let box = null;
	for (const id of %s) {
		box = document.getElementById(id);
		if (box) break;
	}
	if (!box && %s !== "") {
		for (const label of document.querySelectorAll('label')) {
			if (label.textContent.toLowerCase().includes(%s)) {
				box = label.querySelector('input[type=checkbox]');
				if (box) break;
			}
		}
	}
	if (!box) return "missing";
	if (box.checked === %t) return "unchanged";
	const label = box.closest('label');
	(label || box).click();
	if (box.checked !== %t) box.click();
	return box.checked === %t ? "changed" : "stuck";
})()`, idsJSON, jsString(labelText), jsString(labelText), enabled, enabled, enabled)
}

func clickXPathTwiceScript(xpath string) string {
	return fmt.Sprintf(`(() => {
	const el = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el) return false;
	el.scrollIntoView({block: 'center'});
	el.click();
	el.click();
	return true;
})()`, jsString(xpath))
}
