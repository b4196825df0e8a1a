package merge

import (
	"bytes"
	"strings"
)

// finishHandlerScript is spliced into every copied markup file. It routes the
// page's conventional "finish" paths back to the generated menu: clicks on
// finish/exit-style controls, the window.close primitive, and the SCORM
// finish calls themselves.
const finishHandlerScript = `
<script>
(function () {
  "use strict";

  var MAX_API_HOPS = 7;
  var RETURN_DELAY_MS = 500;

  function menuLocation() {
    try { return sessionStorage.getItem("coursemerge.menuLocation"); } catch (err) { return null; }
  }

  function goToMenu() {
    var menu = menuLocation();
    if (menu) { window.location.href = menu; }
  }
  window.returnToMenu = goToMenu;

  window.close = function () { goToMenu(); };

  function wrapFinish(api, name) {
    if (!api || typeof api[name] !== "function" || api[name].__coursemergeWrapped) { return; }
    var native = api[name];
    api[name] = function () {
      var result = native.apply(api, arguments);
      setTimeout(goToMenu, RETURN_DELAY_MS);
      return result;
    };
    api[name].__coursemergeWrapped = true;
  }

  function wrapAPIs(win) {
    var hops = 0;
    while (win && hops < MAX_API_HOPS) {
      try {
        if (win.API) { wrapFinish(win.API, "LMSFinish"); }
        if (win.API_1484_11) { wrapFinish(win.API_1484_11, "Terminate"); }
        if (win.parent === win) { break; }
        win = win.parent;
      } catch (err) { break; }
      hops += 1;
    }
  }

  document.addEventListener("click", function (event) {
    var el = event.target;
    for (var depth = 0; el && depth < 3; depth += 1) {
      var text = (el.textContent || "").trim().toLowerCase();
      if (text && text.length <= 24 && /(finish|exit|close|quit|done)/.test(text)) {
        setTimeout(goToMenu, RETURN_DELAY_MS);
        return;
      }
      el = el.parentElement;
    }
  }, true);

  wrapAPIs(window);
})();
</script>
`

// injectionPoints are checked in priority order; the script lands immediately
// before the first tag found.
var injectionPoints = []string{"</head>", "</body>", "</html>"}

// InjectFinishHandler splices the finish-handler script into an HTML
// document, before the first closing head/body/html tag or appended at the
// end when none exist. It reports false and returns the original bytes
// unchanged if injection fails; a bad input file must never corrupt output.
func InjectFinishHandler(data []byte) (result []byte, ok bool) {
	defer func() {
		if recover() != nil {
			result, ok = data, false
		}
	}()

	lower := asciiLower(data)
	for _, tag := range injectionPoints {
		idx := bytes.Index(lower, []byte(tag))
		if idx < 0 {
			continue
		}
		var b bytes.Buffer
		b.Grow(len(data) + len(finishHandlerScript))
		b.Write(data[:idx])
		b.WriteString(finishHandlerScript)
		b.Write(data[idx:])
		return b.Bytes(), true
	}

	var b bytes.Buffer
	b.Grow(len(data) + len(finishHandlerScript))
	b.Write(data)
	if !bytes.HasSuffix(data, []byte("\n")) {
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimLeft(finishHandlerScript, "\n"))
	return b.Bytes(), true
}

// asciiLower lowercases only A-Z. Unicode case folding can change byte
// length (U+212A folds to a one-byte k), which would desync offsets found
// in the lowered copy from the original bytes being spliced.
func asciiLower(data []byte) []byte {
	lower := make([]byte, len(data))
	for i, c := range data {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		lower[i] = c
	}
	return lower
}
