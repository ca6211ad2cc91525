package browser

import (
	"encoding/json"
	"fmt"
)

// The remote UI is a DataTables-backed listing. These snippets drive it the
// same way an operator would, falling back from the DataTables API to raw
// inputs when the API is unavailable.

// jsArg JSON-encodes v for safe embedding in a script literal.
func jsArg(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// searchScript applies the global table search for query under the given
// match mode. equals and startswith use anchored escaped regexes on
// client-side tables; plain (and server-side tables) use a plain search.
func searchScript(query, mode string) string {
	return fmt.Sprintf(`(function(query, mode){
  function escapeRegex(s){
    return String(s).replace(/[.*+?^${}()|[\]\\]/g, '\\$&');
  }
  var tableEl = document.querySelector('#packages_table');
  if (!tableEl) return {ok:false, message:'table not found'};

  var dt = null;
  try {
    dt = (window.jQuery && window.jQuery.fn && window.jQuery.fn.dataTable)
         ? window.jQuery(tableEl).DataTable()
         : null;
  } catch (e) { dt = null; }

  if (dt) {
    var settings   = dt.settings ? dt.settings()[0] : null;
    var serverSide = settings ? !!settings.oFeatures.bServerSide : false;

    if (!serverSide && mode === 'equals') {
      dt.search('^' + escapeRegex(query) + '$', true, false).draw(false);
      return {ok:true, message:'regex equals search'};
    }
    if (!serverSide && mode === 'startswith') {
      dt.search('^' + escapeRegex(query), true, false).draw(false);
      return {ok:true, message:'regex prefix search'};
    }
    dt.search(query).draw(false);
    return {ok:true, message:'plain api search'};
  }

  var input = document.querySelector('div.dataTables_filter input[type="search"]') ||
              document.querySelector('input[type="search"]');
  if (input) {
    input.value = query;
    input.dispatchEvent(new Event('input',  {bubbles:true}));
    input.dispatchEvent(new Event('change', {bubbles:true}));
    return {ok:true, message:'input search'};
  }
  return {ok:false, message:'no search control'};
})(%s, %s)`, jsArg(query), jsArg(mode))
}

// pageLengthScript sets the table page length (-1 shows all rows), via the
// DataTables API or the length dropdown.
func pageLengthScript(length int) string {
	return fmt.Sprintf(`(function(len){
  var tableEl = document.querySelector('#packages_table');
  if (!tableEl) return {ok:false, message:'table not found'};

  var dt = null;
  try {
    dt = (window.jQuery && window.jQuery.fn && window.jQuery.fn.dataTable)
         ? window.jQuery(tableEl).DataTable()
         : null;
  } catch (e) { dt = null; }

  if (dt) {
    dt.page.len(len).draw(false);
    return {ok:true, message:'set via api'};
  }

  var sel = document.querySelector('#packages_table_length select');
  if (sel) {
    sel.value = String(len);
    sel.dispatchEvent(new Event('change', {bubbles:true}));
    return {ok:true, message:'set via dropdown'};
  }
  return {ok:false, message:'no api and no dropdown'};
})(%s)`, jsArg(length))
}

// collectLinksScript harvests the absolute URLs of the approver links from
// the visible table rows, de-duplicated in page order.
const collectLinksScript = `(function(){
  var tbody = document.querySelector('#packages_table tbody');
  if (!tbody) return [];
  var rows = tbody.querySelectorAll('tr');
  var seen = {};
  var links = [];
  for (var i = 0; i < rows.length; i++) {
    var r = rows[i];
    if (r.offsetParent === null) continue;
    var anchors = r.querySelectorAll('a');
    for (var j = 0; j < anchors.length; j++) {
      var a = anchors[j];
      if ((a.textContent || '').indexOf('New approver') === -1) continue;
      if (!a.href) continue;
      var abs = new URL(a.getAttribute('href'), document.location.href).href;
      if (!seen[abs]) {
        seen[abs] = true;
        links.push(abs);
      }
      break;
    }
  }
  return links;
})()`

// processingHiddenScript reports whether the table's processing overlay is
// absent or invisible.
const processingHiddenScript = `(function(){
  var el = document.getElementById('packages_table_processing');
  if (!el) return true;
  var style = window.getComputedStyle(el);
  return style.display === 'none' || style.visibility === 'hidden' || el.offsetParent === null;
})()`

// pickSuggestionScript clicks the autocomplete item containing the typed
// query, or the first item when none matches. Returns false when the list is
// empty.
func pickSuggestionScript(query string) string {
	return fmt.Sprintf(`(function(typed){
  var items = document.querySelectorAll('ul.suggest-list li, ul.ui-autocomplete li');
  if (!items.length) return false;
  var norm = typed.trim().toLowerCase();
  var chosen = null;
  for (var i = 0; i < items.length; i++) {
    var txt = (items[i].textContent || '').trim().toLowerCase();
    if (norm && txt.indexOf(norm) !== -1) { chosen = items[i]; break; }
  }
  if (!chosen) chosen = items[0];
  chosen.scrollIntoView({block:'nearest'});
  chosen.click();
  return true;
})(%s)`, jsArg(query))
}

// approverValueSetScript reports whether the hidden approver field was
// populated by the suggestion pick.
const approverValueSetScript = `(function(){
  var el = document.querySelector("input[name='approver_value']");
  return !!(el && el.value && el.value.trim().length > 0);
})()`

// clickSubmitScript clicks the form's submit control. Returns false when the
// control is missing.
const clickSubmitScript = `(function(){
  var btn = document.querySelector("input[type='submit'][name='submit'][value='Submit']");
  if (!btn) return false;
  btn.click();
  return true;
})()`

// submissionSettledScript reports whether the submission finished: the
// listing is back, an alert banner is shown, or the approver input is gone.
const submissionSettledScript = `(function(){
  if (document.location.pathname.indexOf('/arms2/unit-owner/packages') !== -1) return true;
  if (document.querySelector('.alert-success, .alert-info, .alert-warning, .alert-danger')) return true;
  return !document.getElementById('approver_value_input');
})()`
