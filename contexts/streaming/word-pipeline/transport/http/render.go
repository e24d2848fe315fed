package httptransport

import (
	"bytes"
	"html/template"
	"io"
	"net/url"
	"strconv"
)

const WordsPath = "/api/words"

var rowsTemplate = template.Must(template.New("rows").Parse(
	`{{range .Items}}<tr><td class="id">{{.ID}}</td><td class="word">{{.Word}}</td></tr>{{end}}` +
		`{{with .NextURL}}<tr class="loading" hx-get="{{.}}" hx-trigger="revealed" hx-swap="outerHTML"><td colspan="2">Loading...</td></tr>{{end}}`,
))

type rowsView struct {
	Items   []WordDTO
	NextURL string
}

// NextPageURL is the follow-up request for a page that carried a cursor.
func NextPageURL(cursor int64, limit int) string {
	query := url.Values{}
	query.Set("cursor", strconv.FormatInt(cursor, 10))
	query.Set("limit", strconv.Itoa(limit))
	return WordsPath + "?" + query.Encode()
}

// RenderRows writes one table row per word and, when the page has a next
// cursor, a trailing row that fetches the next page once it is revealed.
func RenderRows(w io.Writer, resp ListWordsResponse) error {
	view := rowsView{Items: resp.Items}
	if resp.NextCursor != nil {
		view.NextURL = NextPageURL(*resp.NextCursor, resp.Limit)
	}

	var buf bytes.Buffer
	if err := rowsTemplate.Execute(&buf, view); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// IndexHTML is the full page shell; the rows body requests the first page on load.
const IndexHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>ccdemo - Words</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 2rem; }
      h1 { margin-bottom: .5rem; }
      .bar { display:flex; gap:1rem; align-items:center; margin-bottom:1rem; flex-direction:column; }
      #list { max-width: 48rem; margin: 0 auto; }
      table { width: 100%; border-collapse: collapse; }
      thead th { text-align: left; font-weight: 600; border-bottom: 2px solid #ddd; padding: .5rem .6rem; position: sticky; top: 0; background: #fff; }
      tbody td { border-bottom: 1px solid #eee; padding: .45rem .6rem; }
      td.id { width: 6rem; color: #555; }
      tr.loading td { text-align: center; color: #666; }
    </style>
    <script src="https://unpkg.com/htmx.org@1.9.12"></script>
  </head>
  <body>
    <div class="bar">
      <h1>Words</h1>
    </div>
    <div id="list">
      <table>
        <thead>
          <tr>
            <th>ID</th>
            <th>Word</th>
          </tr>
        </thead>
        <tbody id="rows" hx-get="/api/words" hx-trigger="load" hx-swap="innerHTML"></tbody>
      </table>
    </div>
  </body>
</html>
`
