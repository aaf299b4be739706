package report

import "html/template"

const styleTemplate = `{{define "style"}}<style>
        :root {
            --pass: #16A34A;
            --fail: #DC2626;
            --warn: #CA8A04;
            --bg: #0f172a;
            --card: #1e293b;
            --text: #f8fafc;
            --muted: #94a3b8;
            --border: #334155;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
            padding: 2rem;
        }
        a { color: var(--text); }
        .container { max-width: 1200px; margin: 0 auto; }
        h1 { font-size: 2rem; margin-bottom: 0.5rem; font-weight: 600; }
        .timestamp { color: var(--muted); font-size: 0.875rem; margin-bottom: 2rem; }
        .summary { display: flex; gap: 1rem; margin-bottom: 2rem; }
        .summary-card {
            background: var(--card);
            border-radius: 0.5rem;
            padding: 1rem 1.5rem;
            border: 1px solid var(--border);
        }
        .summary-card.pass { border-left: 4px solid var(--pass); }
        .summary-card.warn { border-left: 4px solid var(--warn); }
        .summary-card.fail { border-left: 4px solid var(--fail); }
        .summary-label {
            font-size: 0.75rem;
            text-transform: uppercase;
            color: var(--muted);
            letter-spacing: 0.05em;
        }
        .summary-value { font-size: 1.5rem; font-weight: 600; }
        .summary-detail { color: var(--muted); font-size: 0.875rem; }
        table {
            width: 100%;
            border-collapse: collapse;
            background: var(--card);
            border-radius: 0.5rem;
            overflow: hidden;
            margin-bottom: 2rem;
        }
        th, td {
            padding: 0.5rem 1rem;
            text-align: left;
            border-bottom: 1px solid var(--border);
        }
        th {
            background: rgba(0,0,0,0.2);
            font-weight: 600;
            font-size: 0.75rem;
            text-transform: uppercase;
            letter-spacing: 0.05em;
            color: var(--muted);
        }
        tr:last-child td { border-bottom: none; }
        .progress-bar {
            width: 100%;
            height: 6px;
            background: var(--border);
            border-radius: 3px;
            overflow: hidden;
        }
        .progress-fill { height: 100%; border-radius: 3px; }
        .progress-fill.pass { background: var(--pass); }
        .progress-fill.warn { background: var(--warn); }
        .progress-fill.fail { background: var(--fail); }
        .coverage-cell { display: flex; align-items: center; gap: 0.75rem; }
        .coverage-percent { min-width: 4rem; font-weight: 500; }
        .section-title { font-size: 1.25rem; margin-bottom: 1rem; font-weight: 600; }
        .source td { padding: 0 0.75rem; border-bottom: none; font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 0.8125rem; }
        .source td.num, .source td.hits, .source td.branches { color: var(--muted); text-align: right; white-space: nowrap; }
        .source td.code { white-space: pre; }
        .source tr.covered { background: rgba(22, 163, 74, 0.15); }
        .source tr.uncovered { background: rgba(220, 38, 38, 0.2); }
        .inputs { color: var(--muted); font-size: 0.875rem; list-style: none; margin-bottom: 2rem; }
    </style>{{end}}`

const cardsTemplate = `{{define "cards"}}<div class="summary">
            {{range .}}
            <div class="summary-card {{.Class}}">
                <div class="summary-label">{{.Label}}</div>
                <div class="summary-value">{{.Text}}</div>
                <div class="summary-detail">{{.Covered}} / {{.Total}}</div>
            </div>
            {{end}}
        </div>{{end}}`

const barTemplate = `{{define "bar"}}<div class="coverage-cell">
                            <span class="coverage-percent">{{.Text}}</span>
                            <div class="progress-bar">
                                <div class="progress-fill {{.Class}}" style="width: {{printf "%.0f" .Percent}}%"></div>
                            </div>
                        </div>{{end}}`

const indexTemplate = `{{define "index"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Name}}</title>
    {{template "style"}}
</head>
<body>
    <div class="container">
        <h1>{{.Name}}</h1>
        <p class="timestamp">Generated {{.Timestamp}}</p>

        {{template "cards" .Totals}}

        {{if .Inputs}}
        <h2 class="section-title">Inputs</h2>
        <ul class="inputs">
            {{range .Inputs}}
            <li>{{.}}</li>
            {{end}}
        </ul>
        {{end}}

        <h2 class="section-title">Files</h2>
        <table>
            <thead>
                <tr>
                    <th>File</th>
                    <th>Lines</th>
                    <th>Functions</th>
                    <th>Branches</th>
                </tr>
            </thead>
            <tbody>
                {{range .Files}}
                <tr>
                    <td><a href="{{.Page}}">{{.Path}}</a></td>
                    <td>{{template "bar" .Lines}}</td>
                    <td>{{.Functions.Text}}</td>
                    <td>{{.Branches.Text}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>
</body>
</html>
{{end}}`

const fileTemplate = `{{define "file"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Path}} - {{.Name}}</title>
    {{template "style"}}
</head>
<body>
    <div class="container">
        <p class="timestamp"><a href="{{.Index}}">{{.Name}}</a></p>
        <h1>{{.Path}}</h1>
        <p class="timestamp">Generated {{.Timestamp}}</p>

        {{template "cards" .Totals}}

        {{if .Functions}}
        <h2 class="section-title">Functions</h2>
        <table>
            <thead>
                <tr>
                    <th>Function</th>
                    <th>Line</th>
                    <th>Hits</th>
                </tr>
            </thead>
            <tbody>
                {{range .Functions}}
                <tr>
                    <td>{{.Name}}</td>
                    <td>{{.Line}}</td>
                    <td>{{.Hits}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}

        <h2 class="section-title">{{if .SourceShown}}Source{{else}}Instrumented lines{{end}}</h2>
        <table class="source">
            <tbody>
                {{range .Rows}}
                <tr class="{{.Class}}">
                    <td class="num">{{.Number}}</td>
                    <td class="hits">{{.Hits}}</td>
                    <td class="branches">{{.Branches}}</td>
                    <td class="code">{{.Source}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>
</body>
</html>
{{end}}`

var pages = template.Must(template.New("report").Parse(
	styleTemplate + cardsTemplate + barTemplate + indexTemplate + fileTemplate,
))
