package server

const pageTemplates = `
{{define "head"}}<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>{{.}}</title>
<style>
body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;min-width:32rem}
th,td{border-bottom:1px solid #ddd;padding:.4rem .8rem;text-align:left}
th{background:#f5f5f5}
.muted{color:#777}.error{color:#b00020}
</style></head><body>{{end}}

{{define "foot"}}</body></html>{{end}}

{{define "dashboard"}}{{template "head" "FNA Dashboard"}}
<h1>FNA Sessions</h1>
{{with .Agent}}<p class="muted">Signed in as {{.}}</p>{{end}}
<p><a href="/export/sessions.xlsx">Download spreadsheet</a></p>
{{if .Sessions}}
<table>
<thead><tr><th>Date</th><th>Income</th><th>Dependents</th><th></th></tr></thead>
<tbody>
{{range .Sessions}}<tr>
<td>{{date .CreatedAt}}</td>
<td>{{money .HouseholdIncome}}</td>
<td>{{.Dependents}}</td>
<td><a href="/dashboard/{{.ID}}">View / PDF</a></td>
</tr>
{{end}}</tbody>
</table>
{{else}}<p class="muted">No sessions yet.</p>{{end}}
{{template "foot"}}{{end}}

{{define "detail"}}{{template "head" "FNA Session"}}
<p><a href="/dashboard">&larr; All sessions</a></p>
<h1>Session {{.Session.ID}}</h1>
<table>
<tr><th>Date</th><td>{{date .Session.CreatedAt}}</td></tr>
<tr><th>Household income</th><td>{{money .Session.HouseholdIncome}}</td></tr>
<tr><th>Dependents</th><td>{{.Session.Dependents}}</td></tr>
</table>
<p><a href="{{.PDFURL}}" target="_blank">Open PDF</a></p>
{{template "foot"}}{{end}}

{{define "auth"}}{{template "head" "Sign in"}}
<h1>Sign in required</h1>
{{with .Error}}<p class="error">{{.}}</p>{{end}}
<p>Open the sign-in link issued for your agent account to continue to <code>{{.Next}}</code>.</p>
{{template "foot"}}{{end}}

{{define "error"}}{{template "head" "FNA"}}
<p class="error">{{.Message}}</p>
<p><a href="/dashboard">Back to dashboard</a></p>
{{template "foot"}}{{end}}
`
