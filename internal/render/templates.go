package render

// layoutTemplate is the shared document shell. Page templates render inside
// it via the "layout" define blocks; asset links resolve through the manifest
// so fingerprinted bundles keep working after every client rebuild.
const layoutTemplate = `{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{if .Title}}{{.Title}} — {{end}}{{.SiteTitle}}</title>
<link rel="stylesheet" href="{{asset "app.css"}}">
</head>
<body>
<header><a href="/">{{.SiteTitle}}</a></header>
<main>{{end}}
{{define "foot"}}</main>
<script src="{{asset "app.js"}}" defer></script>
</body>
</html>{{end}}`

// pageTemplates maps template names to their bodies
var pageTemplates = map[string]string{
	"home": `{{template "head" .}}
<h1>{{.SiteTitle}}</h1>
{{if .Data.Pages}}<ul class="pages">
{{range .Data.Pages}}<li><a href="/pages/{{.Slug}}">{{.Title}}</a><p>{{.Summary}}</p></li>
{{end}}</ul>{{else}}<p>No pages published yet.</p>{{end}}
{{template "foot" .}}`,

	"page": `{{template "head" .}}
<article>
<h1>{{.Data.Page.Title}}</h1>
<time datetime="{{.Data.Page.UpdatedAt.Format "2006-01-02"}}">{{.Data.Page.UpdatedAt.Format "January 2, 2006"}}</time>
{{.Data.Page.BodyHTML | safeHTML}}
</article>
{{template "foot" .}}`,

	"not_found": `{{template "head" .}}
<h1>Page not found</h1>
<p>The page you requested does not exist. <a href="/">Back to the front page.</a></p>
{{template "foot" .}}`,

	"error": `{{template "head" .}}
<h1>Something went wrong</h1>
<p>The page could not be rendered. Please try again.</p>
{{template "foot" .}}`,
}
