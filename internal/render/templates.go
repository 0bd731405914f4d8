package render

import (
	"html/template"
)

var templates = template.Must(template.New("render").Parse(`
{{define "wrapper"}}<div class="hs-component hs-component--{{.Kind}}{{range .Classes}} {{.}}{{end}}" data-component="{{.Name}}" data-component-id="{{.ID}}"{{if .Style}} style="{{range .Style}}{{.Prop}}: {{.Value}}; {{end}}"{{end}}{{with .Interactions}} data-interactions="{{.}}"{{end}}{{with .Responsive}} data-responsive="{{.}}"{{end}}>{{.Body}}</div>{{end}}

{{define "json"}}<pre class="hs-json">{{.}}</pre>{{end}}

{{define "react-button"}}{{if and .Href (not .Disabled)}}<a class="hs-button hs-button--{{.Variant}}" href="{{.Href}}">{{.Label}}</a>{{else}}<button type="button" class="hs-button hs-button--{{.Variant}}"{{if .Disabled}} disabled{{end}}>{{.Label}}</button>{{end}}{{end}}

{{define "react-text"}}{{if eq .As "h1"}}<h1 class="hs-text">{{.Content}}</h1>{{else if eq .As "h2"}}<h2 class="hs-text">{{.Content}}</h2>{{else if eq .As "h3"}}<h3 class="hs-text">{{.Content}}</h3>{{else if eq .As "h4"}}<h4 class="hs-text">{{.Content}}</h4>{{else if eq .As "h5"}}<h5 class="hs-text">{{.Content}}</h5>{{else if eq .As "h6"}}<h6 class="hs-text">{{.Content}}</h6>{{else if eq .As "span"}}<span class="hs-text">{{.Content}}</span>{{else}}<p class="hs-text">{{.Content}}</p>{{end}}{{end}}

{{define "html"}}<div class="hs-html">{{.}}</div>{{end}}

{{define "missing-template"}}<div class="hs-component-warning" role="status">Component &#34;{{.}}&#34; has no template configured</div>{{end}}

{{define "card"}}<div class="hs-card">{{with .Image}}<img class="hs-card__image" src="{{.Src}}" alt="{{.Alt}}">{{end}}<div class="hs-card__body">{{with .Title}}<h3 class="hs-card__title">{{.}}</h3>{{end}}{{with .Description}}<p class="hs-card__description">{{.}}</p>{{end}}{{if .Actions}}<div class="hs-card__actions">{{range .Actions}}{{if .Href}}<a class="hs-button hs-button--{{.Variant}}" href="{{.Href}}">{{.Label}}</a>{{else}}<button type="button" class="hs-button hs-button--{{.Variant}}">{{.Label}}</button>{{end}}{{end}}</div>{{end}}</div></div>{{end}}

{{define "banner"}}<div class="hs-banner hs-banner--{{.Severity}}" role="{{if eq .Severity "error"}}alert{{else}}status{{end}}" data-severity="{{.Severity}}">{{with .Icon}}<span class="hs-banner__icon" aria-hidden="true">{{.}}</span>{{end}}<div class="hs-banner__content">{{with .Title}}<strong class="hs-banner__title">{{.}}</strong>{{end}}{{with .Message}}<p class="hs-banner__message">{{.}}</p>{{end}}</div>{{if .Dismissible}}<button type="button" class="hs-banner__dismiss" aria-label="Dismiss" data-action="dismiss">&times;</button>{{end}}</div>{{end}}

{{define "form"}}<form class="hs-form" method="{{.Method}}"{{with .Action}} action="{{.}}"{{end}}>{{range .Fields}}<div class="hs-form__field">{{if .Label}}<label for="{{.ID}}">{{.Label}}{{if .Required}} <span class="hs-form__required">*</span>{{end}}</label>{{end}}{{if eq .Type "textarea"}}<textarea id="{{.ID}}" name="{{.Name}}" placeholder="{{.Placeholder}}"{{if .Required}} required{{end}}></textarea>{{else if eq .Type "select"}}<select id="{{.ID}}" name="{{.Name}}"{{if .Required}} required{{end}}>{{range .Options}}<option value="{{.}}">{{.}}</option>{{end}}</select>{{else}}<input id="{{.ID}}" type="{{.Type}}" name="{{.Name}}" placeholder="{{.Placeholder}}"{{if .Required}} required{{end}}>{{end}}</div>{{end}}{{with .SubmitLabel}}<button type="submit" class="hs-button hs-button--primary">{{.}}</button>{{end}}</form>{{end}}

{{define "list"}}{{if .Items}}{{if .Ordered}}<ol class="hs-list">{{else}}<ul class="hs-list">{{end}}{{range .Items}}<li class="hs-list__item">{{if .JSON}}<pre class="hs-json">{{.Text}}</pre>{{else}}{{.Text}}{{end}}</li>{{end}}{{if .Ordered}}</ol>{{else}}</ul>{{end}}{{else}}<p class="hs-list__empty">No items</p>{{end}}{{end}}

{{define "default"}}<div class="hs-default"><h4 class="hs-default__title">{{.Label}}</h4>{{with .Description}}<p class="hs-default__description">{{.}}</p>{{end}}<dl class="hs-default__meta"><dt>Type</dt><dd>{{.ComponentType}}</dd><dt>Category</dt><dd>{{.Category}}</dd></dl></div>{{end}}

{{define "render-error"}}<div class="hs-component-error" role="alert"><strong>Error rendering component: {{.Label}}</strong>{{with .Message}}<p>{{.}}</p>{{end}}</div>{{end}}

{{define "fetch-error"}}<div class="hs-component-error" role="alert"><strong>Failed to load component: {{.Ref}}</strong>{{with .Message}}<p>{{.}}</p>{{end}}</div>{{end}}

{{define "loading"}}<div class="hs-component-loading" aria-busy="true" data-component="{{.}}"><span class="hs-spinner" aria-hidden="true"></span><span class="hs-visually-hidden">Loading component</span></div>{{end}}
`))
