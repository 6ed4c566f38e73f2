package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"io"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines standard fields for email templates.
type EmailData struct {
	// Basic info
	Email string `json:"Email"`
	Type  string `json:"Type"`

	// Company info
	CompanyName string `json:"CompanyName"`
	AppName     string `json:"AppName"`
	LogoURL     string `json:"LogoURL"`
	SupportURL  string `json:"SupportURL"`

	// Link the recipient should follow (confirm, reset or review)
	ActionURL string `json:"ActionURL"`

	// Agreement notices
	AgreementTitle   string `json:"AgreementTitle"`
	AgreementVersion string `json:"AgreementVersion"`
	AgreementType    string `json:"AgreementType"`

	// Request context
	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`
	IP            string    `json:"IP"`
	Location      string    `json:"Location"`
	Time          string    `json:"Time"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		zero := reflect.Zero(rv.Type()).Interface()
		if reflect.DeepEqual(value, zero) {
			return fallback
		}
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"now":     func() time.Time { return time.Now().UTC() },
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

var (
	htmlFuncMap = htmpl.FuncMap(baseFuncs())
	textFuncMap = texttpl.FuncMap(baseFuncs())
)

const (
	Signup        = "signup"
	ResetPassword = "reset_password"
	ReAgreement   = "re_agreement"
)

// set is the parsed subject, text and html bodies of one mail.
type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var sets = mustParse(Signup, ResetPassword, ReAgreement)

func mustParse(names ...string) map[string]set {
	out := make(map[string]set, len(names))
	for _, name := range names {
		s, err := parse(name)
		if err != nil {
			panic(err)
		}
		out[name] = s
	}
	return out
}

// parse expects <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl in FS.
func parse(name string) (set, error) {
	var (
		s   set
		err error
	)
	if s.subject, err = texttpl.New(name+".subject.tmpl").Funcs(textFuncMap).ParseFS(FS, name+".subject.tmpl"); err != nil {
		return set{}, fmt.Errorf("parse %s subject: %w", name, err)
	}
	if s.text, err = texttpl.New(name+".text.tmpl").Funcs(textFuncMap).ParseFS(FS, name+".text.tmpl"); err != nil {
		return set{}, fmt.Errorf("parse %s text: %w", name, err)
	}
	if s.html, err = htmpl.New(name+".html.tmpl").Funcs(htmlFuncMap).ParseFS(FS, name+".html.tmpl"); err != nil {
		return set{}, fmt.Errorf("parse %s html: %w", name, err)
	}
	return s, nil
}

// Known reports whether name has templates in FS.
func Known(name string) bool {
	_, ok := sets[name]
	return ok
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func execute(t executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render executes the subject, text and html templates of name.
func Render(name string, data any) (subject string, text string, html string, err error) {
	s, ok := sets[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	if subject, err = execute(s.subject, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s subject: %w", name, err)
	}
	if text, err = execute(s.text, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s text: %w", name, err)
	}
	if html, err = execute(s.html, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s html: %w", name, err)
	}
	return strings.TrimSpace(subject), text, html, nil
}
