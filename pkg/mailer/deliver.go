package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oksasatya/social-account-service/pkg/mailer/templates"
)

var ErrInvalidJob = errors.New("invalid email job")

// Deliver renders job if it names a template and hands it to s. geo is
// optional; when set, a job carrying an IP gets a Location line.
func Deliver(ctx context.Context, s Sender, geo templates.GeoResolver, job EmailJob) error {
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: empty recipient", ErrInvalidJob)
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if !templates.Known(job.Template) {
			return fmt.Errorf("%w: unknown template %q", ErrInvalidJob, job.Template)
		}
		data := job.Data
		if data == nil {
			data = map[string]any{}
		}
		if _, ok := data["Email"]; !ok {
			data["Email"] = job.To
		}
		if ip, _ := data["IP"].(string); ip != "" && geo != nil {
			if loc, _ := data["Location"].(string); loc == "" {
				if g, err := geo.Lookup(ctx, ip); err == nil {
					data["Location"] = templates.FormatGeo(g)
				}
			}
		}
		var err error
		subject, text, html, err = templates.Render(job.Template, data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
	}
	if subject == "" || (text == "" && html == "") {
		return fmt.Errorf("%w: empty message", ErrInvalidJob)
	}
	return s.Send(ctx, job.To, subject, text, html)
}
