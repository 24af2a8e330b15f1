package catalog

import (
	"net/http"
	"net/url"

	"github.com/prognoshealth/integrationproxy/operation"
)

// Files returns the file proxy descriptor. It streams a document from a
// signed url so browsers can display it inline.
func Files() []*operation.Descriptor {
	return []*operation.Descriptor{
		{
			Name:          "files.proxy",
			Route:         "/files/proxy",
			Methods:       []string{http.MethodGet, http.MethodPost},
			Platform:      operation.Files,
			Kind:          operation.Read,
			Auth:          operation.AuthNone,
			RequireCaller: true,
			Method:        http.MethodGet,
			Required: []operation.Requirement{
				{Field: "url", Message: "File URL is required"},
			},
			Target:   fileURL,
			Redirect: checkFileURL,
			Shape: operation.Shape{
				Binary: &operation.BinaryShape{
					ContentType: "application/pdf",
					Disposition: `inline; filename="document.pdf"`,
				},
			},
			FailureMessage: "Failed to fetch file",
		},
	}
}

func fileURL(inv *operation.Invocation) (string, error) {
	u, err := url.Parse(inv.Payload.String("url"))
	if err != nil {
		return "", operation.Invalid("Invalid file URL")
	}

	if err := checkFileURL(inv, u); err != nil {
		return "", err
	}

	return u.String(), nil
}

// checkFileURL holds the initial url and every redirect hop to https on an
// allowed host.
func checkFileURL(inv *operation.Invocation, u *url.URL) error {
	if u.Host == "" {
		return operation.Invalid("Invalid file URL")
	}

	if u.Scheme != "https" {
		return operation.Invalid("File URL must use https")
	}

	if !inv.Config.HostAllowed(u.Hostname()) {
		return operation.Invalid("File host is not allowed")
	}

	return nil
}
