package engine

import (
	"github.com/go-playground/validator/v10"
	"github.com/prognoshealth/integrationproxy/operation"
	"github.com/prognoshealth/integrationproxy/soql"
)

// Validator tags for Requirement.Format.
const (
	// FormatRecordID is a 15 or 18 character Salesforce record id.
	FormatRecordID = "alphanum,len=15|len=18"
	// FormatAPIName is a plain Salesforce object or field api name.
	FormatAPIName = "sf_name"
	// FormatBaseURL is an absolute http(s) url with no query or fragment.
	FormatBaseURL = "http_url,excludesall=?#"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	err := v.RegisterValidation("sf_name", func(fl validator.FieldLevel) bool {
		return soql.ValidName(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}

	return v
}

// crmCredentials are required by every operation authenticated with the
// caller's Salesforce session.
var crmCredentials = []operation.Requirement{
	{Field: "token", Message: "Salesforce token is required"},
	{
		Field:   "instanceUrl",
		Message: "Salesforce instance URL is required",
		Format:  FormatBaseURL,
		Invalid: "Salesforce instance URL is invalid",
	},
}

// Requirements returns every requirement checked for d, in order.
func Requirements(d *operation.Descriptor) []operation.Requirement {
	if d.Auth != operation.AuthCaller {
		return d.Required
	}

	all := make([]operation.Requirement, 0, len(crmCredentials)+len(d.Required))
	all = append(all, crmCredentials...)
	return append(all, d.Required...)
}

// Validate checks the payload against the requirements of d. It only reads
// the payload.
func Validate(d *operation.Descriptor, p *operation.Payload) error {
	for _, r := range Requirements(d) {
		if !p.Present(r.Field) {
			return operation.Invalid(r.Message)
		}

		if r.Format != "" && validate.Var(p.Peek(r.Field), r.Format) != nil {
			return operation.Invalid(r.Invalid)
		}
	}

	return nil
}
