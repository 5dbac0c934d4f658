package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMissingCredentials means no complete set of Jira credentials was found.
var ErrMissingCredentials = errors.New("missing Jira credentials")

// MissingCredentialsHint tells the user how to supply credentials.
const MissingCredentialsHint = "Set JIRA_DOMAIN, JIRA_EMAIL, JIRA_API_TOKEN env vars or run 'jc config init'"

// Overrides are credential values given on the command line.
type Overrides struct {
	Domain  string
	Email   string
	Token   string
	Profile string
}

// Credentials reach one Atlassian site.
type Credentials struct {
	Domain   string `validate:"required"`
	Email    string `validate:"required,email"`
	APIToken string `validate:"required"`
}

func (o Overrides) complete() bool { return o.Domain != "" && o.Email != "" && o.Token != "" }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ResolveJira picks credentials in this order: all three flags, all three
// JIRA_* environment variables, then the selected profile with individual
// flags and variables layered on top. f may be nil.
func ResolveJira(f *File, o Overrides) (Credentials, error) {
	env := Overrides{
		Domain: os.Getenv("JIRA_DOMAIN"),
		Email:  os.Getenv("JIRA_EMAIL"),
		Token:  os.Getenv("JIRA_API_TOKEN"),
	}

	var c Credentials
	switch {
	case o.complete():
		c = Credentials{Domain: o.Domain, Email: o.Email, APIToken: o.Token}
	case env.complete():
		c = Credentials{Domain: env.Domain, Email: env.Email, APIToken: env.Token}
	case f != nil:
		p, err := f.Profile(o.Profile)
		if err != nil {
			if o.Profile != "" {
				return Credentials{}, err
			}
			return Credentials{}, fmt.Errorf("%w. %s", ErrMissingCredentials, MissingCredentialsHint)
		}
		c = Credentials{
			Domain:   firstNonEmpty(o.Domain, env.Domain, p.Domain),
			Email:    firstNonEmpty(o.Email, env.Email, p.Email),
			APIToken: firstNonEmpty(o.Token, env.Token, p.APIToken),
		}
	default:
		return Credentials{}, fmt.Errorf("%w. %s", ErrMissingCredentials, MissingCredentialsHint)
	}

	if err := validate.Struct(c); err != nil {
		return Credentials{}, fmt.Errorf("invalid Jira credentials: %s", describe(err, "Credentials."))
	}
	return c, nil
}

// BitbucketCredentials reach a Bitbucket workspace. Either Token or both
// Username and Password are required.
type BitbucketCredentials struct {
	URL       string `validate:"omitempty,url"`
	Token     string `validate:"required_without=Username"`
	Username  string `validate:"required_without=Token"`
	Password  string `validate:"required_with=Username"`
	Workspace string
}

// ResolveBitbucket layers BITBUCKET_* environment variables over the
// bitbucket section of f. workspace, when set, wins over both. f may be nil.
func ResolveBitbucket(f *File, workspace string) (BitbucketCredentials, error) {
	var sec Bitbucket
	defaultWS := ""
	if f != nil {
		if f.Bitbucket != nil {
			sec = *f.Bitbucket
		}
		defaultWS = f.Defaults.Workspace
	}

	c := BitbucketCredentials{
		URL:       firstNonEmpty(os.Getenv("BITBUCKET_URL"), sec.URL),
		Token:     firstNonEmpty(os.Getenv("BITBUCKET_TOKEN"), sec.Token),
		Username:  firstNonEmpty(os.Getenv("BITBUCKET_USERNAME"), sec.Username),
		Password:  firstNonEmpty(os.Getenv("BITBUCKET_PASSWORD"), sec.Password),
		Workspace: firstNonEmpty(workspace, os.Getenv("BITBUCKET_WORKSPACE"), sec.Workspace, defaultWS),
	}
	if c.Token != "" {
		// A token makes basic auth irrelevant.
		c.Username, c.Password = "", ""
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "URL" {
					return BitbucketCredentials{}, fmt.Errorf("invalid BITBUCKET_URL %q", c.URL)
				}
			}
		}
		return BitbucketCredentials{}, errors.New("BITBUCKET_TOKEN or BITBUCKET_USERNAME/PASSWORD required")
	}
	return c, nil
}

// DefaultProject returns JIRA_PROJECT, else defaults.project.
func DefaultProject(f *File) string {
	if f == nil {
		return os.Getenv("JIRA_PROJECT")
	}
	return firstNonEmpty(os.Getenv("JIRA_PROJECT"), f.Defaults.Project)
}

// DefaultSpace returns CONFLUENCE_SPACE, else defaults.space.
func DefaultSpace(f *File) string {
	if f == nil {
		return os.Getenv("CONFLUENCE_SPACE")
	}
	return firstNonEmpty(os.Getenv("CONFLUENCE_SPACE"), f.Defaults.Space)
}

// DefaultFormat returns JC_FORMAT, else defaults.format, else json.
func DefaultFormat(f *File) string {
	cfg := ""
	if f != nil {
		cfg = f.Defaults.Format
	}
	return firstNonEmpty(os.Getenv("JC_FORMAT"), cfg, "json")
}

// IsSecret reports whether key holds a token or password.
func IsSecret(key string) bool {
	k, _, err := parseKey(key)
	return err == nil && k.Secret
}

// describe renders validator errors as "field must ..." clauses.
func describe(err error, trim string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), trim))
		if field == "" {
			field = "value"
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "url":
			msgs = append(msgs, field+" must be a URL")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
