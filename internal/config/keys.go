package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Key describes a settable configuration key. Profile fields are addressed
// as profiles.<name>.<field>; Key holds "profiles.*.<field>" for them.
type Key struct {
	Key         string
	Description string
	EnvVar      string // overriding environment variable, if any
	Secret      bool   // masked by config list
	Tag         string // validator tag applied on set
}

// Keys lists every key accepted by config set and config get.
var Keys = []Key{
	{Key: "defaults.profile", Description: "Active credentials profile"},
	{Key: "defaults.project", Description: "Default Jira project key", EnvVar: "JIRA_PROJECT"},
	{Key: "defaults.space", Description: "Default Confluence space id", EnvVar: "CONFLUENCE_SPACE"},
	{Key: "defaults.format", Description: "Default output format", EnvVar: "JC_FORMAT", Tag: "oneof=json plain minimal"},
	{Key: "defaults.workspace", Description: "Default Bitbucket workspace", EnvVar: "BITBUCKET_WORKSPACE"},

	{Key: "profiles.*.domain", Description: "Atlassian site (acme, acme.atlassian.net or a URL)", EnvVar: "JIRA_DOMAIN", Tag: "required"},
	{Key: "profiles.*.email", Description: "Account email", EnvVar: "JIRA_EMAIL", Tag: "required,email"},
	{Key: "profiles.*.apitoken", Description: "Atlassian API token", EnvVar: "JIRA_API_TOKEN", Secret: true, Tag: "required"},

	{Key: "bitbucket.url", Description: "Bitbucket API or workspace URL", EnvVar: "BITBUCKET_URL", Tag: "omitempty,url"},
	{Key: "bitbucket.token", Description: "Bitbucket access token", EnvVar: "BITBUCKET_TOKEN", Secret: true},
	{Key: "bitbucket.username", Description: "Bitbucket username", EnvVar: "BITBUCKET_USERNAME"},
	{Key: "bitbucket.password", Description: "Bitbucket app password", EnvVar: "BITBUCKET_PASSWORD", Secret: true},
	{Key: "bitbucket.workspace", Description: "Bitbucket workspace", EnvVar: "BITBUCKET_WORKSPACE"},
}

var (
	keyMap   map[string]*Key
	validate = validator.New()
)

func init() {
	keyMap = make(map[string]*Key, len(Keys))
	for i := range Keys {
		keyMap[Keys[i].Key] = &Keys[i]
	}
}

// parseKey splits a dotted key into its Keys entry and, for profile keys,
// the profile name.
func parseKey(key string) (*Key, string, error) {
	parts := strings.Split(key, ".")
	lookup, profile := strings.ToLower(key), ""
	if len(parts) == 3 && strings.EqualFold(parts[0], "profiles") && parts[1] != "" {
		profile = parts[1]
		lookup = "profiles.*." + strings.ToLower(parts[2])
	}
	k := keyMap[lookup]
	if k == nil {
		known := make([]string, 0, len(Keys))
		for _, k := range Keys {
			known = append(known, strings.Replace(k.Key, "*", "<name>", 1))
		}
		return nil, "", fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(known, ", "))
	}
	return k, profile, nil
}

// ValidateKey checks that key is known and value is acceptable for it.
func ValidateKey(key, value string) error {
	k, _, err := parseKey(key)
	if err != nil {
		return err
	}
	if k.Tag == "" {
		return nil
	}
	if err := validate.Var(value, k.Tag); err != nil {
		return fmt.Errorf("invalid value for %s: %s", key, describe(err, ""))
	}
	return nil
}

func fieldName(k *Key) string { return k.Key[strings.LastIndex(k.Key, ".")+1:] }

// Set assigns value to key, creating the profile or bitbucket section as
// needed.
func (f *File) Set(key, value string) error {
	if err := ValidateKey(key, value); err != nil {
		return err
	}
	k, profile, _ := parseKey(key)
	name := fieldName(k)

	switch {
	case strings.HasPrefix(k.Key, "defaults."):
		d := &f.Defaults
		switch name {
		case "profile":
			d.Profile = value
		case "project":
			d.Project = value
		case "space":
			d.Space = value
		case "format":
			d.Format = value
		case "workspace":
			d.Workspace = value
		}

	case strings.HasPrefix(k.Key, "profiles."):
		pname, p, ok := f.lookupProfile(profile)
		if !ok {
			pname = profile
		}
		switch name {
		case "domain":
			p.Domain = value
		case "email":
			p.Email = value
		case "apitoken":
			p.APIToken = value
		}
		if f.Profiles == nil {
			f.Profiles = map[string]Profile{}
		}
		f.Profiles[pname] = p

	default:
		if f.Bitbucket == nil {
			f.Bitbucket = &Bitbucket{}
		}
		b := f.Bitbucket
		switch name {
		case "url":
			b.URL = value
		case "token":
			b.Token = value
		case "username":
			b.Username = value
		case "password":
			b.Password = value
		case "workspace":
			b.Workspace = value
		}
	}
	return nil
}

// Get returns the value stored under key. Unset values are "".
func (f *File) Get(key string) (string, error) {
	k, profile, err := parseKey(key)
	if err != nil {
		return "", err
	}
	name := fieldName(k)

	switch {
	case strings.HasPrefix(k.Key, "defaults."):
		d := f.Defaults
		return map[string]string{
			"profile": d.Profile, "project": d.Project, "space": d.Space,
			"format": d.Format, "workspace": d.Workspace,
		}[name], nil

	case strings.HasPrefix(k.Key, "profiles."):
		_, p, ok := f.lookupProfile(profile)
		if !ok {
			return "", f.profileNotFound(profile)
		}
		return map[string]string{"domain": p.Domain, "email": p.Email, "apitoken": p.APIToken}[name], nil

	default:
		if f.Bitbucket == nil {
			return "", nil
		}
		b := f.Bitbucket
		return map[string]string{
			"url": b.URL, "token": b.Token, "username": b.Username,
			"password": b.Password, "workspace": b.Workspace,
		}[name], nil
	}
}
