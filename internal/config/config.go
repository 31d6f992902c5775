// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the settings of the logbook tools.
//
// Values come, from highest to lowest priority, from command line flags,
// ELISA_ environment variables (a .env file in the working directory is
// loaded into the environment first), the config file and the defaults.
// The config file is the --config flag or, when that is empty,
// ~/.elisa.yaml if it exists.
package config

import (
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/matta/elisa/internal/apierr"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys of the settings.  Environment variables are the upper case key
// with an ELISA_ prefix, e.g. ELISA_SSO_COOKIE.
const (
	ServerKey             = "server"
	APIPathKey            = "api_path"
	LogbookKey            = "logbook"
	SSOCookieKey          = "sso_cookie"
	LDAPKey               = "ldap"
	PasswordKey           = "password"
	TokenCommandKey       = "token_command"
	InsecureSkipVerifyKey = "insecure_skip_verify"
	TraceKey              = "trace"
	VerbosityKey          = "verbosity"
	LogFileKey            = "log_file"
	RateLimitKey          = "rate_limit"
	ArchiveKey            = "archive"
	AttachmentDirKey      = "attachment_dir"
)

// Flags maps each key to the command line flag that sets it.
var Flags = map[string]string{
	ServerKey:             "server",
	LogbookKey:            "logbook",
	SSOCookieKey:          "sso-credential",
	LDAPKey:               "ldap-credential",
	TokenCommandKey:       "token-command",
	InsecureSkipVerifyKey: "insecure",
	TraceKey:              "trace",
	VerbosityKey:          "verbose",
	LogFileKey:            "log-file",
	RateLimitKey:          "rate-limit",
	ArchiveKey:            "archive",
	AttachmentDirKey:      "attachment-dir",
}

const (
	DefaultServer  = "https://np-vd-coldbox-elog.cern.ch"
	DefaultLogbook = "ATLAS"

	mergedAPIPath   = "/elisa/api/"
	unmergedAPIPath = "/elisa.api/api/"
)

// Config holds the loaded settings.
type Config struct {
	Server  string
	APIPath string
	Logbook string

	SSOCookie    string
	LDAP         string
	Password     string
	TokenCommand string

	InsecureSkipVerify bool
	Trace              bool
	Verbosity          int
	LogFile            string
	RateLimit          float64

	Archive       string
	AttachmentDir string
}

// homeDir returns the user's home directory.
func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	usr, err := user.Current()
	if err != nil {
		return "."
	}
	return usr.HomeDir
}

// defaultAPIPath is the API path of the merged server deployment unless
// DONT_USE_ELISA_MERGED is set.
func defaultAPIPath() string {
	if _, ok := os.LookupEnv("DONT_USE_ELISA_MERGED"); ok {
		return unmergedAPIPath
	}
	return mergedAPIPath
}

func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "loading %s", path)
	}
	return nil
}

// Load reads the configuration.  file may be empty.  flags may be nil;
// only the flags of the set that Flags names are bound.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}
	return load(file, flags)
}

func load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("elisa")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	home := homeDir()
	v.SetDefault(ServerKey, DefaultServer)
	v.SetDefault(APIPathKey, defaultAPIPath())
	v.SetDefault(LogbookKey, DefaultLogbook)
	v.SetDefault(VerbosityKey, 1)
	v.SetDefault(RateLimitKey, 0)
	v.SetDefault(ArchiveKey, filepath.Join(home, ".elisa.db"))
	v.SetDefault(AttachmentDirKey, filepath.Join(home, ".elisa", "attachments"))

	if flags != nil {
		for key, name := range Flags {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "binding flag --%s", name)
				}
			}
		}
	}

	if file == "" {
		if p := filepath.Join(home, ".elisa.yaml"); fileExists(p) {
			file = p
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", file)
		}
	}

	cfg := &Config{
		Server:             v.GetString(ServerKey),
		APIPath:            v.GetString(APIPathKey),
		Logbook:            v.GetString(LogbookKey),
		SSOCookie:          v.GetString(SSOCookieKey),
		LDAP:               v.GetString(LDAPKey),
		Password:           v.GetString(PasswordKey),
		TokenCommand:       v.GetString(TokenCommandKey),
		InsecureSkipVerify: v.GetBool(InsecureSkipVerifyKey),
		Trace:              v.GetBool(TraceKey),
		Verbosity:          v.GetInt(VerbosityKey),
		LogFile:            v.GetString(LogFileKey),
		RateLimit:          v.GetFloat64(RateLimitKey),
		Archive:            v.GetString(ArchiveKey),
		AttachmentDir:      v.GetString(AttachmentDirKey),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apierr.Argumentf("server %q is not an absolute URL", c.Server)
	}
	if c.Verbosity < 0 || c.Verbosity > 4 {
		return apierr.Argumentf("verbosity %d is not in [0, 4]", c.Verbosity)
	}
	if c.RateLimit < 0 {
		return apierr.Argumentf("rate limit %v is negative", c.RateLimit)
	}
	if c.Logbook == "" {
		return apierr.Argumentf("logbook must not be empty")
	}
	return nil
}

// APIRoot is the URL of the REST API, without a logbook.  Message type
// and systems affected catalogs are looked up there.
func (c *Config) APIRoot() string {
	root := strings.TrimRight(c.Server, "/") + "/" + strings.Trim(c.APIPath, "/")
	return root + "/"
}

// Connection is the URL of the configured logbook's REST API.
func (c *Config) Connection() string {
	return c.APIRoot() + c.Logbook + "/"
}

// Credentials splits the ldap setting, USER or USER:PASSWORD.  Without a
// password in it the password setting is used.
func (c *Config) Credentials() (user, password string) {
	user, password, found := strings.Cut(c.LDAP, ":")
	if !found {
		password = c.Password
	}
	return user, password
}
