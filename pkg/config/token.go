package config

type TokenConf struct {
	SessionExpiryHour int
	SessionSecret     string
	CookieName        string
	CookieSecure      bool
}

func NewTokenConf(c *Config) *TokenConf {
	conf := &TokenConf{
		SessionExpiryHour: c.Auth.SessionExpiryHour,
		SessionSecret:     c.Auth.SessionSecret,
		CookieName:        c.Auth.CookieName,
		CookieSecure:      c.Auth.CookieSecure,
	}
	if conf.SessionExpiryHour <= 0 {
		conf.SessionExpiryHour = 24 * 7
	}
	if conf.CookieName == "" {
		conf.CookieName = "gitmesh_session"
	}
	return conf
}
