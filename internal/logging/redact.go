package logging

import "regexp"

const redacted = "[REDACTED]"

var redactions = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	// PEM private keys, including the escaped single-line form found in env vars
	{regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----(\\n|\n)?`), redacted},
	{regexp.MustCompile(`"private_key"\s*:\s*"[^"]*"`), `"private_key":"` + redacted + `"`},
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`), "Bearer " + redacted},
	{regexp.MustCompile(`(access_token|refresh_token|id_token|assertion)["']?\s*[:=]\s*["']?[A-Za-z0-9\-._~+/]+=*`), "$1=" + redacted},
	{regexp.MustCompile(`(?i)authorization["']?\s*[:=]\s*["']?[^\s"']+`), "Authorization: " + redacted},
}

// Redact masks credentials, tokens and service account keys in s
func Redact(s string) string {
	for _, r := range redactions {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	return s
}

// redactFields returns fields with every string value masked
func redactFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		switch v := f.Value.(type) {
		case string:
			out[i].Value = Redact(v)
		case error:
			out[i].Value = Redact(v.Error())
		}
	}
	return out
}
