// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger for the API. It
// emits one structured JSON line per request with obvious PII scrubbed, and
// attaches a request-scoped zerolog.Logger to the Gin context so handlers
// can enrich logs via LoggerFrom.
//
// Scrub behavior:
//   - Request and response bodies are never logged (guess payloads and
//     registration bodies carry emails and passwords).
//   - Emails, phone numbers, and UUID-like identifiers are redacted from
//     query strings and header values.
//   - Sensitive headers (Authorization, Cookie, Set-Cookie, Idempotency-Key,
//     X-Api-Key, plus any in opts.MaskHeaders) are fully masked. Idempotency
//     keys are client-chosen request identifiers and must not be replayable
//     from logs.
//   - Credential-looking query parameters (password, token, api_key, secret)
//     have their values masked regardless of format.
//
// This reduces but does not eliminate the risk of sensitive data reaching
// logs; clients should still keep credentials out of query strings.
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders lists extra HTTP header names whose values are fully replaced
// with "[REDACTED]". Matching is case-insensitive and merged with the
// built-in set.
type RedactOptions struct {
	MaskHeaders []string
}

// builtinMaskedHeaders are always fully masked, independent of options.
var builtinMaskedHeaders = []string{
	"authorization",
	"cookie",
	"set-cookie",
	"idempotency-key",
	"x-api-key",
}

// credentialParams are query parameter names whose values are always masked.
var credentialParams = map[string]struct{}{
	"password": {},
	"token":    {},
	"api_key":  {},
	"secret":   {},
}

// uuidRE must run before phoneRE so the phone pattern cannot match the
// digit/hyphen segments of a UUID.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits-only phone pattern, e.g. "+1 212-555-1212", "(212) 555-1212".
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redactValue applies the pattern-based scrubbers. Order: id, email, phone
// (phone is the loosest pattern).
func redactValue(s string) string {
	if s == "" {
		return s
	}
	out := uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
}

// redactQuery masks the values of credential-named parameters and runs the
// pattern scrubbers over the rest. Unparseable queries fall back to
// whole-string scrubbing.
func redactQuery(rawQuery string) string {
	if rawQuery == "" {
		return rawQuery
	}
	vals, err := url.ParseQuery(rawQuery)
	if err != nil {
		return redactValue(rawQuery)
	}
	var b strings.Builder
	first := true
	for _, part := range strings.Split(rawQuery, "&") {
		name := part
		if i := strings.IndexByte(part, '='); i >= 0 {
			name = part[:i]
		}
		decoded, derr := url.QueryUnescape(name)
		if derr != nil {
			decoded = name
		}
		if !first {
			b.WriteByte('&')
		}
		first = false
		if _, sensitive := credentialParams[strings.ToLower(decoded)]; sensitive {
			b.WriteString(name)
			b.WriteString("=[REDACTED]")
			continue
		}
		b.WriteString(name)
		if v := vals.Get(decoded); v != "" {
			b.WriteByte('=')
			b.WriteString(redactValue(v))
		}
	}
	return b.String()
}

// RedactingLogger returns the access-logging middleware.
//
// Per request it logs method, route path (raw URL path when no route
// matched), scrubbed query string, scrubbed headers, status, response size,
// and latency. Severity follows the outcome: error for 5xx or when the Gin
// context collected errors, warn for 4xx, info otherwise.
//
// Before invoking the handler it stores a request-scoped logger (request ID,
// method, path) in the Gin context for LoggerFrom.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := make(map[string]struct{}, len(builtinMaskedHeaders)+len(opts.MaskHeaders))
	for _, h := range builtinMaskedHeaders {
		maskHeaders[h] = struct{}{}
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := truncate(redactQuery(c.Request.URL.RawQuery), maxQueryLogLength)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redactValue(strings.Join(vv, ", "))
		}

		rid, _ := c.Get(requestIDKey)
		reqLogger := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &reqLogger)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		size := c.Writer.Size()

		ev := reqLogger.Info()
		switch {
		case len(c.Errors) > 0:
			ev = reqLogger.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = reqLogger.Error()
		case status >= 400:
			ev = reqLogger.Warn()
		}

		ev.
			Str("remote_ip", c.ClientIP()).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", size).
			Dur("latency", latency).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
